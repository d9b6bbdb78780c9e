package verification

// correlate scores source independence and inter-stamp agreement for proofs
// carrying at least two stamps. Only stamps that passed basic validity
// contribute: a derived score over failed stamps could reward garbage
// evidence with an independence bonus.
func correlate(stamps []LocationStamp, results []StampResult) CorrelationAssessment {
	validStamps := make([]LocationStamp, 0, len(stamps))
	validScores := make([]float64, 0, len(results))
	for i, r := range results {
		if r.Verify.Valid {
			validStamps = append(validStamps, stamps[i])
			validScores = append(validScores, r.Assess.Score)
		}
	}

	if len(validScores) < 2 {
		// Insufficient signal for any derived score.
		return CorrelationAssessment{
			Independence: 0.5,
			Agreement:    0.5,
			Notes:        "fewer than two valid stamps; correlation is neutral",
		}
	}

	scoreTerm := 1 - 4*variance(validScores)
	if scoreTerm < 0 {
		scoreTerm = 0
	}
	return CorrelationAssessment{
		Independence: independence(validStamps),
		Agreement:    0.6*scoreTerm + 0.4*temporalOverlapRatio(validStamps),
	}
}

// independence is the share of distinct evidence sources among the stamps:
// 1.0 when every stamp comes from a different source, 1/N when all share one.
func independence(stamps []LocationStamp) float64 {
	if len(stamps) == 0 {
		return 0
	}
	distinct := make(map[string]struct{}, len(stamps))
	for _, s := range stamps {
		distinct[s.PluginName] = struct{}{}
	}
	return float64(len(distinct)) / float64(len(stamps))
}

// temporalOverlapRatio is the duration of the intersection of all stamp
// footprints divided by the duration of their union. Footprints that do not
// all overlap make the intersection empty and the ratio zero.
func temporalOverlapRatio(stamps []LocationStamp) float64 {
	if len(stamps) == 0 {
		return 0
	}

	interStart, interEnd := stamps[0].TimeStart, stamps[0].TimeEnd
	unionStart, unionEnd := stamps[0].TimeStart, stamps[0].TimeEnd
	for _, s := range stamps[1:] {
		if s.TimeStart > interStart {
			interStart = s.TimeStart
		}
		if s.TimeEnd < interEnd {
			interEnd = s.TimeEnd
		}
		if s.TimeStart < unionStart {
			unionStart = s.TimeStart
		}
		if s.TimeEnd > unionEnd {
			unionEnd = s.TimeEnd
		}
	}

	union := unionEnd - unionStart
	if union <= 0 {
		return 0
	}
	inter := interEnd - interStart
	if inter <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// variance is the population variance.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}
