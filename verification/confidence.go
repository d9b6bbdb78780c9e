package verification

const (
	// invalidFloor is the confidence assigned when no stamp passes basic
	// validity. It is deliberately above zero: a failed-but-attempted
	// verification is distinguishable from "nothing was checked".
	invalidFloor = 0.1

	// singleStampCap bounds what a single piece of evidence can ever earn.
	singleStampCap = 0.85

	inconsistentSignalsFactor = 0.8

	independenceThreshold = 0.5
	independenceWeight    = 0.2

	agreementThreshold = 0.7
	agreementWeight    = 0.15

	invalidStampPenalty = 0.05
)

// aggregate combines per-stamp results and the optional correlation into one
// bounded confidence value. The output is a heuristic, not a calibrated
// probability.
func aggregate(results []StampResult, correlation *CorrelationAssessment) float64 {
	valid := make([]StampResult, 0, len(results))
	for _, r := range results {
		if r.Verify.Valid {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return invalidFloor
	}

	if len(results) == 1 {
		score := valid[0].Assess.Score
		if !valid[0].Verify.SignalsConsistent {
			score *= inconsistentSignalsFactor
		}
		if score > singleStampCap {
			score = singleStampCap
		}
		return score
	}

	var sum float64
	for _, r := range valid {
		sum += r.Assess.Score
	}
	confidence := sum / float64(len(valid))

	if correlation != nil {
		if correlation.Independence > independenceThreshold {
			confidence += (correlation.Independence - independenceThreshold) * independenceWeight
		}
		if correlation.Agreement > agreementThreshold {
			confidence += (correlation.Agreement - agreementThreshold) * agreementWeight
		}
	}

	confidence -= float64(len(results)-len(valid)) * invalidStampPenalty

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
