package apperr

// Problem is the structured error document exposed at transport boundaries,
// shaped after RFC 7807.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemMeta maps each code to its transport representation.
var problemMeta = map[Code]struct {
	title  string
	status int
}{
	CodeInvalidInput:        {"Invalid Input", 400},
	CodeNotFound:            {"Not Found", 404},
	CodeRevoked:             {"Reference Revoked", 404},
	CodeExpired:             {"Reference Expired", 404},
	CodeUnverified:          {"Content Unverified", 401},
	CodeVerificationFailed:  {"Verification Failed", 401},
	CodeUpstreamUnavailable: {"Upstream Unavailable", 500},
	CodeSignerNotReady:      {"Signer Not Ready", 500},
	CodeUnsupportedChain:    {"Unsupported Chain", 400},
	CodeRateLimited:         {"Rate Limited", 429},
}

// ToProblem renders err as a Problem document for the given request path.
// Unclassified errors map to a 500 computation error.
func ToProblem(err error, instance string) Problem {
	code := CodeOf(err)
	meta, ok := problemMeta[code]
	if !ok {
		return Problem{
			Type:     "https://astral.global/errors/computation-error",
			Title:    "Computation Error",
			Status:   500,
			Detail:   err.Error(),
			Instance: instance,
		}
	}
	return Problem{
		Type:     "https://astral.global/errors/" + string(code),
		Title:    meta.title,
		Status:   meta.status,
		Detail:   err.Error(),
		Instance: instance,
	}
}
