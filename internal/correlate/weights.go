package correlate

// contractVersion names the frozen weight set this package implements.
// A new weight set gets a new version constant rather than mutating this
// one in place, so a re-run against an older contractVersion stays
// byte-identical.
const contractVersion = "truthwatch-weights-v1"

// weights is the fixed, signed per-reason-code contribution to score01.
// Each value was chosen the way the project's action_validator.go assigns
// a fixed confidence per verification method (1.0 for a hash match, 0.8
// for an output scan, 0.5 for an existence check only): a small closed
// set of named methods, each with one frozen number, no runtime tuning.
var weights = map[ReasonCode]float64{
	ReasonPromiseProven:          0.20,
	ReasonObsDomChanged:          0.20,
	ReasonObsURLChanged:          0.20,
	ReasonObsNetworkSuccess:      0.25,
	ReasonObsNetworkFailure:      0.30,
	ReasonObsNoFeedback:          0.25,
	ReasonCorrStrongCorrelation:  0.35,
	ReasonCorrWeakCorrelation:    0.10,
	ReasonEvidenceComplete:       0.15,
	ReasonEvidenceIncomplete:     -0.30,
	ReasonSensorSubmitPresent:    0.10,
	ReasonSensorFeedbackPresent:  -0.25,
	ReasonGuardAnalyticsFiltered: -0.15,
}

func weightFor(r ReasonCode) float64 {
	return weights[r]
}

// ContractVersion returns the frozen weight-table version this build of
// the package implements, for the findings writer to stamp onto every
// summary it produces.
func ContractVersion() string {
	return contractVersion
}
