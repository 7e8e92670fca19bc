package model

// TruthState is the closed set of run-level verdicts produced by the
// aggregator's fail-fast reducer.
type TruthState string

const (
	StateFailed     TruthState = "FAILED"
	StateIncomplete TruthState = "INCOMPLETE"
	StateFindings   TruthState = "FINDINGS"
	StateSuccess    TruthState = "SUCCESS"
)

// CoverageSummary reports how much of the proven expectation set was
// actually exercised, against the denominator that excludes gap reasons
// the operator chose deliberately (NOT_APPLICABLE, USER_FILTERED,
// AUTO_SKIP, DISABLED_BY_PRESET).
type CoverageSummary struct {
	ExpectationsTotal    int                       `json:"expectationsTotal"`
	Attempted            int                       `json:"attempted"`
	Observed             int                       `json:"observed"`
	CoverageRatio        float64                   `json:"coverageRatio"`
	Threshold            float64                   `json:"threshold"`
	UnattemptedCount     int                       `json:"unattemptedCount"`
	UnattemptedBreakdown map[CoverageGapReason]int `json:"unattemptedBreakdown"`
}

// Digest is the byte-identical-across-equal-runs integer summary used for
// drift comparison between runs of the same URL.
type Digest struct {
	ExpectationsTotal int `json:"expectationsTotal"`
	Attempted         int `json:"attempted"`
	Observed          int `json:"observed"`
	SilentFailures    int `json:"silentFailures"`
	CoverageGaps      int `json:"coverageGaps"`
	Unproven          int `json:"unproven"`
	Informational     int `json:"informational"`
}

// Truth is the complete aggregator output: the run-level state, the
// coverage summary, and the digest.
type Truth struct {
	TruthState      TruthState      `json:"truthState"`
	CoverageSummary CoverageSummary `json:"coverageSummary"`
	Digest          Digest          `json:"digest"`
}
