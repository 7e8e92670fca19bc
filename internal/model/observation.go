package model

import "sort"

// Signals is the flat record of sensor booleans captured for one attempt.
// Field names are spelled out rather than map-keyed since each one feeds
// a specific correlation rule downstream.
type Signals struct {
	NavigationChanged       bool `json:"navigationChanged"`
	RouteChanged            bool `json:"routeChanged"`
	ReactEffectNavigation   bool `json:"reactEffectNavigation"`
	VueRouterTransition     bool `json:"vueRouterTransition"`
	NextJsPageSwap          bool `json:"nextJsPageSwap"`
	MeaningfulDomChange     bool `json:"meaningfulDomChange"`
	MeaningfulUIChange      bool `json:"meaningfulUIChange"`
	FeedbackSeen            bool `json:"feedbackSeen"`
	AriaLiveUpdated         bool `json:"ariaLiveUpdated"`
	RoleAlertSeen           bool `json:"roleAlertSeen"`
	CorrelatedNetworkActivity bool `json:"correlatedNetworkActivity"`
	NetworkActivity         bool `json:"networkActivity"`
	NetworkSuccess          bool `json:"networkSuccess"`
	NetworkFailure          bool `json:"networkFailure"`
	SubmitEventsDelta       bool `json:"submitEventsDelta"`
}

// SilenceKind is the closed set of silence markers. A silence marker is
// descriptive only; it is never a finding by itself.
type SilenceKind string

const (
	SilenceIntentBlocked SilenceKind = "intent_blocked"
)

// SilenceCode is the closed set of codes attached to a SilenceMarker.
type SilenceCode string

const (
	CodeUnknownClickIntent SilenceCode = "unknown_click_intent"
)

// SilenceMarker is an optional structured note recorded on an observation
// when every signal is false but no finding can be defended.
type SilenceMarker struct {
	Kind SilenceKind `json:"kind"`
	Code SilenceCode `json:"code"`
}

// OutcomeState is the closed set of per-attempt outcomes.
type OutcomeState string

const (
	OutcomeSuccess    OutcomeState = "SUCCESS"
	OutcomeIncomplete OutcomeState = "INCOMPLETE"
	OutcomeNotFound   OutcomeState = "NOT_FOUND"
	OutcomeFindings   OutcomeState = "FINDINGS"
)

// Observation is the record of one attempt to honor one expectation.
type Observation struct {
	ExpectationID string        `json:"expectationId"`
	Attempted     bool          `json:"attempted"`
	ActionSuccess bool          `json:"actionSuccess"`
	Outcome       OutcomeState  `json:"observed"`
	Reason        string        `json:"reason,omitempty"`
	EvidenceFiles []string      `json:"evidenceFiles"`
	Signals       Signals       `json:"signals"`
	SilenceDetected *SilenceMarker `json:"silenceDetected,omitempty"`
	ObservedAt    string        `json:"observedAt"`
}

// CiteOnlyExisting filters o.EvidenceFiles down to names present in
// existingFiles, enforcing the "an observation may not claim evidence
// files absent from disk" invariant.
func (o *Observation) CiteOnlyExisting(existingFiles map[string]bool) {
	kept := o.EvidenceFiles[:0]
	for _, f := range o.EvidenceFiles {
		if existingFiles[f] {
			kept = append(kept, f)
		}
	}
	o.EvidenceFiles = kept
}

// SortObservationsByExpectationID orders observations deterministically,
// matching expectation id order.
func SortObservationsByExpectationID(obs []Observation) {
	sort.Slice(obs, func(i, j int) bool { return obs[i].ExpectationID < obs[j].ExpectationID })
}
