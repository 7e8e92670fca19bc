package correlate

import (
	"sort"

	"truthwatch/internal/model"
)

// triggered computes which reason codes apply to one (expectation,
// observation) pair. Each rule reads only the flat Signals record and the
// observation's own bookkeeping; nothing here touches a clock or a
// random source.
func triggered(ctx scoreContext) map[ReasonCode]bool {
	s := ctx.signals
	out := map[ReasonCode]bool{
		ReasonPromiseProven:         ctx.promiseProven,
		ReasonObsDomChanged:         s.MeaningfulDomChange,
		ReasonObsURLChanged:         s.NavigationChanged || s.RouteChanged,
		ReasonObsNetworkSuccess:     s.NetworkSuccess,
		ReasonObsNetworkFailure:     s.NetworkFailure,
		ReasonObsNoFeedback:         ctx.feedbackExpected && !anyFeedback(s),
		ReasonCorrStrongCorrelation: s.CorrelatedNetworkActivity && s.NetworkSuccess,
		ReasonCorrWeakCorrelation:   s.CorrelatedNetworkActivity && !s.NetworkSuccess,
		ReasonEvidenceComplete:      ctx.evidenceComplete,
		ReasonEvidenceIncomplete:    !ctx.evidenceComplete,
		ReasonSensorSubmitPresent:   s.SubmitEventsDelta,
		ReasonSensorFeedbackPresent: anyFeedback(s),
		ReasonGuardAnalyticsFiltered: s.NetworkActivity && !s.CorrelatedNetworkActivity,
	}
	return out
}

func anyFeedback(s model.Signals) bool {
	return s.FeedbackSeen || s.AriaLiveUpdated || s.RoleAlertSeen
}

// scoreContext is the pure input to scoring: the flat signals plus the
// small amount of context a reason code needs beyond Signals itself.
type scoreContext struct {
	signals          model.Signals
	promiseProven    bool
	feedbackExpected bool
	evidenceComplete bool
}

// Score01 sums the signed weight of every triggered reason code and
// clamps the result to [0,1]. It returns the clamped score plus the
// full ordered reason-code list (canonical enum order) and the 2-4
// highest-magnitude reasons for topReasons.
func Score01(ctx scoreContext) (score01 float64, reasons []ReasonCode, topReasons []ReasonCode) {
	hits := triggered(ctx)

	var sum float64
	for _, r := range allReasons {
		if hits[r] {
			sum += weightFor(r)
			reasons = append(reasons, r)
		}
	}
	if sum < 0 {
		sum = 0
	}
	if sum > 1 {
		sum = 1
	}

	ranked := make([]ReasonCode, len(reasons))
	copy(ranked, reasons)
	sort.SliceStable(ranked, func(i, j int) bool {
		return absWeight(ranked[i]) > absWeight(ranked[j])
	})
	n := len(ranked)
	if n > 4 {
		n = 4
	}
	topReasons = ranked[:n]
	return sum, reasons, topReasons
}

func absWeight(r ReasonCode) float64 {
	w := weightFor(r)
	if w < 0 {
		return -w
	}
	return w
}
