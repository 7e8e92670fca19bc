// Package correlate turns an (expectation, observation) pair into a
// Finding under the closed reason-code vocabulary and the frozen weight
// table of this version's contractVersion. Scoring is pure and
// table-driven: no clocks, no randomness, grounded on the project's
// post-action verification idiom in internal/core/action_validator.go (a
// closed set of named verification methods each contributing a fixed
// 0.0-1.0 confidence value).
package correlate

import (
	"sort"

	"truthwatch/internal/model"
	"truthwatch/internal/timeid"
)

// EnforcementStats tallies Evidence Law activity across one DETECT phase:
// how many Evidence Law violations were recorded (one finding can count
// more than once), and how many findings were dropped outright for
// missing narrative fields.
type EnforcementStats struct {
	LawViolations int      `json:"lawViolations"`
	DroppedCount  int      `json:"droppedCount"`
	DroppedIDs    []string `json:"droppedIds,omitempty"`
}

// classify decides whether (e, o) produces a finding at all and, if so,
// which FindingType it carries. Order matters: a timed-out attempt is
// always UNPROVEN regardless of any signal that fired before the
// timeout, and a not-found selector is reported as a missing action only
// for the expectation types where runtime absence is itself meaningful.
func classify(e model.Expectation, o model.Observation) (model.FindingType, bool) {
	switch {
	case o.Outcome == model.OutcomeIncomplete:
		return model.FindingUnproven, true

	case o.Outcome == model.OutcomeNotFound:
		switch e.Type {
		case model.TypeNetworkAction:
			return model.FindingMissingNetworkAction, true
		case model.TypeStateAction:
			return model.FindingMissingStateAction, true
		default:
			return "", false
		}

	case o.SilenceDetected != nil:
		switch e.Type {
		case model.TypeNavigation:
			return model.FindingNavigationSilentFailure, true
		case model.TypeNetworkAction:
			return model.FindingNetworkSilentFailure, true
		case model.TypeInteraction:
			return model.FindingDeadInteractionSilentFailure, true
		default:
			return model.FindingSilentFailure, true
		}

	case o.Signals.NetworkFailure && !anyFeedback(o.Signals):
		return model.FindingNetworkSilentFailure, true

	case o.Outcome == model.OutcomeSuccess:
		return model.FindingInformational, true

	default:
		return "", false
	}
}

// feedbackExpectedFor reports whether the expectation's type is one where
// an OBS_NO_FEEDBACK reason code is meaningful at all — a bare navigation
// link is not expected to raise a feedback toast, but a form submission
// or validation block is.
func feedbackExpectedFor(t model.ExpectationType) bool {
	switch t {
	case model.TypeNetworkAction, model.TypeValidationBlock, model.TypeStateAction:
		return true
	default:
		return false
	}
}

// CorrelateOne builds at most one Finding from an (expectation,
// observation) pair, already passed through the Evidence Law. ok is false
// when the pair produces no finding (e.g. a clean success on a bare
// navigation link with nothing further to report).
func CorrelateOne(e model.Expectation, o model.Observation, existingEvidenceFiles map[string]bool) (model.Finding, int, bool) {
	ft, ok := classify(e, o)
	if !ok {
		return model.Finding{}, 0, false
	}

	informational := ft == model.FindingInformational
	ctx := scoreContext{
		signals:          o.Signals,
		promiseProven:    e.Proof == model.ProvenExpectation,
		feedbackExpected: feedbackExpectedFor(e.Type),
		evidenceComplete: len(o.EvidenceFiles) > 0,
	}
	score01, reasons, topReasons := Score01(ctx)
	level := model.LevelForScore(score01)
	status := DeriveStatus(level, substantiveSignalPresent(o.Signals), informational)

	f := model.Finding{
		ID:            timeid.FindingID(e.ID),
		ExpectationID: e.ID,
		Type:          ft,
		Status:        status,
		Confidence: model.Confidence{
			Score01:    score01,
			Score100:   model.Score100(score01),
			Level:      level,
			TopReasons: reasonStrings(topReasons),
			Reasons:    reasonStrings(reasons),
		},
		Narrative:     buildNarrative(e, o, ft),
		EvidenceFiles: o.EvidenceFiles,
		DetectedAt:    o.ObservedAt,
	}

	f, violations := ApplyEvidenceLaw(f, o.Signals, existingEvidenceFiles)

	usefulness := UsefulnessFor(f.Status, level, o.Signals.CorrelatedNetworkActivity && o.Signals.NetworkSuccess, ctx.evidenceComplete)
	f.Meta = model.FindingMeta{
		DecisionUsefulness: usefulness,
		GateOutcome:        model.GateOutcomeFor(usefulness),
		GatePreview:        GatePreviewFor(usefulness),
	}

	return f, violations, true
}

func reasonStrings(rs []ReasonCode) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// Run correlates every observation against its expectation (matched by
// ExpectationID), drops any finding missing a critical narrative field,
// and returns the surviving findings sorted by id plus enforcement
// bookkeeping for the summary writer.
func Run(expectations []model.Expectation, observations []model.Observation, existingEvidenceFiles map[string]bool) ([]model.Finding, EnforcementStats) {
	byID := make(map[string]model.Expectation, len(expectations))
	for _, e := range expectations {
		byID[e.ID] = e
	}

	var stats EnforcementStats
	var findings []model.Finding
	for _, o := range observations {
		e, found := byID[o.ExpectationID]
		if !found {
			continue
		}
		f, violations, ok := CorrelateOne(e, o, existingEvidenceFiles)
		if !ok {
			continue
		}
		stats.LawViolations += violations
		if !f.Narrative.Complete() {
			stats.DroppedCount++
			stats.DroppedIDs = append(stats.DroppedIDs, f.ID)
			continue
		}
		findings = append(findings, f)
	}

	sort.Slice(findings, func(i, j int) bool { return findings[i].ID < findings[j].ID })
	sort.Strings(stats.DroppedIDs)
	return findings, stats
}
