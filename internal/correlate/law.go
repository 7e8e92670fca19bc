package correlate

import "truthwatch/internal/model"

// substantiveSignalPresent is the Evidence Law's definition of "something
// actually happened": a route/navigation transition, correlated network
// activity, a meaningful DOM change, or user-visible feedback.
func substantiveSignalPresent(s model.Signals) bool {
	return s.RouteChanged || s.ReactEffectNavigation || s.VueRouterTransition || s.NextJsPageSwap ||
		s.CorrelatedNetworkActivity || s.MeaningfulDomChange ||
		s.FeedbackSeen || s.AriaLiveUpdated || s.RoleAlertSeen
}

// enforceSubstantiveSignal downgrades a CONFIRMED finding that has no
// substantive signal behind it. A finding may claim CONFIRMED only when
// the Evidence Law's signal test passes; everything else about the
// finding (narrative, evidence files) can be fine and it still cannot be
// CONFIRMED.
func enforceSubstantiveSignal(f model.Finding, s model.Signals, violations *int) model.Finding {
	if f.Status != model.StatusConfirmed || substantiveSignalPresent(s) {
		return f
	}
	f.Status = model.StatusSuspected
	f.Enrichment.EvidenceFileLawDowngradeReasons = append(f.Enrichment.EvidenceFileLawDowngradeReasons, "no_substantive_signal")
	*violations++
	return f
}

// enforceEvidenceFileExistence downgrades any finding citing an evidence
// file absent from the committed run directory's file index. existing
// holds basenames actually committed, as reported by
// artifact.Manager.ExistingBasenames.
func enforceEvidenceFileExistence(f model.Finding, existing map[string]bool, violations *int) model.Finding {
	for _, name := range f.EvidenceFiles {
		if !existing[name] {
			f.Status = model.StatusSuspected
			f.Enrichment.EvidenceFileLawDowngradeReasons = append(f.Enrichment.EvidenceFileLawDowngradeReasons, "evidence_file_missing")
			*violations++
			break
		}
	}
	return f
}

// ApplyEvidenceLaw runs every write-boundary law against f in order and
// returns the (possibly downgraded) finding plus the number of law
// violations it triggered.
func ApplyEvidenceLaw(f model.Finding, s model.Signals, existingEvidenceFiles map[string]bool) (model.Finding, int) {
	violations := 0
	f = enforceSubstantiveSignal(f, s, &violations)
	f = enforceEvidenceFileExistence(f, existingEvidenceFiles, &violations)
	return f, violations
}
