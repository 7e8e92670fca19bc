package correlate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"truthwatch/internal/model"
)

func navExpectation(id string) model.Expectation {
	return model.Expectation{
		ID:           id,
		Type:         model.TypeNavigation,
		Proof:        model.ProvenExpectation,
		SelectorHint: "a.nav-link",
		Promise:      model.Promise{Navigation: &model.NavigationPromise{TargetPath: "/dashboard"}},
		Source:       model.Source{File: "src/Nav.tsx", Line: 10},
	}
}

func networkExpectation(id string) model.Expectation {
	return model.Expectation{
		ID:           id,
		Type:         model.TypeNetworkAction,
		Proof:        model.ProvenExpectation,
		SelectorHint: "button.save",
		Promise:      model.Promise{Network: &model.NetworkPromise{Method: "POST", URLPath: "/api/save"}},
		Source:       model.Source{File: "src/Save.tsx", Line: 20},
	}
}

func TestScore01ClampsToUnitInterval(t *testing.T) {
	ctx := scoreContext{
		signals: model.Signals{
			MeaningfulDomChange:       true,
			CorrelatedNetworkActivity: true,
			NetworkSuccess:            true,
		},
		promiseProven:    true,
		evidenceComplete: true,
	}
	score, reasons, top := Score01(ctx)
	require.GreaterOrEqual(t, score, 0.0)
	require.LessOrEqual(t, score, 1.0)
	require.NotEmpty(t, reasons)
	require.LessOrEqual(t, len(top), 4)
	require.Contains(t, reasons, ReasonCorrStrongCorrelation)
}

func TestScore01NeverGoesNegative(t *testing.T) {
	ctx := scoreContext{
		signals:          model.Signals{},
		evidenceComplete: false,
	}
	score, reasons, _ := Score01(ctx)
	require.Equal(t, 0.0, score)
	require.Contains(t, reasons, ReasonEvidenceIncomplete)
}

func TestTopReasonsOrderedByMagnitude(t *testing.T) {
	ctx := scoreContext{
		signals: model.Signals{
			CorrelatedNetworkActivity: true,
			NetworkSuccess:            true,
			MeaningfulDomChange:       true,
			SubmitEventsDelta:         true,
		},
		evidenceComplete: true,
	}
	_, _, top := Score01(ctx)
	require.NotEmpty(t, top)
	for i := 1; i < len(top); i++ {
		require.GreaterOrEqual(t, absWeight(top[i-1]), absWeight(top[i]))
	}
}

func TestDeriveStatusInformationalBypassesLadder(t *testing.T) {
	status := DeriveStatus(model.LevelLow, false, true)
	require.Equal(t, model.StatusInformational, status)
}

func TestDeriveStatusHighWithoutSignalStaysSuspected(t *testing.T) {
	status := DeriveStatus(model.LevelHigh, false, false)
	require.Equal(t, model.StatusSuspected, status)
}

func TestDeriveStatusHighWithSignalConfirms(t *testing.T) {
	status := DeriveStatus(model.LevelHigh, true, false)
	require.Equal(t, model.StatusConfirmed, status)
}

func TestUsefulnessForBlock(t *testing.T) {
	u := UsefulnessFor(model.StatusConfirmed, model.LevelHigh, true, true)
	require.Equal(t, model.UsefulnessBlock, u)
	require.Equal(t, model.GateFail, model.GateOutcomeFor(u))
}

func TestUsefulnessForFixWhenEvidenceIncomplete(t *testing.T) {
	u := UsefulnessFor(model.StatusConfirmed, model.LevelHigh, true, false)
	require.Equal(t, model.UsefulnessFix, u)
}

func TestUsefulnessForInvestigate(t *testing.T) {
	u := UsefulnessFor(model.StatusSuspected, model.LevelMedium, false, true)
	require.Equal(t, model.UsefulnessInvestigate, u)
	require.Equal(t, model.GateWarn, model.GateOutcomeFor(u))
}

func TestUsefulnessForInform(t *testing.T) {
	u := UsefulnessFor(model.StatusUnproven, model.LevelLow, false, false)
	require.Equal(t, model.UsefulnessInform, u)
	require.Equal(t, model.GatePass, model.GateOutcomeFor(u))
}

func TestApplyEvidenceLawDowngradesConfirmedWithoutSubstantiveSignal(t *testing.T) {
	f := model.Finding{Status: model.StatusConfirmed}
	f, violations := ApplyEvidenceLaw(f, model.Signals{}, map[string]bool{})
	require.Equal(t, model.StatusSuspected, f.Status)
	require.Equal(t, 1, violations)
	require.Contains(t, f.Enrichment.EvidenceFileLawDowngradeReasons, "no_substantive_signal")
}

func TestApplyEvidenceLawDowngradesMissingEvidenceFile(t *testing.T) {
	f := model.Finding{
		Status:        model.StatusConfirmed,
		EvidenceFiles: []string{"before.png", "after.png"},
	}
	signals := model.Signals{MeaningfulDomChange: true}
	f, violations := ApplyEvidenceLaw(f, signals, map[string]bool{"before.png": true})
	require.Equal(t, model.StatusSuspected, f.Status)
	require.Equal(t, 1, violations)
	require.Contains(t, f.Enrichment.EvidenceFileLawDowngradeReasons, "evidence_file_missing")
}

func TestApplyEvidenceLawLeavesProvenConfirmedAlone(t *testing.T) {
	f := model.Finding{
		Status:        model.StatusConfirmed,
		EvidenceFiles: []string{"before.png"},
	}
	signals := model.Signals{MeaningfulDomChange: true}
	f, violations := ApplyEvidenceLaw(f, signals, map[string]bool{"before.png": true})
	require.Equal(t, model.StatusConfirmed, f.Status)
	require.Equal(t, 0, violations)
	require.Empty(t, f.Enrichment.EvidenceFileLawDowngradeReasons)
}

func TestClassifyIncompleteAlwaysUnproven(t *testing.T) {
	e := navExpectation("exp-1")
	o := model.Observation{
		Outcome: model.OutcomeIncomplete,
		Signals: model.Signals{MeaningfulDomChange: true},
	}
	ft, ok := classify(e, o)
	require.True(t, ok)
	require.Equal(t, model.FindingUnproven, ft)
}

func TestClassifyNotFoundOnNavigationProducesNoFinding(t *testing.T) {
	e := navExpectation("exp-1")
	o := model.Observation{Outcome: model.OutcomeNotFound}
	_, ok := classify(e, o)
	require.False(t, ok)
}

func TestClassifyNotFoundOnNetworkActionIsMissingAction(t *testing.T) {
	e := networkExpectation("exp-1")
	o := model.Observation{Outcome: model.OutcomeNotFound}
	ft, ok := classify(e, o)
	require.True(t, ok)
	require.Equal(t, model.FindingMissingNetworkAction, ft)
}

func TestClassifySilenceOnNavigationIsNavigationSilentFailure(t *testing.T) {
	e := navExpectation("exp-1")
	o := model.Observation{
		Outcome:         model.OutcomeSuccess,
		SilenceDetected: &model.SilenceMarker{Kind: model.SilenceIntentBlocked},
	}
	ft, ok := classify(e, o)
	require.True(t, ok)
	require.Equal(t, model.FindingNavigationSilentFailure, ft)
}

func TestClassifyNetworkFailureWithoutFeedbackIsSilentFailure(t *testing.T) {
	e := networkExpectation("exp-1")
	o := model.Observation{
		Outcome: model.OutcomeSuccess,
		Signals: model.Signals{NetworkFailure: true},
	}
	ft, ok := classify(e, o)
	require.True(t, ok)
	require.Equal(t, model.FindingNetworkSilentFailure, ft)
}

func TestClassifyCleanSuccessIsInformational(t *testing.T) {
	e := navExpectation("exp-1")
	o := model.Observation{
		Outcome: model.OutcomeSuccess,
		Signals: model.Signals{RouteChanged: true},
	}
	ft, ok := classify(e, o)
	require.True(t, ok)
	require.Equal(t, model.FindingInformational, ft)
}

func TestCorrelateOneProducesDeterministicID(t *testing.T) {
	e := navExpectation("exp-1")
	o := model.Observation{
		ExpectationID: e.ID,
		Outcome:       model.OutcomeIncomplete,
		Signals:       model.Signals{},
	}
	f1, _, ok1 := CorrelateOne(e, o, map[string]bool{})
	f2, _, ok2 := CorrelateOne(e, o, map[string]bool{})
	require.True(t, ok1)
	require.True(t, ok2)
	require.Equal(t, f1.ID, f2.ID)
	require.NotEmpty(t, f1.ID)
}

func TestRunProducesNoFindingForUnclassifiableOutcome(t *testing.T) {
	e := navExpectation("exp-1")
	o := model.Observation{
		ExpectationID: e.ID,
		Outcome:       "UNKNOWN_OUTCOME",
		Signals:       model.Signals{},
	}
	findings, stats := Run([]model.Expectation{e}, []model.Observation{o}, map[string]bool{})
	require.Empty(t, findings)
	require.Equal(t, 0, stats.DroppedCount)
}

func TestRunSortsFindingsByID(t *testing.T) {
	e1 := navExpectation("exp-1")
	e2 := networkExpectation("exp-2")
	o1 := model.Observation{ExpectationID: e1.ID, Outcome: model.OutcomeIncomplete}
	o2 := model.Observation{ExpectationID: e2.ID, Outcome: model.OutcomeIncomplete}

	findings, _ := Run([]model.Expectation{e1, e2}, []model.Observation{o2, o1}, map[string]bool{})
	require.Len(t, findings, 2)
	require.True(t, findings[0].ID <= findings[1].ID)
}

func TestRunSkipsObservationsWithNoMatchingExpectation(t *testing.T) {
	o := model.Observation{ExpectationID: "missing", Outcome: model.OutcomeIncomplete}
	findings, stats := Run(nil, []model.Observation{o}, map[string]bool{})
	require.Empty(t, findings)
	require.Equal(t, 0, stats.LawViolations)
}
