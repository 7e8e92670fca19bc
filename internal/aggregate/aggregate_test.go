package aggregate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"truthwatch/internal/model"
)

func TestRunFatalAlwaysFails(t *testing.T) {
	truth := Run(Input{
		Fatal:                true,
		BudgetExceeded:       true,
		UnsupportedFramework: true,
		Findings:             []model.Finding{{Status: model.StatusConfirmed}},
	})
	require.Equal(t, model.StateFailed, truth.TruthState)
}

func TestRunBudgetExceededIsIncomplete(t *testing.T) {
	truth := Run(Input{BudgetExceeded: true})
	require.Equal(t, model.StateIncomplete, truth.TruthState)
}

func TestRunUnsupportedFrameworkNeverSucceeds(t *testing.T) {
	truth := Run(Input{UnsupportedFramework: true})
	require.Equal(t, model.StateIncomplete, truth.TruthState)
	require.NotEqual(t, model.StateSuccess, truth.TruthState)
}

func TestRunConfirmedFindingYieldsFindings(t *testing.T) {
	truth := Run(Input{
		Findings: []model.Finding{{Status: model.StatusSuspected}, {Status: model.StatusConfirmed}},
	})
	require.Equal(t, model.StateFindings, truth.TruthState)
}

func TestRunCleanIsSuccess(t *testing.T) {
	truth := Run(Input{
		Findings: []model.Finding{{Status: model.StatusInformational}},
	})
	require.Equal(t, model.StateSuccess, truth.TruthState)
}

func TestCoverageSummaryExcludesDenominatorReasons(t *testing.T) {
	in := Input{
		Expectations: []model.Expectation{{ID: "e1"}, {ID: "e2"}, {ID: "e3"}},
		Observations: []model.Observation{
			{ExpectationID: "e1", Attempted: true},
		},
		CoverageGaps: []model.CoverageGap{
			{ExpectationID: "e2", Reason: model.ReasonNotApplicable},
			{ExpectationID: "e3", Reason: model.ReasonBudgetExceeded},
		},
		CoverageThreshold: 0.8,
	}
	summary := coverageSummary(in)
	require.Equal(t, 3, summary.ExpectationsTotal)
	require.Equal(t, 1, summary.Attempted)
	require.Equal(t, 2, summary.ExpectationsTotal-1)
	require.Equal(t, 1, summary.UnattemptedCount)
	require.Equal(t, 0.5, summary.CoverageRatio)
	require.Equal(t, 0.8, summary.Threshold)
}

func TestDigestCountsByFindingType(t *testing.T) {
	in := Input{
		Expectations: []model.Expectation{{ID: "e1"}},
		Observations: []model.Observation{{ExpectationID: "e1", Attempted: true}},
		Findings: []model.Finding{
			{Type: model.FindingNavigationSilentFailure},
			{Type: model.FindingUnproven},
			{Type: model.FindingInformational},
			{Type: model.FindingInformational},
		},
		CoverageGaps: []model.CoverageGap{{ExpectationID: "e2", Reason: model.ReasonTimeoutObserve}},
	}
	d := digest(in)
	require.Equal(t, 1, d.ExpectationsTotal)
	require.Equal(t, 1, d.Attempted)
	require.Equal(t, 1, d.Observed)
	require.Equal(t, 1, d.SilentFailures)
	require.Equal(t, 1, d.CoverageGaps)
	require.Equal(t, 1, d.Unproven)
	require.Equal(t, 2, d.Informational)
}

func TestSortedGapReasonsIsDeterministic(t *testing.T) {
	breakdown := map[model.CoverageGapReason]int{
		model.ReasonTimeoutObserve: 1,
		model.ReasonAutoSkip:       2,
		model.ReasonBudgetExceeded: 3,
	}
	r1 := SortedGapReasons(breakdown)
	r2 := SortedGapReasons(breakdown)
	require.Equal(t, r1, r2)
	for i := 1; i < len(r1); i++ {
		require.Less(t, r1[i-1], r1[i])
	}
}
