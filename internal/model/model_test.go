package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpectationValidRequiresSource(t *testing.T) {
	e := Expectation{
		Type:    TypeNavigation,
		Promise: Promise{Navigation: &NavigationPromise{TargetPath: "/about"}},
	}
	require.False(t, e.Valid(), "missing source must be rejected")

	e.Source = Source{File: "src/Nav.tsx", Line: 10}
	require.True(t, e.Valid())
}

func TestExpectationValidRequiresMatchingPayload(t *testing.T) {
	e := Expectation{
		Type:   TypeNetworkAction,
		Source: Source{File: "src/Form.tsx", Line: 5},
		Promise: Promise{Navigation: &NavigationPromise{TargetPath: "/x"}},
	}
	require.False(t, e.Valid(), "network type requires a Network payload, not Navigation")
}

func TestLevelForScoreBoundaries(t *testing.T) {
	require.Equal(t, LevelHigh, LevelForScore(0.85))
	require.Equal(t, LevelMedium, LevelForScore(0.84999))
	require.Equal(t, LevelMedium, LevelForScore(0.60))
	require.Equal(t, LevelLow, LevelForScore(0.5999))
}

func TestScore100Rounding(t *testing.T) {
	require.Equal(t, 85, Score100(0.849))
	require.Equal(t, 100, Score100(1.2)) // clamps
	require.Equal(t, 0, Score100(-0.5))  // clamps
}

func TestGateOutcomeForIsPure(t *testing.T) {
	require.Equal(t, GateFail, GateOutcomeFor(UsefulnessBlock))
	require.Equal(t, GateFail, GateOutcomeFor(UsefulnessFix))
	require.Equal(t, GateWarn, GateOutcomeFor(UsefulnessInvestigate))
	require.Equal(t, GatePass, GateOutcomeFor(UsefulnessInform))
}

func TestNarrativeCompleteRequiresAllFields(t *testing.T) {
	n := Narrative{WhatHappened: "a", WhatWasExpected: "b", WhatWasObserved: "c"}
	require.False(t, n.Complete())
	n.WhyItMatters = "d"
	require.True(t, n.Complete())
}

func TestExcludedFromCoverageDenominator(t *testing.T) {
	require.True(t, ExcludedFromCoverageDenominator(ReasonNotApplicable))
	require.True(t, ExcludedFromCoverageDenominator(ReasonUserFiltered))
	require.False(t, ExcludedFromCoverageDenominator(ReasonTimeoutObserve))
}

func TestSortByIDDeterministic(t *testing.T) {
	exps := []Expectation{{ID: "b"}, {ID: "a"}, {ID: "c"}}
	SortByID(exps)
	require.Equal(t, []string{"a", "b", "c"}, []string{exps[0].ID, exps[1].ID, exps[2].ID})
}

func TestObservationCiteOnlyExisting(t *testing.T) {
	o := Observation{EvidenceFiles: []string{"a.png", "b.png", "c.json"}}
	o.CiteOnlyExisting(map[string]bool{"a.png": true, "c.json": true})
	require.Equal(t, []string{"a.png", "c.json"}, o.EvidenceFiles)
}
