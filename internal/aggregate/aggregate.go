// Package aggregate reduces the findings, observations, and coverage gaps
// of one run into a single Truth block. It is a fail-fast sequential
// reducer in the project's internal/regression/battery.go style,
// generalized from "stop at the first failing task" into "classify the
// whole run by the most severe thing that happened in it".
package aggregate

import (
	"sort"

	"truthwatch/internal/model"
)

// Input bundles everything the reducer needs. Fatal and
// UnsupportedFramework are reported by the caller (LEARN/OBSERVE/DETECT)
// rather than inferred here, since only those phases know why they
// stopped early.
type Input struct {
	Expectations         []model.Expectation
	Observations         []model.Observation
	Findings             []model.Finding
	CoverageGaps         []model.CoverageGap
	Fatal                bool
	BudgetExceeded       bool
	UnsupportedFramework bool
	CoverageThreshold    float64
}

// Run reduces one Input into a Truth block.
// State machine: START -> (fatal?) -> FAILED;
// else (budget exceeded or unsupported framework?) -> INCOMPLETE;
// else (any CONFIRMED finding?) -> FINDINGS; else SUCCESS.
// Unsupported framework never yields SUCCESS.
func Run(in Input) model.Truth {
	return model.Truth{
		TruthState:      truthState(in),
		CoverageSummary: coverageSummary(in),
		Digest:          digest(in),
	}
}

func truthState(in Input) model.TruthState {
	switch {
	case in.Fatal:
		return model.StateFailed
	case in.BudgetExceeded || in.UnsupportedFramework:
		return model.StateIncomplete
	case anyConfirmed(in.Findings):
		return model.StateFindings
	default:
		return model.StateSuccess
	}
}

func anyConfirmed(findings []model.Finding) bool {
	for _, f := range findings {
		if f.Status == model.StatusConfirmed {
			return true
		}
	}
	return false
}

func coverageSummary(in Input) model.CoverageSummary {
	attempted := 0
	for _, o := range in.Observations {
		if o.Attempted {
			attempted++
		}
	}

	breakdown := map[model.CoverageGapReason]int{}
	unattempted := 0
	for _, g := range in.CoverageGaps {
		breakdown[g.Reason]++
		if !model.ExcludedFromCoverageDenominator(g.Reason) {
			unattempted++
		}
	}

	denominator := len(in.Expectations) - excludedGapCount(in.CoverageGaps)
	var ratio float64
	if denominator > 0 {
		ratio = float64(attempted) / float64(denominator)
	}

	return model.CoverageSummary{
		ExpectationsTotal:    len(in.Expectations),
		Attempted:            attempted,
		Observed:             len(in.Observations),
		CoverageRatio:        ratio,
		Threshold:            in.CoverageThreshold,
		UnattemptedCount:     unattempted,
		UnattemptedBreakdown: breakdown,
	}
}

func excludedGapCount(gaps []model.CoverageGap) int {
	n := 0
	for _, g := range gaps {
		if model.ExcludedFromCoverageDenominator(g.Reason) {
			n++
		}
	}
	return n
}

func digest(in Input) model.Digest {
	silentFailures, unproven, informational := 0, 0, 0
	for _, f := range in.Findings {
		switch {
		case model.IsSilentFailure(f.Type):
			silentFailures++
		case f.Type == model.FindingUnproven:
			unproven++
		case f.Type == model.FindingInformational:
			informational++
		}
	}

	attempted := 0
	for _, o := range in.Observations {
		if o.Attempted {
			attempted++
		}
	}

	return model.Digest{
		ExpectationsTotal: len(in.Expectations),
		Attempted:         attempted,
		Observed:          len(in.Observations),
		SilentFailures:    silentFailures,
		CoverageGaps:      len(in.CoverageGaps),
		Unproven:          unproven,
		Informational:     informational,
	}
}

// SortedGapReasons returns the breakdown's keys in a stable order, for
// canonical JSON encoding.
func SortedGapReasons(breakdown map[model.CoverageGapReason]int) []model.CoverageGapReason {
	out := make([]model.CoverageGapReason, 0, len(breakdown))
	for r := range breakdown {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
