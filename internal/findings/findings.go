// Package findings formats the four canonical JSON artifacts
// (learn.json, observe.json, expectations.json, findings.json) and the
// cross-phase summary.json, then writes them through the artifact manager. It never
// touches the filesystem directly — every write is staged and committed
// by internal/artifact, following the project's separation between
// "decide what to persist" and "own the bytes on disk".
package findings

import (
	"encoding/json"
	"sort"

	"truthwatch/internal/aggregate"
	"truthwatch/internal/artifact"
	"truthwatch/internal/browserdriver"
	"truthwatch/internal/correlate"
	"truthwatch/internal/errs"
	"truthwatch/internal/extract"
	"truthwatch/internal/model"
)

// LearnDoc is the committed learn.json document.
type LearnDoc struct {
	ExpectationsTotal int                    `json:"expectationsTotal"`
	ByType            map[string]int         `json:"byType"`
	ParseErrors       []extract.ParseError   `json:"parseErrors"`
	CoverageGaps      []model.CoverageGap    `json:"coverageGaps"`
	LearnedAt         string                 `json:"learnedAt"`
}

// BuildLearnDoc assembles the LEARN phase's committed document.
func BuildLearnDoc(expectations []model.Expectation, parseErrors []extract.ParseError, gaps []model.CoverageGap, learnedAt string) LearnDoc {
	return LearnDoc{
		ExpectationsTotal: len(expectations),
		ByType:            countByType(expectations),
		ParseErrors:       nonNil(parseErrors),
		CoverageGaps:      nonNilGaps(gaps),
		LearnedAt:         learnedAt,
	}
}

func countByType(exps []model.Expectation) map[string]int {
	out := map[string]int{}
	for _, e := range exps {
		out[string(e.Type)]++
	}
	return out
}

// ObserveDoc is the committed observe.json document.
type ObserveDoc struct {
	Observations []model.Observation                  `json:"observations"`
	CoverageGaps []model.CoverageGap                   `json:"coverageGaps"`
	Firewall     browserdriver.NetworkFirewallStats    `json:"firewall"`
	Incomplete   bool                                  `json:"incomplete"`
	ObservedAt   string                                `json:"observedAt"`
}

// BuildObserveDoc assembles the OBSERVE phase's committed document.
func BuildObserveDoc(observations []model.Observation, gaps []model.CoverageGap, firewall browserdriver.NetworkFirewallStats, incomplete bool, observedAt string) ObserveDoc {
	model.SortObservationsByExpectationID(observations)
	return ObserveDoc{
		Observations: nonNilObs(observations),
		CoverageGaps: nonNilGaps(gaps),
		Firewall:     firewall,
		Incomplete:   incomplete,
		ObservedAt:   observedAt,
	}
}

// ExpectationsSummary is the {total, byType, skipped} block of
// expectations.json.
type ExpectationsSummary struct {
	Total   int            `json:"total"`
	ByType  map[string]int `json:"byType"`
	Skipped int            `json:"skipped"`
}

// ExpectationsDoc is the committed expectations.json document.
type ExpectationsDoc struct {
	Summary      ExpectationsSummary `json:"summary"`
	Expectations []model.Expectation `json:"expectations"`
}

// BuildExpectationsDoc assembles expectations.json. skipped counts every
// coverage gap recorded at LEARN time (files no adapter claimed).
func BuildExpectationsDoc(expectations []model.Expectation, learnGaps []model.CoverageGap) ExpectationsDoc {
	return ExpectationsDoc{
		Summary: ExpectationsSummary{
			Total:   len(expectations),
			ByType:  countByType(expectations),
			Skipped: len(learnGaps),
		},
		Expectations: nonNilExps(expectations),
	}
}

// Downgrade records one finding's Evidence Law downgrade reasons, for
// findings.json's enforcement.downgrades.
type Downgrade struct {
	FindingID string   `json:"findingId"`
	Reasons   []string `json:"reasons"`
}

// Enforcement is findings.json's enforcement block.
type Enforcement struct {
	EvidenceLawEnforced bool        `json:"evidenceLawEnforced"`
	DroppedCount        int         `json:"droppedCount"`
	DowngradedCount     int         `json:"downgradedCount"`
	Downgrades          []Downgrade `json:"downgrades"`
}

// Stats is findings.json's stats block.
type Stats struct {
	ByStatus map[string]int `json:"byStatus"`
	ByType   map[string]int `json:"byType"`
}

// FindingsDoc is the committed findings.json document.
type FindingsDoc struct {
	ContractVersion string          `json:"contractVersion"`
	Findings        []model.Finding `json:"findings"`
	Total           int             `json:"total"`
	Stats           Stats           `json:"stats"`
	DetectedAt      string          `json:"detectedAt"`
	Enforcement     Enforcement     `json:"enforcement"`
}

// BuildFindingsDoc assembles findings.json from the DETECT stage's
// surviving findings and its enforcement bookkeeping.
func BuildFindingsDoc(findings []model.Finding, enforcement correlate.EnforcementStats, detectedAt string) FindingsDoc {
	model.SortFindingsByID(findings)

	var downgrades []Downgrade
	downgradedCount := 0
	for _, f := range findings {
		if len(f.Enrichment.EvidenceFileLawDowngradeReasons) == 0 {
			continue
		}
		downgradedCount++
		downgrades = append(downgrades, Downgrade{
			FindingID: f.ID,
			Reasons:   f.Enrichment.EvidenceFileLawDowngradeReasons,
		})
	}
	sort.Slice(downgrades, func(i, j int) bool { return downgrades[i].FindingID < downgrades[j].FindingID })

	return FindingsDoc{
		ContractVersion: correlate.ContractVersion(),
		Findings:        nonNilFindings(findings),
		Total:           len(findings),
		Stats:           buildStats(findings),
		DetectedAt:      detectedAt,
		Enforcement: Enforcement{
			EvidenceLawEnforced: true,
			DroppedCount:        enforcement.DroppedCount,
			DowngradedCount:     downgradedCount,
			Downgrades:          downgrades,
		},
	}
}

func buildStats(findings []model.Finding) Stats {
	byStatus := map[string]int{}
	byType := map[string]int{}
	for _, f := range findings {
		byStatus[string(f.Status)]++
		byType[string(f.Type)]++
	}
	return Stats{ByStatus: byStatus, ByType: byType}
}

// TruthBlock is summary.json's truth key: the run-level state and
// coverage summary, without the digest (digest is promoted to its own
// top-level key).
type TruthBlock struct {
	TruthState      model.TruthState      `json:"truthState"`
	CoverageSummary model.CoverageSummary `json:"coverageSummary"`
}

// ObserveSummary is summary.json's observe key: a compact recap, the full
// detail lives in observe.json.
type ObserveSummary struct {
	Count      int  `json:"count"`
	Incomplete bool `json:"incomplete"`
}

// LearnSummary is summary.json's learn key.
type LearnSummary struct {
	ExpectationsTotal int `json:"expectationsTotal"`
	ParseErrorsCount  int `json:"parseErrorsCount"`
}

// DetectSummary is summary.json's detect key.
type DetectSummary struct {
	FindingsTotal int         `json:"findingsTotal"`
	Enforcement   Enforcement `json:"enforcement"`
}

// Meta is summary.json's meta key: run identity and timing.
type Meta struct {
	RunID           string `json:"runId"`
	URL             string `json:"url"`
	ContractVersion string `json:"contractVersion"`
	StartedAt       string `json:"startedAt"`
	CompletedAt     string `json:"completedAt"`
}

// SummaryDoc is the committed summary.json document. Field order is the
// struct's declaration order: truth, observe, learn, detect, digest,
// meta.
type SummaryDoc struct {
	Truth   TruthBlock     `json:"truth"`
	Observe ObserveSummary `json:"observe"`
	Learn   LearnSummary   `json:"learn"`
	Detect  DetectSummary  `json:"detect"`
	Digest  model.Digest   `json:"digest"`
	Meta    Meta           `json:"meta"`
}

// BuildSummaryDoc assembles summary.json from the already-computed Truth
// block plus per-phase recap counts.
func BuildSummaryDoc(truth model.Truth, observeCount int, observeIncomplete bool, learnExpectationsTotal, parseErrorsCount int, findingsTotal int, enforcement Enforcement, meta Meta) SummaryDoc {
	return SummaryDoc{
		Truth:   TruthBlock{TruthState: truth.TruthState, CoverageSummary: truth.CoverageSummary},
		Observe: ObserveSummary{Count: observeCount, Incomplete: observeIncomplete},
		Learn:   LearnSummary{ExpectationsTotal: learnExpectationsTotal, ParseErrorsCount: parseErrorsCount},
		Detect:  DetectSummary{FindingsTotal: findingsTotal, Enforcement: enforcement},
		Digest:  truth.Digest,
		Meta:    meta,
	}
}

// Write commits every canonical artifact for one run through mgr:
// learn.json, observe.json, expectations.json, findings.json, and
// summary.json.
func Write(mgr *artifact.Manager, learn LearnDoc, observe ObserveDoc, expectations ExpectationsDoc, findingsDoc FindingsDoc, summary SummaryDoc) error {
	docs := []struct {
		name string
		v    any
	}{
		{"learn.json", learn},
		{"observe.json", observe},
		{"expectations.json", expectations},
		{"findings.json", findingsDoc},
		{"summary.json", summary},
	}
	for _, d := range docs {
		data, err := json.Marshal(d.v)
		if err != nil {
			return errs.Wrap(errs.ArtifactWriteError, "findings", "marshal "+d.name, err)
		}
		if err := mgr.Write(d.name, data); err != nil {
			return err
		}
	}
	return nil
}

// AggregateInput builds aggregate.Input, filling its CoverageGaps field by
// concatenating LEARN's and OBSERVE's coverage gaps, since each phase
// contributes its own.
func AggregateInput(expectations []model.Expectation, observations []model.Observation, findingsList []model.Finding, learnGaps, observeGaps []model.CoverageGap, fatal, budgetExceeded, unsupportedFramework bool, coverageThreshold float64) aggregate.Input {
	gaps := make([]model.CoverageGap, 0, len(learnGaps)+len(observeGaps))
	gaps = append(gaps, learnGaps...)
	gaps = append(gaps, observeGaps...)
	return aggregate.Input{
		Expectations:         expectations,
		Observations:         observations,
		Findings:             findingsList,
		CoverageGaps:         gaps,
		Fatal:                fatal,
		BudgetExceeded:       budgetExceeded,
		UnsupportedFramework: unsupportedFramework,
		CoverageThreshold:    coverageThreshold,
	}
}

func nonNil(pe []extract.ParseError) []extract.ParseError {
	if pe == nil {
		return []extract.ParseError{}
	}
	return pe
}

func nonNilGaps(g []model.CoverageGap) []model.CoverageGap {
	if g == nil {
		return []model.CoverageGap{}
	}
	return g
}

func nonNilObs(o []model.Observation) []model.Observation {
	if o == nil {
		return []model.Observation{}
	}
	return o
}

func nonNilExps(e []model.Expectation) []model.Expectation {
	if e == nil {
		return []model.Expectation{}
	}
	return e
}

func nonNilFindings(f []model.Finding) []model.Finding {
	if f == nil {
		return []model.Finding{}
	}
	return f
}
