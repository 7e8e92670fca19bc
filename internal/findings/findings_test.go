package findings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"truthwatch/internal/correlate"
	"truthwatch/internal/extract"
	"truthwatch/internal/model"
)

func TestBuildLearnDocCountsByType(t *testing.T) {
	exps := []model.Expectation{
		{ID: "a", Type: model.TypeNavigation},
		{ID: "b", Type: model.TypeNetworkAction},
		{ID: "c", Type: model.TypeNavigation},
	}
	doc := BuildLearnDoc(exps, nil, nil, "2026-08-01T00:00:00Z")
	require.Equal(t, 3, doc.ExpectationsTotal)
	require.Equal(t, 2, doc.ByType["navigation"])
	require.Equal(t, 1, doc.ByType["network_action"])
	require.Empty(t, doc.ParseErrors)
	require.NotNil(t, doc.ParseErrors)
}

func TestBuildExpectationsDocCountsSkipped(t *testing.T) {
	exps := []model.Expectation{{ID: "a", Type: model.TypeNavigation}}
	gaps := []model.CoverageGap{{FromPath: "x.vue", Reason: model.ReasonUnsupportedFramework}}
	doc := BuildExpectationsDoc(exps, gaps)
	require.Equal(t, 1, doc.Summary.Total)
	require.Equal(t, 1, doc.Summary.Skipped)
	require.Equal(t, 1, doc.Summary.ByType["navigation"])
}

func TestBuildFindingsDocComputesDowngradesAndStats(t *testing.T) {
	findingsList := []model.Finding{
		{
			ID:     "f2",
			Type:   model.FindingNavigationSilentFailure,
			Status: model.StatusSuspected,
			Enrichment: model.Enrichment{
				EvidenceFileLawDowngradeReasons: []string{"no_substantive_signal"},
			},
		},
		{
			ID:     "f1",
			Type:   model.FindingInformational,
			Status: model.StatusInformational,
		},
	}
	doc := BuildFindingsDoc(findingsList, correlate.EnforcementStats{DroppedCount: 2}, "2026-08-01T00:00:00Z")

	require.Equal(t, 2, doc.Total)
	require.Equal(t, "f1", doc.Findings[0].ID)
	require.Equal(t, "f2", doc.Findings[1].ID)
	require.True(t, doc.Enforcement.EvidenceLawEnforced)
	require.Equal(t, 2, doc.Enforcement.DroppedCount)
	require.Equal(t, 1, doc.Enforcement.DowngradedCount)
	require.Len(t, doc.Enforcement.Downgrades, 1)
	require.Equal(t, "f2", doc.Enforcement.Downgrades[0].FindingID)
	require.Equal(t, 1, doc.Stats.ByStatus["SUSPECTED"])
	require.Equal(t, 1, doc.Stats.ByStatus["INFORMATIONAL"])
	require.NotEmpty(t, doc.ContractVersion)
}

func TestSummaryDocFieldOrderMatchesDocumentedKeys(t *testing.T) {
	truth := model.Truth{
		TruthState: model.StateSuccess,
		CoverageSummary: model.CoverageSummary{
			ExpectationsTotal: 1,
			UnattemptedBreakdown: map[model.CoverageGapReason]int{},
		},
		Digest: model.Digest{ExpectationsTotal: 1},
	}
	doc := BuildSummaryDoc(truth, 1, false, 1, 0, 0, Enforcement{EvidenceLawEnforced: true}, Meta{RunID: "r1", URL: "https://example.com"})

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	_, hasTruth := raw["truth"]
	_, hasDigest := raw["digest"]
	_, hasMeta := raw["meta"]
	require.True(t, hasTruth)
	require.True(t, hasDigest)
	require.True(t, hasMeta)

	keys := []byte(data)
	truthIdx := indexOf(keys, `"truth"`)
	observeIdx := indexOf(keys, `"observe"`)
	learnIdx := indexOf(keys, `"learn"`)
	detectIdx := indexOf(keys, `"detect"`)
	digestIdx := indexOf(keys, `"digest"`)
	metaIdx := indexOf(keys, `"meta"`)
	require.True(t, truthIdx < observeIdx)
	require.True(t, observeIdx < learnIdx)
	require.True(t, learnIdx < detectIdx)
	require.True(t, detectIdx < digestIdx)
	require.True(t, digestIdx < metaIdx)
}

func indexOf(haystack []byte, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == needle {
			return i
		}
	}
	return -1
}

func TestBuildLearnDocNeverNilParseErrors(t *testing.T) {
	doc := BuildLearnDoc(nil, []extract.ParseError{{File: "a.tsx", Message: "boom"}}, nil, "2026-08-01T00:00:00Z")
	require.Len(t, doc.ParseErrors, 1)
}
