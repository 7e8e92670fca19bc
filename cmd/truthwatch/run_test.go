package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"truthwatch/internal/model"
)

func TestNewRunCmdRequiresURLAndSrc(t *testing.T) {
	logger = zap.NewNop()
	cmd := newRunCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
}

func TestHasUnsupportedFramework(t *testing.T) {
	require.False(t, hasUnsupportedFramework(nil))
	require.True(t, hasUnsupportedFramework([]model.CoverageGap{
		{Reason: model.ReasonUnsupportedFramework},
	}))
	require.False(t, hasUnsupportedFramework([]model.CoverageGap{
		{Reason: model.ReasonNotApplicable},
	}))
}

func TestReportJSONContainsRequiredKeys(t *testing.T) {
	stdout := captureStdout(t, func() {
		report(true, "run-1", "https://example.com", model.Truth{
			TruthState: model.StateFindings,
			Digest:     model.Digest{SilentFailures: 2, CoverageGaps: 1},
		})
	})
	require.Contains(t, stdout, `"runId":"run-1"`)
	require.Contains(t, stdout, `"url":"https://example.com"`)
	require.Contains(t, stdout, `"truth":"FINDINGS"`)
	require.Contains(t, stdout, `"digest"`)
}

func TestReportHumanModeWarnsOnIncomplete(t *testing.T) {
	stdout := captureStdout(t, func() {
		report(false, "run-2", "https://example.com", model.Truth{TruthState: model.StateIncomplete})
	})
	require.Contains(t, stdout, "not be treated as safe")
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = orig

	var buf bytes.Buffer
	_, err = buf.ReadFrom(r)
	require.NoError(t, err)
	return buf.String()
}
