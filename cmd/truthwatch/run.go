package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"truthwatch/internal/aggregate"
	"truthwatch/internal/artifact"
	"truthwatch/internal/browser"
	"truthwatch/internal/config"
	"truthwatch/internal/correlate"
	"truthwatch/internal/extract"
	"truthwatch/internal/findings"
	"truthwatch/internal/frontier"
	"truthwatch/internal/model"
	"truthwatch/internal/observe"
	"truthwatch/internal/runctx"
	"truthwatch/internal/runindex"
)

func zapErr(err error) zap.Field { return zap.Error(err) }

func newRunCmd() *cobra.Command {
	var (
		url         string
		src         string
		out         string
		configPath  string
		jsonOutput  bool
		minCoverage float64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the LEARN/OBSERVE/DETECT pipeline against one URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if url == "" || src == "" {
				return fmt.Errorf("--url and --src are required")
			}
			code := runPipeline(url, src, out, configPath, jsonOutput, minCoverage)
			cmd.SilenceUsage = true
			cmd.SilenceErrors = true
			return &exitError{code: code}
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "Live URL to observe (required)")
	cmd.Flags().StringVar(&src, "src", "", "Source tree to extract expectations from (required)")
	cmd.Flags().StringVar(&out, "out", "out", "Output directory for run artifacts")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file (falls back to defaults plus TRUTHWATCH_* env overrides when absent)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit a single JSON object on stdout as the final line")
	cmd.Flags().Float64Var(&minCoverage, "min-coverage", 0, "Minimum acceptable coverage ratio (informational only)")

	return cmd
}

// exitError carries a pre-decided process exit code out of RunE without
// cobra printing its own error banner for a clean pipeline outcome like
// FINDINGS or INCOMPLETE, which are not usage errors.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func runPipeline(rawURL, src, out, configPath string, jsonOutput bool, minCoverage float64) int {
	ctx := context.Background()
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("loading config failed", zapErr(err))
		return exitUsageError
	}
	if err := cfg.Budgets.Validate(); err != nil {
		logger.Error("invalid budget configuration", zapErr(err))
		return exitUsageError
	}

	run := runctx.New(cfg, nil)
	logDir := filepath.Join(out, "runs", run.ID, "logs")
	if err := run.Init(logDir); err != nil {
		logger.Error("run init failed", zapErr(err))
		return exitFailed
	}
	defer run.Teardown()

	normalizedURL, err := frontier.Normalize(rawURL)
	if err != nil {
		logger.Error("invalid url", zapErr(err))
		return exitUsageError
	}

	mgr := artifact.New(out, run.ID)
	if err := mgr.Start(); err != nil {
		logger.Error("artifact manager start failed", zapErr(err))
		return exitFailed
	}

	learnResult, err := extract.Run(ctx, src, cfg.Scan, extract.NewRegistry())
	if err != nil {
		mgr.Abort()
		logger.Error("learn phase failed", zapErr(err))
		return exitFailed
	}

	browserMgr := browser.NewManager(cfg.Browser)
	defer browserMgr.Shutdown(ctx)

	run.BeginPhase(runctx.PhaseObserve)
	observeResult, err := observe.Run(ctx, run, browserMgr, learnResult.Expectations, normalizedURL, mgr, run.Clock, cfg.Budgets)
	if err != nil {
		mgr.Abort()
		logger.Error("observe phase failed", zapErr(err))
		return exitFailed
	}

	existingEvidence, err := mgr.ExistingBasenames("EVIDENCE")
	if err != nil {
		mgr.Abort()
		logger.Error("reading committed evidence failed", zapErr(err))
		return exitFailed
	}

	run.BeginPhase(runctx.PhaseDetect)
	findingsList, enforcementStats := correlate.Run(learnResult.Expectations, observeResult.Observations, existingEvidence)

	budgetExceeded := observeResult.Incomplete || len(run.BudgetEvents()) > 0
	unsupportedFramework := hasUnsupportedFramework(learnResult.CoverageGaps)

	aggIn := findings.AggregateInput(
		learnResult.Expectations, observeResult.Observations, findingsList,
		learnResult.CoverageGaps, observeResult.CoverageGaps,
		false, budgetExceeded, unsupportedFramework, minCoverage,
	)
	truth := aggregate.Run(aggIn)

	now := run.Clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00")

	learnDoc := findings.BuildLearnDoc(learnResult.Expectations, learnResult.ParseErrors, learnResult.CoverageGaps, now)
	observeDoc := findings.BuildObserveDoc(observeResult.Observations, observeResult.CoverageGaps, observeResult.FirewallStats, observeResult.Incomplete, now)
	expectationsDoc := findings.BuildExpectationsDoc(learnResult.Expectations, learnResult.CoverageGaps)
	findingsDoc := findings.BuildFindingsDoc(findingsList, enforcementStats, now)
	summaryDoc := findings.BuildSummaryDoc(
		truth, len(observeResult.Observations), observeResult.Incomplete,
		len(learnResult.Expectations), len(learnResult.ParseErrors),
		len(findingsList), findingsDoc.Enforcement,
		findings.Meta{
			RunID:           run.ID,
			URL:             normalizedURL,
			ContractVersion: correlate.ContractVersion(),
			StartedAt:       run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
			CompletedAt:     now,
		},
	)

	if err := findings.Write(mgr, learnDoc, observeDoc, expectationsDoc, findingsDoc, summaryDoc); err != nil {
		mgr.Abort()
		logger.Error("writing artifacts failed", zapErr(err))
		return exitFailed
	}

	if err := mgr.Commit(); err != nil {
		logger.Error("commit failed, poison marker left in place", zapErr(err))
		return exitFailed
	}

	recordRunIndex(out, run, normalizedURL, truth)

	report(jsonOutput, run.ID, normalizedURL, truth)

	switch truth.TruthState {
	case model.StateFailed:
		return exitFailed
	case model.StateIncomplete:
		return exitIncomplete
	case model.StateFindings:
		return exitFindings
	default:
		return exitSuccess
	}
}

func hasUnsupportedFramework(gaps []model.CoverageGap) bool {
	for _, g := range gaps {
		if g.Reason == model.ReasonUnsupportedFramework {
			return true
		}
	}
	return false
}

func recordRunIndex(out string, run *runctx.Run, url string, truth model.Truth) {
	store, err := runindex.Open(out)
	if err != nil {
		logger.Warn("run index unavailable", zapErr(err))
		return
	}
	defer store.Close()

	if err := store.RecordRun(runindex.Record{
		RunID:       run.ID,
		URL:         url,
		TruthState:  truth.TruthState,
		Digest:      truth.Digest,
		StartedAt:   run.StartedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		CompletedAt: run.Clock.Now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	}); err != nil {
		logger.Warn("run index write failed", zapErr(err))
	}
}

func report(jsonOutput bool, runID, url string, truth model.Truth) {
	if jsonOutput {
		payload := map[string]any{
			"runId":  runID,
			"url":    url,
			"truth":  truth.TruthState,
			"digest": truth.Digest,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			fmt.Println(`{"error":"failed to marshal result"}`)
			return
		}
		fmt.Println(string(data))
		return
	}

	fmt.Printf("run %s: %s (%d silent failures, %d coverage gaps)\n", runID, truth.TruthState, truth.Digest.SilentFailures, truth.Digest.CoverageGaps)
	if truth.TruthState == model.StateIncomplete {
		fmt.Println("This run did not complete within its budget; its findings must not be treated as safe.")
	}
}
