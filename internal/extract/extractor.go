package extract

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"truthwatch/internal/config"
	"truthwatch/internal/logging"
	"truthwatch/internal/model"
	"truthwatch/internal/scanroot"
)

// Result is the LEARN stage's full output.
type Result struct {
	Expectations []model.Expectation
	CoverageGaps []model.CoverageGap
	ParseErrors  []ParseError
}

// Run performs the LEARN stage: walks root via scanroot.Walk, runs each
// discovered file through the adapter registry, and collects the sorted
// union of all expectations. File-level extraction runs concurrently
// (bounded by cfg.Workers) via errgroup, matching the project's
// worker-pool pattern in internal/world/fs.go's parallel hashing; because
// order of completion is not the output order, everything is re-sorted
// before return, satisfying the "final expectation list is sorted and
// stable" requirement.
func Run(ctx context.Context, root string, cfg config.ScanConfig, registry *Registry) (Result, error) {
	timer := logging.StartTimer(logging.CategoryExtract, "Run")
	defer timer.Stop()

	files, err := scanroot.Walk(ctx, root, cfg)
	if err != nil {
		return Result{}, err
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	var result Result

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, f := range files {
		f := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			content, readErr := os.ReadFile(f.AbsPath)
			if readErr != nil {
				mu.Lock()
				result.ParseErrors = append(result.ParseErrors, ParseError{File: f.RelPath, Message: readErr.Error()})
				mu.Unlock()
				return nil
			}

			adapter := registry.For(f.RelPath, content)
			if adapter == nil {
				mu.Lock()
				result.CoverageGaps = append(result.CoverageGaps, model.CoverageGap{
					Type:     model.TypeNavigation,
					Reason:   model.ReasonUnsupportedFramework,
					FromPath: f.RelPath,
				})
				mu.Unlock()
				return nil
			}

			exps, perrs := adapter.Extract(f.RelPath, content)
			for i := range exps {
				exps[i].FromPath = f.RelPath
			}

			mu.Lock()
			result.Expectations = append(result.Expectations, exps...)
			for _, pe := range perrs {
				result.ParseErrors = append(result.ParseErrors, pe)
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	result.Expectations = dedupeByID(result.Expectations)
	model.SortByID(result.Expectations)
	sortCoverageGaps(result.CoverageGaps)
	sortParseErrors(result.ParseErrors)

	logging.Get(logging.CategoryExtract).Info(
		"learn complete: %d expectations, %d coverage gaps, %d parse errors",
		len(result.Expectations), len(result.CoverageGaps), len(result.ParseErrors))
	return result, nil
}

// dedupeByID collapses expectations that hash to the same id (e.g. the
// same fetch call text appearing in two differently-named but identical
// files is not expected in practice, but two adapters both matching the
// same literal call in edge cases is): first occurrence in sorted order
// wins, which is deterministic since the caller sorts by id before relying
// on this for anything observable.
func dedupeByID(exps []model.Expectation) []model.Expectation {
	model.SortByID(exps)
	out := exps[:0:0]
	var lastID string
	seen := false
	for _, e := range exps {
		if seen && e.ID == lastID {
			continue
		}
		out = append(out, e)
		lastID = e.ID
		seen = true
	}
	return out
}

func sortCoverageGaps(gaps []model.CoverageGap) {
	// Deterministic ordering by (fromPath, type, reason) since coverage
	// gaps for unsupported files have no expectation id to sort by.
	for i := 1; i < len(gaps); i++ {
		for j := i; j > 0 && less(gaps[j], gaps[j-1]); j-- {
			gaps[j], gaps[j-1] = gaps[j-1], gaps[j]
		}
	}
}

func less(a, b model.CoverageGap) bool {
	if a.FromPath != b.FromPath {
		return a.FromPath < b.FromPath
	}
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	return a.Reason < b.Reason
}

func sortParseErrors(errs []ParseError) {
	for i := 1; i < len(errs); i++ {
		for j := i; j > 0 && (errs[j].File < errs[j-1].File); j-- {
			errs[j], errs[j-1] = errs[j-1], errs[j]
		}
	}
}
