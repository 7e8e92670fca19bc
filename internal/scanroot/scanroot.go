// Package scanroot performs bounded file discovery over a target source
// tree. Adapted from the project's
// internal/world/fs.go Scanner.ScanDirectory walk, generalized from
// topology-fact emission to a flat, deterministic file list gated by the
// HARD_EXCLUSIONS set.
package scanroot

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"truthwatch/internal/config"
	"truthwatch/internal/logging"
)

// File is one discovered source file.
type File struct {
	AbsPath string
	RelPath string
	Size    int64
}

// Walk discovers all files under root that are not excluded by cfg's
// HARD_EXCLUSIONS and are not larger than cfg.MaxFileBytes. The result is
// sorted by RelPath so output is deterministic regardless of filesystem
// iteration order ("file walking ... may be parallelized ... as
// long as the final expectation list is sorted and stable" — we sort here
// too so downstream extraction already receives a stable order).
//
// Any call site that walks the filesystem without consulting
// HARD_EXCLUSIONS is a ContractViolation; this function is the
// single chokepoint other packages must use instead of calling
// filepath.Walk directly.
func Walk(ctx context.Context, root string, cfg config.ScanConfig) ([]File, error) {
	timer := logging.StartTimer(logging.CategoryScan, "Walk")
	defer timer.Stop()

	var files []File
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			logging.Get(logging.CategoryScan).Warn("walk error at %s: %v", path, err)
			return nil
		}

		if info.IsDir() {
			name := info.Name()
			if name != "." && cfg.IsHardExcluded(name) {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") && name != "." && name != ".." {
				// Hidden directories beyond HARD_EXCLUSIONS are still
				// walked (e.g. ".storybook"); only the fixed set is
				// forbidden, matching the closed HARD_EXCLUSIONS contract.
				return nil
			}
			return nil
		}

		if cfg.MaxFileBytes > 0 && info.Size() > cfg.MaxFileBytes {
			logging.Get(logging.CategoryScan).Debug("skipping oversized file %s (%d bytes)", path, info.Size())
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		files = append(files, File{AbsPath: path, RelPath: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	logging.Get(logging.CategoryScan).Info("discovered %d files under %s", len(files), root)
	return files, nil
}
