// Package evidence captures and redacts before/after proof of one
// observation attempt: screenshots, a DOM diff, and a redacted
// network log, written through the artifact manager. Grounded on the
// project's internal/diff/diff.go, which wraps sergi/go-diff for
// line-level diffing; this package narrows that engine to DOM text
// comparison and adds the redaction step the original diff tool never
// needed.
package evidence

import (
	"encoding/json"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind is the closed set of DOM diff line classifications.
type ChangeKind int

const (
	ChangeContext ChangeKind = iota
	ChangeAdded
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	default:
		return "context"
	}
}

// MarshalJSON renders a ChangeKind as its string form so dom_diff.json is
// human-readable without a lookup table.
func (k ChangeKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// DOMLine is a single line of a DOM diff.
type DOMLine struct {
	Kind    ChangeKind `json:"kind"`
	Content string     `json:"content"`
}

// DOMDiff is the full before/after comparison for one observation,
// serialized as the `_dom_diff.json` evidence file.
//
// Network events ride along in this same file rather than a separate
// artifact: fixes the per-expectation EVIDENCE/ file set at
// before/after/dom_diff, so the redacted network log is folded into the
// dom_diff.json body instead of growing the file count.
type DOMDiff struct {
	Changed bool              `json:"changed"`
	Lines   []DOMLine         `json:"lines"`
	Network []NetworkLogEntry `json:"network,omitempty"`
}

// NetworkLogEntry is one redacted network event captured during an attempt.
type NetworkLogEntry struct {
	Method   string `json:"method"`
	URL      string `json:"url"`
	Status   int    `json:"status"`
	Blocked  bool   `json:"blocked"`
	AtMillis int64  `json:"atMillis"`
}

// diffEngine wraps diffmatchpatch with line-granularity settings tuned for
// rendered text rather than source code (no semantic cleanup needed; DOM
// text rarely has the token noise source diffs do).
type diffEngine struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

func newDiffEngine() *diffEngine {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &diffEngine{dmp: dmp}
}

// ComputeDOMDiff diffs two redacted DOM text snapshots line by line,
// bounded to contextLines of unchanged lines around each change.
func ComputeDOMDiff(before, after string, contextLines int) DOMDiff {
	if before == after {
		return DOMDiff{Changed: false, Lines: nil}
	}

	e := newDiffEngine()
	a, b, lineArray := e.dmp.DiffLinesToChars(before, after)
	diffs := e.dmp.DiffMain(a, b, false)
	diffs = e.dmp.DiffCharsToLines(diffs, lineArray)

	lines := toLines(diffs)
	trimmed := trimContext(lines, contextLines)

	changed := false
	for _, l := range trimmed {
		if l.Kind != ChangeContext {
			changed = true
			break
		}
	}
	return DOMDiff{Changed: changed, Lines: trimmed}
}

func toLines(diffs []diffmatchpatch.Diff) []DOMLine {
	var out []DOMLine
	for _, d := range diffs {
		parts := strings.Split(d.Text, "\n")
		if len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		var kind ChangeKind
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = ChangeAdded
		case diffmatchpatch.DiffDelete:
			kind = ChangeRemoved
		default:
			kind = ChangeContext
		}
		for _, p := range parts {
			out = append(out, DOMLine{Kind: kind, Content: p})
		}
	}
	return out
}

// trimContext collapses runs of unchanged lines longer than 2*contextLines
// down to contextLines on each side of a change, keeping dom_diff.json
// small for pages with large stable regions.
func trimContext(lines []DOMLine, contextLines int) []DOMLine {
	if contextLines <= 0 {
		out := make([]DOMLine, 0, len(lines))
		for _, l := range lines {
			if l.Kind != ChangeContext {
				out = append(out, l)
			}
		}
		return out
	}

	out := make([]DOMLine, 0, len(lines))
	i := 0
	for i < len(lines) {
		if lines[i].Kind != ChangeContext {
			out = append(out, lines[i])
			i++
			continue
		}
		start := i
		for i < len(lines) && lines[i].Kind == ChangeContext {
			i++
		}
		run := lines[start:i]
		keepLeading := out != nil && len(out) > 0
		keepTrailing := i < len(lines)
		switch {
		case keepLeading && keepTrailing && len(run) > 2*contextLines:
			out = append(out, run[:contextLines]...)
			out = append(out, run[len(run)-contextLines:]...)
		case keepLeading && len(run) > contextLines:
			out = append(out, run[:contextLines]...)
		case keepTrailing && len(run) > contextLines:
			out = append(out, run[len(run)-contextLines:]...)
		default:
			out = append(out, run...)
		}
	}
	return out
}
