package evidence

import (
	"encoding/json"
	"fmt"

	"truthwatch/internal/artifact"
	"truthwatch/internal/browserdriver"
	"truthwatch/internal/errs"
)

const evidenceDir = "EVIDENCE"

// Capture bundles the raw, unredacted material gathered for one attempt.
// It never reaches disk directly ("Raw unredacted artifacts
// never touch the committed run directory").
type Capture struct {
	ExpectationID   string
	BeforeScreenshot []byte
	AfterScreenshot  []byte
	BeforeDOMText    string
	AfterDOMText     string
	NetworkEvents    []browserdriver.NetworkEvent
}

// Bundle is the written result of Write: the basenames committed under
// EVIDENCE/ and the computed diff, so callers can log/correlate without
// re-reading the file back.
type Bundle struct {
	Files []string
	Diff  DOMDiff
}

// Write redacts and persists one attempt's evidence through mgr, returning
// the basenames it committed under EVIDENCE/. Files are written one after
// another (before screenshot, after screenshot, DOM diff); on a failure
// Write returns an error and an empty Bundle, and any file it already
// wrote for this capture stays under EVIDENCE/.
func Write(mgr *artifact.Manager, c Capture) (Bundle, error) {
	beforeRedacted := Redact(c.BeforeDOMText)
	afterRedacted := Redact(c.AfterDOMText)

	diff := ComputeDOMDiff(beforeRedacted, afterRedacted, 3)
	diff.Network = redactNetworkLog(c.NetworkEvents)

	diffJSON, err := json.Marshal(diff)
	if err != nil {
		return Bundle{}, errs.Wrap(errs.EvidenceCaptureError, "evidence", "marshal dom diff", err)
	}

	beforeName := fmt.Sprintf("exp_%s_before.png", c.ExpectationID)
	afterName := fmt.Sprintf("exp_%s_after.png", c.ExpectationID)
	diffName := fmt.Sprintf("exp_%s_dom_diff.json", c.ExpectationID)

	if len(c.BeforeScreenshot) > 0 {
		if err := mgr.Write(evidenceDir+"/"+beforeName, c.BeforeScreenshot); err != nil {
			return Bundle{}, errs.Wrap(errs.EvidenceCaptureError, "evidence", "write before screenshot", err)
		}
	}
	if len(c.AfterScreenshot) > 0 {
		if err := mgr.Write(evidenceDir+"/"+afterName, c.AfterScreenshot); err != nil {
			return Bundle{}, errs.Wrap(errs.EvidenceCaptureError, "evidence", "write after screenshot", err)
		}
	}
	if err := mgr.Write(evidenceDir+"/"+diffName, diffJSON); err != nil {
		return Bundle{}, errs.Wrap(errs.EvidenceCaptureError, "evidence", "write dom diff", err)
	}

	var files []string
	if len(c.BeforeScreenshot) > 0 {
		files = append(files, beforeName)
	}
	if len(c.AfterScreenshot) > 0 {
		files = append(files, afterName)
	}
	files = append(files, diffName)

	return Bundle{Files: files, Diff: diff}, nil
}

func redactNetworkLog(events []browserdriver.NetworkEvent) []NetworkLogEntry {
	if len(events) == 0 {
		return nil
	}
	out := make([]NetworkLogEntry, 0, len(events))
	for _, e := range events {
		out = append(out, NetworkLogEntry{
			Method:   e.Method,
			URL:      Redact(e.URL),
			Status:   e.Status,
			Blocked:  e.Blocked,
			AtMillis: e.AtMillis,
		})
	}
	return out
}
