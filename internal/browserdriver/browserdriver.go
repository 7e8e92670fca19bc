// Package browserdriver defines the narrow contract the OBSERVE stage uses
// to exercise a live page: load, click by hint, submit,
// evaluate, plus a sensor-injection hook. Implementations are
// interchangeable; internal/browser provides the go-rod-backed one.
package browserdriver

import "context"

// NetworkEvent is a single outbound request/response pair observed during
// an attempt, used to compute correlatedNetworkActivity.
type NetworkEvent struct {
	Method   string
	URL      string
	Status   int
	Blocked  bool
	AtMillis int64
}

// SensorInstallResult is the return value of InstallSensors: a named,
// versioned, idempotent injection contract that returns monotonic
// counters. A second call against an already-installed page is a no-op.
type SensorInstallResult struct {
	Installed bool
	Version   string
}

// ClickOutcome classifies the result of attempting a click/submit. If the
// selector cannot be resolved the outcome is NOT_FOUND; this is never
// retried.
type ClickOutcome string

const (
	ClickOK           ClickOutcome = "ok"
	ClickNotFound     ClickOutcome = "not_found"
	ClickBlocked      ClickOutcome = "blocked"
	ClickPrevented    ClickOutcome = "prevented"
)

// NetworkFirewallStats reports the mandatory safety invariant: all
// non-idempotent outbound requests are blocked during observation, never
// configurable.
type NetworkFirewallStats struct {
	Enabled        bool
	BlockedCount   int
	BlockedMethods map[string]int
}

// Driver is the narrow contract the observation engine depends on.
// Every method takes ctx so the Run's budget guard can cancel an
// in-flight browser operation at a safe point: every suspension point is
// a filesystem, network, or browser operation.
type Driver interface {
	// Navigate loads url in a fresh, isolated browsing context and
	// installs sensors before first script executes.
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the page's current URL (post-navigation/redirect).
	CurrentURL(ctx context.Context) (string, error)

	// InstallSensors idempotently injects the submit/navigation/feedback
	// counters. Safe to call more than once per page.
	InstallSensors(ctx context.Context) (SensorInstallResult, error)

	// Click attempts to click the element matching selectorHint.
	Click(ctx context.Context, selectorHint string) (ClickOutcome, error)

	// Submit attempts to submit the form containing or matching
	// selectorHint.
	Submit(ctx context.Context, selectorHint string) (ClickOutcome, error)

	// Evaluate runs js in the page context and returns its JSON-encodable
	// result as a string.
	Evaluate(ctx context.Context, js string) (string, error)

	// DOMSignature returns a normalized digest of the page's visible
	// text, for before/after comparison.
	DOMSignature(ctx context.Context) (string, error)

	// Screenshot captures the current viewport as PNG bytes.
	Screenshot(ctx context.Context) ([]byte, error)

	// Quiesce blocks until the page has settled (no pending network,
	// no pending animation frame) or the context deadline elapses.
	Quiesce(ctx context.Context) error

	// DrainNetworkEvents returns and clears all network events observed
	// since the last call.
	DrainNetworkEvents(ctx context.Context) []NetworkEvent

	// FirewallStats reports the network firewall's cumulative counters.
	FirewallStats(ctx context.Context) NetworkFirewallStats

	// Close tears down the isolated browsing context.
	Close(ctx context.Context) error
}

// Factory constructs a fresh Driver bound to one attempt. Each PROVEN
// expectation gets its own Driver instance so per-page sensor state and
// network logs never leak across attempts ("one observation
// per attempted expectation").
type Factory interface {
	New(ctx context.Context) (Driver, error)
}
