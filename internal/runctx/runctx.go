// Package runctx defines the per-run value that replaces a process-wide
// mutable cache: every component receives a *Run explicitly through its
// constructor instead of reaching into package-level state. A Run is
// created once at phase start and torn down at run end; re-initializing
// an already-initialized Run is a ContractViolation.
package runctx

import (
	"context"
	"sync"
	"time"

	"truthwatch/internal/config"
	"truthwatch/internal/errs"
	"truthwatch/internal/logging"
	"truthwatch/internal/timeid"
)

// Phase identifies which budget-guarded stage of the pipeline is active.
type Phase string

const (
	PhaseLearn    Phase = "learn"
	PhaseObserve  Phase = "observe"
	PhaseDetect   Phase = "detect"
	PhaseAggregate Phase = "aggregate"
)

// Run is the single per-run value. It is not safe to share across
// concurrent runs; one Run serves exactly one runId for its entire
// lifetime.
type Run struct {
	ID        string
	Clock     timeid.Clock
	Config    *config.Config
	StartedAt time.Time

	mu             sync.Mutex
	initialized    bool
	torn           bool
	phaseStart     map[Phase]time.Time
	totalStart     time.Time
	budgetExceeded []BudgetEvent
}

// BudgetEvent records a single BudgetExceeded occurrence, tagged with the
// phase and the observed value that tripped it.
type BudgetEvent struct {
	Phase        Phase
	ObservedMs   int64
	LimitMs      int64
	OccurredAt   time.Time
}

// New constructs a fresh Run. clock defaults to timeid.SystemClock{} if
// nil (tests pass a FixedClock to keep StartedAt deterministic).
func New(cfg *config.Config, clock timeid.Clock) *Run {
	if clock == nil {
		clock = timeid.SystemClock{}
	}
	now := clock.Now()
	return &Run{
		ID:         timeid.NewRunID(clock),
		Clock:      clock,
		Config:     cfg,
		StartedAt:  now,
		phaseStart: make(map[Phase]time.Time),
		totalStart: now,
	}
}

// Init performs one-time setup (currently: logging). Calling Init twice on
// the same Run is a ContractViolation: duplicate initialization is an
// error.
func (r *Run) Init(logDir string) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return errs.New(errs.ContractViolation, "init", "Run already initialized")
	}
	r.initialized = true
	r.mu.Unlock()

	if r.Config.Logging.Dir != "" {
		logDir = r.Config.Logging.Dir
	}
	return logging.Initialize(logging.Options{
		Dir:        logDir,
		Level:      r.Config.Logging.Level,
		JSONFormat: r.Config.Logging.JSONFormat,
	})
}

// BeginPhase records the start time of a pipeline phase for budget
// accounting.
func (r *Run) BeginPhase(p Phase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phaseStart[p] = r.Clock.Now()
}

// ElapsedMs returns milliseconds elapsed since a phase began, or since
// run start if the phase was never begun.
func (r *Run) ElapsedMs(p Phase) int64 {
	r.mu.Lock()
	start, ok := r.phaseStart[p]
	r.mu.Unlock()
	if !ok {
		start = r.totalStart
	}
	return r.Clock.Now().Sub(start).Milliseconds()
}

// TotalElapsedMs returns milliseconds elapsed since the Run was created.
func (r *Run) TotalElapsedMs() int64 {
	return r.Clock.Now().Sub(r.totalStart).Milliseconds()
}

// CheckBudget compares elapsed time against limitMs for the given phase
// and, if exceeded, records a BudgetEvent and returns a *errs.TruthError
// of kind BudgetExceeded. Callers consult this cooperatively at safe
// points; it is never raised as a panic or thrown across arbitrary
// layers.
func (r *Run) CheckBudget(p Phase, limitMs int64) error {
	elapsed := r.ElapsedMs(p)
	if elapsed <= limitMs {
		return nil
	}
	r.mu.Lock()
	r.budgetExceeded = append(r.budgetExceeded, BudgetEvent{
		Phase: p, ObservedMs: elapsed, LimitMs: limitMs, OccurredAt: r.Clock.Now(),
	})
	r.mu.Unlock()
	return errs.New(errs.BudgetExceeded, string(p), "budget exceeded")
}

// CheckContext translates ctx cancellation into the same BudgetExceeded
// kind that CheckBudget returns, so callers handle both through one error
// surface. Run has no background watchdog: budgets are only checked when
// a caller calls CheckBudget.
func (r *Run) CheckContext(ctx context.Context, p Phase) error {
	select {
	case <-ctx.Done():
		return errs.Wrap(errs.BudgetExceeded, string(p), "context cancelled", ctx.Err())
	default:
		return nil
	}
}

// BudgetEvents returns a copy of every BudgetExceeded occurrence recorded
// so far, for coverage-gap reporting.
func (r *Run) BudgetEvents() []BudgetEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]BudgetEvent, len(r.budgetExceeded))
	copy(out, r.budgetExceeded)
	return out
}

// Teardown marks the Run as finished. Calling any budget-accounting method
// after Teardown is a caller bug (not guarded at runtime): a Run is
// torn down at run end and nothing is persisted across runs.
func (r *Run) Teardown() {
	r.mu.Lock()
	r.torn = true
	r.mu.Unlock()
}

// Torn reports whether Teardown has been called.
func (r *Run) Torn() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.torn
}
