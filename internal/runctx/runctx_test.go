package runctx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"truthwatch/internal/config"
	"truthwatch/internal/errs"
	"truthwatch/internal/timeid"
)

func testRun(t *testing.T) *Run {
	t.Helper()
	return New(config.DefaultConfig(), timeid.FixedClock{At: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
}

func TestNewAssignsRunIDAndStartedAt(t *testing.T) {
	r := testRun(t)
	require.NotEmpty(t, r.ID)
	require.False(t, r.StartedAt.IsZero())
}

func TestInitTwiceIsContractViolation(t *testing.T) {
	r := testRun(t)
	require.NoError(t, r.Init(t.TempDir()))
	err := r.Init(t.TempDir())
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.ContractViolation))
}

func TestCheckBudgetExceededRecordsEvent(t *testing.T) {
	clock := &advancingClock{at: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := New(config.DefaultConfig(), clock)
	r.BeginPhase(PhaseObserve)
	clock.advance(2 * time.Second)

	err := r.CheckBudget(PhaseObserve, 1000)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.BudgetExceeded))
	require.Len(t, r.BudgetEvents(), 1)
	require.Equal(t, PhaseObserve, r.BudgetEvents()[0].Phase)
}

func TestCheckBudgetWithinLimitIsNil(t *testing.T) {
	r := testRun(t)
	r.BeginPhase(PhaseLearn)
	require.NoError(t, r.CheckBudget(PhaseLearn, 60000))
}

func TestCheckContextCancelled(t *testing.T) {
	r := testRun(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := r.CheckContext(ctx, PhaseObserve)
	require.Error(t, err)
	require.True(t, errs.Is(err, errs.BudgetExceeded))
}

func TestTeardownMarksTorn(t *testing.T) {
	r := testRun(t)
	require.False(t, r.Torn())
	r.Teardown()
	require.True(t, r.Torn())
}

type advancingClock struct{ at time.Time }

func (c *advancingClock) Now() time.Time { return c.at }
func (c *advancingClock) advance(d time.Duration) { c.at = c.at.Add(d) }
