package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapNilPassesThrough(t *testing.T) {
	require.Nil(t, Wrap(BrowserError, "observe", "navigate failed", nil))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(BrowserError, "observe", "navigate failed", cause)
	require.True(t, Is(err, BrowserError))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "navigate failed")
}

func TestIsRejectsOtherKinds(t *testing.T) {
	err := New(BudgetExceeded, "observe", "observeMaxMs exceeded")
	require.False(t, Is(err, BrowserError))
	require.True(t, Is(err, BudgetExceeded))
}
