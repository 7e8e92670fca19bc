// Package errs defines the closed set of error kinds the truth pipeline can
// raise and the propagation wrapper used throughout the core.
package errs

import "fmt"

// Kind is one of the closed error kinds named in the design. No
// other kind may be introduced without updating every switch that handles
// Kind exhaustively.
type Kind string

const (
	UsageError          Kind = "UsageError"
	ExtractionError      Kind = "ExtractionError"
	BrowserError         Kind = "BrowserError"
	BudgetExceeded       Kind = "BudgetExceeded"
	EvidenceCaptureError Kind = "EvidenceCaptureError"
	ArtifactWriteError   Kind = "ArtifactWriteError"
	ContractViolation    Kind = "ContractViolation"
)

// TruthError carries a closed Kind plus the phase it occurred in, wrapping
// an underlying cause the way the rest of the codebase wraps stdlib errors.
type TruthError struct {
	Kind  Kind
	Phase string
	Msg   string
	Cause error
}

func (e *TruthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s[%s]: %s: %v", e.Kind, e.Phase, e.Msg, e.Cause)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Phase, e.Msg)
}

func (e *TruthError) Unwrap() error { return e.Cause }

// New constructs a TruthError without a wrapped cause.
func New(kind Kind, phase, msg string) *TruthError {
	return &TruthError{Kind: kind, Phase: phase, Msg: msg}
}

// Wrap constructs a TruthError wrapping cause. If cause is nil, Wrap
// returns nil so it composes with the `if err := ...; err != nil` idiom.
func Wrap(kind Kind, phase, msg string, cause error) error {
	if cause == nil {
		return nil
	}
	return &TruthError{Kind: kind, Phase: phase, Msg: msg, Cause: cause}
}

// Is reports whether err is a *TruthError of the given kind.
func Is(err error, kind Kind) bool {
	te, ok := err.(*TruthError)
	return ok && te.Kind == kind
}
