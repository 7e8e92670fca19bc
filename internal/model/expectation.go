// Package model defines the data model of the truth pipeline: Expectation,
// Observation, Finding, and CoverageGap. Promise payloads are a
// discriminated union: one struct per tag, held in Promise's optional
// fields, with Expectation.Type naming which one is set.
package model

import "sort"

// ExpectationType is the closed set of expectation kinds.
type ExpectationType string

const (
	TypeNavigation       ExpectationType = "navigation"
	TypeNetworkAction     ExpectationType = "network_action"
	TypeStateAction       ExpectationType = "state_action"
	TypeValidationBlock   ExpectationType = "validation_block"
	TypeInteraction       ExpectationType = "interaction"
)

// ProofLevel distinguishes statically-proven expectations (which may be
// attempted) from merely-likely ones (recorded for coverage accounting
// only, "Truth boundary").
type ProofLevel string

const (
	ProvenExpectation ProofLevel = "PROVEN_EXPECTATION"
	LikelyExpectation ProofLevel = "LIKELY_EXPECTATION"
)

// Source anchors an expectation to the static code that proved it.
// Required: an expectation with no Source must be rejected at extract
// time.
type Source struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Context string `json:"context"`
}

func (s Source) valid() bool {
	return s.File != "" && s.Line > 0
}

// NavigationPromise is the payload for type=navigation.
type NavigationPromise struct {
	TargetPath      string `json:"targetPath"`
	IsDynamic       bool   `json:"isDynamic"`
	OriginalPattern string `json:"originalPattern,omitempty"`
	ExamplePath     string `json:"examplePath,omitempty"`
}

// NetworkPromise is the payload for type=network_action.
type NetworkPromise struct {
	Method  string `json:"method"`
	URLPath string `json:"urlPath"`
}

// StatePromise is the payload for type=state_action.
type StatePromise struct {
	Store  string `json:"store"`
	Action string `json:"action"`
}

// ValidationPromise is the payload for type=validation_block.
type ValidationPromise struct {
	SelectorHint string `json:"selectorHint"`
}

// InteractionPromise is the payload for type=interaction: a bare click/tap
// target with no further statically-proven effect beyond "this is
// clickable" — the minimal proof needed for dead-interaction accounting.
type InteractionPromise struct {
	SelectorHint string `json:"selectorHint"`
}

// Promise is the discriminated union of promise payloads. Exactly one of
// the typed fields is set, matching Type. Consumers should switch on Type
// and read the matching field; Expectation.Valid reports false when the
// field for the active Type is nil.
type Promise struct {
	Navigation *NavigationPromise `json:"navigation,omitempty"`
	Network    *NetworkPromise    `json:"network,omitempty"`
	State      *StatePromise      `json:"state,omitempty"`
	Validation *ValidationPromise `json:"validation,omitempty"`
	Interaction *InteractionPromise `json:"interaction,omitempty"`
}

// payloadString returns a stable textual encoding of whichever payload is
// set, used as part of the expectation id hash input.
func (p Promise) payloadString() string {
	switch {
	case p.Navigation != nil:
		return p.Navigation.OriginalPattern + "|" + p.Navigation.TargetPath
	case p.Network != nil:
		return p.Network.Method + " " + p.Network.URLPath
	case p.State != nil:
		return p.State.Store + "." + p.State.Action
	case p.Validation != nil:
		return p.Validation.SelectorHint
	case p.Interaction != nil:
		return p.Interaction.SelectorHint
	default:
		return ""
	}
}

// Expectation is a proof-bearing claim that a UI interaction produces a
// specific effect.
type Expectation struct {
	ID           string          `json:"id"`
	Type         ExpectationType `json:"type"`
	Proof        ProofLevel      `json:"proof"`
	Promise      Promise         `json:"promise"`
	Source       Source          `json:"source"`
	SelectorHint string          `json:"selectorHint,omitempty"`
	FromPath     string          `json:"fromPath"`
}

// Valid reports whether e satisfies the data-model invariants: a required
// Source, and a Promise payload matching Type.
func (e Expectation) Valid() bool {
	if !e.Source.valid() {
		return false
	}
	switch e.Type {
	case TypeNavigation:
		return e.Promise.Navigation != nil
	case TypeNetworkAction:
		return e.Promise.Network != nil
	case TypeStateAction:
		return e.Promise.State != nil
	case TypeValidationBlock:
		return e.Promise.Validation != nil
	case TypeInteraction:
		return e.Promise.Interaction != nil
	default:
		return false
	}
}

// NewExpectationID computes the stable id for an expectation: a hash of
// (type, source file, source line, selector hint, promise payload).
// Identical source trees yield identical ids across runs.
func NewExpectationID(typ ExpectationType, src Source, selectorHint string, promise Promise, stableID func(...string) string) string {
	return stableID(string(typ), src.File, itoa(src.Line), selectorHint, promise.payloadString())
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// SortByID sorts expectations deterministically by id.
func SortByID(exps []Expectation) {
	sort.Slice(exps, func(i, j int) bool { return exps[i].ID < exps[j].ID })
}
