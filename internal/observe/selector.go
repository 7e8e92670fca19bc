package observe

import (
	"strings"

	"truthwatch/internal/model"
)

// action is the closed set of browser actions the engine can drive a
// resolved selector through.
type action int

const (
	actionClick action = iota
	actionSubmit
)

// resolveAttempt derives (selector, action) for one PROVEN expectation.
// Navigation and interaction expectations carry an extractor-proven
// SelectorHint directly. network_action and state_action
// expectations are proven at the call-expression level, which the
// extractor does not anchor to the triggering DOM element — so this
// falls back to the nearest plausible submit control. No static link
// between a handler body and its enclosing form is made.
func resolveAttempt(e model.Expectation) (selector string, act action, ok bool) {
	switch e.Type {
	case model.TypeNavigation, model.TypeInteraction:
		if e.SelectorHint == "" {
			return "", 0, false
		}
		return e.SelectorHint, actionClick, true

	case model.TypeValidationBlock:
		if e.Promise.Validation == nil || e.Promise.Validation.SelectorHint == "" {
			return "", 0, false
		}
		return e.Promise.Validation.SelectorHint, actionSubmit, true

	case model.TypeNetworkAction:
		if e.SelectorHint != "" {
			return e.SelectorHint, actionClick, true
		}
		return "form", actionSubmit, true

	case model.TypeStateAction:
		if e.SelectorHint != "" {
			return e.SelectorHint, actionClick, true
		}
		return `button[type="submit"]`, actionClick, true

	default:
		return "", 0, false
	}
}

// networkMatches reports whether a drained network event corresponds to
// the network_action promise e describes.
func networkMatches(e model.Expectation, method, url string) bool {
	if e.Promise.Network == nil {
		return false
	}
	p := e.Promise.Network
	if p.Method != "" && p.Method != method {
		return false
	}
	return p.URLPath == "" || strings.Contains(url, p.URLPath)
}
