package correlate

import "truthwatch/internal/model"

// buildNarrative fills the critical narrative fields for one finding. The
// wording is keyed off (expectation type, finding type); it does not vary
// with confidence or status, so two runs over the same code and the same
// DOM always produce the same prose.
func buildNarrative(e model.Expectation, o model.Observation, ft model.FindingType) model.Narrative {
	selector := e.SelectorHint
	if selector == "" {
		selector = "the interactive element"
	}

	switch ft {
	case model.FindingNavigationSilentFailure:
		return model.Narrative{
			WhatHappened:    "A click on " + selector + " produced no observable effect.",
			WhatWasExpected: "A navigation to " + targetPath(e) + ".",
			WhatWasObserved: "No URL change, route change, or DOM change was recorded after the click.",
			WhyItMatters:    "A user clicking this link or button sees nothing happen and has no way to know their action was ignored.",
		}
	case model.FindingNetworkSilentFailure:
		return model.Narrative{
			WhatHappened:    "An action on " + selector + " did not produce the expected network call, or its failure was not surfaced.",
			WhatWasExpected: "A " + networkMethod(e) + " request and user-visible feedback on failure.",
			WhatWasObserved: "No correlated network activity, or a failed request with no feedback signal.",
			WhyItMatters:    "A user submitting data has no way to know whether it was saved or the request failed.",
		}
	case model.FindingDeadInteractionSilentFailure:
		return model.Narrative{
			WhatHappened:    selector + " is clickable but its handler has no statically provable effect.",
			WhatWasExpected: "Some observable effect: navigation, DOM change, network call, or feedback.",
			WhatWasObserved: "Every signal was false after the click; the element is a dead interaction.",
			WhyItMatters:    "A clickable-looking element that does nothing erodes trust in the rest of the interface.",
		}
	case model.FindingMissingNetworkAction:
		return model.Narrative{
			WhatHappened:    "The control expected to trigger a network call could not be found on the page.",
			WhatWasExpected: "An element matching " + selector + " triggering " + networkMethod(e) + ".",
			WhatWasObserved: "The selector resolved to no element.",
			WhyItMatters:    "The statically-proven call site has no reachable trigger at runtime; the feature may be unreachable.",
		}
	case model.FindingMissingStateAction:
		return model.Narrative{
			WhatHappened:    "The control expected to trigger a state update could not be found on the page.",
			WhatWasExpected: "An element matching " + selector + " triggering a state mutation.",
			WhatWasObserved: "The selector resolved to no element.",
			WhyItMatters:    "The statically-proven state change has no reachable trigger at runtime.",
		}
	case model.FindingUnproven:
		return model.Narrative{
			WhatHappened:    "The attempt against " + selector + " did not complete within its timeout.",
			WhatWasExpected: "A settled page state within the per-attempt budget.",
			WhatWasObserved: "The page never reached quiescence before the attempt was abandoned.",
			WhyItMatters:    "Without a settled state this attempt can be neither confirmed nor ruled out.",
		}
	default:
		return model.Narrative{
			WhatHappened:    "An action on " + selector + " completed and produced an observable effect.",
			WhatWasExpected: "The statically-proven effect described by this expectation.",
			WhatWasObserved: "At least one substantive signal was recorded.",
			WhyItMatters:    "Recorded for coverage; no defect is implied.",
		}
	}
}

func targetPath(e model.Expectation) string {
	if e.Promise.Navigation != nil && e.Promise.Navigation.TargetPath != "" {
		return e.Promise.Navigation.TargetPath
	}
	return "the target route"
}

func networkMethod(e model.Expectation) string {
	if e.Promise.Network != nil && e.Promise.Network.Method != "" {
		return e.Promise.Network.Method
	}
	return "network"
}
