// Package observe drives the headless browser through every PROVEN
// expectation and records what actually happened. Grounded on
// the project's session-per-task lifecycle in internal/browser/session_manager.go,
// generalized from "one browser session per agent task" to "one isolated
// browsing context per attempted expectation" so sensor state and network
// logs never leak between attempts.
package observe

import (
	"context"
	"encoding/json"
	"strings"

	"truthwatch/internal/artifact"
	"truthwatch/internal/browserdriver"
	"truthwatch/internal/config"
	"truthwatch/internal/evidence"
	"truthwatch/internal/logging"
	"truthwatch/internal/model"
	"truthwatch/internal/runctx"
	"truthwatch/internal/timeid"
)

// Result is the full output of one OBSERVE phase.
type Result struct {
	Observations   []model.Observation
	CoverageGaps   []model.CoverageGap
	FirewallStats  browserdriver.NetworkFirewallStats
	Incomplete     bool
}

// sensorSnapshot mirrors the fields of window.__truthwatchSensors
// installed by internal/browser's sensorInjectionJS. submitEvents,
// clickEvents, and navigationEvents are monotonic counts; the feedback
// fields are sticky booleans for the page's lifetime.
type sensorSnapshot struct {
	SubmitEvents     int  `json:"submitEvents"`
	NavigationEvents int  `json:"navigationEvents"`
	FeedbackSeen     bool `json:"feedbackSeen"`
	AriaLiveUpdated  bool `json:"ariaLiveUpdated"`
	RoleAlertSeen    bool `json:"roleAlertSeen"`
}

const sensorReadJS = `JSON.stringify(window.__truthwatchSensors || {})`

// Run attempts every PROVEN expectation against baseURL in id order,
// persisting evidence through mgr and honoring run's budget guards.
// LIKELY expectations are never attempted; each gets a NOT_APPLICABLE
// coverage gap instead (see DESIGN.md).
func Run(ctx context.Context, run *runctx.Run, factory browserdriver.Factory, expectations []model.Expectation, baseURL string, mgr *artifact.Manager, clock timeid.Clock, budgets config.BudgetConfig) (Result, error) {
	timer := logging.StartTimer(logging.CategoryObserve, "Run")
	defer timer.Stop()

	run.BeginPhase(runctx.PhaseObserve)

	var result Result
	interactionCount := 0
	var firewall browserdriver.NetworkFirewallStats

	for _, e := range expectations {
		if e.Proof != model.ProvenExpectation {
			result.CoverageGaps = append(result.CoverageGaps, model.CoverageGap{
				ExpectationID: e.ID, Type: e.Type, Reason: model.ReasonNotApplicable, FromPath: e.FromPath,
				Evidence: "proof level below PROVEN_EXPECTATION",
			})
			continue
		}

		if err := run.CheckContext(ctx, runctx.PhaseObserve); err != nil {
			result.CoverageGaps = append(result.CoverageGaps, model.CoverageGap{
				ExpectationID: e.ID, Type: e.Type, Reason: model.ReasonTimeoutObserve, FromPath: e.FromPath,
				Evidence: err.Error(),
			})
			result.Incomplete = true
			break
		}
		if err := run.CheckBudget(runctx.PhaseObserve, int64(budgets.ObserveMaxMs)); err != nil {
			result.CoverageGaps = append(result.CoverageGaps, model.CoverageGap{
				ExpectationID: e.ID, Type: e.Type, Reason: model.ReasonTimeoutObserve, FromPath: e.FromPath,
				Evidence: err.Error(),
			})
			result.Incomplete = true
			break
		}
		if run.TotalElapsedMs() > int64(budgets.TotalMaxMs) {
			result.CoverageGaps = append(result.CoverageGaps, model.CoverageGap{
				ExpectationID: e.ID, Type: e.Type, Reason: model.ReasonTimeoutTotal, FromPath: e.FromPath,
			})
			result.Incomplete = true
			break
		}
		if interactionCount >= budgets.MaxTotalInteractions {
			result.CoverageGaps = append(result.CoverageGaps, model.CoverageGap{
				ExpectationID: e.ID, Type: e.Type, Reason: model.ReasonBudgetExceeded, FromPath: e.FromPath,
				Evidence: "maxTotalInteractions reached",
			})
			result.Incomplete = true
			break
		}

		obs, gap := attempt(ctx, factory, e, baseURL, mgr, clock, &firewall)
		interactionCount++
		if obs != nil {
			result.Observations = append(result.Observations, *obs)
		}
		if gap != nil {
			result.CoverageGaps = append(result.CoverageGaps, *gap)
		}
	}

	model.SortObservationsByExpectationID(result.Observations)
	result.FirewallStats = firewall
	return result, nil
}

// attempt drives one expectation through navigate/act/quiesce/capture,
// returning exactly one of (*Observation, *CoverageGap) per call.
func attempt(ctx context.Context, factory browserdriver.Factory, e model.Expectation, baseURL string, mgr *artifact.Manager, clock timeid.Clock, firewall *browserdriver.NetworkFirewallStats) (*model.Observation, *model.CoverageGap) {
	selector, act, ok := resolveAttempt(e)
	if !ok {
		return nil, &model.CoverageGap{
			ExpectationID: e.ID, Type: e.Type, Reason: model.ReasonNoEvidence, FromPath: e.FromPath,
			Evidence: "no resolvable selector for this promise",
		}
	}

	drv, err := factory.New(ctx)
	if err != nil {
		return &model.Observation{
			ExpectationID: e.ID,
			Attempted:     true,
			ActionSuccess: false,
			Outcome:       model.OutcomeIncomplete,
			Reason:        "browser_start_failed:" + err.Error(),
			EvidenceFiles: []string{},
			ObservedAt:    clock.Now().UTC().Format(timeRFC3339),
		}, nil
	}
	defer drv.Close(ctx)

	if err := drv.Navigate(ctx, baseURL); err != nil {
		return &model.Observation{
			ExpectationID: e.ID, Attempted: true, ActionSuccess: false,
			Outcome: model.OutcomeIncomplete, Reason: "navigate_failed:" + err.Error(),
			EvidenceFiles: []string{}, ObservedAt: clock.Now().UTC().Format(timeRFC3339),
		}, nil
	}
	if _, err := drv.InstallSensors(ctx); err != nil {
		logging.Get(logging.CategoryObserve).Warn("install sensors failed for %s: %v", e.ID, err)
	}

	beforeShot, _ := drv.Screenshot(ctx)
	beforeDOM, _ := drv.DOMSignature(ctx)
	beforeURL, _ := drv.CurrentURL(ctx)
	beforeSensors := readSensors(ctx, drv)

	var outcome model.OutcomeState
	var reason string
	actionSuccess := false

	switch act {
	case actionClick:
		co, err := drv.Click(ctx, selector)
		actionSuccess, outcome, reason = classifyClick(co, err)
	case actionSubmit:
		co, err := drv.Submit(ctx, selector)
		actionSuccess, outcome, reason = classifyClick(co, err)
	}

	if outcome == model.OutcomeNotFound {
		*firewall = mergeFirewall(*firewall, drv.FirewallStats(ctx))
		return &model.Observation{
			ExpectationID: e.ID, Attempted: true, ActionSuccess: false,
			Outcome: outcome, Reason: reason, EvidenceFiles: []string{},
			ObservedAt: clock.Now().UTC().Format(timeRFC3339),
		}, nil
	}

	if err := drv.Quiesce(ctx); err != nil {
		*firewall = mergeFirewall(*firewall, drv.FirewallStats(ctx))
		return &model.Observation{
			ExpectationID: e.ID, Attempted: true, ActionSuccess: actionSuccess,
			Outcome: model.OutcomeIncomplete, Reason: "timeout:quiesce",
			EvidenceFiles: []string{}, ObservedAt: clock.Now().UTC().Format(timeRFC3339),
		}, nil
	}

	afterShot, _ := drv.Screenshot(ctx)
	afterDOM, _ := drv.DOMSignature(ctx)
	afterURL, _ := drv.CurrentURL(ctx)
	afterSensors := readSensors(ctx, drv)
	events := drv.DrainNetworkEvents(ctx)
	*firewall = mergeFirewall(*firewall, drv.FirewallStats(ctx))

	signals := computeSignals(e, beforeURL, afterURL, beforeDOM, afterDOM, beforeSensors, afterSensors, events)

	bundle, err := evidence.Write(mgr, evidence.Capture{
		ExpectationID:    e.ID,
		BeforeScreenshot: beforeShot,
		AfterScreenshot:  afterShot,
		BeforeDOMText:    beforeDOM,
		AfterDOMText:     afterDOM,
		NetworkEvents:    events,
	})

	obs := model.Observation{
		ExpectationID: e.ID,
		Attempted:     true,
		ActionSuccess: actionSuccess,
		Outcome:       outcome,
		Reason:        reason,
		Signals:       signals,
		ObservedAt:    clock.Now().UTC().Format(timeRFC3339),
	}

	if err != nil {
		obs.EvidenceFiles = []string{}
		if obs.Reason == "" {
			obs.Reason = "evidence_capture_failed:" + err.Error()
		}
	} else {
		obs.EvidenceFiles = bundle.Files
	}

	if isSilent(signals) {
		obs.SilenceDetected = &model.SilenceMarker{
			Kind: model.SilenceIntentBlocked,
			Code: model.CodeUnknownClickIntent,
		}
	}

	return &obs, nil
}

const timeRFC3339 = "2006-01-02T15:04:05.000Z"

func classifyClick(co browserdriver.ClickOutcome, err error) (actionSuccess bool, outcome model.OutcomeState, reason string) {
	if err != nil {
		return false, model.OutcomeIncomplete, "driver_error:" + err.Error()
	}
	switch co {
	case browserdriver.ClickOK:
		return true, model.OutcomeSuccess, ""
	case browserdriver.ClickPrevented:
		return true, model.OutcomeSuccess, "default_prevented"
	case browserdriver.ClickNotFound:
		return false, model.OutcomeNotFound, "selector_not_found"
	case browserdriver.ClickBlocked:
		return false, model.OutcomeNotFound, "click_blocked"
	default:
		return false, model.OutcomeIncomplete, "unknown_click_outcome"
	}
}

func readSensors(ctx context.Context, drv browserdriver.Driver) sensorSnapshot {
	raw, err := drv.Evaluate(ctx, sensorReadJS)
	if err != nil || raw == "" {
		return sensorSnapshot{}
	}
	var snap sensorSnapshot
	_ = json.Unmarshal([]byte(raw), &snap)
	return snap
}

func mergeFirewall(a, b browserdriver.NetworkFirewallStats) browserdriver.NetworkFirewallStats {
	merged := browserdriver.NetworkFirewallStats{
		Enabled:        a.Enabled || b.Enabled,
		BlockedCount:   a.BlockedCount + b.BlockedCount,
		BlockedMethods: map[string]int{},
	}
	for k, v := range a.BlockedMethods {
		merged.BlockedMethods[k] += v
	}
	for k, v := range b.BlockedMethods {
		merged.BlockedMethods[k] += v
	}
	return merged
}

// computeSignals derives the flat signal record from before/after state.
// Framework-specific transition hooks
// (reactEffectNavigation, vueRouterTransition, nextJsPageSwap) require
// instrumenting each framework's router internals from inside the page,
// which the generic sensor script does not attempt; they are left false.
func computeSignals(e model.Expectation, beforeURL, afterURL, beforeDOM, afterDOM string, before, after sensorSnapshot, events []browserdriver.NetworkEvent) model.Signals {
	navChanged := beforeURL != "" && afterURL != "" && beforeURL != afterURL
	routeChanged := navChanged || after.NavigationEvents > before.NavigationEvents

	var networkActivity, networkSuccess, networkFailure, correlated bool
	for _, ev := range events {
		networkActivity = true
		if ev.Blocked || ev.Status >= 400 {
			networkFailure = true
		} else if ev.Status > 0 && ev.Status < 400 {
			networkSuccess = true
		}
		if networkMatches(e, strings.ToUpper(ev.Method), ev.URL) {
			correlated = true
		}
	}

	return model.Signals{
		NavigationChanged:         navChanged,
		RouteChanged:              routeChanged,
		MeaningfulDomChange:       beforeDOM != afterDOM,
		MeaningfulUIChange:        beforeDOM != afterDOM,
		FeedbackSeen:              after.FeedbackSeen,
		AriaLiveUpdated:           after.AriaLiveUpdated,
		RoleAlertSeen:             after.RoleAlertSeen,
		CorrelatedNetworkActivity: correlated,
		NetworkActivity:           networkActivity,
		NetworkSuccess:            networkSuccess,
		NetworkFailure:            networkFailure,
		SubmitEventsDelta:         after.SubmitEvents != before.SubmitEvents,
	}
}

// isSilent reports the "all signals false" state that earns a descriptive
// silence marker rather than a finding.
func isSilent(s model.Signals) bool {
	return !s.NavigationChanged && !s.RouteChanged && !s.MeaningfulDomChange &&
		!s.MeaningfulUIChange && !s.FeedbackSeen && !s.AriaLiveUpdated && !s.RoleAlertSeen &&
		!s.CorrelatedNetworkActivity && !s.NetworkActivity && !s.SubmitEventsDelta
}
