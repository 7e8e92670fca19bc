// Package browser is the go-rod-backed implementation of
// internal/browserdriver.Driver. Grounded on the project's
// internal/browser/session_manager.go: launcher-based Chrome bring-up,
// one incognito context per attempt (generalizing SessionManager's
// multi-page session map into a single-page-per-attempt driver), and the
// same Evaluate/Click/Screenshot call shapes. The driver only reports raw
// page facts (URL, a digest of the visible text, sensor counters, network
// events); judging whether a click had any observable effect is done in
// internal/observe.
package browser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"

	"truthwatch/internal/browserdriver"
	"truthwatch/internal/config"
	"truthwatch/internal/errs"
	"truthwatch/internal/logging"
)

// nonIdempotentMethods is the closed set the network firewall blocks
// unconditionally ("blocks all non-idempotent outbound
// requests by default ... not a configuration").
var nonIdempotentMethods = map[string]bool{
	"POST": true, "PUT": true, "PATCH": true, "DELETE": true,
}

// Manager owns one rod.Browser connection and mints a fresh Driver (one
// incognito page) per attempt, matching SessionManager's single-browser,
// many-pages lifecycle but dropping its cross-attempt session map.
type Manager struct {
	cfg     config.BrowserConfig
	mu      sync.Mutex
	browser *rod.Browser
}

// NewManager constructs a Manager. The browser is lazily launched on the
// first New call.
func NewManager(cfg config.BrowserConfig) *Manager {
	return &Manager{cfg: cfg}
}

func (m *Manager) ensureStarted(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser != nil {
		if _, err := m.browser.Version(); err == nil {
			return nil
		}
		_ = m.browser.Close()
		m.browser = nil
	}

	controlURL := m.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(m.cfg.Headless)
		if len(m.cfg.Launch) > 0 {
			l = l.Bin(m.cfg.Launch[0])
			for _, rawFlag := range m.cfg.Launch[1:] {
				name, val, hasVal := strings.Cut(strings.TrimLeft(rawFlag, "-"), "=")
				if hasVal {
					l = l.Set(flags.Flag(name), val)
				} else {
					l = l.Set(flags.Flag(name))
				}
			}
		}
		url, err := l.Launch()
		if err != nil {
			return errs.Wrap(errs.BrowserError, "browser", "launch chrome", err)
		}
		controlURL = url
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return errs.Wrap(errs.BrowserError, "browser", "connect to chrome", err)
	}
	m.browser = browser
	logging.Get(logging.CategoryBrowser).Info("connected to chrome at %s", controlURL)
	return nil
}

// New mints a fresh isolated Driver for one attempt.
func (m *Manager) New(ctx context.Context) (browserdriver.Driver, error) {
	if err := m.ensureStarted(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()

	incognito, err := b.Incognito()
	if err != nil {
		return nil, errs.Wrap(errs.BrowserError, "browser", "incognito context", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, errs.Wrap(errs.BrowserError, "browser", "create page", err)
	}
	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             m.cfg.ViewportWidth,
		Height:            m.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		logging.Get(logging.CategoryBrowser).Warn("set viewport failed: %v", err)
	}

	d := &pageDriver{
		page:          page,
		cfg:           m.cfg,
		firewall:      browserdriver.NetworkFirewallStats{Enabled: true, BlockedMethods: map[string]int{}},
		attemptTimeout: m.cfg.AttemptTimeout(),
	}
	d.startFirewall()
	return d, nil
}

// Shutdown closes the underlying browser connection.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	return err
}

// pageDriver implements browserdriver.Driver over one rod.Page.
type pageDriver struct {
	page           *rod.Page
	cfg            config.BrowserConfig
	attemptTimeout time.Duration

	mu       sync.Mutex
	firewall browserdriver.NetworkFirewallStats
	events   []browserdriver.NetworkEvent
	router   *rod.HijackRouter
}

// startFirewall wires a hijack router that blocks every non-idempotent
// outbound request. This is always on; there is no
// configuration path that disables it.
func (d *pageDriver) startFirewall() {
	router := d.page.HijackRequests()
	_ = router.Add("*", "", func(hCtx *rod.Hijack) {
		method := hCtx.Request.Method()
		url := hCtx.Request.URL().String()

		d.mu.Lock()
		blocked := nonIdempotentMethods[strings.ToUpper(method)]
		if blocked {
			d.firewall.BlockedCount++
			d.firewall.BlockedMethods[strings.ToUpper(method)]++
		}
		d.mu.Unlock()

		if blocked {
			hCtx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			d.recordNetworkEvent(browserdriver.NetworkEvent{Method: method, URL: url, Blocked: true, AtMillis: nowMillis()})
			return
		}

		_ = hCtx.LoadResponse(hCtx.Client(), true)
		d.recordNetworkEvent(browserdriver.NetworkEvent{
			Method: method, URL: url, Status: hCtx.Response.Payload().ResponseCode, AtMillis: nowMillis(),
		})
	})
	d.router = router
	go router.Run()
}

func (d *pageDriver) recordNetworkEvent(ev browserdriver.NetworkEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func (d *pageDriver) Navigate(ctx context.Context, url string) error {
	if _, err := d.page.EvalOnNewDocument("(" + sensorInjectionJS + ")()"); err != nil {
		logging.Get(logging.CategoryBrowser).Warn("sensor install before navigate failed: %v", err)
	}
	if err := d.page.Context(ctx).Timeout(d.cfg.NavigationTimeout()).Navigate(url); err != nil {
		return errs.Wrap(errs.BrowserError, "observe", "navigate", err)
	}
	_ = d.page.Context(ctx).WaitLoad()
	if _, err := d.InstallSensors(ctx); err != nil {
		return errs.Wrap(errs.BrowserError, "observe", "install sensors", err)
	}
	return nil
}

func (d *pageDriver) CurrentURL(ctx context.Context) (string, error) {
	info, err := d.page.Context(ctx).Info()
	if err != nil {
		return "", errs.Wrap(errs.BrowserError, "observe", "read page url", err)
	}
	return info.URL, nil
}

// sensorInjectionJS is the idempotent sensor contract: installing against
// an already-instrumented page is a no-op, and the installed counters are
// monotonic for the page's lifetime.
const sensorInjectionJS = `
() => {
  const w = window;
  if (w.__truthwatchSensors) {
    return { installed: true, version: w.__truthwatchSensors.version, alreadyInstalled: true };
  }
  const sensors = {
    version: "v1",
    submitEvents: 0,
    clickEvents: 0,
    feedbackSeen: false,
    ariaLiveUpdated: false,
    roleAlertSeen: false,
    navigationEvents: 0,
  };
  document.addEventListener('submit', () => { sensors.submitEvents++; }, true);
  document.addEventListener('click', () => { sensors.clickEvents++; }, true);
  window.addEventListener('popstate', () => { sensors.navigationEvents++; });
  const origPushState = history.pushState;
  history.pushState = function() { sensors.navigationEvents++; return origPushState.apply(this, arguments); };
  const obs = new MutationObserver((mutations) => {
    for (const m of mutations) {
      if (m.type === 'attributes' && m.attributeName === 'aria-live') {
        sensors.ariaLiveUpdated = true;
      }
      if (m.target && m.target.getAttribute && m.target.getAttribute('role') === 'alert') {
        sensors.roleAlertSeen = true;
        sensors.feedbackSeen = true;
      }
      if (m.addedNodes) {
        for (const n of m.addedNodes) {
          if (n.nodeType === 1 && n.getAttribute && n.getAttribute('role') === 'alert') {
            sensors.roleAlertSeen = true;
            sensors.feedbackSeen = true;
          }
        }
      }
    }
  });
  obs.observe(document, { attributes: true, childList: true, subtree: true });
  w.__truthwatchSensors = sensors;
  return { installed: true, version: sensors.version, alreadyInstalled: false };
}
`

func (d *pageDriver) InstallSensors(ctx context.Context) (browserdriver.SensorInstallResult, error) {
	res, err := d.page.Context(ctx).Evaluate(&rod.EvalOptions{JS: sensorInjectionJS, ByValue: true, AwaitPromise: true})
	if err != nil || res == nil {
		return browserdriver.SensorInstallResult{}, errs.Wrap(errs.BrowserError, "observe", "install sensors", err)
	}
	var out struct {
		Installed bool   `json:"installed"`
		Version   string `json:"version"`
	}
	raw, _ := res.Value.MarshalJSON()
	_ = json.Unmarshal(raw, &out)
	return browserdriver.SensorInstallResult{Installed: out.Installed, Version: out.Version}, nil
}

func (d *pageDriver) Click(ctx context.Context, selectorHint string) (browserdriver.ClickOutcome, error) {
	el, err := d.page.Context(ctx).Timeout(d.attemptTimeout).Element(selectorHint)
	if err != nil {
		return browserdriver.ClickNotFound, nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return browserdriver.ClickBlocked, errs.Wrap(errs.BrowserError, "observe", "click", err)
	}
	return browserdriver.ClickOK, nil
}

func (d *pageDriver) Submit(ctx context.Context, selectorHint string) (browserdriver.ClickOutcome, error) {
	el, err := d.page.Context(ctx).Timeout(d.attemptTimeout).Element(selectorHint)
	if err != nil {
		return browserdriver.ClickNotFound, nil
	}
	js := `(el) => {
		const form = el.closest ? (el.tagName === 'FORM' ? el : el.closest('form')) : null;
		if (!form) return 'no_form';
		if (form.requestSubmit) { form.requestSubmit(); } else { form.submit(); }
		return 'submitted';
	}`
	res, err := el.Eval(js)
	if err != nil {
		return browserdriver.ClickPrevented, errs.Wrap(errs.BrowserError, "observe", "submit", err)
	}
	if res != nil && res.Value.String() == "no_form" {
		return browserdriver.ClickPrevented, nil
	}
	return browserdriver.ClickOK, nil
}

func (d *pageDriver) Evaluate(ctx context.Context, js string) (string, error) {
	res, err := d.page.Context(ctx).Evaluate(&rod.EvalOptions{JS: js, ByValue: true, AwaitPromise: true})
	if err != nil || res == nil {
		return "", errs.Wrap(errs.BrowserError, "observe", "evaluate", err)
	}
	return res.Value.String(), nil
}

const domSignatureJS = `
() => {
  const text = (document.body && document.body.innerText) ? document.body.innerText : '';
  const normalized = text.replace(/\s+/g, ' ').trim();
  return normalized.slice(0, 5000);
}
`

func (d *pageDriver) DOMSignature(ctx context.Context) (string, error) {
	res, err := d.page.Context(ctx).Evaluate(&rod.EvalOptions{JS: domSignatureJS, ByValue: true, AwaitPromise: true})
	if err != nil || res == nil {
		return "", errs.Wrap(errs.BrowserError, "observe", "dom signature", err)
	}
	sum := sha256.Sum256([]byte(res.Value.String()))
	return hex.EncodeToString(sum[:]), nil
}

func (d *pageDriver) Screenshot(ctx context.Context) ([]byte, error) {
	data, err := d.page.Context(ctx).Screenshot(false, nil)
	if err != nil {
		return nil, errs.Wrap(errs.EvidenceCaptureError, "observe", "screenshot", err)
	}
	return data, nil
}

func (d *pageDriver) Quiesce(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, d.attemptTimeout)
	defer cancel()
	if err := d.page.Context(waitCtx).WaitStable(300 * time.Millisecond); err != nil {
		return errs.Wrap(errs.BrowserError, "observe", "quiesce", err)
	}
	return nil
}

func (d *pageDriver) DrainNetworkEvents(ctx context.Context) []browserdriver.NetworkEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.events
	d.events = nil
	return out
}

func (d *pageDriver) FirewallStats(ctx context.Context) browserdriver.NetworkFirewallStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	methods := make(map[string]int, len(d.firewall.BlockedMethods))
	for k, v := range d.firewall.BlockedMethods {
		methods[k] = v
	}
	return browserdriver.NetworkFirewallStats{
		Enabled:        d.firewall.Enabled,
		BlockedCount:   d.firewall.BlockedCount,
		BlockedMethods: methods,
	}
}

func (d *pageDriver) Close(ctx context.Context) error {
	if d.router != nil {
		_ = d.router.Stop()
	}
	return d.page.Close()
}
