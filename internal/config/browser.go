package config

import "time"

// BrowserConfig configures the go-rod driven browser.
// Adapted from the project's browser.Config (internal/browser/session_manager.go).
type BrowserConfig struct {
	DebuggerURL         string   `yaml:"debugger_url"`
	Launch              []string `yaml:"launch"`
	Headless            bool     `yaml:"headless"`
	ViewportWidth       int      `yaml:"viewport_width"`
	ViewportHeight      int      `yaml:"viewport_height"`
	NavigationTimeoutMs int      `yaml:"navigation_timeout_ms"`
	AttemptTimeoutMs    int      `yaml:"attempt_timeout_ms"`
}

// DefaultBrowserConfig returns sensible defaults for headless observation.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Headless:            true,
		ViewportWidth:       1280,
		ViewportHeight:      800,
		NavigationTimeoutMs: 30000,
		AttemptTimeoutMs:    8000,
	}
}

// NavigationTimeout returns the navigation timeout as a Duration.
func (c BrowserConfig) NavigationTimeout() time.Duration {
	if c.NavigationTimeoutMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.NavigationTimeoutMs) * time.Millisecond
}

// AttemptTimeout returns the per-attempt quiescence timeout.
func (c BrowserConfig) AttemptTimeout() time.Duration {
	if c.AttemptTimeoutMs <= 0 {
		return 8 * time.Second
	}
	return time.Duration(c.AttemptTimeoutMs) * time.Millisecond
}
