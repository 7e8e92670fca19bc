//go:build integration

package browser_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"truthwatch/internal/browser"
	"truthwatch/internal/config"
)

// TestMain verifies no goroutine leaks out of the Manager/Driver's
// firewall router and page-interaction goroutines, the same way the
// browser/honeypot domain's own tests guard against leaks.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestManagerNavigateAndBlocksPost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><body>
			<h1>Hello</h1>
			<form action="/submit" method="POST"><button type="submit">Go</button></form>
		</body></html>`)
	}))
	defer ts.Close()

	cfg := config.DefaultBrowserConfig()
	cfg.Headless = true
	mgr := browser.NewManager(cfg)
	defer mgr.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	d, err := mgr.New(ctx)
	require.NoError(t, err)
	defer d.Close(ctx)

	require.NoError(t, d.Navigate(ctx, ts.URL))

	outcome, err := d.Submit(ctx, "form")
	require.NoError(t, err)
	require.NotEmpty(t, outcome)

	_ = d.Quiesce(ctx)
	stats := d.FirewallStats(ctx)
	require.True(t, stats.Enabled)
	require.GreaterOrEqual(t, stats.BlockedMethods["POST"], 1)
}
