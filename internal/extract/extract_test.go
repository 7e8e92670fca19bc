package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"truthwatch/internal/config"
	"truthwatch/internal/model"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRegistryPrefersNextJSOverReact(t *testing.T) {
	reg := NewRegistry()
	content := []byte(`export default function Page() { return <div/> }`)
	a := reg.For("app/blog/page.tsx", content)
	require.NotNil(t, a)
	require.Equal(t, "nextjs", a.Name())
}

func TestRegistryFallsBackToReactForPlainTSX(t *testing.T) {
	reg := NewRegistry()
	content := []byte(`export default function Widget() { return <div/> }`)
	a := reg.For("src/components/Widget.tsx", content)
	require.NotNil(t, a)
	require.Equal(t, "react", a.Name())
}

func TestReactAdapterExtractsFetchWithMethod(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
function save() {
  fetch('/api/items', { method: 'POST' });
}
`)
	exps, perrs := a.Extract("src/save.tsx", content)
	require.Empty(t, perrs)
	require.Len(t, exps, 1)
	require.Equal(t, model.TypeNetworkAction, exps[0].Type)
	require.Equal(t, "POST", exps[0].Promise.Network.Method)
	require.Equal(t, "/api/items", exps[0].Promise.Network.URLPath)
	require.Equal(t, model.ProvenExpectation, exps[0].Proof)
}

func TestReactAdapterResolvesTemplateLiteralFromModuleScope(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
const API_BASE = "/api/v1";
function load() {
  fetch(` + "`${API_BASE}/users`" + `);
}
`)
	exps, _ := a.Extract("src/load.tsx", content)
	require.Len(t, exps, 1)
	require.Equal(t, "/api/v1/users", exps[0].Promise.Network.URLPath)
	require.Equal(t, model.ProvenExpectation, exps[0].Proof)
}

func TestReactAdapterRejectsUnresolvableTemplateForNetwork(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
function load(id) {
  fetch(` + "`/api/users/${id}`" + `);
}
`)
	exps, _ := a.Extract("src/load.tsx", content)
	require.Empty(t, exps)
}

func TestReactAdapterDetectsEmptyOnClickAsInteraction(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
function Button() {
  return <button onClick={() => {}}>Click</button>;
}
`)
	exps, _ := a.Extract("src/Button.tsx", content)
	require.Len(t, exps, 1)
	require.Equal(t, model.TypeInteraction, exps[0].Type)
}

func TestReactAdapterIgnoresNonEmptyOnClick(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
function Button() {
  return <button onClick={() => { doSomething(); }}>Click</button>;
}
`)
	exps, _ := a.Extract("src/Button.tsx", content)
	for _, e := range exps {
		require.NotEqual(t, model.TypeInteraction, e.Type)
	}
}

func TestReactAdapterExtractsLinkNavigation(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
function Nav() {
  return <Link to="/about">About</Link>;
}
`)
	exps, _ := a.Extract("src/Nav.tsx", content)
	require.Len(t, exps, 1)
	require.Equal(t, model.TypeNavigation, exps[0].Type)
	require.Equal(t, "/about", exps[0].Promise.Navigation.TargetPath)
	require.False(t, exps[0].Promise.Navigation.IsDynamic)
}

func TestReactAdapterExtractsRouterPush(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
function save() {
  const router = useRouter();
  router.push('/dashboard');
}
`)
	exps, _ := a.Extract("src/save.tsx", content)
	var sawNav bool
	for _, e := range exps {
		if e.Type == model.TypeNavigation {
			sawNav = true
			require.Equal(t, "/dashboard", e.Promise.Navigation.TargetPath)
		}
	}
	require.True(t, sawNav)
}

func TestReactAdapterIgnoresPlainArrayPush(t *testing.T) {
	a := NewReactAdapter()
	content := []byte(`
function collect(list) {
  list.push("/x");
  errors.push("/not-a-route");
}
`)
	exps, _ := a.Extract("src/collect.tsx", content)
	for _, e := range exps {
		require.NotEqual(t, model.TypeNavigation, e.Type)
	}
}

func TestNextJSAdapterDerivesDynamicRouteFromFilePath(t *testing.T) {
	a := NewNextJSAdapter()
	content := []byte(`export default function Page({ params }) { return <div/>; }`)
	exps, _ := a.Extract("pages/user/[id].tsx", content)
	require.NotEmpty(t, exps)
	found := false
	for _, e := range exps {
		if e.Type == model.TypeNavigation && e.Promise.Navigation.OriginalPattern == "/user/:id" {
			found = true
			require.True(t, e.Promise.Navigation.IsDynamic)
			require.Equal(t, "/user/1", e.Promise.Navigation.TargetPath)
		}
	}
	require.True(t, found)
}

func TestNextJSAdapterSkipsApiRoutes(t *testing.T) {
	_, ok := routeFromPagePath("pages/api/users.ts")
	require.False(t, ok)
}

func TestVueAdapterExtractsRouterLinkAndDispatch(t *testing.T) {
	a := NewVueAdapter()
	content := []byte(`
<template>
  <router-link to="/dashboard">Go</router-link>
</template>
<script>
export default {
  methods: {
    save() {
      this.$store.dispatch('items/save')
    }
  }
}
</script>
`)
	exps, _ := a.Extract("src/Widget.vue", content)
	var sawNav, sawState bool
	for _, e := range exps {
		if e.Type == model.TypeNavigation {
			sawNav = true
			require.Equal(t, "/dashboard", e.Promise.Navigation.TargetPath)
		}
		if e.Type == model.TypeStateAction {
			sawState = true
			require.Equal(t, "items/save", e.Promise.State.Action)
		}
	}
	require.True(t, sawNav)
	require.True(t, sawState)
}

func TestAngularAdapterExtractsRouterLinkAndHttpCall(t *testing.T) {
	a := NewAngularAdapter()
	content := []byte(`
import { Component } from '@angular/core';
@Component({ template: '<a [routerLink]="'/settings'">S</a>' })
export class Foo {
  save() {
    this.http.post('/api/settings', {});
  }
}
`)
	exps, _ := a.Extract("src/foo.component.ts", content)
	var sawNav, sawNetwork bool
	for _, e := range exps {
		if e.Type == model.TypeNavigation {
			sawNav = true
			require.Equal(t, "/settings", e.Promise.Navigation.TargetPath)
		}
		if e.Type == model.TypeNetworkAction {
			sawNetwork = true
			require.Equal(t, "POST", e.Promise.Network.Method)
		}
	}
	require.True(t, sawNav)
	require.True(t, sawNetwork)
}

func TestHTMLAdapterExtractsAnchorAndForm(t *testing.T) {
	a := NewHTMLAdapter()
	content := []byte(`
<html><body>
<a href="/contact">Contact</a>
<form action="/submit" method="POST"></form>
</body></html>
`)
	exps, _ := a.Extract("index.html", content)
	var sawNav, sawNetwork bool
	for _, e := range exps {
		switch e.Type {
		case model.TypeNavigation:
			sawNav = true
		case model.TypeNetworkAction:
			sawNetwork = true
			require.Equal(t, "POST", e.Promise.Network.Method)
		}
	}
	require.True(t, sawNav)
	require.True(t, sawNetwork)
}

func TestHTMLAdapterIgnoresFragmentAndJavascriptAnchors(t *testing.T) {
	a := NewHTMLAdapter()
	content := []byte(`<a href="#top">Top</a><a href="javascript:void(0)">Nope</a>`)
	exps, _ := a.Extract("index.html", content)
	require.Empty(t, exps)
}

func TestRunWalksAndAggregatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "src/Nav.tsx", `function Nav() { return <Link to="/about">About</Link>; }`)
	writeFile(t, dir, "index.html", `<a href="/contact">Contact</a>`)
	writeFile(t, dir, "assets/logo.png", "not-a-real-image-but-binary-enough")

	cfg := config.DefaultScanConfig()
	reg := NewRegistry()

	result, err := Run(context.Background(), dir, cfg, reg)
	require.NoError(t, err)
	require.Len(t, result.Expectations, 2)
	require.True(t, sortedByID(result.Expectations))

	var gapForImage bool
	for _, g := range result.CoverageGaps {
		if g.FromPath == "assets/logo.png" {
			gapForImage = true
			require.Equal(t, model.ReasonUnsupportedFramework, g.Reason)
		}
	}
	require.True(t, gapForImage)
}

func sortedByID(exps []model.Expectation) bool {
	for i := 1; i < len(exps); i++ {
		if exps[i-1].ID > exps[i].ID {
			return false
		}
	}
	return true
}
