package extract

import (
	"path/filepath"
	"strings"

	"truthwatch/internal/model"
	"truthwatch/internal/timeid"
)

// NextJSAdapter extends the React walk with file-based routing: a page
// file also yields a navigation expectation for its own route, and file
// path segments like "[slug]"/"[...slug]" concretize per
// concretizeDynamicPath. next/link <Link href> and router.push targets
// are taken from the shared React walk as written; they are not checked
// against the page tree. Detects
// claims any file under a pages/ or app/ directory, or importing "next/".
type NextJSAdapter struct{}

func NewNextJSAdapter() *NextJSAdapter { return &NextJSAdapter{} }

func (a *NextJSAdapter) Name() string { return "nextjs" }

func (a *NextJSAdapter) Detects(path string, content []byte) bool {
	if !hasJSExtension(path) {
		return false
	}
	slashed := filepath.ToSlash(path)
	if strings.Contains(slashed, "/pages/") || strings.Contains(slashed, "/app/") ||
		strings.HasPrefix(slashed, "pages/") || strings.HasPrefix(slashed, "app/") {
		return true
	}
	return strings.Contains(string(content), `from "next/`) || strings.Contains(string(content), `from 'next/`)
}

func (a *NextJSAdapter) Extract(path string, content []byte) ([]model.Expectation, []ParseError) {
	exps, perr := extractJSLike(path, content, "nextjs")
	if route, ok := routeFromPagePath(path); ok {
		exps = append(exps, routeOwnExpectation(path, route))
	}
	return exps, perr
}

// routeFromPagePath derives a Next.js route from a pages/ or app/ file
// path, e.g. "pages/user/[id].tsx" -> "/user/:id", "app/blog/page.tsx" ->
// "/blog". Returns ok=false for files outside a recognized routing root
// or for non-page files (layouts, api routes are skipped: Non-goal,
// navigation promises only describe page routes).
func routeFromPagePath(path string) (string, bool) {
	slashed := filepath.ToSlash(path)
	var root, rest string
	switch {
	case strings.Contains(slashed, "/pages/"):
		parts := strings.SplitN(slashed, "/pages/", 2)
		root, rest = "pages", parts[1]
	case strings.HasPrefix(slashed, "pages/"):
		root, rest = "pages", strings.TrimPrefix(slashed, "pages/")
	case strings.Contains(slashed, "/app/"):
		parts := strings.SplitN(slashed, "/app/", 2)
		root, rest = "app", parts[1]
	case strings.HasPrefix(slashed, "app/"):
		root, rest = "app", strings.TrimPrefix(slashed, "app/")
	default:
		return "", false
	}

	base := filepath.Base(rest)
	dir := filepath.Dir(rest)
	if dir == "." {
		dir = ""
	}

	if root == "app" {
		if base != "page.tsx" && base != "page.jsx" && base != "page.js" && base != "page.ts" {
			return "", false
		}
	} else {
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if name == "_app" || name == "_document" || strings.HasPrefix(dir, "api") || strings.HasPrefix(rest, "api/") {
			return "", false
		}
		if name != "index" {
			dir = filepath.Join(dir, name)
		}
	}

	segments := strings.Split(filepath.ToSlash(dir), "/")
	var out []string
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		switch {
		case strings.HasPrefix(seg, "[...") && strings.HasSuffix(seg, "]"):
			out = append(out, ":"+strings.TrimSuffix(strings.TrimPrefix(seg, "[..."), "]"))
		case strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]"):
			out = append(out, ":"+strings.TrimSuffix(strings.TrimPrefix(seg, "["), "]"))
		case strings.HasPrefix(seg, "(") && strings.HasSuffix(seg, ")"):
			// route group: does not appear in the URL
		default:
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "/", true
	}
	return "/" + strings.Join(out, "/"), true
}

// routeOwnExpectation records the page file itself as a navigation target
// reachable by its file-based route, with any dynamic segment
// concretized to an example value.
func routeOwnExpectation(path, route string) model.Expectation {
	isDynamic := strings.Contains(route, ":")
	example := route
	if isDynamic {
		example = concretizeDynamicPath(route)
	}
	src := model.Source{File: path, Line: 1, Column: 1, Context: "file-route"}
	promise := model.Promise{Navigation: &model.NavigationPromise{
		TargetPath:      example,
		IsDynamic:       isDynamic,
		OriginalPattern: route,
		ExamplePath:     example,
	}}
	id := model.NewExpectationID(model.TypeNavigation, src, "file-route", promise, timeid.StableID)
	return model.Expectation{
		ID:      id,
		Type:    model.TypeNavigation,
		Proof:   model.ProvenExpectation,
		Promise: promise,
		Source:  src,
	}
}
