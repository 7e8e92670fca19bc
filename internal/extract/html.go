package extract

import (
	"regexp"
	"strings"

	"truthwatch/internal/model"
	"truthwatch/internal/timeid"
)

// HTMLAdapter is the catch-all for plain HTML pages: <a href> navigation,
// <form action method> network promises, and inline onclick=""
// dead-handler detection, plus fetch()/XMLHttpRequest calls written in the
// file itself (linked script files are not read). It is the last adapter
// consulted in priority order;
// ReactAdapter claims every other .js/.ts file first, so this adapter
// only ever sees markup.
type HTMLAdapter struct{}

func NewHTMLAdapter() *HTMLAdapter { return &HTMLAdapter{} }

func (a *HTMLAdapter) Name() string { return "html" }

func (a *HTMLAdapter) Detects(path string, content []byte) bool {
	return strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".htm")
}

var (
	htmlAnchor      = regexp.MustCompile(`<a\s[^>]*\bhref=(["'])([^"']*)["']`)
	htmlForm        = regexp.MustCompile(`<form\s[^>]*\baction=(["'])([^"']*)["'](?:[^>]*?\bmethod=(["'])(\w+)["'])?`)
	htmlOnclick     = regexp.MustCompile(`\bonclick=(?:"\s*"|'\s*')`)
	htmlFetchPlain  = regexp.MustCompile(`fetch\(\s*['"\x60]([^'"\x60]+)['"\x60](?:\s*,\s*\{[^}]*method:\s*['"](\w+)['"])?`)
	htmlXHROpen     = regexp.MustCompile(`\.open\(\s*['"](\w+)['"]\s*,\s*['"\x60]([^'"\x60]+)['"\x60]`)
)

func (a *HTMLAdapter) Extract(path string, content []byte) ([]model.Expectation, []ParseError) {
	src := string(content)
	var out []model.Expectation

	for _, idx := range htmlAnchor.FindAllStringSubmatchIndex(src, -1) {
		target := src[idx[4]:idx[5]]
		if target == "" || strings.HasPrefix(target, "#") || strings.HasPrefix(target, "javascript:") {
			continue
		}
		line := lineOf(src, idx[0])
		out = append(out, navExpectationFromPattern(path, line, "a[href]", target))
	}

	for _, idx := range htmlForm.FindAllStringSubmatchIndex(src, -1) {
		action := src[idx[4]:idx[5]]
		method := "GET"
		if idx[8] != -1 {
			method = strings.ToUpper(src[idx[8]:idx[9]])
		}
		if action == "" {
			continue
		}
		line := lineOf(src, idx[0])
		s := model.Source{File: path, Line: line, Column: 1, Context: "form"}
		promise := model.Promise{Network: &model.NetworkPromise{Method: method, URLPath: action}}
		id := model.NewExpectationID(model.TypeNetworkAction, s, "", promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeNetworkAction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s,
		})
	}

	for _, idx := range htmlOnclick.FindAllStringIndex(src, -1) {
		line := lineOf(src, idx[0])
		s := model.Source{File: path, Line: line, Column: 1, Context: "onclick"}
		selector := "[onclick]"
		promise := model.Promise{Interaction: &model.InteractionPromise{SelectorHint: selector}}
		id := model.NewExpectationID(model.TypeInteraction, s, selector, promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeInteraction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s, SelectorHint: selector,
		})
	}

	out = append(out, htmlScriptCalls(path, src)...)
	return out, nil
}

func htmlScriptCalls(path, src string) []model.Expectation {
	var out []model.Expectation
	for _, idx := range htmlFetchPlain.FindAllStringSubmatchIndex(src, -1) {
		url := src[idx[2]:idx[3]]
		if strings.Contains(url, "${") {
			continue
		}
		method := "GET"
		if idx[4] != -1 {
			method = strings.ToUpper(src[idx[4]:idx[5]])
		}
		line := lineOf(src, idx[0])
		s := model.Source{File: path, Line: line, Column: 1, Context: "fetch"}
		promise := model.Promise{Network: &model.NetworkPromise{Method: method, URLPath: url}}
		id := model.NewExpectationID(model.TypeNetworkAction, s, "", promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeNetworkAction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s,
		})
	}
	for _, idx := range htmlXHROpen.FindAllStringSubmatchIndex(src, -1) {
		method := strings.ToUpper(src[idx[2]:idx[3]])
		url := src[idx[4]:idx[5]]
		if strings.Contains(url, "${") {
			continue
		}
		line := lineOf(src, idx[0])
		s := model.Source{File: path, Line: line, Column: 1, Context: "XMLHttpRequest"}
		promise := model.Promise{Network: &model.NetworkPromise{Method: method, URLPath: url}}
		id := model.NewExpectationID(model.TypeNetworkAction, s, "", promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeNetworkAction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s,
		})
	}
	return out
}
