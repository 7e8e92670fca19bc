package extract

import (
	"regexp"
	"strings"

	"truthwatch/internal/model"
	"truthwatch/internal/timeid"
)

// AngularAdapter extracts expectations from Angular components and route
// modules, by regex/template scanning (documented scope limit,
// same rationale as VueAdapter). Detects claims ".component.ts",
// ".component.html", and files containing RouterModule/Router imports.
type AngularAdapter struct{}

func NewAngularAdapter() *AngularAdapter { return &AngularAdapter{} }

func (a *AngularAdapter) Name() string { return "angular" }

func (a *AngularAdapter) Detects(path string, content []byte) bool {
	if strings.HasSuffix(path, ".component.ts") || strings.HasSuffix(path, ".component.html") {
		return true
	}
	src := string(content)
	return strings.Contains(src, "@angular/router") || strings.Contains(src, "RouterModule")
}

var (
	ngRouterLink  = regexp.MustCompile(`\[?routerLink\]?="?\[?'([^'"\]]+)'?\]?"?`)
	ngRouteConfig = regexp.MustCompile(`\{\s*path:\s*['"]([^'"]*)['"]`)
	ngRouterNav   = regexp.MustCompile(`\brouter\.navigate(?:ByUrl)?\(\s*\[?['"\x60]([^'"\]\x60]+)['"\x60]`)
	ngHttpCall    = regexp.MustCompile(`\bhttp\.(get|post|put|patch|delete)(?:<[^>]*>)?\(\s*['"\x60]([^'"\x60]+)['"\x60]`)
	ngClickEmpty  = regexp.MustCompile(`\(click\)="\s*(?:\w+\(\)\s*\{\s*\})?\s*"`)
)

func (a *AngularAdapter) Extract(path string, content []byte) ([]model.Expectation, []ParseError) {
	src := string(content)
	var out []model.Expectation

	for _, idx := range ngRouterLink.FindAllStringSubmatchIndex(src, -1) {
		target := src[idx[2]:idx[3]]
		line := lineOf(src, idx[0])
		out = append(out, navExpectationFromPattern(path, line, "routerLink", target))
	}
	for _, idx := range ngRouteConfig.FindAllStringSubmatchIndex(src, -1) {
		target := "/" + strings.TrimPrefix(src[idx[2]:idx[3]], "/")
		line := lineOf(src, idx[0])
		out = append(out, navExpectationFromPattern(path, line, "Routes[path]", target))
	}
	for _, idx := range ngRouterNav.FindAllStringSubmatchIndex(src, -1) {
		target := src[idx[2]:idx[3]]
		line := lineOf(src, idx[0])
		out = append(out, navExpectationFromPattern(path, line, "router.navigate", target))
	}
	for _, idx := range ngHttpCall.FindAllStringSubmatchIndex(src, -1) {
		method := strings.ToUpper(src[idx[2]:idx[3]])
		url := src[idx[4]:idx[5]]
		if strings.Contains(url, "${") {
			continue
		}
		line := lineOf(src, idx[0])
		s := model.Source{File: path, Line: line, Column: 1, Context: "http." + method}
		promise := model.Promise{Network: &model.NetworkPromise{Method: method, URLPath: url}}
		id := model.NewExpectationID(model.TypeNetworkAction, s, "", promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeNetworkAction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s,
		})
	}
	for _, idx := range ngClickEmpty.FindAllStringIndex(src, -1) {
		line := lineOf(src, idx[0])
		s := model.Source{File: path, Line: line, Column: 1, Context: "(click)"}
		selector := "[(click)]"
		promise := model.Promise{Interaction: &model.InteractionPromise{SelectorHint: selector}}
		id := model.NewExpectationID(model.TypeInteraction, s, selector, promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeInteraction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s, SelectorHint: selector,
		})
	}
	return out, nil
}
