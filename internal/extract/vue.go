package extract

import (
	"fmt"
	"regexp"
	"strings"

	"truthwatch/internal/model"
	"truthwatch/internal/timeid"
)

// VueAdapter extracts expectations from .vue single-file components.
// Per ("Vue/Angular: regex/template scanning, documented scope
// limit"), the <template> block is scanned with regexes rather than a
// full Vue template AST — go-tree-sitter carries no Vue grammar in this
// corpus, so template expressions are matched textually and only
// literal/fully-static attribute values are PROVEN.
type VueAdapter struct{}

func NewVueAdapter() *VueAdapter { return &VueAdapter{} }

func (a *VueAdapter) Name() string { return "vue" }

func (a *VueAdapter) Detects(path string, content []byte) bool {
	return strings.HasSuffix(path, ".vue")
}

var (
	vueTemplateBlock = regexp.MustCompile(`(?s)<template[^>]*>(.*?)</template>`)
	vueScriptBlock   = regexp.MustCompile(`(?s)<script[^>]*>(.*?)</script>`)
	vueRouterLink    = regexp.MustCompile(`<router-link[^>]*\sto=(["'])([^"']*)["']`)
	vueRouterPush    = regexp.MustCompile(`\$router\.(push|replace)\(\s*(["'\x60])([^"'\x60]*)["'\x60]`)
	vueDispatch      = regexp.MustCompile(`\b(?:store\.)?dispatch\(\s*["'\x60]([\w/.:-]+)["'\x60]`)
	vueClickEmpty    = regexp.MustCompile(`@click(?:\.\w+)*="\s*(?:\(\)\s*=>\s*\{\s*\}|\(\)\s*=>\s*\(\s*\))\s*"`)
	vueFetch         = regexp.MustCompile(`fetch\(\s*["'\x60](.*?)["'\x60](?:\s*,\s*\{[^}]*method:\s*["'](\w+)["'])?`)
)

func (a *VueAdapter) Extract(path string, content []byte) ([]model.Expectation, []ParseError) {
	src := string(content)
	var out []model.Expectation

	if m := vueTemplateBlock.FindStringSubmatch(src); m != nil {
		tmpl := m[1]
		lineOffset := lineOf(src, strings.Index(src, m[1]))
		out = append(out, vueTemplateNavigation(path, tmpl, lineOffset)...)
		out = append(out, vueTemplateHandlers(path, tmpl, lineOffset)...)
	}
	if m := vueScriptBlock.FindStringSubmatch(src); m != nil {
		script := m[1]
		lineOffset := lineOf(src, strings.Index(src, m[1]))
		out = append(out, vueScriptCalls(path, script, lineOffset)...)
	}
	return out, nil
}

func lineOf(src string, byteOffset int) int {
	if byteOffset < 0 {
		return 1
	}
	return strings.Count(src[:byteOffset], "\n") + 1
}

func vueTemplateNavigation(path, tmpl string, lineOffset int) []model.Expectation {
	var out []model.Expectation
	for _, m := range vueRouterLink.FindAllStringSubmatchIndex(tmpl, -1) {
		target := tmpl[m[4]:m[5]]
		line := lineOffset + lineOf(tmpl, m[0]) - 1
		out = append(out, navExpectationFromPattern(path, line, "router-link[to]", target))
	}
	return out
}

func vueTemplateHandlers(path, tmpl string, lineOffset int) []model.Expectation {
	var out []model.Expectation
	for _, m := range vueClickEmpty.FindAllStringIndex(tmpl, -1) {
		line := lineOffset + lineOf(tmpl, m[0]) - 1
		src := model.Source{File: path, Line: line, Column: 1, Context: "@click"}
		selector := "[@click]"
		promise := model.Promise{Interaction: &model.InteractionPromise{SelectorHint: selector}}
		id := model.NewExpectationID(model.TypeInteraction, src, selector, promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeInteraction, Proof: model.ProvenExpectation,
			Promise: promise, Source: src, SelectorHint: selector,
		})
	}
	return out
}

func vueScriptCalls(path, script string, lineOffset int) []model.Expectation {
	var out []model.Expectation
	for _, m := range vueRouterPush.FindAllStringSubmatchIndex(script, -1) {
		target := script[m[6]:m[7]]
		line := lineOffset + lineOf(script, m[0]) - 1
		out = append(out, navExpectationFromPattern(path, line, "$router."+script[m[2]:m[3]], target))
	}
	for _, idx := range vueDispatch.FindAllStringSubmatchIndex(script, -1) {
		action := script[idx[2]:idx[3]]
		line := lineOffset + lineOf(script, idx[0]) - 1
		s := model.Source{File: path, Line: line, Column: 1, Context: "dispatch"}
		promise := model.Promise{State: &model.StatePromise{Store: "store", Action: action}}
		id := model.NewExpectationID(model.TypeStateAction, s, "", promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeStateAction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s,
		})
	}
	for _, idx := range vueFetch.FindAllStringSubmatchIndex(script, -1) {
		url := script[idx[2]:idx[3]]
		method := "GET"
		if idx[4] != -1 {
			method = strings.ToUpper(script[idx[4]:idx[5]])
		}
		if strings.Contains(url, "${") {
			continue // dynamic segment unresolved at regex layer: not PROVEN
		}
		line := lineOffset + lineOf(script, idx[0]) - 1
		s := model.Source{File: path, Line: line, Column: 1, Context: "fetch"}
		promise := model.Promise{Network: &model.NetworkPromise{Method: method, URLPath: url}}
		id := model.NewExpectationID(model.TypeNetworkAction, s, "", promise, timeid.StableID)
		out = append(out, model.Expectation{
			ID: id, Type: model.TypeNetworkAction, Proof: model.ProvenExpectation,
			Promise: promise, Source: s,
		})
	}
	return out
}

// navExpectationFromPattern builds a navigation expectation from a
// route-like pattern string that may contain a Vue/route-param dynamic
// segment (":id") or an interpolation ("${...}"). Regex scanning cannot
// resolve interpolated identifiers, so a pattern containing "${" is
// recorded as LIKELY rather than PROVEN.
func navExpectationFromPattern(path string, line int, context, pattern string) model.Expectation {
	isDynamic := strings.Contains(pattern, ":") || strings.Contains(pattern, "${")
	example := pattern
	if isDynamic {
		example = concretizeDynamicPath(pattern)
	}
	proof := model.ProvenExpectation
	if strings.Contains(pattern, "${") {
		proof = model.LikelyExpectation
	}
	src := model.Source{File: path, Line: line, Column: 1, Context: context}
	promise := model.Promise{Navigation: &model.NavigationPromise{
		TargetPath:      example,
		IsDynamic:       isDynamic,
		OriginalPattern: pattern,
		ExamplePath:     example,
	}}
	id := model.NewExpectationID(model.TypeNavigation, src, context, promise, timeid.StableID)
	return model.Expectation{
		ID: id, Type: model.TypeNavigation, Proof: proof,
		Promise: promise, Source: src, SelectorHint: fmt.Sprintf("%s=%q", context, pattern),
	}
}
