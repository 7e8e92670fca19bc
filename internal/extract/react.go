package extract

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"truthwatch/internal/model"
	"truthwatch/internal/timeid"
)

// ReactAdapter extracts expectations from React (incl. React Router)
// source files. Grounded on internal/world/typescript_parser.go's
// tree-sitter walk, generalized from CodeElement extraction to promise
// extraction: JSX navigation elements, fetch() network calls, dispatch()
// state calls, and bare onClick/onSubmit interaction handlers.
type ReactAdapter struct{}

func NewReactAdapter() *ReactAdapter { return &ReactAdapter{} }

func (a *ReactAdapter) Name() string { return "react" }

func (a *ReactAdapter) Detects(path string, content []byte) bool {
	if !hasJSExtension(path) {
		return false
	}
	return true // fallback adapter for any JS/TS file not claimed by Next.js
}

func (a *ReactAdapter) Extract(path string, content []byte) ([]model.Expectation, []ParseError) {
	return extractJSLike(path, content, "react")
}

func hasJSExtension(path string) bool {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// extractJSLike is shared by the React and Next.js adapters; frameworkHint
// distinguishes e.g. nextJsPageSwap-bearing navigation from plain React
// Router navigation only at the Signals level during OBSERVE, not here.
func extractJSLike(path string, content []byte, frameworkHint string) ([]model.Expectation, []ParseError) {
	tree, release, err := parseJSLike(path, content)
	if err != nil {
		return nil, []ParseError{{File: path, Message: err.Error()}}
	}
	defer release()
	defer tree.Close()

	root := tree.RootNode()
	scope := collectModuleScope(root, content)

	var out []model.Expectation
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "jsx_opening_element", "jsx_self_closing_element":
			out = append(out, extractJSXNavigation(n, path, content, scope)...)
			out = append(out, extractJSXHandlers(n, path, content, scope)...)
		case "call_expression":
			if exp, ok := extractFetchCall(n, path, content, scope); ok {
				out = append(out, exp)
			}
			if exp, ok := extractRouterPushCall(n, path, content, scope); ok {
				out = append(out, exp)
			}
			if exp, ok := extractDispatchCall(n, path, content); ok {
				out = append(out, exp)
			}
		}
		return true
	})
	return out, nil
}

// elementName returns the tag/component name of a jsx opening element.
func elementName(n *sitter.Node, content []byte) string {
	name := n.ChildByFieldName("name")
	return nodeText(name, content)
}

// jsxAttr finds an attribute by name on a jsx opening element, returning
// its value node (or nil if the attribute is a bare boolean flag).
func jsxAttr(n *sitter.Node, attrName string, content []byte) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		attr := n.NamedChild(i)
		if attr.Type() != "jsx_attribute" {
			continue
		}
		nameNode := attr.ChildByFieldName("name")
		if nameNode == nil || nodeText(nameNode, content) != attrName {
			continue
		}
		return attr.ChildByFieldName("value")
	}
	return nil
}

var navTags = map[string]bool{"Link": true, "NavLink": true}

// extractJSXNavigation handles <Link to="...">, <NavLink to="..."> (a
// Link without `to` is read from `href`, as next/link writes it), and
// plain <a href="...">. Dynamic segments in to/href are resolved through
// the truth boundary (resolveTemplate). A target that is a bare
// identifier, member access or call demotes to LIKELY, since the
// element's presence is itself statically proven; a template literal
// with an unresolvable interpolation, or any other value, yields no
// expectation.
func extractJSXNavigation(n *sitter.Node, path string, content []byte, scope moduleScope) []model.Expectation {
	tag := elementName(n, content)
	attrName := ""
	switch {
	case navTags[tag]:
		attrName = "to"
		if jsxAttr(n, "to", content) == nil {
			attrName = "href"
		}
	case tag == "a":
		attrName = "href"
	default:
		return nil
	}

	valNode := jsxAttr(n, attrName, content)
	if valNode == nil {
		return nil
	}
	// jsx_attribute value is usually a string, or a jsx_expression
	// wrapping a template_string / identifier.
	target := valNode
	if valNode.Type() == "jsx_expression" && valNode.NamedChildCount() > 0 {
		target = valNode.NamedChild(0)
	}

	resolved, pattern, ok := resolveTemplate(target, content, scope)
	proof := model.ProvenExpectation
	if !ok {
		if target.Type() == "identifier" || target.Type() == "member_expression" || target.Type() == "call_expression" {
			proof = model.LikelyExpectation
			resolved = ""
			pattern = nodeText(target, content)
		} else {
			return nil
		}
	}

	isDynamic := strings.Contains(pattern, "${") || strings.Contains(pattern, ":")
	examplePath := resolved
	if isDynamic && resolved != "" {
		examplePath = concretizeDynamicPath(resolved)
	}

	line, col := n.StartPoint().Row+1, n.StartPoint().Column+1
	src := model.Source{File: path, Line: int(line), Column: int(col), Context: tag}
	promise := model.Promise{Navigation: &model.NavigationPromise{
		TargetPath:      examplePath,
		IsDynamic:       isDynamic,
		OriginalPattern: pattern,
		ExamplePath:     examplePath,
	}}
	id := model.NewExpectationID(model.TypeNavigation, src, attrName, promise, timeid.StableID)
	return []model.Expectation{{
		ID:           id,
		Type:         model.TypeNavigation,
		Proof:        proof,
		Promise:      promise,
		Source:       src,
		SelectorHint: fmt.Sprintf("%s[%s=%q]", tag, attrName, pattern),
	}}
}

// concretizeDynamicPath turns ":id"/"[slug]"/"${x}" segments into a
// concrete example path ("/user/:id" -> "/user/1"; "[slug]" -> "example").
func concretizeDynamicPath(pathPattern string) string {
	segments := strings.Split(pathPattern, "/")
	for i, seg := range segments {
		switch {
		case strings.HasPrefix(seg, ":"):
			segments[i] = "1"
		case strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]"):
			segments[i] = "example"
		case strings.Contains(seg, "${"):
			segments[i] = "1"
		}
	}
	return strings.Join(segments, "/")
}

// extractFetchCall handles fetch('/api/x', {method: 'POST'}) (E2E
// scenario 1). Only literal/resolvable URL and method arguments qualify
// as PROVEN (truth boundary, ).
func extractFetchCall(n *sitter.Node, path string, content []byte, scope moduleScope) (model.Expectation, bool) {
	callee := callCallee(n, content)
	if callee != "fetch" && callee != "axios" && callee != "axios.post" && callee != "axios.get" {
		return model.Expectation{}, false
	}

	urlArg := firstArg(n)
	if urlArg == nil {
		return model.Expectation{}, false
	}
	urlPath, _, ok := resolveTemplate(urlArg, content, scope)
	if !ok {
		return model.Expectation{}, false
	}

	method := "GET"
	switch callee {
	case "axios.post":
		method = "POST"
	case "axios.get":
		method = "GET"
	default:
		opts := argAt(n, 1)
		if m := objectProperty(opts, "method", content); m != "" {
			method = strings.ToUpper(m)
		}
	}

	line, col := n.StartPoint().Row+1, n.StartPoint().Column+1
	src := model.Source{File: path, Line: int(line), Column: int(col), Context: callee}
	promise := model.Promise{Network: &model.NetworkPromise{Method: method, URLPath: urlPath}}
	id := model.NewExpectationID(model.TypeNetworkAction, src, "", promise, timeid.StableID)
	return model.Expectation{
		ID:      id,
		Type:    model.TypeNetworkAction,
		Proof:   model.ProvenExpectation,
		Promise: promise,
		Source:  src,
	}, true
}

var routerPushCallees = map[string]bool{
	"router.push": true, "router.replace": true,
	"navigate": true, "history.push": true,
	"useRouter().push": true, "this.$router.push": true,
}

// extractRouterPushCall handles router.push(`/user/${userId}`) and
// equivalents. Only the whitelisted callees in routerPushCallees are
// accepted — there is no bare ".push" suffix fallback, since that would
// also match plain array mutations like errors.push("/foo") and
// fabricate a proven Navigation expectation out of them.
func extractRouterPushCall(n *sitter.Node, path string, content []byte, scope moduleScope) (model.Expectation, bool) {
	callee := callCallee(n, content)
	if !routerPushCallees[callee] {
		return model.Expectation{}, false
	}

	arg := firstArg(n)
	if arg == nil {
		return model.Expectation{}, false
	}
	resolved, pattern, ok := resolveTemplate(arg, content, scope)
	proof := model.ProvenExpectation
	if !ok {
		proof = model.LikelyExpectation
	}

	isDynamic := strings.Contains(pattern, "${")
	example := resolved
	if isDynamic {
		if ok {
			example = concretizeDynamicPath(resolved)
		} else {
			example = concretizeDynamicPath(pattern)
		}
	}

	line, col := n.StartPoint().Row+1, n.StartPoint().Column+1
	src := model.Source{File: path, Line: int(line), Column: int(col), Context: callee}
	promise := model.Promise{Navigation: &model.NavigationPromise{
		TargetPath:      example,
		IsDynamic:        isDynamic,
		OriginalPattern:  pattern,
		ExamplePath:      example,
	}}
	id := model.NewExpectationID(model.TypeNavigation, src, callee, promise, timeid.StableID)
	return model.Expectation{
		ID:      id,
		Type:    model.TypeNavigation,
		Proof:   proof,
		Promise: promise,
		Source:  src,
	}, true
}

// extractDispatchCall handles dispatch(someAction()) / store.dispatch(...)
// state-mutation promises.
func extractDispatchCall(n *sitter.Node, path string, content []byte) (model.Expectation, bool) {
	callee := callCallee(n, content)
	if callee != "dispatch" && callee != "store.dispatch" {
		return model.Expectation{}, false
	}
	arg := firstArg(n)
	if arg == nil {
		return model.Expectation{}, false
	}
	action := ""
	if arg.Type() == "call_expression" {
		action = callCallee(arg, content)
	} else if arg.Type() == "object" {
		action = objectProperty(arg, "type", content)
	}
	if action == "" {
		return model.Expectation{}, false
	}

	line, col := n.StartPoint().Row+1, n.StartPoint().Column+1
	src := model.Source{File: path, Line: int(line), Column: int(col), Context: callee}
	promise := model.Promise{State: &model.StatePromise{Store: callee, Action: action}}
	id := model.NewExpectationID(model.TypeStateAction, src, "", promise, timeid.StableID)
	return model.Expectation{
		ID:      id,
		Type:    model.TypeStateAction,
		Proof:   model.ProvenExpectation,
		Promise: promise,
		Source:  src,
	}, true
}

// extractJSXHandlers handles onClick={...}/onSubmit={...} attributes that
// are not otherwise proven by a nested fetch/dispatch/navigation call
// (those are captured independently by the call_expression walk above).
// An onClick with a syntactically empty arrow body is a dead-interaction
// candidate: it is recorded as a bare interaction expectation so OBSERVE
// can attempt it and, absent any signal, emit the silenceDetected marker
// rather than a finding.
func extractJSXHandlers(n *sitter.Node, path string, content []byte, _ moduleScope) []model.Expectation {
	tag := elementName(n, content)
	for _, attrName := range []string{"onClick", "onSubmit"} {
		valNode := jsxAttr(n, attrName, content)
		if valNode == nil {
			continue
		}
		handler := valNode
		if valNode.Type() == "jsx_expression" && valNode.NamedChildCount() > 0 {
			handler = valNode.NamedChild(0)
		}
		if handler.Type() != "arrow_function" && handler.Type() != "function" {
			continue // identifier reference to a handler defined elsewhere: not statically provable here
		}
		if !isEmptyArrowBody(handler) {
			continue // handler does something; its effects are proven by the call_expression walk
		}

		line, col := n.StartPoint().Row+1, n.StartPoint().Column+1
		src := model.Source{File: path, Line: int(line), Column: int(col), Context: tag}
		selector := fmt.Sprintf("%s[%s]", tag, attrName)
		promise := model.Promise{Interaction: &model.InteractionPromise{SelectorHint: selector}}
		id := model.NewExpectationID(model.TypeInteraction, src, selector, promise, timeid.StableID)
		return []model.Expectation{{
			ID:           id,
			Type:         model.TypeInteraction,
			Proof:        model.ProvenExpectation,
			Promise:      promise,
			Source:       src,
			SelectorHint: selector,
		}}
	}
	return nil
}
