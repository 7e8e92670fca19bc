package extract

import (
	"context"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// tsxPool, tsPool and jsxPool lend tree-sitter parser instances so
// adapters never mutate shared visitor state across calls, matching the
// project's sync.Pool-of-parsers idiom in internal/world/fs.go.
var tsxPool = sync.Pool{New: func() interface{} {
	p := sitter.NewParser()
	p.SetLanguage(tsx.GetLanguage())
	return p
}}

var tsPool = sync.Pool{New: func() interface{} {
	p := sitter.NewParser()
	p.SetLanguage(typescript.GetLanguage())
	return p
}}

var jsxPool = sync.Pool{New: func() interface{} {
	p := sitter.NewParser()
	p.SetLanguage(javascript.GetLanguage())
	return p
}}

// parseJSLike parses TS/TSX/JS/JSX source, choosing the grammar by
// extension, mirroring internal/world/typescript_parser.go's dispatch.
func parseJSLike(path string, content []byte) (*sitter.Tree, func(), error) {
	var pool *sync.Pool
	switch {
	case strings.HasSuffix(path, ".tsx"):
		pool = &tsxPool
	case strings.HasSuffix(path, ".ts"):
		pool = &tsPool
	default:
		pool = &jsxPool
	}
	parser := pool.Get().(*sitter.Parser)
	release := func() { pool.Put(parser) }

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		release()
		return nil, nil, err
	}
	return tree, release, nil
}

// nodeText returns the source slice for a node.
func nodeText(n *sitter.Node, content []byte) string {
	if n == nil {
		return ""
	}
	return string(content[n.StartByte():n.EndByte()])
}

// walk visits every node in the tree depth-first, invoking visit for each.
// Returning false from visit skips that node's children.
func walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), visit)
	}
}

// moduleScope is a best-effort map of top-level `const NAME = "literal"`
// bindings in a file, used to resolve template-literal interpolations
// under the truth boundary rule: "every interpolated
// identifier resolves to a literal within the same module scope."
type moduleScope map[string]string

// collectModuleScope scans direct children of root for lexical
// declarations binding an identifier to a string literal.
func collectModuleScope(root *sitter.Node, content []byte) moduleScope {
	scope := moduleScope{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		decl := child
		if decl.Type() == "export_statement" && decl.NamedChildCount() > 0 {
			decl = decl.NamedChild(0)
		}
		if decl.Type() != "lexical_declaration" {
			continue
		}
		for j := 0; j < int(decl.NamedChildCount()); j++ {
			declarator := decl.NamedChild(j)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			name := declarator.ChildByFieldName("name")
			value := declarator.ChildByFieldName("value")
			if name == nil || value == nil {
				continue
			}
			if lit, ok := stringLiteralValue(value, content); ok {
				scope[nodeText(name, content)] = lit
			}
		}
	}
	return scope
}

// stringLiteralValue extracts the literal value of a string/template node
// with no interpolation, or "" (false) otherwise.
func stringLiteralValue(n *sitter.Node, content []byte) (string, bool) {
	switch n.Type() {
	case "string":
		raw := nodeText(n, content)
		return trimQuotes(raw), true
	case "template_string":
		if n.NamedChildCount() == 0 {
			raw := nodeText(n, content)
			return trimTemplateQuotes(raw), true
		}
	}
	return "", false
}

// resolveTemplate attempts to resolve a template_string node to a
// concrete literal string, substituting any interpolated identifiers
// found in scope. ok is false if any interpolation is not a bare
// identifier resolvable in scope (truth boundary: demotes to LIKELY).
func resolveTemplate(n *sitter.Node, content []byte, scope moduleScope) (resolved string, pattern string, ok bool) {
	if n.Type() != "template_string" {
		if lit, isLit := stringLiteralValue(n, content); isLit {
			return lit, lit, true
		}
		return "", "", false
	}

	var resolvedBuf, patternBuf strings.Builder
	ok = true
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "string_fragment":
			text := nodeText(child, content)
			resolvedBuf.WriteString(text)
			patternBuf.WriteString(text)
		case "template_substitution":
			expr := child.NamedChild(0)
			if expr == nil || expr.Type() != "identifier" {
				ok = false
				continue
			}
			name := nodeText(expr, content)
			if val, found := scope[name]; found {
				resolvedBuf.WriteString(val)
			} else {
				ok = false
			}
			patternBuf.WriteString("${" + name + "}")
		case "`":
			// delimiter, ignore
		}
	}
	return resolvedBuf.String(), patternBuf.String(), ok
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func trimTemplateQuotes(s string) string {
	if len(s) >= 2 && s[0] == '`' {
		return s[1 : len(s)-1]
	}
	return s
}

// callCallee returns the dotted callee text of a call_expression, e.g.
// "router.push" or "fetch" or "useRouter().push".
func callCallee(call *sitter.Node, content []byte) string {
	fn := call.ChildByFieldName("function")
	return nodeText(fn, content)
}

// firstArg returns the first argument node of a call_expression's
// arguments list, or nil.
func firstArg(call *sitter.Node) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return nil
	}
	return args.NamedChild(0)
}

// argAt returns the nth named argument of a call_expression, or nil.
func argAt(call *sitter.Node, idx int) *sitter.Node {
	args := call.ChildByFieldName("arguments")
	if args == nil || int(args.NamedChildCount()) <= idx {
		return nil
	}
	return args.NamedChild(idx)
}

// objectProperty looks up a string-literal-valued property in an
// object node (e.g. { method: 'POST' }), returning "" if absent or
// non-literal.
func objectProperty(obj *sitter.Node, key string, content []byte) string {
	if obj == nil || obj.Type() != "object" {
		return ""
	}
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		pair := obj.NamedChild(i)
		if pair.Type() != "pair" {
			continue
		}
		k := pair.ChildByFieldName("key")
		v := pair.ChildByFieldName("value")
		if k == nil || v == nil {
			continue
		}
		kn := strings.Trim(nodeText(k, content), `"'`)
		if kn != key {
			continue
		}
		if lit, ok := stringLiteralValue(v, content); ok {
			return lit
		}
	}
	return ""
}

// isEmptyArrowBody reports whether a function/arrow node's body has no
// statements.
func isEmptyArrowBody(fn *sitter.Node) bool {
	if fn == nil {
		return true
	}
	body := fn.ChildByFieldName("body")
	if body == nil {
		return false
	}
	if body.Type() != "statement_block" {
		return false // expression-bodied arrow always does *something*
	}
	return body.NamedChildCount() == 0
}
