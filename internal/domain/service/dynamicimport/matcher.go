package dynamicimport

import (
	"nextdynamic/internal/domain/valueobject"
)

// SkipReason explains why a matched call site was left untouched.
type SkipReason string

// Skip reasons reported per call site.
const (
	SkipNone                SkipReason = ""
	SkipMalformedLoader     SkipReason = "malformed-loader"
	SkipNonLiteralSpecifier SkipReason = "non-literal-specifier"
	SkipUnsupportedOptions  SkipReason = "unsupported-options"
	SkipOverlappingEdit     SkipReason = "overlapping-edit"
)

// dynamicImport is an import(...) expression found in a loader.
type dynamicImport struct {
	call      *valueobject.ParseNode
	specifier string
	wrapped   bool
}

// callSite is a call to the helper.
type callSite struct {
	call      *valueobject.ParseNode
	args      *valueobject.ParseNode
	loader    *valueobject.ParseNode
	options   *valueobject.ParseNode
	statement *valueobject.ParseNode
	imports   []dynamicImport
}

// specifiers returns the distinct specifiers of the call in loader order.
func (c *callSite) specifiers() []string {
	seen := make(map[string]bool, len(c.imports))
	var out []string
	for _, imp := range c.imports {
		if !seen[imp.specifier] {
			seen[imp.specifier] = true
			out = append(out, imp.specifier)
		}
	}
	return out
}

// matchCalls returns the calls to a helper binding in source order, outer
// calls before the calls nested in them.
func matchCalls(source []byte, program *valueobject.ParseNode, bindings helperBindings) []*valueobject.ParseNode {
	if len(bindings) == 0 {
		return nil
	}
	var calls []*valueobject.ParseNode
	program.Walk(func(n *valueobject.ParseNode) bool {
		if n.Type != nodeCallExpression || len(n.Children) == 0 {
			return true
		}
		callee := n.Children[0]
		if callee.Type != nodeIdentifier {
			return true
		}
		name := text(source, callee)
		if bindings[name] && !isShadowed(source, n, name) {
			calls = append(calls, n)
		}
		return true
	})
	return calls
}

// analyzeCall resolves the loader of a matched call.
func analyzeCall(source []byte, call *valueobject.ParseNode) (*callSite, SkipReason) {
	args, argList := callArguments(call)
	if args == nil || len(argList) == 0 {
		return nil, SkipMalformedLoader
	}
	site := &callSite{
		call:      call,
		args:      args,
		loader:    argList[0],
		statement: topLevelStatement(call),
	}
	if len(argList) > 1 {
		site.options = argList[1]
	}
	if site.statement == nil {
		return nil, SkipMalformedLoader
	}

	imports, reason := loaderImports(source, site.loader)
	if reason != SkipNone {
		return nil, reason
	}
	site.imports = imports
	return site, SkipNone
}

// loaderImports resolves the import() expressions a loader returns.
func loaderImports(source []byte, loader *valueobject.ParseNode) ([]dynamicImport, SkipReason) {
	result := loaderResult(unwrapParens(loader))
	if result == nil {
		return nil, SkipMalformedLoader
	}

	if root := promiseChainRoot(result); root != nil {
		return literalImports(source, []*valueobject.ParseNode{root}, false)
	}
	if result.Type != nodeCallExpression {
		return nil, SkipMalformedLoader
	}

	_, args := callArguments(result)
	var wrapped []*valueobject.ParseNode
	for _, arg := range args {
		if arg = unwrapExpression(arg); isDynamicImport(arg) {
			wrapped = append(wrapped, arg)
		}
	}
	if len(wrapped) == 0 {
		return nil, SkipMalformedLoader
	}
	return literalImports(source, wrapped, true)
}

// loaderResult returns the expression a loader function evaluates to.
func loaderResult(fn *valueobject.ParseNode) *valueobject.ParseNode {
	if fn == nil || !loaderFunctionTypes[fn.Type] {
		return nil
	}

	var body *valueobject.ParseNode
	if fn.Type == nodeArrowFunction {
		arrow := false
		for _, child := range fn.Children {
			if !child.Named && child.Type == "=>" {
				arrow = true
				continue
			}
			if arrow && child.Named && !child.IsComment() {
				body = child
				break
			}
		}
	} else {
		body = fn.ChildOfType(nodeStatementBlock)
	}
	if body == nil {
		return nil
	}

	if body.Type == nodeStatementBlock {
		ret := soleReturn(body)
		if ret == nil {
			return nil
		}
		body = ret.FirstNamedChild()
	}
	return unwrapExpression(body)
}

// soleReturn returns the return statement of a block body when it is the only
// one outside nested functions and sits directly in the block.
func soleReturn(block *valueobject.ParseNode) *valueobject.ParseNode {
	var returns []*valueobject.ParseNode
	block.Walk(func(n *valueobject.ParseNode) bool {
		if n != block && isFunction(n) {
			return false
		}
		if n.Type == nodeReturnStatement {
			returns = append(returns, n)
		}
		return true
	})
	if len(returns) != 1 || returns[0].Parent != block {
		return nil
	}
	return returns[0]
}

// promiseChainRoot returns the import() at the receiver end of
// `import("x").then(...).catch(...)`, or the import itself.
func promiseChainRoot(expr *valueobject.ParseNode) *valueobject.ParseNode {
	for {
		expr = unwrapParens(expr)
		if isDynamicImport(expr) {
			return expr
		}
		if expr == nil || expr.Type != nodeCallExpression || len(expr.Children) == 0 {
			return nil
		}
		callee := unwrapParens(expr.Children[0])
		if callee == nil || callee.Type != nodeMemberExpression {
			return nil
		}
		expr = callee.FirstNamedChild()
	}
}

func literalImports(source []byte, calls []*valueobject.ParseNode, wrapped bool) ([]dynamicImport, SkipReason) {
	out := make([]dynamicImport, 0, len(calls))
	for _, call := range calls {
		specifier, ok := importSpecifier(source, call)
		if !ok {
			return nil, SkipNonLiteralSpecifier
		}
		out = append(out, dynamicImport{call: call, specifier: specifier, wrapped: wrapped})
	}
	return out, SkipNone
}

// importSpecifier returns the literal first argument of an import() call.
func importSpecifier(source []byte, call *valueobject.ParseNode) (string, bool) {
	_, args := callArguments(call)
	if len(args) == 0 {
		return "", false
	}
	specifier, ok := stringValue(source, args[0])
	if !ok || specifier == "" {
		return "", false
	}
	return specifier, true
}
