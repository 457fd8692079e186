package dynamicimport

import (
	"nextdynamic/internal/domain/valueobject"
)

// helperBindings maps local names bound to the helper by a top-level import.
type helperBindings map[string]bool

// collectHelperBindings scans the top-level import declarations for the
// configured helper modules.
func collectHelperBindings(source []byte, program *valueobject.ParseNode, opts Options) helperBindings {
	bindings := make(helperBindings)
	for _, stmt := range program.NamedChildren() {
		if stmt.Type != nodeImportStatement || stmt.HasToken("type") {
			continue
		}
		specifier, ok := stringValue(source, stmt.ChildOfType(nodeString))
		if !ok || !opts.isHelperModule(specifier) {
			continue
		}
		clause := stmt.ChildOfType(nodeImportClause)
		if clause == nil {
			continue
		}
		for _, part := range clause.NamedChildren() {
			switch part.Type {
			case nodeIdentifier:
				if opts.HelperExport == DefaultHelperExport {
					bindings[text(source, part)] = true
				}
			case nodeNamedImports:
				for _, spec := range part.ChildrenOfType(nodeImportSpecifier) {
					imported, local, ok := importSpecifierNames(source, spec)
					if ok && imported == opts.HelperExport {
						bindings[local] = true
					}
				}
			}
		}
	}
	return bindings
}

// importSpecifierNames returns the imported and local names of
// `name`, `name as local`, `default as local` or `"name" as local`.
func importSpecifierNames(source []byte, spec *valueobject.ParseNode) (string, string, bool) {
	if spec.HasToken("type") {
		return "", "", false
	}
	var parts []*valueobject.ParseNode
	for _, child := range spec.Children {
		if child.IsComment() || child.Type == "as" {
			continue
		}
		parts = append(parts, child)
	}
	if len(parts) == 0 {
		return "", "", false
	}

	imported := text(source, parts[0])
	if parts[0].Type == nodeString {
		value, ok := stringValue(source, parts[0])
		if !ok {
			return "", "", false
		}
		imported = value
	}

	local := imported
	if len(parts) > 1 {
		local = text(source, parts[len(parts)-1])
	} else if parts[0].Type == nodeString || imported == "default" {
		return "", "", false
	}
	return imported, local, true
}

// isShadowed reports whether name is redeclared by any scope between ref and
// the module scope.
func isShadowed(source []byte, ref *valueobject.ParseNode, name string) bool {
	for scope := ref.Parent; scope != nil && scope.Type != nodeProgram; scope = scope.Parent {
		if scopeDeclares(source, scope, name) {
			return true
		}
	}
	return false
}

func scopeDeclares(source []byte, scope *valueobject.ParseNode, name string) bool {
	switch {
	case isFunction(scope):
		return functionDeclares(source, scope, name)
	case scope.Type == nodeStatementBlock || scope.Type == "switch_body" || scope.Type == "class_static_block":
		return blockDeclares(source, scope, name)
	case scope.Type == "for_statement":
		for _, child := range scope.NamedChildren() {
			if child.Type == nodeLexicalDeclaration || child.Type == nodeVariableDeclaration {
				if contains(declarationNames(source, child), name) {
					return true
				}
			}
		}
	case scope.Type == "for_in_statement":
		if scope.HasToken("let") || scope.HasToken("const") || scope.HasToken("var") {
			return contains(patternNames(source, forInBinding(scope)), name)
		}
	case scope.Type == "catch_clause":
		for _, child := range scope.NamedChildren() {
			if child.Type == nodeStatementBlock {
				break
			}
			if contains(patternNames(source, child), name) {
				return true
			}
		}
	case scope.Type == "class":
		if id := scope.ChildOfType(nodeIdentifier); id != nil && text(source, id) == name {
			return true
		}
	}
	return false
}

// functionDeclares checks parameters, the name of a function expression and
// var declarations hoisted to the function.
func functionDeclares(source []byte, fn *valueobject.ParseNode, name string) bool {
	if fn.Type != "function_declaration" && fn.Type != "generator_function_declaration" && fn.Type != "method_definition" {
		if id := fn.ChildOfType(nodeIdentifier); id != nil && fn.Type != nodeArrowFunction && text(source, id) == name {
			return true
		}
	}

	if fn.Type == nodeArrowFunction {
		if param := fn.ChildOfType(nodeIdentifier); param != nil && text(source, param) == name {
			return true
		}
	}
	if params := fn.ChildOfType(nodeFormalParameters); params != nil {
		for _, param := range params.NamedChildren() {
			if contains(patternNames(source, param), name) {
				return true
			}
		}
	}

	body := fn.ChildOfType(nodeStatementBlock)
	if body == nil {
		return false
	}
	found := false
	body.Walk(func(n *valueobject.ParseNode) bool {
		if found || (n != body && isFunction(n)) || n.Type == "class" || n.Type == "class_declaration" {
			return false
		}
		switch n.Type {
		case nodeVariableDeclaration:
			found = contains(declarationNames(source, n), name)
		case "for_in_statement":
			if n.HasToken("var") && contains(patternNames(source, forInBinding(n)), name) {
				found = true
			}
		}
		return !found
	})
	return found
}

// blockDeclares checks the block-scoped declarations directly inside a block.
func blockDeclares(source []byte, block *valueobject.ParseNode, name string) bool {
	for _, stmt := range block.NamedChildren() {
		if stmt.Type == "switch_case" || stmt.Type == "switch_default" {
			if blockDeclares(source, stmt, name) {
				return true
			}
			continue
		}
		switch stmt.Type {
		case nodeLexicalDeclaration:
			if contains(declarationNames(source, stmt), name) {
				return true
			}
		case "class_declaration", "function_declaration", "generator_function_declaration":
			if id := stmt.ChildOfType(nodeIdentifier); id != nil && text(source, id) == name {
				return true
			}
			if id := stmt.ChildOfType("type_identifier"); id != nil && text(source, id) == name {
				return true
			}
		}
	}
	return false
}

// declarationNames returns the names bound by a var/let/const declaration.
func declarationNames(source []byte, decl *valueobject.ParseNode) []string {
	var names []string
	for _, declarator := range decl.ChildrenOfType(nodeVariableDeclarator) {
		names = append(names, patternNames(source, declarator.FirstNamedChild())...)
	}
	return names
}

// forInBinding returns the binding pattern of `for (let x of ...)`.
func forInBinding(stmt *valueobject.ParseNode) *valueobject.ParseNode {
	keyword := false
	for _, child := range stmt.Children {
		if !child.Named && (child.Type == "let" || child.Type == "const" || child.Type == "var") {
			keyword = true
			continue
		}
		if keyword && child.Named && !child.IsComment() {
			return child
		}
	}
	return nil
}

// patternNames returns the identifiers bound by a binding pattern.
func patternNames(source []byte, pattern *valueobject.ParseNode) []string {
	if pattern == nil {
		return nil
	}
	switch pattern.Type {
	case nodeIdentifier, "shorthand_property_identifier_pattern":
		return []string{text(source, pattern)}
	case "object_pattern", "array_pattern":
		var names []string
		for _, child := range pattern.NamedChildren() {
			names = append(names, patternNames(source, child)...)
		}
		return names
	case "pair_pattern":
		return patternNames(source, pairValue(pattern))
	case "assignment_pattern", "object_assignment_pattern", "rest_pattern":
		return patternNames(source, pattern.FirstNamedChild())
	case "required_parameter", "optional_parameter":
		for _, child := range pattern.NamedChildren() {
			switch child.Type {
			case nodeIdentifier, "object_pattern", "array_pattern", "rest_pattern":
				return patternNames(source, child)
			}
		}
	}
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
