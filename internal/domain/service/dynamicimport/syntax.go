package dynamicimport

import (
	"nextdynamic/internal/domain/valueobject"
	"strings"
)

// Node types of the JavaScript, TypeScript and TSX grammars used by the pass.
const (
	nodeProgram             = "program"
	nodeImportStatement     = "import_statement"
	nodeImportClause        = "import_clause"
	nodeNamedImports        = "named_imports"
	nodeImportSpecifier     = "import_specifier"
	nodeImportAttribute     = "import_attribute"
	nodeImport              = "import"
	nodeString              = "string"
	nodeIdentifier          = "identifier"
	nodeCallExpression      = "call_expression"
	nodeMemberExpression    = "member_expression"
	nodeArguments           = "arguments"
	nodeObject              = "object"
	nodePair                = "pair"
	nodeShorthandProperty   = "shorthand_property_identifier"
	nodeArrowFunction       = "arrow_function"
	nodeStatementBlock      = "statement_block"
	nodeReturnStatement     = "return_statement"
	nodeParenthesized       = "parenthesized_expression"
	nodeAwaitExpression     = "await_expression"
	nodeFormalParameters    = "formal_parameters"
	nodeVariableDeclaration = "variable_declaration"
	nodeLexicalDeclaration  = "lexical_declaration"
	nodeVariableDeclarator  = "variable_declarator"
)

var functionTypes = map[string]bool{
	nodeArrowFunction:                true,
	"function":                       true,
	"function_expression":            true,
	"function_declaration":           true,
	"generator_function":             true,
	"generator_function_declaration": true,
	"method_definition":              true,
}

// loaderFunctionTypes are the function forms accepted as a loader argument.
var loaderFunctionTypes = map[string]bool{
	nodeArrowFunction:     true,
	"function":            true,
	"function_expression": true,
}

func isFunction(n *valueobject.ParseNode) bool {
	return n != nil && functionTypes[n.Type]
}

// text returns the source covered by n.
func text(source []byte, n *valueobject.ParseNode) string {
	if n == nil {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// stringValue returns the value of a string literal. Literals containing
// escape sequences are reported as not literal, since their value differs from
// their text.
func stringValue(source []byte, n *valueobject.ParseNode) (string, bool) {
	if n == nil || n.Type != nodeString {
		return "", false
	}
	raw := text(source, n)
	if len(raw) < 2 || strings.Contains(raw, `\`) {
		return "", false
	}
	return raw[1 : len(raw)-1], true
}

// propertyName returns the static key of an object member.
func propertyName(source []byte, key *valueobject.ParseNode) (string, bool) {
	if key == nil {
		return "", false
	}
	switch key.Type {
	case "property_identifier", nodeIdentifier:
		return text(source, key), true
	case nodeString:
		return stringValue(source, key)
	default:
		return "", false
	}
}

// pairValue returns the node after the colon of a pair.
func pairValue(pair *valueobject.ParseNode) *valueobject.ParseNode {
	colon := false
	for _, child := range pair.Children {
		if !child.Named && child.Type == ":" {
			colon = true
			continue
		}
		if colon && child.Named && !child.IsComment() {
			return child
		}
	}
	return nil
}

// objectMember is a static-keyed member of an object literal.
type objectMember struct {
	node  *valueobject.ParseNode
	key   string
	value *valueobject.ParseNode
}

// findMember looks up key among the members of an object literal. Shorthand
// members are returned with a nil value.
func findMember(source []byte, obj *valueobject.ParseNode, key string) (objectMember, bool) {
	for _, member := range obj.NamedChildren() {
		switch member.Type {
		case nodePair:
			name, ok := propertyName(source, member.FirstNamedChild())
			if ok && name == key {
				return objectMember{node: member, key: name, value: pairValue(member)}, true
			}
		case nodeShorthandProperty:
			if text(source, member) == key {
				return objectMember{node: member, key: key}, true
			}
		}
	}
	return objectMember{}, false
}

// unwrapExpression strips parentheses and await.
func unwrapExpression(n *valueobject.ParseNode) *valueobject.ParseNode {
	for n != nil && (n.Type == nodeParenthesized || n.Type == nodeAwaitExpression) {
		n = n.FirstNamedChild()
	}
	return n
}

// unwrapParens strips parentheses only.
func unwrapParens(n *valueobject.ParseNode) *valueobject.ParseNode {
	for n != nil && n.Type == nodeParenthesized {
		n = n.FirstNamedChild()
	}
	return n
}

// isDynamicImport reports whether n is an import(...) expression.
func isDynamicImport(n *valueobject.ParseNode) bool {
	if n == nil || n.Type != nodeCallExpression || len(n.Children) == 0 {
		return false
	}
	return n.Children[0].Type == nodeImport
}

// callArguments returns the argument nodes of a call, or nil for tagged
// templates.
func callArguments(call *valueobject.ParseNode) (*valueobject.ParseNode, []*valueobject.ParseNode) {
	args := call.ChildOfType(nodeArguments)
	if args == nil {
		return nil, nil
	}
	return args, args.NamedChildren()
}

// topLevelStatement returns the ancestor of n that is a direct child of the
// program.
func topLevelStatement(n *valueobject.ParseNode) *valueobject.ParseNode {
	for n != nil && n.Parent != nil {
		if n.Parent.Type == nodeProgram {
			return n
		}
		n = n.Parent
	}
	return nil
}

// lineStart returns the offset of the first byte of the line holding offset.
func lineStart(source []byte, offset uint32) uint32 {
	for offset > 0 && source[offset-1] != '\n' {
		offset--
	}
	return offset
}

// indentBefore returns the whitespace between the start of the line and
// offset, and whether only whitespace precedes offset on that line.
func indentBefore(source []byte, offset uint32) (string, bool) {
	start := lineStart(source, offset)
	prefix := string(source[start:offset])
	return prefix, strings.TrimLeft(prefix, " \t") == ""
}

// lineIndent returns the indentation of the line holding offset when only
// whitespace precedes offset, and "" otherwise.
func lineIndent(source []byte, offset uint32) string {
	indent, ok := indentBefore(source, offset)
	if !ok {
		return ""
	}
	return indent
}

// sameLine reports whether no newline lies between two offsets.
func sameLine(source []byte, from, to uint32) bool {
	if from > to {
		from, to = to, from
	}
	return !strings.Contains(string(source[from:to]), "\n")
}

// identifierNames collects every identifier-like token in the tree.
func identifierNames(source []byte, root *valueobject.ParseNode) map[string]bool {
	names := make(map[string]bool)
	root.Walk(func(n *valueobject.ParseNode) bool {
		if n.Named && len(n.Children) == 0 && strings.HasSuffix(n.Type, "identifier") {
			names[text(source, n)] = true
		}
		return true
	})
	return names
}
