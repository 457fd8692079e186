package valueobject

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Node types that carry no program structure.
const (
	NodeTypeComment = "comment"
	NodeTypeError   = "ERROR"
)

// ParseTree represents a parsed source file as a value object.
//
// The tree is read-only once built. Rewrites are expressed as byte edits over
// Source, so every region not touched by an edit keeps its original bytes.
type ParseTree struct {
	dialect   SourceDialect
	rootNode  *ParseNode
	source    []byte
	metadata  ParseMetadata
	createdAt time.Time
}

// ParseNode represents a node in the parse tree.
type ParseNode struct {
	Type      string
	Named     bool
	Missing   bool
	StartByte uint32
	EndByte   uint32
	StartPos  Position
	EndPos    Position
	Children  []*ParseNode
	Parent    *ParseNode
}

// Position represents a position in source code.
type Position struct {
	Row    uint32
	Column uint32
}

// ParseMetadata contains metadata about the parse operation.
type ParseMetadata struct {
	ParseDuration  time.Duration
	GrammarVersion string
	NodeCount      int
	MaxDepth       int
	ErrorCount     int
}

// NewParseTree creates a new ParseTree value object with validation. Parent
// links are (re)established for the whole tree.
func NewParseTree(
	dialect SourceDialect,
	rootNode *ParseNode,
	source []byte,
	metadata ParseMetadata,
) (*ParseTree, error) {
	if rootNode == nil {
		return nil, errors.New("root node cannot be nil")
	}

	if len(source) == 0 {
		return nil, errors.New("source code cannot be empty")
	}

	if int64(rootNode.EndByte) > int64(len(source)) {
		return nil, fmt.Errorf("root node end byte %d exceeds source length %d", rootNode.EndByte, len(source))
	}

	rootNode.Parent = nil
	linkParents(rootNode)

	return &ParseTree{
		dialect:   dialect,
		rootNode:  rootNode,
		source:    source,
		metadata:  metadata,
		createdAt: time.Now(),
	}, nil
}

// NewParseMetadata creates a new ParseMetadata value object.
func NewParseMetadata(duration time.Duration, grammarVersion string) (ParseMetadata, error) {
	if duration < 0 {
		return ParseMetadata{}, errors.New("parse duration cannot be negative")
	}

	return ParseMetadata{
		ParseDuration:  duration,
		GrammarVersion: grammarVersion,
	}, nil
}

func linkParents(node *ParseNode) {
	for _, child := range node.Children {
		child.Parent = node
		linkParents(child)
	}
}

// Dialect returns the dialect the tree was parsed with.
func (pt *ParseTree) Dialect() SourceDialect {
	return pt.dialect
}

// RootNode returns the root node of the parse tree.
func (pt *ParseTree) RootNode() *ParseNode {
	return pt.rootNode
}

// Source returns the source code of the parse tree.
func (pt *ParseTree) Source() []byte {
	return pt.source
}

// Metadata returns the parse metadata.
func (pt *ParseTree) Metadata() ParseMetadata {
	return pt.metadata
}

// CreatedAt returns when the parse tree was created.
func (pt *ParseTree) CreatedAt() time.Time {
	return pt.createdAt
}

// GetNodesByType returns all nodes of a specific type in document order.
func (pt *ParseTree) GetNodesByType(nodeType string) []*ParseNode {
	var result []*ParseNode
	pt.rootNode.Walk(func(n *ParseNode) bool {
		if n.Type == nodeType {
			result = append(result, n)
		}
		return true
	})
	return result
}

// GetNodeText returns the source text covered by a node.
func (pt *ParseTree) GetNodeText(node *ParseNode) string {
	if node == nil || int64(node.EndByte) > int64(len(pt.source)) || node.StartByte > node.EndByte {
		return ""
	}
	return string(pt.source[node.StartByte:node.EndByte])
}

// GetTotalNodeCount returns the number of nodes in the tree.
func (pt *ParseTree) GetTotalNodeCount() int {
	count := 0
	pt.rootNode.Walk(func(*ParseNode) bool {
		count++
		return true
	})
	return count
}

// HasSyntaxErrors reports whether the parser had to recover from errors.
func (pt *ParseTree) HasSyntaxErrors() bool {
	found := false
	pt.rootNode.Walk(func(n *ParseNode) bool {
		if n.Type == NodeTypeError || n.Missing {
			found = true
		}
		return !found
	})
	return found
}

// ToSExpression renders the named structure of the tree, mainly for debugging.
func (pt *ParseTree) ToSExpression() string {
	var b strings.Builder
	writeSExpression(&b, pt.rootNode)
	return b.String()
}

func writeSExpression(b *strings.Builder, node *ParseNode) {
	b.WriteString("(")
	b.WriteString(node.Type)
	for _, child := range node.NamedChildren() {
		b.WriteString(" ")
		writeSExpression(b, child)
	}
	b.WriteString(")")
}

// Walk visits the node and its descendants in document order. Returning
// false from fn skips the children of the visited node.
func (n *ParseNode) Walk(fn func(*ParseNode) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// IsComment reports whether the node is a comment.
func (n *ParseNode) IsComment() bool {
	return n.Type == NodeTypeComment
}

// NamedChildren returns the named, non-comment children of the node.
func (n *ParseNode) NamedChildren() []*ParseNode {
	if n == nil {
		return nil
	}
	out := make([]*ParseNode, 0, len(n.Children))
	for _, child := range n.Children {
		if child.Named && !child.IsComment() {
			out = append(out, child)
		}
	}
	return out
}

// FirstNamedChild returns the first named, non-comment child or nil.
func (n *ParseNode) FirstNamedChild() *ParseNode {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Named && !child.IsComment() {
			return child
		}
	}
	return nil
}

// ChildOfType returns the first direct child of the given type or nil.
func (n *ParseNode) ChildOfType(nodeType string) *ParseNode {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// ChildrenOfType returns every direct child of the given type.
func (n *ParseNode) ChildrenOfType(nodeType string) []*ParseNode {
	if n == nil {
		return nil
	}
	var out []*ParseNode
	for _, child := range n.Children {
		if child.Type == nodeType {
			out = append(out, child)
		}
	}
	return out
}

// HasToken reports whether an anonymous child with the given text exists.
func (n *ParseNode) HasToken(token string) bool {
	if n == nil {
		return false
	}
	for _, child := range n.Children {
		if !child.Named && child.Type == token {
			return true
		}
	}
	return false
}

// Contains reports whether other lies within the byte range of n.
func (n *ParseNode) Contains(other *ParseNode) bool {
	return other != nil && n.StartByte <= other.StartByte && other.EndByte <= n.EndByte
}
