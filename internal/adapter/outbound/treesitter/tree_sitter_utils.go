package treesitter

import (
	"nextdynamic/internal/domain/valueobject"

	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// convertTreeSitterNode converts a tree-sitter node to a domain ParseNode
// recursively, returning the node count and maximum depth of the subtree.
func convertTreeSitterNode(node tree_sitter.Node, depth int) (*valueobject.ParseNode, int, int) {
	if node.IsNull() {
		return nil, 0, depth
	}

	parseNode := &valueobject.ParseNode{
		Type:      node.Type(),
		Named:     node.IsNamed(),
		Missing:   node.IsMissing(),
		StartByte: valueobject.ClampUintToUint32(node.StartByte()),
		EndByte:   valueobject.ClampUintToUint32(node.EndByte()),
		StartPos: valueobject.Position{
			Row:    valueobject.ClampUintToUint32(node.StartPoint().Row),
			Column: valueobject.ClampUintToUint32(node.StartPoint().Column),
		},
		EndPos: valueobject.Position{
			Row:    valueobject.ClampUintToUint32(node.EndPoint().Row),
			Column: valueobject.ClampUintToUint32(node.EndPoint().Column),
		},
		Children: make([]*valueobject.ParseNode, 0, node.ChildCount()),
	}

	nodeCount := 1
	maxDepth := depth

	for i := range node.ChildCount() {
		childParseNode, childNodeCount, childMaxDepth := convertTreeSitterNode(node.Child(i), depth+1)
		if childParseNode == nil {
			continue
		}
		parseNode.Children = append(parseNode.Children, childParseNode)
		nodeCount += childNodeCount
		if childMaxDepth > maxDepth {
			maxDepth = childMaxDepth
		}
	}

	return parseNode, nodeCount, maxDepth
}

// countErrors counts ERROR and missing nodes.
func countErrors(node *valueobject.ParseNode) int {
	count := 0
	node.Walk(func(n *valueobject.ParseNode) bool {
		if n.Type == valueobject.NodeTypeError || n.Missing {
			count++
		}
		return true
	})
	return count
}
