package parser

import sitter "github.com/smacker/go-tree-sitter"

// NodeKind is the closed set of node kinds the metrics walkers care about.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindModule
	KindFunction
	KindClass
	KindComment
)

func (k NodeKind) String() string {
	switch k {
	case KindModule:
		return "module"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindComment:
		return "comment"
	default:
		return "other"
	}
}

// KindOf maps a tree-sitter node type to its NodeKind. Both "def" and
// "async def" parse to function_definition.
func KindOf(nodeType string) NodeKind {
	switch nodeType {
	case "module":
		return KindModule
	case "function_definition":
		return KindFunction
	case "class_definition":
		return KindClass
	case "comment":
		return KindComment
	default:
		return KindOther
	}
}

// Name returns the text of the node's name field, if any.
func Name(node *sitter.Node, source []byte) string {
	return GetNodeText(node.ChildByFieldName("name"), source)
}
