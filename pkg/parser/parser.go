// Package parser wraps tree-sitter for parsing Python source.
package parser

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrSyntax is returned when the source does not parse cleanly.
var ErrSyntax = errors.New("syntax error")

// SyntaxError locates the first error node of a parse tree.
type SyntaxError struct {
	Path string
	Line int
}

func (e *SyntaxError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("syntax error at line %d", e.Line)
	}
	return fmt.Sprintf("%s: syntax error at line %d", e.Path, e.Line)
}

// Unwrap lets errors.Is match ErrSyntax.
func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// Parser wraps a tree-sitter parser configured for Python.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
	Path   string
}

// Root returns the module node of the tree.
func (r *ParseResult) Root() *sitter.Node {
	return r.Tree.RootNode()
}

// Close releases the tree.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source and rejects trees that contain error or missing nodes.
// The returned result must be closed by the caller.
func (p *Parser) Parse(source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	result := &ParseResult{Tree: tree, Source: source, Path: path}
	if line, bad := firstError(tree.RootNode()); bad {
		result.Close()
		return nil, &SyntaxError{Path: path, Line: line}
	}
	return result, nil
}

// firstError returns the line of the first error or missing node.
func firstError(root *sitter.Node) (int, bool) {
	if !root.HasError() {
		return 0, false
	}

	line := int(root.StartPoint().Row) + 1
	found := false
	WalkTyped(root, nil, func(node *sitter.Node, nodeType string, _ []byte) bool {
		if found {
			return false
		}
		if nodeType == "ERROR" || node.IsMissing() {
			line = StartLine(node)
			found = true
			return false
		}
		return node.HasError()
	})
	return line, true
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// TypedNodeVisitor visits AST nodes with pre-cached node type to avoid CGO overhead.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// WalkTyped traverses the AST in pre-order, passing each node type to
// visitor. Children are skipped when visitor returns false.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if !visitor(node, nodeType, source) {
		return
	}

	for i := range int(node.ChildCount()) {
		WalkTyped(node.Child(i), source, visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// StartLine returns the 1-based line a node starts on.
func StartLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns the 1-based line of the last token of a node, ignoring
// trailing comments that tree-sitter attaches to the end of a block.
func EndLine(node *sitter.Node) int {
	last := node
	for {
		next := lastToken(last)
		if next == nil {
			break
		}
		last = next
	}

	end := last.EndPoint()
	if end.Column == 0 && end.Row > last.StartPoint().Row {
		return int(end.Row)
	}
	return int(end.Row) + 1
}

// lastToken returns the last child of node that is neither a comment nor
// zero-width, or nil when there is none.
func lastToken(node *sitter.Node) *sitter.Node {
	for i := int(node.ChildCount()) - 1; i >= 0; i-- {
		child := node.Child(i)
		if child == nil || child.StartByte() == child.EndByte() {
			continue
		}
		if child.Type() == "comment" {
			continue
		}
		return child
	}
	return nil
}
