// Package extract turns a Python parse tree into function items.
package extract

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/reducto/pkg/analyzer/classify"
	"github.com/panbanda/reducto/pkg/models"
	"github.com/panbanda/reducto/pkg/parser"
)

// Option configures extraction.
type Option func(*extractor)

// WithNested controls whether functions defined inside other functions
// become items of their own. It is on by default.
func WithNested(nested bool) Option {
	return func(e *extractor) {
		e.nested = nested
	}
}

type extractor struct {
	source []byte
	nested bool
	items  []models.Item
}

// Functions returns one item per function or async function in pre-order,
// which is ascending start line. Classes are descended into but produce no
// item; functions directly inside a class are methods. Each item carries the
// line count of its docstring.
func Functions(root *sitter.Node, source []byte, opts ...Option) []models.Item {
	e := &extractor{source: source, nested: true}
	for _, opt := range opts {
		opt(e)
	}
	if root != nil {
		e.visit(root, models.NoParent, false)
	}
	return e.items
}

// ModuleDocstringLines returns the line count of the module docstring, or 0.
func ModuleDocstringLines(root *sitter.Node, source []byte) int {
	return docstringLines(root, source)
}

func (e *extractor) visit(node *sitter.Node, parent int, inClass bool) {
	for i := range int(node.NamedChildCount()) {
		child := node.NamedChild(i)
		switch parser.KindOf(child.Type()) {
		case parser.KindFunction:
			idx := e.add(child, parent, inClass)
			if e.nested {
				e.visit(child, idx, false)
			}
		case parser.KindClass:
			e.visit(child, parent, true)
		case parser.KindComment:
		default:
			e.visit(child, parent, inClass)
		}
	}
}

func (e *extractor) add(node *sitter.Node, parent int, inClass bool) int {
	kind := models.KindFunction
	if inClass {
		kind = models.KindMethod
	}

	e.items = append(e.items, models.Item{
		Name:       parser.Name(node, e.source),
		Kind:       kind,
		Start:      parser.StartLine(node),
		End:        parser.EndLine(node),
		Parent:     parent,
		Docstrings: docstringLines(node, e.source),
	})
	return len(e.items) - 1
}

func docstringLines(node *sitter.Node, source []byte) int {
	doc, ok := parser.Docstring(node, source)
	if !ok {
		return 0
	}
	return classify.DocstringLines(doc)
}
