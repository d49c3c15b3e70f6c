package models

// ItemKind tells a free function apart from a method.
type ItemKind string

const (
	KindFunction ItemKind = "function"
	KindMethod   ItemKind = "method"
)

// NoParent is the Parent value of an item that is not nested in another item.
const NoParent = -1

// Item is a function or method with its line range and the lines attributed to it.
// Start and End are 1-based and inclusive; they never change after extraction.
type Item struct {
	Name       string   `json:"name"`
	Kind       ItemKind `json:"kind"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	Parent     int      `json:"-"` // index of the enclosing item, or NoParent
	Docstrings int      `json:"docstring_lines"`
	Comments   int      `json:"comment_lines"`
	Blank      int      `json:"blank_lines"`
}

// Len returns the length of the item as End - Start.
func (i Item) Len() int {
	return i.End - i.Start
}

// SourceLines returns the lines of the item that are neither docstring,
// comment nor blank. A negative value means a line was counted twice.
func (i Item) SourceLines() int {
	return i.Len() - i.Docstrings - i.Comments - i.Blank
}

// Contains reports whether line falls within the item's range.
func (i Item) Contains(line int) bool {
	return i.Start <= line && line <= i.End
}

// WithCounts returns a copy of the item with comments and blank added to
// its existing counts.
func (i Item) WithCounts(comments, blank int) Item {
	i.Comments += comments
	i.Blank += blank
	return i
}

// HasParent reports whether the item is nested inside another item.
func (i Item) HasParent() bool {
	return i.Parent != NoParent
}
