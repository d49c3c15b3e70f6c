// Package attribution assigns comment and blank lines to the function that
// owns them.
//
// Items are kept sorted by start line so the owner of a line is found with a
// left-insertion binary search over the starts, then confirmed with a
// containment check. When functions nest, the search can land on an inner
// function that ended before the line; the lookup then walks up the parent
// chain to the innermost enclosing function that does contain it.
package attribution

import (
	"sort"

	"github.com/panbanda/reducto/pkg/models"
)

// Counts is the side table produced by Attribute, indexed like the items.
type Counts struct {
	Comments []int
	Blanks   []int
}

// Sort returns a copy of items stably sorted by start line, with parent
// indices remapped to the new positions.
func Sort(items []models.Item) []models.Item {
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return items[order[a]].Start < items[order[b]].Start
	})

	newIndex := make([]int, len(items))
	for pos, old := range order {
		newIndex[old] = pos
	}

	sorted := make([]models.Item, len(items))
	for pos, old := range order {
		it := items[old]
		if it.HasParent() {
			it.Parent = newIndex[it.Parent]
		}
		sorted[pos] = it
	}
	return sorted
}

// Starts returns the start line of every item, in item order.
func Starts(items []models.Item) []int {
	starts := make([]int, len(items))
	for i, it := range items {
		starts[i] = it.Start
	}
	return starts
}

// Search returns the leftmost insertion point of line in the sorted starts.
func Search(starts []int, line int) int {
	return sort.SearchInts(starts, line)
}

// Owner returns the index of the innermost item containing line, or -1.
// items must be sorted by start and starts must be Starts(items).
func Owner(items []models.Item, starts []int, line int) int {
	idx := Search(starts, line) - 1
	for idx >= 0 {
		if items[idx].Contains(line) {
			return idx
		}
		idx = items[idx].Parent
	}
	return -1
}

// Range returns the span outside of which no line is attributed: the first
// item's start and the furthest end of any item.
func Range(items []models.Item) (start, end int) {
	if len(items) == 0 {
		return 0, 0
	}
	start = items[0].Start
	for _, it := range items {
		if it.End > end {
			end = it.End
		}
	}
	return start, end
}

// Attribute counts, per item, the comment and blank lines it owns. Lines on
// or before the first item's start, or on or after the last end, are never
// attributed. items must be sorted by start.
func Attribute(items []models.Item, comments, blanks []int) Counts {
	starts := Starts(items)
	return Counts{
		Comments: assign(items, starts, comments),
		Blanks:   assign(items, starts, blanks),
	}
}

func assign(items []models.Item, starts []int, lines []int) []int {
	counts := make([]int, len(items))
	if len(items) == 0 {
		return counts
	}

	lo, hi := Range(items)
	for _, line := range lines {
		if line <= lo || line >= hi {
			continue
		}
		if idx := Owner(items, starts, line); idx >= 0 {
			counts[idx]++
		}
	}
	return counts
}

// Merge returns new items with the side table added to their counts.
// Merging the same table twice counts every line twice.
func Merge(items []models.Item, counts Counts) []models.Item {
	merged := make([]models.Item, len(items))
	for i, it := range items {
		var c, b int
		if i < len(counts.Comments) {
			c = counts.Comments[i]
		}
		if i < len(counts.Blanks) {
			b = counts.Blanks[i]
		}
		merged[i] = it.WithCounts(c, b)
	}
	return merged
}
