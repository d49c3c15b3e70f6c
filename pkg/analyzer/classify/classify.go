// Package classify decides which physical lines of a file are blank or
// comment-only, and measures docstrings.
package classify

import (
	"strings"
	"unicode"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/panbanda/reducto/pkg/token"
)

// Positions holds the 1-based line numbers of comment-only and blank lines.
type Positions struct {
	Comments *roaring.Bitmap
	Blanks   *roaring.Bitmap
}

// CommentLines returns the comment-only lines in ascending order.
func (p Positions) CommentLines() []int {
	return toInts(p.Comments)
}

// BlankLines returns the blank lines in ascending order.
func (p Positions) BlankLines() []int {
	return toInts(p.Blanks)
}

func toInts(b *roaring.Bitmap) []int {
	out := make([]int, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// IsBlankLine reports whether tok ends a physical line that holds nothing
// but its terminator. Whitespace-only lines are not blank.
func IsBlankLine(tok token.Token) bool {
	return (tok.Type == token.NL || tok.Type == token.Newline) && tok.Line == "\n"
}

// IsCommentLine reports whether tok is a comment that starts its physical
// line. Trailing comments after code are not comment lines.
func IsCommentLine(tok token.Token) bool {
	return tok.Type == token.Comment &&
		strings.HasPrefix(strings.TrimLeftFunc(tok.Line, unicode.IsSpace), "#")
}

// Classify collects the comment and blank line positions in one pass.
func Classify(tokens []token.Token) Positions {
	pos := Positions{Comments: roaring.New(), Blanks: roaring.New()}
	for _, tok := range tokens {
		switch {
		case IsCommentLine(tok):
			pos.Comments.Add(uint32(tok.StartLine))
		case IsBlankLine(tok):
			pos.Blanks.Add(uint32(tok.StartLine))
		}
	}
	return pos
}

// DocstringLines returns the number of lines of a docstring once cleaned the
// way Python tools display it: tabs expanded, the first line stripped, the
// common indentation of the remaining lines removed, and blank lines at
// either end dropped.
func DocstringLines(doc string) int {
	return len(strings.Split(CleanDoc(doc), "\n"))
}

// CleanDoc normalizes the indentation of a docstring.
func CleanDoc(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := len(strings.TrimLeftFunc(line, unicode.IsSpace))
		if content == 0 {
			continue
		}
		if indent := len(line) - content; margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeftFunc(lines[0], unicode.IsSpace)
	if margin >= 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) > margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = ""
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// expandTabs replaces tabs with spaces up to the next multiple of size,
// restarting the column count after every newline.
func expandTabs(s string, size int) string {
	if !strings.Contains(s, "\t") {
		return s
	}

	var sb strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := size - col%size
			sb.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			sb.WriteRune(r)
			col = 0
		default:
			sb.WriteRune(r)
			col++
		}
	}
	return sb.String()
}
