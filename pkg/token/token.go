// Package token splits Python source into line-oriented tokens.
//
// Only what line classification needs is produced: comments, line breaks,
// string literals and runs of other code. Each token carries the text of the
// physical line it starts on, so a caller can tell a comment-only line from a
// trailing comment and a bare line break from an indented one.
package token

import (
	"errors"
	"fmt"
	"strings"
)

// Type tags a token.
type Type int

const (
	// Comment is a "#" comment up to the end of the line.
	Comment Type = iota
	// NL is a line break that does not end a logical line: blank lines,
	// comment-only lines and breaks inside brackets.
	NL
	// Newline ends a logical line.
	Newline
	// String is a string literal, possibly spanning several lines.
	String
	// Code is any other run of source text.
	Code
)

func (t Type) String() string {
	switch t {
	case Comment:
		return "COMMENT"
	case NL:
		return "NL"
	case Newline:
		return "NEWLINE"
	case String:
		return "STRING"
	case Code:
		return "CODE"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Token is one lexical element of a source file.
type Token struct {
	Type      Type
	Text      string
	Line      string // physical line the token starts on, terminator included
	StartLine int    // 1-based
}

// ErrUnterminated is returned when the input ends inside a string literal
// or an open bracket.
var ErrUnterminated = errors.New("unterminated construct")

// Error reports where tokenizing failed.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Unwrap lets errors.Is match ErrUnterminated.
func (e *Error) Unwrap() error {
	return ErrUnterminated
}

// SplitLines splits src into physical lines, each keeping its "\n".
// The last line has no terminator when src does not end with one.
func SplitLines(src string) []string {
	if src == "" {
		return nil
	}
	lines := strings.SplitAfter(src, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// Tokenize returns the tokens of src in source order. Line endings must
// already be normalized to "\n".
func Tokenize(src string) ([]Token, error) {
	t := &tokenizer{}
	for i, line := range SplitLines(src) {
		if err := t.line(i+1, line); err != nil {
			return nil, err
		}
	}

	switch {
	case t.str != nil:
		return nil, &Error{Line: t.str.startLine, Msg: "unterminated triple-quoted string"}
	case t.depth > 0:
		return nil, &Error{Line: t.depthLine, Msg: "unexpected end of input in multi-line statement"}
	}
	return t.tokens, nil
}

type openString struct {
	quote     byte
	triple    bool
	startLine int
	line      string
	text      strings.Builder
}

type tokenizer struct {
	tokens    []Token
	str       *openString
	depth     int
	depthLine int
	continued bool
}

func (t *tokenizer) emit(typ Type, text, line string, lineNo int) {
	t.tokens = append(t.tokens, Token{Type: typ, Text: text, Line: line, StartLine: lineNo})
}

func (t *tokenizer) line(lineNo int, line string) error {
	pos := 0
	hasCode := false

	if t.str != nil {
		end, ok := scanString(line, 0, t.str.quote, t.str.triple)
		if !ok {
			if !t.str.triple && !endsWithEscape(line) {
				return &Error{Line: t.str.startLine, Msg: "unterminated string literal"}
			}
			t.str.text.WriteString(line)
			return nil
		}
		t.str.text.WriteString(line[:end])
		t.emit(String, t.str.text.String(), t.str.line, t.str.startLine)
		t.str = nil
		pos = end
		hasCode = true
	} else if !t.continued {
		trimmed := strings.TrimLeft(line, " \t\f")
		if trimmed == "\n" || trimmed == "" {
			t.emit(NL, "\n", line, lineNo)
			return nil
		}
		if trimmed[0] == '#' {
			t.emit(Comment, strings.TrimRight(trimmed, "\n"), line, lineNo)
			t.emit(NL, "\n", line, lineNo)
			return nil
		}
	}
	t.continued = false

	codeStart := -1
	flushCode := func(end int) {
		if codeStart >= 0 {
			t.emit(Code, line[codeStart:end], line, lineNo)
			codeStart = -1
		}
	}

	for pos < len(line) {
		c := line[pos]
		switch {
		case c == '#':
			flushCode(pos)
			t.emit(Comment, strings.TrimRight(line[pos:], "\n"), line, lineNo)
			pos = len(line)
			continue

		case c == '\'' || c == '"':
			start := prefixStart(line, pos)
			if codeStart >= 0 && codeStart < start {
				flushCode(start)
			} else {
				codeStart = -1
			}
			triple := strings.HasPrefix(line[pos:], strings.Repeat(string(c), 3))
			open := pos + 1
			if triple {
				open = pos + 3
			}
			hasCode = true
			end, ok := scanString(line, open, c, triple)
			if !ok {
				if !triple && !endsWithEscape(line) {
					return &Error{Line: lineNo, Msg: "unterminated string literal"}
				}
				t.str = &openString{quote: c, triple: triple, startLine: lineNo, line: line}
				t.str.text.WriteString(line[start:])
				return nil
			}
			t.emit(String, line[start:end], line, lineNo)
			pos = end
			continue

		case c == '\\' && (line[pos+1:] == "\n" || pos+1 == len(line)):
			flushCode(pos)
			t.continued = true
			pos = len(line)
			continue

		case c == '\n' || c == ' ' || c == '\t' || c == '\f':
			flushCode(pos)

		default:
			switch c {
			case '(', '[', '{':
				if t.depth == 0 {
					t.depthLine = lineNo
				}
				t.depth++
			case ')', ']', '}':
				if t.depth > 0 {
					t.depth--
				}
			}
			if codeStart < 0 {
				codeStart = pos
			}
			hasCode = true
		}
		pos++
	}
	flushCode(len(line))

	switch {
	case t.continued:
	case t.depth > 0 || !hasCode:
		t.emit(NL, "\n", line, lineNo)
	default:
		t.emit(Newline, "\n", line, lineNo)
	}
	return nil
}

// scanString looks for the closing delimiter of a string opened with quote,
// starting at from. It returns the offset just past the delimiter.
// Backslashes always escape the next byte, raw strings included, since a raw
// string still cannot end on an escaped quote.
func scanString(line string, from int, quote byte, triple bool) (int, bool) {
	for i := from; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\':
			i++
		case c == '\n' && !triple:
			return -1, false
		case c == quote:
			if !triple {
				return i + 1, true
			}
			if i+2 < len(line) && line[i+1] == quote && line[i+2] == quote {
				return i + 3, true
			}
		}
	}
	return -1, false
}

// prefixStart returns the offset of the string prefix (r, b, u, f and
// their combinations) that precedes the quote at pos, or pos if none.
func prefixStart(line string, pos int) int {
	start := pos
	for start > 0 && start > pos-3 && strings.IndexByte("rRbBuUfF", line[start-1]) >= 0 {
		start--
	}
	if start > 0 && isIdentByte(line[start-1]) {
		return pos
	}
	return start
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func endsWithEscape(line string) bool {
	body := strings.TrimSuffix(line, "\n")
	n := 0
	for i := len(body) - 1; i >= 0 && body[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1 && strings.HasSuffix(line, "\n")
}
