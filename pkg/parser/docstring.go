package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// Docstring returns the documentation string of a module, class or function
// node: the value of the first statement of its body when that statement is
// a plain string literal. Byte strings and f-strings are not docstrings.
func Docstring(node *sitter.Node, source []byte) (string, bool) {
	body := node
	if KindOf(node.Type()) != KindModule {
		body = node.ChildByFieldName("body")
	}
	if body == nil {
		return "", false
	}

	var first *sitter.Node
	for i := range int(body.NamedChildCount()) {
		child := body.NamedChild(i)
		if child.Type() != "comment" {
			first = child
			break
		}
	}
	if first == nil || first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return "", false
	}

	expr := first.NamedChild(0)
	switch expr.Type() {
	case "string":
		return StringValue(GetNodeText(expr, source))
	case "concatenated_string":
		var sb strings.Builder
		for i := range int(expr.NamedChildCount()) {
			part := expr.NamedChild(i)
			if part.Type() != "string" {
				continue
			}
			v, ok := StringValue(GetNodeText(part, source))
			if !ok {
				return "", false
			}
			sb.WriteString(v)
		}
		return sb.String(), true
	default:
		return "", false
	}
}

// StringValue evaluates the text of a Python str literal, prefix and quotes
// included. It reports false for bytes and f-string literals.
func StringValue(literal string) (string, bool) {
	i := strings.IndexAny(literal, `'"`)
	if i < 0 {
		return "", false
	}
	prefix := strings.ToLower(literal[:i])
	if strings.ContainsAny(prefix, "bf") {
		return "", false
	}

	body := literal[i:]
	q := 1
	if len(body) >= 6 && (strings.HasPrefix(body, `"""`) || strings.HasPrefix(body, `'''`)) {
		q = 3
	}
	if len(body) < 2*q {
		return "", false
	}
	body = body[q : len(body)-q]

	if strings.Contains(prefix, "r") {
		return body, true
	}
	return unescape(body), true
}

// unescape decodes the backslash escapes of a non-raw Python string body.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			sb.WriteByte(c)
			continue
		}

		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			sb.WriteByte(e)
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(s[i:j], 8, 32)
			sb.WriteRune(rune(n))
			i = j - 1
		case 'x', 'u', 'U':
			width := hexWidth(e)
			if i+1+width > len(s) {
				sb.WriteByte('\\')
				sb.WriteByte(e)
				continue
			}
			n, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil || n > utf8.MaxRune {
				sb.WriteByte('\\')
				sb.WriteByte(e)
				continue
			}
			sb.WriteRune(rune(n))
			i += width
		case 'N':
			if end := strings.IndexByte(s[i:], '}'); i+1 < len(s) && s[i+1] == '{' && end > 0 {
				sb.WriteRune(utf8.RuneError)
				i += end
				continue
			}
			sb.WriteString(`\N`)
		default:
			sb.WriteByte('\\')
			sb.WriteByte(e)
		}
	}
	return sb.String()
}

func hexWidth(e byte) int {
	switch e {
	case 'x':
		return 2
	case 'u':
		return 4
	default:
		return 8
	}
}
