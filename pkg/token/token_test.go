package token

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typesOf(tokens []Token) []Type {
	types := make([]Type, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"\n"}, SplitLines("\n"))
	assert.Equal(t, []string{"a\n", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{"a\n", "\n", "b\n"}, SplitLines("a\n\nb\n"))
}

func TestTokenize_SimpleStatement(t *testing.T) {
	tokens, err := Tokenize("x = 1\n")
	require.NoError(t, err)

	assert.Equal(t, []Type{Code, Code, Code, Newline}, typesOf(tokens))
	assert.Equal(t, "x = 1\n", tokens[3].Line)
	assert.Equal(t, 1, tokens[3].StartLine)
}

func TestTokenize_BlankAndWhitespaceLines(t *testing.T) {
	tokens, err := Tokenize("a = 1\n\n  \nb = 2\n")
	require.NoError(t, err)

	var nl []Token
	for _, tok := range tokens {
		if tok.Type == NL {
			nl = append(nl, tok)
		}
	}
	require.Len(t, nl, 2)
	assert.Equal(t, "\n", nl[0].Line)
	assert.Equal(t, 2, nl[0].StartLine)
	assert.Equal(t, "  \n", nl[1].Line)
	assert.Equal(t, 3, nl[1].StartLine)
}

func TestTokenize_Comments(t *testing.T) {
	src := "# full line\nx = 1  # trailing\n    # indented\n"
	tokens, err := Tokenize(src)
	require.NoError(t, err)

	var comments []Token
	for _, tok := range tokens {
		if tok.Type == Comment {
			comments = append(comments, tok)
		}
	}
	require.Len(t, comments, 3)

	assert.Equal(t, "# full line", comments[0].Text)
	assert.Equal(t, 1, comments[0].StartLine)
	assert.Equal(t, "# trailing", comments[1].Text)
	assert.Equal(t, "x = 1  # trailing\n", comments[1].Line)
	assert.Equal(t, "    # indented\n", comments[2].Line)
}

func TestTokenize_HashInsideString(t *testing.T) {
	tokens, err := Tokenize("s = \"# not a comment\"\n")
	require.NoError(t, err)

	for _, tok := range tokens {
		assert.NotEqual(t, Comment, tok.Type)
	}
	assert.Contains(t, typesOf(tokens), String)
}

func TestTokenize_TripleQuotedStringHidesBlankLines(t *testing.T) {
	src := "def f():\n    \"\"\"Doc.\n\n    # not a comment\n    \"\"\"\n    return 1\n"
	tokens, err := Tokenize(src)
	require.NoError(t, err)

	for _, tok := range tokens {
		if tok.StartLine == 3 || tok.StartLine == 4 {
			t.Errorf("unexpected token inside string: %+v", tok)
		}
	}

	var str *Token
	for i := range tokens {
		if tokens[i].Type == String {
			str = &tokens[i]
		}
	}
	require.NotNil(t, str)
	assert.Equal(t, 2, str.StartLine)
	assert.Equal(t, "\"\"\"Doc.\n\n    # not a comment\n    \"\"\"", str.Text)
}

func TestTokenize_BlankLineInsideBrackets(t *testing.T) {
	src := "TABLE = {\n    \"a\": 1,\n\n    \"b\": 2,\n}\n"
	tokens, err := Tokenize(src)
	require.NoError(t, err)

	found := false
	for _, tok := range tokens {
		if tok.StartLine == 3 {
			assert.Equal(t, NL, tok.Type)
			assert.Equal(t, "\n", tok.Line)
			found = true
		}
		if tok.StartLine == 2 && (tok.Type == NL || tok.Type == Newline) {
			assert.Equal(t, NL, tok.Type, "line breaks inside brackets are NL")
		}
	}
	assert.True(t, found, "blank line inside brackets should produce a token")
	assert.Equal(t, Newline, tokens[len(tokens)-1].Type)
}

func TestTokenize_StringPrefixes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		text string
	}{
		{"raw", "x = r'\\d'\n", "r'\\d'"},
		{"bytes", "x = b\"abc\"\n", "b\"abc\""},
		{"fstring", "x = f'{y}'\n", "f'{y}'"},
		{"raw bytes", "x = rb'\\n'\n", "rb'\\n'"},
		{"identifier ending in prefix letter", "x = bar'abc'\n", "'abc'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.src)
			require.NoError(t, err)
			var got string
			for _, tok := range tokens {
				if tok.Type == String {
					got = tok.Text
				}
			}
			assert.Equal(t, tt.text, got)
		})
	}
}

func TestTokenize_EscapedQuote(t *testing.T) {
	tokens, err := Tokenize("x = 'it\\'s' # c\n")
	require.NoError(t, err)

	assert.Equal(t, []Type{Code, Code, String, Comment, Newline}, typesOf(tokens))
}

func TestTokenize_BackslashContinuation(t *testing.T) {
	tokens, err := Tokenize("x = 1 + \\\n    2\n")
	require.NoError(t, err)

	var breaks []Token
	for _, tok := range tokens {
		if tok.Type == NL || tok.Type == Newline {
			breaks = append(breaks, tok)
		}
	}
	require.Len(t, breaks, 1)
	assert.Equal(t, Newline, breaks[0].Type)
	assert.Equal(t, 2, breaks[0].StartLine)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unterminated triple quote", "x = 1\ns = \"\"\"never closed\n\n", 2},
		{"unterminated single quote", "s = 'oops\n", 1},
		{"open bracket at end of input", "x = (\n  1,\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.src)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnterminated))

			var tokErr *Error
			require.True(t, errors.As(err, &tokErr))
			assert.Equal(t, tt.line, tokErr.Line)
		})
	}
}

func TestTokenize_NoTrailingNewline(t *testing.T) {
	tokens, err := Tokenize("x = 1")
	require.NoError(t, err)
	assert.Equal(t, Newline, tokens[len(tokens)-1].Type)
	assert.Equal(t, "x = 1", tokens[len(tokens)-1].Line)
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "COMMENT", Comment.String())
	assert.Equal(t, "NL", NL.String())
	assert.Equal(t, "Type(42)", Type(42).String())
}
