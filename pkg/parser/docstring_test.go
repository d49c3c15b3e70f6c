package parser

import "testing"

func TestDocstring(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		want  string
		found bool
	}{
		{
			name:  "function docstring",
			src:   "def f():\n    \"\"\"Adds two numbers.\"\"\"\n    return 1\n",
			want:  "Adds two numbers.",
			found: true,
		},
		{
			name:  "single quoted",
			src:   "def f():\n    'Short.'\n",
			want:  "Short.",
			found: true,
		},
		{
			name:  "comment before docstring",
			src:   "def f():\n    # note\n    \"\"\"Doc.\"\"\"\n",
			want:  "Doc.",
			found: true,
		},
		{
			name:  "no docstring",
			src:   "def f():\n    x = 1\n    \"\"\"Not a docstring.\"\"\"\n",
			found: false,
		},
		{
			name:  "bytes literal",
			src:   "def f():\n    b\"\"\"bytes\"\"\"\n",
			found: false,
		},
		{
			name:  "f-string",
			src:   "def f():\n    f\"\"\"{x}\"\"\"\n",
			found: false,
		},
		{
			name:  "escaped newline",
			src:   "def f():\n    \"one\\ntwo\"\n",
			want:  "one\ntwo",
			found: true,
		},
		{
			name:  "raw string keeps backslashes",
			src:   "def f():\n    r\"one\\ntwo\"\n",
			want:  "one\\ntwo",
			found: true,
		},
		{
			name:  "concatenated",
			src:   "def f():\n    \"a\" \"b\"\n",
			want:  "ab",
			found: true,
		},
		{
			name:  "expression is not a plain string",
			src:   "def f():\n    \"a\" + \"b\"\n",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustParse(t, tt.src)
			funcs := nodesOfType(result.Root(), "function_definition")
			if len(funcs) != 1 {
				t.Fatalf("got %d functions, want 1", len(funcs))
			}

			got, found := Docstring(funcs[0], result.Source)
			if found != tt.found {
				t.Fatalf("found = %v, want %v", found, tt.found)
			}
			if got != tt.want {
				t.Errorf("Docstring() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocstring_Module(t *testing.T) {
	result := mustParse(t, "# header\n\"\"\"Module doc.\n\nMore.\n\"\"\"\nimport os\n")

	got, found := Docstring(result.Root(), result.Source)
	if !found {
		t.Fatal("module docstring not found")
	}
	if got != "Module doc.\n\nMore.\n" {
		t.Errorf("Docstring() = %q", got)
	}

	result = mustParse(t, "import os\n")
	if _, found := Docstring(result.Root(), result.Source); found {
		t.Error("unexpected module docstring")
	}
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		literal string
		want    string
		ok      bool
	}{
		{`"plain"`, "plain", true},
		{`'''triple'''`, "triple", true},
		{`u"unicode"`, "unicode", true},
		{`R"raw\n"`, `raw\n`, true},
		{`"tab\there"`, "tab\there", true},
		{`"quote\"d"`, `quote"d`, true},
		{`"slash\\"`, `slash\`, true},
		{"\"join\\\nlines\"", "joinlines", true},
		{`"\x41\101B"`, "AAB", true},
		{`"\q"`, `\q`, true},
		{`""`, "", true},
		{`b"bytes"`, "", false},
		{`rb"bytes"`, "", false},
		{`F"{x}"`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got, ok := StringValue(tt.literal)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("StringValue(%s) = %q, want %q", tt.literal, got, tt.want)
			}
		})
	}
}
