// Package source reads Python files and decodes them to normalized text.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ContentSource provides file content from a specific source.
type ContentSource interface {
	// Read returns the content of the file at path.
	Read(path string) ([]byte, error)
}

// FilesystemSource reads files from the local filesystem.
type FilesystemSource struct{}

// NewFilesystem creates a source that reads from the filesystem.
func NewFilesystem() *FilesystemSource {
	return &FilesystemSource{}
}

// Read implements ContentSource.
func (f *FilesystemSource) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// BillySource reads files from a billy filesystem, such as a package root
// on disk or an in-memory snapshot of a git revision.
type BillySource struct {
	fs billy.Filesystem
}

// NewBilly creates a source that reads from fs.
func NewBilly(fs billy.Filesystem) *BillySource {
	return &BillySource{fs: fs}
}

// Read implements ContentSource.
func (b *BillySource) Read(path string) ([]byte, error) {
	return util.ReadFile(b.fs, path)
}

// ErrDecode is returned when file content cannot be decoded to text.
var ErrDecode = errors.New("cannot decode source")

var (
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	cookieRe  = regexp.MustCompile(`^[ \t\f]*#.*?coding[:=][ \t]*([-\w.]+)`)
	ignorable = regexp.MustCompile(`^[ \t\f]*(?:[#\r\n]|$)`)
)

// Decoder converts raw file bytes into text with "\n" line endings.
type Decoder struct {
	// Fallback names the encoding used when undeclared content is not valid
	// UTF-8. Empty means such content is an error.
	Fallback string
}

// Decode decodes raw using the default Decoder.
func Decode(raw []byte) (string, error) {
	return Decoder{}.Decode(raw)
}

// Decode strips a UTF-8 byte order mark, honours a coding declaration on
// the first or second line, and normalizes CRLF and CR to LF.
func (d Decoder) Decode(raw []byte) (string, error) {
	bom := bytes.HasPrefix(raw, utf8BOM)
	if bom {
		raw = raw[len(utf8BOM):]
	}

	name, declared := Cookie(raw)
	if bom && declared && normalizeName(name) != "utf-8" {
		return "", fmt.Errorf("%w: encoding %q conflicts with UTF-8 byte order mark", ErrDecode, name)
	}
	if !declared {
		name = "utf-8"
	}

	text, err := decodeAs(raw, name)
	if err != nil && !declared && d.Fallback != "" {
		text, err = decodeAs(raw, d.Fallback)
	}
	if err != nil {
		return "", err
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// Cookie returns the encoding declared by a PEP 263 comment on the first
// line, or on the second line when the first is blank or a comment.
func Cookie(raw []byte) (string, bool) {
	lines := bytes.SplitN(raw, []byte("\n"), 3)
	for i, line := range lines {
		if i == 2 {
			break
		}
		if m := cookieRe.FindSubmatch(line); m != nil {
			return string(m[1]), true
		}
		if !ignorable.Match(line) {
			break
		}
	}
	return "", false
}

// Lookup returns the text encoding registered under name.
func Lookup(name string) (encoding.Encoding, error) {
	norm := normalizeName(name)
	if norm == "utf-8" {
		return unicode.UTF8, nil
	}
	if enc, err := ianaindex.IANA.Encoding(norm); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(norm); err == nil && enc != nil {
		return enc, nil
	}
	return nil, fmt.Errorf("%w: unknown encoding %q", ErrDecode, name)
}

func decodeAs(raw []byte, name string) (string, error) {
	enc, err := Lookup(name)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w: invalid UTF-8", ErrDecode)
		}
		return string(raw), nil
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return string(out), nil
}

// normalizeName folds the spellings Python accepts for common encodings.
func normalizeName(name string) string {
	n := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	switch {
	case n == "utf-8" || strings.HasPrefix(n, "utf-8-") || n == "utf8":
		return "utf-8"
	case n == "latin-1" || n == "iso-8859-1" || n == "iso-latin-1" ||
		strings.HasPrefix(n, "latin-1-") || strings.HasPrefix(n, "iso-8859-1-") || strings.HasPrefix(n, "iso-latin-1-"):
		return "iso-8859-1"
	}
	return n
}
