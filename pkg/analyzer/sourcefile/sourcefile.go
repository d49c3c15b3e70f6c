// Package sourcefile computes the metrics of a single Python file.
//
// Analysis is a fixed sequence of stages: decode, tokenize, parse, extract,
// classify and attribute. Each stage consumes the output of the previous one
// and the result is an immutable File.
package sourcefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/panbanda/reducto/pkg/analyzer"
	"github.com/panbanda/reducto/pkg/analyzer/attribution"
	"github.com/panbanda/reducto/pkg/analyzer/classify"
	"github.com/panbanda/reducto/pkg/analyzer/extract"
	"github.com/panbanda/reducto/pkg/models"
	"github.com/panbanda/reducto/pkg/parser"
	"github.com/panbanda/reducto/pkg/source"
	"github.com/panbanda/reducto/pkg/stats"
	"github.com/panbanda/reducto/pkg/token"
)

// ErrNotFound is returned when a requested path is not an existing file.
var ErrNotFound = errors.New("no file found")

// File is the analyzed form of one source file.
type File struct {
	Path           string
	Lines          []string
	Items          []models.Item
	ModuleDocLines int
	Positions      classify.Positions
}

// Options control how files are decoded and which functions become items.
type Options struct {
	Decoder source.Decoder
	Nested  bool
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Nested: true}
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithDecoder sets the decoder used for file content.
func WithDecoder(d source.Decoder) Option {
	return func(a *Analyzer) {
		a.opts.Decoder = d
	}
}

// WithNested controls whether nested functions are counted as items.
func WithNested(nested bool) Option {
	return func(a *Analyzer) {
		a.opts.Nested = nested
	}
}

// WithSource sets where file content is read from.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		a.src = src
	}
}

// Ensure Analyzer implements analyzer.SourceAnalyzer.
var _ analyzer.SourceAnalyzer[*File] = (*Analyzer)(nil)

// Analyzer analyzes single files. It owns a parser and is not safe for
// concurrent use.
type Analyzer struct {
	parser *parser.Parser
	src    source.ContentSource
	opts   Options
}

// New creates a file analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		parser: parser.New(),
		src:    source.NewFilesystem(),
		opts:   DefaultOptions(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {
	a.parser.Close()
}

// AnalyzeFile reads and analyzes the file at path.
func (a *Analyzer) AnalyzeFile(path string) (*File, error) {
	if _, isFS := a.src.(*source.FilesystemSource); isFS {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
	}

	raw, err := a.src.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Build(a.parser, path, raw, a.opts)
}

// Build runs the analysis stages over raw file content using psr.
func Build(psr *parser.Parser, path string, raw []byte, opts Options) (*File, error) {
	text, err := opts.Decoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	tokens, err := token.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	result, err := psr.Parse([]byte(text), path)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	items := attribution.Sort(extract.Functions(result.Root(), result.Source, extract.WithNested(opts.Nested)))
	positions := classify.Classify(tokens)
	counts := attribution.Attribute(items, positions.CommentLines(), positions.BlankLines())

	return &File{
		Path:           path,
		Lines:          token.SplitLines(text),
		Items:          attribution.Merge(items, counts),
		ModuleDocLines: extract.ModuleDocstringLines(result.Root(), result.Source),
		Positions:      positions,
	}, nil
}

// Name returns the base name of the file.
func (f *File) Name() string {
	return filepath.Base(f.Path)
}

// DocstringLines returns the module docstring lines plus those of every item.
func (f *File) DocstringLines() int {
	total := f.ModuleDocLines
	for _, it := range f.Items {
		total += it.Docstrings
	}
	return total
}

// AverageFunctionLength returns the mean source lines per item, rounded
// half to even, or 0 without items.
func (f *File) AverageFunctionLength() int {
	lengths := make([]int, len(f.Items))
	for i, it := range f.Items {
		lengths[i] = it.SourceLines()
	}
	return stats.Round(stats.Mean(lengths))
}

// Metrics returns the report record of the file. Comment and blank lines are
// counted over the whole file, and source lines are the lines that are none
// of docstring, comment or blank.
func (f *File) Metrics() models.Metrics {
	m := models.Metrics{
		Lines:                 len(f.Lines),
		NumberOfFunctions:     len(f.Items),
		AverageFunctionLength: f.AverageFunctionLength(),
		DocstringLines:        f.DocstringLines(),
		CommentLines:          int(f.Positions.Comments.GetCardinality()),
		BlankLines:            int(f.Positions.Blanks.GetCardinality()),
	}
	m.SourceLines = m.Lines - m.DocstringLines - m.CommentLines - m.BlankLines
	return m
}

// Report returns the single-file report keyed by the file name.
func (f *File) Report(percentage bool) *models.Report {
	return &models.Report{
		Name:       f.Name(),
		Percentage: percentage,
		Files:      []models.FileEntry{{Key: f.Name(), Metrics: f.Metrics()}},
	}
}
