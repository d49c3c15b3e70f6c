// Package pypackage aggregates the metrics of every source file in a Python
// package tree.
package pypackage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/panbanda/reducto/internal/cache"
	"github.com/panbanda/reducto/internal/fileproc"
	"github.com/panbanda/reducto/internal/scanner"
	"github.com/panbanda/reducto/pkg/analyzer"
	"github.com/panbanda/reducto/pkg/analyzer/sourcefile"
	"github.com/panbanda/reducto/pkg/config"
	"github.com/panbanda/reducto/pkg/models"
	"github.com/panbanda/reducto/pkg/parser"
	"github.com/panbanda/reducto/pkg/source"
	"github.com/panbanda/reducto/pkg/stats"
)

// Ensure Analyzer implements analyzer.FileAnalyzer.
var _ analyzer.FileAnalyzer[*Package] = (*Analyzer)(nil)

// Package is the result of analyzing a package tree. Files are in walk order
// and keyed "<name>/<path relative to the root>".
type Package struct {
	Name  string
	Shape Shape
	Files []models.FileEntry
	// Skipped holds the files that failed to decode, tokenize or parse.
	Skipped []fileproc.ProcessingError
}

// Grouped returns the package rollup: sums of every per-file count, the
// number of files, and the per-file averages weighted by line count.
func (p *Package) Grouped() models.Metrics {
	var total models.Metrics
	avgs := make([]int, len(p.Files))
	lines := make([]int, len(p.Files))
	for i, f := range p.Files {
		total = total.Add(f.Metrics)
		avgs[i] = f.Metrics.AverageFunctionLength
		lines[i] = f.Metrics.Lines
	}
	total.SourceFiles = len(p.Files)
	total.AverageFunctionLength = stats.Round(stats.WeightedMean(avgs, lines))
	return total
}

// Report returns the package report, per file or grouped.
func (p *Package) Report(grouped, percentage bool) *models.Report {
	r := &models.Report{
		Name:       p.Name,
		Package:    true,
		Grouped:    grouped,
		Percentage: percentage,
	}
	if grouped {
		r.Summary = p.Grouped()
	} else {
		r.Files = p.Files
	}
	return r
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConfig sets the configuration driving exclusions and file options.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		a.cfg = cfg
	}
}

// WithExclude adds gitignore-syntax exclusion patterns.
func WithExclude(patterns ...string) Option {
	return func(a *Analyzer) {
		a.exclude = append(a.exclude, patterns...)
	}
}

// WithWorkers caps the number of files analyzed concurrently.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		a.workers = n
	}
}

// WithMemo shares a metrics memo between analyzers.
func WithMemo(m *cache.Memo[models.Metrics]) Option {
	return func(a *Analyzer) {
		a.memo = m
	}
}

// WithErrorHandler receives every file skipped during the walk.
func WithErrorHandler(fn fileproc.ErrorFunc) Option {
	return func(a *Analyzer) {
		a.onError = fn
	}
}

// Analyzer walks one package root in a billy filesystem.
type Analyzer struct {
	fs      billy.Filesystem
	root    string
	shape   Shape
	cfg     *config.Config
	exclude []string
	workers int
	memo    *cache.Memo[models.Metrics]
	onError fileproc.ErrorFunc
}

// Open checks that root in fs has a package shape and returns an analyzer
// for it.
func Open(fs billy.Filesystem, root string, opts ...Option) (*Analyzer, error) {
	root = path.Clean(filepath.ToSlash(root))
	info, err := fs.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", sourcefile.ErrNotFound, root)
	}

	shape, err := DetectShape(fs, root)
	if err != nil {
		return nil, err
	}
	if shape == ShapeNone {
		return nil, &ShapeError{Path: root}
	}

	a := &Analyzer{
		fs:    fs,
		root:  root,
		shape: shape,
		cfg:   config.DefaultConfig(),
		memo:  cache.NewMemo[models.Metrics](),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.workers == 0 {
		a.workers = a.cfg.Analysis.Workers
	}
	return a, nil
}

// OpenDir opens a package directory on disk.
func OpenDir(dir string, opts ...Option) (*Analyzer, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", sourcefile.ErrNotFound, dir)
	}
	return Open(osfs.New(filepath.Dir(abs)), filepath.Base(abs), opts...)
}

// Name returns the package name, the base name of the root.
func (a *Analyzer) Name() string {
	return path.Base(a.root)
}

// Shape returns the detected package shape.
func (a *Analyzer) Shape() Shape {
	return a.shape
}

// Files lists the source files of the package in walk order.
func (a *Analyzer) Files() ([]string, error) {
	files, err := scanner.NewScanner(a.cfg, a.exclude...).Scan(a.fs, a.root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", a.root, err)
	}
	return files, nil
}

// Run scans the package and analyzes every file found.
func (a *Analyzer) Run(ctx context.Context) (*Package, error) {
	files, err := a.Files()
	if err != nil {
		return nil, err
	}
	return a.Analyze(ctx, files)
}

// Analyze analyzes the given files of the package. Files that cannot be
// analyzed are skipped and reported to the error handler. Progress is tracked
// via context using analyzer.WithTracker.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Package, error) {
	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.SetTotal(len(files))
	}

	src := source.NewBilly(a.fs)
	opts := sourcefile.Options{
		Decoder: source.Decoder{Fallback: a.cfg.Analysis.EncodingFallback},
		Nested:  a.cfg.Analysis.IncludeNested,
	}

	type result struct {
		path    string
		metrics models.Metrics
	}

	results, errs := fileproc.MapFiles(ctx, files, fileproc.Options{
		Workers: a.workers,
		OnError: a.onError,
	}, func(psr *parser.Parser, p string) (res result, err error) {
		if tracker != nil {
			defer func() { tracker.Finish(p, err) }()
		}
		raw, err := src.Read(p)
		if err != nil {
			return result{}, err
		}
		m, err := a.memo.GetOrCompute(raw, func() (models.Metrics, error) {
			f, err := sourcefile.Build(psr, p, raw, opts)
			if err != nil {
				return models.Metrics{}, err
			}
			return f.Metrics(), nil
		})
		return result{path: p, metrics: m}, err
	})

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pkg := &Package{
		Name:  a.Name(),
		Shape: a.shape,
		Files: make([]models.FileEntry, len(results)),
	}
	for i, r := range results {
		pkg.Files[i] = models.FileEntry{Key: a.key(r.path), Metrics: r.metrics}
	}
	if errs != nil {
		pkg.Skipped = errs.Errors
	}
	return pkg, nil
}

// key renders a walk path as "<name>/<relative path>".
func (a *Analyzer) key(p string) string {
	rel := p
	if a.root != "." {
		rel = p[len(a.root)+1:]
	}
	return path.Join(a.Name(), rel)
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}

