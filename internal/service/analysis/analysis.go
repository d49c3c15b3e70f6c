// Package analysis runs a full analysis request: it resolves the target,
// picks the file or package analyzer and produces a report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/panbanda/reducto/internal/cache"
	"github.com/panbanda/reducto/internal/fileproc"
	"github.com/panbanda/reducto/internal/locator"
	"github.com/panbanda/reducto/internal/progress"
	"github.com/panbanda/reducto/internal/vcs"
	"github.com/panbanda/reducto/pkg/analyzer"
	"github.com/panbanda/reducto/pkg/analyzer/pypackage"
	"github.com/panbanda/reducto/pkg/analyzer/sourcefile"
	"github.com/panbanda/reducto/pkg/config"
	"github.com/panbanda/reducto/pkg/models"
	"github.com/panbanda/reducto/pkg/source"
)

// Service orchestrates analysis requests.
type Service struct {
	config   *config.Config
	memo     *cache.Memo[models.Metrics]
	onError  fileproc.ErrorFunc
	progress bool
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithMemo shares a metrics memo across requests.
func WithMemo(m *cache.Memo[models.Metrics]) Option {
	return func(s *Service) {
		s.memo = m
	}
}

// WithErrorHandler receives every package file that was skipped.
func WithErrorHandler(fn fileproc.ErrorFunc) Option {
	return func(s *Service) {
		s.onError = fn
	}
}

// WithProgress renders a progress bar on stderr while a package is analyzed.
func WithProgress(enabled bool) Option {
	return func(s *Service) {
		s.progress = enabled
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.LoadOrDefault(),
		memo:   cache.NewMemo[models.Metrics](),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ErrTargetMismatch is returned when a request restricted to one target type
// resolves to the other.
var ErrTargetMismatch = errors.New("target type mismatch")

// Request describes one analysis run.
type Request struct {
	// Path is a Python file or a package directory.
	Path string
	// Ref, when set, analyzes Path as recorded in that git revision.
	Ref        string
	Grouped    bool
	Percentage bool
	// Exclude adds gitignore-syntax patterns to the configured ones.
	Exclude []string
	// Workers overrides the configured worker count when positive.
	Workers int
	// Target, when set, restricts Path to a file or to a package.
	Target locator.TargetType
}

// Analyze runs req and returns its report.
func (s *Service) Analyze(ctx context.Context, req Request) (*models.Report, error) {
	fs, name, err := s.open(ctx, req)
	if err != nil {
		return nil, err
	}

	target, err := locator.Locate(fs, name)
	if err != nil {
		return nil, err
	}
	if req.Target != "" && req.Target != target.Type {
		return nil, fmt.Errorf("%w: %s is a %s, not a %s", ErrTargetMismatch, req.Path, target.Type, req.Target)
	}

	if target.Type == locator.TargetFile {
		return s.analyzeFile(fs, target.Path, req)
	}
	return s.analyzePackage(ctx, fs, target.Path, req)
}

// open returns the filesystem holding the target and its name within it.
func (s *Service) open(ctx context.Context, req Request) (billy.Filesystem, string, error) {
	path := req.Path
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}

	if req.Ref != "" {
		fs, name, err := vcs.Snapshot(ctx, abs, req.Ref)
		if err != nil {
			return nil, "", fmt.Errorf("snapshot %s at %s: %w", path, req.Ref, err)
		}
		return fs, name, nil
	}
	return osfs.New(filepath.Dir(abs)), filepath.Base(abs), nil
}

func (s *Service) analyzeFile(fs billy.Filesystem, name string, req Request) (*models.Report, error) {
	a := sourcefile.New(
		sourcefile.WithSource(source.NewBilly(fs)),
		sourcefile.WithNested(s.config.Analysis.IncludeNested),
		sourcefile.WithDecoder(source.Decoder{Fallback: s.config.Analysis.EncodingFallback}),
	)
	defer a.Close()

	f, err := a.AnalyzeFile(name)
	if err != nil {
		return nil, err
	}
	return f.Report(req.Percentage), nil
}

func (s *Service) analyzePackage(ctx context.Context, fs billy.Filesystem, name string, req Request) (*models.Report, error) {
	opts := []pypackage.Option{
		pypackage.WithConfig(s.config),
		pypackage.WithExclude(req.Exclude...),
		pypackage.WithMemo(s.memo),
		pypackage.WithErrorHandler(s.onError),
	}
	if req.Workers > 0 {
		opts = append(opts, pypackage.WithWorkers(req.Workers))
	}

	a, err := pypackage.Open(fs, name, opts...)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	files, err := a.Files()
	if err != nil {
		return nil, err
	}

	if s.progress {
		bar := progress.NewTracker("Analyzing", len(files))
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(func(analyzer.Progress) {
			bar.Tick()
		}))
		pkg, err := a.Analyze(ctx, files)
		if err != nil {
			bar.FinishError(err)
			return nil, err
		}
		bar.FinishSuccess()
		return pkg.Report(req.Grouped, req.Percentage), nil
	}

	pkg, err := a.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}
	return pkg.Report(req.Grouped, req.Percentage), nil
}
