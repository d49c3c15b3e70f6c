package scanner

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/reducto/pkg/config"
)

// SourceExt is the extension of files collected by the scanner.
const SourceExt = ".py"

// PackageMarker is the file that makes a directory a Python package.
const PackageMarker = "__init__.py"

// Scanner finds Python source files in a package tree.
type Scanner struct {
	config   *config.Config
	extra    []string
	matchers []gitignore.Matcher

	// dirs holds the configured directory names. A match is ignored for
	// directories that are packages themselves.
	dirs gitignore.Matcher
}

// NewScanner creates a new file scanner. Extra patterns use gitignore syntax
// and apply on top of the config exclusions.
func NewScanner(cfg *config.Config, extra ...string) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg, extra: extra}
}

// loadExcludePatterns loads exclusion patterns from the config, the extra
// patterns, and .gitignore files found under root.
func (s *Scanner) loadExcludePatterns(fs billy.Filesystem, root string) {
	s.matchers = s.matchers[:0]
	s.dirs = nil

	if dirs := s.config.DirPatterns(); len(dirs) > 0 {
		s.dirs = gitignore.NewMatcher(parsePatterns(dirs))
	}

	patterns := parsePatterns(s.config.Exclude.Patterns)
	patterns = append(patterns, parsePatterns(s.extra)...)

	if s.config.Exclude.Gitignore {
		sub, err := fs.Chroot(root)
		if err == nil {
			if gitPatterns, err := gitignore.ReadPatterns(sub, nil); err == nil {
				patterns = append(patterns, gitPatterns...)
			}
		}
	}

	if len(patterns) > 0 {
		s.matchers = append(s.matchers, gitignore.NewMatcher(patterns))
	}
}

func parsePatterns(ps []string) []gitignore.Pattern {
	patterns := make([]gitignore.Pattern, 0, len(ps))
	for _, p := range ps {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	return patterns
}

// isExcluded checks if a root-relative, slash-separated path matches any
// exclusion pattern.
func (s *Scanner) isExcluded(rel string, isDir bool) bool {
	if len(s.matchers) == 0 || rel == "." || rel == "" {
		return false
	}

	parts := strings.Split(rel, "/")
	for _, m := range s.matchers {
		if m.Match(parts, isDir) {
			return true
		}
	}
	return false
}

// isExcludedDir reports whether the directory at p, relative path rel, is
// pruned. Configured directory names do not prune Python packages.
func (s *Scanner) isExcludedDir(fs billy.Filesystem, p, rel string) bool {
	if s.isExcluded(rel, true) {
		return true
	}
	if s.dirs == nil || rel == "." || rel == "" {
		return false
	}
	if !s.dirs.Match(strings.Split(rel, "/"), true) {
		return false
	}
	info, err := fs.Lstat(path.Join(p, PackageMarker))
	return err != nil || !info.Mode().IsRegular()
}

// Scan lists the .py files under root in fs. Directories are visited in
// lexical order and returned paths include root. Symlinks and other
// non-regular files are skipped.
func (s *Scanner) Scan(fs billy.Filesystem, root string) ([]string, error) {
	root = path.Clean(filepath.ToSlash(root))
	s.loadExcludePatterns(fs, root)

	files := make([]string, 0, 64)
	err := util.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel := relative(root, filepath.ToSlash(p))
		if info.IsDir() {
			if s.isExcludedDir(fs, filepath.ToSlash(p), rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !info.Mode().IsRegular() || path.Ext(p) != SourceExt {
			return nil
		}
		if s.isExcluded(rel, false) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ScanDir scans a directory on disk. Returned paths are absolute.
func (s *Scanner) ScanDir(dir string) ([]string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	rel, err := s.Scan(osfs.New(abs), ".")
	if err != nil {
		return nil, err
	}

	files := make([]string, len(rel))
	for i, f := range rel {
		files[i] = filepath.Join(abs, filepath.FromSlash(f))
	}
	return files, nil
}

func relative(root, p string) string {
	if root == "." {
		return strings.TrimPrefix(p, "./")
	}
	if p == root {
		return "."
	}
	return strings.TrimPrefix(p, root+"/")
}
