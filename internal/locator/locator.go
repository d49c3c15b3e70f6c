// Package locator resolves an analysis target to a file or a package root.
package locator

import (
	"errors"
	"fmt"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"

	"github.com/panbanda/reducto/internal/scanner"
	"github.com/panbanda/reducto/pkg/analyzer/sourcefile"
)

// TargetType indicates whether the target resolved to a file or a package.
type TargetType string

const (
	TargetFile    TargetType = "file"
	TargetPackage TargetType = "package"
)

// Result is a resolved target inside a filesystem.
type Result struct {
	Type TargetType
	Path string
}

// ErrNotSource is returned for a regular file that is not a Python module.
var ErrNotSource = errors.New("not a python source file")

// Locate classifies name in fs. Directories are package candidates; their
// shape is checked by the package analyzer. Missing paths wrap
// sourcefile.ErrNotFound.
func Locate(fs billy.Filesystem, name string) (*Result, error) {
	name = path.Clean(name)
	info, err := fs.Stat(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", sourcefile.ErrNotFound, name)
		}
		return nil, err
	}

	switch {
	case info.IsDir():
		return &Result{Type: TargetPackage, Path: name}, nil
	case !info.Mode().IsRegular():
		return nil, fmt.Errorf("%w: %s", sourcefile.ErrNotFound, name)
	case path.Ext(name) != scanner.SourceExt:
		return nil, fmt.Errorf("%w: %s", ErrNotSource, name)
	default:
		return &Result{Type: TargetFile, Path: name}, nil
	}
}
