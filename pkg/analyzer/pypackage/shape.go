package pypackage

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/panbanda/reducto/internal/scanner"
	"github.com/panbanda/reducto/pkg/analyzer/sourcefile"
)

// Marker is the file that makes a directory a Python package.
const Marker = scanner.PackageMarker

// ErrInvalidPackage is returned when a directory has no package shape.
var ErrInvalidPackage = errors.New("not a python package")

// ShapeError reports a directory that fails both package shape checks.
type ShapeError struct {
	Path string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s is not a python package: expected %s or a single package subdirectory", e.Path, Marker)
}

func (e *ShapeError) Unwrap() error {
	return ErrInvalidPackage
}

// Shape classifies a package root.
type Shape int

const (
	// ShapeNone is a directory that is not a package.
	ShapeNone Shape = iota
	// ShapeDirect is a directory holding the marker file.
	ShapeDirect
	// ShapeWrapped is a directory whose only subdirectory holds the marker,
	// such as a src/ layout.
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeDirect:
		return "direct"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "none"
	}
}

// DetectShape classifies dir. Hidden directories and __pycache__ do not count
// as subdirectories for the wrapped check.
func DetectShape(fs billy.Filesystem, dir string) (Shape, error) {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ShapeNone, fmt.Errorf("%w: %s", sourcefile.ErrNotFound, dir)
		}
		return ShapeNone, err
	}

	var subdirs []string
	for _, e := range entries {
		switch {
		case e.Name() == Marker && e.Mode().IsRegular():
			return ShapeDirect, nil
		case e.IsDir() && !ignoredDir(e.Name()):
			subdirs = append(subdirs, e.Name())
		}
	}

	if len(subdirs) == 1 && hasMarker(fs, path.Join(dir, subdirs[0])) {
		return ShapeWrapped, nil
	}
	return ShapeNone, nil
}

func hasMarker(fs billy.Filesystem, dir string) bool {
	info, err := fs.Lstat(path.Join(dir, Marker))
	return err == nil && info.Mode().IsRegular()
}

func ignoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__"
}
