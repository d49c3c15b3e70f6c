package testutil

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// MemFS creates an in-memory filesystem for testing.
func MemFS() billy.Filesystem {
	return memfs.New()
}

// WriteFile writes content to a file in the given filesystem.
func WriteFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	dir := path.Dir(name)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := util.WriteFile(fs, name, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", name, err)
	}
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, fs billy.Filesystem, root string, files map[string]string) {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		WriteFile(t, fs, path.Join(root, name), files[name])
	}
}

// ExampleSource returns the annotated example module shared by the analyzer
// tests. Its expected metrics are:
// lines 128, functions 11, average 3, docstring 29, comments 3, blank 32, source 64.
func ExampleSource(t *testing.T) string {
	t.Helper()
	_, self, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot locate testutil source")
	}
	p := filepath.Join(filepath.Dir(self), "..", "analyzer", "sourcefile", "testdata", "example.py")
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", p, err)
	}
	return string(data)
}

// PackageFiles returns the files of the seven-module "pkg" fixture, relative
// to the package root. Grouped totals: lines 514, functions 44, average 3,
// docstring 116, comments 12, blank 130, source 256, files 7.
func PackageFiles(t *testing.T) map[string]string {
	t.Helper()
	example := ExampleSource(t)
	return map[string]string{
		"__init__.py":         "",
		"pyfile.py":           example,
		"subproj/__init__.py": "\n",
		"subproj/main.py":     example,
		"subproj/help.py":     example,
		"src/ext/__init__.py": "\n",
		"src/ext/ext.py":      example,
	}
}

// MemPackage writes the package fixture under name in a fresh in-memory
// filesystem.
func MemPackage(t *testing.T, name string) billy.Filesystem {
	t.Helper()
	fs := MemFS()
	CreateFileTree(t, fs, name, PackageFiles(t))
	return fs
}

// DiskPackage writes the package fixture to a temp directory and returns the
// path of the package root.
func DiskPackage(t *testing.T, name string) string {
	t.Helper()
	dir := t.TempDir()
	CreateFileTree(t, osfs.New(dir), name, PackageFiles(t))
	return filepath.Join(dir, name)
}
