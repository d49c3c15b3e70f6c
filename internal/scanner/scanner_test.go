package scanner

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/panbanda/reducto/pkg/config"
	"github.com/panbanda/reducto/pkg/testutil"
)

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	if s.config == nil {
		t.Error("scanner.config should not be nil when passing nil")
	}

	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	if s.config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScan_LexicalOrder(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "pkg", map[string]string{
		"__init__.py":      "",
		"b.py":             "",
		"a.py":             "",
		"sub/__init__.py":  "",
		"sub/z.py":         "",
		"notes.txt":        "",
		"stub.pyi":         "",
		"zz/deep/mod.py":   "",
		"sub/data/x.json":  "",
		"sub/data/load.py": "",
	})

	got, err := NewScanner(nil).Scan(fs, "pkg")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []string{
		"pkg/__init__.py",
		"pkg/a.py",
		"pkg/b.py",
		"pkg/sub/__init__.py",
		"pkg/sub/data/load.py",
		"pkg/sub/z.py",
		"pkg/zz/deep/mod.py",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScan_DefaultExcludes(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "pkg", map[string]string{
		"__init__.py":                "",
		"__pycache__/mod.py":         "",
		"build/lib/mod.py":           "",
		".venv/lib/site.py":          "",
		"pkg.egg-info/setup.py":      "",
		"core/__pycache__/cached.py": "",
		"core/mod.py":                "",
	})

	got, err := NewScanner(nil).Scan(fs, "pkg")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []string{"pkg/__init__.py", "pkg/core/mod.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScan_DefaultExcludesKeepPackages(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "pip", map[string]string{
		"__init__.py":                       "",
		"operations/__init__.py":            "",
		"operations/build/__init__.py":      "",
		"operations/build/metadata.py":      "",
		"operations/dist/wheel.py":          "",
		"operations/build/__pycache__/m.py": "",
		"venv/__init__.py":                  "",
	})

	got, err := NewScanner(nil).Scan(fs, "pip")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []string{
		"pip/__init__.py",
		"pip/operations/__init__.py",
		"pip/operations/build/__init__.py",
		"pip/operations/build/metadata.py",
		"pip/venv/__init__.py",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}

	got, err = NewScanner(nil, "build/").Scan(fs, "pip")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want = []string{"pip/__init__.py", "pip/operations/__init__.py", "pip/venv/__init__.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() with an explicit pattern = %v, want %v", got, want)
	}
}

func TestScan_ExtraPatterns(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "pkg", map[string]string{
		"__init__.py":       "",
		"tests/test_a.py":   "",
		"core/test_b.py":    "",
		"core/mod.py":       "",
		"core/generated.py": "",
	})

	s := NewScanner(nil, "tests/", "test_*.py", "/core/generated.py")
	got, err := s.Scan(fs, "pkg")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []string{"pkg/__init__.py", "pkg/core/mod.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}
}

func TestScan_Gitignore(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "pkg", map[string]string{
		".gitignore":       "secret.py\n",
		"__init__.py":      "",
		"secret.py":        "",
		"sub/.gitignore":   "local_*.py\n",
		"sub/local_dev.py": "",
		"sub/keep.py":      "",
	})

	got, err := NewScanner(nil).Scan(fs, "pkg")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []string{"pkg/__init__.py", "pkg/sub/keep.py"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Scan() = %v, want %v", got, want)
	}

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false
	got, err = NewScanner(cfg).Scan(fs, "pkg")
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	if len(got) != 4 {
		t.Errorf("Scan() without gitignore found %d files, want 4: %v", len(got), got)
	}
}

func TestScanDir(t *testing.T) {
	root := testutil.DiskPackage(t, "pkg")

	got, err := NewScanner(nil).ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	want := []string{
		filepath.Join(root, "__init__.py"),
		filepath.Join(root, "pyfile.py"),
		filepath.Join(root, "src", "ext", "__init__.py"),
		filepath.Join(root, "src", "ext", "ext.py"),
		filepath.Join(root, "subproj", "__init__.py"),
		filepath.Join(root, "subproj", "help.py"),
		filepath.Join(root, "subproj", "main.py"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScanDir() = %v, want %v", got, want)
	}
}

func TestScanDir_SkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "real.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "real.py"), filepath.Join(root, "link.py")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	got, err := NewScanner(nil).ScanDir(root)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "real.py" {
		t.Errorf("ScanDir() = %v, want only real.py", got)
	}
}

func TestScanDir_Missing(t *testing.T) {
	_, err := NewScanner(nil).ScanDir(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("ScanDir() should fail for a missing directory")
	}
}
