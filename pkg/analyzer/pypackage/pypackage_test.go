package pypackage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reducto/internal/cache"
	"github.com/panbanda/reducto/pkg/analyzer"
	"github.com/panbanda/reducto/pkg/analyzer/sourcefile"
	"github.com/panbanda/reducto/pkg/config"
	"github.com/panbanda/reducto/pkg/models"
	"github.com/panbanda/reducto/pkg/parser"
	"github.com/panbanda/reducto/pkg/testutil"
)

var exampleMetrics = models.Metrics{
	Lines:                 128,
	NumberOfFunctions:     11,
	AverageFunctionLength: 3,
	DocstringLines:        29,
	CommentLines:          3,
	BlankLines:            32,
	SourceLines:           64,
}

func runPackage(t *testing.T, a *Analyzer) *Package {
	t.Helper()
	pkg, err := a.Run(context.Background())
	require.NoError(t, err)
	return pkg
}

func TestDetectShape(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "", map[string]string{
		"direct/__init__.py":             "",
		"wrapped/src/inner/__init__.py":  "",
		"wrapped2/inner/__init__.py":     "",
		"wrapped2/.git/config":           "",
		"wrapped2/__pycache__/x.pyc":     "",
		"two/a/__init__.py":              "",
		"two/b/__init__.py":              "",
		"empty/readme.txt":               "",
		"dirmarker/__init__.py/keep.txt": "",
	})

	tests := []struct {
		dir  string
		want Shape
	}{
		{"direct", ShapeDirect},
		{"wrapped2", ShapeWrapped},
		{"wrapped", ShapeNone},
		{"two", ShapeNone},
		{"empty", ShapeNone},
		{"dirmarker", ShapeNone},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			got, err := DetectShape(fs, tt.dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "shape %s", got)
		})
	}

	_, err := DetectShape(fs, "missing")
	assert.True(t, errors.Is(err, sourcefile.ErrNotFound))
}

func TestOpen_InvalidShape(t *testing.T) {
	fs := testutil.MemFS()
	testutil.WriteFile(t, fs, "loose/script.py", "x = 1\n")

	_, err := Open(fs, "loose")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPackage))

	var shapeErr *ShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, "loose", shapeErr.Path)
}

func TestOpen_NotFound(t *testing.T) {
	fs := testutil.MemFS()
	testutil.WriteFile(t, fs, "file.py", "")

	_, err := Open(fs, "missing")
	assert.True(t, errors.Is(err, sourcefile.ErrNotFound))

	_, err = Open(fs, "file.py")
	assert.True(t, errors.Is(err, sourcefile.ErrNotFound), "a file is not a package root")

	_, err = OpenDir(t.TempDir() + "/missing")
	assert.True(t, errors.Is(err, sourcefile.ErrNotFound))
}

func TestRun_Fixture(t *testing.T) {
	a, err := Open(testutil.MemPackage(t, "pkg"), "pkg")
	require.NoError(t, err)
	defer a.Close()

	pkg := runPackage(t, a)
	assert.Equal(t, "pkg", pkg.Name)
	assert.Equal(t, ShapeDirect, pkg.Shape)
	assert.Empty(t, pkg.Skipped)

	keys := make([]string, len(pkg.Files))
	for i, f := range pkg.Files {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{
		"pkg/__init__.py",
		"pkg/pyfile.py",
		"pkg/src/ext/__init__.py",
		"pkg/src/ext/ext.py",
		"pkg/subproj/__init__.py",
		"pkg/subproj/help.py",
		"pkg/subproj/main.py",
	}, keys)

	assert.Equal(t, models.Metrics{}, pkg.Files[0].Metrics)
	assert.Equal(t, exampleMetrics, pkg.Files[1].Metrics)
	assert.Equal(t, models.Metrics{Lines: 1, BlankLines: 1}, pkg.Files[2].Metrics)
}

func TestRun_Grouped(t *testing.T) {
	a, err := Open(testutil.MemPackage(t, "pkg"), "pkg")
	require.NoError(t, err)

	grouped := runPackage(t, a).Grouped()
	assert.Equal(t, models.Metrics{
		Lines:                 514,
		NumberOfFunctions:     44,
		AverageFunctionLength: 3,
		DocstringLines:        116,
		CommentLines:          12,
		BlankLines:            130,
		SourceLines:           256,
		SourceFiles:           7,
	}, grouped)
}

func TestRun_OpenDir(t *testing.T) {
	root := testutil.DiskPackage(t, "pkg")

	a, err := OpenDir(root)
	require.NoError(t, err)
	assert.Equal(t, "pkg", a.Name())

	pkg := runPackage(t, a)
	require.Len(t, pkg.Files, 7)
	assert.Equal(t, 514, pkg.Grouped().Lines)
}

func TestRun_Wrapped(t *testing.T) {
	fs := testutil.MemFS()
	example := testutil.ExampleSource(t)
	testutil.CreateFileTree(t, fs, "project", map[string]string{
		"src/mylib/__init__.py": "",
		"src/mylib/core.py":     example,
	})
	testutil.CreateFileTree(t, fs, "project/src", map[string]string{
		".hidden/notes.py": "x = 1\n",
	})

	a, err := Open(fs, "project/src")
	require.NoError(t, err)
	assert.Equal(t, ShapeWrapped, a.Shape())

	pkg := runPackage(t, a)
	require.Len(t, pkg.Files, 3)
	assert.Equal(t, "src/.hidden/notes.py", pkg.Files[0].Key)
	assert.Equal(t, "src/mylib/core.py", pkg.Files[2].Key)
}

func TestRun_SkipsBrokenFiles(t *testing.T) {
	fs := testutil.MemPackage(t, "pkg")
	testutil.WriteFile(t, fs, "pkg/broken.py", "def broken(x y):\n    pass\n")
	testutil.WriteFile(t, fs, "pkg/unterminated.py", "x = '''never closed\n")

	var mu sync.Mutex
	var reported []string
	a, err := Open(fs, "pkg", WithErrorHandler(func(path string, err error) {
		mu.Lock()
		reported = append(reported, path)
		mu.Unlock()
	}))
	require.NoError(t, err)

	pkg := runPackage(t, a)
	assert.Len(t, pkg.Files, 7)
	assert.Len(t, reported, 2)
	require.Len(t, pkg.Skipped, 2)
	assert.Equal(t, "pkg/broken.py", pkg.Skipped[0].Path)
	assert.True(t, errors.Is(pkg.Skipped[0].Err, parser.ErrSyntax))
	assert.Equal(t, 514, pkg.Grouped().Lines)
}

func TestRun_Excludes(t *testing.T) {
	fs := testutil.MemPackage(t, "pkg")

	a, err := Open(fs, "pkg", WithExclude("subproj/"))
	require.NoError(t, err)
	assert.Len(t, runPackage(t, a).Files, 4)

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = append(cfg.Exclude.Patterns, "ext.py")
	a, err = Open(fs, "pkg", WithConfig(cfg))
	require.NoError(t, err)
	assert.Len(t, runPackage(t, a).Files, 6)
}

func TestRun_SubpackageNamedLikeExcludedDir(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "pip", map[string]string{
		"__init__.py":                  "",
		"operations/__init__.py":       "",
		"operations/build/__init__.py": "",
		"operations/build/metadata.py": "def generate():\n    return 1\n",
		"operations/dist/wheel.py":     "def build_wheel():\n    return 2\n",
	})

	a, err := Open(fs, "pip")
	require.NoError(t, err)
	pkg := runPackage(t, a)

	keys := make([]string, len(pkg.Files))
	for i, f := range pkg.Files {
		keys[i] = f.Key
	}
	assert.Equal(t, []string{
		"pip/__init__.py",
		"pip/operations/__init__.py",
		"pip/operations/build/__init__.py",
		"pip/operations/build/metadata.py",
	}, keys)

	grouped := pkg.Grouped()
	assert.Equal(t, 4, grouped.SourceFiles)
	assert.Equal(t, 1, grouped.NumberOfFunctions)
}

func TestRun_MemoHits(t *testing.T) {
	memo := cache.NewMemo[models.Metrics]()
	a, err := Open(testutil.MemPackage(t, "pkg"), "pkg", WithWorkers(1), WithMemo(memo))
	require.NoError(t, err)

	runPackage(t, a)

	// Four copies of the example and two identical "\n" markers.
	s := memo.Stats()
	assert.Equal(t, 3, s.Entries)
	assert.Equal(t, 3, s.Misses)
	assert.Equal(t, 4, s.Hits)
}

func TestRun_Nested(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "pkg", map[string]string{
		"__init__.py": "",
		"mod.py":      "def outer():\n    def inner():\n        return 1\n    return inner\n",
	})

	a, err := Open(fs, "pkg")
	require.NoError(t, err)
	assert.Equal(t, 2, runPackage(t, a).Grouped().NumberOfFunctions)

	cfg := config.DefaultConfig()
	cfg.Analysis.IncludeNested = false
	a, err = Open(fs, "pkg", WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, 1, runPackage(t, a).Grouped().NumberOfFunctions)
}

func TestRun_Progress(t *testing.T) {
	fs := testutil.MemPackage(t, "pkg")
	testutil.WriteFile(t, fs, "pkg/broken.py", "def broken(x y):\n    pass\n")
	a, err := Open(fs, "pkg")
	require.NoError(t, err)

	var mu sync.Mutex
	var last analyzer.Progress
	tracker := analyzer.NewTracker(func(p analyzer.Progress) {
		mu.Lock()
		defer mu.Unlock()
		if p.Done > last.Done {
			last = p
		}
	})

	_, err = a.Run(analyzer.WithTracker(context.Background(), tracker))
	require.NoError(t, err)
	assert.Equal(t, 8, last.Done)
	assert.Equal(t, 8, last.Total)
	assert.Equal(t, 1, tracker.Failed())
}

func TestRun_Cancelled(t *testing.T) {
	a, err := Open(testutil.MemPackage(t, "pkg"), "pkg")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.Run(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPackage_Report(t *testing.T) {
	a, err := Open(testutil.MemPackage(t, "pkg"), "pkg")
	require.NoError(t, err)
	pkg := runPackage(t, a)

	data := pkg.Report(false, false).Data()
	files, ok := data["pkg"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, files, 7)
	rec := files["pkg/subproj/main.py"].(map[string]any)
	assert.Equal(t, 64, rec["source_lines"])

	grouped := pkg.Report(true, true).Data()["pkg"].(map[string]any)
	assert.Equal(t, 7, grouped["source_files"])
	assert.Equal(t, "49.81%", grouped["source_lines"])
	assert.Equal(t, 514, grouped["lines"])
}

func TestPackage_GroupedEmpty(t *testing.T) {
	p := &Package{Name: "empty"}
	assert.Equal(t, models.Metrics{}, p.Grouped())
}

func TestPackage_GroupedWeightsFileAverages(t *testing.T) {
	fs := testutil.MemFS()
	testutil.CreateFileTree(t, fs, "mixed", map[string]string{
		"__init__.py": "",
		"long.py":     "def f():\n    x = 1\n    y = 2\n    z = 3\n    return x\n",
		"short.py":    "def g():\n    return 1\ndef h():\n    return 2\n",
	})

	a, err := Open(fs, "mixed")
	require.NoError(t, err)
	pkg := runPackage(t, a)
	require.Len(t, pkg.Files, 3)

	avgs := map[string]int{}
	for _, f := range pkg.Files {
		avgs[f.Key] = f.Metrics.AverageFunctionLength
	}
	assert.Equal(t, 4, avgs["mixed/long.py"])
	assert.Equal(t, 1, avgs["mixed/short.py"])

	// Weighting by lines gives (4*5 + 1*4) / 9, which rounds to 3. Averaging
	// over all three functions would give 2, as would the plain mean of the
	// file averages.
	grouped := pkg.Grouped()
	assert.Equal(t, 3, grouped.NumberOfFunctions)
	assert.Equal(t, 9, grouped.Lines)
	assert.Equal(t, 3, grouped.AverageFunctionLength)
}
