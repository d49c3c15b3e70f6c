// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/panbanda/reducto/pkg/parser"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

func (e *ProcessingErrors) sort() {
	sort.SliceStable(e.Errors, func(i, j int) bool {
		return e.Errors[i].Path < e.Errors[j].Path
	})
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrorFunc is called when a file processing error occurs.
// Receives the file path and the error.
type ErrorFunc func(path string, err error)

// Options tune MapFiles.
type Options struct {
	// Workers caps concurrency. Values <= 0 select DefaultWorkers.
	Workers    int
	OnProgress ProgressFunc
	OnError    ErrorFunc
}

type slot[T any] struct {
	value T
	ok    bool
}

// MapFiles processes files in parallel, calling fn for each file with the
// parser owned by the worker running it. No two calls share a parser at the
// same time. Successful results are returned in the order of files,
// regardless of completion order. Failed files are left out of the results,
// reported to opts.OnError and collected in the returned ProcessingErrors,
// which is nil when every file succeeded. Cancelling ctx stops scheduling
// new files; those are recorded with the context error.
func MapFiles[T any](ctx context.Context, files []string, opts Options, fn func(*parser.Parser, string) (T, error)) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	slots := make([]slot[T], len(files))
	errs := &ProcessingErrors{}

	fail := func(path string, err error) {
		errs.Add(path, err)
		if opts.OnError != nil {
			opts.OnError(path, err)
		}
	}

	workers = min(workers, len(files))

	// One parser per worker, handed out through a channel.
	parsers := make(chan *parser.Parser, workers)
	for range workers {
		parsers <- parser.New()
	}
	defer func() {
		close(parsers)
		for psr := range parsers {
			psr.Close()
		}
	}()

	p := pool.New().WithMaxGoroutines(workers)
	for i, path := range files {
		p.Go(func() {
			if opts.OnProgress != nil {
				defer opts.OnProgress()
			}

			if err := ctx.Err(); err != nil {
				fail(path, err)
				return
			}

			psr := <-parsers
			defer func() { parsers <- psr }()

			result, err := fn(psr, path)
			if err != nil {
				fail(path, err)
				return
			}
			slots[i] = slot[T]{value: result, ok: true}
		})
	}
	p.Wait()

	results := make([]T, 0, len(files))
	for _, s := range slots {
		if s.ok {
			results = append(results, s.value)
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	errs.sort()
	return results, errs
}
