package analyzer

import (
	"context"
	"sync/atomic"
)

// Progress is a snapshot taken when a file finishes.
type Progress struct {
	Done   int
	Total  int
	Failed int
	// Path is the file that just finished.
	Path string
}

// ProgressFunc receives a snapshot after every finished file. It may be
// called from several goroutines at once.
type ProgressFunc func(Progress)

// Tracker counts finished and failed files of a walk. It is safe for
// concurrent use.
type Tracker struct {
	total    atomic.Int64
	done     atomic.Int64
	failed   atomic.Int64
	callback ProgressFunc
}

// NewTracker creates a tracker that reports to callback, which may be nil.
func NewTracker(callback ProgressFunc) *Tracker {
	return &Tracker{callback: callback}
}

// SetTotal sets the number of files the walk will finish.
func (t *Tracker) SetTotal(n int) {
	t.total.Store(int64(n))
}

// Finish records path as finished. A non-nil err also counts it as failed.
func (t *Tracker) Finish(path string, err error) {
	failed := t.failed.Load()
	if err != nil {
		failed = t.failed.Add(1)
	}
	done := t.done.Add(1)
	if t.callback != nil {
		t.callback(Progress{
			Done:   int(done),
			Total:  int(t.total.Load()),
			Failed: int(failed),
			Path:   path,
		})
	}
}

// Done returns the number of finished files.
func (t *Tracker) Done() int {
	return int(t.done.Load())
}

// Failed returns the number of finished files that failed.
func (t *Tracker) Failed() int {
	return int(t.failed.Load())
}

// Total returns the number of files expected.
func (t *Tracker) Total() int {
	return int(t.total.Load())
}

type trackerKey struct{}

// WithTracker returns a context that carries t to the analyzer.
func WithTracker(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, trackerKey{}, t)
}

// TrackerFromContext returns the tracker set by WithTracker, or nil.
func TrackerFromContext(ctx context.Context) *Tracker {
	if t, ok := ctx.Value(trackerKey{}).(*Tracker); ok {
		return t
	}
	return nil
}
