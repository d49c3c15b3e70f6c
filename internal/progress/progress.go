package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// Tracker wraps a progress bar for file processing. A Tracker created while
// stderr is not a terminal renders nothing; its methods are still safe to call.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer
}

// IsTerminal reports whether stderr is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int) *Tracker {
	return newTracker(label, total, os.Stderr, IsTerminal())
}

func newTracker(label string, total int, out io.Writer, enabled bool) *Tracker {
	t := &Tracker{label: label, out: out}
	if !enabled {
		return t
	}
	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return t
}

// Enabled reports whether the tracker renders anything.
func (t *Tracker) Enabled() bool {
	return t != nil && t.bar != nil
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	if !t.Enabled() {
		return
	}
	_ = t.bar.Add(1)
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	if !t.Enabled() {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	if t == nil {
		return
	}
	if t.bar != nil {
		_ = t.bar.Finish()
		_ = t.bar.Clear()
	}
	fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
}
