// Package analyzer holds the contracts the file and package analyzers
// implement, and the progress tracker a package walk reports through.
package analyzer

import "context"

// SourceAnalyzer analyzes one source file.
type SourceAnalyzer[T any] interface {
	AnalyzeFile(path string) (T, error)
	Close()
}

// FileAnalyzer analyzes the files of one target as a whole. Cancellation and
// progress travel in ctx; see WithTracker.
type FileAnalyzer[T any] interface {
	Analyze(ctx context.Context, files []string) (T, error)
	Close()
}
