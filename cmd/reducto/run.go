package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/panbanda/reducto/internal/output"
	"github.com/panbanda/reducto/internal/service/analysis"
	"github.com/panbanda/reducto/pkg/config"
)

// DefaultReportName is the file the json report is written to when no
// output path is given.
const DefaultReportName = "reducto_report.json"

// RunConfig is everything one analysis run needs. Flags and the config file
// are merged into it before Run is called.
type RunConfig struct {
	Path       string
	Ref        string
	Format     output.Format
	Output     string
	Grouped    bool
	Percentage bool
	Exclude    []string
	Workers    int
	Verbose    bool
	Color      bool
	Progress   bool
	Config     *config.Config

	// Stdout receives reports that are not written to a file, and Stderr
	// receives diagnostics. Both default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// outputPath returns where the report goes, or "" for stdout. The json
// default is resolved against the working directory at call time.
func (rc RunConfig) outputPath() (string, error) {
	if rc.Output != "" || rc.Format != output.FormatJSON {
		return rc.Output, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return filepath.Join(cwd, DefaultReportName), nil
}

// Run analyzes rc.Path and writes the report.
func Run(ctx context.Context, rc RunConfig) error {
	if rc.Config == nil {
		rc.Config = config.DefaultConfig()
	}
	if rc.Stdout == nil {
		rc.Stdout = os.Stdout
	}
	if rc.Stderr == nil {
		rc.Stderr = os.Stderr
	}

	msg := output.NewWriterFormatter(output.FormatText, rc.Stderr, rc.Color)

	opts := []analysis.Option{
		analysis.WithConfig(rc.Config),
		analysis.WithProgress(rc.Progress),
	}
	if rc.Verbose {
		opts = append(opts, analysis.WithErrorHandler(func(path string, err error) {
			msg.Warning("Skipping %s: %v", path, err)
		}))
	}

	report, err := analysis.New(opts...).Analyze(ctx, analysis.Request{
		Path:       rc.Path,
		Ref:        rc.Ref,
		Grouped:    rc.Grouped,
		Percentage: rc.Percentage,
		Exclude:    rc.Exclude,
		Workers:    rc.Workers,
	})
	if err != nil {
		return err
	}

	outPath, err := rc.outputPath()
	if err != nil {
		return err
	}

	var f *output.Formatter
	if outPath == "" {
		f = output.NewWriterFormatter(rc.Format, rc.Stdout, rc.Color)
	} else {
		f, err = output.NewFormatter(rc.Format, outPath, false)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
	}
	defer f.Close()

	if err := output.WriteReport(f, report); err != nil {
		return err
	}
	if outPath != "" {
		msg.Success("Report written to %s", outPath)
	}
	return nil
}
