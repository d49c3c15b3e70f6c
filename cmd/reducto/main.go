package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reducto/internal/output"
	"github.com/panbanda/reducto/internal/progress"
	"github.com/panbanda/reducto/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "reducto",
		Usage:     "Line composition metrics for Python files and packages",
		Version:   version,
		ArgsUsage: "<path>",
		Description: `Reducto counts the lines of a Python file or package by kind:
docstrings, comments, blank lines and source code. It also reports the
number of functions and their average length.

A package is a directory holding __init__.py, or holding exactly one
subdirectory that does.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"REDUCTO_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, text, markdown, toon, yaml, raw",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file (json defaults to ./reducto_report.json)",
			},
			&cli.BoolFlag{
				Name:    "grouped",
				Aliases: []string{"g"},
				Usage:   "Sum a package into a single record",
			},
			&cli.BoolFlag{
				Name:    "percentage",
				Aliases: []string{"p"},
				Usage:   "Report line counts as percentages of total lines",
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"e"},
				Usage:   "Gitignore-style pattern of files to skip (repeatable)",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Analyze the path as recorded in this git revision",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of files analyzed concurrently (0 = auto)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Report files that were skipped",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Action: runAnalyzeCmd,
		Commands: []*cli.Command{
			initCmd(),
			configCmd(),
			mcpCmd(),
		},
	}
}

// loadConfig loads the file named by --config, or searches the standard
// locations.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

func runAnalyzeCmd(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return fmt.Errorf("expected exactly one path, got %d", c.Args().Len())
	}

	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	formatName := cfg.Output.Format
	if c.IsSet("format") {
		formatName = c.String("format")
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	outPath := cfg.Output.Path
	if c.IsSet("output") {
		outPath = c.String("output")
	}

	rc := RunConfig{
		Path:       c.Args().First(),
		Ref:        c.String("ref"),
		Format:     format,
		Output:     outPath,
		Grouped:    boolFlag(c, "grouped", cfg.Output.Grouped),
		Percentage: boolFlag(c, "percentage", cfg.Output.Percentage),
		Exclude:    c.StringSlice("exclude"),
		Workers:    c.Int("workers"),
		Verbose:    boolFlag(c, "verbose", cfg.Output.Verbose),
		Color:      cfg.Output.Color && !c.Bool("no-color") && !color.NoColor,
		Progress:   progress.IsTerminal(),
		Config:     cfg,
	}
	return Run(c.Context, rc)
}

// boolFlag returns the flag value when it was given on the command line and
// the config value otherwise.
func boolFlag(c *cli.Context, name string, fromConfig bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return fromConfig
}
