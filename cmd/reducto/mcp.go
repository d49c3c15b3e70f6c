package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reducto/internal/mcpserver"
	"github.com/panbanda/reducto/internal/service/analysis"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes reducto's
analyzers as tools that LLMs can invoke.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "reducto": {
        "command": "reducto",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_file      Line composition of one Python file
  - analyze_package   Line composition of a Python package, per file or grouped`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the server.json manifest for the MCP registry",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version,
		analysis.WithConfig(loaded.Config),
		analysis.WithProgress(false),
	)
	return server.Run(c.Context)
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
