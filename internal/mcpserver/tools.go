package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/panbanda/reducto/internal/locator"
	"github.com/panbanda/reducto/internal/output"
	"github.com/panbanda/reducto/internal/service/analysis"
)

// AnalyzeInput holds the options shared by both tools.
type AnalyzeInput struct {
	Path       string `json:"path" jsonschema:"Path of the file or package to analyze."`
	Percentage bool   `json:"percentage,omitempty" jsonschema:"Report counts as percentages of the total line count."`
	Ref        string `json:"ref,omitempty" jsonschema:"Git revision to analyze instead of the working tree."`
	Format     string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// FileInput is the input of analyze_file.
type FileInput struct {
	AnalyzeInput
}

// PackageInput is the input of analyze_package.
type PackageInput struct {
	AnalyzeInput
	Grouped bool     `json:"grouped,omitempty" jsonschema:"Sum every file into one package record."`
	Exclude []string `json:"exclude,omitempty" jsonschema:"Gitignore-style patterns of files to skip."`
}

func getFormat(input AnalyzeInput) output.Format {
	switch input.Format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	switch format {
	case output.FormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	case output.FormatMarkdown:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleAnalyzeFile(ctx context.Context, req *mcp.CallToolRequest, input FileInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}

	report, err := s.svc.Analyze(ctx, analysis.Request{
		Path:       input.Path,
		Ref:        input.Ref,
		Percentage: input.Percentage,
		Target:     locator.TargetFile,
	})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report.Data(), getFormat(input.AnalyzeInput))
}

func (s *Server) handleAnalyzePackage(ctx context.Context, req *mcp.CallToolRequest, input PackageInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}

	report, err := s.svc.Analyze(ctx, analysis.Request{
		Path:       input.Path,
		Ref:        input.Ref,
		Grouped:    input.Grouped,
		Percentage: input.Percentage,
		Exclude:    input.Exclude,
		Target:     locator.TargetPackage,
	})
	if err != nil {
		return toolError(err.Error())
	}
	return toolResult(report.Data(), getFormat(input.AnalyzeInput))
}
