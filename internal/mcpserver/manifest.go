package mcpserver

import (
	"encoding/json"
	"strings"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	publisherMeta  = "io.modelcontextprotocol.registry/publisher-provided"
)

// Manifest is the server.json document published to the MCP registry.
type Manifest struct {
	Schema      string         `json:"$schema"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Version     string         `json:"version"`
	Repository  *Repository    `json:"repository,omitempty"`
	Packages    []Package      `json:"packages,omitempty"`
	Meta        map[string]any `json:"_meta,omitempty"`
}

// Repository contains source repository information.
type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package describes one way to install and run the server.
type Package struct {
	RegistryType     string     `json:"registryType"`
	Identifier       string     `json:"identifier"`
	Version          string     `json:"version,omitempty"`
	PackageArguments []Argument `json:"packageArguments,omitempty"`
	Transport        Transport  `json:"transport"`
}

// Argument is a command-line argument passed to the package.
type Argument struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Transport describes the communication method.
type Transport struct {
	Type string `json:"type"`
}

// ToolSummary is the publisher-provided listing of one tool.
type ToolSummary struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// Tools lists the tools the server registers, with the first line of each
// description.
func Tools() []ToolSummary {
	return []ToolSummary{
		{Name: "analyze_file", Summary: firstLine(describeFile())},
		{Name: "analyze_package", Summary: firstLine(describePackage())},
	}
}

// GenerateManifest renders the server.json manifest for version.
func GenerateManifest(version string) ([]byte, error) {
	version = strings.TrimPrefix(version, "v")
	if version == "" || version == "dev" {
		version = "0.0.0"
	}

	args := []Argument{{Type: "positional", Value: "mcp"}}
	manifest := Manifest{
		Schema:      manifestSchema,
		Name:        "io.github.panbanda/reducto",
		Description: "Line composition of Python files and packages: docstrings, comments, blanks, source and function length",
		Version:     version,
		Repository: &Repository{
			URL:    "https://github.com/panbanda/reducto",
			Source: "github",
		},
		Packages: []Package{
			{
				RegistryType:     "oci",
				Identifier:       "ghcr.io/panbanda/reducto:" + version,
				PackageArguments: args,
				Transport:        Transport{Type: "stdio"},
			},
			{
				RegistryType:     "go",
				Identifier:       "github.com/panbanda/reducto/cmd/reducto",
				Version:          "v" + version,
				PackageArguments: args,
				Transport:        Transport{Type: "stdio"},
			},
		},
		Meta: map[string]any{
			publisherMeta: map[string]any{"tools": Tools()},
		},
	}

	return json.MarshalIndent(manifest, "", "  ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
