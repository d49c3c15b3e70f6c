package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/reducto/internal/service/analysis"
)

// Server wraps the MCP server and registers the reducto analysis tools.
type Server struct {
	server *mcp.Server
	svc    *analysis.Service
}

// NewServer creates a new MCP server with all reducto tools registered. The
// options configure the analysis service shared by every tool call.
func NewServer(version string, opts ...analysis.Option) *Server {
	if version == "" {
		version = "dev"
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "reducto",
			Version: version,
		},
		nil,
	)

	s := &Server{
		server: server,
		svc:    analysis.New(opts...),
	}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_file",
		Description: describeFile(),
	}, s.handleAnalyzeFile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_package",
		Description: describePackage(),
	}, s.handleAnalyzePackage)
}
