// Package mcpserver exposes the coordinate picker as MCP tools so agents can
// measure a PDF and check a masking rectangle without the browser UI.
package mcpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/drummonds/bboxpick/config"
	"github.com/drummonds/bboxpick/engine"
	"github.com/drummonds/bboxpick/internal/build"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// Server is the MCP server for bboxpick
type Server struct {
	mcp       *server.MCPServer
	previewer *engine.Previewer
	maxBytes  int64
}

// New creates and configures a new MCP server with all tools
func New(previewer *engine.Previewer, serverConfig config.ServerConfig) *Server {
	s := &Server{
		previewer: previewer,
		maxBytes:  serverConfig.MaxUploadBytes(),
	}

	s.mcp = server.NewMCPServer(
		"bboxpick-mcp",
		build.Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout
func (s *Server) ServeStdio() error {
	Logger.Info("Starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// readPDF loads a local file under the same limits as an HTTP upload
func (s *Server) readPDF(path string) ([]byte, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return nil, fmt.Errorf("only .pdf files are accepted, got %q", filepath.Base(path))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("file is larger than %d MB", s.maxBytes>>20)
	}
	return data, nil
}

// textResult creates a simple text tool result
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
