// Command mcp serves the coordinate picker tools over MCP stdio.
package main

import (
	"log/slog"
	"os"

	config "github.com/drummonds/bboxpick/config"
	engine "github.com/drummonds/bboxpick/engine"
	"github.com/drummonds/bboxpick/engine/pdfrenderer"
	"github.com/drummonds/bboxpick/mcpserver"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
	mcpserver.Logger = Logger
}

func main() {
	// stdout carries the MCP protocol, so SetupTool keeps logs off it
	serverConfig, logger := config.SetupTool()
	injectGlobals(logger)

	renderer, err := pdfrenderer.NewRenderer(serverConfig.RenderBackend)
	if err != nil {
		Logger.Error("Unable to create PDF renderer", "backend", serverConfig.RenderBackend, "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	s := mcpserver.New(engine.NewPreviewer(renderer, serverConfig), serverConfig)
	if err := s.ServeStdio(); err != nil {
		Logger.Error("MCP server stopped", "error", err)
		os.Exit(1)
	}
}
