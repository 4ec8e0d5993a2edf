package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/bboxpick/config"
	engine "github.com/drummonds/bboxpick/engine"
	"github.com/drummonds/bboxpick/engine/pdfrenderer"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
}

// @title bboxpick Backend API
// @version 1.0
// @description PDF region coordinate picker API - upload a PDF, measure page 1 and preview rectangles drawn on it
// @description Uploads are held in memory only and expire after SESSION_TTL_MINUTES

// @contact.name API Support
// @contact.url https://github.com/drummonds/bboxpick

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @tag.name Documents
// @tag.description Upload sessions and region hints

// @tag.name Previews
// @tag.description Page 1 rasters with and without the selection outline

// @tag.name BBoxes
// @tag.description Copy-paste formatting of regions

// @tag.name Admin
// @tag.description Version and runtime settings

func main() {
	port := flag.String("port", "8000", "Port to run backend server on")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("bboxpick Backend API Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• API-only mode (no frontend)")
	fmt.Println("• All endpoints under /api/*")
	fmt.Println("• CORS enabled for frontend access")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	renderer, err := pdfrenderer.NewRenderer(serverConfig.RenderBackend)
	if err != nil {
		Logger.Error("Unable to create PDF renderer", "backend", serverConfig.RenderBackend, "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	e := echo.New()
	e.HideBanner = true

	// Every path is an API path here
	e.HTTPErrorHandler = engine.HTTPErrorHandler(e, "/")

	serverHandler := engine.ServerHandler{
		Echo:         e,
		ServerConfig: serverConfig,
		Previewer:    engine.NewPreviewer(renderer, serverConfig),
		Sessions:     engine.NewSessionStore(serverConfig.SessionTTL, serverConfig.SessionMax),
	}
	Logger.Info("Initializing backend services...")
	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	if err := serverHandler.InitializeSchedules(); err != nil {
		Logger.Error("Unable to start schedules", "error", err)
		os.Exit(1)
	}
	defer serverHandler.StopSchedules()
	Logger.Info("Backend services initialized")

	// CORS configuration - allow frontend from different origin
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // In production, specify your frontend URL
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// Request logging
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	Logger.Info("Setting up API routes...")
	serverHandler.AddRoutes()

	if *port != "8000" {
		serverConfig.ListenAddrPort = *port
	}

	addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	Logger.Info("Starting Backend API Server", "address", addr)
	fmt.Printf("\nBackend API Server running on %s\n", addr)
	fmt.Printf("API endpoints available at http://%s/api/\n", addr)
	fmt.Printf("Health check: http://%s/health\n\n", addr)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
