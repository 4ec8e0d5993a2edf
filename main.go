package main

import (
	"embed"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/bboxpick/config"
	engine "github.com/drummonds/bboxpick/engine"
	"github.com/drummonds/bboxpick/engine/pdfrenderer"
	"github.com/drummonds/bboxpick/webapp"
)

//go:embed webapp/webapp.css
var webappFS embed.FS

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	renderer, err := pdfrenderer.NewRenderer(serverConfig.RenderBackend)
	if err != nil {
		Logger.Error("Unable to create PDF renderer", "backend", serverConfig.RenderBackend, "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	e, serverHandler := newServer(serverConfig, renderer)
	Logger.Info("Echo created")

	if err := serverHandler.StartupChecks(); err != nil { //Run all the sanity checks
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	Logger.Info("Startup checks complete")
	if err := serverHandler.InitializeSchedules(); err != nil {
		Logger.Error("Unable to start schedules", "error", err)
		os.Exit(1)
	}
	defer serverHandler.StopSchedules()

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No Ip Addr set, binding on ALL addresses")
	}
	Logger.Info("Starting HTTP server")
	startWithRetry(e, &serverConfig)
}

// newServer builds the echo instance with the API, the static assets and the
// go-app UI
func newServer(serverConfig config.ServerConfig, renderer pdfrenderer.Renderer) (*echo.Echo, *engine.ServerHandler) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = engine.HTTPErrorHandler(e, "/api/")

	serverHandler := &engine.ServerHandler{
		Echo:         e,
		ServerConfig: serverConfig,
		Previewer:    engine.NewPreviewer(renderer, serverConfig),
		Sessions:     engine.NewSessionStore(serverConfig.SessionTTL, serverConfig.SessionMax),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			Logger.Debug("request", "method", v.Method, "path", v.URIPath, "status", v.Status, "latency", v.Latency.String())
			return nil
		},
	}))

	serverHandler.AddRoutes()

	Logger.Info("Setting up go-app WASM UI")
	appHandler := webapp.Handler()

	// app.wasm and wasm_exec.js are built separately and served from WEB_DIR
	e.GET("/wasm_exec.js", func(c echo.Context) error {
		return c.File(filepath.Join(serverConfig.WebDir, "wasm_exec.js"))
	})
	e.Static("/web", serverConfig.WebDir)

	// Register go-app specific resources
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))

	e.GET("/webapp/webapp.css", func(c echo.Context) error {
		data, err := webappFS.ReadFile("webapp/webapp.css")
		if err != nil {
			return c.String(http.StatusNotFound, "webapp.css not found")
		}
		return c.Blob(http.StatusOK, "text/css", data)
	})

	// Inject backend API URL into the page
	e.GET("/config.js", func(c echo.Context) error {
		c.Response().Header().Set("Content-Type", "application/javascript")
		return c.String(http.StatusOK, webapp.ConfigScript(serverConfig.ServerAPIURL, serverConfig.MaxUploadMB))
	})

	// Unknown API paths must not fall through to the UI
	e.Any("/api/*", func(c echo.Context) error { return echo.ErrNotFound })

	// Serve go-app handler for all other routes (must be last)
	e.Any("/*", echo.WrapHandler(appHandler))

	return e, serverHandler
}

// startWithRetry tries the configured port and the next few after it
func startWithRetry(e *echo.Echo, serverConfig *config.ServerConfig) {
	maxRetries := 5
	startPort := serverConfig.ListenAddrPort
	var startErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
		Logger.Info("Attempting to start server", "address", addr, "attempt", attempt+1)
		fmt.Printf("Open http://localhost:%s in your browser\n", serverConfig.ListenAddrPort)

		startErr = e.Start(addr)

		if startErr != nil && isAddressInUse(startErr) {
			Logger.Warn("Port already in use, trying next port",
				"port", serverConfig.ListenAddrPort,
				"attempt", attempt+1,
				"max_attempts", maxRetries)

			portNum := 0
			fmt.Sscanf(serverConfig.ListenAddrPort, "%d", &portNum)
			portNum++
			serverConfig.ListenAddrPort = fmt.Sprintf("%d", portNum)

			if attempt == maxRetries-1 {
				Logger.Error("Failed to find available port after maximum retries",
					"start_port", startPort,
					"end_port", serverConfig.ListenAddrPort,
					"max_retries", maxRetries)
				os.Exit(1)
			}
		} else if startErr != nil && startErr != http.ErrServerClosed {
			Logger.Error("Failed to start server", "error", startErr)
			os.Exit(1)
		} else {
			break
		}
	}

	if startErr == nil && serverConfig.ListenAddrPort != startPort {
		Logger.Warn("Server started on alternative port due to conflicts",
			"requested_port", startPort,
			"actual_port", serverConfig.ListenAddrPort)
	}
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "address already in use")
}
