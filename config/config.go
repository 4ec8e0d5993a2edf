package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP    string
	ListenAddrPort  string
	RenderBackend   string  // fitz or pdfium
	RenderZoom      float64 // pixels per point for previews
	PreviewMaxWidth int     // 0 keeps the full render width
	MaxUploadMB     int
	SessionTTL      time.Duration
	SessionMax      int
	OverlayColor    string
	OverlayStrokePt float64
	OCREnabled      bool
	OCRLanguages    []string
	WebDir          string // directory holding app.wasm and wasm_exec.js
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	ServerAPIURL string
}

// MaxUploadBytes is the upload limit in bytes
func (c ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolVal
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

// loadEnvFiles reads .env style files, silently ignoring missing ones
func loadEnvFiles(extra ...string) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	for _, f := range extra {
		_ = godotenv.Load(f)
	}
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	loadEnvFiles()

	logger := setupLogging(os.Stdout)
	Logger = logger

	serverConfigLive := loadServerConfig(logger)

	fmt.Println("\n========================================")
	fmt.Println("   bboxpick - PDF region coordinate tool")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
	if serverConfigLive.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}
	fmt.Printf("Detailed logs: %s\n", getEnv("LOG_FILE", "bboxpick.log"))
	fmt.Println("Initializing...")

	return serverConfigLive, logger
}

// SetupTool loads configuration for the stdio MCP server. Nothing may be
// written to stdout, so "stdout" log output is redirected to stderr.
func SetupTool() (ServerConfig, *slog.Logger) {
	loadEnvFiles()

	logger := setupLogging(os.Stderr)
	Logger = logger

	return loadServerConfig(logger), logger
}

// SetupFrontend loads configuration for frontend-only server
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	loadEnvFiles("frontend.env")

	logger := setupLogging(os.Stdout)
	Logger = logger

	frontendConfig := FrontEndConfig{}
	frontendConfig.ServerAPIURL = getEnv("SERVER_API_URL", "http://localhost:8000")

	logger.Info("Frontend configuration loaded", "apiURL", frontendConfig.ServerAPIURL)

	return frontendConfig, logger
}

func loadServerConfig(logger *slog.Logger) ServerConfig {
	serverConfigLive := ServerConfig{}

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")

	// Rendering configuration
	serverConfigLive.RenderBackend = strings.ToLower(getEnv("RENDER_BACKEND", "fitz"))
	serverConfigLive.RenderZoom = getEnvFloat("RENDER_ZOOM", 2.0)
	if serverConfigLive.RenderZoom <= 0 {
		logger.Warn("Invalid RENDER_ZOOM, using 2.0", "value", serverConfigLive.RenderZoom)
		serverConfigLive.RenderZoom = 2.0
	}
	serverConfigLive.PreviewMaxWidth = getEnvInt("PREVIEW_MAX_WIDTH", 0)
	logger.Info("Render configuration loaded", "backend", serverConfigLive.RenderBackend, "zoom", serverConfigLive.RenderZoom)

	// Upload sessions
	serverConfigLive.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 32)
	if serverConfigLive.MaxUploadMB <= 0 {
		serverConfigLive.MaxUploadMB = 32
	}
	serverConfigLive.SessionTTL = time.Duration(getEnvInt("SESSION_TTL_MINUTES", 30)) * time.Minute
	if serverConfigLive.SessionTTL <= 0 {
		serverConfigLive.SessionTTL = 30 * time.Minute
	}
	serverConfigLive.SessionMax = getEnvInt("SESSION_MAX", 64)
	if serverConfigLive.SessionMax <= 0 {
		serverConfigLive.SessionMax = 64
	}

	// Overlay drawing
	serverConfigLive.OverlayColor = getEnv("OVERLAY_COLOR", "#ff0000")
	serverConfigLive.OverlayStrokePt = getEnvFloat("OVERLAY_STROKE_PT", 2)

	// OCR configuration
	serverConfigLive.OCREnabled = getEnvBool("OCR_ENABLED", false)
	serverConfigLive.OCRLanguages = splitList(getEnv("OCR_LANGUAGES", "eng"))

	// Static assets for the WASM UI
	webDir, err := filepath.Abs(filepath.ToSlash(getEnv("WEB_DIR", "web")))
	if err != nil {
		logger.Error("Failed creating absolute path for web directory", "error", err)
		webDir = "web"
	}
	serverConfigLive.WebDir = webDir

	// Frontend configuration
	serverConfigLive.FrontEndConfig = FrontEndConfig{
		ServerAPIURL: getEnv("SERVER_API_URL", ""),
	}
	if serverConfigLive.ServerAPIURL == "" {
		logger.Info("Using relative URLs for API calls (frontend will use same host it was served from)")
	}

	return serverConfigLive
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '+' }) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseLevel maps LOG_LEVEL to a slog level, defaulting to debug
func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// setupLogging configures the application logger; console is used when
// LOG_OUTPUT=stdout or the log file cannot be opened
func setupLogging(console io.Writer) *slog.Logger {
	level := parseLevel(getEnv("LOG_LEVEL", "debug"))
	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "file")
	var logWriter io.Writer

	switch logOutput {
	case "stdout":
		logWriter = console
	case "stderr":
		logWriter = os.Stderr
	default:
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "bboxpick.log")))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating log file path: %v\n", err)
			logWriter = console
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
				logWriter = console
			} else {
				logWriter = logFile
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}
