package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"SERVER_PORT", "SERVER_ADDR", "RENDER_BACKEND", "RENDER_ZOOM", "PREVIEW_MAX_WIDTH",
		"MAX_UPLOAD_MB", "SESSION_TTL_MINUTES", "SESSION_MAX", "OVERLAY_COLOR",
		"OVERLAY_STROKE_PT", "OCR_ENABLED", "OCR_LANGUAGES", "WEB_DIR", "SERVER_API_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := loadServerConfig(slog.Default())

	if cfg.ListenAddrPort != "8000" {
		t.Errorf("ListenAddrPort = %s, want 8000", cfg.ListenAddrPort)
	}
	if cfg.RenderBackend != "fitz" {
		t.Errorf("RenderBackend = %s, want fitz", cfg.RenderBackend)
	}
	if cfg.RenderZoom != 2.0 {
		t.Errorf("RenderZoom = %v, want 2.0", cfg.RenderZoom)
	}
	if cfg.MaxUploadBytes() != 32<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes(), 32<<20)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("SessionTTL = %v, want 30m", cfg.SessionTTL)
	}
	if cfg.SessionMax != 64 {
		t.Errorf("SessionMax = %d, want 64", cfg.SessionMax)
	}
	if cfg.OverlayColor != "#ff0000" || cfg.OverlayStrokePt != 2 {
		t.Errorf("overlay = %s/%v, want #ff0000/2", cfg.OverlayColor, cfg.OverlayStrokePt)
	}
	if cfg.OCREnabled {
		t.Error("OCR should be disabled by default")
	}
	if len(cfg.OCRLanguages) != 1 || cfg.OCRLanguages[0] != "eng" {
		t.Errorf("OCRLanguages = %v, want [eng]", cfg.OCRLanguages)
	}
	if !filepath.IsAbs(cfg.WebDir) {
		t.Errorf("WebDir should be absolute, got %s", cfg.WebDir)
	}
}

func TestLoadServerConfigOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("RENDER_BACKEND", "PDFium")
	t.Setenv("RENDER_ZOOM", "1.5")
	t.Setenv("MAX_UPLOAD_MB", "4")
	t.Setenv("SESSION_TTL_MINUTES", "5")
	t.Setenv("OCR_ENABLED", "true")
	t.Setenv("OCR_LANGUAGES", "kor+eng")

	cfg := loadServerConfig(slog.Default())

	if cfg.ListenAddrPort != "9100" {
		t.Errorf("ListenAddrPort = %s, want 9100", cfg.ListenAddrPort)
	}
	if cfg.RenderBackend != "pdfium" {
		t.Errorf("RenderBackend = %s, want pdfium", cfg.RenderBackend)
	}
	if cfg.RenderZoom != 1.5 {
		t.Errorf("RenderZoom = %v, want 1.5", cfg.RenderZoom)
	}
	if cfg.MaxUploadBytes() != 4<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if !cfg.OCREnabled {
		t.Error("OCR should be enabled")
	}
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[0] != "kor" {
		t.Errorf("OCRLanguages = %v, want [kor eng]", cfg.OCRLanguages)
	}
}

func TestLoadServerConfigInvalidValues(t *testing.T) {
	t.Setenv("RENDER_ZOOM", "-3")
	t.Setenv("MAX_UPLOAD_MB", "lots")
	t.Setenv("SESSION_MAX", "0")

	cfg := loadServerConfig(slog.Default())

	if cfg.RenderZoom != 2.0 {
		t.Errorf("negative zoom should fall back to 2.0, got %v", cfg.RenderZoom)
	}
	if cfg.MaxUploadMB != 32 {
		t.Errorf("unparsable MAX_UPLOAD_MB should fall back to 32, got %d", cfg.MaxUploadMB)
	}
	if cfg.SessionMax != 64 {
		t.Errorf("SESSION_MAX 0 should fall back to 64, got %d", cfg.SessionMax)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"loud":  slog.LevelDebug,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLoggingToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	t.Setenv("LOG_OUTPUT", "file")
	t.Setenv("LOG_FILE", logPath)

	logger := setupLogging(nil)
	if logger == nil {
		t.Fatal("Logger should not be nil")
	}
	logger.Info("hello")
}
