package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/drummonds/bboxpick/config"
	"github.com/drummonds/bboxpick/engine/ocr"
	"github.com/drummonds/bboxpick/internal/pdfgen"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	if err := rendererChecks(serverHandler.Previewer); err != nil {
		return err
	}
	ocrChecks(serverHandler.ServerConfig)
	webDirectoryChecks(serverHandler.ServerConfig)
	return nil
}

// rendererChecks renders a blank A4 page and checks its size, so a broken
// backend fails at startup rather than on the first preview
func rendererChecks(previewer *Previewer) error {
	data := pdfgen.Build(pdfgen.A4())
	info, err := previewer.Inspect(data)
	if err != nil {
		Logger.Error("Renderer self-check could not read the test page", "error", err)
		return fmt.Errorf("renderer self-check: %w", err)
	}

	img, err := previewer.Renderer.RenderPage(data, 0, 1)
	if err != nil {
		Logger.Error("Renderer self-check failed", "renderer", previewer.Renderer.Name(), "error", err)
		return fmt.Errorf("renderer self-check: %w", err)
	}
	b := img.Bounds()
	if diff(b.Dx(), int(info.Page.Width)) > 1 || diff(b.Dy(), int(info.Page.Height)) > 1 {
		Logger.Error("Renderer produced an unexpected page size", "renderer", previewer.Renderer.Name(),
			"width", b.Dx(), "height", b.Dy(), "wantWidth", info.Page.Width, "wantHeight", info.Page.Height)
		return fmt.Errorf("renderer self-check: got %dx%d raster for a %.0fx%.0f page", b.Dx(), b.Dy(), info.Page.Width, info.Page.Height)
	}
	Logger.Info("Renderer self-check passed", "renderer", previewer.Renderer.Name(), "width", b.Dx(), "height", b.Dy())
	return nil
}

func ocrChecks(serverConfig config.ServerConfig) {
	switch {
	case !serverConfig.OCREnabled:
		Logger.Info("OCR not enabled, region hints use the PDF text layer only")
	case !ocr.Enabled:
		Logger.Warn("OCR_ENABLED is set but this binary was built without the ocr tag, OCR will be disabled")
	default:
		Logger.Info("OCR enabled", "languages", serverConfig.OCRLanguages)
	}
}

// webDirectoryChecks warns when the WASM bundle is missing; the API still works without it
func webDirectoryChecks(serverConfig config.ServerConfig) {
	if serverConfig.WebDir == "" {
		Logger.Warn("Web directory not configured, the browser UI will not load")
		return
	}
	dirInfo, err := os.Stat(serverConfig.WebDir)
	if err != nil || !dirInfo.IsDir() {
		Logger.Warn("Web directory not found, the browser UI will not load", "path", serverConfig.WebDir, "error", err)
		return
	}
	if _, err := os.Stat(filepath.Join(serverConfig.WebDir, "app.wasm")); err != nil {
		Logger.Warn("app.wasm missing, build it with GOOS=js GOARCH=wasm go build -o web/app.wasm ./cmd/webapp", "path", serverConfig.WebDir)
		return
	}
	Logger.Info("Web directory exists", "path", serverConfig.WebDir)
}

func diff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
