package engine

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/drummonds/bboxpick/config"
	"github.com/drummonds/bboxpick/engine/pdfinfo"
)

// blankRenderer renders every page as a white A4-sized raster without
// touching the PDF, so handler tests do not depend on a native backend
type blankRenderer struct {
	width, height float64
	calls         int
}

func (r *blankRenderer) Name() string { return "blank" }

func (r *blankRenderer) PageCount(data []byte) (int, error) {
	if !pdfinfo.IsPDF(data) {
		return 0, errors.New("not a pdf")
	}
	return 1, nil
}

func (r *blankRenderer) RenderPage(data []byte, pageIndex int, zoom float64) (image.Image, error) {
	r.calls++
	if pageIndex != 0 {
		return nil, errors.New("page out of range")
	}
	img := image.NewNRGBA(image.Rect(0, 0, int(math.Round(r.width*zoom)), int(math.Round(r.height*zoom))))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img, nil
}

func (r *blankRenderer) Close() error { return nil }

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		RenderBackend:   "blank",
		RenderZoom:      1,
		MaxUploadMB:     1,
		SessionTTL:      30 * time.Minute,
		SessionMax:      4,
		OverlayColor:    "#ff0000",
		OverlayStrokePt: 2,
	}
}

// newTestHandler wires a ServerHandler with the blank renderer and all routes
func newTestHandler(t *testing.T) (*echo.Echo, *ServerHandler, *blankRenderer) {
	t.Helper()
	Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	renderer := &blankRenderer{width: 595, height: 842}
	serverConfig := testConfig()

	e := echo.New()
	e.HideBanner = true
	serverHandler := &ServerHandler{
		Echo:         e,
		ServerConfig: serverConfig,
		Previewer:    NewPreviewer(renderer, serverConfig),
		Sessions:     NewSessionStore(serverConfig.SessionTTL, serverConfig.SessionMax),
	}
	serverHandler.AddRoutes()
	return e, serverHandler, renderer
}
