package pdfrenderer

import (
	"fmt"
	"image"
	"math"
	"strings"
)

const (
	// MinZoom and MaxZoom bound the raster scale in pixels per point
	MinZoom = 0.5
	MaxZoom = 4.0
)

// Renderer defines the interface for rasterising PDF pages held in memory
type Renderer interface {
	// Name identifies the backend in logs and the about endpoint
	Name() string

	// PageCount returns the number of pages in the document
	PageCount(pdf []byte) (int, error)

	// RenderPage rasterises the 0-based page at zoom pixels per point,
	// so zoom 2 renders at 144 DPI
	RenderPage(pdf []byte, pageIndex int, zoom float64) (image.Image, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// NewRenderer creates the renderer named by backend ("fitz" or "pdfium")
func NewRenderer(backend string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "fitz", "mupdf":
		return NewFitzRenderer()
	case "pdfium":
		return NewPDFiumRenderer()
	default:
		return nil, fmt.Errorf("unknown render backend %q", backend)
	}
}

// ClampZoom keeps zoom within [MinZoom, MaxZoom]; non-positive values map to
// the fallback
func ClampZoom(zoom, fallback float64) float64 {
	if zoom <= 0 || math.IsNaN(zoom) {
		zoom = fallback
	}
	return math.Max(MinZoom, math.Min(MaxZoom, zoom))
}

// dpi converts a zoom factor to dots per inch
func dpi(zoom float64) float64 {
	return 72 * zoom
}
