package engine

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/drummonds/bboxpick/config"
	"github.com/drummonds/bboxpick/engine/bbox"
	"github.com/drummonds/bboxpick/engine/ocr"
	"github.com/drummonds/bboxpick/engine/overlay"
	"github.com/drummonds/bboxpick/engine/pdfinfo"
	"github.com/drummonds/bboxpick/engine/pdfrenderer"
)

// Word sources for region hints
const (
	WordSourceAuto = "auto"
	WordSourceText = "text"
	WordSourceOCR  = "ocr"
)

// Previewer turns PDF bytes into page previews. It holds no document state:
// every call opens the document, renders page 1 and discards the raster.
type Previewer struct {
	Renderer     pdfrenderer.Renderer
	Zoom         float64
	MaxWidth     int
	Style        overlay.Style
	OCREnabled   bool
	OCRLanguages []string
}

// NewPreviewer builds a Previewer from the server configuration
func NewPreviewer(renderer pdfrenderer.Renderer, serverConfig config.ServerConfig) *Previewer {
	style := overlay.DefaultStyle()
	if c, err := overlay.ParseColor(serverConfig.OverlayColor); err == nil {
		style.Color = c
	} else {
		Logger.Warn("Invalid overlay colour, using red", "colour", serverConfig.OverlayColor, "error", err)
	}
	if serverConfig.OverlayStrokePt > 0 {
		style.StrokePoints = serverConfig.OverlayStrokePt
	}
	return &Previewer{
		Renderer:     renderer,
		Zoom:         pdfrenderer.ClampZoom(serverConfig.RenderZoom, 2),
		MaxWidth:     serverConfig.PreviewMaxWidth,
		Style:        style,
		OCREnabled:   serverConfig.OCREnabled && ocr.Enabled,
		OCRLanguages: serverConfig.OCRLanguages,
	}
}

// Inspect reads the page count and page-1 size. When the object reader
// cannot parse the file the renderer is asked instead and the size is taken
// from a zoom 1 raster.
func (p *Previewer) Inspect(data []byte) (pdfinfo.Info, error) {
	info, err := pdfinfo.Inspect(data)
	if err == nil || errors.Is(err, pdfinfo.ErrNotPDF) || errors.Is(err, pdfinfo.ErrNoPages) {
		return info, err
	}
	Logger.Warn("PDF object reader failed, measuring the rendered page instead", "error", err)

	count, rerr := p.Renderer.PageCount(data)
	if rerr != nil {
		return pdfinfo.Info{}, fmt.Errorf("unable to open PDF document: %w", rerr)
	}
	if count == 0 {
		return pdfinfo.Info{}, pdfinfo.ErrNoPages
	}
	img, rerr := p.Renderer.RenderPage(data, 0, 1)
	if rerr != nil {
		return pdfinfo.Info{}, rerr
	}
	b := img.Bounds()
	return pdfinfo.Info{
		PageCount: count,
		Page:      bbox.PageSize{Width: float64(b.Dx()), Height: float64(b.Dy())},
	}, nil
}

// Page renders page 1 and returns it as PNG
func (p *Previewer) Page(data []byte, zoom float64, maxWidth int) ([]byte, error) {
	img, err := p.Renderer.RenderPage(data, 0, p.zoom(zoom))
	if err != nil {
		return nil, err
	}
	return encodePNG(overlay.Fit(img, p.maxWidth(maxWidth)))
}

// Overlay renders page 1 with box outlined and returns it as PNG. The box is
// checked against page before anything is rendered.
func (p *Previewer) Overlay(data []byte, page bbox.PageSize, box bbox.BBox, label string, zoom float64, maxWidth int) ([]byte, error) {
	if err := box.Validate(page); err != nil {
		return nil, err
	}
	img, err := p.Renderer.RenderPage(data, 0, p.zoom(zoom))
	if err != nil {
		return nil, err
	}

	style := p.Style
	style.Label = label
	drawn := overlay.Draw(img, box, scaleOf(img, page, p.zoom(zoom)), style)
	return encodePNG(overlay.Fit(drawn, p.maxWidth(maxWidth)))
}

// Words returns region hints for page 1. The auto source uses the text
// layer and falls back to OCR when the page has none and OCR is enabled.
func (p *Previewer) Words(data []byte, page bbox.PageSize, source string) ([]pdfinfo.Word, string, error) {
	switch strings.ToLower(source) {
	case "", WordSourceAuto:
		words, err := pdfinfo.Words(data, 1)
		if (err == nil && len(words) > 0) || !p.OCREnabled {
			return words, WordSourceText, err
		}
		ocrWords, ocrErr := p.ocrWords(data, page)
		return ocrWords, WordSourceOCR, ocrErr
	case WordSourceText:
		words, err := pdfinfo.Words(data, 1)
		return words, WordSourceText, err
	case WordSourceOCR:
		if !p.OCREnabled {
			return nil, WordSourceOCR, ocr.ErrOCRNotEnabled
		}
		words, err := p.ocrWords(data, page)
		return words, WordSourceOCR, err
	default:
		return nil, source, fmt.Errorf("unknown word source %q", source)
	}
}

func (p *Previewer) ocrWords(data []byte, page bbox.PageSize) ([]pdfinfo.Word, error) {
	img, err := p.Renderer.RenderPage(data, 0, p.Zoom)
	if err != nil {
		return nil, err
	}
	return ocr.Recognize(img, scaleOf(img, page, p.Zoom), p.OCRLanguages...)
}

func (p *Previewer) zoom(requested float64) float64 {
	return pdfrenderer.ClampZoom(requested, p.Zoom)
}

func (p *Previewer) maxWidth(requested int) int {
	if requested > 0 {
		return requested
	}
	return p.MaxWidth
}

// scaleOf is the raster's pixels per point. Renderers round the raster size,
// so the measured ratio is preferred over the requested zoom.
func scaleOf(img image.Image, page bbox.PageSize, zoom float64) float64 {
	if page.Width > 0 && img.Bounds().Dx() > 0 {
		return float64(img.Bounds().Dx()) / page.Width
	}
	return zoom
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
