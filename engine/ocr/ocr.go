//go:build ocr

// Package ocr finds word boxes on rendered page images with Tesseract, for
// scanned pages that have no text layer.
//
// This implementation wraps gosseract and requires the Tesseract libraries
// at build and run time. On Ubuntu/Debian:
//
//	apt-get install libtesseract-dev tesseract-ocr
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/drummonds/bboxpick/engine/bbox"
	"github.com/drummonds/bboxpick/engine/pdfinfo"
)

// Enabled reports whether OCR support was compiled in
const Enabled = true

// Recognize runs Tesseract over a page rendered at zoom pixels per point and
// returns the recognised words in point space
func Recognize(img image.Image, zoom float64, languages ...string) ([]pdfinfo.Word, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page for OCR: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if len(languages) > 0 {
		if err := client.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(int(72*zoom))); err != nil {
		return nil, fmt.Errorf("set dpi: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	origin := img.Bounds().Min
	words := make([]pdfinfo.Word, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		words = append(words, pdfinfo.Word{
			Text: text,
			Box:  bbox.FromPixels(b.Box.Sub(origin), zoom),
		})
	}
	return words, nil
}
