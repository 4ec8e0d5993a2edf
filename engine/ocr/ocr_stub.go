//go:build !ocr

// Package ocr finds word boxes on rendered page images with Tesseract.
//
// This is the stub implementation used when the "ocr" build tag is not set.
// Recognize returns ErrOCRNotEnabled. To enable OCR, rebuild with:
//
//	go build -tags ocr
package ocr

import (
	"image"

	"github.com/drummonds/bboxpick/engine/pdfinfo"
)

// Enabled reports whether OCR support was compiled in
const Enabled = false

// Recognize returns ErrOCRNotEnabled
func Recognize(img image.Image, zoom float64, languages ...string) ([]pdfinfo.Word, error) {
	return nil, ErrOCRNotEnabled
}
