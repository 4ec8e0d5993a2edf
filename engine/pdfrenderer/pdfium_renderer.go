package pdfrenderer

import (
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo)
type PDFiumRenderer struct {
	mu       sync.Mutex
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	// A single worker; requests are serialised by mu
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1,
		MaxIdle:  1,
		MaxTotal: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		instance: instance,
	}, nil
}

// Name returns the backend name
func (r *PDFiumRenderer) Name() string {
	return "pdfium"
}

// PageCount opens the document and counts its pages
func (r *PDFiumRenderer) PageCount(pdf []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.open(pdf)
	if err != nil {
		return 0, err
	}
	defer r.closeDocument(doc)

	pageCountResp, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc,
	})
	if err != nil {
		return 0, fmt.Errorf("unable to get page count: %w", err)
	}
	return pageCountResp.PageCount, nil
}

// RenderPage rasterises one page with PDFium
func (r *PDFiumRenderer) RenderPage(pdf []byte, pageIndex int, zoom float64) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.open(pdf)
	if err != nil {
		return nil, err
	}
	defer r.closeDocument(doc)

	pageCountResp, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}
	if pageIndex < 0 || pageIndex >= pageCountResp.PageCount {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", pageIndex+1, pageCountResp.PageCount)
	}

	pageRender, err := r.instance.RenderPageInDPI(&requests.RenderPageInDPI{
		DPI: int(math.Round(dpi(zoom))),
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: doc,
				Index:    pageIndex,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", pageIndex+1, err)
	}
	// The bitmap belongs to the WebAssembly instance until Cleanup
	img := imaging.Clone(pageRender.Result.Image)
	pageRender.Cleanup()

	return img, nil
}

func (r *PDFiumRenderer) open(pdf []byte) (references.FPDF_DOCUMENT, error) {
	if r.instance == nil {
		return "", fmt.Errorf("PDFium renderer is closed")
	}
	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &pdf,
	})
	if err != nil {
		return "", fmt.Errorf("unable to open PDF document: %w", err)
	}
	return doc.Document, nil
}

func (r *PDFiumRenderer) closeDocument(doc references.FPDF_DOCUMENT) {
	r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: doc,
	})
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.instance != nil {
		r.instance.Close()
		r.instance = nil
	}
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	return nil
}
