// Package pdfgen builds small, valid single-font PDF files in memory. It
// backs the renderer self-check at startup and the test fixtures.
package pdfgen

import (
	"bytes"
	"fmt"
	"strings"
)

// Text is a line of text placed on the page in PDF user space (bottom-left origin).
type Text struct {
	X, Y float64
	Size float64
	S    string
}

// Options describes the single page to generate.
type Options struct {
	Width, Height float64
	// CropBox, when set, is written as [llx lly urx ury].
	CropBox []float64
	Rotate  int
	// InheritMediaBox puts the MediaBox on the Pages node instead of the Page.
	InheritMediaBox bool
	Texts           []Text
	// Pages is the number of identical pages to emit (default 1).
	Pages int
}

// A4 returns options for an empty A4 portrait page.
func A4() Options {
	return Options{Width: 595, Height: 842}
}

// Build returns the bytes of a PDF described by opts.
func Build(opts Options) []byte {
	if opts.Pages <= 0 {
		opts.Pages = 1
	}

	var content strings.Builder
	for _, t := range opts.Texts {
		size := t.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(&content, "BT /F1 %s Tf %s %s Td (%s) Tj ET\n",
			num(size), num(t.X), num(t.Y), escape(t.S))
	}

	mediaBox := fmt.Sprintf("/MediaBox [0 0 %s %s]", num(opts.Width), num(opts.Height))

	// object 1: catalog, 2: pages, 3: font, 4: content, 5..: pages
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
	}

	kids := make([]string, opts.Pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 5+i)
	}
	pages := fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d", strings.Join(kids, " "), opts.Pages)
	if opts.InheritMediaBox {
		pages += " " + mediaBox
	}
	pages += " >>"
	objects = append(objects, pages)

	widths := make([]string, 0, 95)
	for i := 32; i <= 126; i++ {
		widths = append(widths, "500")
	}
	objects = append(objects, fmt.Sprintf(
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding /FirstChar 32 /LastChar 126 /Widths [%s] >>",
		strings.Join(widths, " ")))

	stream := content.String()
	objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", len(stream), stream))

	for i := 0; i < opts.Pages; i++ {
		var page strings.Builder
		page.WriteString("<< /Type /Page /Parent 2 0 R")
		if !opts.InheritMediaBox {
			page.WriteString(" " + mediaBox)
		}
		if len(opts.CropBox) == 4 {
			fmt.Fprintf(&page, " /CropBox [%s %s %s %s]",
				num(opts.CropBox[0]), num(opts.CropBox[1]), num(opts.CropBox[2]), num(opts.CropBox[3]))
		}
		if opts.Rotate != 0 {
			fmt.Fprintf(&page, " /Rotate %d", opts.Rotate)
		}
		page.WriteString(" /Resources << /Font << /F1 3 0 R >> >> /Contents 4 0 R >>")
		objects = append(objects, page.String())
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}
