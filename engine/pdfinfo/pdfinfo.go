// Package pdfinfo reads page geometry and positioned text from PDF bytes
// without rasterising them.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/drummonds/bboxpick/engine/bbox"
	"github.com/ledongthuc/pdf"
)

var (
	// ErrNotPDF is returned when the bytes do not carry a PDF header
	ErrNotPDF = errors.New("file is not a PDF document")
	// ErrNoPages is returned for documents without any page
	ErrNoPages = errors.New("PDF has no pages")
)

// Info describes the first page of a document
type Info struct {
	PageCount int           `json:"pageCount"`
	Page      bbox.PageSize `json:"page"`
	Rotate    int           `json:"rotate"`
	// box is the unrotated visible box (CropBox or MediaBox) in user space
	box [4]float64
}

// Word is a run of text on the page with its bounding box in
// top-left-origin point space
type Word struct {
	Text string    `json:"text"`
	Box  bbox.BBox `json:"bbox"`
}

// IsPDF reports whether data starts with a PDF header
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

// Inspect returns the page count and displayed size of page 1
func Inspect(data []byte) (info Info, err error) {
	reader, err := open(data)
	if err != nil {
		return Info{}, err
	}
	defer recoverInto(&err)

	info.PageCount = reader.NumPage()
	if info.PageCount == 0 {
		return Info{}, ErrNoPages
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return Info{}, ErrNoPages
	}

	info.box = visibleBox(page.V)
	info.Rotate = normalizeRotation(inherited(page.V, "Rotate").Int64())

	box := info.box
	width := box[2] - box[0]
	height := box[3] - box[1]
	if info.Rotate == 90 || info.Rotate == 270 {
		width, height = height, width
	}
	info.Page = bbox.PageSize{Width: round3(width), Height: round3(height)}
	return info, nil
}

// Words extracts the text of the 1-based page number as word boxes, sorted in
// reading order. Pages without a text layer return an empty slice.
func Words(data []byte, pageNum int) (words []Word, err error) {
	reader, err := open(data)
	if err != nil {
		return nil, err
	}
	defer recoverInto(&err)

	if pageNum < 1 || pageNum > reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", pageNum, reader.NumPage())
	}
	page := reader.Page(pageNum)

	info := Info{box: visibleBox(page.V)}
	info.Rotate = normalizeRotation(inherited(page.V, "Rotate").Int64())

	glyphs := page.Content().Text
	for _, run := range groupWords(glyphs) {
		words = append(words, Word{Text: run.text, Box: info.toDisplay(run.box)})
	}
	sort.SliceStable(words, func(i, j int) bool {
		a, b := words[i].Box, words[j].Box
		if math.Abs(a.Y0-b.Y0) > 2 {
			return a.Y0 < b.Y0
		}
		return a.X0 < b.X0
	})
	return words, nil
}

func open(data []byte) (reader *pdf.Reader, err error) {
	if !IsPDF(data) {
		return nil, ErrNotPDF
	}
	defer recoverInto(&err)
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("unable to read PDF document: %w", err)
	}
	return reader, nil
}

// recoverInto turns a panic from the object reader into an error; malformed
// files make it index past the end of arrays
func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("malformed PDF: %v", r)
	}
}

// inherited looks a key up on the page and then on its ancestors
func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; depth < 32 && !v.IsNull(); depth++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

// visibleBox is the CropBox, falling back to the MediaBox
func visibleBox(v pdf.Value) [4]float64 {
	if box, ok := pageBox(v, "CropBox"); ok {
		return box
	}
	if box, ok := pageBox(v, "MediaBox"); ok {
		return box
	}
	// PDF 1.7 default for a missing MediaBox is US Letter
	return [4]float64{0, 0, 612, 792}
}

func pageBox(v pdf.Value, key string) ([4]float64, bool) {
	arr := inherited(v, key)
	if arr.Kind() != pdf.Array || arr.Len() != 4 {
		return [4]float64{}, false
	}
	var box [4]float64
	for i := 0; i < 4; i++ {
		box[i] = arr.Index(i).Float64()
	}
	// corners may come in any order
	if box[0] > box[2] {
		box[0], box[2] = box[2], box[0]
	}
	if box[1] > box[3] {
		box[1], box[3] = box[3], box[1]
	}
	if box[2]-box[0] <= 0 || box[3]-box[1] <= 0 {
		return [4]float64{}, false
	}
	return box, true
}

func normalizeRotation(r int64) int {
	rot := int(r % 360)
	if rot < 0 {
		rot += 360
	}
	// only multiples of 90 are legal
	return rot - rot%90
}

// toDisplay maps a box in PDF user space (bottom-left origin) onto the
// rendered page, which has a top-left origin and the page rotation applied
func (info Info) toDisplay(user bbox.BBox) bbox.BBox {
	w := info.box[2] - info.box[0]
	h := info.box[3] - info.box[1]

	// unrotated, top-left origin
	b := bbox.BBox{
		X0: user.X0 - info.box[0],
		Y0: h - (user.Y1 - info.box[1]),
		X1: user.X1 - info.box[0],
		Y1: h - (user.Y0 - info.box[1]),
	}

	switch info.Rotate {
	case 90:
		b = bbox.BBox{X0: h - b.Y1, Y0: b.X0, X1: h - b.Y0, Y1: b.X1}
	case 180:
		b = bbox.BBox{X0: w - b.X1, Y0: h - b.Y1, X1: w - b.X0, Y1: h - b.Y0}
	case 270:
		b = bbox.BBox{X0: b.Y0, Y0: w - b.X1, X1: b.Y1, Y1: w - b.X0}
	}
	b = b.Normalize()
	return bbox.BBox{X0: round3(b.X0), Y0: round3(b.Y0), X1: round3(b.X1), Y1: round3(b.Y1)}
}

type wordRun struct {
	text string
	box  bbox.BBox // user space, Y0 < Y1
}

// groupWords merges positioned glyphs into words. A word ends on whitespace,
// on a baseline change, or when the gap to the next glyph exceeds a quarter
// of the font size.
func groupWords(glyphs []pdf.Text) []wordRun {
	var runs []wordRun
	var cur strings.Builder
	var box bbox.BBox
	var lastEnd, lastY, lastSize float64
	inWord := false

	flush := func() {
		if inWord && strings.TrimSpace(cur.String()) != "" {
			runs = append(runs, wordRun{text: cur.String(), box: box})
		}
		cur.Reset()
		inWord = false
	}

	for _, g := range glyphs {
		size := g.FontSize
		if size <= 0 {
			size = 1
		}
		if strings.TrimFunc(g.S, unicode.IsSpace) == "" {
			flush()
			continue
		}
		if inWord {
			sameLine := math.Abs(g.Y-lastY) < lastSize*0.5
			gap := g.X - lastEnd
			if !sameLine || gap > lastSize*0.25 || gap < -lastSize {
				flush()
			}
		}
		glyphBox := bbox.BBox{X0: g.X, Y0: g.Y - 0.2*size, X1: g.X + g.W, Y1: g.Y + 0.8*size}
		if !inWord {
			box = glyphBox
			inWord = true
		} else {
			box = box.Union(glyphBox)
		}
		cur.WriteString(g.S)
		lastEnd = g.X + g.W
		lastY = g.Y
		lastSize = size
	}
	flush()
	return runs
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
