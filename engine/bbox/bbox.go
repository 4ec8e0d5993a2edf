// Package bbox holds the point-space rectangle model used to pick masking
// regions on a PDF page. Coordinates are PDF points (1/72 inch) with the
// origin at the top-left corner of the displayed page.
package bbox

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// ErrMissingCoordinate is returned by Parse when a coordinate is absent
var ErrMissingCoordinate = errors.New("missing coordinate")

// PageSize is the displayed size of a page in points
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BBox is a rectangle (x0, y0, x1, y1) in point space
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Region is a labelled bbox for the copy-paste snippet
type Region struct {
	Label string `json:"label"`
	BBox
}

// RangeError reports a coordinate outside the page
type RangeError struct {
	Field string
	Value float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s=%s is outside the page range [0, %s]", e.Field, FormatPoint(e.Value), FormatPoint(e.Max))
}

// DefaultBBox returns the starting selection shown after an upload.
// The bottom-right corner starts at (100, 100) unless the page is smaller.
func DefaultBBox(page PageSize) BBox {
	return BBox{
		X1: math.Min(100, page.Width),
		Y1: math.Min(100, page.Height),
	}
}

// Validate checks that every coordinate lies within the page
func (b BBox) Validate(page PageSize) error {
	checks := []struct {
		field string
		value float64
		max   float64
	}{
		{"x0", b.X0, page.Width},
		{"y0", b.Y0, page.Height},
		{"x1", b.X1, page.Width},
		{"y1", b.Y1, page.Height},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || c.value < 0 || c.value > c.max {
			return &RangeError{Field: c.field, Value: c.value, Max: c.max}
		}
	}
	return nil
}

// Clamp pulls every coordinate into the page
func (b BBox) Clamp(page PageSize) BBox {
	clamp := func(v, max float64) float64 {
		if math.IsNaN(v) || v < 0 {
			return 0
		}
		return math.Min(v, max)
	}
	return BBox{
		X0: clamp(b.X0, page.Width),
		Y0: clamp(b.Y0, page.Height),
		X1: clamp(b.X1, page.Width),
		Y1: clamp(b.Y1, page.Height),
	}
}

// Normalize orders the corners so that X0 <= X1 and Y0 <= Y1
func (b BBox) Normalize() BBox {
	if b.X0 > b.X1 {
		b.X0, b.X1 = b.X1, b.X0
	}
	if b.Y0 > b.Y1 {
		b.Y0, b.Y1 = b.Y1, b.Y0
	}
	return b
}

// Empty reports whether the box has no area
func (b BBox) Empty() bool {
	n := b.Normalize()
	return n.X1-n.X0 <= 0 || n.Y1-n.Y0 <= 0
}

// Width of the normalized box
func (b BBox) Width() float64 {
	n := b.Normalize()
	return n.X1 - n.X0
}

// Height of the normalized box
func (b BBox) Height() float64 {
	n := b.Normalize()
	return n.Y1 - n.Y0
}

// Union returns the smallest box covering both
func (b BBox) Union(o BBox) BBox {
	b, o = b.Normalize(), o.Normalize()
	return BBox{
		X0: math.Min(b.X0, o.X0),
		Y0: math.Min(b.Y0, o.Y0),
		X1: math.Max(b.X1, o.X1),
		Y1: math.Max(b.Y1, o.Y1),
	}
}

// Scale multiplies every coordinate by f
func (b BBox) Scale(f float64) BBox {
	return BBox{X0: b.X0 * f, Y0: b.Y0 * f, X1: b.X1 * f, Y1: b.Y1 * f}
}

// Pixels maps the box onto a raster rendered at zoom pixels per point
func (b BBox) Pixels(zoom float64) image.Rectangle {
	n := b.Normalize()
	return image.Rect(
		int(math.Floor(n.X0*zoom)),
		int(math.Floor(n.Y0*zoom)),
		int(math.Ceil(n.X1*zoom)),
		int(math.Ceil(n.Y1*zoom)),
	)
}

// FromPixels converts a raster rectangle back to points
func FromPixels(r image.Rectangle, zoom float64) BBox {
	if zoom <= 0 {
		zoom = 1
	}
	return BBox{
		X0: float64(r.Min.X) / zoom,
		Y0: float64(r.Min.Y) / zoom,
		X1: float64(r.Max.X) / zoom,
		Y1: float64(r.Max.Y) / zoom,
	}
}

// String renders the box as the list literal the masking script expects,
// e.g. [0.0, 0.0, 100.0, 100.0]
func (b BBox) String() string {
	return fmt.Sprintf("[%s, %s, %s, %s]",
		FormatPoint(b.X0), FormatPoint(b.Y0), FormatPoint(b.X1), FormatPoint(b.Y1))
}

// FormatRegions renders all regions of a page as a PAGE_<n>_BBOXES block
func FormatRegions(page int, regions []Region) string {
	if page < 1 {
		page = 1
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "PAGE_%d_BBOXES = [\n", page)
	for _, r := range regions {
		sb.WriteString("    ")
		sb.WriteString(r.BBox.String())
		sb.WriteString(",")
		if label := strings.TrimSpace(r.Label); label != "" {
			sb.WriteString("  # ")
			sb.WriteString(strings.ReplaceAll(label, "\n", " "))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}

// Parse reads x0, y0, x1 and y1 through get (a query or form lookup)
func Parse(get func(string) string) (BBox, error) {
	var vals [4]float64
	for i, key := range []string{"x0", "y0", "x1", "y1"} {
		raw := strings.TrimSpace(get(key))
		if raw == "" {
			return BBox{}, fmt.Errorf("%w: %s", ErrMissingCoordinate, key)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return BBox{}, fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		vals[i] = v
	}
	return BBox{X0: vals[0], Y0: vals[1], X1: vals[2], Y1: vals[3]}, nil
}

// FormatPoint prints a float the way Python's repr does for the values a
// user can enter: integral values keep a trailing ".0".
func FormatPoint(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
