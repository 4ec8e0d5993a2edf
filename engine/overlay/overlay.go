// Package overlay draws a selected region onto a rendered page raster.
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/drummonds/bboxpick/engine/bbox"
)

// Red is the default outline colour
var Red = color.NRGBA{R: 255, A: 255}

// Style controls how the region outline is drawn
type Style struct {
	Color color.Color
	// StrokePoints is the outline width in points; it scales with zoom
	StrokePoints float64
	// Label is printed next to the box when set
	Label string
}

// DefaultStyle is a 2pt red outline
func DefaultStyle() Style {
	return Style{Color: Red, StrokePoints: 2}
}

// Draw returns a copy of page with box outlined. page must have been
// rendered at zoom pixels per point; it is not modified.
func Draw(page image.Image, box bbox.BBox, zoom float64, style Style) *image.NRGBA {
	dst := imaging.Clone(page)
	if style.Color == nil {
		style.Color = Red
	}
	if zoom <= 0 {
		zoom = 1
	}

	r := box.Normalize().Scale(zoom)
	stroke := math.Max(1, style.StrokePoints*zoom)
	half := stroke / 2

	outer := image.Rect(
		int(math.Floor(r.X0-half)), int(math.Floor(r.Y0-half)),
		int(math.Ceil(r.X1+half)), int(math.Ceil(r.Y1+half)),
	)
	inner := image.Rect(
		int(math.Round(r.X0+half)), int(math.Round(r.Y0+half)),
		int(math.Round(r.X1-half)), int(math.Round(r.Y1-half)),
	)

	src := image.NewUniform(style.Color)
	strokeRect(dst, outer, inner, src)

	if label := strings.TrimSpace(style.Label); label != "" {
		drawLabel(dst, label, outer, src)
	}
	return dst
}

// strokeRect paints the ring between outer and inner, clipped to dst
func strokeRect(dst draw.Image, outer, inner image.Rectangle, src image.Image) {
	bounds := dst.Bounds()
	if inner.Empty() {
		draw.Draw(dst, outer.Intersect(bounds), src, image.Point{}, draw.Over)
		return
	}
	strips := []image.Rectangle{
		image.Rect(outer.Min.X, outer.Min.Y, outer.Max.X, inner.Min.Y), // top
		image.Rect(outer.Min.X, inner.Max.Y, outer.Max.X, outer.Max.Y), // bottom
		image.Rect(outer.Min.X, inner.Min.Y, inner.Min.X, inner.Max.Y), // left
		image.Rect(inner.Max.X, inner.Min.Y, outer.Max.X, inner.Max.Y), // right
	}
	for _, s := range strips {
		draw.Draw(dst, s.Intersect(bounds), src, image.Point{}, draw.Over)
	}
}

// drawLabel prints text above the box, or just inside it when the box
// touches the top of the page
func drawLabel(dst draw.Image, text string, box image.Rectangle, src image.Image) {
	face := basicfont.Face7x13
	metrics := face.Metrics()
	lineHeight := (metrics.Ascent + metrics.Descent).Ceil()

	x := box.Min.X
	y := box.Min.Y - 3 // baseline
	if y-lineHeight < dst.Bounds().Min.Y {
		y = box.Min.Y + lineHeight + 2
	}
	if x < dst.Bounds().Min.X {
		x = dst.Bounds().Min.X
	}

	d := &font.Drawer{
		Dst:  dst,
		Src:  src,
		Face: face,
		Dot:  fixed.P(x+2, y),
	}
	d.DrawString(text)
}

// Fit scales img down to maxWidth pixels wide, keeping the aspect ratio.
// It returns img unchanged when maxWidth is zero or the image is narrower.
func Fit(img image.Image, maxWidth int) image.Image {
	if maxWidth <= 0 || img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
}

// ParseColor reads #rgb or #rrggbb
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
