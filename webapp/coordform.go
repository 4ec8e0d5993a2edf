package webapp

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/drummonds/bboxpick/engine/bbox"
)

// coordForm is the state behind the coordinate inputs. It lives outside the
// component so the bounds and query building can be tested without a browser.
type coordForm struct {
	page    bbox.PageSize
	box     bbox.BBox
	label   string
	regions []bbox.Region
}

func newCoordForm(page bbox.PageSize) coordForm {
	return coordForm{page: page, box: bbox.DefaultBBox(page)}
}

// max returns the upper bound of a coordinate input
func (f coordForm) max(field string) float64 {
	switch field {
	case "x0", "x1":
		return f.page.Width
	default:
		return f.page.Height
	}
}

func (f coordForm) value(field string) float64 {
	switch field {
	case "x0":
		return f.box.X0
	case "y0":
		return f.box.Y0
	case "x1":
		return f.box.X1
	default:
		return f.box.Y1
	}
}

// set reads a typed value into field, clamping it to [0, max] like the
// browser's bounded number input
func (f *coordForm) set(field, raw string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a number", field)
	}
	v = math.Min(math.Max(v, 0), f.max(field))
	switch field {
	case "x0":
		f.box.X0 = v
	case "y0":
		f.box.Y0 = v
	case "x1":
		f.box.X1 = v
	case "y1":
		f.box.Y1 = v
	default:
		return fmt.Errorf("unknown coordinate %q", field)
	}
	return nil
}

// copyText is the [x0, y0, x1, y1] literal shown for copying
func (f coordForm) copyText() string {
	return f.box.String()
}

// valid reports whether the current box can be previewed
func (f coordForm) valid() error {
	if err := f.box.Validate(f.page); err != nil {
		return err
	}
	if f.box.Empty() {
		return fmt.Errorf("the selection has no area")
	}
	return nil
}

// overlayPath builds the overlay preview URL path for upload id
func (f coordForm) overlayPath(id string, maxWidth, seq int) string {
	q := url.Values{}
	q.Set("x0", strconv.FormatFloat(f.box.X0, 'f', -1, 64))
	q.Set("y0", strconv.FormatFloat(f.box.Y0, 'f', -1, 64))
	q.Set("x1", strconv.FormatFloat(f.box.X1, 'f', -1, 64))
	q.Set("y1", strconv.FormatFloat(f.box.Y1, 'f', -1, 64))
	if label := strings.TrimSpace(f.label); label != "" {
		q.Set("label", label)
	}
	if maxWidth > 0 {
		q.Set("maxWidth", strconv.Itoa(maxWidth))
	}
	// browsers cache img sources by URL
	q.Set("v", strconv.Itoa(seq))
	return documentPath(id) + "/overlay.png?" + q.Encode()
}

// addRegion appends the current box to the region list
func (f *coordForm) addRegion() {
	f.regions = append(f.regions, bbox.Region{Label: strings.TrimSpace(f.label), BBox: f.box.Normalize()})
	f.label = ""
}

func (f *coordForm) removeRegion(i int) {
	if i < 0 || i >= len(f.regions) {
		return
	}
	f.regions = append(f.regions[:i], f.regions[i+1:]...)
}

// useWord loads a hinted word box into the inputs
func (f *coordForm) useWord(w Word) {
	f.box = w.Box.Clamp(f.page).Normalize()
	if f.label == "" {
		f.label = w.Text
	}
}

// snippet is the PAGE_1_BBOXES block for every recorded region
func (f coordForm) snippet() string {
	return bbox.FormatRegions(1, f.regions)
}

// pageBanner describes the page size the way the inputs are bounded
func (f coordForm) pageBanner() string {
	return fmt.Sprintf("Page size: %.1fpt wide x %.1fpt high", f.page.Width, f.page.Height)
}
