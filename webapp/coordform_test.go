package webapp

import (
	"net/url"
	"strings"
	"testing"

	"github.com/drummonds/bboxpick/engine/bbox"
)

var a4 = bbox.PageSize{Width: 595, Height: 842}

func TestNewCoordFormDefaults(t *testing.T) {
	tests := []struct {
		name string
		page bbox.PageSize
		want string
	}{
		{"A4", a4, "[0.0, 0.0, 100.0, 100.0]"},
		{"Small page", bbox.PageSize{Width: 72, Height: 36}, "[0.0, 0.0, 72.0, 36.0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := newCoordForm(tt.page).copyText(); got != tt.want {
				t.Errorf("copyText() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCoordFormSetClampsToPage(t *testing.T) {
	form := newCoordForm(a4)

	tests := []struct {
		field string
		raw   string
		want  float64
	}{
		{"x0", "12.5", 12.5},
		{"y0", "-4", 0},
		{"x1", "600", 595},
		{"y1", "1000", 842},
		{"y1", " 300 ", 300},
	}
	for _, tt := range tests {
		if err := form.set(tt.field, tt.raw); err != nil {
			t.Fatalf("set(%s, %q): %v", tt.field, tt.raw, err)
		}
		if got := form.value(tt.field); got != tt.want {
			t.Errorf("set(%s, %q) -> %v, want %v", tt.field, tt.raw, got, tt.want)
		}
	}

	if err := form.set("x0", "abc"); err == nil {
		t.Error("expected error for a non-number")
	}
	if err := form.set("z9", "1"); err == nil {
		t.Error("expected error for an unknown field")
	}
	if form.max("x1") != 595 || form.max("y0") != 842 {
		t.Errorf("unexpected bounds %v %v", form.max("x1"), form.max("y0"))
	}
}

func TestCoordFormValid(t *testing.T) {
	form := newCoordForm(a4)
	if err := form.valid(); err != nil {
		t.Errorf("default box should be valid: %v", err)
	}

	form.box = bbox.BBox{X0: 50, Y0: 50, X1: 50, Y1: 90}
	if err := form.valid(); err == nil {
		t.Error("expected error for a box with no width")
	}

	form.box = bbox.BBox{X0: 0, Y0: 0, X1: 700, Y1: 90}
	if err := form.valid(); err == nil {
		t.Error("expected error for a box past the page edge")
	}
}

func TestCoordFormOverlayPath(t *testing.T) {
	form := newCoordForm(a4)
	form.box = bbox.BBox{X0: 10.5, Y0: 20, X1: 110, Y1: 220}
	form.label = "name & date"

	path := form.overlayPath("01ARZ3NDEKTSV4RRFFQ69G5FAV", 1000, 3)
	if !strings.HasPrefix(path, "/api/document/01ARZ3NDEKTSV4RRFFQ69G5FAV/overlay.png?") {
		t.Fatalf("unexpected path %s", path)
	}
	u, err := url.Parse(path)
	if err != nil {
		t.Fatalf("url.Parse: %v", err)
	}
	q := u.Query()
	want := map[string]string{"x0": "10.5", "y0": "20", "x1": "110", "y1": "220", "label": "name & date", "maxWidth": "1000", "v": "3"}
	for k, v := range want {
		if q.Get(k) != v {
			t.Errorf("%s = %q, want %q", k, q.Get(k), v)
		}
	}
}

func TestCoordFormRegions(t *testing.T) {
	form := newCoordForm(a4)
	form.label = "photo"
	form.addRegion()
	if form.label != "" {
		t.Error("label should be cleared after adding a region")
	}

	form.box = bbox.BBox{X0: 300, Y0: 200, X1: 100, Y1: 150}
	form.addRegion()

	want := "PAGE_1_BBOXES = [\n    [0.0, 0.0, 100.0, 100.0],  # photo\n    [100.0, 150.0, 300.0, 200.0],\n]\n"
	if got := form.snippet(); got != want {
		t.Errorf("snippet =\n%s\nwant\n%s", got, want)
	}

	form.removeRegion(0)
	form.removeRegion(5)
	if len(form.regions) != 1 || form.regions[0].Label != "" {
		t.Errorf("unexpected regions after remove: %+v", form.regions)
	}
}

func TestCoordFormUseWord(t *testing.T) {
	form := newCoordForm(a4)
	form.useWord(Word{Text: "Total", Box: bbox.BBox{X0: 500, Y0: 700, X1: 610, Y1: 712}})

	if form.box != (bbox.BBox{X0: 500, Y0: 700, X1: 595, Y1: 712}) {
		t.Errorf("box = %+v, want it clamped to the page", form.box)
	}
	if form.label != "Total" {
		t.Errorf("label = %q, want Total", form.label)
	}

	form.label = "kept"
	form.useWord(Word{Text: "Other", Box: bbox.BBox{X0: 1, Y0: 1, X1: 2, Y1: 2}})
	if form.label != "kept" {
		t.Error("a typed label should not be overwritten")
	}
}

func TestCoordinatePageRender(t *testing.T) {
	page := &CoordinatePage{}
	if page.Render() == nil {
		t.Fatal("empty page should render")
	}

	doc := UploadInfo{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", PageCount: 2, Page: a4, DefaultBBox: bbox.DefaultBBox(a4)}
	page.doc = &doc
	page.form = newCoordForm(a4)
	page.form.addRegion()
	page.words = []Word{{Text: "Hello", Box: bbox.BBox{X0: 72, Y0: 130, X1: 102, Y1: 142}}}
	page.overlayURL = "/api/document/x/overlay.png"
	if page.Render() == nil {
		t.Error("loaded page should render")
	}
	if got := page.form.pageBanner(); got != "Page size: 595.0pt wide x 842.0pt high" {
		t.Errorf("pageBanner() = %q", got)
	}
}

func TestCoordinatePageReplacesDocument(t *testing.T) {
	page := &CoordinatePage{}
	first := UploadInfo{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Page: a4, DefaultBBox: bbox.DefaultBBox(a4)}
	second := UploadInfo{ID: "01BX5ZZKBKACTAV9WEVGEMMVRZ", Page: bbox.PageSize{Width: 300, Height: 200}, DefaultBBox: bbox.BBox{X1: 100, Y1: 100}}

	if previous := page.setDocument(first); previous != "" {
		t.Errorf("first upload replaced %q, want nothing", previous)
	}

	page.form.addRegion()
	page.overlayURL = "/api/document/x/overlay.png"
	page.words = []Word{{Text: "Hello"}}

	if previous := page.setDocument(second); previous != first.ID {
		t.Errorf("second upload replaced %q, want %q", previous, first.ID)
	}
	if page.doc.ID != second.ID {
		t.Errorf("current document = %s, want %s", page.doc.ID, second.ID)
	}
	if len(page.form.regions) != 0 || page.overlayURL != "" || page.words != nil {
		t.Error("state of the replaced document should be cleared")
	}
	if page.form.page != second.Page {
		t.Errorf("form page = %+v, want %+v", page.form.page, second.Page)
	}
	if !strings.HasPrefix(page.pageURL, "/api/document/"+second.ID+"/page.png?") {
		t.Errorf("pageURL = %s", page.pageURL)
	}

	if previous := page.setDocument(second); previous != "" {
		t.Errorf("reloading the same upload released %q", previous)
	}
}

func TestDocumentPath(t *testing.T) {
	if got := documentPath("01ARZ3NDEKTSV4RRFFQ69G5FAV"); got != "/api/document/01ARZ3NDEKTSV4RRFFQ69G5FAV" {
		t.Errorf("documentPath() = %s", got)
	}
	if got := documentPath("a/b"); got != "/api/document/a%2Fb" {
		t.Errorf("documentPath() = %s, want the id escaped", got)
	}
}

func TestUploadErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"API error", 400, `{"error":"only .pdf files are accepted"}`, "Upload failed (400): only .pdf files are accepted"},
		{"Proxy HTML", 413, "<html><body>413 Request Entity Too Large</body></html>", "Upload failed (413): Request Entity Too Large"},
		{"Empty body", 502, "", "Upload failed (502): Bad Gateway"},
		{"JSON without error", 500, `{"message":"boom"}`, "Upload failed (500): Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uploadErrorMessage(tt.status, tt.body); got != tt.want {
				t.Errorf("uploadErrorMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
