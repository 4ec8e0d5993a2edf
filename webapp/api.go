package webapp

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/bboxpick/engine/bbox"
)

// GetAPIBaseURL returns the configured API base URL
// It reads from window.bboxpickConfig.apiURL if available,
// otherwise falls back to empty string (relative URLs)
func GetAPIBaseURL() string {
	if !app.IsClient {
		return "" // Server-side rendering - use relative URLs
	}

	config := app.Window().Get("bboxpickConfig")
	if config.Truthy() {
		apiURL := config.Get("apiURL")
		if apiURL.Truthy() {
			return strings.TrimSuffix(apiURL.String(), "/")
		}
	}
	return ""
}

// BuildAPIURL constructs a full API URL from a path
// Example: BuildAPIURL("/api/about") -> "http://backend:8000/api/about"
// or just "/api/about" if using relative URLs
func BuildAPIURL(path string) string {
	baseURL := GetAPIBaseURL()
	if baseURL == "" {
		return path
	}
	return baseURL + path
}

// ConfigScript is served as /config.js to pass backend settings to the UI
func ConfigScript(apiURL string, maxUploadMB int) string {
	return fmt.Sprintf(`
// bboxpick Frontend Configuration
window.bboxpickConfig = {
    apiURL: %q,
    maxUploadMB: %d
};
`, apiURL, maxUploadMB)
}

// documentPath is the API path of an upload session
func documentPath(id string) string {
	return "/api/document/" + url.PathEscape(id)
}

// releaseDocument asks the server to drop an upload. keepalive lets the
// request outlive the page when it is sent from pagehide.
func releaseDocument(id string) {
	init := app.Window().Get("Object").New()
	init.Set("method", http.MethodDelete)
	init.Set("keepalive", true)
	app.Window().Call("fetch", BuildAPIURL(documentPath(id)), init).
		Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			return nil
		}))
}

// UploadInfo is the upload response of /api/document/upload
type UploadInfo struct {
	ID          string        `json:"id"`
	Filename    string        `json:"filename"`
	PageCount   int           `json:"pageCount"`
	Page        bbox.PageSize `json:"page"`
	Rotate      int           `json:"rotate"`
	DefaultBBox bbox.BBox     `json:"defaultBBox"`
	Renderer    string        `json:"renderer"`
}

// Word is a positioned word used as a region hint
type Word struct {
	Text string    `json:"text"`
	Box  bbox.BBox `json:"bbox"`
}

// wordsResponse is the body of /api/document/:id/words
type wordsResponse struct {
	Source string `json:"source"`
	Words  []Word `json:"words"`
}

// apiError is the JSON error body returned by the API
type apiError struct {
	Error string `json:"error"`
}

// jsonString turns a JS value into JSON text
func jsonString(v app.Value) string {
	return app.Window().Get("JSON").Call("stringify", v).String()
}
