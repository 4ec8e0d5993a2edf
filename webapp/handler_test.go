package webapp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestHandlerRoutes tests that all expected routes are registered
func TestHandlerRoutes(t *testing.T) {
	handler := Handler()

	tests := []struct {
		name string
		path string
	}{
		{
			name: "Coordinate page",
			path: "/",
		},
		{
			name: "About page",
			path: "/about",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code == http.StatusNotFound {
				t.Errorf("Route %s returned 404 Not Found - route may not be registered", tt.path)
			}

			contentType := rec.Header().Get("Content-Type")
			if !strings.Contains(contentType, "text/html") && rec.Code == http.StatusOK {
				t.Logf("Note: Route %s returned status %d with Content-Type: %s", tt.path, rec.Code, contentType)
			}
			t.Logf("Route %s returned status %d", tt.path, rec.Code)
		})
	}
}

func TestPageFor(t *testing.T) {
	if _, ok := pageFor("/").(*CoordinatePage); !ok {
		t.Error("/ should render the coordinate page")
	}
	if _, ok := pageFor("/about").(*AboutPage); !ok {
		t.Error("/about should render the about page")
	}
	if _, ok := pageFor("/browse").(*NotFoundPage); !ok {
		t.Error("unknown paths should render the not found page")
	}
}

func TestConfigScript(t *testing.T) {
	js := ConfigScript("http://localhost:8000", 32)
	if !strings.Contains(js, `apiURL: "http://localhost:8000"`) {
		t.Errorf("config script missing apiURL: %s", js)
	}
	if !strings.Contains(js, "maxUploadMB: 32") {
		t.Errorf("config script missing maxUploadMB: %s", js)
	}
}

func TestBuildAPIURLServerSide(t *testing.T) {
	if got := BuildAPIURL("/api/about"); got != "/api/about" {
		t.Errorf("BuildAPIURL = %q, want a relative URL outside the browser", got)
	}
}
