package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	config "github.com/drummonds/bboxpick/config"
	"github.com/drummonds/bboxpick/engine/pdfrenderer"
)

// getBrowser finds an available Chrome or Chromium for testing
func getBrowser() (string, error) {
	browsers := []string{"chromium", "chromium-browser", "google-chrome", "chrome"}
	for _, browser := range browsers {
		if path, err := exec.LookPath(browser); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no suitable browser found")
}

// TestFrontendRendering tests that the UI shell loads in a headless browser
func TestFrontendRendering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	browserPath, err := getBrowser()
	if err != nil {
		t.Skip("No Chrome or Chromium found, skipping browser test")
	}
	t.Logf("Using browser: %s", browserPath)

	serverConfig, logger := config.SetupServer()
	injectGlobals(logger)
	renderer, err := pdfrenderer.NewRenderer("fitz")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	defer renderer.Close()

	e, _ := newServer(serverConfig, renderer)
	server := httptest.NewServer(e)
	defer server.Close()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browserPath),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var pageTitle string
	var bodyHTML string
	err = chromedp.Run(ctx,
		chromedp.Navigate(server.URL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Title(&pageTitle),
		chromedp.InnerHTML("body", &bodyHTML),
	)
	if err != nil {
		t.Fatalf("Failed to load page: %v", err)
	}

	if pageTitle == "" {
		t.Error("Page title is empty")
	}
	if bodyHTML == "" {
		t.Error("Body HTML is empty")
	}
	t.Logf("Frontend test passed! Page title: %s, Body length: %d chars", pageTitle, len(bodyHTML))
}

func TestStaticRoutes(t *testing.T) {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger)
	serverConfig.WebDir = t.TempDir()
	serverConfig.ServerAPIURL = "http://api.example:8000"

	e, _ := newServer(serverConfig, &stubRenderer{})

	tests := []struct {
		name         string
		path         string
		wantCode     int
		wantContains string
	}{
		{"Stylesheet", "/webapp/webapp.css", http.StatusOK, ".coord-grid"},
		{"Config script", "/config.js", http.StatusOK, "http://api.example:8000"},
		{"Unknown API path is JSON", "/api/nothing/here", http.StatusNotFound, `"error":"Not Found"`},
		{"Missing wasm bundle", "/web/app.wasm", http.StatusNotFound, ""},
		{"Health", "/health", http.StatusOK, "healthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tt.wantContains) {
				t.Errorf("body does not contain %q: %s", tt.wantContains, rec.Body.String())
			}
		})
	}

	t.Run("Served web directory", func(t *testing.T) {
		path := filepath.Join(serverConfig.WebDir, "wasm_exec.js")
		if err := writeFile(path, "// runtime"); err != nil {
			t.Fatal(err)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wasm_exec.js", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "// runtime" {
			t.Errorf("wasm_exec.js: %d %q", rec.Code, rec.Body.String())
		}
	})
}

func TestIsAddressInUse(t *testing.T) {
	if isAddressInUse(nil) {
		t.Error("nil error is not address in use")
	}
	if !isAddressInUse(fmt.Errorf("listen tcp :8000: bind: address already in use")) {
		t.Error("expected address in use to be detected")
	}
}
