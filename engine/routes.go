package engine

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"

	"github.com/drummonds/bboxpick/config"
	"github.com/drummonds/bboxpick/engine/bbox"
	"github.com/drummonds/bboxpick/engine/ocr"
	"github.com/drummonds/bboxpick/engine/pdfinfo"
	"github.com/drummonds/bboxpick/internal/build"
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	Previewer    *Previewer
	Sessions     *SessionStore
	cron         *cron.Cron
}

// UploadResponse describes an accepted upload
type UploadResponse struct {
	ID          string        `json:"id"`
	Filename    string        `json:"filename"`
	PageCount   int           `json:"pageCount"`
	Page        bbox.PageSize `json:"page"`
	Rotate      int           `json:"rotate"`
	DefaultBBox bbox.BBox     `json:"defaultBBox"`
	Renderer    string        `json:"renderer"`
	ExpiresIn   int           `json:"expiresInSeconds"`
}

// WordsResponse carries region hints for page 1
type WordsResponse struct {
	Source string         `json:"source"`
	Words  []pdfinfo.Word `json:"words"`
}

// FormatRequest is the body of POST /api/bbox/format
type FormatRequest struct {
	Page    int           `json:"page"`
	Regions []bbox.Region `json:"regions"`
}

// FormatResponse holds the copy-paste text for a set of regions
type FormatResponse struct {
	BBoxes  []string `json:"bboxes"`
	Snippet string   `json:"snippet"`
}

// AboutInfo describes the running server
type AboutInfo struct {
	Version           string  `json:"version"`
	Renderer          string  `json:"renderer"`
	Zoom              float64 `json:"zoom"`
	MaxUploadMB       int     `json:"maxUploadMB"`
	SessionTTLMinutes int     `json:"sessionTTLMinutes"`
	ActiveSessions    int     `json:"activeSessions"`
	OCRCompiled       bool    `json:"ocrCompiled"`
	OCREnabled        bool    `json:"ocrEnabled"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// AddRoutes registers all API routes on the handler's echo instance
func (serverHandler *ServerHandler) AddRoutes() {
	e := serverHandler.Echo
	uploadLimit := middleware.BodyLimit(fmt.Sprintf("%dM", serverHandler.ServerConfig.MaxUploadMB+1))

	e.GET("/health", serverHandler.Health)
	e.GET("/api/about", serverHandler.GetAboutInfo)

	e.POST("/api/document/upload", serverHandler.UploadDocument, uploadLimit)
	e.GET("/api/document/:id", serverHandler.GetDocument)
	e.DELETE("/api/document/:id", serverHandler.DeleteDocument)
	e.GET("/api/document/:id/page.png", serverHandler.GetPagePreview)
	e.GET("/api/document/:id/overlay.png", serverHandler.GetOverlayPreview)
	e.GET("/api/document/:id/words", serverHandler.GetWords)

	e.POST("/api/bbox/format", serverHandler.FormatBBoxes)
}

// UploadDocument accepts a PDF and opens an upload session for it
// @Summary Upload a PDF
// @Description Reads the uploaded PDF, measures page 1 and keeps the bytes in memory for previews
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} map[string]string "Not a readable PDF"
// @Failure 413 {object} map[string]string "File too large"
// @Router /document/upload [post]
func (serverHandler *ServerHandler) UploadDocument(context echo.Context) error {
	file, fileHeader, err := context.Request().FormFile("file")
	if err != nil {
		Logger.Debug("Upload without a file field", "error", err)
		return jsonError(context, http.StatusBadRequest, "no file uploaded (expected multipart field \"file\")")
	}
	defer file.Close()

	filename := filepath.Base(fileHeader.Filename)
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".pdf" {
		return jsonError(context, http.StatusBadRequest, fmt.Sprintf("only .pdf files are accepted, got %q", filename))
	}

	maxBytes := serverHandler.ServerConfig.MaxUploadBytes()
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		Logger.Error("Unable to read uploaded file", "filename", filename, "error", err)
		return jsonError(context, http.StatusInternalServerError, "unable to read uploaded file")
	}
	if int64(len(data)) > maxBytes {
		return jsonError(context, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file is larger than %d MB", serverHandler.ServerConfig.MaxUploadMB))
	}

	info, err := serverHandler.Previewer.Inspect(data)
	if err != nil {
		Logger.Info("Rejected upload", "filename", filename, "error", err)
		return jsonError(context, http.StatusBadRequest, err.Error())
	}

	session := serverHandler.Sessions.Put(filename, data, info)
	Logger.Info("Upload session opened", "id", session.ID.String(), "filename", filename,
		"pages", info.PageCount, "width", info.Page.Width, "height", info.Page.Height)

	return context.JSON(http.StatusOK, serverHandler.uploadResponse(session))
}

// GetDocument returns the metadata of an upload session
// @Summary Get upload metadata
// @Tags Documents
// @Produce json
// @Param id path string true "Upload ID"
// @Success 200 {object} UploadResponse
// @Failure 404 {object} map[string]string "Unknown or expired upload"
// @Router /document/{id} [get]
func (serverHandler *ServerHandler) GetDocument(context echo.Context) error {
	session, err := serverHandler.Sessions.Get(context.Param("id"))
	if err != nil {
		return jsonError(context, http.StatusNotFound, err.Error())
	}
	return context.JSON(http.StatusOK, serverHandler.uploadResponse(session))
}

// DeleteDocument drops an upload session
// @Summary Forget an upload
// @Tags Documents
// @Param id path string true "Upload ID"
// @Success 204
// @Failure 404 {object} map[string]string "Unknown or expired upload"
// @Router /document/{id} [delete]
func (serverHandler *ServerHandler) DeleteDocument(context echo.Context) error {
	if !serverHandler.Sessions.Delete(context.Param("id")) {
		return jsonError(context, http.StatusNotFound, ErrSessionNotFound.Error())
	}
	return context.NoContent(http.StatusNoContent)
}

// GetPagePreview renders page 1 of an upload as PNG
// @Summary Page 1 preview
// @Tags Previews
// @Produce png
// @Param id path string true "Upload ID"
// @Param zoom query number false "Pixels per point (0.5 to 4)"
// @Param maxWidth query int false "Downscale to this width in pixels"
// @Success 200 {file} binary
// @Router /document/{id}/page.png [get]
func (serverHandler *ServerHandler) GetPagePreview(context echo.Context) error {
	session, err := serverHandler.Sessions.Get(context.Param("id"))
	if err != nil {
		return jsonError(context, http.StatusNotFound, err.Error())
	}
	zoom, maxWidth := previewParams(context)

	png, err := serverHandler.Previewer.Page(session.Data, zoom, maxWidth)
	if err != nil {
		Logger.Error("Unable to render page preview", "id", session.ID.String(), "error", err)
		return jsonError(context, http.StatusInternalServerError, err.Error())
	}
	noStore(context)
	return context.Blob(http.StatusOK, "image/png", png)
}

// GetOverlayPreview renders page 1 with the selected region outlined
// @Summary Selection preview
// @Description Draws the rectangle (x0, y0, x1, y1), in points from the top-left corner, onto page 1
// @Tags Previews
// @Produce png
// @Param id path string true "Upload ID"
// @Param x0 query number true "Left"
// @Param y0 query number true "Top"
// @Param x1 query number true "Right"
// @Param y1 query number true "Bottom"
// @Param label query string false "Text printed next to the box"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string "Missing or out of range coordinates"
// @Router /document/{id}/overlay.png [get]
func (serverHandler *ServerHandler) GetOverlayPreview(context echo.Context) error {
	session, err := serverHandler.Sessions.Get(context.Param("id"))
	if err != nil {
		return jsonError(context, http.StatusNotFound, err.Error())
	}

	box, err := bbox.Parse(context.QueryParam)
	if err != nil {
		return jsonError(context, http.StatusBadRequest, err.Error())
	}
	zoom, maxWidth := previewParams(context)

	png, err := serverHandler.Previewer.Overlay(session.Data, session.Info.Page, box, context.QueryParam("label"), zoom, maxWidth)
	if err != nil {
		var rangeErr *bbox.RangeError
		if errors.As(err, &rangeErr) {
			return jsonError(context, http.StatusBadRequest, err.Error())
		}
		Logger.Error("Unable to render overlay preview", "id", session.ID.String(), "bbox", box.String(), "error", err)
		return jsonError(context, http.StatusInternalServerError, err.Error())
	}
	Logger.Debug("Rendered overlay preview", "id", session.ID.String(), "bbox", box.String())
	noStore(context)
	return context.Blob(http.StatusOK, "image/png", png)
}

// GetWords returns positioned words on page 1 to help place regions
// @Summary Region hints
// @Tags Documents
// @Produce json
// @Param id path string true "Upload ID"
// @Param source query string false "auto, text or ocr"
// @Success 200 {object} WordsResponse
// @Failure 501 {object} map[string]string "OCR not available"
// @Router /document/{id}/words [get]
func (serverHandler *ServerHandler) GetWords(context echo.Context) error {
	session, err := serverHandler.Sessions.Get(context.Param("id"))
	if err != nil {
		return jsonError(context, http.StatusNotFound, err.Error())
	}

	words, source, err := serverHandler.Previewer.Words(session.Data, session.Info.Page, context.QueryParam("source"))
	if err != nil {
		if errors.Is(err, ocr.ErrOCRNotEnabled) {
			return jsonError(context, http.StatusNotImplemented, err.Error())
		}
		Logger.Warn("Unable to extract words", "id", session.ID.String(), "source", source, "error", err)
		return jsonError(context, http.StatusBadRequest, err.Error())
	}
	if words == nil {
		words = []pdfinfo.Word{}
	}
	return context.JSON(http.StatusOK, WordsResponse{Source: source, Words: words})
}

// FormatBBoxes renders regions as copy-paste text
// @Summary Format regions
// @Tags BBoxes
// @Accept json
// @Produce json
// @Param request body FormatRequest true "Regions"
// @Success 200 {object} FormatResponse
// @Router /bbox/format [post]
func (serverHandler *ServerHandler) FormatBBoxes(context echo.Context) error {
	var request FormatRequest
	if err := context.Bind(&request); err != nil {
		return jsonError(context, http.StatusBadRequest, "invalid JSON body")
	}
	if request.Page == 0 {
		request.Page = 1
	}

	response := FormatResponse{
		BBoxes:  make([]string, 0, len(request.Regions)),
		Snippet: bbox.FormatRegions(request.Page, request.Regions),
	}
	for _, region := range request.Regions {
		response.BBoxes = append(response.BBoxes, region.BBox.String())
	}
	return context.JSON(http.StatusOK, response)
}

// GetAboutInfo returns version and runtime settings
// @Summary About
// @Tags Admin
// @Produce json
// @Success 200 {object} AboutInfo
// @Router /about [get]
func (serverHandler *ServerHandler) GetAboutInfo(context echo.Context) error {
	return context.JSON(http.StatusOK, AboutInfo{
		Version:           build.Version,
		Renderer:          serverHandler.Previewer.Renderer.Name(),
		Zoom:              serverHandler.Previewer.Zoom,
		MaxUploadMB:       serverHandler.ServerConfig.MaxUploadMB,
		SessionTTLMinutes: int(serverHandler.ServerConfig.SessionTTL / time.Minute),
		ActiveSessions:    serverHandler.Sessions.Len(),
		OCRCompiled:       ocr.Enabled,
		OCREnabled:        serverHandler.Previewer.OCREnabled,
	})
}

// Health is a liveness check
func (serverHandler *ServerHandler) Health(context echo.Context) error {
	return context.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

func (serverHandler *ServerHandler) uploadResponse(session Session) UploadResponse {
	remaining := serverHandler.ServerConfig.SessionTTL - time.Since(session.LastSeen)
	if remaining < 0 {
		remaining = 0
	}
	return UploadResponse{
		ID:          session.ID.String(),
		Filename:    session.Filename,
		PageCount:   session.Info.PageCount,
		Page:        session.Info.Page,
		Rotate:      session.Info.Rotate,
		DefaultBBox: bbox.DefaultBBox(session.Info.Page),
		Renderer:    serverHandler.Previewer.Renderer.Name(),
		ExpiresIn:   int(remaining / time.Second),
	}
}

// previewParams reads the optional zoom and maxWidth query parameters;
// unparsable values fall back to the server defaults
func previewParams(context echo.Context) (float64, int) {
	zoom, _ := strconv.ParseFloat(context.QueryParam("zoom"), 64)
	maxWidth, _ := strconv.Atoi(context.QueryParam("maxWidth"))
	return zoom, maxWidth
}

// noStore keeps browsers from caching previews, which change with every query
func noStore(context echo.Context) {
	context.Response().Header().Set("Cache-Control", "no-store")
}

func jsonError(context echo.Context, status int, message string) error {
	return context.JSON(status, map[string]string{"error": message})
}
