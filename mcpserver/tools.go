package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/drummonds/bboxpick/engine/bbox"
	"github.com/drummonds/bboxpick/engine/pdfinfo"
)

// PageInfo is the result of pdf_page_info
type PageInfo struct {
	PageCount   int           `json:"pageCount"`
	Page        bbox.PageSize `json:"page"`
	Rotate      int           `json:"rotate"`
	DefaultBBox bbox.BBox     `json:"defaultBBox"`
}

// WordsResult is the result of pdf_page_words
type WordsResult struct {
	Source string         `json:"source"`
	Words  []pdfinfo.Word `json:"words"`
}

func (s *Server) registerTools() {
	// ── pdf_page_info ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("pdf_page_info",
		mcp.WithDescription("Page count and the size of page 1 in points (1/72 inch). Coordinates for the other tools are bounded by this size, origin top-left."),
		mcp.WithString("path",
			mcp.Description("Path of a local PDF file"),
			mcp.Required(),
		),
	), s.handlePageInfo)

	// ── pdf_preview_bbox ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("pdf_preview_bbox",
		mcp.WithDescription("Render page 1 with a red rectangle at (x0, y0)-(x1, y1), in points from the top-left corner, and return it as PNG"),
		mcp.WithString("path",
			mcp.Description("Path of a local PDF file"),
			mcp.Required(),
		),
		mcp.WithNumber("x0", mcp.Description("Left edge in points"), mcp.Required()),
		mcp.WithNumber("y0", mcp.Description("Top edge in points"), mcp.Required()),
		mcp.WithNumber("x1", mcp.Description("Right edge in points"), mcp.Required()),
		mcp.WithNumber("y1", mcp.Description("Bottom edge in points"), mcp.Required()),
		mcp.WithString("label",
			mcp.Description("Optional text printed next to the rectangle"),
		),
		mcp.WithNumber("zoom",
			mcp.Description("Pixels per point, 0.5 to 4 (default from RENDER_ZOOM)"),
		),
	), s.handlePreviewBBox)

	// ── pdf_page_words ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("pdf_page_words",
		mcp.WithDescription("Words on page 1 with their boxes in points, origin top-left. Useful to place masking regions around known labels."),
		mcp.WithString("path",
			mcp.Description("Path of a local PDF file"),
			mcp.Required(),
		),
		mcp.WithString("source",
			mcp.Description("auto (default), text or ocr"),
		),
	), s.handlePageWords)

	// ── format_bboxes ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("format_bboxes",
		mcp.WithDescription("Format regions as a PAGE_<n>_BBOXES list ready to paste into code"),
		mcp.WithString("regionsJSON",
			mcp.Description(`JSON array of regions, e.g. [{"label":"photo","x0":0,"y0":0,"x1":100,"y1":120}]`),
			mcp.Required(),
		),
		mcp.WithNumber("page",
			mcp.Description("Page number used in the variable name (default 1)"),
		),
	), s.handleFormatBBoxes)
}

func (s *Server) handlePageInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.readPDF(req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.previewer.Inspect(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(PageInfo{
		PageCount:   info.PageCount,
		Page:        info.Page,
		Rotate:      info.Rotate,
		DefaultBBox: bbox.DefaultBBox(info.Page),
	})
}

func (s *Server) handlePreviewBBox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	var coords [4]float64
	for i, key := range []string{"x0", "y0", "x1", "y1"} {
		v, ok := numberArg(args, key)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("%s is required and must be a number", key)), nil
		}
		coords[i] = v
	}
	box := bbox.BBox{X0: coords[0], Y0: coords[1], X1: coords[2], Y1: coords[3]}
	zoom, _ := numberArg(args, "zoom")

	data, err := s.readPDF(req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.previewer.Inspect(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	png, err := s.previewer.Overlay(data, info.Page, box, req.GetString("label", ""), zoom, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	Logger.Debug("Rendered overlay preview for MCP client", "bbox", box.String(), "bytes", len(png))

	caption := fmt.Sprintf("Red box: %s on a %s x %s pt page", box.String(),
		bbox.FormatPoint(info.Page.Width), bbox.FormatPoint(info.Page.Height))
	return mcp.NewToolResultImage(caption, base64.StdEncoding.EncodeToString(png), "image/png"), nil
}

func (s *Server) handlePageWords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.readPDF(req.GetString("path", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.previewer.Inspect(data)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	words, source, err := s.previewer.Words(data, info.Page, req.GetString("source", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if words == nil {
		words = []pdfinfo.Word{}
	}
	return jsonResult(WordsResult{Source: source, Words: words})
}

func (s *Server) handleFormatBBoxes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var regions []bbox.Region
	if err := json.Unmarshal([]byte(req.GetString("regionsJSON", "")), &regions); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("regionsJSON is not a JSON array of regions: %v", err)), nil
	}
	page := 1
	if v, ok := numberArg(req.GetArguments(), "page"); ok {
		page = int(v)
	}
	return textResult(bbox.FormatRegions(page, regions)), nil
}

// numberArg reads a numeric tool argument; JSON numbers arrive as float64
// and some clients send numbers as strings
func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
