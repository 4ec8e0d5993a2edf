package webapp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/maxence-charriere/go-app/v10/pkg/app"

	"github.com/drummonds/bboxpick/engine/bbox"
)

// previewWidth is the width, in pixels, of the preview images
const previewWidth = 1000

// CoordinatePage lets the user upload a PDF, type a rectangle in points and
// check it against a preview of page 1
type CoordinatePage struct {
	app.Compo
	doc         *UploadInfo
	form        coordForm
	uploading   bool
	error       string
	inputError  string
	pageURL     string
	overlayURL  string
	previewSeq  int
	words       []Word
	wordsSource string
	copied      bool
	pageHide    app.Func
}

// OnMount releases the current upload when the tab is closed or navigated away
func (c *CoordinatePage) OnMount(ctx app.Context) {
	c.pageHide = app.FuncOf(func(this app.Value, args []app.Value) any {
		if c.doc != nil {
			releaseDocument(c.doc.ID)
		}
		return nil
	})
	app.Window().Call("addEventListener", "pagehide", c.pageHide)
}

// OnDismount releases the current upload; the page state goes with it
func (c *CoordinatePage) OnDismount() {
	if c.pageHide != nil {
		app.Window().Call("removeEventListener", "pagehide", c.pageHide)
		c.pageHide.Release()
		c.pageHide = nil
	}
	if c.doc != nil {
		releaseDocument(c.doc.ID)
		c.doc = nil
	}
}

// Render renders the coordinate page
func (c *CoordinatePage) Render() app.UI {
	return app.Div().
		Class("coordinate-page").
		Body(
			app.H2().Text("PDF region coordinate picker"),
			app.Div().Class("howto").Body(
				app.P().Text("Find the exact coordinates of the regions you want to mask."),
				app.Ol().Body(
					app.Li().Text("Upload a PDF file"),
					app.Li().Text("Check page 1 and type the corners of a region"),
					app.Li().Text("Preview the selection and copy the coordinates into your code"),
				),
			),
			c.renderUpload(),
			app.If(c.error != "", func() app.UI {
				return app.Div().Class("error").Body(app.Text("Error: " + c.error))
			}),
			app.If(c.doc != nil, c.renderDocument),
			c.renderRegionFormat(),
		)
}

func (c *CoordinatePage) renderUpload() app.UI {
	status := ""
	if c.uploading {
		status = "Uploading..."
	}
	return app.Div().Class("upload-form").Body(
		app.Label().For("pdf-file").Text("Upload PDF"),
		app.Input().
			Type("file").
			ID("pdf-file").
			Accept("application/pdf,.pdf").
			Disabled(c.uploading).
			OnChange(c.onFileChange),
		app.Span().Class("loading").Text(status),
	)
}

func (c *CoordinatePage) renderDocument() app.UI {
	return app.Div().Class("document").Body(
		app.Div().Class("info-banner").Body(
			app.Text(c.form.pageBanner()),
			app.If(c.doc.PageCount > 1, func() app.UI {
				return app.Span().Class("muted").Text(fmt.Sprintf(" (page 1 of %d)", c.doc.PageCount))
			}),
		),

		app.H3().Text("Page 1 preview"),
		app.P().Text("Check the region you want to mask on the image below."),
		app.Img().Class("page-preview").Src(c.pageURL).Alt("Page 1"),

		app.H3().Text("Coordinate input"),
		app.Div().Class("coord-grid").Body(
			app.Div().Class("coord-column").Body(
				app.H4().Text("Top-left corner"),
				c.renderInput("x0", "X (left)"),
				c.renderInput("y0", "Y (top)"),
			),
			app.Div().Class("coord-column").Body(
				app.H4().Text("Bottom-right corner"),
				c.renderInput("x1", "X (right)"),
				c.renderInput("y1", "Y (bottom)"),
			),
		),
		app.If(c.inputError != "", func() app.UI {
			return app.Div().Class("error").Text(c.inputError)
		}),

		app.H3().Text("Coordinates to copy"),
		app.Div().Class("copy-row").Body(
			app.Pre().Class("code").Text(c.form.copyText()),
			app.Button().Class("btn-secondary").OnClick(c.onCopy).Text(c.copyLabel()),
		),

		c.renderTips(),

		app.Div().Class("preview-controls").Body(
			app.Input().
				Type("text").
				Class("label-input").
				Placeholder("Label (optional), e.g. photo").
				Value(c.form.label).
				OnInput(func(ctx app.Context, e app.Event) {
					c.form.label = ctx.JSSrc().Get("value").String()
				}),
			app.Button().Class("btn-primary").OnClick(c.onPreview).Text("Preview selection"),
			app.Button().Class("btn-secondary").OnClick(c.onAddRegion).Text("Add region"),
		),
		app.If(c.overlayURL != "", func() app.UI {
			return app.Div().Class("overlay-preview").Body(
				app.Img().Class("page-preview").Src(c.overlayURL).Alt("Selected region"),
				app.P().Class("caption").Text("Red box: selected region"),
			)
		}),

		c.renderRegions(),
		c.renderWords(),
	)
}

func (c *CoordinatePage) renderInput(field, label string) app.UI {
	return app.Div().Class("coord-input").Body(
		app.Label().For("coord-"+field).Text(label),
		app.Input().
			Type("number").
			ID("coord-"+field).
			Min(0).
			Max(c.form.max(field)).
			Step(1).
			Value(c.form.value(field)).
			OnChange(func(ctx app.Context, e app.Event) {
				if err := c.form.set(field, ctx.JSSrc().Get("value").String()); err != nil {
					c.inputError = err.Error()
					return
				}
				c.inputError = ""
				c.copied = false
			}),
	)
}

func (c *CoordinatePage) renderTips() app.UI {
	return app.Div().Class("tips").Body(
		app.H3().Text("Tips"),
		app.P().Body(app.Strong().Text("PDF coordinate system used here:")),
		app.Ul().Body(
			app.Li().Text("The top-left corner is (0, 0)"),
			app.Li().Text("X grows to the right"),
			app.Li().Text("Y grows downwards"),
			app.Li().Text("A4 paper is about 595 x 842 points"),
		),
		app.P().Body(app.Strong().Text("How to measure:")),
		app.Ol().Body(
			app.Li().Text("Find the rough position on the preview"),
			app.Li().Text("Adjust the numbers and preview the selection"),
			app.Li().Text("Record every region you need"),
		),
	)
}

func (c *CoordinatePage) renderRegions() app.UI {
	if len(c.form.regions) == 0 {
		return app.Div()
	}
	return app.Div().Class("regions").Body(
		app.H3().Text("Recorded regions"),
		app.Table().Class("region-table").Body(
			app.TBody().Body(
				app.Range(c.form.regions).Slice(func(i int) app.UI {
					region := c.form.regions[i]
					return app.Tr().Body(
						app.Td().Text(region.Label),
						app.Td().Body(app.Code().Text(region.BBox.String())),
						app.Td().Body(
							app.Button().Class("btn-link").Text("Remove").OnClick(func(ctx app.Context, e app.Event) {
								c.form.removeRegion(i)
							}),
						),
					)
				}),
			),
		),
		app.Pre().Class("code").Text(c.form.snippet()),
	)
}

func (c *CoordinatePage) renderWords() app.UI {
	if len(c.words) == 0 {
		return app.Div()
	}
	return app.Div().Class("word-hints").Body(
		app.H3().Text("Text on the page"),
		app.P().Class("muted").Text(fmt.Sprintf("From the %s layer. Click a word to use its box.", c.wordsSource)),
		app.Table().Class("word-table").Body(
			app.TBody().Body(
				app.Range(c.words).Slice(func(i int) app.UI {
					word := c.words[i]
					return app.Tr().
						Class("word-row").
						OnClick(func(ctx app.Context, e app.Event) {
							c.form.useWord(word)
							c.inputError = ""
							c.copied = false
						}).
						Body(
							app.Td().Text(word.Text),
							app.Td().Body(app.Code().Text(word.Box.String())),
						)
				}),
			),
		),
	)
}

// renderRegionFormat shows the format used to record every region
func (c *CoordinatePage) renderRegionFormat() app.UI {
	return app.Div().Class("record-format").Body(
		app.H3().Text("Record all regions"),
		app.P().Text("Write every masking region down in this format:"),
		app.Pre().Class("code").Text(bbox.FormatRegions(1, []bbox.Region{
			{Label: "photo"},
			{Label: "class / number / tutor"},
			{Label: "name / ID number"},
		})),
	)
}

func (c *CoordinatePage) copyLabel() string {
	if c.copied {
		return "Copied"
	}
	return "Copy"
}

func (c *CoordinatePage) onCopy(ctx app.Context, e app.Event) {
	clipboard := app.Window().Get("navigator").Get("clipboard")
	if !clipboard.Truthy() {
		return
	}
	clipboard.Call("writeText", c.form.copyText())
	c.copied = true
}

func (c *CoordinatePage) onPreview(ctx app.Context, e app.Event) {
	if err := c.form.valid(); err != nil {
		c.inputError = err.Error()
		return
	}
	c.inputError = ""
	c.previewSeq++
	c.overlayURL = BuildAPIURL(c.form.overlayPath(c.doc.ID, previewWidth, c.previewSeq))
}

func (c *CoordinatePage) onAddRegion(ctx app.Context, e app.Event) {
	if err := c.form.valid(); err != nil {
		c.inputError = err.Error()
		return
	}
	c.inputError = ""
	c.form.addRegion()
}

// onFileChange uploads the chosen file
func (c *CoordinatePage) onFileChange(ctx app.Context, e app.Event) {
	files := ctx.JSSrc().Get("files")
	if !files.Truthy() || files.Length() == 0 {
		return
	}
	c.uploading = true
	c.error = ""
	c.upload(ctx, files.Index(0))
}

// upload posts the file as multipart form data
func (c *CoordinatePage) upload(ctx app.Context, file app.Value) {
	ctx.Async(func() {
		formData := app.Window().Get("FormData").New()
		formData.Call("append", "file", file)
		init := app.Window().Get("Object").New()
		init.Set("method", http.MethodPost)
		init.Set("body", formData)

		failed := app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				c.uploading = false
				c.error = "Network error: Could not connect to server"
			})
			return nil
		})

		res := app.Window().Call("fetch", BuildAPIURL("/api/document/upload"), init)

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]
			status := response.Get("status").Int()

			// read as text: proxies answer errors with HTML
			response.Call("text").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				body := ""
				if len(args) > 0 {
					body = args[0].String()
				}

				ctx.Dispatch(func(ctx app.Context) {
					c.uploading = false
					if status < 200 || status >= 300 {
						c.error = uploadErrorMessage(status, body)
						return
					}
					var doc UploadInfo
					if err := json.Unmarshal([]byte(body), &doc); err != nil {
						c.error = fmt.Sprintf("Failed to parse response: %v", err)
						return
					}
					c.loaded(ctx, doc)
				})
				return nil
			})).Call("catch", failed)
			return nil
		})).Call("catch", failed)
	})
}

// uploadErrorMessage describes a failed upload from its status and body
func uploadErrorMessage(status int, body string) string {
	var apiErr apiError
	if err := json.Unmarshal([]byte(body), &apiErr); err != nil || apiErr.Error == "" {
		return fmt.Sprintf("Upload failed (%d): %s", status, http.StatusText(status))
	}
	return fmt.Sprintf("Upload failed (%d): %s", status, apiErr.Error)
}

// loaded shows a freshly uploaded document and releases the one it replaces
func (c *CoordinatePage) loaded(ctx app.Context, doc UploadInfo) {
	if previous := c.setDocument(doc); previous != "" {
		releaseDocument(previous)
	}
	c.fetchWords(ctx, doc.ID)
}

// setDocument resets the page for doc and returns the id of the upload it
// replaced, or "" when there is none
func (c *CoordinatePage) setDocument(doc UploadInfo) string {
	previous := ""
	if c.doc != nil && c.doc.ID != doc.ID {
		previous = c.doc.ID
	}
	c.doc = &doc
	c.form = newCoordForm(doc.Page)
	c.form.box = doc.DefaultBBox
	c.overlayURL = ""
	c.inputError = ""
	c.words = nil
	c.wordsSource = ""
	c.pageURL = BuildAPIURL(fmt.Sprintf("%s/page.png?maxWidth=%d", documentPath(doc.ID), previewWidth))
	return previous
}

// fetchWords loads region hints; failures only hide the hints table
func (c *CoordinatePage) fetchWords(ctx app.Context, id string) {
	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL(documentPath(id)+"/words"))

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 || args[0].Get("status").Int() != 200 {
				return nil
			}
			args[0].Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				if len(args) == 0 {
					return nil
				}
				jsonStr := jsonString(args[0])
				ctx.Dispatch(func(ctx app.Context) {
					var words wordsResponse
					if err := json.Unmarshal([]byte(jsonStr), &words); err == nil && c.doc != nil && c.doc.ID == id {
						c.words = words.Words
						c.wordsSource = words.Source
					}
				})
				return nil
			}))
			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			return nil
		}))
	})
}
