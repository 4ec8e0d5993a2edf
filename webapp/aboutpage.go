package webapp

import (
	"encoding/json"
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// AboutInfo represents the about information from the API
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

// AboutPage displays information about the application
type AboutPage struct {
	app.Compo
	aboutInfo AboutInfo
	loading   bool
	error     string
}

// OnMount is called when the component is mounted
func (a *AboutPage) OnMount(ctx app.Context) {
	a.loading = true
	a.fetchAboutInfo(ctx)
}

// fetchAboutInfo fetches the about information from the API
func (a *AboutPage) fetchAboutInfo(ctx app.Context) {
	ctx.Async(func() {
		res := app.Window().Call("fetch", BuildAPIURL("/api/about"))

		res.Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
			if len(args) == 0 {
				return nil
			}
			response := args[0]

			response.Call("json").Call("then", app.FuncOf(func(this app.Value, args []app.Value) any {
				if len(args) == 0 {
					return nil
				}

				jsonStr := jsonString(args[0])

				ctx.Dispatch(func(ctx app.Context) {
					if err := json.Unmarshal([]byte(jsonStr), &a.aboutInfo); err != nil {
						a.error = fmt.Sprintf("Failed to parse response: %v", err)
					}
					a.loading = false
				})

				return nil
			}))

			return nil
		})).Call("catch", app.FuncOf(func(this app.Value, args []app.Value) any {
			ctx.Dispatch(func(ctx app.Context) {
				a.error = "Network error"
				a.loading = false
			})
			return nil
		}))
	})
}

// Render renders the about page
func (a *AboutPage) Render() app.UI {
	if a.loading {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About bboxpick"),
			app.Div().Class("loading").Body(app.Text("Loading...")),
		)
	}

	if a.error != "" {
		return app.Div().Class("about-page").Body(
			app.H2().Text("About bboxpick"),
			app.Div().Class("error").Body(app.Text("Error: "+a.error)),
		)
	}

	return app.Div().Class("about-page").Body(
		app.H2().Text("About bboxpick"),
		app.Div().Class("about-content").Body(
			app.Div().Class("about-section").Body(
				app.H3().Text("Server"),
				app.Div().Class("info-grid").Body(
					a.renderInfoItem("Version", a.aboutInfo.Version),
					a.renderInfoItem("Renderer", a.aboutInfo.Renderer),
					a.renderInfoItem("Preview zoom", fmt.Sprintf("%gx", a.aboutInfo.Zoom)),
					a.renderInfoItem("OCR Status", a.getOCRStatus()),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("Uploads"),
				app.Div().Class("config-details").Body(
					app.P().Body(
						app.Strong().Text("Largest upload: "),
						app.Text(fmt.Sprintf("%d MB", a.aboutInfo.MaxUploadMB)),
					),
					app.P().Body(
						app.Strong().Text("Uploads are forgotten after: "),
						app.Text(a.getSessionTTL()),
					),
					app.P().Body(
						app.Strong().Text("Open uploads: "),
						app.Text(fmt.Sprintf("%d", a.aboutInfo.ActiveSessions)),
					),
				),
			),
			app.Div().Class("about-section").Body(
				app.H3().Text("About bboxpick"),
				app.P().Text("bboxpick shows page 1 of a PDF and helps you find the point coordinates of regions to mask."),
				app.P().Text("Uploaded files are kept in memory only and are never written to disk."),
			),
		),
	)
}

// renderInfoItem creates an info item display
func (a *AboutPage) renderInfoItem(label, value string) app.UI {
	return app.Div().Class("info-item").Body(
		app.Div().Class("info-label").Body(app.Text(label)),
		app.Div().Class("info-value").Body(app.Text(value)),
	)
}

// getOCRStatus returns the OCR status as a user-friendly string
func (a *AboutPage) getOCRStatus() string {
	switch {
	case a.aboutInfo.OCREnabled:
		return "Enabled"
	case a.aboutInfo.OCRCompiled:
		return "Disabled"
	default:
		return "Not built in"
	}
}

// getSessionTTL formats the session lifetime
func (a *AboutPage) getSessionTTL() string {
	if a.aboutInfo.SessionTTLMinutes == 1 {
		return "1 minute idle"
	}
	return fmt.Sprintf("%d minutes idle", a.aboutInfo.SessionTTLMinutes)
}
