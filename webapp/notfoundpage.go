package webapp

import (
	"fmt"

	"github.com/maxence-charriere/go-app/v10/pkg/app"
)

// NotFoundPage is shown for any path the UI does not know
type NotFoundPage struct {
	app.Compo
	path string
}

// OnNav records the path that was asked for
func (p *NotFoundPage) OnNav(ctx app.Context) {
	if u := ctx.Page().URL(); u != nil {
		p.path = u.Path
	}
}

func (p *NotFoundPage) Render() app.UI {
	return app.Div().Class("not-found-page").Body(
		app.H1().Class("not-found-title").Text("404"),
		app.P().Text(notFoundMessage(p.path)),
		app.Ul().Class("not-found-links").Body(
			app.Li().Body(app.A().Href("/").Text("Pick region coordinates")),
			app.Li().Body(app.A().Href("/about").Text("About this server")),
		),
	)
}

// notFoundMessage names the missing path when it is known
func notFoundMessage(path string) string {
	if path == "" || path == "/" {
		return "This page does not exist."
	}
	return fmt.Sprintf("There is no page at %s. Uploads and previews all live on the picker page.", path)
}
