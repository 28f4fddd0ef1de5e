package app

import (
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/jackielii/ventas/internal/logfields"
	"github.com/jackielii/ventas/internal/store"
	"github.com/jackielii/ventas/structpages"
)

// routesPage lists the delivery routes. A stop that cannot be displayed fails the whole
// page, which the ErrorBoundary method replaces with an alert inside the layout.
type routesPage struct{}

func (routesPage) Props(r *http.Request, a *App) ([]store.DeliveryRoute, error) {
	return a.store.ListRoutes(r.Context())
}

func (routesPage) Page(routes []store.DeliveryRoute, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, component(func(h *htmlWriter) {
		if len(routes) == 0 {
			h.raw(`<p class="muted">No delivery routes.</p>`)
			return
		}
		for _, rt := range routes {
			h.printf(`<section class="route" id="route-%d"><h2>%s</h2><p>%s · %s</p><ol class="stops">`,
				rt.ID, rt.Name, rt.Driver, rt.Day)
			for _, st := range rt.Stops {
				coords, err := formatCoords(st)
				if err != nil {
					h.fail(err)
					return
				}
				h.printf(`<li><a href="%s">%s</a> <span class="address">%s</span>`,
					h.url(editClientPage{}, st.ClientID), st.ClientName, st.Address)
				if coords != "" {
					h.printf(` <span class="coords">%s</span>`, coords)
				}
				h.raw(`</li>`)
			}
			h.raw(`</ol>`)
			h.render(routeMap(rt))
			h.raw(`</section>`)
		}
	}))
}

func (routesPage) ErrorBoundary(err error, a *App, node *structpages.PageNode) templ.Component {
	return component(func(h *htmlWriter) {
		a.logger.LogAttrs(h.ctx, slog.LevelWarn, "delivery routes failed to render",
			logfields.Route(node.ID()), logfields.Error(err))
		h.render(a.layout(node.Title, alert("error", "The delivery routes could not be displayed.")))
	})
}
