package app

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/angelofallars/htmx-go"
)

// htmxConfig lets htmx swap 4xx and 5xx responses, so validation errors and alerts render.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[2345]..","swap":true}]}`

// localizeScript formats the content of client-only widgets in the browser's locale
// and time zone once htmx has loaded it.
const localizeScript = `htmx.onLoad(function (root) {
  function all(sel) {
    var found = Array.prototype.slice.call(root.querySelectorAll(sel));
    if (root.matches && root.matches(sel)) found.push(root);
    return found;
  }
  all("[data-local-date]").forEach(function (el) {
    el.textContent = new Date(el.getAttribute("datetime")).toLocaleDateString();
  });
  all("[data-local-clock]").forEach(function (el) {
    var tick = function () { el.textContent = new Date().toLocaleTimeString(); };
    tick();
    setInterval(tick, 1000);
  });
});`

type navLink struct {
	page  any
	label string
}

// nav lists the pages of the authenticated area in menu order.
var nav = []navLink{
	{felDashboardPage{}, "FEL"},
	{invoicesPage{}, "Invoices"},
	{felGeneratePage{}, "Generate invoice"},
	{inventoryPage{}, "Inventory"},
	{newInventoryEntryPage{}, "New entry"},
	{newClientPage{}, "Clients"},
	{routesPage{}, "Delivery routes"},
}

// layout is the page chrome of the _authenticated group: navigation, the flash message
// and the alert slot htmx errors are swapped into.
func (a *App) layout(title string, body templ.Component) templ.Component {
	return component(func(h *htmlWriter) {
		path := requestPath.Value(h.ctx)
		h.printf(`<!DOCTYPE html><html lang="%s"><head><meta charset="utf-8">`, a.locale)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.printf(`<meta name="htmx-config" content="%s">`, htmxConfig)
		h.printf(`<title>%s · %s</title>`, title, a.name)
		h.raw(`<script src="https://unpkg.com/htmx.org@2.0.4"></script>`)
		h.printf(`<script>%s</script>`, trustedHTML(localizeScript))
		h.raw(`</head><body><header><nav><ul>`)
		for _, link := range nav {
			href := h.url(link.page)
			current := ""
			if href == path {
				current = ` aria-current="page"`
			}
			h.printf(`<li><a href="%s"%s>%s</a></li>`, href, trustedHTML(current), link.label)
		}
		h.raw(`</ul></nav></header><main>`)
		h.printf(`<h1>%s</h1>`, title)
		h.raw(`<div id="alerts">`)
		if msg := a.popFlash(h.ctx); msg != "" {
			h.render(alert("success", msg))
		}
		h.raw(`</div>`)
		h.render(body)
		h.raw(`</main></body></html>`)
	})
}

// respond renders a full page, or only fragment when htmx asked for it.
func (a *App) respond(w http.ResponseWriter, r *http.Request, status int, title string, fragment templ.Component) {
	if htmx.IsHTMX(r) {
		a.render(w, r, status, fragment)
		return
	}
	a.render(w, r, status, a.layout(title, fragment))
}

// redirect sends the browser to url after a successful form post.
func (a *App) redirect(w http.ResponseWriter, r *http.Request, url string) {
	if htmx.IsHTMX(r) {
		_ = htmx.NewResponse().Redirect(url).Write(w)
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
