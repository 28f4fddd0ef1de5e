package app

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"

	apperrors "github.com/jackielii/ventas/internal/errors"
	"github.com/jackielii/ventas/internal/logfields"
	"github.com/jackielii/ventas/internal/store"
	"github.com/jackielii/ventas/structpages"
)

// clientForm is the posted new/edit client form.
type clientForm struct {
	Name    string `form:"name"`
	NIT     string `form:"nit"`
	Email   string `form:"email"`
	Phone   string `form:"phone"`
	Address string `form:"address"`
	Notes   string `form:"notes"`
}

func (f clientForm) apply(c *store.Client) {
	c.Name, c.NIT, c.Email, c.Phone, c.Address, c.Notes = f.Name, f.NIT, f.Email, f.Phone, f.Address, f.Notes
}

func clientFormFrom(c *store.Client) clientForm {
	return clientForm{Name: c.Name, NIT: c.NIT, Email: c.Email, Phone: c.Phone, Address: c.Address, Notes: c.Notes}
}

func (a *App) decodeClient(r *http.Request) (clientForm, error) {
	var f clientForm
	if err := r.ParseForm(); err != nil {
		return f, apperrors.Wrap(err, apperrors.CategoryValidation, "Malformed form")
	}
	if err := a.decoder.Decode(&f, r.PostForm); err != nil {
		return f, apperrors.Wrap(err, apperrors.CategoryValidation, "Malformed form")
	}
	return f, nil
}

// clientFormView renders the client form posting to action. previewURL enables the live
// notes preview of the edit page.
func clientFormView(action string, f clientForm, errMsg, previewURL string) templ.Component {
	return component(func(h *htmlWriter) {
		h.printf(`<form id="client-form" method="post" action="%s" hx-post="%s" hx-target="this" hx-swap="outerHTML">`,
			action, action)
		formError(h, errMsg)
		for _, field := range []formField{
			{Name: "name", Label: "Name", Value: f.Name, Required: true},
			{Name: "nit", Label: "NIT", Value: f.NIT, Required: true, Attrs: templ.Attributes{"placeholder": "CF"}},
			{Name: "email", Label: "Email", Type: "email", Value: f.Email},
			{Name: "phone", Label: "Phone", Type: "tel", Value: f.Phone},
			{Name: "address", Label: "Address", Value: f.Address},
		} {
			field.render(h)
		}
		notes := formField{Name: "notes", Label: "Notes (markdown)", Type: "textarea", Value: f.Notes}
		if previewURL != "" {
			notes.Attrs = templ.Attributes{
				"hx-get":     previewURL,
				"hx-trigger": "keyup changed delay:500ms",
				"hx-target":  "#notes-preview",
			}
		}
		notes.render(h)
		if previewURL != "" {
			h.raw(`<section id="notes-preview" class="notes">`)
			h.raw(`</section>`)
		}
		h.raw(`<button type="submit">Save</button></form>`)
	})
}

type newClientPage struct{}

func (newClientPage) Props(r *http.Request, a *App) ([]store.Client, error) {
	return a.store.ListClients(r.Context())
}

func (newClientPage) Page(clients []store.Client, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, component(func(h *htmlWriter) {
		h.render(clientFormView(h.url(createClientPage{}), clientForm{}, "", ""))
		h.raw(`<section class="client-list"><h2>Clients</h2>`)
		if len(clients) == 0 {
			h.raw(`<p class="muted">No clients yet.</p></section>`)
			return
		}
		h.raw(`<table><thead><tr><th>Name</th><th>NIT</th><th>Phone</th></tr></thead><tbody>`)
		for _, c := range clients {
			h.printf(`<tr><td><a href="%s">%s</a></td><td>%s</td><td>%s</td></tr>`,
				h.url(editClientPage{}, c.ID), c.Name, c.NIT, c.Phone)
		}
		h.raw(`</tbody></table></section>`)
	}))
}

// createClientPage handles the new client form.
type createClientPage struct {
	app *App
}

func (p *createClientPage) Init(a *App) {
	p.app = a
}

func (p *createClientPage) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	f, err := p.app.decodeClient(r)
	if err != nil {
		return err
	}
	c := &store.Client{}
	f.apply(c)
	if err := p.app.store.CreateClient(r.Context(), c); err != nil {
		if apperrors.IsCategory(err, apperrors.CategoryValidation) {
			action, uerr := structpages.URLFor(r.Context(), createClientPage{})
			if uerr != nil {
				return uerr
			}
			p.app.respond(w, r, apperrors.HTTPStatus(err), "New client",
				clientFormView(action, f, apperrors.PublicMessage(err), ""))
			return nil
		}
		return err
	}
	p.app.logger.InfoContext(r.Context(), "client created", logfields.ClientID(c.ID))
	url, err := structpages.URLFor(r.Context(), editClientPage{}, c.ID)
	if err != nil {
		return err
	}
	p.app.flash(r.Context(), fmt.Sprintf("Client %s created.", c.Name))
	p.app.redirect(w, r, url)
	return nil
}

type editClientPage struct{}

func (editClientPage) Props(r *http.Request, a *App) (*store.Client, error) {
	id, err := pathID(r, "clientId", "client")
	if err != nil {
		return nil, err
	}
	return a.store.GetClient(r.Context(), id)
}

func (editClientPage) Page(c *store.Client, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, component(func(h *htmlWriter) {
		self := h.url(editClientPage{}, c.ID)
		h.printf(`<p class="muted">Client since %s</p>`, isoDate(c.CreatedAt))
		h.render(clientFormView(self, clientFormFrom(c), "", self))
		if c.Notes != "" {
			notes, err := a.markdown.Render(c.Notes)
			if err != nil {
				h.fail(err)
				return
			}
			h.printf(`<section class="notes"><h2>Notes</h2>%s</section>`, notes)
		}
	}))
}

// NotesPreviewProps renders the notes typed so far, sent by the form's hx-get.
func (editClientPage) NotesPreviewProps(r *http.Request, a *App) (trustedHTML, error) {
	return a.markdown.Render(r.URL.Query().Get("notes"))
}

// NotesPreview is the fragment swapped into #notes-preview.
func (editClientPage) NotesPreview(notes trustedHTML) templ.Component {
	return component(func(h *htmlWriter) {
		h.printf(`%s`, notes)
	})
}

// updateClientPage handles the edit client form.
type updateClientPage struct {
	app *App
}

func (p *updateClientPage) Init(a *App) {
	p.app = a
}

func (p *updateClientPage) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "clientId", "client")
	if err != nil {
		return err
	}
	c, err := p.app.store.GetClient(r.Context(), id)
	if err != nil {
		return err
	}
	f, err := p.app.decodeClient(r)
	if err != nil {
		return err
	}
	f.apply(c)
	self, err := structpages.URLFor(r.Context(), editClientPage{}, id)
	if err != nil {
		return err
	}
	if err := p.app.store.UpdateClient(r.Context(), c); err != nil {
		if apperrors.IsCategory(err, apperrors.CategoryValidation) {
			p.app.respond(w, r, apperrors.HTTPStatus(err), "Edit client",
				clientFormView(self, f, apperrors.PublicMessage(err), self))
			return nil
		}
		return err
	}
	p.app.logger.InfoContext(r.Context(), "client updated", logfields.ClientID(c.ID))
	p.app.flash(r.Context(), fmt.Sprintf("Client %s saved.", c.Name))
	p.app.redirect(w, r, self)
	return nil
}
