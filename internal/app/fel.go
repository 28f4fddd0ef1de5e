package app

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	apperrors "github.com/jackielii/ventas/internal/errors"
	"github.com/jackielii/ventas/internal/logfields"
	"github.com/jackielii/ventas/internal/store"
	"github.com/jackielii/ventas/structpages"
)

const recentInvoices = 5

type felDashboard struct {
	Counts map[store.InvoiceStatus]int
	Recent []store.Invoice
	Now    time.Time
}

type felDashboardPage struct{}

func (felDashboardPage) Props(r *http.Request, a *App) (felDashboard, error) {
	counts, err := a.store.InvoiceStatusCounts(r.Context())
	if err != nil {
		return felDashboard{}, err
	}
	recent, err := a.store.ListInvoices(r.Context(), "")
	if err != nil {
		return felDashboard{}, err
	}
	if len(recent) > recentInvoices {
		recent = recent[:recentInvoices]
	}
	return felDashboard{Counts: counts, Recent: recent, Now: a.now()}, nil
}

func (felDashboardPage) Page(d felDashboard, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, component(func(h *htmlWriter) {
		h.raw(`<p class="clock-line">Local time: `)
		h.render(localClock(d.Now))
		h.raw(`</p><ul class="status-counts">`)
		for _, st := range store.InvoiceStatuses {
			h.printf(`<li class="status-%s"><a href="%s">%s</a>: <strong>%s</strong></li>`,
				st, h.url(invoicesPage{})+"?status="+string(st), statusLabel(st), a.money.Number(int64(d.Counts[st])))
		}
		h.raw(`</ul><h2>Recent invoices</h2>`)
		h.render(invoiceTable(a, d.Recent))
		h.printf(`<p><a href="%s">Generate invoice</a></p>`, h.url(felGeneratePage{}))
	}))
}

func statusLabel(st store.InvoiceStatus) string {
	switch st {
	case store.InvoiceDraft:
		return "Drafts"
	case store.InvoiceCertified:
		return "Certified"
	case store.InvoiceCancelled:
		return "Cancelled"
	}
	return string(st)
}

// invoiceTable lists invoices with their locally formatted dates.
func invoiceTable(a *App, invoices []store.Invoice) templ.Component {
	return component(func(h *htmlWriter) {
		if len(invoices) == 0 {
			h.raw(`<p class="muted">No invoices.</p>`)
			return
		}
		h.raw(`<table class="invoices"><thead><tr><th>UUID</th><th>Client</th><th>NIT</th>` +
			`<th>Status</th><th>Date</th><th class="num">Total</th></tr></thead><tbody>`)
		for i := range invoices {
			inv := &invoices[i]
			h.printf(`<tr><td><code>%s</code></td><td><a href="%s">%s</a></td><td>%s</td><td>%s</td><td>`,
				inv.UUID, h.url(editClientPage{}, inv.ClientID), inv.ClientName, inv.ClientNIT, inv.Status)
			h.render(localDate(inv.CreatedAt))
			h.printf(`</td><td class="num">%s</td></tr>`, a.money.Format(inv.Total()))
		}
		h.raw(`</tbody></table>`)
	})
}

type invoiceList struct {
	Status   store.InvoiceStatus
	Invoices []store.Invoice
}

type invoicesPage struct{}

func (invoicesPage) Props(r *http.Request, a *App) (invoiceList, error) {
	status := store.InvoiceStatus(r.URL.Query().Get("status"))
	if status != "" && !validStatus(status) {
		return invoiceList{}, apperrors.ValidationFailed("status", fmt.Sprintf("Unknown invoice status %q", status))
	}
	invoices, err := a.store.ListInvoices(r.Context(), status)
	if err != nil {
		return invoiceList{}, err
	}
	return invoiceList{Status: status, Invoices: invoices}, nil
}

func validStatus(st store.InvoiceStatus) bool {
	for _, s := range store.InvoiceStatuses {
		if s == st {
			return true
		}
	}
	return false
}

func (p invoicesPage) Page(l invoiceList, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, component(func(h *htmlWriter) {
		self := h.url(invoicesPage{})
		h.printf(`<form class="filter" method="get" action="%s" hx-get="%s" hx-trigger="change" `+
			`hx-target="#invoice-table" hx-swap="outerHTML" hx-push-url="true">`, self, self)
		h.raw(`<label for="status">Status</label><select id="status" name="status"><option value="">All</option>`)
		for _, st := range store.InvoiceStatuses {
			selected := ""
			if st == l.Status {
				selected = " selected"
			}
			h.printf(`<option value="%s"%s>%s</option>`, st, trustedHTML(selected), statusLabel(st))
		}
		h.raw(`</select><noscript><button type="submit">Filter</button></noscript></form>`)
		h.render(p.InvoiceTable(l, a))
	}))
}

// InvoiceTable is the fragment the status filter swaps.
func (invoicesPage) InvoiceTable(l invoiceList, a *App) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw(`<div id="invoice-table">`)
		h.render(invoiceTable(a, l.Invoices))
		h.raw(`</div>`)
	})
}

// lineForm is one posted invoice line. Amounts stay strings until parsed so a bad
// value can be shown back to the user.
type lineForm struct {
	Description string `form:"description"`
	Quantity    string `form:"quantity"`
	UnitPrice   string `form:"unit_price"`
}

func (l lineForm) blank() bool {
	return strings.TrimSpace(l.Description) == "" && strings.TrimSpace(l.Quantity) == "" &&
		strings.TrimSpace(l.UnitPrice) == ""
}

type invoiceForm struct {
	ClientID int64      `form:"client_id"`
	Lines    []lineForm `form:"lines"`
}

const defaultLineRows = 3

// invoice parses the form into a draft. Blank rows are skipped.
func (f invoiceForm) invoice() (*store.Invoice, error) {
	inv := &store.Invoice{ClientID: f.ClientID}
	for i, l := range f.Lines {
		if l.blank() {
			continue
		}
		field := fmt.Sprintf("lines[%d]", i)
		qty, err := parseQuantity(field+".quantity", l.Quantity)
		if err != nil {
			return nil, err
		}
		price, err := parseAmount(field+".unit_price", l.UnitPrice)
		if err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, store.InvoiceLine{
			Description: strings.TrimSpace(l.Description),
			Quantity:    qty,
			UnitPrice:   price,
		})
	}
	return inv, nil
}

type felGeneratePage struct{}

func (felGeneratePage) Props(r *http.Request, a *App) ([]store.Client, error) {
	return a.store.ListClients(r.Context())
}

func (felGeneratePage) Page(clients []store.Client, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, invoiceFormView(clients, invoiceForm{}, ""))
}

// InvoiceLinesProps reads the index of the row to add.
func (felGeneratePage) InvoiceLinesProps(r *http.Request) (int, error) {
	row, err := strconv.Atoi(r.URL.Query().Get("row"))
	if err != nil || row < 0 {
		return 0, apperrors.ValidationFailed("row", "Invalid line row")
	}
	return row, nil
}

// InvoiceLines answers the add line button: one more row, and the button moved on to
// the next index out of band.
func (felGeneratePage) InvoiceLines(row int) templ.Component {
	return component(func(h *htmlWriter) {
		lineRow(h, row, lineForm{})
		addLineButton(h, row+1, true)
	})
}

func invoiceFormView(clients []store.Client, f invoiceForm, errMsg string) templ.Component {
	return component(func(h *htmlWriter) {
		action := h.url(generateInvoicePage{})
		h.printf(`<form id="invoice-form" method="post" action="%s" hx-post="%s" hx-target="this" hx-swap="outerHTML">`,
			action, action)
		formError(h, errMsg)
		h.raw(`<label for="client_id">Client</label><select id="client_id" name="client_id" required>`)
		h.raw(`<option value="">Choose a client</option>`)
		for _, c := range clients {
			selected := ""
			if c.ID == f.ClientID {
				selected = " selected"
			}
			h.printf(`<option value="%d"%s>%s (%s)</option>`, c.ID, trustedHTML(selected), c.Name, c.NIT)
		}
		h.raw(`</select><table class="lines"><thead><tr><th>Description</th><th>Quantity</th>` +
			`<th>Unit price</th></tr></thead><tbody id="invoice-lines">`)
		lines := f.Lines
		for len(lines) < defaultLineRows {
			lines = append(lines, lineForm{})
		}
		for i, l := range lines {
			lineRow(h, i, l)
		}
		h.raw(`</tbody></table>`)
		addLineButton(h, len(lines), false)
		h.raw(`<button type="submit">Create draft</button></form>`)
	})
}

func lineRow(h *htmlWriter, i int, l lineForm) {
	h.printf(`<tr><td><input name="lines[%d].description" value="%s" aria-label="Description"></td>`, i, l.Description)
	h.printf(`<td><input name="lines[%d].quantity" value="%s" inputmode="numeric" aria-label="Quantity"></td>`, i, l.Quantity)
	h.printf(`<td><input name="lines[%d].unit_price" value="%s" inputmode="decimal" aria-label="Unit price"></td></tr>`,
		i, l.UnitPrice)
}

func addLineButton(h *htmlWriter, next int, oob bool) {
	swapOOB := ""
	if oob {
		swapOOB = ` hx-swap-oob="true"`
	}
	h.printf(`<button id="add-line" type="button" hx-get="%s?row=%d" hx-target="#invoice-lines" hx-swap="beforeend"%s>Add line</button>`,
		h.url(felGeneratePage{}), next, trustedHTML(swapOOB))
}

// generateInvoicePage creates a draft invoice from the generator form.
type generateInvoicePage struct {
	app *App
}

func (p *generateInvoicePage) Init(a *App) {
	p.app = a
}

func (p *generateInvoicePage) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, "Malformed form")
	}
	var f invoiceForm
	if err := p.app.decoder.Decode(&f, r.PostForm); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, "Malformed form")
	}
	inv, err := f.invoice()
	if err == nil {
		err = p.app.store.CreateInvoice(r.Context(), inv)
	}
	if err != nil {
		if !apperrors.IsCategory(err, apperrors.CategoryValidation) {
			return err
		}
		clients, lerr := p.app.store.ListClients(r.Context())
		if lerr != nil {
			return lerr
		}
		p.app.respond(w, r, apperrors.HTTPStatus(err), "Generate invoice",
			invoiceFormView(clients, f, apperrors.PublicMessage(err)))
		return nil
	}
	p.app.logger.InfoContext(r.Context(), "draft invoice created",
		logfields.InvoiceID(inv.ID), logfields.ClientID(inv.ClientID))
	url, err := structpages.URLFor(r.Context(), invoicesPage{})
	if err != nil {
		return err
	}
	p.app.flash(r.Context(), fmt.Sprintf("Draft invoice %s created for %s.", inv.UUID, p.app.money.Format(inv.Total())))
	p.app.redirect(w, r, url+"?status="+string(store.InvoiceDraft))
	return nil
}
