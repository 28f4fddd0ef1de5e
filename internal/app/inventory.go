package app

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	apperrors "github.com/jackielii/ventas/internal/errors"
	"github.com/jackielii/ventas/internal/store"
	"github.com/jackielii/ventas/structpages"
)

type inventory struct {
	Products []store.Product
	Entries  []store.InventoryEntry
}

type inventoryPage struct{}

func (inventoryPage) Props(r *http.Request, a *App) (inventory, error) {
	products, err := a.store.ListProducts(r.Context())
	if err != nil {
		return inventory{}, err
	}
	entries, err := a.store.ListInventoryEntries(r.Context(), 0)
	if err != nil {
		return inventory{}, err
	}
	return inventory{Products: products, Entries: entries}, nil
}

func (inventoryPage) Page(inv inventory, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, component(func(h *htmlWriter) {
		h.printf(`<p><a href="%s">Record goods received</a></p>`, h.url(newInventoryEntryPage{}))
		h.raw(`<h2>Products</h2><table class="products"><thead><tr><th>SKU</th><th>Name</th><th>Unit</th>` +
			`</tr></thead><tbody>`)
		for _, p := range inv.Products {
			h.printf(`<tr><td><code>%s</code></td><td>%s</td><td>%s</td></tr>`, p.SKU, p.Name, p.Unit)
		}
		h.raw(`</tbody></table><h2>Entries</h2>`)
		if len(inv.Entries) == 0 {
			h.raw(`<p class="muted">No entries recorded.</p>`)
			return
		}
		h.raw(`<table class="entries"><thead><tr><th>Date</th><th>Product</th><th class="num">Quantity</th>` +
			`<th class="num">Unit cost</th><th class="num">Total</th><th>Supplier</th><th>Reference</th></tr></thead><tbody>`)
		for _, e := range inv.Entries {
			h.raw(`<tr><td>`)
			h.render(localDate(e.CreatedAt))
			h.printf(`</td><td>%s</td><td class="num">%s</td><td class="num">%s</td><td class="num">%s</td><td>%s</td><td>%s</td></tr>`,
				e.ProductName, a.money.Number(e.Quantity), a.money.Format(e.UnitCost), a.money.Format(e.Total()),
				e.Supplier, e.Reference)
		}
		h.raw(`</tbody></table>`)
	}))
}

type entryForm struct {
	ProductID int64  `form:"product_id"`
	Quantity  string `form:"quantity"`
	UnitCost  string `form:"unit_cost"`
	Supplier  string `form:"supplier"`
	Reference string `form:"reference"`
}

func (f entryForm) entry() (*store.InventoryEntry, error) {
	qty, err := parseQuantity("quantity", f.Quantity)
	if err != nil {
		return nil, err
	}
	cost, err := parseAmount("unit_cost", f.UnitCost)
	if err != nil {
		return nil, err
	}
	return &store.InventoryEntry{
		ProductID: f.ProductID,
		Quantity:  qty,
		UnitCost:  cost,
		Supplier:  strings.TrimSpace(f.Supplier),
		Reference: strings.TrimSpace(f.Reference),
	}, nil
}

type newInventoryEntryPage struct{}

func (newInventoryEntryPage) Props(r *http.Request, a *App) ([]store.Product, error) {
	return a.store.ListProducts(r.Context())
}

func (newInventoryEntryPage) Page(products []store.Product, a *App, node *structpages.PageNode) templ.Component {
	return a.layout(node.Title, entryFormView(products, entryForm{}, ""))
}

func entryFormView(products []store.Product, f entryForm, errMsg string) templ.Component {
	return component(func(h *htmlWriter) {
		action := h.url(createInventoryEntryPage{})
		h.printf(`<form id="entry-form" method="post" action="%s" hx-post="%s" hx-target="this" hx-swap="outerHTML">`,
			action, action)
		formError(h, errMsg)
		h.raw(`<label for="product_id">Product</label><select id="product_id" name="product_id" required>`)
		h.raw(`<option value="">Choose a product</option>`)
		for _, p := range products {
			selected := ""
			if p.ID == f.ProductID {
				selected = " selected"
			}
			h.printf(`<option value="%d"%s>%s · %s</option>`, p.ID, trustedHTML(selected), p.SKU, p.Name)
		}
		h.raw(`</select>`)
		for _, field := range []formField{
			{Name: "quantity", Label: "Quantity", Value: f.Quantity, Required: true, Attrs: templ.Attributes{"inputmode": "numeric"}},
			{Name: "unit_cost", Label: "Unit cost (Q)", Value: f.UnitCost, Required: true, Attrs: templ.Attributes{"inputmode": "decimal"}},
			{Name: "supplier", Label: "Supplier", Value: f.Supplier},
			{Name: "reference", Label: "Reference", Value: f.Reference},
		} {
			field.render(h)
		}
		h.raw(`<button type="submit">Record entry</button></form>`)
	})
}

// createInventoryEntryPage records an entry from the new entry form.
type createInventoryEntryPage struct {
	app *App
}

func (p *createInventoryEntryPage) Init(a *App) {
	p.app = a
}

func (p *createInventoryEntryPage) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, "Malformed form")
	}
	var f entryForm
	if err := p.app.decoder.Decode(&f, r.PostForm); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryValidation, "Malformed form")
	}
	e, err := f.entry()
	if err == nil {
		err = p.app.store.CreateInventoryEntry(r.Context(), e)
		if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
			err = apperrors.ValidationFailed("product_id", "Product does not exist")
		}
	}
	if err != nil {
		if !apperrors.IsCategory(err, apperrors.CategoryValidation) {
			return err
		}
		products, lerr := p.app.store.ListProducts(r.Context())
		if lerr != nil {
			return lerr
		}
		p.app.respond(w, r, apperrors.HTTPStatus(err), "New inventory entry",
			entryFormView(products, f, apperrors.PublicMessage(err)))
		return nil
	}
	url, err := structpages.URLFor(r.Context(), inventoryPage{})
	if err != nil {
		return err
	}
	p.app.flash(r.Context(), fmt.Sprintf("Recorded %s × %s.", p.app.money.Number(e.Quantity), e.ProductName))
	p.app.redirect(w, r, url)
	return nil
}
