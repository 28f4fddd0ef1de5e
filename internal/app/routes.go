package app

import (
	"net/http"
	"strconv"

	apperrors "github.com/jackielii/ventas/internal/errors"
	"github.com/jackielii/ventas/structpages"
)

// pages is the route table. _authenticated is a pathless group: it adds the layout's
// middlewares and its name to the route IDs but no URL segment.
type pages struct {
	home          homePage           `route:"GET /{$} Home"`
	authenticated authenticatedPages `route:"/_authenticated"`
}

type authenticatedPages struct {
	editClient   editClientPage   `route:"GET /clients/edit-client/{clientId} Edit client"`
	updateClient updateClientPage `route:"POST /clients/edit-client/{clientId}"`
	fel          felPages         `route:"/fel FEL"`
	inventory    inventoryPages   `route:"/inventory Inventory"`
	newClient    newClientPage    `route:"GET /new-client New client"`
	createClient createClientPage `route:"POST /new-client"`
	routes       routesPage       `route:"GET /routes Delivery routes"`
}

type felPages struct {
	generate        felGeneratePage     `route:"GET /generate Generate invoice"`
	generateInvoice generateInvoicePage `route:"POST /generate"`
	dashboard       felDashboardPage    `route:"GET /{$} FEL"`
	invoices        invoicesPage        `route:"GET /invoices Invoices"`
}

type inventoryPages struct {
	index       inventoryPage            `route:"GET /{$} Inventory"`
	newEntry    newInventoryEntryPage    `route:"GET /new-entry New inventory entry"`
	createEntry createInventoryEntryPage `route:"POST /new-entry"`
}

func (authenticatedPages) Middlewares() []structpages.MiddlewareFunc {
	return []structpages.MiddlewareFunc{noStore}
}

// homePage sends visitors to the FEL dashboard.
type homePage struct{}

func (homePage) ServeHTTP(w http.ResponseWriter, r *http.Request) error {
	url, err := structpages.URLFor(r.Context(), felDashboardPage{})
	if err != nil {
		return err
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
	return nil
}

// pathID parses the numeric path parameter name. Malformed ids are reported as not found.
func pathID(r *http.Request, name, entity string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFound(entity, raw)
	}
	return id, nil
}
