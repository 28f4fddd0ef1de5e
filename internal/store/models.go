package store

import (
	"regexp"
	"strings"
	"time"

	apperrors "github.com/jackielii/ventas/internal/errors"
)

// Client is a customer that can be invoiced and visited by a delivery route.
type Client struct {
	ID      int64
	Name    string
	NIT     string // tax id, "CF" for final consumers
	Email   string
	Phone   string
	Address string
	Notes   string // markdown
	// set by the store
	CreatedAt time.Time
	UpdatedAt time.Time
}

var nitPattern = regexp.MustCompile(`^(CF|[0-9]{1,12}-?[0-9K])$`)

// NormalizeNIT upper-cases a tax id and strips spaces.
func NormalizeNIT(nit string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(nit), " ", ""))
}

// Validate checks the required fields. The NIT check digit is not verified.
func (c *Client) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.NIT = NormalizeNIT(c.NIT)
	if c.Name == "" {
		return apperrors.ValidationFailed("name", "Name is required")
	}
	if c.NIT == "" {
		return apperrors.ValidationFailed("nit", "NIT is required")
	}
	if !nitPattern.MatchString(c.NIT) {
		return apperrors.ValidationFailed("nit", "NIT must be CF or digits with a check character")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return apperrors.ValidationFailed("email", "Email is invalid")
	}
	return nil
}

// Product is an inventory item.
type Product struct {
	ID   int64
	SKU  string
	Name string
	Unit string
}

// InventoryEntry records goods received. Amounts are in centavos.
type InventoryEntry struct {
	ID          int64
	ProductID   int64
	ProductName string // filled by queries
	Quantity    int64
	UnitCost    int64
	Supplier    string
	Reference   string
	CreatedAt   time.Time
}

func (e *InventoryEntry) Validate() error {
	if e.ProductID == 0 {
		return apperrors.ValidationFailed("product_id", "Product is required")
	}
	if e.Quantity <= 0 {
		return apperrors.ValidationFailed("quantity", "Quantity must be positive")
	}
	if e.UnitCost < 0 {
		return apperrors.ValidationFailed("unit_cost", "Unit cost cannot be negative")
	}
	return nil
}

// Total returns quantity times unit cost.
func (e InventoryEntry) Total() int64 { return e.Quantity * e.UnitCost }

// InvoiceStatus is the lifecycle state of a FEL invoice.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceCertified InvoiceStatus = "certified"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// InvoiceStatuses lists every status in display order.
var InvoiceStatuses = []InvoiceStatus{InvoiceDraft, InvoiceCertified, InvoiceCancelled}

// Invoice is a FEL invoice. Drafts carry a locally generated UUID in place of the
// certifier's authorization number.
type Invoice struct {
	ID         int64
	UUID       string
	ClientID   int64
	ClientName string // filled by queries
	ClientNIT  string // filled by queries
	Status     InvoiceStatus
	Currency   string
	Lines      []InvoiceLine
	CreatedAt  time.Time
	// total is filled by list queries that do not load lines
	total int64
}

// InvoiceLine is one item of an invoice. Amounts are in centavos.
type InvoiceLine struct {
	ID          int64
	Description string
	Quantity    int64
	UnitPrice   int64
}

// Total returns quantity times unit price.
func (l InvoiceLine) Total() int64 { return l.Quantity * l.UnitPrice }

// Total returns the sum of the line totals.
func (inv *Invoice) Total() int64 {
	if inv.Lines == nil {
		return inv.total
	}
	var sum int64
	for _, l := range inv.Lines {
		sum += l.Total()
	}
	return sum
}

func (inv *Invoice) Validate() error {
	if inv.ClientID == 0 {
		return apperrors.ValidationFailed("client_id", "Client is required")
	}
	if len(inv.Lines) == 0 {
		return apperrors.ValidationFailed("lines", "At least one line is required")
	}
	for _, l := range inv.Lines {
		if strings.TrimSpace(l.Description) == "" {
			return apperrors.ValidationFailed("lines", "Every line needs a description")
		}
		if l.Quantity <= 0 {
			return apperrors.ValidationFailed("lines", "Line quantities must be positive")
		}
		if l.UnitPrice < 0 {
			return apperrors.ValidationFailed("lines", "Line prices cannot be negative")
		}
	}
	return nil
}

// DeliveryRoute is a named list of client stops, visited in the order entered.
type DeliveryRoute struct {
	ID     int64
	Name   string
	Driver string
	Day    string
	Stops  []Stop
}

// Stop is one visit of a delivery route.
type Stop struct {
	ID         int64
	Position   int
	ClientID   int64
	ClientName string // filled by queries
	Address    string // client address, filled by queries
	Lat        float64
	Lng        float64
}
