package store

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is the currency of new invoices.
const DefaultCurrency = "GTQ"

// CreateInvoice stores a draft invoice with its lines in one transaction. A missing UUID
// is generated.
func (s *Store) CreateInvoice(ctx context.Context, inv *Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	client, err := s.GetClient(ctx, inv.ClientID)
	if err != nil {
		return err
	}
	if inv.UUID == "" {
		inv.UUID = uuid.NewString()
	}
	if inv.Status == "" {
		inv.Status = InvoiceDraft
	}
	if inv.Currency == "" {
		inv.Currency = DefaultCurrency
	}
	now := s.timestamp()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin invoice transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO invoices (uuid, client_id, status, currency, created_at) VALUES (?, ?, ?, ?, ?)
	`, inv.UUID, inv.ClientID, string(inv.Status), inv.Currency, now)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	if inv.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}
	for i := range inv.Lines {
		l := &inv.Lines[i]
		res, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price) VALUES (?, ?, ?, ?)
		`, inv.ID, l.Description, l.Quantity, l.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
		if l.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert invoice line: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invoice: %w", err)
	}
	inv.ClientName = client.Name
	inv.ClientNIT = client.NIT
	inv.CreatedAt = time.Unix(now, 0)
	return nil
}

// GetInvoice returns the invoice with its lines.
func (s *Store) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	var created int64
	err := s.db.QueryRowContext(ctx, `
		SELECT i.id, i.uuid, i.client_id, c.name, c.nit, i.status, i.currency, i.created_at
		FROM invoices i JOIN clients c ON c.id = i.client_id
		WHERE i.id = ?
	`, id).Scan(&inv.ID, &inv.UUID, &inv.ClientID, &inv.ClientName, &inv.ClientNIT, &inv.Status,
		&inv.Currency, &created)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, notFound("invoice", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	inv.CreatedAt = time.Unix(created, 0)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, quantity, unit_price FROM invoice_lines WHERE invoice_id = ? ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice lines %d: %w", id, err)
	}
	defer rows.Close()
	inv.Lines = []InvoiceLine{}
	for rows.Next() {
		var l InvoiceLine
		if err := rows.Scan(&l.ID, &l.Description, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	return &inv, rows.Err()
}

// ListInvoices returns invoices newest first, without their lines. An empty status lists all.
func (s *Store) ListInvoices(ctx context.Context, status InvoiceStatus) ([]Invoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.uuid, i.client_id, c.name, c.nit, i.status, i.currency, i.created_at,
			COALESCE((SELECT SUM(l.quantity * l.unit_price) FROM invoice_lines l WHERE l.invoice_id = i.id), 0)
		FROM invoices i JOIN clients c ON c.id = i.client_id
		WHERE ? = '' OR i.status = ?
		ORDER BY i.created_at DESC, i.id DESC
	`, string(status), string(status))
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		var created int64
		if err := rows.Scan(&inv.ID, &inv.UUID, &inv.ClientID, &inv.ClientName, &inv.ClientNIT,
			&inv.Status, &inv.Currency, &created, &inv.total); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.CreatedAt = time.Unix(created, 0)
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// InvoiceStatusCounts returns the number of invoices per status. Every status is present.
func (s *Store) InvoiceStatusCounts(ctx context.Context) (map[InvoiceStatus]int, error) {
	counts := make(map[InvoiceStatus]int, len(InvoiceStatuses))
	for _, st := range InvoiceStatuses {
		counts[st] = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM invoices GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count invoices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st InvoiceStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, fmt.Errorf("scan invoice count: %w", err)
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
