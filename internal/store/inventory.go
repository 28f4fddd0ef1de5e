package store

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jackielii/ventas/internal/errors"
)

// CreateProduct inserts p. SKUs are unique.
func (s *Store) CreateProduct(ctx context.Context, p *Product) error {
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
	if p.SKU == "" || strings.TrimSpace(p.Name) == "" {
		return apperrors.ValidationFailed("sku", "SKU and name are required")
	}
	if p.Unit == "" {
		p.Unit = "unidad"
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO products (sku, name, unit) VALUES (?, ?, ?)`,
		p.SKU, p.Name, p.Unit)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return apperrors.Wrap(err, apperrors.CategoryConflict, "SKU already exists").WithContext("sku", p.SKU)
		}
		return fmt.Errorf("insert product: %w", err)
	}
	if p.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := s.db.QueryRowContext(ctx, `SELECT id, sku, name, unit FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Unit)
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// ListProducts returns all products ordered by SKU.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, sku, name, unit FROM products ORDER BY sku`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Unit); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateInventoryEntry records goods received for an existing product.
func (s *Store) CreateInventoryEntry(ctx context.Context, e *InventoryEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	p, err := s.GetProduct(ctx, e.ProductID)
	if err != nil {
		return err
	}
	now := s.timestamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_entries (product_id, quantity, unit_cost, supplier, reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ProductID, e.Quantity, e.UnitCost, e.Supplier, e.Reference, now)
	if err != nil {
		return fmt.Errorf("insert inventory entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert inventory entry: %w", err)
	}
	e.ProductName = p.Name
	e.CreatedAt = time.Unix(now, 0)
	return nil
}

// ListInventoryEntries returns the most recent entries first. limit <= 0 returns all.
func (s *Store) ListInventoryEntries(ctx context.Context, limit int) ([]InventoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.product_id, p.name, e.quantity, e.unit_cost, e.supplier, e.reference, e.created_at
		FROM inventory_entries e JOIN products p ON p.id = e.product_id
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list inventory entries: %w", err)
	}
	defer rows.Close()

	var entries []InventoryEntry
	for rows.Next() {
		var e InventoryEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.ProductID, &e.ProductName, &e.Quantity, &e.UnitCost,
			&e.Supplier, &e.Reference, &created); err != nil {
			return nil, fmt.Errorf("scan inventory entry: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
