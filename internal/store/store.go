// Package store persists clients, inventory, FEL invoices and delivery routes in SQLite.
package store

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"time"

	apperrors "github.com/jackielii/ventas/internal/errors"
	_ "modernc.org/sqlite"
)

// ErrNotFound is the cause of every not-found error the store returns.
var ErrNotFound = stdErrors.New("not found")

// Store handles all database operations.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the SQLite database at path and creates the schema.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection: SQLite serializes writers anyway and ":memory:" is per connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS clients (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	nit TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS products (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	sku TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	unit TEXT NOT NULL DEFAULT 'unidad'
);

CREATE TABLE IF NOT EXISTS inventory_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	product_id INTEGER NOT NULL REFERENCES products(id),
	quantity INTEGER NOT NULL,
	unit_cost INTEGER NOT NULL,
	supplier TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_inventory_product ON inventory_entries(product_id);

CREATE TABLE IF NOT EXISTS invoices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid TEXT NOT NULL UNIQUE,
	client_id INTEGER NOT NULL REFERENCES clients(id),
	status TEXT NOT NULL,
	currency TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS invoice_lines (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	description TEXT NOT NULL,
	quantity INTEGER NOT NULL,
	unit_price INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invoice_lines_invoice ON invoice_lines(invoice_id);

CREATE TABLE IF NOT EXISTS delivery_routes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	driver TEXT NOT NULL DEFAULT '',
	day TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS route_stops (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	route_id INTEGER NOT NULL REFERENCES delivery_routes(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	client_id INTEGER NOT NULL REFERENCES clients(id),
	lat REAL NOT NULL DEFAULT 0,
	lng REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_route_stops_route ON route_stops(route_id, position);
`

func (s *Store) initialize() error {
	_, err := s.db.Exec(schema)
	return err
}

func notFound(entity string, id int64) error {
	return apperrors.Wrap(ErrNotFound, apperrors.CategoryNotFound, entity+" not found").WithContext("id", id)
}

func (s *Store) timestamp() int64 {
	return s.now().Unix()
}
