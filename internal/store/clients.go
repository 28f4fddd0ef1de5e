package store

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"time"
)

const clientColumns = `id, name, nit, email, phone, address, notes, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (*Client, error) {
	var c Client
	var created, updated int64
	if err := row.Scan(&c.ID, &c.Name, &c.NIT, &c.Email, &c.Phone, &c.Address, &c.Notes,
		&created, &updated); err != nil {
		return nil, err
	}
	c.CreatedAt = time.Unix(created, 0)
	c.UpdatedAt = time.Unix(updated, 0)
	return &c, nil
}

// CreateClient validates c and inserts it, setting its ID and timestamps.
func (s *Store) CreateClient(ctx context.Context, c *Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	now := s.timestamp()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO clients (name, nit, email, phone, address, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.Name, c.NIT, c.Email, c.Phone, c.Address, c.Notes, now, now)
	if err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert client: %w", err)
	}
	c.CreatedAt = time.Unix(now, 0)
	c.UpdatedAt = c.CreatedAt
	return nil
}

// UpdateClient validates c and saves every editable field.
func (s *Store) UpdateClient(ctx context.Context, c *Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	now := s.timestamp()
	res, err := s.db.ExecContext(ctx, `
		UPDATE clients SET name = ?, nit = ?, email = ?, phone = ?, address = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, c.NIT, c.Email, c.Phone, c.Address, c.Notes, now, c.ID)
	if err != nil {
		return fmt.Errorf("update client %d: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update client %d: %w", c.ID, err)
	}
	if n == 0 {
		return notFound("client", c.ID)
	}
	c.UpdatedAt = time.Unix(now, 0)
	return nil
}

func (s *Store) GetClient(ctx context.Context, id int64) (*Client, error) {
	c, err := scanClient(s.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if stdErrors.Is(err, sql.ErrNoRows) {
		return nil, notFound("client", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get client %d: %w", id, err)
	}
	return c, nil
}

// ListClients returns all clients ordered by name.
func (s *Store) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY name COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, *c)
	}
	return clients, rows.Err()
}
