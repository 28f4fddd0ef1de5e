package store

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/jackielii/ventas/internal/errors"
)

// CreateRoute stores a delivery route and its stops, numbering them in the given order.
func (s *Store) CreateRoute(ctx context.Context, r *DeliveryRoute) error {
	if strings.TrimSpace(r.Name) == "" {
		return apperrors.ValidationFailed("name", "Route name is required")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin route transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `INSERT INTO delivery_routes (name, driver, day) VALUES (?, ?, ?)`,
		r.Name, r.Driver, r.Day)
	if err != nil {
		return fmt.Errorf("insert route: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("insert route: %w", err)
	}
	for i := range r.Stops {
		st := &r.Stops[i]
		st.Position = i + 1
		res, err := tx.ExecContext(ctx, `
			INSERT INTO route_stops (route_id, position, client_id, lat, lng) VALUES (?, ?, ?, ?, ?)
		`, r.ID, st.Position, st.ClientID, st.Lat, st.Lng)
		if err != nil {
			return fmt.Errorf("insert route stop: %w", err)
		}
		if st.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert route stop: %w", err)
		}
	}
	return tx.Commit()
}

// ListRoutes returns all delivery routes with their stops in visiting order.
func (s *Store) ListRoutes(ctx context.Context) ([]DeliveryRoute, error) {
	routes, err := s.listRouteHeaders(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]int, len(routes))
	for i, r := range routes {
		index[r.ID] = i
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT st.id, st.route_id, st.position, st.client_id, c.name, c.address, st.lat, st.lng
		FROM route_stops st JOIN clients c ON c.id = st.client_id
		ORDER BY st.route_id, st.position
	`)
	if err != nil {
		return nil, fmt.Errorf("list route stops: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var st Stop
		var routeID int64
		if err := rows.Scan(&st.ID, &routeID, &st.Position, &st.ClientID, &st.ClientName, &st.Address,
			&st.Lat, &st.Lng); err != nil {
			return nil, fmt.Errorf("scan route stop: %w", err)
		}
		if i, ok := index[routeID]; ok {
			routes[i].Stops = append(routes[i].Stops, st)
		}
	}
	return routes, rows.Err()
}

func (s *Store) listRouteHeaders(ctx context.Context) ([]DeliveryRoute, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, driver, day FROM delivery_routes ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()
	var routes []DeliveryRoute
	for rows.Next() {
		var r DeliveryRoute
		if err := rows.Scan(&r.ID, &r.Name, &r.Driver, &r.Day); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}
