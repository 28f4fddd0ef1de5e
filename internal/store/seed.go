package store

import (
	"context"
	"fmt"
)

// Seed fills an empty database with demo clients, products, invoices and routes.
// It does nothing when clients already exist.
func (s *Store) Seed(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients`).Scan(&n); err != nil {
		return fmt.Errorf("count clients: %w", err)
	}
	if n > 0 {
		return nil
	}

	clients := []Client{
		{Name: "Abarrotería La Esperanza", NIT: "1234567-8", Phone: "5555-0101", Address: "4a Avenida 3-21, Zona 1, Guatemala",
			Notes: "Recibe pedidos **lunes y jueves**."},
		{Name: "Farmacia San Juan", NIT: "7654321K", Email: "compras@farmaciasj.gt", Address: "Calzada Roosevelt 22-43, Zona 11"},
		{Name: "Consumidor final", NIT: "CF"},
	}
	for i := range clients {
		if err := s.CreateClient(ctx, &clients[i]); err != nil {
			return err
		}
	}

	products := []Product{
		{SKU: "ARZ-001", Name: "Arroz 1 lb"},
		{SKU: "FRJ-002", Name: "Frijol negro 1 lb"},
		{SKU: "ACT-003", Name: "Aceite 750 ml", Unit: "botella"},
	}
	for i := range products {
		if err := s.CreateProduct(ctx, &products[i]); err != nil {
			return err
		}
	}
	entries := []InventoryEntry{
		{ProductID: products[0].ID, Quantity: 200, UnitCost: 450, Supplier: "Distribuidora Central", Reference: "FAC-1001"},
		{ProductID: products[2].ID, Quantity: 48, UnitCost: 1875, Supplier: "Aceites del Sur"},
	}
	for i := range entries {
		if err := s.CreateInventoryEntry(ctx, &entries[i]); err != nil {
			return err
		}
	}

	invoices := []Invoice{
		{ClientID: clients[0].ID, Lines: []InvoiceLine{
			{Description: "Arroz 1 lb", Quantity: 20, UnitPrice: 650},
			{Description: "Aceite 750 ml", Quantity: 6, UnitPrice: 2500},
		}},
		{ClientID: clients[2].ID, Lines: []InvoiceLine{{Description: "Frijol negro 1 lb", Quantity: 2, UnitPrice: 800}}},
	}
	for i := range invoices {
		if err := s.CreateInvoice(ctx, &invoices[i]); err != nil {
			return err
		}
	}

	route := DeliveryRoute{Name: "Ruta Centro", Driver: "Luis", Day: "lunes", Stops: []Stop{
		{ClientID: clients[0].ID, Lat: 14.6407, Lng: -90.5133},
		{ClientID: clients[1].ID, Lat: 14.6263, Lng: -90.5541},
	}}
	return s.CreateRoute(ctx, &route)
}
