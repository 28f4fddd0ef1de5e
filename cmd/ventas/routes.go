package main

import (
	"fmt"
	"os"

	"github.com/jackielii/ventas/internal/app"
	"github.com/jackielii/ventas/internal/store"
)

// RoutesCmd prints the route table with the IDs used in logs and metrics.
type RoutesCmd struct{}

func (RoutesCmd) Run(g *Global) error {
	st, err := store.Open(":memory:")
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	a, err := app.New(app.Options{Config: g.Config, Store: st, Logger: g.Logger})
	if err != nil {
		return err
	}
	table, err := a.RouteTable()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, table)
	return err
}
