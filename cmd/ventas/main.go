// Command ventas serves the ventas back office.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/jackielii/ventas/internal/config"
)

// CLI definition & global flags.
type CLI struct {
	Config  string `short:"c" help:"Configuration file path (optional)." type:"path"`
	Verbose bool   `short:"v" help:"Enable debug logging."`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Start the HTTP server."`
	Routes RoutesCmd `cmd:"" help:"Print the route table."`
}

// Global is passed to every subcommand.
type Global struct {
	Config *config.Config
	Logger *slog.Logger
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ventas"),
		kong.Description("Back office for clients, inventory, FEL invoices and delivery routes."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cli.Verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx.FatalIfErrorf(ctx.Run(&Global{Config: cfg, Logger: logger}))
}
