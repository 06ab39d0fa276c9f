package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moonlightbl/moonlight"
)

var serveFlags struct {
	addr     string
	db       string
	statsDB  string
	static   string
	logLevel string
}

// serveCmd runs the HTTP server until SIGINT or SIGTERM.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "Listen address (overrides config)")
	f.StringVar(&serveFlags.db, "db", "", "Catalog SQLite path (overrides config)")
	f.StringVar(&serveFlags.statsDB, "stats-db", "", "Statistics SQLite path (overrides config)")
	f.StringVar(&serveFlags.static, "static", "", "Static and uploads directory (overrides config)")
	f.StringVar(&serveFlags.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := moonlight.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if serveFlags.addr != "" {
		cfg.Addr = serveFlags.addr
	}
	if serveFlags.db != "" {
		cfg.DatabasePath = serveFlags.db
	}
	if serveFlags.statsDB != "" {
		cfg.StatsDatabasePath = serveFlags.statsDB
	}
	if serveFlags.static != "" {
		cfg.StaticDir = serveFlags.static
	}
	if serveFlags.logLevel != "" {
		cfg.LogLevel = serveFlags.logLevel
	}

	app := moonlight.New(cfg)
	defer app.Close()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errc
}
