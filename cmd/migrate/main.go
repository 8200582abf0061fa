package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/pedidos/internal/app"
	"github.com/vladislavdragonenkov/pedidos/internal/storage/postgres"
)

const (
	defaultTimeout = 30 * time.Second
)

// schemaStore — операции со схемой, которые нужны утилите.
type schemaStore interface {
	EnsureSchema(ctx context.Context) error
	Probe(ctx context.Context) (int, error)
	Close() error
}

var openStore = func(ctx context.Context, dsn string) (schemaStore, error) {
	return postgres.Open(ctx, dsn)
}

func main() {
	if err := run(os.Args[1:], os.LookupEnv, os.Stdout, os.Stderr); err != nil {
		fail("%v", err)
	}
}

func run(args []string, lookup app.EnvLookup, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		direction string
		dsn       string
		timeout   time.Duration
	)
	fs.StringVar(&direction, "direction", "up", "action: up|status")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN (fallback: DATABASE_URL / DB_* env)")
	fs.DurationVar(&timeout, "timeout", defaultTimeout, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	action := strings.ToLower(strings.TrimSpace(direction))
	if action != "up" && action != "status" {
		return fmt.Errorf("unsupported direction: %s (use up|status)", direction)
	}

	if strings.TrimSpace(dsn) == "" {
		dbCfg, warnings := app.ResolveDatabase(lookup)
		for _, w := range warnings {
			_, _ = fmt.Fprintln(stderr, "warning:", w)
		}
		dsn = dbCfg.DSN()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := openStore(ctx, strings.TrimSpace(dsn))
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	if action == "up" {
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema failed: %w", err)
		}
		_, _ = fmt.Fprintln(stdout, "schema ok: table pedidos is present")
	}

	value, err := store.Probe(ctx)
	if err != nil {
		return fmt.Errorf("db probe failed: %w", err)
	}
	_, _ = fmt.Fprintf(stdout, "db status: probe=%d\n", value)
	return nil
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
