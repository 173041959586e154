package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/log"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running migrate application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	logger = logger.With(slog.String("database", cfg.Postgres.DB))

	before, err := db.SchemaVersion(ctx, pgxPool)
	if err != nil {
		return fmt.Errorf("error reading catalog schema version: %w", err)
	}
	logger.InfoContext(ctx, "migrating catalog schema", slog.Int64("from_version", before))

	if err := db.Migrate(ctx, pgxPool, logger); err != nil {
		return fmt.Errorf("error migrating database: %w", err)
	}

	after, err := db.SchemaVersion(ctx, pgxPool)
	if err != nil {
		return fmt.Errorf("error reading catalog schema version: %w", err)
	}

	if after == before {
		logger.InfoContext(ctx, "catalog schema already up to date", slog.Int64("version", after))
		return nil
	}
	logger.InfoContext(ctx, "catalog schema migrated",
		slog.Int64("from_version", before),
		slog.Int64("to_version", after),
	)

	return nil
}
