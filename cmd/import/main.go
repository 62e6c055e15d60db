// Package main imports a legacy perfumes.json document into the collection
// database.
//
// Usage:
//
//	go run ./cmd/import -input ~/perfumes.json
//	go run ./cmd/import -input ~/perfumes.json -force  # Replace a non-empty collection
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/scentlog/scentlog-server/internal/config"
	"github.com/scentlog/scentlog-server/internal/importer"
	"github.com/scentlog/scentlog-server/internal/logger"
	"github.com/scentlog/scentlog-server/internal/store/sqlite"
)

var (
	input = flag.String("input", "perfumes.json", "Legacy collection document to import")
	force = flag.Bool("force", false, "Replace the collection even if it already holds perfumes")
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("Import failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	res, err := importer.New(log.Logger).ReadFile(*input)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Data.BasePath, 0o755); err != nil {
		return err
	}
	db, err := sqlite.Open(cfg.Data.DatabasePath(), log.Logger)
	if err != nil {
		return err
	}
	defer db.Close()

	existing, err := db.Load(ctx)
	if err != nil {
		return err
	}
	if len(existing.Perfumes) > 0 && !*force {
		return fmt.Errorf("database %s already holds %d perfumes; rerun with -force to replace them",
			cfg.Data.DatabasePath(), len(existing.Perfumes))
	}

	if err := db.Save(ctx, res.Snapshot); err != nil {
		return err
	}

	for _, w := range res.Warnings {
		log.Warn("Skipped during import", "detail", w)
	}
	log.Info("Import complete",
		"path", cfg.Data.DatabasePath(),
		"perfumes", len(res.Snapshot.Perfumes),
		"events", res.Events,
		"notes", res.Notes,
		"warnings", len(res.Warnings),
	)
	return nil
}
