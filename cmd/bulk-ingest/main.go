package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"earthistory/internal/app"
	"earthistory/internal/config"
	"earthistory/internal/database"
	"earthistory/internal/ingest"
	"earthistory/internal/logger"
	"earthistory/internal/provenance"
	"earthistory/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// Command line flags
	dryRun := flag.Bool("dry-run", false, "Query and merge without writing any file")
	era := flag.String("era", "", "Only run catalog queries whose name contains this text")
	images := flag.Bool("images", false, "Fill missing images from Wikipedia page summaries")
	persist := flag.Bool("persist", false, "Upsert admitted events into the database")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logr, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logr.Sync()

	var persister ingest.Persister
	if *persist && !*dryRun {
		if err := database.Connect(database.LoadConfig(), logr); err != nil {
			logr.Fatal("Failed to connect to database", "error", err)
		}
		defer database.Close()
		if err := database.Migrate(logr); err != nil {
			logr.Fatal("Failed to run migrations", "error", err)
		}
		persister = store.NewEventStore(database.DB, logr)
	}

	pipeline, err := app.NewPipeline(cfg, app.NewClient(cfg, nil, logr), persister, logr)
	if err != nil {
		logr.Fatal("Failed to build ingestion pipeline", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logr.Info("🚀 Starting bulk ingestion", "era", *era, "dry_run", *dryRun, "images", *images, "persist", *persist)
	result, err := pipeline.RunBulk(ctx, ingest.BulkOptions{
		Era:     *era,
		DryRun:  *dryRun,
		Images:  *images,
		Persist: *persist,
	})

	if result != nil {
		fmt.Printf("\nSeeded from previous run: %d\n", result.Seeded)
		fmt.Printf("New records this run:     %d\n", result.NewRecords)
		fmt.Printf("YouTube ids attached:     %d\n", result.Videos)
		if *images {
			fmt.Printf("Wikipedia images added:   %d (skipped %d, missing %d)\n", result.Images.Enriched, result.Images.Skipped, result.Images.Missing)
		}
		fmt.Println()
		fmt.Print(result.Summary.String())
		if result.Persisted != nil {
			fmt.Printf("\nPersisted: %d inserted of %d scanned\n", result.Persisted.Inserted, result.Persisted.Scanned)
		}
	}

	if err != nil {
		if errors.Is(err, provenance.ErrLicenseViolation) && result != nil && result.Decision != nil {
			fmt.Fprintf(os.Stderr, "\n❌ License gate rejected %d event(s); see %s\n", len(result.Decision.Violations), cfg.AuditPath)
		} else {
			fmt.Fprintf(os.Stderr, "\n❌ Bulk ingestion failed: %v\n", err)
		}
		logr.Sync()
		os.Exit(1)
	}

	if !*dryRun {
		fmt.Printf("\n✅ Wrote %s and %s\n", cfg.SeedPath, cfg.NormalizedPath)
	}
}
