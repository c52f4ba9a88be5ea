package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"earthistory/internal/app"
	"earthistory/internal/config"
	"earthistory/internal/ingest"
	"earthistory/internal/logger"
	"earthistory/internal/provenance"

	"github.com/joho/godotenv"
)

func main() {
	seedPath := flag.String("seed", "", "Seed snapshot to normalize (defaults to SEED_PATH)")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	if *seedPath != "" {
		cfg.SeedPath = *seedPath
	}
	logr, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logr.Sync()

	snap, err := ingest.LoadSnapshot(cfg.SeedPath)
	if err != nil {
		logr.Fatal("Failed to load seed snapshot", "path", cfg.SeedPath, "error", err)
	}

	out, err := provenance.BuildOutput(*snap, time.Now())
	if err != nil {
		logr.Fatal("Failed to normalize seed snapshot", "error", err)
	}

	decision, err := app.NewGate(cfg, logr).Admit(out)
	if err != nil {
		if errors.Is(err, provenance.ErrLicenseViolation) {
			fmt.Fprintf(os.Stderr, "❌ License gate rejected %d event(s); see %s\n", len(decision.Violations), cfg.AuditPath)
		} else {
			fmt.Fprintf(os.Stderr, "❌ Normalization failed: %v\n", err)
		}
		logr.Sync()
		os.Exit(1)
	}

	fmt.Printf("✅ Normalized %d events from %d sources into %s\n", len(out.Events), len(out.Sources), cfg.NormalizedPath)
	fmt.Printf("   License audit: %s\n", cfg.AuditPath)
}
