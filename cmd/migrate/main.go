package main

import (
	"log"

	"earthistory/internal/config"
	"earthistory/internal/database"
	"earthistory/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logr, err := logger.New(config.Load().LogMode)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logr.Sync()

	// Connect to database
	dbConfig := database.LoadConfig()
	logr.Info("🔍 Database config", "host", dbConfig.Host, "port", dbConfig.Port, "db", dbConfig.DBName, "sslmode", dbConfig.SSLMode)
	if err := database.Connect(dbConfig, logr); err != nil {
		logr.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	logr.Info("🔄 Running database migrations...")

	if err := database.Migrate(logr); err != nil {
		logr.Fatal("Failed to run migrations", "error", err)
	}
}
