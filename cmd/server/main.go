package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"earthistory/internal/app"
	"earthistory/internal/cache"
	"earthistory/internal/config"
	"earthistory/internal/database"
	"earthistory/internal/handlers"
	"earthistory/internal/ingest"
	"earthistory/internal/logger"
	"earthistory/internal/services"
	"earthistory/internal/store"
	"earthistory/internal/worker"
	"earthistory/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
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

	// Without a database the server runs in dev mode: previews work, writes answer 503
	devMode := false
	if err := database.Connect(database.LoadConfig(), logr); err != nil {
		logr.Warn("⚠️ Database not available, running in development mode", "error", err)
		devMode = true
	} else if err := database.Migrate(logr); err != nil {
		logr.Fatal("Failed to run migrations", "error", err)
	}
	defer database.Close()

	var topicCache cache.TopicCache
	if cfg.RedisAddr != "" {
		rc, err := cache.NewRedis(cfg.RedisAddr, logr)
		if err != nil {
			logr.Warn("⚠️ Redis not available, using in-memory topic cache", "error", err)
			topicCache = cache.NewMemory()
		} else {
			defer rc.Close()
			topicCache = rc
		}
	} else {
		topicCache = cache.NewMemory()
	}

	client := app.NewClient(cfg, topicCache, logr)

	var (
		persister  ingest.Persister
		hierarchy  services.HierarchySaver
		recorder   services.RunRecorder
		runLister  handlers.RunLister
		counter    handlers.EventCounter
		runStore   *store.RunStore
		eventStore *store.EventStore
	)
	if !devMode {
		eventStore = store.NewEventStore(database.DB, logr)
		runStore = store.NewRunStore(database.DB)
		persister, counter = eventStore, eventStore
		recorder, runLister = runStore, runStore
		hierarchy = store.NewTopicStore(database.DB, logr)
	}

	pipeline, err := app.NewPipeline(cfg, client, persister, logr)
	if err != nil {
		logr.Fatal("Failed to build ingestion pipeline", "error", err)
	}

	// Initialize and start background workers
	var reingest *workers.ReingestWorker
	if cfg.IngestInterval > 0 {
		var runs workers.RunRecorder
		if runStore != nil {
			runs = runStore
		}
		reingest = workers.NewReingestWorker(pipeline, runs, workers.ReingestConfig{
			Interval: cfg.IngestInterval,
			Options:  ingest.BulkOptions{Persist: !devMode},
		}, logr)
	}
	workerService := worker.NewWorkerService(reingest, logr)
	if err := workerService.Start(); err != nil {
		logr.Fatal("Failed to start background workers", "error", err)
	}

	// Setup graceful shutdown
	setupGracefulShutdown(workerService, logr)

	suggestions := services.NewSuggestionService(client, hierarchy, logr)
	ingestion := services.NewIngestionService(pipeline, suggestions, recorder, logr)

	setupServer(cfg, logr, devMode, workerService, ingestion,
		handlers.NewAdminHandler(runLister, counter, workerService, cfg.AdminPassword))
}

func setupGracefulShutdown(workerService *worker.WorkerService, logr *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		logr.Info("Received shutdown signal, gracefully shutting down...")

		workerService.Stop()
		database.Close()

		logr.Info("Shutdown complete")
		logr.Sync()
		os.Exit(0)
	}()
}

func setupServer(cfg *config.Config, logr *logger.Logger, devMode bool, workerService *worker.WorkerService, ingestion *services.IngestionService, adminHandler *handlers.AdminHandler) {
	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	healthHandler := handlers.NewHealthHandler(workerService, devMode)
	ingestionHandler := handlers.NewIngestionHandler(ingestion, logr)

	// Health check and metrics
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		ingestionHandler.Register(api.Group("/ingestion"), adminHandler.AdminAuth())

		api.GET("/worker/status", healthHandler.WorkerStatus)
	}

	admin := r.Group("/admin", adminHandler.AdminAuth())
	{
		admin.GET("/", adminHandler.ServeAdminDashboard)
		admin.GET("/runs", adminHandler.ListRuns)
		admin.GET("/runs/:id", adminHandler.GetRun)
		admin.POST("/reingest", adminHandler.TriggerReingest)
	}

	logr.Info("Server starting", "port", cfg.Port, "dev_mode", devMode)
	if err := r.Run(":" + cfg.Port); err != nil {
		logr.Fatal("Failed to start server", "error", err)
	}
}
