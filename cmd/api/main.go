package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"

	"github.com/ashmitsharp/spendlens/internal/config"
	"github.com/ashmitsharp/spendlens/internal/handlers"
	"github.com/ashmitsharp/spendlens/internal/logger"
	"github.com/ashmitsharp/spendlens/internal/middleware"
	"github.com/ashmitsharp/spendlens/internal/services"
	"github.com/ashmitsharp/spendlens/internal/utils"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.New("spendlens-api", "info").Fatal("invalid configuration", "error", err)
	}

	appLog := logger.New("spendlens-api", cfg.LogLevel)
	if envErr != nil {
		appLog.Debug(".env file not found, using system environment variables")
	}

	// Pipeline: parser -> normalizer -> aggregator
	validator := services.NewFileValidator(cfg.MaxUploadBytes)
	parser := services.NewParser(appLog.WithPrefix("parser"))
	ingestor := services.NewIngestor(parser, validator, appLog.WithPrefix("ingest"))
	dates := services.NewDateParser(cfg.DateLayouts...)
	aggregator := services.NewAggregator(dates)
	pipeline := services.NewPipeline(ingestor, aggregator)

	sessions := services.NewSessionStore(cfg.SessionTTL)

	sessionHandler := handlers.NewSessionHandler(sessions)
	uploadHandler := handlers.NewUploadHandler(sessions, pipeline, cfg.MaxFilesPerUpload, cfg.MaxUploadBytes, appLog.WithPrefix("upload"))

	app := fiber.New(fiber.Config{
		AppName:      "spendlens API v1.0",
		ErrorHandler: utils.ErrorHandler,
		BodyLimit:    int(cfg.MaxUploadBytes) * cfg.MaxFilesPerUpload,
	})

	app.Use(middleware.RequestLogger(appLog.WithPrefix("http")))
	app.Use(middleware.CORS(cfg.AllowedOrigins))
	app.Use(middleware.ResponseHeaders())

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "spendlens-api",
			"sessions": sessions.Len(),
		})
	})

	handlers.RegisterRoutes(app.Group("/v1"), sessionHandler, uploadHandler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SessionTTL > 0 {
		go sweepSessions(ctx, sessions, cfg.SessionSweepInterval, appLog)
	}

	go func() {
		<-ctx.Done()
		appLog.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			appLog.Error("shutdown failed", "error", err)
		}
	}()

	appLog.Info("spendlens API is running", "addr", cfg.Addr(), "environment", cfg.Environment,
		"date_layouts", dates.Layouts())
	if err := app.Listen(cfg.Addr(), fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		appLog.Fatal("server stopped", "error", err)
	}
}

// sweepSessions evicts expired sessions until ctx is cancelled
func sweepSessions(ctx context.Context, sessions *services.SessionStore, interval time.Duration, sweepLog *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := sessions.Sweep(); removed > 0 {
				sweepLog.Debug("expired sessions removed", "count", removed)
			}
		}
	}
}
