package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/amaumene/cinesift/pkg/completion"
	"github.com/amaumene/cinesift/pkg/config"
	"github.com/amaumene/cinesift/pkg/discovery"
	"github.com/amaumene/cinesift/pkg/handlers"
	"github.com/amaumene/cinesift/pkg/metrics"
	"github.com/amaumene/cinesift/pkg/services"
	"github.com/amaumene/cinesift/pkg/tmdb"
	log "github.com/sirupsen/logrus"
)

const maintenanceInterval = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	// Setup logging
	logFile := setupLogging(cfg)
	if logFile != nil {
		defer logFile.Close()
	}
	log.Info("Starting cinesift")

	if !cfg.HasMetadata() {
		log.Warn("TMDB_API_KEY is not set, metadata lookups will report not configured")
	}
	if !cfg.HasCompletion() {
		log.WithField("provider", cfg.CompletionProvider).Warn("Completion API key is not set, AI features will report not configured")
	}

	m := metrics.New()
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	// Initialize upstream clients
	metadataClient := tmdb.NewClient(&tmdb.Config{
		APIKey:        cfg.MetadataAPIKey,
		BaseURL:       cfg.MetadataBaseURL,
		ImageBaseURL:  cfg.ImageBaseURL,
		Language:      cfg.Language,
		RatePerSecond: cfg.MetadataRatePerSecond,
		Client:        httpClient,
		Metrics:       m,
	})

	completionClient, err := completion.New(&completion.Config{
		Provider: cfg.CompletionProvider,
		APIKey:   cfg.CompletionAPIKey,
		Model:    cfg.CompletionModel,
		BaseURL:  cfg.CompletionBaseURL,
		Client:   httpClient,
		Metrics:  m,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to create completion client")
	}

	// Initialize services
	resolver := discovery.NewResolver(metadataClient, cfg.MaxConcurrentLookups, m)
	appService := services.NewAppService(
		metadataClient,
		completionClient,
		services.NewCatalogService(metadataClient, cfg.LookupAttempts),
		services.NewInsightService(completionClient, resolver),
		discovery.NewService(completionClient, resolver, m),
		discovery.NewSessions(0),
		nil,
	)

	// Initialize HTTP handlers
	handler := handlers.NewHandler(appService, m, cfg.APIKey)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go startBackgroundTasks(ctx, appService)

	// Start HTTP server
	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.ServerWriteTimeout(),
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("address", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	waitForShutdown(server, appService, cancel)
}

// setupLogging applies level and format, and tees into a rotating file when
// LOG_FILE is set.
func setupLogging(cfg *config.Config) io.Closer {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithError(err).Warn("Invalid log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if cfg.LogFile == "" {
		log.SetOutput(os.Stdout)
		return nil
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return rotator
}

// startBackgroundTasks prunes idle discovery sessions until ctx is done
func startBackgroundTasks(ctx context.Context, appService *services.AppService) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			appService.RunMaintenance()
		}
	}
}

// waitForShutdown waits for shutdown signals and gracefully shuts down
func waitForShutdown(server *http.Server, appService *services.AppService, stopBackground context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.WithField("signal", sig).Info("Received shutdown signal, initiating graceful shutdown")
	stopBackground()

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	} else {
		log.Info("HTTP server shut down successfully")
	}

	// Shutdown application service
	if err := appService.Close(); err != nil {
		log.WithError(err).Error("Failed to shutdown application service")
	} else {
		log.Info("Application service shut down successfully")
	}

	log.Info("Graceful shutdown completed")
}
