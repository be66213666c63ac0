package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yamahealth/medguard/internal/audit"
	"github.com/yamahealth/medguard/internal/cache"
	"github.com/yamahealth/medguard/internal/config"
	"github.com/yamahealth/medguard/internal/guard"
	"github.com/yamahealth/medguard/internal/lexicon"
	"github.com/yamahealth/medguard/internal/logger"
	"github.com/yamahealth/medguard/internal/meddb"
	"github.com/yamahealth/medguard/internal/monitor"
	"github.com/yamahealth/medguard/internal/server"
	"github.com/yamahealth/medguard/internal/translator"
	"github.com/yamahealth/medguard/internal/websocket"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("medguard %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck {
		performHealthCheck()
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled:  cfg.Logging.File.Enabled,
			Path:     cfg.Logging.File.Path,
			MaxSize:  cfg.Logging.File.MaxSize,
			MaxAge:   cfg.Logging.File.MaxAge,
			Compress: cfg.Logging.File.Compress,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting medguard",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	// Medication reference: file if configured, built-in set otherwise.
	entries := meddb.DefaultEntries()
	if cfg.Medications.File != "" {
		entries, err = meddb.LoadFile(cfg.Medications.File)
		if err != nil {
			log.Fatal("Failed to load medication reference", zap.Error(err))
		}
	}
	medIndex := meddb.NewIndex(entries, log.WithComponent("meddb").Logger)

	negations, err := lexicon.NewSet(cfg.Lexicons.Negations)
	if err != nil {
		log.Fatal("Failed to compile negation lexicons", zap.Error(err))
	}

	// Assemble the safety pipeline.
	guardLog := log.WithComponent("guard")
	pipeline := guard.NewPipeline(
		guard.NewMasker(medIndex, negations, guardLog),
		guard.NewRestorer(guardLog),
		guard.NewRepairer(cfg.Safety.RepairMaxDistance, guardLog),
		guard.NewVerifier(negations, cfg.Safety, guardLog),
		translator.NewClient(cfg.Translator, log.WithComponent("translator").Logger),
		guardLog,
	)

	opts := server.Options{
		Metrics: monitor.NewCollector(prometheus.DefaultRegisterer),
	}

	if cfg.Cache.Enabled {
		resultCache, err := cache.NewResultCache(&cfg.Cache, log.WithComponent("cache").Logger)
		if err != nil {
			log.Fatal("Failed to initialize result cache", zap.Error(err))
		}
		defer resultCache.Close()
		opts.Cache = resultCache
	}

	if cfg.Audit.Enabled {
		auditStore, err := audit.NewStore(&cfg.Audit, log.WithComponent("audit").Logger)
		if err != nil {
			log.Fatal("Failed to initialize audit store", zap.Error(err))
		}
		defer auditStore.Close()
		opts.Audit = auditStore
	}

	if cfg.WebSocket.Enabled {
		opts.WSHub = websocket.NewHub(&cfg.WebSocket, log.WithComponent("websocket").Logger)
	}

	srv := server.New(cfg, pipeline, opts, log)

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Give outstanding requests 30 seconds to complete
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			os.Exit(1)
		}

		log.Info("Server shutdown complete")
	}
}

// performHealthCheck performs a health check against the running server
func performHealthCheck() {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
