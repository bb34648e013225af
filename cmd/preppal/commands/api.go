package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/preppal/backend/internal/api"
	"github.com/preppal/backend/internal/api/handlers"
	"github.com/preppal/backend/internal/fallback"
	"github.com/preppal/backend/internal/forecast"
	"github.com/preppal/backend/internal/monitor"
	"github.com/preppal/backend/internal/retrain"
	"github.com/preppal/backend/internal/scheduler"
	"github.com/preppal/backend/internal/scheduler/jobs"
	"github.com/preppal/backend/pkg/redis"
)

// serviceVersion is reported by /api/health.
const serviceVersion = "3.0.0"

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

This command:
- Loads the model artifact (degraded mode if missing)
- Serves forecast, risk and recommendation endpoints
- Tracks accuracy and accepts retrain triggers
- Runs scheduled drift checks when enabled

Endpoints:
  GET  /health             - Health check
  POST /api/predict-week   - 7-day forecast
  POST /api/predict        - Single-day forecast
  POST /api/risk-alert     - Waste risk classification
  POST /api/recommend      - Production recommendation
  POST /api/accuracy       - Accuracy summary
  POST /api/log-accuracy   - Log realized sales against predictions
  POST /api/retrain        - Trigger retraining

Example:
  go run ./cmd/preppal api
  go run ./cmd/preppal api --port 8090`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== PrepPal API Server ===")

	ctx := context.Background()

	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	// Override port if flag is set
	if apiPort != "" {
		rt.cfg.Port = apiPort
	}
	log := rt.log

	log.WithFields(map[string]interface{}{
		"port": rt.cfg.Port,
		"env":  rt.cfg.Env,
	}).Info("Initializing API server")

	// Load the model. A missing or corrupt artifact is not fatal: the
	// server starts degraded and serves fallbacks until a deploy.
	if err := rt.store.LoadFromDisk(); err != nil {
		log.WithError(err).Warn("Model not loaded, starting in degraded mode")
	}

	// Redis-backed fallback persistence (optional)
	redisClient, err := redis.New(rt.cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()

	var remoteCache *redis.Cache
	var apiLimiter *redis.RateLimiter
	if redisClient.Enabled() {
		remoteCache = redis.NewCache(redisClient, "preppal")
		apiLimiter = redis.NewRateLimiter(redisClient, "preppal")
		log.Info("Redis fallback persistence and rate limiting enabled")
	}

	// Core components
	fallbackCache := fallback.New(remoteCache, log.Zerolog())
	generator := forecast.NewGenerator(rt.store, log.Zerolog())
	mon := monitor.New(rt.ledger, rt.cfg.Monitoring.DriftMAPE, log.Zerolog())
	gate := retrain.NewGate(rt.store, rt.hist, log.Zerolog())

	// Handlers
	forecastHandler := handlers.NewForecastHandler(generator, fallbackCache, rt.hist, rt.store, log)
	accuracyHandler := handlers.NewAccuracyHandler(rt.ledger, rt.cfg.Monitoring.DriftMAPE, log)
	retrainHandler := handlers.NewRetrainHandler(gate, log)
	healthHandler := handlers.NewHealthHandler(rt.store, serviceVersion)

	// Router and server
	router := api.NewRouter(forecastHandler, accuracyHandler, retrainHandler, healthHandler, apiLimiter, log)
	server := api.New(rt.cfg, log, router)

	// Background scheduler
	var sched *scheduler.Scheduler
	if rt.cfg.Scheduler.Enabled {
		sched = scheduler.New(log)
		if err := sched.AddJob(jobs.NewRetrainCheckJob(mon, gate, rt.cfg, log)); err != nil {
			return fmt.Errorf("add retrain check job: %w", err)
		}
		if err := sched.AddJob(jobs.NewAccuracyReportJob(mon, rt.cfg, log)); err != nil {
			return fmt.Errorf("add accuracy report job: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", rt.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /api/predict-week")
	fmt.Println("  POST /api/predict")
	fmt.Println("  POST /api/risk-alert")
	fmt.Println("  POST /api/recommend")
	fmt.Println("  POST /api/accuracy")
	fmt.Println("  POST /api/log-accuracy")
	fmt.Println("  POST /api/retrain")
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
