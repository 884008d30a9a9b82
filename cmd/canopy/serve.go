package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/canopy"
	httpAdapter "github.com/aretw0/canopy/internal/adapters/http"
	"github.com/aretw0/canopy/internal/config"
	"github.com/aretw0/canopy/internal/logging"
	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the stateless HTTP server",
	Long: `Starts the filtering engine in stateless server mode, exposing a JSON
API over HTTP. Each request carries its own observations (and optional
parameter overrides), so the server holds no per-client state.`,
	Run: func(cmd *cobra.Command, args []string) {
		configPath, _ := cmd.Flags().GetString("config")
		port, _ := cmd.Flags().GetString("port")
		redisAddr, _ := cmd.Flags().GetString("redis")
		cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")

		logger := logging.New(slog.LevelInfo)

		cfg, err := config.Load(configPath)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}

		registry := prometheus.NewRegistry()
		metrics := observability.NewMetrics(registry)

		evaluator, err := canopy.NewEvaluator(cfg, canopy.WithEvaluatorLogger(logger))
		if err != nil {
			fmt.Printf("Error initializing evaluator: %v\n", err)
			os.Exit(1)
		}

		var likelihood ports.Evaluator = evaluator
		if redisAddr != "" {
			store := redis.New(redisAddr, "", 0)
			likelihood = redis.NewCache(store.Client(), evaluator, redis.WithCacheTTL(cacheTTL))
			logger.Info("Likelihood caching enabled", "address", redisAddr, "ttl", cacheTTL)
		}

		handler := httpAdapter.NewHandler(cfg, likelihood,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
			httpAdapter.WithLifecycleHooks(metrics.Hooks()),
		)

		srv := &http.Server{
			Addr:    ":" + port,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting Canopy Server", "address", srv.Addr, "config", configPath)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("Starting shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "error", err)
				}
			}
			logger.Info("Canopy Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	serveCmd.Flags().String("redis", "", "Redis address for likelihood caching (empty disables caching)")
	serveCmd.Flags().Duration("cache-ttl", 0, "TTL for cached likelihood values (0 keeps them forever)")
}
