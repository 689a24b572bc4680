package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gumloop/gumcp/internal/auth/factory"
	"github.com/gumloop/gumcp/internal/connectors"
	"github.com/gumloop/gumcp/internal/instrumentation"
	"github.com/gumloop/gumcp/internal/logging"
	"github.com/gumloop/gumcp/internal/server"
)

// MetricsConfig holds configuration for the metrics server.
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9091")
	Addr string
}

func newServeCmd() *cobra.Command {
	var (
		debugMode      bool
		httpAddr       string
		backend        string
		metricsEnabled bool
		metricsAddr    string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the stateless connector server",
		Long: `Start the HTTP server exposing every registered connector under
/{service}/{user_id}:{api_key}. A fresh connector instance is built per
request and discarded afterwards; no session state survives between
requests.

Credential backend selection:
  --backend nango|gumloop|local, or the ENVIRONMENT env var
  (nango and gumloop select the hosted brokers, anything else is local).

Backend configuration:
  Nango:   NANGO_SECRET_KEY, NANGO_HOST (default https://api.nango.dev)
  Gumloop: GUMLOOP_API_HOST (default https://api.gumloop.com/api/v1)
  Local:   GUMCP_LOCAL_AUTH_DIR (default ./local_auth)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			metricsConfig := MetricsConfig{
				Enabled: metricsEnabled,
				Addr:    metricsAddr,
			}
			if !cmd.Flags().Changed("metrics-addr") {
				if addr := os.Getenv("METRICS_ADDR"); addr != "" {
					metricsConfig.Addr = addr
				}
			}
			if !cmd.Flags().Changed("metrics-enabled") && os.Getenv("METRICS_ENABLED") == "false" {
				metricsConfig.Enabled = false
			}

			authCfg := factory.FromEnv()
			if backend != "" {
				authCfg.Backend = factory.Backend(backend)
			}

			return runServe(httpAddr, debugMode, authCfg, metricsConfig)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP server address")
	cmd.Flags().StringVar(&backend, "backend", "", "Credential backend: nango, gumloop or local. Overrides the ENVIRONMENT env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(httpAddr string, debugMode bool, authCfg factory.Config, metricsConfig MetricsConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logging.Setup(debugMode)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during instrumentation shutdown: %v", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				log.Printf("Metrics server failed: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}()
	}

	registry := server.NewRegistry(connectors.Definitions(authCfg, provider.Metrics()), nil)
	router := server.NewRouter(registry, server.WithMetrics(provider.Metrics()))

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("Starting gumcp stateless server on %s\n", httpAddr)
	fmt.Printf("  Connector endpoints: /{service}/{user_id}:{api_key}\n")
	fmt.Printf("  Health endpoint: /health_check\n")
	fmt.Printf("  Registered connectors: %d\n", registry.Len())
	if metricsServer != nil {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", metricsServer.Addr())
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverDone <- err
		}
	}()

	select {
	case <-shutdownCtx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		ctx, cancelShutdown := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancelShutdown()
		if err := httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
