package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/datamodel-lang/go-datamodel/config"
	"github.com/datamodel-lang/go-datamodel/registry"
	"github.com/datamodel-lang/go-datamodel/schema"
	"github.com/datamodel-lang/go-datamodel/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve schema validation and the registry over HTTP",
	Long: `Start the HTTP service.

Endpoints:
  POST /v1/validate          compile a schema, return datamodel or diagnostics
  POST /v1/format            return the schema in canonical formatting
  PUT  /v1/schemas/{name}    store a named schema (registry.enabled only)
  GET  /metrics              Prometheus metrics
  GET  /healthz              liveness

The configuration file is watched while the server runs; logging changes
apply immediately, listen address and registry changes on restart.

Examples:
  datamodel serve
  datamodel serve --addr 127.0.0.1:9000
  datamodel serve --config /etc/datamodel/datamodel.yaml`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides the configuration)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg)

	// Hot reload only works with a config file.
	if path := configFilePath(); path != "" {
		holder, err := config.NewHolder(path, logger)
		if err != nil {
			return err
		}
		holder.OnChange(func(next *config.Config) {
			if lvl, err := zerolog.ParseLevel(next.Logging.Level); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
			logger.Info().Msg("listen address and registry changes apply on restart")
		})
		if err := holder.WatchFile(); err != nil {
			logger.Warn().Err(err).Msg("config watch unavailable")
		}
		holder.WatchSignals()
		defer holder.Stop()
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithCacheSize(cfg.Server.CacheSize),
		server.WithSchemaOptions(schema.WithEnvLookup(cfg.EnvLookup())),
	}

	if cfg.Registry.Enabled {
		reg, err := registry.Open(cfg.Registry.Path,
			registry.WithLogger(logger),
			registry.WithSchemaOptions(schema.WithEnvLookup(cfg.EnvLookup())))
		if err != nil {
			return fmt.Errorf("open registry: %w", err)
		}
		defer reg.Close()
		opts = append(opts, server.WithRegistry(reg))
	}

	srv := server.NewServer(opts...)

	addr := cfg.Server.Addr()
	if serveAddr != "" {
		addr = serveAddr
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Bool("registry", cfg.Registry.Enabled).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
