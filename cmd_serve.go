package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-approx-engine/pkg/api"
	"github.com/gilchrisn/graph-approx-engine/pkg/config"
	"github.com/gilchrisn/graph-approx-engine/pkg/service"
)

func runServe(cmd *cobra.Command, args []string) error {
	log := logger(cmd)

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Address = serveAddr
	}

	log.Info().
		Str("address", cfg.Server.Address).
		Dur("read_timeout", cfg.Server.ReadTimeout).
		Dur("write_timeout", cfg.Server.WriteTimeout).
		Float64("rate_limit", cfg.Server.RateLimit).
		Int64("max_body_bytes", cfg.Server.MaxBodyBytes).
		Int("max_vertices", cfg.Server.MaxVertices).
		Msg("Configuration loaded")

	limits := api.Limits{MaxBodyBytes: cfg.Server.MaxBodyBytes, MaxVertices: cfg.Server.MaxVertices}
	router := api.NewRouter(api.NewHandlers(service.NewRegistry(), limits))
	if cfg.Server.RateLimit > 0 {
		router.Use(api.RateLimitMiddleware(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return err
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	log.Info().Msg("Server shutdown complete")
	return nil
}
