package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/headlinescore/internal/api"
	"github.com/crimson-sun/headlinescore/internal/engine"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the headline scoring HTTP API",
	Long: `Loads the model bundle, then serves GET /status, POST /score_headlines,
and GET /metrics until interrupted. The server does not listen until the
bundle is loaded; a missing classifier artifact exits with an error.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (overrides server.port)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	bundle, err := engine.LoadBundle(ctx, bundleConfig(cfg))
	if err != nil {
		return err
	}
	defer bundle.Close()

	svc := engine.New(bundle, engine.WithMaxBatch(cfg.Server.MaxBatch))
	metrics := api.NewMetrics()
	router := api.NewRouter(api.NewHandler(svc, metrics, cfg.Server.MaxBodyBytes), metrics)

	port := cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout.Std(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout.Std(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "address", addr, "labels", svc.Labels(), "version", Version)
		// ErrServerClosed is the expected result of Shutdown.
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			cancel()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	default:
	}
	slog.Info("shutdown complete")
	return nil
}
