package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/huangsam/storefront/internal/contract"
	"github.com/huangsam/storefront/internal/fakestore"
	"github.com/huangsam/storefront/internal/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// fakestoreCmd serves a local catalog API for development and demos.
var fakestoreCmd = &cobra.Command{
	Use:   "fakestore",
	Short: "Serve a local in-memory catalog API",
	Long: `Run a small catalog server with the same routes as the public fake store API.

Point the client at it with --api-base-url. Edits live in memory only and are
lost when the server stops.

Examples:
  storefront fakestore --addr 127.0.0.1:8080
  storefront products list --api-base-url http://127.0.0.1:8080`,
	PreRunE: storageSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		delay, _ := cmd.Flags().GetDuration("delay")

		// Request logs are the point of this command, so they are always on.
		logger, err := contract.NewLogger(true)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTelEndpoint, serviceName+"-fakestore")
		if err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
		defer func() { _ = shutdownTracing(context.Background()) }()

		store := fakestore.New(fakestore.SeedProducts(), logger)
		store.SetDelay(delay)
		srv := &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(store, "fakestore"),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("fake store listening", zap.String("addr", addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("fake store shutting down")
		return srv.Shutdown(shutdownCtx)
	},
}
