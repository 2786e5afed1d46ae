package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formsubmit/pkg/httpapi"
)

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the forms HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}
			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var wg sync.WaitGroup
			for _, run := range a.background {
				wg.Add(1)
				go func(run func(context.Context) error) {
					defer wg.Done()
					if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error().Err(err).Msg("background worker stopped")
					}
				}(run)
			}

			server := httpapi.New(a.forms,
				httpapi.WithPipeline(a.pipeline),
				httpapi.WithMetrics(a.metrics),
				httpapi.WithLogger(logger),
			)
			httpServer := &http.Server{
				Addr:    cfg.HTTPAddr,
				Handler: server.Router(),
			}

			errChan := make(chan error, 1)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()
			logger.Info().
				Str("addr", cfg.HTTPAddr).
				Int("forms", len(a.forms.All())).
				Str("store", cfg.Store.Driver).
				Msg("listening")

			var serveErr error
			select {
			case serveErr = <-errChan:
			case <-ctx.Done():
			}
			stop()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("shutdown")
			}
			wg.Wait()
			if err := a.close(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("close")
			}
			return serveErr
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides FORMSUBMIT_HTTP_ADDR)")
	return cmd
}
