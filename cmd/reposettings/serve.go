package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/c360studio/reposettings/api"
	"github.com/c360studio/reposettings/config"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the validation API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			if addr != "" {
				a.cfg.Server.Addr = addr
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			ln, err := net.Listen("tcp", a.cfg.Server.Addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
			}
			return serve(ctx, ln, a.cfg, a.configPath, a.logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// serve runs the HTTP API on ln until ctx is done. When configPath is set
// the file is watched and probe settings are reloaded on change.
func serve(ctx context.Context, ln net.Listener, cfg *config.Config, configPath string, logger *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	v, err := newValidator(cfg, logger, reg)
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}

	handler := api.NewHandler(v, reg, logger)
	mux := http.NewServeMux()
	handler.RegisterHTTPHandlers(mux)

	if configPath != "" {
		w, err := config.NewWatcher(config.WatcherConfig{
			Path:   configPath,
			Logger: logger,
			OnChange: func(next *config.Config) {
				if next.Server.Addr != cfg.Server.Addr {
					logger.Warn("Listen address changes need a restart",
						"current", cfg.Server.Addr, "configured", next.Server.Addr)
				}
				nv, err := newValidator(next, logger, reg)
				if err != nil {
					logger.Error("Failed to rebuild validator", "error", err)
					return
				}
				handler.SetChecker(nv)
				logger.Info("Probe settings reloaded",
					"broker_timeout", next.Probes.BrokerTimeout,
					"lookup_timeout", next.Probes.LookupTimeout)
			},
		})
		if err != nil {
			return fmt.Errorf("watch config: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("Config watcher stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.Info("Reposettings ready",
		"version", Version,
		"addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("Reposettings shutdown complete")
	return nil
}
