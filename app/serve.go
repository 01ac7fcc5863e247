package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mbocsi/dutchctl/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var errNoTarget = errors.New("no target: pass --target or set target in the config file")

func (a *App) serveCmd() *cobra.Command {
	var target, listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP control API",
		Long: `Serve an HTTP API that runs commands against one pair of speakers.

Routes:
  GET  /api/commands         list commands
  POST /api/commands/{name}  run a command
  POST /api/volume           set the gain, body {"gain": -20}
  GET  /api/state            dump the network state
  GET  /metrics              Prometheus metrics`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"defaultLogLevel": "info"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("target") {
				a.cfg.Target = target
			}
			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}
			handler, err := a.httpHandler()
			if err != nil {
				return err
			}
			return serveHTTP(cmd.Context(), &http.Server{
				Addr:              a.cfg.Listen,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			})
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "hostname or IPv4 address of a speaker")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8080)")
	return cmd
}

// httpHandler builds the API handler for the configured target.
func (a *App) httpHandler() (http.Handler, error) {
	if a.cfg.Target == "" {
		return nil, errNoTarget
	}
	c, err := a.newClient(io.Discard)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return web.NewServer(c, a.cfg.Target, reg).Routes(), nil
}

// serveHTTP runs srv until ctx is cancelled, then shuts it down.
func serveHTTP(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Started HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		slog.Info("Shut down HTTP server")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
