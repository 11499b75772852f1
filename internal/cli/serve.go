package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/negaga53/codecompass/internal/metrics"
	"github.com/negaga53/codecompass/internal/nav"
	"github.com/negaga53/codecompass/internal/server"
)

// newServeRunner indexes --root once and answers MCP tool calls over stdio.
// Logs go to stderr; stdout belongs to the protocol.
func newServeRunner(version string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		root, err := rootPath(cmd, args)
		if err != nil {
			return err
		}
		metricsAddr, err := OptionalStringFlag(cmd, "metrics-addr")
		if err != nil {
			return err
		}
		s, err := newSession(cmd, root)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		g, diagnostics, err := s.build(ctx, true)
		if err != nil {
			return err
		}
		if len(diagnostics) > 0 {
			s.logger.Warn("graph built with diagnostics", "count", len(diagnostics))
		}
		engine := nav.NewEngine(g, nav.WithMetrics(metrics.Default()))

		if metricsAddr != "" {
			stop := serveMetrics(ctx, s, metricsAddr)
			defer stop()
		}
		return server.New(engine, version, s.logger).Run(ctx)
	}
}

func serveMetrics(ctx context.Context, s *session, addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Default().Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		s.logger.Info("metrics listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", "error", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
