package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/productapi"
	"github.com/surrealdb/surrealdb.go/contrib/repokit/pkg/repository/metrics"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var (
		readOnly bool
		cacheTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the products HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("read-only") {
				c.cfg.HTTP.ReadOnly = readOnly
			}
			if cmd.Flags().Changed("cache-ttl") {
				c.cfg.HTTP.CacheTTL = cacheTTL
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx)
		},
	}

	cmd.Flags().BoolVar(&readOnly, "read-only", false, "reject every write with 503")
	cmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 0, "cache lookups for this long (0 disables the cache)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	b, err := openBackend(ctx, c.cfg, c.log)
	if err != nil {
		return err
	}
	defer c.closeBackend(b)

	collector, err := metrics.NewCollector(prometheus.DefaultRegisterer, "repokit")
	if err != nil {
		return err
	}

	app := productapi.New(b.store,
		productapi.WithLogger(c.log),
		productapi.WithReadOnly(c.cfg.HTTP.ReadOnly),
		productapi.WithCache(c.cfg.HTTP.CacheTTL),
		productapi.WithMetrics(collector, prometheus.DefaultGatherer),
	)

	server := &http.Server{
		Addr:              c.cfg.HTTP.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		c.log.Info().
			Str("addr", server.Addr).
			Bool("read_only", app.IsReadOnly()).
			Dur("cache_ttl", c.cfg.HTTP.CacheTTL).
			Msg("starting products server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		c.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
