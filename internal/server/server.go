// Package server runs a booted kernel: the HTTP listener, the gRPC health
// side port, queue workers and the scheduler. Everything stops when ctx is
// cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/grpc"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

// Options tune what Start runs besides the HTTP server.
type Options struct {
	Port     string
	GRPCPort string // empty disables the health side port
	Workers  int    // queue workers; zero disables them

	ShutdownTimeout time.Duration
}

// Start serves k until ctx is cancelled, then drains in-flight requests.
func Start(ctx context.Context, k *kernel.Kernel, opts Options) error {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	srv := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()
		logger.Info("server: shutting down")
		return srv.Shutdown(sctx)
	})

	if opts.GRPCPort != "" {
		g.Go(func() error {
			return grpc.New(k.Ping).Listen(ctx, opts.GRPCPort)
		})
	}

	if opts.Workers > 0 {
		g.Go(func() error {
			k.Queue.Work(ctx, opts.Workers).Wait()
			return nil
		})
	}

	g.Go(func() error {
		k.Scheduler.Start(ctx)
		<-ctx.Done()
		k.Scheduler.Wait()
		return nil
	})

	return g.Wait()
}
