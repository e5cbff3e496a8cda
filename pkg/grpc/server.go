// Package grpc runs the side-port gRPC server that exposes the standard
// grpc.health.v1.Health service. Serving status follows a readiness probe
// (database ping) so orchestrators can route traffic away from a storefront
// instance that lost its database.
package grpc

import (
	"context"
	"fmt"
	"net"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

var (
	handledTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "grpc",
		Name:      "handled_total",
		Help:      "Completed gRPC calls by method and code.",
	}, []string{"method", "code"})

	handlingSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "grpc",
		Name:      "handling_seconds",
		Help:      "gRPC response latency in seconds.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"method"})
)

func init() {
	metrics.Registry.MustRegister(handledTotal, handlingSeconds)
}

// Probe reports whether a dependency is healthy.
type Probe func(ctx context.Context) error

// Server wraps a grpc.Server with a health service driven by a Probe.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	probe  Probe
	every  time.Duration
}

// New builds the server. A nil probe means always serving.
func New(probe Probe) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(recoveryInterceptor, observeInterceptor),
		grpc.MaxRecvMsgSize(1<<20),
	)
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return &Server{srv: srv, health: hs, probe: probe, every: 10 * time.Second}
}

// Serve blocks serving lis and probing health until ctx is cancelled, then
// stops gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.check(ctx)
	go func() {
		ticker := time.NewTicker(s.every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.srv.GracefulStop()
				return
			case <-ticker.C:
				s.check(ctx)
			}
		}
	}()

	logger.Info("grpc: health server listening", "addr", lis.Addr().String())
	if err := s.srv.Serve(lis); err != nil {
		return fmt.Errorf("grpc: serve: %w", err)
	}
	return nil
}

// Listen opens :port and calls Serve.
func (s *Server) Listen(ctx context.Context, port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("grpc: listen on :%s: %w", port, err)
	}
	return s.Serve(ctx, lis)
}

func (s *Server) check(ctx context.Context) {
	st := grpc_health_v1.HealthCheckResponse_SERVING
	if s.probe != nil {
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := s.probe(pctx)
		cancel()
		if err != nil {
			logger.Warn("grpc: readiness probe failed", "error", err)
			st = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus("storefront", st)
}

func recoveryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("grpc: panic recovered",
				"method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
			err = status.Errorf(codes.Internal, "internal server error")
		}
	}()
	return handler(ctx, req)
}

func observeInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)

	handledTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
	handlingSeconds.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	logger.Debug("grpc: request", "method", info.FullMethod, "code", code.String(),
		"duration_ms", time.Since(start).Milliseconds())
	return resp, err
}
