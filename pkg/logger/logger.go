// Package logger provides the structured logger used across the storefront,
// built on log/slog.
//
// Request handlers should log through WithCtx so every line carries the
// request ID injected by the Logger middleware:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_id", id)
//
// Order and payment transitions additionally go through Audit, which is
// mirrored to MongoDB when LOG_MONGO_URI is set.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/shashiranjanraj/storefront/config"
)

var (
	// L is the base logger.
	L *slog.Logger

	mu    sync.RWMutex
	audit *slog.Logger
	sink  *MongoHandler
)

func init() {
	L = slog.New(newHandler(os.Stdout))
	audit = L
	slog.SetDefault(L)
}

func newHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLevel(config.LogLevel())}
	if config.IsProduction() {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetOutput replaces the base handler's writer. Used by tests and the CLI.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	L = slog.New(newHandler(w))
	if sink == nil {
		audit = L
	} else {
		audit = slog.New(NewMultiHandler(L.Handler(), sink))
	}
	slog.SetDefault(L)
}

// EnableAuditSink connects the MongoDB sink. Audit records are written to
// both stdout and the collection. The returned func flushes and disconnects.
func EnableAuditSink(uri, db, collection string) (func(), error) {
	h, err := NewMongoHandler(uri, db, collection)
	if err != nil {
		return nil, err
	}
	mu.Lock()
	sink = h
	audit = slog.New(NewMultiHandler(L.Handler(), h))
	mu.Unlock()

	return func() {
		mu.Lock()
		sink = nil
		audit = L
		mu.Unlock()
		h.Close()
	}, nil
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored by InjectLogger, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Audit records an order or payment event. The request_id from ctx is kept.
func Audit(ctx context.Context, msg string, args ...any) {
	mu.RLock()
	a := audit
	mu.RUnlock()

	if rid := requestID(ctx); rid != "" {
		args = append(args, "request_id", rid)
	}
	a.InfoContext(ctx, msg, append(args, "audit", true)...)
}

// requestIDKey is set by InjectRequestID; reqid imports nothing from here.
type requestIDKey struct{}

// InjectRequestID makes the request ID visible to Audit.
func InjectRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
