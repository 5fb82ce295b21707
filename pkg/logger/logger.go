// Package logger provides the service's structured, levelled logger built on
// log/slog.
//
// WithCtx returns the per-request logger that the Logger middleware stores in
// the request context, so every line written while serving a request carries
// its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("item added", "owner", owner, "product", ref)
//	// → time=... level=INFO msg="item added" request_id=1f0c... owner=u1 product=66f...
package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/shashiranjanraj/storefront/config"
)

var L *slog.Logger

func init() {
	L = slog.New(consoleHandler())
	slog.SetDefault(L)
}

// consoleHandler writes JSON in production and human-readable text elsewhere.
func consoleHandler() slog.Handler {
	if config.IsProduction() {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Attach fans every subsequent record out to the console handler and the
// extra handlers given (for example a MongoHandler).
func Attach(extra ...slog.Handler) {
	if len(extra) == 0 {
		return
	}
	hs := append([]slog.Handler{consoleHandler()}, extra...)
	L = slog.New(NewMultiHandler(hs...))
	slog.SetDefault(L)
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx. Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }
