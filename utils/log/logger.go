package log

import (
	"context"
	"os"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey   ctxKey = "request_id"
	imageDigestKey ctxKey = "image_digest"
	monumentKey    ctxKey = "monument"
)

var logger *zap.Logger

func init() {
	if os.Getenv("DEBUG") == "true" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
}

// Set replaces the package logger. Call it before serving traffic.
func Set(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// L returns the package logger.
func L() *zap.Logger {
	return logger
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func WithImageDigest(ctx context.Context, digest string) context.Context {
	return context.WithValue(ctx, imageDigestKey, digest)
}

func WithMonument(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, monumentKey, name)
}

func WithCtx(ctx context.Context) *zap.Logger {
	fields := []zap.Field{}

	for _, key := range []ctxKey{requestIDKey, imageDigestKey, monumentKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			fields = append(fields, zap.String(string(key), v))
		}
	}

	return logger.With(fields...)
}

func With(fields ...zap.Field) *zap.Logger {
	return logger.With(fields...)
}
