package log

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logCtxKey int

// New builds the application logger. format is either "console" (development encoder) or "json".
func New(level string, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	// stdout carries decoded speeds
	cfg.OutputPaths = []string{"stderr"}

	return cfg.Build()
}

func IntoContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, logCtxKey(0), logger)
}

func FromContext(ctx context.Context) *zap.Logger {
	val := ctx.Value(logCtxKey(0))
	if val != nil {
		return val.(*zap.Logger)
	}
	zap.L().Warn("No logger in context, passing default")
	return zap.L()
}
