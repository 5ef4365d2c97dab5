package cellknn

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with cellknn-specific helpers. The library
// never configures logging on its own; hosts inject a Logger via
// WithLogger or get the silent default.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(ctx context.Context, useKey string, nObs, nDim int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "index build failed",
			"use_key", useKey,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index build completed",
			"use_key", useKey,
			"n_obs", nObs,
			"n_dim", nDim,
		)
	}
}

// LogQuery logs a neighbor query.
func (l *Logger) LogQuery(ctx context.Context, queries, k int, obsKey string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "neighbor query failed",
			"queries", queries,
			"k", k,
			"obs_key", obsKey,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "neighbor query completed",
			"queries", queries,
			"k", k,
			"obs_key", obsKey,
		)
	}
}
