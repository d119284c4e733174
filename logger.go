package gridpool

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with gridpool-specific context.
// This provides structured logging with consistent field names.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithCenters adds a center-count field to the logger.
func (l *Logger) WithCenters(n int) *Logger {
	return &Logger{
		Logger: l.Logger.With("centers", n),
	}
}

// WithPass adds a gather-pass number field to the logger.
func (l *Logger) WithPass(pass int) *Logger {
	return &Logger{
		Logger: l.Logger.With("pass", pass),
	}
}

// LogGatherPass logs the outcome of one gather pass.
func (l *Logger) LogGatherPass(ctx context.Context, pass, capacity, consumed, estimate int, overflowed bool) {
	if overflowed {
		l.DebugContext(ctx, "gather pass overflowed",
			"pass", pass,
			"capacity", capacity,
			"consumed", consumed,
			"next_estimate", estimate,
		)
	} else {
		l.DebugContext(ctx, "gather pass completed",
			"pass", pass,
			"capacity", capacity,
			"consumed", consumed,
		)
	}
}

// LogQuery logs a completed grid query.
func (l *Logger) LogQuery(ctx context.Context, centers, grids, passes, consumed int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "grid query failed",
			"centers", centers,
			"grids", grids,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "grid query completed",
			"centers", centers,
			"grids", grids,
			"passes", passes,
			"consumed", consumed,
			"duration", duration,
		)
	}
}

// LogCacheLookup logs a result-cache lookup.
func (l *Logger) LogCacheLookup(ctx context.Context, key string, hit bool, err error) {
	if err != nil {
		l.WarnContext(ctx, "result cache lookup failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "result cache lookup",
			"key", key,
			"hit", hit,
		)
	}
}

// LogCacheStore logs a result-cache store attempt.
func (l *Logger) LogCacheStore(ctx context.Context, key string, size int, err error) {
	if err != nil {
		l.WarnContext(ctx, "result cache store failed",
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "result cached",
			"key", key,
			"bytes", size,
		)
	}
}
