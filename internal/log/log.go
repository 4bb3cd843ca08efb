package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Key struct{}

var LoggerKey = Key{}

// LevelTrace is a custom trace level for slog
// Using LevelDebug - 4 which equals -8
const LevelTrace = slog.LevelDebug - 4

func ConfigLevelStringToSlogLevel(level string) slog.Level {
	switch level {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}

// Options configures the file sink. The TUI owns the terminal, so records never
// go to stdout or stderr while a grid is on screen.
type Options struct {
	File       string
	Level      string
	MaxSizeMB  int
	MaxBackups int
}

// New builds a text logger writing to a rotating file. An empty File discards
// all records. The returned closer releases the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := ConfigLevelStringToSlogLevel(opts.Level)
	if opts.File == "" {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})), nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, nil, err
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 5
	}
	backups := opts.MaxBackups
	if backups <= 0 {
		backups = 3
	}
	sink := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    maxSize,
		MaxBackups: backups,
		Compress:   false,
	}
	handler := slog.NewTextHandler(sink, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	})
	return slog.New(handler), sink, nil
}

// Discard returns a logger that drops everything. Used by tests and by
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// WithLogger stores logger in ctx under LoggerKey.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) *slog.Logger {
	if val := ctx.Value(LoggerKey); val != nil {
		if logger, ok := val.(*slog.Logger); ok {
			return logger
		}
	}
	return Discard()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
