package log

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigLevelStringToSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace": LevelTrace,
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelError,
		"":      slog.LevelError,
	}
	for in, want := range cases {
		require.Equal(t, want, ConfigLevelStringToSlogLevel(in), "level %q", in)
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "remotegrid.log")
	logger, closer, err := New(Options{File: path, Level: "trace"})
	require.NoError(t, err)

	logger.Log(context.Background(), LevelTrace, "fetch issued", "provider", "orders")
	logger.Debug("window computed", "first", 0)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	require.True(t, strings.Contains(out, "level=TRACE"), out)
	require.True(t, strings.Contains(out, "provider=orders"), out)
	require.True(t, strings.Contains(out, "window computed"), out)
}

func TestFromContext(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))

	logger, _, err := New(Options{})
	require.NoError(t, err)
	ctx := WithLogger(context.Background(), logger)
	require.Same(t, logger, FromContext(ctx))
}
