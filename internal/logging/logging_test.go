package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, slog.LevelWarn, cfg.Level)
	assert.False(t, cfg.JSON)
}

func TestDebugConfig(t *testing.T) {
	cfg := DebugConfig()
	assert.Equal(t, slog.LevelDebug, cfg.Level)
	assert.True(t, cfg.JSON)
	assert.True(t, cfg.AddSource)
}

func TestNew(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelInfo, Output: &buf})
		logger.Info("hello", KeyCount, 3)
		assert.Contains(t, buf.String(), "msg=hello")
		assert.Contains(t, buf.String(), "count=3")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelDebug, JSON: true, Output: &buf})
		logger.Debug("hello")
		assert.Contains(t, buf.String(), `"msg":"hello"`)
	})

	t.Run("level_filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelWarn, Output: &buf})
		logger.Info("quiet")
		assert.Empty(t, buf.String())
	})

	t.Run("nil_output_uses_stderr", func(t *testing.T) {
		assert.NotNil(t, New(Config{}))
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestWithOperation(t *testing.T) {
	ctx := WithOperation(context.Background(), "migrate")
	name, id := OperationFromContext(ctx)
	assert.Equal(t, "migrate", name)
	assert.Len(t, id, 16)

	var buf bytes.Buffer
	FromContext(ctx, New(Config{Level: slog.LevelInfo, Output: &buf})).Info("step")
	assert.Contains(t, buf.String(), "op=migrate")
	assert.Contains(t, buf.String(), "op_id="+id)

	name, id = OperationFromContext(context.Background())
	assert.Empty(t, name)
	assert.Empty(t, id)
}

func TestLogDuration(t *testing.T) {
	var buf bytes.Buffer
	LogDuration(New(Config{Level: slog.LevelDebug, Output: &buf}), "export", time.Now())
	assert.Contains(t, buf.String(), "op=export")
	assert.Contains(t, buf.String(), "duration_ms=")
}

func TestHomeRelative(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "~"+string(filepath.Separator)+filepath.Join(".local", "share"), HomeRelative(filepath.Join(home, ".local", "share")))
	assert.Equal(t, "~", HomeRelative(home))
	assert.Equal(t, "", HomeRelative(""))

	outside := filepath.Join(filepath.Dir(home), "elsewhere-"+filepath.Base(home))
	assert.Equal(t, outside, HomeRelative(outside))
}

func TestPathAttributesShortened(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	var buf bytes.Buffer
	New(Config{Level: slog.LevelInfo, Output: &buf}).Info("opened", "path", filepath.Join(home, "db"))
	assert.Contains(t, buf.String(), "path=~")
}
