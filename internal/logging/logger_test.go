package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false

	logger, err := NewLogger(cfg, WithOutput(&buf))
	require.NoError(t, err)

	ctx := WithRequestID(context.Background(), "req-1")
	logger.Info(ctx, "item created", zap.String("id", "abc"))
	require.NoError(t, logger.Sync())

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "item created", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "todod", line["service"])
	assert.Equal(t, "req-1", line["request.id"])
	assert.Equal(t, "abc", line["id"])
	assert.Contains(t, line, "ts")
	assert.Contains(t, line, "caller")
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = "warn"

	logger, err := NewLogger(cfg, WithOutput(&buf))
	require.NoError(t, err)

	ctx := context.Background()
	logger.Info(ctx, "hidden")
	logger.Warn(ctx, "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.False(t, logger.Enabled(zapcore.InfoLevel))
}

func TestNewLogger_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Level = "trace"
	cfg.Format = "console"
	cfg.Sampling.Enabled = false

	logger, err := NewLogger(cfg, WithOutput(&buf))
	require.NoError(t, err)

	logger.Trace(context.Background(), "store read")
	assert.Contains(t, buf.String(), "trace")
	assert.Contains(t, buf.String(), "store read")
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"
	_, err := NewLogger(cfg)
	require.Error(t, err)
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}
	ctx := WithListID(context.Background(), "work")

	tests := []struct {
		name  string
		log   func(ctx context.Context, msg string, fields ...zap.Field)
		level zapcore.Level
	}{
		{"trace", logger.Trace, TraceLevel},
		{"debug", logger.Debug, zapcore.DebugLevel},
		{"info", logger.Info, zapcore.InfoLevel},
		{"warn", logger.Warn, zapcore.WarnLevel},
		{"error", logger.Error, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.log(ctx, tt.name+" message", zap.String("key", "val"))

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, "work", logs[0].ContextMap()["list.id"])
			assert.Equal(t, "val", logs[0].ContextMap()["key"])
		})
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	tl := NewTestLogger()
	child := tl.Named("store").With(zap.String("path", "db.json"))

	child.Info(context.Background(), "reloaded")

	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "store", entries[0].LoggerName)
	tl.AssertField(t, "reloaded", "path", "db.json")
}

func TestSampling_ErrorsNeverSampled(t *testing.T) {
	var buf bytes.Buffer
	cfg := NewDefaultConfig()
	cfg.Sampling.Initial = 1
	cfg.Sampling.Thereafter = 0
	cfg.Caller.Enabled = false

	logger, err := NewLogger(cfg, WithOutput(&buf))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		logger.Info(ctx, "repeated info")
		logger.Error(ctx, "repeated error")
	}

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "repeated info"))
	assert.Equal(t, 5, strings.Count(out, "repeated error"))
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"trace", TraceLevel, false},
		{"TRACE", TraceLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LevelFromString(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
