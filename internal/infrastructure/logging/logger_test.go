package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel, format LogFormat) (*StructuredLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger, err := NewStructuredLogger(NewConfig("test-service", "0.0.1", "testing").
		WithLevel(level).
		WithFormat(format).
		WithOutput(buf))
	require.NoError(t, err)
	return logger, buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e), line)
		entries = append(entries, e)
	}
	return entries
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name  string
		level LogLevel
		want  int
	}{
		{"debug shows all", LevelDebug, 4},
		{"info hides debug", LevelInfo, 3},
		{"warn", LevelWarn, 2},
		{"error only", LevelError, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(t, tt.level, FormatJSON)
			ctx := context.Background()

			logger.Debug(ctx, "d", nil)
			logger.Info(ctx, "i", nil)
			logger.Warn(ctx, "w", nil)
			logger.Error(ctx, "e", nil)

			assert.Len(t, decodeLines(t, buf), tt.want)
		})
	}
}

func TestStructuredLogger_JSONEntry(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelDebug, FormatJSON)
	ctx := WithRequestID(context.Background(), "req_1")

	fields := Fields{FieldKey: "BTC/USD/1h"}
	logger.WarnWithError(ctx, "update failed", errors.New("boom"), fields)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, LevelWarn, e.Level)
	assert.Equal(t, "req_1", e.RequestID)
	assert.Equal(t, "test-service", e.Service)
	assert.Equal(t, "BTC/USD/1h", e.Fields[FieldKey])
	assert.Equal(t, "boom", e.Fields[FieldError])
	assert.Equal(t, "*errors.errorString", e.Fields[FieldErrorType])

	// el map del llamador no se modifica
	_, mutated := fields[FieldError]
	assert.False(t, mutated)
}

func TestStructuredLogger_DurationFromContext(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo, FormatJSON)
	ctx := WithStartTime(context.Background(), time.Now().Add(-50*time.Millisecond))

	logger.Info(ctx, "done", nil)

	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	d, ok := entries[0].Fields[FieldDuration].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, d, 50.0)
}

func TestStructuredLogger_TextFormat(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelInfo, FormatText)
	NewFeedLogger(logger).SchedulerStarted(context.Background(), "ETH/EUR/week")

	line := buf.String()
	assert.Contains(t, line, "[INFO]")
	assert.Contains(t, line, "(feed)")
	assert.Contains(t, line, "key=ETH/EUR/week")
}

func TestStructuredLogger_SetLevel(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelError, FormatJSON)
	logger.Info(context.Background(), "hidden", nil)
	logger.SetLevel(LevelDebug)
	logger.SetLevel(LogLevel("bogus"))
	logger.Info(context.Background(), "shown", nil)

	assert.Equal(t, LevelDebug, logger.GetLevel())
	entries := decodeLines(t, buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0].Message)
}

func TestDomainLoggers_TagDomain(t *testing.T) {
	logger, buf := newBufferLogger(t, LevelDebug, FormatJSON)
	set := NewLoggerSet(logger)
	ctx := context.Background()

	set.Feed.KeyBlacklisted(ctx, "XYZ/USD/1h", errors.New("no chart info"))
	set.ExternalAPI.RequestCompleted(ctx, "coingecko", "/simple/price", 503, 12.5)
	set.HTTP.RequestCompleted(ctx, "GET", "/health", 200, 1)
	set.Security.RateLimitExceeded(ctx, "10.0.0.1", "/api/v1/rates")

	entries := decodeLines(t, buf)
	require.Len(t, entries, 4)

	assert.Equal(t, "feed", entries[0].Domain)
	assert.Equal(t, LevelWarn, entries[0].Level)
	assert.Equal(t, "external_api", entries[1].Domain)
	assert.Equal(t, LevelError, entries[1].Level)
	assert.Equal(t, "http", entries[2].Domain)
	assert.Equal(t, LevelInfo, entries[2].Level)
	assert.Equal(t, "security", entries[3].Domain)
}

func TestLoggerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LoggerConfig)
		wantErr string
	}{
		{"default ok", func(*LoggerConfig) {}, ""},
		{"bad level", func(c *LoggerConfig) { c.Level = "TRACE" }, "level"},
		{"bad format", func(c *LoggerConfig) { c.Format = "xml" }, "format"},
		{"nil output", func(c *LoggerConfig) { c.Output = nil }, "output"},
		{"no service", func(c *LoggerConfig) { c.Service = "" }, "service"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantErr, cfgErr.Field)
		})
	}
}

func TestOpenOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	w, closer, err := OpenOutput(OutputFile, FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 1})
	require.NoError(t, err)
	require.NotNil(t, closer)

	logger, err := NewStructuredLogger(DefaultConfig().WithOutput(w))
	require.NoError(t, err)
	logger.Info(context.Background(), "to file", nil)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
}

func TestOpenOutput_Errors(t *testing.T) {
	_, _, err := OpenOutput(OutputFile, FileConfig{})
	assert.Error(t, err)

	_, _, err = OpenOutput("syslog", FileConfig{})
	assert.Error(t, err)

	w, closer, err := OpenOutput("", FileConfig{})
	assert.NoError(t, err)
	assert.Nil(t, closer)
	assert.Equal(t, os.Stdout, w)
}

func TestLevelAndFormatFromString(t *testing.T) {
	assert.Equal(t, LevelDebug, LogLevelFromString("debug"))
	assert.Equal(t, LevelWarn, LogLevelFromString("warning"))
	assert.Equal(t, LevelInfo, LogLevelFromString("whatever"))
	assert.Equal(t, FormatText, LogFormatFromString("TEXT"))
	assert.Equal(t, FormatJSON, LogFormatFromString(""))
}

func TestGenerateRequestID(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	assert.True(t, strings.HasPrefix(a, "req_"))
	assert.NotEqual(t, a, b)
}
