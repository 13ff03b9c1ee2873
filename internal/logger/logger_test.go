package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger_NotNil(t *testing.T) {
	require.NotNil(t, NewLogger("test", "debug"))
}

func TestNewLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "cli", "info")

	l.Info().Msg("hello")

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "cli", entry["role"])
	assert.Equal(t, "hello", entry["message"])
	_, hasTime := entry["time"]
	assert.True(t, hasTime, "expected 'time' field in log entry")
	_, hasFunc := entry["func"]
	assert.True(t, hasFunc, "expected 'func' caller field in log entry")
}

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "cli", "warn")

	l.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	l.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "cli", "shouting")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	l = newLogger(&buf, "cli", "")
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestNop(t *testing.T) {
	l := Nop()
	require.NotNil(t, l)
	l.Error().Msg("discarded")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "cli", "info").Component("store")

	l.Info().Msg("x")

	assert.Equal(t, "store", decodeEntry(t, &buf)["component"])
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, "ctx-role", "info")

	ctx := l.WithContext(context.Background())
	FromContext(ctx).Info().Msg("from ctx")

	assert.Equal(t, "ctx-role", decodeEntry(t, &buf)["role"])
}

func TestFromContext_Empty(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))
}
