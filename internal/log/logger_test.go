package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: ComponentStore, Format: "json", Output: &buf})

	l.Info("saved", FieldCount, 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "saved", rec["msg"])
	assert.Equal(t, ComponentStore, rec[FieldComponent])
	assert.EqualValues(t, 3, rec[FieldCount])
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf, Format: "json"}).WithComponent(ComponentAuth)
	assert.Equal(t, ComponentAuth, l.Component())

	l.Warn("login failed")
	assert.Contains(t, buf.String(), `"component":"auth"`)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelWarn, Output: &buf})
	l.Info("hidden")
	l.Debug("hidden")
	assert.Empty(t, buf.String())
	l.Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard().WithComponent(ComponentHTTP)
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.Equal(t, ComponentApp, FromContext(context.Background()).Component())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
