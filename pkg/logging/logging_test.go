package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLoggerWritesStructuredRecords(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := NewSlog(slog.New(handler)).With("component", "migration")

	logger.Debug("applied step", "version", 16)

	output := buf.String()
	assert.Contains(t, output, "applied step")
	assert.Contains(t, output, "version=16")
	assert.Contains(t, output, "component=migration")
	assert.Contains(t, output, "level=DEBUG")
}

func TestNormalize(t *testing.T) {
	require.NotNil(t, Normalize(nil))
	l := NewSlog(nil)
	assert.Same(t, l, Normalize(l))
	Noop().Error("ignored", "k", "v")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
