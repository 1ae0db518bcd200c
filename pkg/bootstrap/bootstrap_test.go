package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/abgdnv/gocatalog/pkg/messaging"
	"github.com/abgdnv/gocatalog/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_toLevel(t *testing.T) {
	testCases := []struct {
		level    string
		expected slog.Level
	}{
		{level: "debug", expected: slog.LevelDebug},
		{level: "WARN", expected: slog.LevelWarn},
		{level: "error", expected: slog.LevelError},
		{level: "info", expected: slog.LevelInfo},
		{level: "", expected: slog.LevelInfo},
	}
	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			assert.Equal(t, tc.expected, toLevel(tc.level))
		})
	}
}

func Test_NewLoggerTo_AddsRequestID(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LogConfig{Level: "info"})
	ctx := web.WithRequestID(context.Background(), "req-42")

	// when
	logger.InfoContext(ctx, "hello")
	logger.DebugContext(ctx, "filtered out")

	// then
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "req-42", record["request_id"])
}

func Test_NewPublisher_Disabled(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// when
	publisher, closeFn, err := NewPublisher(context.Background(), config.NATSConfig{Enabled: false}, logger)

	// then
	require.NoError(t, err)
	assert.IsType(t, messaging.NoopPublisher{}, publisher)
	closeFn()
}

func Test_NewLoggerTo_TextFormat(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, config.LogConfig{Level: "debug", Format: config.LogFormatText})

	// when
	logger.Debug("hello", "code", "ABC123")

	// then
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "code=ABC123")
}
