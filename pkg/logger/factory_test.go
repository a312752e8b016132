package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progressmethod/featuregate/pkg/logger"
)

type ctxKeyRequestID struct{}

func TestNewJSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "featuregate")),
	)

	log.Info("hello", "feature_id", "f1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "featuregate", record["service"])
	assert.Equal(t, "f1", record["feature_id"])
}

func TestContextValueInjection(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithOutput(&buf),
		logger.WithContextValue("request_id", ctxKeyRequestID{}),
	)

	ctx := context.WithValue(context.Background(), ctxKeyRequestID{}, "abc-123")
	log.InfoContext(ctx, "with request id")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "abc-123", record["request_id"])

	// Without the value on the context, the attribute is absent.
	buf.Reset()
	record = nil
	log.InfoContext(context.Background(), "without request id")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	_, present := record["request_id"]
	assert.False(t, present)
}

func TestLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithFormat(logger.FormatJSON),
		logger.WithOutput(&buf),
		logger.WithLevel(slog.LevelWarn),
	)

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestInvalidFormatPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() {
		logger.New(logger.WithFormat(logger.Format("xml")))
	})
}
