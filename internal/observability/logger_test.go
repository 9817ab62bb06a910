package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	logger.Info("hello")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "hello", entry.Message)
}

func TestLogger_BelowLevelIsSuppressed(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf)

	logger.Info("should not appear")

	assert.Empty(t, buf.String())
}

func TestLogger_WithFieldsAreCumulativeAndIsolated(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(InfoLevel, &buf)

	derived := base.WithField("a", 1).WithField("b", 2)
	derived.Info("msg")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(1), entry.Fields["a"])
	assert.Equal(t, float64(2), entry.Fields["b"])

	buf.Reset()
	base.Info("base unaffected")
	var baseEntry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &baseEntry))
	assert.Empty(t, baseEntry.Fields)
}

func TestLogger_WithErrorNilIsNoOp(t *testing.T) {
	logger := NewLogger(InfoLevel, &bytes.Buffer{})
	assert.Same(t, logger, logger.WithError(nil))
}

func TestFromContext_EnrichesWithRequestIDAndComponent(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), NewLogger(InfoLevel, &buf))
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithComponent(ctx, "svc-a")

	FromContext(ctx).Info("enriched")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry.Fields["request_id"])
	assert.Equal(t, "svc-a", entry.Fields["component"])
}

func TestFromContext_DefaultsWhenNoLoggerAttached(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
}

func TestGetRequestID_EmptyWhenAbsent(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestLogLevel_String(t *testing.T) {
	assert.True(t, strings.EqualFold("DEBUG", DebugLevel.String()))
	assert.True(t, strings.EqualFold("ERROR", ErrorLevel.String()))
}
