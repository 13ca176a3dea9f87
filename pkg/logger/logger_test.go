package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var fields map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fields))
	return fields
}

func TestNew_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "debug", "storefront")

	l.Debug().Str("session_id", "s1").Msg("hello")

	fields := decodeLine(t, &buf)
	assert.Equal(t, "storefront", fields["service"])
	assert.Equal(t, "debug", fields["level"])
	assert.Equal(t, "s1", fields["session_id"])
	assert.Equal(t, "hello", fields["message"])
	assert.Contains(t, fields, "time")
}

func TestNew_LevelFallback(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "nonsense", "storefront")

	l.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())

	l.Info().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestFromContext_TraceIDs(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info", "storefront")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithContext(ctx, l)

	log := FromContext(ctx)
	log.Info().Msg("traced")

	fields := decodeLine(t, &buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestFromContext_NoLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}
