package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestTraceHandler(t *testing.T) {
	t.Parallel()

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	spanCtx, span := tp.Tracer("test").Start(context.Background(), "sync.PerformSync")
	defer span.End()

	tests := []struct {
		name      string
		ctx       context.Context
		wantTrace string
		wantSpan  string
	}{
		{
			name:      "span in context",
			ctx:       spanCtx,
			wantTrace: span.SpanContext().TraceID().String(),
			wantSpan:  span.SpanContext().SpanID().String(),
		},
		{name: "no span", ctx: context.Background()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := slog.New(NewTraceHandler(slog.NewJSONHandler(&buf, nil))).
				With("source", "steam").
				WithGroup("fetch")
			logger.InfoContext(tt.ctx, "Fetch completed", "games", 3)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, "steam", line["source"])

			fetch, ok := line["fetch"].(map[string]any)
			require.True(t, ok)
			assert.InDelta(t, 3, fetch["games"], 0)

			if tt.wantTrace == "" {
				assert.NotContains(t, buf.String(), LogKeyTraceID)
				return
			}
			assert.Equal(t, tt.wantTrace, fetch[LogKeyTraceID])
			assert.Equal(t, tt.wantSpan, fetch[LogKeySpanID])
		})
	}
}
