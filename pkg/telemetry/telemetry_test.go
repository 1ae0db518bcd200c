package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/abgdnv/gocatalog/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func Test_Setup_Disabled(t *testing.T) {
	// when
	shutdown, err := Setup(context.Background(), "catalog", config.TelemetryConfig{Enabled: false})

	// then
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func Test_NewTracerProvider(t *testing.T) {
	testCases := []struct {
		name            string
		ratio           float64
		expectedSampled bool
	}{
		{name: "keep every trace", ratio: 1, expectedSampled: true},
		{name: "drop every trace", ratio: 0, expectedSampled: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given an endpoint nobody listens on; the exporter connects lazily
			cfg := config.TelemetryConfig{Enabled: true}
			cfg.Traces.SampleRatio = tc.ratio
			cfg.Traces.OtlpHttp.Endpoint = "127.0.0.1:1"
			cfg.Traces.OtlpHttp.Insecure = true
			cfg.Traces.OtlpHttp.Timeout = 100 * time.Millisecond

			// when
			tp, err := NewTracerProvider(context.Background(), "catalog", cfg)

			// then
			require.NoError(t, err)
			_, span := tp.Tracer("test").Start(context.Background(), "span")
			assert.True(t, span.SpanContext().IsValid())
			assert.Equal(t, tc.expectedSampled, span.SpanContext().IsSampled())
			span.End()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		})
	}
}
