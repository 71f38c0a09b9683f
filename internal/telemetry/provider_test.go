package telemetry

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestInitProvider_Disabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{ServiceName: "rentixctl"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	// Propagation works even without exporters.
	carrier := propagation.HeaderCarrier(http.Header{})
	otel.GetTextMapPropagator().Inject(context.Background(), carrier)
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestInitProvider_EnabledRequiresEndpoint(t *testing.T) {
	_, err := InitProvider(context.Background(), Config{Enabled: true})
	assert.Error(t, err)
}

func TestInitProvider_Enabled(t *testing.T) {
	shutdown, err := InitProvider(context.Background(), Config{
		Enabled:     true,
		ServiceName: "rentixctl",
		Endpoint:    "http://127.0.0.1:1/",
		SampleRatio: 1,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so the flush does not need the collector.
	_ = shutdown(ctx)
}
