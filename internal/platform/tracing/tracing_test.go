package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinpool/internal/platform/config"
)

func TestNewProvider_Disabled(t *testing.T) {
	for _, exporter := range []string{"", config.TraceExporterNone} {
		tp, err := NewProvider(context.Background(), config.Tracing{Exporter: exporter}, nil)
		require.NoError(t, err)
		assert.Nil(t, tp)
	}
}

func TestNewProvider_StdoutWritesEndedSpans(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	tp, err := NewProvider(ctx, config.Tracing{Exporter: config.TraceExporterStdout}, &buf)
	require.NoError(t, err)
	require.NotNil(t, tp)

	_, span := tp.Tracer("test").Start(ctx, "pin.RequestPINs")
	span.End()
	require.NoError(t, tp.Shutdown(ctx))

	assert.Contains(t, buf.String(), "pin.RequestPINs")
	assert.Contains(t, buf.String(), ServiceName)
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), config.Tracing{Exporter: "zipkin"}, nil)
	require.ErrorIs(t, err, ErrUnknownExporter)
}
