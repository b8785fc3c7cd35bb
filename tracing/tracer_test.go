package tracing_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/connections/tracing"
)

func TestInitTracerProvider_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := tracing.InitTracerProvider(tracing.Options{ServiceName: "connections-test", Writer: &buf})
	require.NoError(t, err)

	_, span := tracing.Tracer("signin").Start(context.Background(), "resolve")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"resolve"`)
	assert.Contains(t, buf.String(), "connections-test")
}
