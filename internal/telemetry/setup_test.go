package telemetry

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracer_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown := InitTracer(zerolog.New(io.Discard), "panelsync-test", &buf)

	_, span := otel.Tracer("test").Start(context.Background(), "directadmin CMD_API_SHOW_USERS")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "directadmin CMD_API_SHOW_USERS")
	assert.Contains(t, buf.String(), "panelsync-test")
}
