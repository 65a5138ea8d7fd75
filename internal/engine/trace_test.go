package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/udisondev/effectlang/internal/engine"
)

func TestExecute_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	x, _ := newExecutor(t, engine.WithTracerProvider(tp))

	require.NoError(t, x.ExecuteString(context.Background(), "OP.hp - 1, ME.block + 1", true, nil))
	require.Error(t, x.ExecuteString(context.Background(), `narrate "hi"`, true, nil))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "engine.Execute", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
