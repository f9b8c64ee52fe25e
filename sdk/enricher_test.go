// Copyright 2026 The Botanu Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sdk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/botanu/botanu-go/run"
)

// enricherPipeline builds an in-memory tracer provider with the
// enricher registered ahead of the recorder.
func enricherPipeline(t *testing.T, mode run.Mode) (trace.Tracer, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(NewEnricher(mode)),
		sdktrace.WithSpanProcessor(recorder),
	)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp.Tracer("test"), recorder
}

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range s.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func newTestRun(t *testing.T) *run.Context {
	t.Helper()
	rc, err := run.New("invoice-processing", "evt-1", "cust-1",
		run.WithEnvironment("staging"),
		run.WithTenantID("tenant-a"),
	)
	require.NoError(t, err)
	return rc
}

func TestEnricherLeanMode(t *testing.T) {
	tracer, recorder := enricherPipeline(t, run.ModeLean)
	rc := newTestRun(t)

	ctx := Activate(context.Background(), rc, run.ModeLean)
	_, span := tracer.Start(ctx, "work")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])

	assert.Equal(t, rc.RunID, attrs[run.KeyRunID].AsString())
	assert.Equal(t, "invoice-processing", attrs[run.KeyWorkflow].AsString())
	assert.Equal(t, "evt-1", attrs[run.KeyEventID].AsString())
	assert.Equal(t, "cust-1", attrs[run.KeyCustomerID].AsString())

	// Lean mode stops at the four identity fields.
	assert.NotContains(t, attrs, attribute.Key(run.KeyEnvironment))
	assert.NotContains(t, attrs, attribute.Key(run.KeyTenantID))
}

func TestEnricherFullMode(t *testing.T) {
	tracer, recorder := enricherPipeline(t, run.ModeFull)
	rc := newTestRun(t)

	ctx := Activate(context.Background(), rc, run.ModeFull)
	_, span := tracer.Start(ctx, "work")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])

	assert.Equal(t, rc.RunID, attrs[run.KeyRunID].AsString())
	assert.Equal(t, "staging", attrs[run.KeyEnvironment].AsString())
	assert.Equal(t, "tenant-a", attrs[run.KeyTenantID].AsString())
	assert.Equal(t, rc.RunID, attrs[run.KeyRootRunID].AsString())
	assert.Equal(t, "1", attrs[run.KeyAttempt].AsString())
}

func TestEnricherNoActiveRun(t *testing.T) {
	tracer, recorder := enricherPipeline(t, run.ModeLean)

	_, span := tracer.Start(context.Background(), "work")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.NotContains(t, attrs, attribute.Key(run.KeyRunID))
}

func TestEnricherDoesNotOverwriteExistingAttributes(t *testing.T) {
	tracer, recorder := enricherPipeline(t, run.ModeLean)
	rc := newTestRun(t)

	ctx := Activate(context.Background(), rc, run.ModeLean)
	_, span := tracer.Start(ctx, "work",
		trace.WithAttributes(attribute.String(run.KeyWorkflow, "explicit-workflow")))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "explicit-workflow", attrs[run.KeyWorkflow].AsString())
	assert.Equal(t, rc.RunID, attrs[run.KeyRunID].AsString())
}

func TestEnricherBaggageOnlyContext(t *testing.T) {
	tracer, recorder := enricherPipeline(t, run.ModeLean)
	rc := newTestRun(t)

	// Simulate the receiving side: carrier arrived via baggage, no
	// in-process pointer.
	ctx := Activate(context.Background(), rc, run.ModeLean)
	rcLess := stripAmbientRun(ctx)

	_, span := tracer.Start(rcLess, "work")
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, rc.RunID, attrs[run.KeyRunID].AsString())
}

// stripAmbientRun removes the run pointer while keeping baggage.
func stripAmbientRun(ctx context.Context) context.Context {
	return run.IntoContext(ctx, nil)
}

func TestEnricherChildSpansAlsoEnriched(t *testing.T) {
	tracer, recorder := enricherPipeline(t, run.ModeLean)
	rc := newTestRun(t)

	ctx := Activate(context.Background(), rc, run.ModeLean)
	ctx, parent := tracer.Start(ctx, "parent")
	_, child := tracer.Start(ctx, "child")
	child.End()
	parent.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	for _, s := range spans {
		attrs := spanAttrs(s)
		assert.Equal(t, rc.RunID, attrs[run.KeyRunID].AsString(), s.Name())
	}
}
