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

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/botanu/botanu-go/run"
)

// Enricher is a span processor that copies the ambient run context
// onto every span started while it is active, so auto-instrumented
// spans carry botanu.run_id and friends, not just the root run span.
//
// It must live in the SDK rather than the collector: baggage is
// process-local and only the SDK sees it before export.
type Enricher struct {
	mode run.Mode
}

// NewEnricher creates a span enricher. In lean mode (the default for
// Enable) only the lean carrier keys are copied, keeping per-span
// overhead minimal.
func NewEnricher(mode run.Mode) *Enricher {
	return &Enricher{mode: mode}
}

// OnStart implements sdktrace.SpanProcessor. It runs on the hot path
// of every span start: linear in the number of carrier keys, attribute
// writes only, and any internal fault is swallowed rather than allowed
// to break tracing.
func (e *Enricher) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	defer func() {
		_ = recover()
	}()

	carrier, ok := ambientCarrier(parent, e.mode)
	if !ok {
		return
	}

	existing := make(map[attribute.Key]struct{}, len(s.Attributes()))
	for _, kv := range s.Attributes() {
		existing[kv.Key] = struct{}{}
	}

	for _, key := range run.CarrierKeys(e.mode) {
		value := carrier[key]
		if value == "" {
			continue
		}
		if _, dup := existing[attribute.Key(key)]; dup {
			continue
		}
		s.SetAttributes(attribute.String(key, value))
	}
}

// OnEnd implements sdktrace.SpanProcessor.
func (e *Enricher) OnEnd(s sdktrace.ReadOnlySpan) {}

// Shutdown implements sdktrace.SpanProcessor.
func (e *Enricher) Shutdown(ctx context.Context) error { return nil }

// ForceFlush implements sdktrace.SpanProcessor.
func (e *Enricher) ForceFlush(ctx context.Context) error { return nil }
