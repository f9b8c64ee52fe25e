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
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/botanu/botanu-go/run"
)

// EmitOutcome records a business outcome on the active run and mirrors
// it onto the current span. It reports whether the outcome was
// recorded: false means no run is active or the run already has a
// terminal outcome.
//
// Typical use is inside a wrapped function when the automatic success
// outcome is too coarse:
//
//	sdk.EmitOutcome(ctx, run.StatusPartial,
//		run.WithReason("3 of 5 documents processed"),
//		run.WithValue("documents", 3))
func EmitOutcome(ctx context.Context, status run.Status, opts ...run.CompleteOption) bool {
	rc, ok := run.FromContext(ctx)
	if !ok {
		return false
	}
	if !rc.Complete(status, opts...) {
		return false
	}

	span := trace.SpanFromContext(ctx)
	outcome, _ := rc.Outcome()
	duration, _ := rc.Duration()
	span.SetAttributes(outcomeAttributes(outcome, duration)...)
	return true
}

// BusinessContext carries organizational attribution for the current
// span. All fields are optional; empty fields are not recorded.
type BusinessContext struct {
	CustomerID string
	Team       string
	CostCenter string
	Region     string
}

// SetBusinessContext annotates the current span with business
// attribution attributes. It has no effect when no span is recording.
func SetBusinessContext(ctx context.Context, bc BusinessContext) {
	span := trace.SpanFromContext(ctx)
	attrs := make([]attribute.KeyValue, 0, 4)
	if bc.CustomerID != "" {
		attrs = append(attrs, attribute.String("botanu.customer_id", bc.CustomerID))
	}
	if bc.Team != "" {
		attrs = append(attrs, attribute.String("botanu.team", bc.Team))
	}
	if bc.CostCenter != "" {
		attrs = append(attrs, attribute.String("botanu.cost_center", bc.CostCenter))
	}
	if bc.Region != "" {
		attrs = append(attrs, attribute.String("botanu.region", bc.Region))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

// outcomeAttributes converts a terminal outcome into span attributes.
func outcomeAttributes(o run.Outcome, d time.Duration) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(run.KeyOutcomeStatus, string(o.Status)),
		attribute.Float64(run.KeyDurationMS, float64(d)/float64(time.Millisecond)),
	}
	if o.Reason != "" {
		attrs = append(attrs, attribute.String(run.KeyOutcomeReason, o.Reason))
	}
	if o.ErrorType != "" {
		attrs = append(attrs, attribute.String(run.KeyOutcomeErrorType, o.ErrorType))
	}
	if o.ValueType != "" {
		attrs = append(attrs, attribute.String(run.KeyOutcomeValueType, o.ValueType))
	}
	if o.HasValue {
		attrs = append(attrs, attribute.Float64(run.KeyOutcomeValue, o.ValueAmount))
	}
	if o.HasConfidence {
		attrs = append(attrs, attribute.Float64(run.KeyOutcomeConfidence, o.Confidence))
	}
	return attrs
}
