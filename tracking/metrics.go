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

package tracking

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/botanu/botanu-go/run"
)

// meterName is the instrumentation scope for business metrics.
const meterName = "botanu.sdk"

type runInstruments struct {
	runsTotal   metric.Int64Counter
	runDuration metric.Float64Histogram
	runValue    metric.Float64Counter
}

var (
	runInstrumentsOnce sync.Once
	runInst            runInstruments
)

// instruments are created lazily against the global meter provider.
// The otel global package delegates late, so instruments created
// before Enable installs a provider still record afterwards.
func instruments() runInstruments {
	runInstrumentsOnce.Do(func() {
		meter := otel.Meter(meterName)
		runInst.runsTotal, _ = meter.Int64Counter("botanu.runs",
			metric.WithDescription("Completed runs by workflow and outcome status"),
			metric.WithUnit("{run}"),
		)
		runInst.runDuration, _ = meter.Float64Histogram("botanu.run.duration",
			metric.WithDescription("Run duration from creation to terminal outcome"),
			metric.WithUnit("s"),
		)
		runInst.runValue, _ = meter.Float64Counter("botanu.run.value",
			metric.WithDescription("Business value delivered by completed runs"),
			metric.WithUnit("1"),
		)
	})
	return runInst
}

// RecordRunCompleted records the terminal outcome of a run on the run
// counters. Runs without a terminal outcome record nothing.
func RecordRunCompleted(ctx context.Context, rc *run.Context) {
	if rc == nil {
		return
	}
	outcome, ok := rc.Outcome()
	if !ok {
		return
	}
	duration, _ := rc.Duration()

	attrs := []attribute.KeyValue{
		attribute.String("workflow", rc.Workflow),
		attribute.String("environment", rc.Environment),
		attribute.String("status", string(outcome.Status)),
	}
	if outcome.ErrorType != "" {
		attrs = append(attrs, attribute.String("error_type", outcome.ErrorType))
	}
	set := metric.WithAttributeSet(attribute.NewSet(attrs...))

	inst := instruments()
	inst.runsTotal.Add(ctx, 1, set)
	inst.runDuration.Record(ctx, duration.Seconds(), set)

	if outcome.HasValue {
		valueAttrs := attribute.NewSet(
			attribute.String("workflow", rc.Workflow),
			attribute.String("environment", rc.Environment),
			attribute.String("value_type", outcome.ValueType),
		)
		inst.runValue.Add(ctx, outcome.ValueAmount, metric.WithAttributeSet(valueAttrs))
	}
}
