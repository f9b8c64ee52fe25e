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
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func samplingParams(attrs ...attribute.KeyValue) sdktrace.SamplingParameters {
	return sdktrace.SamplingParameters{
		ParentContext: context.Background(),
		TraceID:       trace.TraceID{0x01},
		Name:          "test",
		Kind:          trace.SpanKindInternal,
		Attributes:    attrs,
	}
}

func TestNewSamplerDisabled(t *testing.T) {
	s := NewSampler(SamplingConfig{Enabled: false, Rate: 0.1})
	assert.Equal(t, sdktrace.AlwaysSample().Description(), s.Description())
}

func TestNewSamplerFullRate(t *testing.T) {
	s := NewSampler(SamplingConfig{Enabled: true, Rate: 1.0})
	assert.Equal(t, sdktrace.AlwaysSample().Description(), s.Description())
}

func TestNewSamplerZeroRateDropsSpans(t *testing.T) {
	s := NewSampler(SamplingConfig{Enabled: true, Rate: 0})
	result := s.ShouldSample(samplingParams())
	assert.Equal(t, sdktrace.Drop, result.Decision)
}

func TestErrorAwareSamplerSamplesErrors(t *testing.T) {
	s := NewSampler(SamplingConfig{
		Enabled:            true,
		Rate:               0,
		AlwaysSampleErrors: true,
	})

	// Without the error attribute the zero-rate base drops.
	result := s.ShouldSample(samplingParams())
	assert.Equal(t, sdktrace.Drop, result.Decision)

	// With error=true the span is recorded regardless of rate.
	result = s.ShouldSample(samplingParams(attribute.Bool("error", true)))
	assert.Equal(t, sdktrace.RecordAndSample, result.Decision)
}

func TestErrorAwareSamplerIgnoresFalseError(t *testing.T) {
	s := NewSampler(SamplingConfig{
		Enabled:            true,
		Rate:               0,
		AlwaysSampleErrors: true,
	})
	result := s.ShouldSample(samplingParams(attribute.Bool("error", false)))
	assert.Equal(t, sdktrace.Drop, result.Decision)
}

func TestSamplerDescription(t *testing.T) {
	s := NewSampler(SamplingConfig{
		Enabled:            true,
		Rate:               0.5,
		AlwaysSampleErrors: true,
	})
	assert.Contains(t, s.Description(), "ErrorAwareSampler")
}
