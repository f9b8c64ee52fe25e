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

package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestCarrier_LeanRoundTrip(t *testing.T) {
	rc, err := New("support", "evt-1", "cust-1",
		WithEnvironment("production"),
		WithTenantID("tenant-1"),
	)
	require.NoError(t, err)

	carrier := rc.Carrier(ModeLean)
	assert.Len(t, carrier, 4, "lean mode carries exactly the four required keys")

	got, ok := FromCarrier(carrier)
	require.True(t, ok)

	assert.Equal(t, rc.RunID, got.RunID)
	assert.Equal(t, rc.Workflow, got.Workflow)
	assert.Equal(t, rc.EventID, got.EventID)
	assert.Equal(t, rc.CustomerID, got.CustomerID)

	// Fields outside lean mode are not recoverable; they take the
	// codec defaults instead of the sender's values.
	assert.Equal(t, DefaultEnvironment, got.Environment)
	assert.Empty(t, got.TenantID)
	assert.Equal(t, 1, got.Attempt)
	assert.Equal(t, got.RunID, got.RootRunID)
}

func TestCarrier_FullRoundTrip(t *testing.T) {
	first, err := New("billing", "evt-2", "cust-2",
		WithEnvironment("staging"),
		WithTenantID("tenant-9"),
		WithParentRunID("parent-run"),
		WithDeadline(time.Minute),
	)
	require.NoError(t, err)

	rc, err := NewRetry(first)
	require.NoError(t, err)
	rc.RequestCancellation("operator")

	got, ok := FromCarrier(rc.Carrier(ModeFull))
	require.True(t, ok)

	assert.Equal(t, rc.RunID, got.RunID)
	assert.Equal(t, rc.Workflow, got.Workflow)
	assert.Equal(t, rc.EventID, got.EventID)
	assert.Equal(t, rc.CustomerID, got.CustomerID)
	assert.Equal(t, "staging", got.Environment)
	assert.Equal(t, "tenant-9", got.TenantID)
	assert.Equal(t, "parent-run", got.ParentRunID)
	assert.Equal(t, first.RunID, got.RootRunID)
	assert.Equal(t, 2, got.Attempt)
	assert.Equal(t, first.RunID, got.RetryOfRunID)
	assert.Equal(t, rc.Deadline.UnixMilli(), got.Deadline.UnixMilli())
	assert.True(t, got.IsCancelled())
}

func TestCarrier_SizeBudget(t *testing.T) {
	rc, err := New("customer-support", "evt-20260301-0042", "cust-8839221",
		WithEnvironment("production"),
		WithTenantID("tenant-eu-west-1"),
		WithDeadline(time.Minute),
	)
	require.NoError(t, err)

	size := func(m map[string]string) int {
		n := 0
		for k, v := range m {
			n += len(k) + len(v)
		}
		return n
	}

	assert.Less(t, size(rc.Carrier(ModeLean)), 200, "lean carrier must fit header budgets")
	assert.Less(t, size(rc.Carrier(ModeFull)), 500, "full carrier stays small")
}

func TestFromCarrier_MissingRequired(t *testing.T) {
	base := map[string]string{
		KeyRunID:      NewRunID(),
		KeyWorkflow:   "support",
		KeyEventID:    "evt-1",
		KeyCustomerID: "cust-1",
	}

	tests := []struct {
		name string
		drop string
	}{
		{"missing run_id", KeyRunID},
		{"missing workflow", KeyWorkflow},
		{"missing event_id", KeyEventID},
		{"missing customer_id", KeyCustomerID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			carrier := make(map[string]string, len(base))
			for k, v := range base {
				carrier[k] = v
			}
			delete(carrier, tt.drop)

			got, ok := FromCarrier(carrier)
			assert.False(t, ok, "a partial carrier is \"no upstream context\", not an error")
			assert.Nil(t, got)
		})
	}

	t.Run("empty mapping", func(t *testing.T) {
		got, ok := FromCarrier(map[string]string{})
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("nil mapping", func(t *testing.T) {
		got, ok := FromCarrier(nil)
		assert.False(t, ok)
		assert.Nil(t, got)
	})
}

func TestFromCarrier_MalformedOptionalFields(t *testing.T) {
	carrier := map[string]string{
		KeyRunID:      NewRunID(),
		KeyWorkflow:   "support",
		KeyEventID:    "evt-1",
		KeyCustomerID: "cust-1",
		KeyAttempt:    "banana",
		KeyDeadline:   "not-a-timestamp",
		KeyCancelled:  "maybe",
	}

	got, ok := FromCarrier(carrier)
	require.True(t, ok, "malformed optional fields degrade, never fail")

	assert.Equal(t, 1, got.Attempt)
	assert.False(t, got.HasDeadline())
	assert.False(t, got.IsCancelled())
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeFull, ParseMode("full"))
	assert.Equal(t, ModeFull, ParseMode("FULL"))
	assert.Equal(t, ModeLean, ParseMode("lean"))
	assert.Equal(t, ModeLean, ParseMode(""))
	assert.Equal(t, ModeLean, ParseMode("anything"))
}

func TestSpanAttributes(t *testing.T) {
	rc, err := New("support", "evt-1", "cust-1", WithEnvironment("production"))
	require.NoError(t, err)
	rc.Complete(StatusFailed,
		WithErrorType("ProviderError"),
		WithReason("upstream 502"),
		WithConfidence(0.4),
	)

	attrs := rc.SpanAttributes()
	byKey := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		byKey[kv.Key] = kv.Value
	}

	assert.Equal(t, rc.RunID, byKey[KeyRunID].AsString())
	assert.Equal(t, "support", byKey[KeyWorkflow].AsString())
	assert.Equal(t, "evt-1", byKey[KeyEventID].AsString())
	assert.Equal(t, "cust-1", byKey[KeyCustomerID].AsString())
	assert.Equal(t, int64(1), byKey[KeyAttempt].AsInt64())
	assert.Equal(t, "failed", byKey[KeyOutcomeStatus].AsString())
	assert.Equal(t, "ProviderError", byKey[KeyOutcomeErrorType].AsString())
	assert.Equal(t, "upstream 502", byKey[KeyOutcomeReason].AsString())
	assert.InDelta(t, 0.4, byKey[KeyOutcomeConfidence].AsFloat64(), 1e-9)

	_, hasDeadline := byKey[KeyDeadline]
	assert.False(t, hasDeadline, "no deadline attribute when none set")
}
