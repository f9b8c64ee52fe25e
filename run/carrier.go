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
	"strconv"
	"strings"
	"time"

	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/attribute"
)

// Carrier keys. The botanu. prefix keeps run-context entries from
// colliding with unrelated baggage, and span attributes use the same
// names so a span and its originating carrier correlate by equality.
const (
	KeyRunID        = "botanu.run_id"
	KeyWorkflow     = "botanu.workflow"
	KeyEventID      = "botanu.event_id"
	KeyCustomerID   = "botanu.customer_id"
	KeyEnvironment  = "botanu.environment"
	KeyTenantID     = "botanu.tenant_id"
	KeyParentRunID  = "botanu.parent_run_id"
	KeyRootRunID    = "botanu.root_run_id"
	KeyAttempt      = "botanu.attempt"
	KeyRetryOfRunID = "botanu.retry_of_run_id"
	KeyDeadline     = "botanu.deadline"
	KeyCancelled    = "botanu.cancelled"
)

// Span-only attribute keys (never propagated in the carrier).
const (
	KeyWorkflowVersion   = "botanu.workflow.version"
	KeyStartTime         = "botanu.run.start_time"
	KeyCancelledAt       = "botanu.run.cancelled_at"
	KeyDurationMS        = "botanu.run.duration_ms"
	KeyOutcomeStatus     = "botanu.outcome.status"
	KeyOutcomeReason     = "botanu.outcome.reason"
	KeyOutcomeErrorType  = "botanu.outcome.error_type"
	KeyOutcomeValueType  = "botanu.outcome.value_type"
	KeyOutcomeValue      = "botanu.outcome.value_amount"
	KeyOutcomeConfidence = "botanu.outcome.confidence"
)

// DefaultEnvironment is what a deserialized context reports when the
// carrier did not include an environment (lean mode always omits it).
const DefaultEnvironment = "unknown"

// Mode selects the carrier serialization density.
type Mode int

const (
	// ModeLean propagates only run_id, workflow, event_id, and
	// customer_id, keeping the carrier well under typical header
	// budgets. The omitted fields are not recoverable downstream.
	ModeLean Mode = iota

	// ModeFull propagates the lean set plus environment, lineage,
	// attempt, deadline, and cancellation state.
	ModeFull
)

// ParseMode maps a configuration string to a Mode. Anything other
// than "full" is lean.
func ParseMode(s string) Mode {
	if strings.EqualFold(s, "full") {
		return ModeFull
	}
	return ModeLean
}

// LeanKeys is the carrier key set of ModeLean.
var LeanKeys = []string{KeyRunID, KeyWorkflow, KeyEventID, KeyCustomerID}

// FullKeys is the carrier key set of ModeFull.
var FullKeys = []string{
	KeyRunID, KeyWorkflow, KeyEventID, KeyCustomerID,
	KeyEnvironment, KeyTenantID, KeyParentRunID, KeyRootRunID,
	KeyAttempt, KeyRetryOfRunID, KeyDeadline, KeyCancelled,
}

// CarrierKeys returns the key set for the given mode.
func CarrierKeys(mode Mode) []string {
	if mode == ModeFull {
		return FullKeys
	}
	return LeanKeys
}

// Carrier serializes the context into the flat string mapping used for
// cross-process propagation. Numeric and boolean fields use canonical
// round-trippable encodings: attempt as base-10, deadline as epoch
// milliseconds, cancelled as "true"/"false".
func (c *Context) Carrier(mode Mode) map[string]string {
	carrier := map[string]string{
		KeyRunID:      c.RunID,
		KeyWorkflow:   c.Workflow,
		KeyEventID:    c.EventID,
		KeyCustomerID: c.CustomerID,
	}
	if mode != ModeFull {
		return carrier
	}

	carrier[KeyEnvironment] = c.Environment
	carrier[KeyRootRunID] = c.RootRunID
	carrier[KeyAttempt] = strconv.Itoa(c.Attempt)
	if c.TenantID != "" {
		carrier[KeyTenantID] = c.TenantID
	}
	if c.ParentRunID != "" {
		carrier[KeyParentRunID] = c.ParentRunID
	}
	if c.RetryOfRunID != "" {
		carrier[KeyRetryOfRunID] = c.RetryOfRunID
	}
	if !c.Deadline.IsZero() {
		carrier[KeyDeadline] = strconv.FormatInt(c.Deadline.UnixMilli(), 10)
	}
	carrier[KeyCancelled] = strconv.FormatBool(c.IsCancelled())
	return carrier
}

// FromCarrier reconstructs a Context from a carrier mapping.
//
// ok is false when any of the required keys (run_id, workflow,
// event_id, customer_id) is missing or empty. That is the expected
// "no upstream context" case, not a fault: a broken or partial carrier
// must never crash the receiving service, so malformed optional fields
// degrade to their defaults instead of failing.
func FromCarrier(carrier map[string]string) (*Context, bool) {
	runID := carrier[KeyRunID]
	workflow := carrier[KeyWorkflow]
	eventID := carrier[KeyEventID]
	customerID := carrier[KeyCustomerID]
	if runID == "" || workflow == "" || eventID == "" || customerID == "" {
		return nil, false
	}

	c := &Context{
		RunID:        runID,
		Workflow:     workflow,
		EventID:      eventID,
		CustomerID:   customerID,
		Environment:  DefaultEnvironment,
		Attempt:      1,
		TenantID:     carrier[KeyTenantID],
		ParentRunID:  carrier[KeyParentRunID],
		RetryOfRunID: carrier[KeyRetryOfRunID],
		RootRunID:    runID,
		clock:        clockz.RealClock,
	}

	if env := carrier[KeyEnvironment]; env != "" {
		c.Environment = env
	}
	if root := carrier[KeyRootRunID]; root != "" {
		c.RootRunID = root
	}
	if attempt, err := strconv.Atoi(carrier[KeyAttempt]); err == nil && attempt >= 1 {
		c.Attempt = attempt
	}
	if millis, err := strconv.ParseInt(carrier[KeyDeadline], 10, 64); err == nil && millis > 0 {
		c.Deadline = time.UnixMilli(millis).UTC()
	}
	if strings.EqualFold(carrier[KeyCancelled], "true") {
		c.cancelled = true
		c.cancelReason = "upstream"
	}

	// The receiving side starts its own attempt clock.
	c.StartTime = c.clock.Now()

	return c, true
}

// SpanAttributes returns the full attribute set for the run span,
// including outcome attributes when an outcome has been recorded.
func (c *Context) SpanAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(KeyRunID, c.RunID),
		attribute.String(KeyWorkflow, c.Workflow),
		attribute.String(KeyEventID, c.EventID),
		attribute.String(KeyCustomerID, c.CustomerID),
		attribute.String(KeyEnvironment, c.Environment),
		attribute.String(KeyRootRunID, c.RootRunID),
		attribute.Int(KeyAttempt, c.Attempt),
		attribute.String(KeyStartTime, c.StartTime.UTC().Format(time.RFC3339Nano)),
	}
	if c.WorkflowVersion != "" {
		attrs = append(attrs, attribute.String(KeyWorkflowVersion, c.WorkflowVersion))
	}
	if c.TenantID != "" {
		attrs = append(attrs, attribute.String(KeyTenantID, c.TenantID))
	}
	if c.ParentRunID != "" {
		attrs = append(attrs, attribute.String(KeyParentRunID, c.ParentRunID))
	}
	if c.RetryOfRunID != "" {
		attrs = append(attrs, attribute.String(KeyRetryOfRunID, c.RetryOfRunID))
	}
	if !c.Deadline.IsZero() {
		attrs = append(attrs, attribute.Int64(KeyDeadline, c.Deadline.UnixMilli()))
	}

	c.mu.Lock()
	cancelled, cancelledAt := c.cancelled, c.cancelledAt
	outcome := c.outcome
	completedAt := c.completedAt
	c.mu.Unlock()

	if cancelled {
		attrs = append(attrs,
			attribute.Bool(KeyCancelled, true),
			attribute.String(KeyCancelledAt, cancelledAt.UTC().Format(time.RFC3339Nano)),
		)
	}
	if outcome != nil {
		attrs = append(attrs, attribute.String(KeyOutcomeStatus, string(outcome.Status)))
		if outcome.Reason != "" {
			attrs = append(attrs, attribute.String(KeyOutcomeReason, outcome.Reason))
		}
		if outcome.ErrorType != "" {
			attrs = append(attrs, attribute.String(KeyOutcomeErrorType, outcome.ErrorType))
		}
		if outcome.ValueType != "" {
			attrs = append(attrs, attribute.String(KeyOutcomeValueType, outcome.ValueType))
		}
		if outcome.HasValue {
			attrs = append(attrs, attribute.Float64(KeyOutcomeValue, outcome.ValueAmount))
		}
		if outcome.HasConfidence {
			attrs = append(attrs, attribute.Float64(KeyOutcomeConfidence, outcome.Confidence))
		}
		attrs = append(attrs, attribute.Float64(KeyDurationMS,
			float64(completedAt.Sub(c.StartTime))/float64(time.Millisecond)))
	}

	return attrs
}
