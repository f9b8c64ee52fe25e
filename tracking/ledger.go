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
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/botanu/botanu-go/internal/log"
	"github.com/botanu/botanu-go/run"
)

// Ledger event names. Each attempt-level fact is one structured log
// record, so billing disputes can be settled from the log stream even
// when the span was sampled out.
const (
	LedgerAttemptStarted     = "attempt.started"
	LedgerAttemptEnded       = "attempt.ended"
	LedgerCancelRequested    = "cancellation.requested"
	LedgerCancelAcknowledged = "cancellation.acknowledged"
	LedgerZombieDetected     = "zombie.detected"
	LedgerRedeliveryDetected = "redelivery.detected"
)

// Ledger writes attempt lifecycle events as structured log records
// correlated with both the run and the active trace.
type Ledger struct {
	logger *slog.Logger
}

// NewLedger wraps a structured logger as an attempt ledger. A nil
// logger uses slog.Default().
func NewLedger(logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{logger: logger}
}

// traceAttrs extracts trace correlation fields from the active span.
func traceAttrs(ctx context.Context) []any {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return nil
	}
	return []any{
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	}
}

// AttemptStarted records the beginning of an attempt.
func (l *Ledger) AttemptStarted(ctx context.Context, rc *run.Context) {
	if rc == nil {
		return
	}
	attrs := []any{
		slog.String("event", LedgerAttemptStarted),
		slog.String("root_run_id", rc.RootRunID),
	}
	if rc.TenantID != "" {
		attrs = append(attrs, slog.String("tenant_id", rc.TenantID))
	}
	if rc.HasDeadline() {
		attrs = append(attrs, slog.Int64("deadline_ms", rc.Deadline.UnixMilli()))
	}
	attrs = append(attrs, traceAttrs(ctx)...)
	log.WithRun(l.logger, rc).InfoContext(ctx, LedgerAttemptStarted, attrs...)
}

// AttemptEnded records the terminal state of an attempt. Non-success
// outcomes log at warn.
func (l *Ledger) AttemptEnded(ctx context.Context, rc *run.Context) {
	if rc == nil {
		return
	}
	outcome, ok := rc.Outcome()
	if !ok {
		return
	}
	duration, _ := rc.Duration()

	attrs := []any{
		slog.String("event", LedgerAttemptEnded),
		slog.String("status", string(outcome.Status)),
		slog.Float64("duration_ms", float64(duration)/float64(time.Millisecond)),
	}
	if outcome.ErrorType != "" {
		attrs = append(attrs, slog.String("error_type", outcome.ErrorType))
	}
	if outcome.Reason != "" {
		attrs = append(attrs, slog.String("reason", outcome.Reason))
	}
	attrs = append(attrs, traceAttrs(ctx)...)

	level := slog.LevelInfo
	if outcome.Status != run.StatusSuccess {
		level = slog.LevelWarn
	}
	log.WithRun(l.logger, rc).Log(ctx, level, LedgerAttemptEnded, attrs...)
}

// CancelRequested records a cancellation request against the run.
func (l *Ledger) CancelRequested(ctx context.Context, rc *run.Context) {
	if rc == nil {
		return
	}
	attrs := []any{
		slog.String("event", LedgerCancelRequested),
		slog.String("reason", rc.CancelReason()),
	}
	if at, ok := rc.CancelledAt(); ok {
		attrs = append(attrs, slog.Int64("requested_at_ms", at.UnixMilli()))
	}
	attrs = append(attrs, traceAttrs(ctx)...)
	log.WithRun(l.logger, rc).WarnContext(ctx, LedgerCancelRequested, attrs...)
}

// CancelAcknowledged records that a worker observed the cancellation
// and stopped. latency is the gap between request and acknowledgement.
func (l *Ledger) CancelAcknowledged(ctx context.Context, runID, acknowledgedBy string, latency time.Duration) {
	attrs := []any{
		slog.String("event", LedgerCancelAcknowledged),
		slog.String("run_id", runID),
		slog.String("acknowledged_by", acknowledgedBy),
		slog.Float64("latency_ms", float64(latency)/float64(time.Millisecond)),
	}
	attrs = append(attrs, traceAttrs(ctx)...)
	l.logger.InfoContext(ctx, LedgerCancelAcknowledged, attrs...)
}

// ZombieDetected records work observed running past its deadline.
// component names the code path still executing.
func (l *Ledger) ZombieDetected(ctx context.Context, rc *run.Context, component string) {
	if rc == nil || !rc.HasDeadline() {
		return
	}
	now := time.Now()
	attrs := []any{
		slog.String("event", LedgerZombieDetected),
		slog.Int64("deadline_ms", rc.Deadline.UnixMilli()),
		slog.Int64("observed_at_ms", now.UnixMilli()),
		slog.Float64("overrun_ms", float64(now.Sub(rc.Deadline))/float64(time.Millisecond)),
		slog.String("component", component),
	}
	attrs = append(attrs, traceAttrs(ctx)...)
	log.WithRun(l.logger, rc).ErrorContext(ctx, LedgerZombieDetected, attrs...)
}

// RedeliveryDetected records a message seen more than once, which
// usually means a previous attempt died without completing.
func (l *Ledger) RedeliveryDetected(ctx context.Context, runID, queue string, deliveryCount int, messageID string) {
	attrs := []any{
		slog.String("event", LedgerRedeliveryDetected),
		slog.String("run_id", runID),
		slog.String("queue", queue),
		slog.Int("delivery_count", deliveryCount),
	}
	if messageID != "" {
		attrs = append(attrs, slog.String("message_id", messageID))
	}
	attrs = append(attrs, traceAttrs(ctx)...)
	l.logger.WarnContext(ctx, LedgerRedeliveryDetected, attrs...)
}
