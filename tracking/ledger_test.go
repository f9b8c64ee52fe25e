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
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/botanu/botanu-go/run"
)

type ledgerFixture struct {
	ledger *Ledger
	buf    *bytes.Buffer
}

func newLedgerFixture() *ledgerFixture {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return &ledgerFixture{ledger: NewLedger(logger), buf: buf}
}

func (f *ledgerFixture) records(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(bytes.NewReader(f.buf.Bytes()))
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		out = append(out, rec)
	}
	return out
}

func TestLedgerAttemptStarted(t *testing.T) {
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1",
		run.WithTenantID("tenant-a"),
		run.WithDeadline(time.Minute))
	require.NoError(t, err)

	f.ledger.AttemptStarted(context.Background(), rc)

	recs := f.records(t)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, LedgerAttemptStarted, rec["event"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, rc.RunID, rec["run_id"])
	assert.Equal(t, rc.RootRunID, rec["root_run_id"])
	assert.Equal(t, "billing-sync", rec["workflow"])
	assert.Equal(t, "evt-1", rec["event_id"])
	assert.Equal(t, float64(1), rec["attempt"])
	assert.Equal(t, "tenant-a", rec["tenant_id"])
	assert.Contains(t, rec, "deadline_ms")
}

func TestLedgerAttemptEndedWarnsOnFailure(t *testing.T) {
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1")
	require.NoError(t, err)
	rc.Complete(run.StatusFailed,
		run.WithErrorType("TimeoutError"),
		run.WithReason("upstream timed out"))

	f.ledger.AttemptEnded(context.Background(), rc)

	recs := f.records(t)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, LedgerAttemptEnded, rec["event"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "failed", rec["status"])
	assert.Equal(t, "TimeoutError", rec["error_type"])
	assert.Equal(t, "upstream timed out", rec["reason"])
	assert.Contains(t, rec, "duration_ms")
}

func TestLedgerAttemptEndedSuccessLogsInfo(t *testing.T) {
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1")
	require.NoError(t, err)
	rc.Complete(run.StatusSuccess)

	f.ledger.AttemptEnded(context.Background(), rc)

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, "INFO", recs[0]["level"])
	assert.Equal(t, "success", recs[0]["status"])
	assert.Equal(t, rc.RunID, recs[0]["run_id"])
}

func TestLedgerAttemptEndedRequiresOutcome(t *testing.T) {
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1")
	require.NoError(t, err)

	f.ledger.AttemptEnded(context.Background(), rc)

	assert.Empty(t, f.records(t))
}

func TestLedgerCancelEvents(t *testing.T) {
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1")
	require.NoError(t, err)
	rc.RequestCancellation("budget exhausted")

	f.ledger.CancelRequested(context.Background(), rc)
	f.ledger.CancelAcknowledged(context.Background(), rc.RunID, "worker-3", 250*time.Millisecond)

	recs := f.records(t)
	require.Len(t, recs, 2)

	assert.Equal(t, LedgerCancelRequested, recs[0]["event"])
	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "budget exhausted", recs[0]["reason"])
	assert.Contains(t, recs[0], "requested_at_ms")

	assert.Equal(t, LedgerCancelAcknowledged, recs[1]["event"])
	assert.Equal(t, "INFO", recs[1]["level"])
	assert.Equal(t, "worker-3", recs[1]["acknowledged_by"])
	assert.Equal(t, float64(250), recs[1]["latency_ms"])
}

func TestLedgerZombieDetected(t *testing.T) {
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1",
		run.WithDeadline(-time.Second))
	require.NoError(t, err)

	f.ledger.ZombieDetected(context.Background(), rc, "invoice-worker")

	recs := f.records(t)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, LedgerZombieDetected, rec["event"])
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "invoice-worker", rec["component"])
	assert.Greater(t, rec["overrun_ms"].(float64), float64(0))
}

func TestLedgerZombieDetectedRequiresDeadline(t *testing.T) {
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1")
	require.NoError(t, err)

	f.ledger.ZombieDetected(context.Background(), rc, "invoice-worker")

	assert.Empty(t, f.records(t))
}

func TestLedgerRedeliveryDetected(t *testing.T) {
	f := newLedgerFixture()

	f.ledger.RedeliveryDetected(context.Background(), "run-1", "invoices", 3, "msg-42")

	recs := f.records(t)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, LedgerRedeliveryDetected, rec["event"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "invoices", rec["queue"])
	assert.Equal(t, float64(3), rec["delivery_count"])
	assert.Equal(t, "msg-42", rec["message_id"])
}

func TestLedgerNilRunIsIgnored(t *testing.T) {
	f := newLedgerFixture()

	f.ledger.AttemptStarted(context.Background(), nil)
	f.ledger.AttemptEnded(context.Background(), nil)
	f.ledger.CancelRequested(context.Background(), nil)

	assert.Empty(t, f.records(t))
}

func TestLedgerTraceCorrelation(t *testing.T) {
	installRecorder(t)
	f := newLedgerFixture()
	rc, err := run.New("billing-sync", "evt-1", "cust-1")
	require.NoError(t, err)

	ctx, span := otel.Tracer("test").Start(context.Background(), "work")
	f.ledger.AttemptStarted(ctx, rc)
	span.End()

	recs := f.records(t)
	require.Len(t, recs, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), recs[0]["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), recs[0]["span_id"])
}
