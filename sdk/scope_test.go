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
	"go.opentelemetry.io/otel/baggage"

	"github.com/botanu/botanu-go/run"
)

func TestActivateSetsAmbientRun(t *testing.T) {
	rc := newTestRun(t)
	ctx := Activate(context.Background(), rc, run.ModeLean)

	got, ok := CurrentRun(ctx)
	require.True(t, ok)
	assert.Same(t, rc, got)
}

func TestActivateMirrorsCarrierIntoBaggage(t *testing.T) {
	rc := newTestRun(t)
	ctx := Activate(context.Background(), rc, run.ModeLean)

	bag := baggage.FromContext(ctx)
	assert.Equal(t, rc.RunID, bag.Member(run.KeyRunID).Value())
	assert.Equal(t, rc.Workflow, bag.Member(run.KeyWorkflow).Value())
	assert.Equal(t, rc.EventID, bag.Member(run.KeyEventID).Value())
	assert.Equal(t, rc.CustomerID, bag.Member(run.KeyCustomerID).Value())

	// Lean mode keeps the tenant out of baggage.
	assert.Empty(t, bag.Member(run.KeyTenantID).Value())
}

func TestActivateFullModeBaggage(t *testing.T) {
	rc := newTestRun(t)
	ctx := Activate(context.Background(), rc, run.ModeFull)

	bag := baggage.FromContext(ctx)
	assert.Equal(t, "staging", bag.Member(run.KeyEnvironment).Value())
	assert.Equal(t, "tenant-a", bag.Member(run.KeyTenantID).Value())
	assert.Equal(t, "1", bag.Member(run.KeyAttempt).Value())
}

func TestActivatePreservesUnrelatedBaggage(t *testing.T) {
	member, err := baggage.NewMemberRaw("feature.flag", "on")
	require.NoError(t, err)
	bag, err := baggage.New(member)
	require.NoError(t, err)
	ctx := baggage.ContextWithBaggage(context.Background(), bag)

	rc := newTestRun(t)
	ctx = Activate(ctx, rc, run.ModeLean)

	got := baggage.FromContext(ctx)
	assert.Equal(t, "on", got.Member("feature.flag").Value())
	assert.Equal(t, rc.RunID, got.Member(run.KeyRunID).Value())
}

func TestCurrentRunNone(t *testing.T) {
	_, ok := CurrentRun(context.Background())
	assert.False(t, ok)
}

func TestCurrentRunFromBaggageFallback(t *testing.T) {
	rc := newTestRun(t)

	// Only baggage survives a process boundary.
	ctx := Activate(context.Background(), rc, run.ModeFull)
	ctx = stripAmbientRun(ctx)

	got, ok := CurrentRun(ctx)
	require.True(t, ok)
	assert.NotSame(t, rc, got)
	assert.Equal(t, rc.RunID, got.RunID)
	assert.Equal(t, rc.Workflow, got.Workflow)
	assert.Equal(t, "staging", got.Environment)
	assert.Equal(t, "tenant-a", got.TenantID)
}

func TestCurrentRunBaggageLeanDefaults(t *testing.T) {
	rc := newTestRun(t)
	ctx := stripAmbientRun(Activate(context.Background(), rc, run.ModeLean))

	got, ok := CurrentRun(ctx)
	require.True(t, ok)
	assert.Equal(t, run.DefaultEnvironment, got.Environment)
	assert.Equal(t, 1, got.Attempt)
	assert.Equal(t, got.RunID, got.RootRunID)
}

func TestNestedActivationRestoresOuterScope(t *testing.T) {
	outer := newTestRun(t)
	inner := newTestRun(t)

	ctx := Activate(context.Background(), outer, run.ModeLean)
	innerCtx := Activate(ctx, inner, run.ModeLean)

	got, ok := CurrentRun(innerCtx)
	require.True(t, ok)
	assert.Same(t, inner, got)

	// The outer context object is untouched.
	got, ok = CurrentRun(ctx)
	require.True(t, ok)
	assert.Same(t, outer, got)
}
