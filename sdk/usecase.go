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
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/botanu/botanu-go/pkg/errors"
	"github.com/botanu/botanu-go/run"
	"github.com/botanu/botanu-go/tracking"
)

// tracerName is the instrumentation scope of run spans.
const tracerName = "botanu.sdk"

// Span event names emitted around a run.
const (
	EventRunStarted   = "botanu.run.started"
	EventRunCompleted = "botanu.run.completed"
)

// UseCase wraps a unit of business work in a run span. It is the
// primary integration point: build one per workflow at startup, then
// call Run for every invocation.
type UseCase struct {
	workflow        string
	workflowVersion string
	environment     string
	tenantID        string
	eventID         Resolver
	customerID      Resolver
	spanKind        trace.SpanKind
	autoOutcome     bool
	deadline        time.Duration
	mode            run.Mode
	tracer          trace.Tracer
}

// UseCaseOption configures a UseCase.
type UseCaseOption func(*UseCase)

// WithEventID sets the resolver for the business event identifier.
// Required.
func WithEventID(r Resolver) UseCaseOption {
	return func(u *UseCase) { u.eventID = r }
}

// WithCustomerID sets the resolver for the customer identifier.
// Required.
func WithCustomerID(r Resolver) UseCaseOption {
	return func(u *UseCase) { u.customerID = r }
}

// WithUseCaseEnvironment overrides the deployment environment label
// for runs created by this use case.
func WithUseCaseEnvironment(env string) UseCaseOption {
	return func(u *UseCase) { u.environment = env }
}

// WithUseCaseTenantID sets the tenant for runs created by this use case.
func WithUseCaseTenantID(tenantID string) UseCaseOption {
	return func(u *UseCase) { u.tenantID = tenantID }
}

// WithWorkflowVersion stamps runs with a stable version hash of the
// producing code.
func WithWorkflowVersion(version string) UseCaseOption {
	return func(u *UseCase) { u.workflowVersion = version }
}

// WithSpanKind overrides the run span kind (default: server).
func WithSpanKind(kind trace.SpanKind) UseCaseOption {
	return func(u *UseCase) { u.spanKind = kind }
}

// WithRunDeadline gives each run a deadline relative to its start.
func WithRunDeadline(d time.Duration) UseCaseOption {
	return func(u *UseCase) { u.deadline = d }
}

// WithoutAutoOutcome disables the automatic success outcome on clean
// return; the wrapped function is then expected to call EmitOutcome.
func WithoutAutoOutcome() UseCaseOption {
	return func(u *UseCase) { u.autoOutcome = false }
}

// WithPropagationMode selects the carrier density activated for the
// run (default: lean).
func WithPropagationMode(mode run.Mode) UseCaseOption {
	return func(u *UseCase) { u.mode = mode }
}

// WithTracerProvider overrides the tracer provider. Intended for tests;
// the default is the global provider installed by Enable.
func WithTracerProvider(tp trace.TracerProvider) UseCaseOption {
	return func(u *UseCase) { u.tracer = tp.Tracer(tracerName) }
}

// NewUseCase builds the entry-point wrapper for one workflow.
//
// Missing event-ID or customer-ID resolvers are configuration errors
// and fail here, before any work is wrapped.
func NewUseCase(workflow string, opts ...UseCaseOption) (*UseCase, error) {
	if workflow == "" {
		return nil, &errors.ValidationError{
			Field:      "workflow",
			Message:    "must not be empty",
			Suggestion: "name the business workflow this use case wraps",
		}
	}

	u := &UseCase{
		workflow:    workflow,
		spanKind:    trace.SpanKindServer,
		autoOutcome: true,
		mode:        run.ModeLean,
	}
	for _, opt := range opts {
		opt(u)
	}

	if u.eventID.isZero() {
		return nil, &errors.ConfigError{
			Key:    "event_id",
			Reason: "no resolver configured; use WithEventID(Static(...)), FromInput, or FromExpr",
		}
	}
	if u.customerID.isZero() {
		return nil, &errors.ConfigError{
			Key:    "customer_id",
			Reason: "no resolver configured; use WithCustomerID(Static(...)), FromInput, or FromExpr",
		}
	}

	if u.tracer == nil {
		u.tracer = otel.Tracer(tracerName)
	}
	return u, nil
}

// Run executes fn inside a run scope.
//
// The run context is inherited from an inbound carrier when the
// incoming ctx carries one (cross-service continuation), created as a
// child run when another run is already active in-process, and created
// fresh otherwise. fn's error is always returned unchanged; the only
// observable effect of failure is the recorded outcome and span state,
// never a change in control flow.
func (u *UseCase) Run(ctx context.Context, input map[string]any, fn func(ctx context.Context) error) error {
	// Resolve identity first: a resolver failure aborts before any run
	// context exists or any span starts.
	eventID, err := u.eventID.resolve(input)
	if err != nil {
		return &errors.ResolverError{Resolver: "event_id", Cause: err}
	}
	customerID, err := u.customerID.resolve(input)
	if err != nil {
		return &errors.ResolverError{Resolver: "customer_id", Cause: err}
	}

	rc, err := u.resolveRun(ctx, eventID, customerID)
	if err != nil {
		return err
	}

	ctx, span := u.tracer.Start(ctx, "botanu.run/"+u.workflow,
		trace.WithSpanKind(u.spanKind),
		trace.WithAttributes(rc.SpanAttributes()...),
	)
	ctx = Activate(ctx, rc, u.mode)

	span.AddEvent(EventRunStarted, trace.WithAttributes(
		attribute.String("run_id", rc.RunID),
		attribute.String("workflow", rc.Workflow),
		attribute.String("event_id", rc.EventID),
		attribute.Int("attempt", rc.Attempt),
	))

	// The span always ends, whatever exit path the invocation takes.
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			rc.Complete(run.StatusFailed,
				run.WithErrorType("panic"),
				run.WithReason(fmt.Sprint(r)),
			)
			span.SetStatus(codes.Error, "panic")
			u.emitCompleted(ctx, span, rc)
			panic(r)
		}
	}()

	if err := fn(ctx); err != nil {
		rc.Complete(run.StatusFailed,
			run.WithErrorType(errors.TypeName(err)),
			run.WithReason(err.Error()),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		u.emitCompleted(ctx, span, rc)
		return err
	}

	if u.autoOutcome && !rc.IsCompleted() {
		rc.Complete(run.StatusSuccess)
	}
	span.SetStatus(codes.Ok, "")
	u.emitCompleted(ctx, span, rc)
	return nil
}

// resolveRun decides where the run context for this invocation comes
// from: adopt an inbound carrier, nest under an active in-process run,
// or start fresh.
func (u *UseCase) resolveRun(ctx context.Context, eventID, customerID string) (*run.Context, error) {
	// A baggage-only context means an upstream service started the run
	// and propagated it to us; this invocation continues that run.
	if _, active := run.FromContext(ctx); !active {
		if carrier, ok := baggageCarrier(ctx); ok {
			if inbound, ok := run.FromCarrier(carrier); ok {
				return inbound, nil
			}
		}
	}

	opts := []run.Option{
		run.WithWorkflowVersion(u.workflowVersion),
	}
	if u.environment != "" {
		opts = append(opts, run.WithEnvironment(u.environment))
	}
	if u.tenantID != "" {
		opts = append(opts, run.WithTenantID(u.tenantID))
	}
	if u.deadline > 0 {
		opts = append(opts, run.WithDeadline(u.deadline))
	}
	// An in-process ambient run makes this a nested child run that
	// keeps the ancestor's root.
	if parent, ok := run.FromContext(ctx); ok {
		opts = append(opts,
			run.WithParentRunID(parent.RunID),
			run.WithRootRunID(parent.RootRunID),
		)
	}

	return run.New(u.workflow, eventID, customerID, opts...)
}

// emitCompleted records the terminal state on the span and the run
// metrics. Recording is best-effort and never fails: nothing here may
// mask the business error being returned.
func (u *UseCase) emitCompleted(ctx context.Context, span trace.Span, rc *run.Context) {
	outcome, ok := rc.Outcome()
	if !ok {
		// Auto-outcome disabled and fn recorded nothing.
		return
	}
	duration, _ := rc.Duration()

	span.SetAttributes(outcomeAttributes(outcome, duration)...)

	eventAttrs := []attribute.KeyValue{
		attribute.String("run_id", rc.RunID),
		attribute.String("workflow", rc.Workflow),
		attribute.String("status", string(outcome.Status)),
		attribute.Float64("duration_ms", float64(duration)/float64(time.Millisecond)),
	}
	if outcome.ErrorType != "" {
		eventAttrs = append(eventAttrs, attribute.String("error_type", outcome.ErrorType))
	}
	if outcome.ValueType != "" {
		eventAttrs = append(eventAttrs, attribute.String("value_type", outcome.ValueType))
	}
	if outcome.HasValue {
		eventAttrs = append(eventAttrs, attribute.Float64("value_amount", outcome.ValueAmount))
	}
	span.AddEvent(EventRunCompleted, trace.WithAttributes(eventAttrs...))

	tracking.RecordRunCompleted(ctx, rc)
}
