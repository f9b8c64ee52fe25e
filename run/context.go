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
	"os"
	"sync"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/botanu/botanu-go/pkg/errors"
)

// Context is one execution attempt of a business event.
//
// The descriptive fields (RunID, Workflow, ...) are fixed at
// construction and must not be mutated afterwards. Cancellation and
// outcome are the only mutable state; both are first-write-wins and
// safe for concurrent use.
type Context struct {
	// RunID is the globally unique, time-sortable identifier of this
	// attempt. Never reused across attempts.
	RunID string

	// RootRunID is the RunID of the first attempt in the retry chain.
	// Equals RunID for attempt 1 and is invariant across retries.
	RootRunID string

	// EventID identifies the business transaction; stable across
	// retries of the same event.
	EventID string

	// CustomerID identifies the end customer or tenant scope.
	CustomerID string

	// Workflow is a low-cardinality label naming the business workflow.
	Workflow string

	// WorkflowVersion is an optional stable hash of the producing code.
	WorkflowVersion string

	// Environment is the deployment environment label.
	Environment string

	// TenantID is an optional multi-tenancy identifier.
	TenantID string

	// ParentRunID identifies an enclosing run when runs nest across
	// service boundaries.
	ParentRunID string

	// Attempt is 1 for the first attempt and increments on each retry.
	Attempt int

	// RetryOfRunID is the RunID of the immediately preceding attempt.
	RetryOfRunID string

	// StartTime is captured at creation.
	StartTime time.Time

	// Deadline is the absolute time after which the run is overdue.
	// Zero when no deadline is set.
	Deadline time.Time

	clock clockz.Clock

	// deadlineIn holds the relative deadline until StartTime is known.
	deadlineIn time.Duration

	mu           sync.Mutex
	cancelled    bool
	cancelReason string
	cancelledAt  time.Time
	outcome      *Outcome
	completedAt  time.Time
}

// Option configures a Context at construction.
type Option func(*Context)

// WithEnvironment sets the deployment environment label.
func WithEnvironment(env string) Option {
	return func(c *Context) { c.Environment = env }
}

// WithWorkflowVersion sets the stable version hash of the producing code.
func WithWorkflowVersion(version string) Option {
	return func(c *Context) { c.WorkflowVersion = version }
}

// WithTenantID sets the multi-tenancy identifier.
func WithTenantID(tenantID string) Option {
	return func(c *Context) { c.TenantID = tenantID }
}

// WithParentRunID links this run to an enclosing run.
func WithParentRunID(parentRunID string) Option {
	return func(c *Context) { c.ParentRunID = parentRunID }
}

// WithRootRunID pins the lineage root. Used when reconstructing a
// context or continuing an existing retry chain; defaults to the new
// RunID otherwise.
func WithRootRunID(rootRunID string) Option {
	return func(c *Context) { c.RootRunID = rootRunID }
}

// WithAttempt sets the attempt number. Values below 1 are ignored.
func WithAttempt(attempt int) Option {
	return func(c *Context) {
		if attempt >= 1 {
			c.Attempt = attempt
		}
	}
}

// WithRetryOf records the RunID of the preceding attempt.
func WithRetryOf(runID string) Option {
	return func(c *Context) { c.RetryOfRunID = runID }
}

// WithDeadline sets a deadline relative to the run's start time.
func WithDeadline(d time.Duration) Option {
	return func(c *Context) { c.deadlineIn = d }
}

// WithClock overrides the time source. Intended for tests.
func WithClock(clock clockz.Clock) Option {
	return func(c *Context) { c.clock = clock }
}

// New creates a Context with a freshly generated RunID.
//
// Workflow, eventID, and customerID are required; construction fails
// with a *errors.ValidationError when any is empty. When no environment
// is supplied, BOTANU_ENVIRONMENT, then DEPLOYMENT_ENVIRONMENT, then
// "production" is used.
func New(workflow, eventID, customerID string, opts ...Option) (*Context, error) {
	if workflow == "" {
		return nil, &errors.ValidationError{
			Field:      "workflow",
			Message:    "must not be empty",
			Suggestion: "use a short, low-cardinality workflow label such as \"customer-support\"",
		}
	}
	if eventID == "" {
		return nil, &errors.ValidationError{
			Field:      "event_id",
			Message:    "must not be empty",
			Suggestion: "supply the stable identifier of the business transaction",
		}
	}
	if customerID == "" {
		return nil, &errors.ValidationError{
			Field:      "customer_id",
			Message:    "must not be empty",
			Suggestion: "supply the customer or tenant the event belongs to",
		}
	}

	c := &Context{
		RunID:      NewRunID(),
		Workflow:   workflow,
		EventID:    eventID,
		CustomerID: customerID,
		Attempt:    1,
		clock:      clockz.RealClock,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.Environment == "" {
		c.Environment = defaultEnvironment()
	}
	if c.RootRunID == "" {
		c.RootRunID = c.RunID
	}
	c.StartTime = c.clock.Now()
	if c.deadlineIn > 0 {
		c.Deadline = c.StartTime.Add(c.deadlineIn)
	}

	return c, nil
}

// NewRetry creates the Context for the next attempt of prev.
//
// The new Context gets a fresh RunID, Attempt = prev.Attempt+1, and
// RetryOfRunID = prev.RunID; RootRunID and all descriptive fields carry
// over unchanged, so the whole chain resolves to one root. Retrying is
// permitted regardless of prev's recorded outcome: whether a terminal
// status should stop retries is the caller's policy, not a lineage
// concern.
func NewRetry(prev *Context) (*Context, error) {
	if prev == nil {
		return nil, &errors.ValidationError{
			Field:   "previous",
			Message: "cannot retry a nil run context",
		}
	}

	return New(prev.Workflow, prev.EventID, prev.CustomerID,
		WithEnvironment(prev.Environment),
		WithWorkflowVersion(prev.WorkflowVersion),
		WithTenantID(prev.TenantID),
		WithParentRunID(prev.ParentRunID),
		WithRootRunID(prev.RootRunID),
		WithAttempt(prev.Attempt+1),
		WithRetryOf(prev.RunID),
		WithClock(prev.clock),
	)
}

func defaultEnvironment() string {
	if env := os.Getenv("BOTANU_ENVIRONMENT"); env != "" {
		return env
	}
	if env := os.Getenv("DEPLOYMENT_ENVIRONMENT"); env != "" {
		return env
	}
	return "production"
}

// HasDeadline reports whether a deadline is set.
func (c *Context) HasDeadline() bool {
	return !c.Deadline.IsZero()
}

// IsPastDeadline reports whether the deadline is set and the current
// time is at or after it. Side-effect free.
func (c *Context) IsPastDeadline() bool {
	if c.Deadline.IsZero() {
		return false
	}
	return !c.clock.Now().Before(c.Deadline)
}

// Remaining returns the time left until the deadline (negative when
// overdue). ok is false when no deadline is set.
func (c *Context) Remaining() (d time.Duration, ok bool) {
	if c.Deadline.IsZero() {
		return 0, false
	}
	return c.Deadline.Sub(c.clock.Now()), true
}

// RequestCancellation marks the run as cancelled. Idempotent: the
// reason from the first call wins, later calls are no-ops. Nothing is
// interrupted; cooperating code polls IsCancelled at its checkpoints.
func (c *Context) RequestCancellation(reason string) {
	if reason == "" {
		reason = "user"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelled {
		return
	}
	c.cancelled = true
	c.cancelReason = reason
	c.cancelledAt = c.clock.Now()
}

// IsCancelled reports whether cancellation was requested or the
// deadline has passed.
func (c *Context) IsCancelled() bool {
	c.mu.Lock()
	cancelled := c.cancelled
	c.mu.Unlock()
	return cancelled || c.IsPastDeadline()
}

// CancelReason returns the reason recorded by the first cancellation
// request, or "" when none was made.
func (c *Context) CancelReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelReason
}

// CancelledAt returns when cancellation was first requested. ok is
// false when the run was never cancelled.
func (c *Context) CancelledAt() (t time.Time, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelledAt, c.cancelled
}

// Complete attaches the terminal Outcome. The first call wins: later
// calls are ignored and return false, leaving the recorded outcome
// untouched. Complete never fails, so it is safe to call on error
// paths without masking the original error.
func (c *Context) Complete(status Status, opts ...CompleteOption) bool {
	o := &Outcome{Status: status}
	for _, opt := range opts {
		opt(o)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcome != nil {
		return false
	}
	c.outcome = o
	c.completedAt = c.clock.Now()
	return true
}

// Outcome returns a copy of the recorded outcome. ok is false when the
// run has not completed.
func (c *Context) Outcome() (o Outcome, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcome == nil {
		return Outcome{}, false
	}
	return *c.outcome, true
}

// IsCompleted reports whether an outcome has been recorded.
func (c *Context) IsCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcome != nil
}

// Duration returns the elapsed time from start to outcome recording.
// ok is false when the run has not completed.
func (c *Context) Duration() (d time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcome == nil {
		return 0, false
	}
	return c.completedAt.Sub(c.StartTime), true
}
