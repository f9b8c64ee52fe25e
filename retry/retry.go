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

// Package retry runs a function with exponential backoff while keeping
// the run lineage intact: every attempt after the first executes under
// a fresh retry run linked to its predecessor, so the attempt chain is
// reconstructible from telemetry alone.
package retry

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"

	"github.com/botanu/botanu-go/pkg/errors"
	"github.com/botanu/botanu-go/run"
	"github.com/botanu/botanu-go/sdk"
	"github.com/botanu/botanu-go/tracking"
)

type options struct {
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	multiplier     float64
	clock          clockz.Clock
	ledger         *tracking.Ledger
	retryIf        func(error) bool
}

// Option configures Do.
type Option func(*options)

// WithMaxAttempts caps the total number of attempts (default: 3).
func WithMaxAttempts(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithBackoff sets the exponential backoff parameters. The wait after
// attempt n is initial*multiplier^(n-1), capped at max.
func WithBackoff(initial, max time.Duration, multiplier float64) Option {
	return func(o *options) {
		o.initialBackoff = initial
		o.maxBackoff = max
		if multiplier >= 1 {
			o.multiplier = multiplier
		}
	}
}

// WithClock injects the clock used for backoff waits.
func WithClock(clock clockz.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithLedger records attempt lifecycle events on the given ledger.
func WithLedger(ledger *tracking.Ledger) Option {
	return func(o *options) { o.ledger = ledger }
}

// WithRetryIf limits which errors are retried. Errors rejected by the
// predicate are returned immediately.
func WithRetryIf(pred func(error) bool) Option {
	return func(o *options) { o.retryIf = pred }
}

// Do runs fn until it succeeds, the attempt budget is spent, ctx is
// done, or the active run is cancelled or past its deadline.
//
// The first attempt runs under the ambient run unchanged; its outcome
// stays with its owner. Each subsequent attempt runs under
// run.NewRetry of the previous attempt's run, activated in full
// propagation mode so the attempt number reaches every span, and is
// completed by Do with that attempt's result. The last error is
// returned unchanged.
func Do(ctx context.Context, fn func(ctx context.Context) error, opts ...Option) error {
	o := options{
		maxAttempts:    3,
		initialBackoff: 100 * time.Millisecond,
		maxBackoff:     10 * time.Second,
		multiplier:     2.0,
		clock:          clockz.RealClock,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rc, hasRun := run.FromContext(ctx)

	backoff := o.initialBackoff
	var lastErr error
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		attemptCtx := ctx
		attemptRun := rc
		if hasRun && attempt > 1 {
			retryRun, err := run.NewRetry(attemptRun)
			if err != nil {
				return lastErr
			}
			attemptCtx = sdk.Activate(ctx, retryRun, run.ModeFull)
			attemptRun = retryRun
			rc = retryRun
		}

		if o.ledger != nil && hasRun {
			o.ledger.AttemptStarted(attemptCtx, attemptRun)
		}

		lastErr = fn(attemptCtx)

		// Retry runs created here get their outcome here; the caller's
		// own run is completed by whoever owns it.
		if hasRun && attempt > 1 {
			if lastErr != nil {
				attemptRun.Complete(run.StatusFailed,
					run.WithErrorType(errors.TypeName(lastErr)),
					run.WithReason(lastErr.Error()),
				)
			} else {
				attemptRun.Complete(run.StatusSuccess)
			}
			if o.ledger != nil {
				o.ledger.AttemptEnded(attemptCtx, attemptRun)
			}
		}

		if lastErr == nil {
			return nil
		}
		if o.retryIf != nil && !o.retryIf(lastErr) {
			return lastErr
		}
		if attempt == o.maxAttempts {
			return lastErr
		}
		if hasRun && (attemptRun.IsCancelled() || attemptRun.IsPastDeadline()) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-o.clock.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * o.multiplier)
		if backoff > o.maxBackoff {
			backoff = o.maxBackoff
		}
	}
	return lastErr
}
