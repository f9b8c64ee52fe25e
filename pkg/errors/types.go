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

// Package errors defines the typed errors used across the Botanu SDK.
package errors

import (
	"fmt"
)

// ValidationError represents invalid caller input.
// Use this for empty required fields, malformed identifiers, or
// out-of-range values supplied at construction time.
type ValidationError struct {
	// Field identifies which input field failed validation
	Field string

	// Message is the human-readable error description
	Message string

	// Suggestion provides actionable guidance for fixing the error
	Suggestion string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// ConfigError represents SDK configuration problems.
// Configuration errors surface at setup time, before any instrumented
// work begins; they are never silently defaulted.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "exporters[0].endpoint")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ResolverError represents a failure to resolve a dynamic identifier
// (event ID, customer ID) from call input. Resolver errors propagate to
// the caller before the wrapped function runs.
type ResolverError struct {
	// Resolver names which resolver failed ("event_id" or "customer_id")
	Resolver string

	// Cause is the underlying error from the resolver function
	Cause error
}

// Error implements the error interface.
func (e *ResolverError) Error() string {
	return fmt.Sprintf("resolving %s: %v", e.Resolver, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ResolverError) Unwrap() error {
	return e.Cause
}
