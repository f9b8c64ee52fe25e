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

// Status is the terminal business result of a run.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
	StatusCanceled  Status = "canceled"
	StatusAbandoned Status = "abandoned"
)

// IsValid reports whether s is one of the defined outcome statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusSuccess, StatusPartial, StatusFailed, StatusTimeout, StatusCanceled, StatusAbandoned:
		return true
	}
	return false
}

// IsTerminalFailure reports whether s represents a failure that ended
// the run (as opposed to success or partial success).
func (s Status) IsTerminalFailure() bool {
	switch s {
	case StatusFailed, StatusTimeout, StatusCanceled, StatusAbandoned:
		return true
	}
	return false
}

// Outcome is the business result recorded against a run. At most one
// Outcome attaches to a Context; the first write wins.
type Outcome struct {
	// Status is the terminal result.
	Status Status

	// ValueType labels what was achieved (e.g. "tickets_resolved").
	ValueType string

	// ValueAmount quantifies the value achieved.
	ValueAmount float64

	// HasValue reports whether ValueAmount was set.
	HasValue bool

	// Confidence is an optional score in [0, 1].
	Confidence float64

	// HasConfidence reports whether Confidence was set.
	HasConfidence bool

	// Reason is a free-text explanation, expected for non-success statuses.
	Reason string

	// ErrorType classifies the error that caused a failed outcome.
	ErrorType string

	// Metadata holds additional flat string pairs.
	Metadata map[string]string
}

// CompleteOption customises the Outcome recorded by Context.Complete.
type CompleteOption func(*Outcome)

// WithReason sets the free-text explanation for the outcome.
func WithReason(reason string) CompleteOption {
	return func(o *Outcome) { o.Reason = reason }
}

// WithErrorType sets the error classification for a failed outcome.
func WithErrorType(errorType string) CompleteOption {
	return func(o *Outcome) { o.ErrorType = errorType }
}

// WithValue records the business value achieved by the run.
func WithValue(valueType string, amount float64) CompleteOption {
	return func(o *Outcome) {
		o.ValueType = valueType
		o.ValueAmount = amount
		o.HasValue = true
	}
}

// WithConfidence sets the confidence score. Values outside [0, 1] are
// clamped; outcome recording is fail-safe and never rejects a write.
func WithConfidence(confidence float64) CompleteOption {
	return func(o *Outcome) {
		if confidence < 0 {
			confidence = 0
		} else if confidence > 1 {
			confidence = 1
		}
		o.Confidence = confidence
		o.HasConfidence = true
	}
}

// WithOutcomeMetadata attaches flat string metadata to the outcome.
func WithOutcomeMetadata(md map[string]string) CompleteOption {
	return func(o *Outcome) {
		if len(md) == 0 {
			return
		}
		if o.Metadata == nil {
			o.Metadata = make(map[string]string, len(md))
		}
		for k, v := range md {
			o.Metadata[k] = v
		}
	}
}
