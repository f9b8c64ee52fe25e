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

// Package run defines the canonical run context data model.
//
// A "run" is one execution attempt of a business event, and is
// orthogonal to tracing:
//
//   - Trace context (W3C) ties distributed spans together (trace_id, span_id).
//   - Run context (Botanu) ties business execution together (run_id,
//     workflow, outcome).
//
// A run can span multiple traces (retries, async fanout); the run_id
// stays stable across those boundaries. Retries get a fresh run_id for
// clean cost accounting while root_run_id stays constant across the
// whole lineage.
//
// The package has three concerns: the Context model and its lifecycle
// (deadline, cancellation, outcome), the carrier codec that moves a
// Context across process boundaries as flat string pairs, and the
// ambient accessors (IntoContext/FromContext) that make the active
// Context visible to nested operations through context.Context.
package run
