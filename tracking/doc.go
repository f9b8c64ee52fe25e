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

// Package tracking records the cost drivers of a run: model calls,
// tool executions, database and storage and messaging operations, and
// the attempt ledger.
//
// Trackers open spans aligned with the OpenTelemetry semantic
// conventions (GenAI, db, messaging) and record the matching metrics
// on End. They work with or without an active run; when a run is
// active its identity reaches the spans through the span enricher.
package tracking
