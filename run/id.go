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
	"github.com/google/uuid"
)

// NewRunID generates a UUIDv7 run identifier in canonical string form.
//
// UUIDv7 puts a 48-bit millisecond timestamp in front of 74 random
// bits, so identifiers generated at different milliseconds sort in
// time order under plain lexicographic comparison, and identifiers
// generated within the same millisecond are still distinct.
//
// NewRunID never returns an error: the only failure mode is an
// exhausted OS entropy source, which is fatal to the process anyway.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IsValidRunID reports whether s parses as an RFC 4122 UUID.
func IsValidRunID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
