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
	"context"
)

// ambientKey is the context key for the ambient run context.
type ambientKeyType struct{}

var ambientKey = ambientKeyType{}

// IntoContext returns a context carrying rc as the ambient run context.
//
// context.Context gives the scoping guarantees for free: values are
// immutable, every goroutine spawned with the returned context sees a
// snapshot taken at spawn time, and "releasing" the scope is simply
// returning to the parent context. Concurrent tasks holding different
// contexts never observe each other's activation.
func IntoContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ambientKey, rc)
}

// FromContext returns the ambient run context, or ok=false when none
// is active.
func FromContext(ctx context.Context) (*Context, bool) {
	rc, ok := ctx.Value(ambientKey).(*Context)
	return rc, ok && rc != nil
}

// CurrentRunID returns the RunID of the ambient run context, or ""
// when none is active.
func CurrentRunID(ctx context.Context) string {
	if rc, ok := FromContext(ctx); ok {
		return rc.RunID
	}
	return ""
}
