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
	"strings"

	"go.opentelemetry.io/otel/baggage"

	"github.com/botanu/botanu-go/run"
)

// Activate establishes rc as the ambient run context for everything
// derived from the returned context, and mirrors its carrier into W3C
// Baggage so outbound propagation and the span enricher see the same
// fields. The scope ends when callers stop using the returned context;
// the parent context is untouched.
func Activate(ctx context.Context, rc *run.Context, mode run.Mode) context.Context {
	ctx = run.IntoContext(ctx, rc)

	bag := baggage.FromContext(ctx)
	for k, v := range rc.Carrier(mode) {
		if v == "" {
			continue
		}
		member, err := baggage.NewMemberRaw(k, v)
		if err != nil {
			continue
		}
		if next, err := bag.SetMember(member); err == nil {
			bag = next
		}
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

// CurrentRun returns the ambient run context. When no context was
// activated in-process, it falls back to materializing one from
// inbound baggage (the cross-service case, after propagator extract).
func CurrentRun(ctx context.Context) (*run.Context, bool) {
	if rc, ok := run.FromContext(ctx); ok {
		return rc, true
	}
	carrier, ok := baggageCarrier(ctx)
	if !ok {
		return nil, false
	}
	return run.FromCarrier(carrier)
}

// baggageCarrier collects the botanu.* baggage members of ctx into a
// carrier mapping.
func baggageCarrier(ctx context.Context) (map[string]string, bool) {
	bag := baggage.FromContext(ctx)
	if bag.Len() == 0 {
		return nil, false
	}

	carrier := make(map[string]string)
	for _, m := range bag.Members() {
		if strings.HasPrefix(m.Key(), "botanu.") {
			carrier[m.Key()] = m.Value()
		}
	}
	if len(carrier) == 0 {
		return nil, false
	}
	return carrier, true
}

// ambientCarrier returns the carrier mapping of the ambient run
// context, preferring the in-process pointer over baggage.
func ambientCarrier(ctx context.Context, mode run.Mode) (map[string]string, bool) {
	if rc, ok := run.FromContext(ctx); ok {
		return rc.Carrier(mode), true
	}
	return baggageCarrier(ctx)
}
