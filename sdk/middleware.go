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
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/botanu/botanu-go/run"
)

// Middleware extracts W3C trace context and baggage from inbound
// request headers. When the baggage carries a run context, it is
// materialized into the request context, so handlers, the span
// enricher, and nested use cases all see the upstream run.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		if carrier, ok := baggageCarrier(ctx); ok {
			if rc, ok := run.FromCarrier(carrier); ok {
				ctx = run.IntoContext(ctx, rc)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Transport injects the active trace context and run baggage into
// outbound request headers. Zero value is usable and propagates in
// lean mode over http.DefaultTransport.
type Transport struct {
	// Base is the wrapped round tripper. Nil means
	// http.DefaultTransport.
	Base http.RoundTripper

	// Mode is the carrier density injected for the active run.
	Mode run.Mode
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper. The request is cloned;
// per the RoundTripper contract the original is not mutated.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	// A run attached via run.IntoContext alone has no baggage yet;
	// re-activating mirrors it so Inject writes the carrier out.
	if rc, ok := run.FromContext(ctx); ok {
		ctx = Activate(ctx, rc, t.Mode)
	}
	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return t.base().RoundTrip(req)
}

// WrapHTTPClient returns a copy of c whose transport propagates the
// active run downstream. A nil client wraps http.DefaultClient.
func WrapHTTPClient(c *http.Client, mode run.Mode) *http.Client {
	if c == nil {
		c = http.DefaultClient
	}
	wrapped := *c
	wrapped.Transport = &Transport{Base: c.Transport, Mode: mode}
	return &wrapped
}
