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

// Package sdk is the public surface of the Botanu instrumentation SDK.
//
// It ties the run-context model to OpenTelemetry: Enable wires a tracer
// provider with the run-context span enricher, UseCase wraps a unit of
// business work in a run span with automatic outcome recording, and
// Middleware/Transport move the run context across HTTP boundaries via
// W3C Baggage.
//
// Minimal usage:
//
//	bot, err := sdk.Enable(ctx, sdk.WithServiceName("ticket-service"))
//	if err != nil { ... }
//	defer bot.Shutdown(ctx)
//
//	uc, err := sdk.NewUseCase("customer-support",
//		sdk.WithEventID(sdk.FromInput("ticket_id")),
//		sdk.WithCustomerID(sdk.FromInput("customer_id")),
//	)
//	if err != nil { ... }
//
//	err = uc.Run(ctx, map[string]any{"ticket_id": "t-1", "customer_id": "c-1"},
//		func(ctx context.Context) error {
//			return handleTicket(ctx)
//		})
package sdk
