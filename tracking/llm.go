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

package tracking

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/botanu/botanu-go/pkg/errors"
)

// genAIScope is the instrumentation scope for model and tool spans.
const genAIScope = "botanu.gen_ai"

type genAIInstruments struct {
	tokenUsage    metric.Int64Histogram
	opDuration    metric.Float64Histogram
	attempts      metric.Int64Counter
	toolDuration  metric.Float64Histogram
	toolExecution metric.Int64Counter
}

var (
	genAIOnce sync.Once
	genAIInst genAIInstruments
)

func genAI() genAIInstruments {
	genAIOnce.Do(func() {
		meter := otel.Meter(genAIScope)
		genAIInst.tokenUsage, _ = meter.Int64Histogram("gen_ai.client.token.usage",
			metric.WithDescription("Number of input and output tokens used"),
			metric.WithUnit("{token}"),
		)
		genAIInst.opDuration, _ = meter.Float64Histogram("gen_ai.client.operation.duration",
			metric.WithDescription("GenAI operation duration"),
			metric.WithUnit("s"),
		)
		genAIInst.attempts, _ = meter.Int64Counter("botanu.gen_ai.attempts",
			metric.WithDescription("Number of request attempts including retries"),
			metric.WithUnit("{attempt}"),
		)
		genAIInst.toolDuration, _ = meter.Float64Histogram("botanu.tool.duration",
			metric.WithDescription("Tool execution duration"),
			metric.WithUnit("s"),
		)
		genAIInst.toolExecution, _ = meter.Int64Counter("botanu.tool.executions",
			metric.WithDescription("Number of tool executions"),
			metric.WithUnit("{execution}"),
		)
	})
	return genAIInst
}

// LLMCall tracks one model invocation as a client span with GenAI
// semantic convention attributes, plus token and duration metrics on
// End. Not safe for concurrent use; track one call per LLMCall.
type LLMCall struct {
	provider  string
	model     string
	operation string
	span      trace.Span
	start     time.Time

	inputTokens  int64
	outputTokens int64
	errorType    string
	endOnce      sync.Once
}

// LLMOption configures an LLM call before its span starts.
type LLMOption func(*LLMCall)

// WithOperation sets the GenAI operation name (default: chat).
func WithOperation(op string) LLMOption {
	return func(c *LLMCall) { c.operation = op }
}

// StartLLMCall opens a client span for a model invocation. The
// returned context carries the span; pass it to the provider client so
// downstream HTTP spans nest under the call.
//
//	ctx, call := tracking.StartLLMCall(ctx, "anthropic", "claude-sonnet-4-5")
//	resp, err := client.Messages(ctx, req)
//	if err == nil {
//		call.SetTokens(resp.Usage.InputTokens, resp.Usage.OutputTokens)
//		call.SetRequestID(resp.ID)
//	}
//	call.End(err)
func StartLLMCall(ctx context.Context, provider, model string, opts ...LLMOption) (context.Context, *LLMCall) {
	call := &LLMCall{
		provider:  NormalizeProvider(provider),
		model:     model,
		operation: OpChat,
		start:     time.Now(),
	}
	for _, opt := range opts {
		opt(call)
	}

	ctx, span := otel.Tracer(genAIScope).Start(ctx, call.operation+" "+model,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(AttrOperationName, call.operation),
			attribute.String(AttrProviderName, call.provider),
			attribute.String(AttrRequestModel, model),
			attribute.String(AttrVendor, call.provider),
		),
	)
	call.span = span
	return ctx, call
}

// SetTokens records token usage from the model response. Cached token
// counts are optional trailing values: read then write.
func (c *LLMCall) SetTokens(input, output int64, cached ...int64) *LLMCall {
	c.inputTokens = input
	c.outputTokens = output
	c.span.SetAttributes(
		attribute.Int64(AttrUsageInputTokens, input),
		attribute.Int64(AttrUsageOutputTokens, output),
	)
	if len(cached) > 0 && cached[0] > 0 {
		c.span.SetAttributes(
			attribute.Int64(AttrTokensCached, cached[0]),
			attribute.Int64(AttrTokensCacheRead, cached[0]),
		)
	}
	if len(cached) > 1 && cached[1] > 0 {
		c.span.SetAttributes(attribute.Int64(AttrTokensCacheWrite, cached[1]))
	}
	return c
}

// SetRequestID records the provider-assigned request ID for billing
// reconciliation.
func (c *LLMCall) SetRequestID(providerRequestID string) *LLMCall {
	if providerRequestID != "" {
		c.span.SetAttributes(
			attribute.String(AttrResponseID, providerRequestID),
			attribute.String(AttrProviderRequestID, providerRequestID),
		)
	}
	return c
}

// SetClientRequestID records a client-generated idempotency key.
func (c *LLMCall) SetClientRequestID(clientRequestID string) *LLMCall {
	if clientRequestID != "" {
		c.span.SetAttributes(attribute.String(AttrClientRequestID, clientRequestID))
	}
	return c
}

// SetResponseModel records the model the provider actually served,
// which can differ from the requested model on aliased deployments.
func (c *LLMCall) SetResponseModel(model string) *LLMCall {
	c.span.SetAttributes(attribute.String(AttrResponseModel, model))
	return c
}

// SetFinishReason records the stop reason from the response.
func (c *LLMCall) SetFinishReason(reason string) *LLMCall {
	c.span.SetAttributes(attribute.StringSlice(AttrResponseFinishReasons, []string{reason}))
	return c
}

// SetStreaming marks the request as streaming.
func (c *LLMCall) SetStreaming(streaming bool) *LLMCall {
	c.span.SetAttributes(attribute.Bool(AttrStreaming, streaming))
	return c
}

// SetCacheHit marks the response as served from a prompt cache.
func (c *LLMCall) SetCacheHit(hit bool) *LLMCall {
	c.span.SetAttributes(attribute.Bool(AttrCacheHit, hit))
	return c
}

// SetAttempt records the attempt number when the call sits inside a
// retry loop.
func (c *LLMCall) SetAttempt(attempt int) *LLMCall {
	c.span.SetAttributes(attribute.Int(AttrAttemptNumber, attempt))
	return c
}

// RequestParams mirrors the GenAI request parameter attributes. Nil
// fields are not recorded.
type RequestParams struct {
	Temperature      *float64
	TopP             *float64
	MaxTokens        *int
	StopSequences    []string
	FrequencyPenalty *float64
	PresencePenalty  *float64
}

// SetRequestParams records sampling parameters on the call span.
func (c *LLMCall) SetRequestParams(p RequestParams) *LLMCall {
	if p.Temperature != nil {
		c.span.SetAttributes(attribute.Float64(AttrRequestTemperature, *p.Temperature))
	}
	if p.TopP != nil {
		c.span.SetAttributes(attribute.Float64(AttrRequestTopP, *p.TopP))
	}
	if p.MaxTokens != nil {
		c.span.SetAttributes(attribute.Int(AttrRequestMaxTokens, *p.MaxTokens))
	}
	if len(p.StopSequences) > 0 {
		c.span.SetAttributes(attribute.StringSlice(AttrRequestStopSequences, p.StopSequences))
	}
	if p.FrequencyPenalty != nil {
		c.span.SetAttributes(attribute.Float64(AttrRequestFrequencyPenalty, *p.FrequencyPenalty))
	}
	if p.PresencePenalty != nil {
		c.span.SetAttributes(attribute.Float64(AttrRequestPresencePenalty, *p.PresencePenalty))
	}
	return c
}

// AddAttribute records a custom attribute. Keys outside the botanu.
// and gen_ai. namespaces are prefixed with botanu.
func (c *LLMCall) AddAttribute(kv attribute.KeyValue) *LLMCall {
	c.span.SetAttributes(namespaced(kv, "botanu."))
	return c
}

// End closes the call span and records token usage, duration, and
// attempt metrics. A non-nil err marks the span as failed. End is
// idempotent.
func (c *LLMCall) End(err error) {
	c.endOnce.Do(func() {
		if err != nil {
			c.errorType = errors.TypeName(err)
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, err.Error())
			c.span.SetAttributes(attribute.String(AttrErrorType, c.errorType))
		}
		c.recordMetrics()
		c.span.End()
	})
}

func (c *LLMCall) recordMetrics() {
	inst := genAI()
	base := []attribute.KeyValue{
		attribute.String(AttrOperationName, c.operation),
		attribute.String(AttrProviderName, c.provider),
		attribute.String(AttrRequestModel, c.model),
	}
	if c.errorType != "" {
		base = append(base, attribute.String(AttrErrorType, c.errorType))
	}

	ctx := context.Background()
	if c.inputTokens > 0 {
		inst.tokenUsage.Record(ctx, c.inputTokens, metric.WithAttributeSet(
			attribute.NewSet(append([]attribute.KeyValue{attribute.String(AttrTokenType, "input")}, base...)...)))
	}
	if c.outputTokens > 0 {
		inst.tokenUsage.Record(ctx, c.outputTokens, metric.WithAttributeSet(
			attribute.NewSet(append([]attribute.KeyValue{attribute.String(AttrTokenType, "output")}, base...)...)))
	}
	inst.opDuration.Record(ctx, time.Since(c.start).Seconds(),
		metric.WithAttributeSet(attribute.NewSet(base...)))

	status := "success"
	if c.errorType != "" {
		status = "error"
	}
	inst.attempts.Add(ctx, 1, metric.WithAttributeSet(attribute.NewSet(
		attribute.String(AttrProviderName, c.provider),
		attribute.String(AttrRequestModel, c.model),
		attribute.String(AttrOperationName, c.operation),
		attribute.String("status", status),
	)))
}

// ToolCall tracks one tool or function execution as an internal span.
type ToolCall struct {
	toolName  string
	provider  string
	span      trace.Span
	start     time.Time
	errorType string
	endOnce   sync.Once
}

// ToolOption configures a tool call before its span starts.
type ToolOption func(*ToolCall)

// WithToolProvider names the external provider serving the tool.
func WithToolProvider(provider string) ToolOption {
	return func(c *ToolCall) { c.provider = NormalizeProvider(provider) }
}

// StartToolCall opens an internal span for a tool execution.
func StartToolCall(ctx context.Context, toolName string, opts ...ToolOption) (context.Context, *ToolCall) {
	call := &ToolCall{
		toolName: toolName,
		start:    time.Now(),
	}
	for _, opt := range opts {
		opt(call)
	}

	attrs := []attribute.KeyValue{
		attribute.String(AttrOperationName, OpExecuteTool),
		attribute.String(AttrToolName, toolName),
	}
	if call.provider != "" {
		attrs = append(attrs, attribute.String(AttrProviderName, call.provider))
	}

	ctx, span := otel.Tracer(genAIScope).Start(ctx, OpExecuteTool+" "+toolName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	call.span = span
	return ctx, call
}

// SetToolCallID records the call ID assigned by the model response
// that requested this tool.
func (c *ToolCall) SetToolCallID(id string) *ToolCall {
	if id != "" {
		c.span.SetAttributes(attribute.String(AttrToolCallID, id))
	}
	return c
}

// SetResult records what the tool returned.
func (c *ToolCall) SetResult(itemsReturned, bytesProcessed int64) *ToolCall {
	c.span.SetAttributes(attribute.Bool(AttrToolSuccess, true))
	if itemsReturned > 0 {
		c.span.SetAttributes(attribute.Int64(AttrToolItemsReturned, itemsReturned))
	}
	if bytesProcessed > 0 {
		c.span.SetAttributes(attribute.Int64(AttrToolBytes, bytesProcessed))
	}
	return c
}

// AddAttribute records a custom attribute under the botanu.tool
// namespace unless already namespaced.
func (c *ToolCall) AddAttribute(kv attribute.KeyValue) *ToolCall {
	c.span.SetAttributes(namespaced(kv, "botanu.tool."))
	return c
}

// End closes the tool span and records execution metrics. A non-nil
// err marks the execution as failed. End is idempotent.
func (c *ToolCall) End(err error) {
	c.endOnce.Do(func() {
		if err != nil {
			c.errorType = errors.TypeName(err)
			c.span.RecordError(err)
			c.span.SetStatus(codes.Error, err.Error())
			c.span.SetAttributes(
				attribute.String(AttrErrorType, c.errorType),
				attribute.Bool(AttrToolSuccess, false),
			)
		}
		duration := time.Since(c.start)
		c.span.SetAttributes(attribute.Float64(AttrToolDurationMS,
			float64(duration)/float64(time.Millisecond)))

		status := "success"
		if c.errorType != "" {
			status = "error"
		}
		attrs := []attribute.KeyValue{
			attribute.String(AttrToolName, c.toolName),
			attribute.String("status", status),
		}
		if c.provider != "" {
			attrs = append(attrs, attribute.String(AttrProviderName, c.provider))
		}
		set := metric.WithAttributeSet(attribute.NewSet(attrs...))

		inst := genAI()
		ctx := context.Background()
		inst.toolDuration.Record(ctx, duration.Seconds(), set)
		inst.toolExecution.Add(ctx, 1, set)

		c.span.End()
	})
}

// namespaced prefixes an attribute key that is outside the botanu. and
// gen_ai. namespaces.
func namespaced(kv attribute.KeyValue, prefix string) attribute.KeyValue {
	key := string(kv.Key)
	if strings.HasPrefix(key, "botanu.") || strings.HasPrefix(key, "gen_ai.") {
		return kv
	}
	return attribute.KeyValue{Key: attribute.Key(prefix + key), Value: kv.Value}
}
