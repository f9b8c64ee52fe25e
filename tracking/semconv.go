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

import "strings"

// GenAI span attribute names per the OpenTelemetry GenAI semantic
// conventions (https://opentelemetry.io/docs/specs/semconv/gen-ai/).
const (
	AttrOperationName           = "gen_ai.operation.name"
	AttrProviderName            = "gen_ai.provider.name"
	AttrRequestModel            = "gen_ai.request.model"
	AttrResponseModel           = "gen_ai.response.model"
	AttrUsageInputTokens        = "gen_ai.usage.input_tokens"
	AttrUsageOutputTokens       = "gen_ai.usage.output_tokens"
	AttrRequestTemperature      = "gen_ai.request.temperature"
	AttrRequestTopP             = "gen_ai.request.top_p"
	AttrRequestMaxTokens        = "gen_ai.request.max_tokens"
	AttrRequestStopSequences    = "gen_ai.request.stop_sequences"
	AttrRequestFrequencyPenalty = "gen_ai.request.frequency_penalty"
	AttrRequestPresencePenalty  = "gen_ai.request.presence_penalty"
	AttrResponseID              = "gen_ai.response.id"
	AttrResponseFinishReasons   = "gen_ai.response.finish_reasons"
	AttrToolName                = "gen_ai.tool.name"
	AttrToolCallID              = "gen_ai.tool.call.id"
	AttrErrorType               = "error.type"
	AttrTokenType               = "gen_ai.token.type"
)

// Botanu extension attributes for cost attribution beyond what the
// GenAI conventions cover.
const (
	AttrProviderRequestID = "botanu.provider.request_id"
	AttrClientRequestID   = "botanu.provider.client_request_id"
	AttrTokensCached      = "botanu.usage.cached_tokens"
	AttrTokensCacheRead   = "botanu.usage.cache_read_tokens"
	AttrTokensCacheWrite  = "botanu.usage.cache_write_tokens"
	AttrStreaming         = "botanu.request.streaming"
	AttrCacheHit          = "botanu.request.cache_hit"
	AttrAttemptNumber     = "botanu.request.attempt"
	AttrToolSuccess       = "botanu.tool.success"
	AttrToolItemsReturned = "botanu.tool.items_returned"
	AttrToolBytes         = "botanu.tool.bytes_processed"
	AttrToolDurationMS    = "botanu.tool.duration_ms"
	AttrVendor            = "botanu.vendor"
)

// GenAI operation names per semconv. Used as the first token of LLM
// span names ("chat gpt-4").
const (
	OpChat            = "chat"
	OpTextCompletion  = "text_completion"
	OpEmbeddings      = "embeddings"
	OpGenerateContent = "generate_content"
	OpExecuteTool     = "execute_tool"
	OpInvokeAgent     = "invoke_agent"
	OpRerank          = "rerank"
	OpImageGeneration = "image_generation"
	OpSpeechToText    = "speech_to_text"
	OpTextToSpeech    = "text_to_speech"
	OpModeration      = "moderation"
)

// llmProviders maps common provider spellings to their canonical
// semconv name. Unknown providers pass through lowercased.
var llmProviders = map[string]string{
	"openai":         "openai",
	"azure_openai":   "azure.openai",
	"azure-openai":   "azure.openai",
	"azureopenai":    "azure.openai",
	"anthropic":      "anthropic",
	"claude":         "anthropic",
	"bedrock":        "aws.bedrock",
	"aws_bedrock":    "aws.bedrock",
	"amazon_bedrock": "aws.bedrock",
	"vertex":         "gcp.vertex_ai",
	"vertexai":       "gcp.vertex_ai",
	"vertex_ai":      "gcp.vertex_ai",
	"gcp_vertex":     "gcp.vertex_ai",
	"gemini":         "gcp.vertex_ai",
	"google":         "gcp.vertex_ai",
	"cohere":         "cohere",
	"mistral":        "mistral",
	"mistralai":      "mistral",
	"together":       "together",
	"togetherai":     "together",
	"groq":           "groq",
	"replicate":      "replicate",
	"ollama":         "ollama",
	"huggingface":    "huggingface",
	"hf":             "huggingface",
	"fireworks":      "fireworks",
	"perplexity":     "perplexity",
}

// NormalizeProvider returns the canonical provider name for metric and
// span attribution.
func NormalizeProvider(provider string) string {
	lower := strings.ToLower(provider)
	if canonical, ok := llmProviders[lower]; ok {
		return canonical
	}
	return lower
}
