// Package ai defines the provider-agnostic client used to invoke language
// models for council members. Implementations exist for OpenAI-compatible
// endpoints and Ollama.
package ai

import (
	"context"
	"math"
	"sync"
)

// ChatMessage represents a single message in a chat conversation.
//
// Role must be one of:
//   - "user"      → a user-provided message
//   - "assistant" → a message from the AI assistant
type ChatMessage struct {
	Message string `json:"message"`
	Role    string `json:"role"`
}

// GenerateOptions holds configuration for one generation request.
type GenerateOptions struct {
	Model         string   // model identifier to invoke
	SystemPrompts []string // system prompts prepended to the request
	Temperature   float64  // sampling temperature
	Pattern       string   // reasoning pattern, "" or "standard" or "chain_of_thought"
}

// GenerateOption is a functional option for configuring a generation request.
type GenerateOption func(*GenerateOptions)

// WithModel sets the model to invoke.
func WithModel(model string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Model = model
	}
}

// WithSystemPrompts sets the system prompts prepended to the request.
func WithSystemPrompts(prompts ...string) GenerateOption {
	return func(o *GenerateOptions) {
		o.SystemPrompts = prompts
	}
}

// WithTemperature sets the sampling temperature. Higher values produce
// more varied output.
func WithTemperature(temp float64) GenerateOption {
	return func(o *GenerateOptions) {
		o.Temperature = temp
	}
}

// WithPattern sets the reasoning pattern used to prompt the model.
func WithPattern(pattern string) GenerateOption {
	return func(o *GenerateOptions) {
		o.Pattern = pattern
	}
}

// chainOfThoughtPrompt is prepended as a system prompt when the
// chain_of_thought pattern is selected.
const chainOfThoughtPrompt = "Reason through the problem step by step before giving your final answer. Keep the reasoning concise."

// EffectiveSystemPrompts resolves the system prompts for a request,
// folding the reasoning pattern in.
func (o GenerateOptions) EffectiveSystemPrompts() []string {
	prompts := append([]string(nil), o.SystemPrompts...)
	if o.Pattern == "chain_of_thought" {
		prompts = append(prompts, chainOfThoughtPrompt)
	}
	return prompts
}

// ModelMetrics contains token, cost and timing figures for model calls.
type ModelMetrics struct {
	InputTokens    int     `json:"input_tokens"`
	OutputTokens   int     `json:"output_tokens"`
	TotalTokens    int     `json:"total_tokens"`
	Cost           float64 `json:"cost"`
	DurationMs     int64   `json:"duration_ms"`
	TokenPerSecond float32 `json:"tokens_per_second"`
}

// ChatResult is one finished model reply with its usage figures.
type ChatResult struct {
	Content string
	Metrics ModelMetrics
}

// StreamEvent is one event on a streaming reply: content fragments while
// the model generates, then exactly one done event carrying the final
// result.
type StreamEvent struct {
	Type    string // "content" | "done"
	Content string // fragment text (Type="content")
	Result  *ChatResult
}

// CouncilAIClient invokes language models on behalf of council members.
type CouncilAIClient interface {
	// GenerateChat sends a multi-turn conversation and returns the reply.
	GenerateChat(ctx context.Context, messages []ChatMessage, opts ...GenerateOption) (ChatResult, error)

	// GenerateChatStream streams the reply incrementally. The channel is
	// closed after the done event.
	GenerateChatStream(ctx context.Context, messages []ChatMessage, opts ...GenerateOption) (<-chan StreamEvent, error)

	// GenerateChatWithFormat asks for a reply conforming to the JSON
	// schema of out and unmarshals into it, repairing malformed JSON
	// where possible.
	GenerateChatWithFormat(ctx context.Context, name, description string, messages []ChatMessage, out any, opts ...GenerateOption) (ModelMetrics, error)

	// GetMetrics returns the accumulated usage since the last reset.
	GetMetrics() ModelMetrics
	// ResetMetrics clears the accumulated usage.
	ResetMetrics()
}

// MetricsAccumulator aggregates per-call metrics into client totals. Safe
// for concurrent use; both providers embed it.
type MetricsAccumulator struct {
	mu      sync.Mutex
	metrics ModelMetrics
}

// GetMetrics returns the accumulated usage since the last reset.
func (a *MetricsAccumulator) GetMetrics() ModelMetrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metrics
}

// ResetMetrics clears all accumulated figures.
func (a *MetricsAccumulator) ResetMetrics() {
	a.mu.Lock()
	a.metrics = ModelMetrics{}
	a.mu.Unlock()
}

// Accumulate folds one call's metrics into the totals.
func (a *MetricsAccumulator) Accumulate(m ModelMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.metrics.InputTokens += m.InputTokens
	a.metrics.OutputTokens += m.OutputTokens
	a.metrics.TotalTokens += m.TotalTokens
	a.metrics.Cost += m.Cost
	a.metrics.DurationMs += m.DurationMs

	if a.metrics.DurationMs > 0 {
		tps := (float64(a.metrics.TotalTokens) * 1000.0) / float64(a.metrics.DurationMs)
		a.metrics.TokenPerSecond = float32(math.Round(tps*100) / 100)
	}
}
