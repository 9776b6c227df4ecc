package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/quorum-ai/quorum/backend/pkg/ai"

	"github.com/ollama/ollama/api"
)

func (c *CouncilOllamaClient) resolveOptions(opts []ai.GenerateOption) ai.GenerateOptions {
	options := ai.GenerateOptions{
		Model:         c.defaultModel,
		SystemPrompts: []string{},
		Temperature:   0.7,
	}
	for _, o := range opts {
		o(&options)
	}
	return options
}

func buildMessages(options ai.GenerateOptions, messages []ai.ChatMessage) []api.Message {
	msgs := make([]api.Message, 0, len(messages)+1)
	for _, sys := range options.EffectiveSystemPrompts() {
		msgs = append(msgs, api.Message{Role: "system", Content: sys})
	}
	for _, m := range messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, api.Message{Role: role, Content: m.Message})
	}
	return msgs
}

// growContext raises num_ctx when the prompt would not fit the default
// context window.
func growContext(req *api.ChatRequest, model string, options ai.GenerateOptions, messages []ai.ChatMessage) {
	tokens := 200
	for _, sys := range options.EffectiveSystemPrompts() {
		tokens += ai.CountTokens(model, sys)
	}
	for _, m := range messages {
		tokens += ai.CountTokens(model, m.Message)
	}
	if tokens > 4096 {
		req.Options["num_ctx"] = tokens
	}
}

func chatMetrics(m api.Metrics) ai.ModelMetrics {
	return ai.ModelMetrics{
		InputTokens:  m.PromptEvalCount,
		OutputTokens: m.EvalCount,
		TotalTokens:  m.PromptEvalCount + m.EvalCount,
		DurationMs:   m.TotalDuration.Milliseconds(),
	}
}

// GenerateChat sends a multi-turn conversation and returns the
// assistant's reply together with its usage figures.
func (c *CouncilOllamaClient) GenerateChat(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (ai.ChatResult, error) {
	options := c.resolveOptions(opts)

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return ai.ChatResult{}, err
	}
	defer c.reqLock.Release(1)

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: buildMessages(options, messages),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	growContext(req, options.Model, options, messages)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return ai.ChatResult{}, err
	}

	metrics := chatMetrics(final.Metrics)
	c.Accumulate(metrics)

	return ai.ChatResult{
		Content: final.Message.Content,
		Metrics: metrics,
	}, nil
}

// GenerateChatStream sends a multi-turn conversation and streams the
// assistant's reply through the returned channel. The final done event
// carries the full reply and its usage figures.
func (c *CouncilOllamaClient) GenerateChatStream(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	options := c.resolveOptions(opts)

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	stream := true
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: buildMessages(options, messages),
		Stream:   &stream,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	growContext(req, options.Model, options, messages)

	contentChan := make(chan ai.StreamEvent, 10)

	go func() {
		defer close(contentChan)
		defer c.reqLock.Release(1)

		var final api.ChatResponse
		err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
			final.Message.Content += cr.Message.Content
			if cr.Done {
				final.Done = true
				final.Metrics = cr.Metrics
			}
			if cr.Message.Content != "" {
				select {
				case contentChan <- ai.StreamEvent{Type: "content", Content: cr.Message.Content}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
		if err != nil {
			return
		}

		metrics := chatMetrics(final.Metrics)
		c.Accumulate(metrics)

		result := ai.ChatResult{
			Content: final.Message.Content,
			Metrics: metrics,
		}
		select {
		case contentChan <- ai.StreamEvent{Type: "done", Result: &result}:
		case <-ctx.Done():
		}
	}()

	return contentChan, nil
}

// GenerateChatWithFormat enforces a JSON schema and unmarshals the reply
// into out.
func (c *CouncilOllamaClient) GenerateChatWithFormat(
	ctx context.Context,
	name string,
	description string,
	messages []ai.ChatMessage,
	out any,
	opts ...ai.GenerateOption,
) (ai.ModelMetrics, error) {
	if out == nil {
		return ai.ModelMetrics{}, errors.New("out must be a non-nil pointer")
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ai.ModelMetrics{}, errors.New("out must be a non-nil pointer")
	}

	schemaObj := ai.GenerateSchemaFor(out)
	formatBytes, err := json.Marshal(schemaObj)
	if err != nil {
		return ai.ModelMetrics{}, err
	}
	var format json.RawMessage = formatBytes

	options := c.resolveOptions(opts)

	if err := c.reqLock.Acquire(ctx, 1); err != nil {
		return ai.ModelMetrics{}, err
	}
	defer c.reqLock.Release(1)

	stream := false
	req := &api.ChatRequest{
		Model:    options.Model,
		Messages: buildMessages(options, messages),
		Stream:   &stream,
		Format:   format,
		Options:  map[string]any{"temperature": options.Temperature},
	}
	growContext(req, options.Model, options, messages)

	var final api.ChatResponse
	if err := c.Client.Chat(ctx, req, func(cr api.ChatResponse) error {
		final.Message.Content += cr.Message.Content
		if cr.Done {
			final.Done = true
			final.Metrics = cr.Metrics
		}
		return nil
	}); err != nil {
		return ai.ModelMetrics{}, err
	}

	metrics := chatMetrics(final.Metrics)
	c.Accumulate(metrics)

	return metrics, ai.UnmarshalFlexible([]byte(final.Message.Content), out)
}
