package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/quorum-ai/quorum/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
)

func (c *CouncilOpenAIClient) resolveOptions(opts []ai.GenerateOption) ai.GenerateOptions {
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

func buildMessages(options ai.GenerateOptions, messages []ai.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0)
	for _, message := range options.EffectiveSystemPrompts() {
		msgs = append(msgs, openai.SystemMessage(message))
	}
	for _, message := range messages {
		switch message.Role {
		case "user":
			msgs = append(msgs, openai.UserMessage(message.Message))
		case "assistant":
			msgs = append(msgs, openai.AssistantMessage(message.Message))
		}
	}
	return msgs
}

func callMetrics(model string, usage openai.CompletionUsage, durationMs int64) ai.ModelMetrics {
	return ai.ModelMetrics{
		InputTokens:  int(usage.PromptTokens),
		OutputTokens: int(usage.CompletionTokens),
		TotalTokens:  int(usage.TotalTokens),
		Cost:         ai.Cost(model, int(usage.PromptTokens), int(usage.CompletionTokens)),
		DurationMs:   durationMs,
	}
}

// GenerateChat sends a multi-turn chat conversation to the model and
// returns the assistant's reply together with its usage figures.
//
// Example:
//
//	msgs := []ai.ChatMessage{
//		{Role: "user", Message: "Hello, who are you?"},
//	}
//	res, err := client.GenerateChat(ctx, msgs, ai.WithModel("gpt-4o-mini"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(res.Content)
func (c *CouncilOpenAIClient) GenerateChat(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (ai.ChatResult, error) {
	options := c.resolveOptions(opts)

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    buildMessages(options, messages),
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return ai.ChatResult{}, err
	}
	duration := time.Since(start).Milliseconds()

	if len(response.Choices) == 0 {
		return ai.ChatResult{}, fmt.Errorf("no choices in response from model")
	}

	metrics := callMetrics(options.Model, response.Usage, duration)
	c.Accumulate(metrics)

	return ai.ChatResult{
		Content: response.Choices[0].Message.Content,
		Metrics: metrics,
	}, nil
}

// GenerateChatStream sends a multi-turn chat conversation to the model
// and returns a channel that streams the assistant's reply incrementally.
// After the last content fragment a single done event carries the full
// reply and its usage figures, then the channel is closed.
//
// Example:
//
//	stream, err := client.GenerateChatStream(ctx, msgs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for ev := range stream {
//		if ev.Type == "content" {
//			fmt.Print(ev.Content)
//		}
//	}
func (c *CouncilOpenAIClient) GenerateChatStream(
	ctx context.Context,
	messages []ai.ChatMessage,
	opts ...ai.GenerateOption,
) (<-chan ai.StreamEvent, error) {
	options := c.resolveOptions(opts)

	body := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(options.Model),
		Messages:    buildMessages(options, messages),
		Temperature: openai.Float(options.Temperature),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}

	start := time.Now()
	stream := c.ChatClient.Chat.Completions.NewStreaming(ctx, body)
	contentChan := make(chan ai.StreamEvent, 10)

	go func() {
		defer close(contentChan)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}

		for stream.Next() {
			chunk := stream.Current()
			acc.AddChunk(chunk)

			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				select {
				case contentChan <- ai.StreamEvent{Type: "content", Content: chunk.Choices[0].Delta.Content}:
				case <-ctx.Done():
					return
				}
			}
		}

		duration := time.Since(start).Milliseconds()
		metrics := callMetrics(options.Model, acc.Usage, duration)
		c.Accumulate(metrics)

		result := ai.ChatResult{Metrics: metrics}
		if len(acc.Choices) > 0 {
			result.Content = acc.Choices[0].Message.Content
		}

		select {
		case contentChan <- ai.StreamEvent{Type: "done", Result: &result}:
		case <-ctx.Done():
		}
	}()

	return contentChan, nil
}

// GenerateChatWithFormat sends a multi-turn conversation to the model
// and attempts to unmarshal the response into the provided output
// struct, using a JSON schema to enforce structure.
//
// Example:
//
//	var out MyStruct
//	_, err := client.GenerateChatWithFormat(ctx, "ranking", "Peer ranking", msgs, &out)
//	if err != nil {
//		log.Fatal(err)
//	}
func (c *CouncilOpenAIClient) GenerateChatWithFormat(
	ctx context.Context,
	name string,
	description string,
	messages []ai.ChatMessage,
	out any,
	opts ...ai.GenerateOption,
) (ai.ModelMetrics, error) {
	options := c.resolveOptions(opts)

	schema := ai.GenerateSchemaFor(out)
	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        name,
		Description: openai.String(description),
		Schema:      schema,
		Strict:      openai.Bool(true),
	}

	body := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(options.Model),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Messages:    buildMessages(options, messages),
		Temperature: openai.Float(options.Temperature),
	}

	start := time.Now()
	response, err := c.ChatClient.Chat.Completions.New(ctx, body)
	if err != nil {
		return ai.ModelMetrics{}, err
	}
	duration := time.Since(start).Milliseconds()

	metrics := callMetrics(options.Model, response.Usage, duration)
	c.Accumulate(metrics)

	if len(response.Choices) == 0 {
		return metrics, fmt.Errorf("no choices in response from model")
	}
	message := response.Choices[0].Message.Content
	if message == "" {
		return metrics, fmt.Errorf("empty response from model (finish_reason: %s)", response.Choices[0].FinishReason)
	}
	return metrics, ai.UnmarshalFlexible([]byte(message), out)
}
