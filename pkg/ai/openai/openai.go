package openai

import (
	"github.com/quorum-ai/quorum/backend/pkg/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// CouncilOpenAIClient invokes OpenAI-compatible chat models for council
// members. One client serves all members; the model per request comes
// from the member configuration via ai.WithModel.
//
// A CouncilOpenAIClient should be created using NewCouncilOpenAIClient.
type CouncilOpenAIClient struct {
	defaultModel string

	chatURL string
	chatKey string

	ai.MetricsAccumulator

	ChatClient *openai.Client
}

// NewCouncilOpenAIClientParams defines the configuration parameters for
// creating a new CouncilOpenAIClient.
//
// DefaultModel is used when a request names no model.
// ChatURL and ChatKey configure the chat/completion API endpoint; an
// empty ChatURL targets the official OpenAI API.
type NewCouncilOpenAIClientParams struct {
	DefaultModel string

	ChatURL string
	ChatKey string
}

// NewCouncilOpenAIClient creates and returns a new CouncilOpenAIClient
// configured with the provided parameters.
//
// Example:
//
//	params := openai.NewCouncilOpenAIClientParams{
//		DefaultModel: "gpt-4o-mini",
//		ChatKey:      os.Getenv("OPENAI_API_KEY"),
//	}
//	client := openai.NewCouncilOpenAIClient(params)
func NewCouncilOpenAIClient(
	params NewCouncilOpenAIClientParams,
) *CouncilOpenAIClient {
	return &CouncilOpenAIClient{
		defaultModel: params.DefaultModel,

		chatURL: params.ChatURL,
		chatKey: params.ChatKey,

		ChatClient: newOpenaiClient(params.ChatURL, params.ChatKey),
	}
}

func newOpenaiClient(
	baseURL string,
	apiKey string,
) *openai.Client {
	if apiKey == "" {
		return nil
	}
	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}

	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	client := openai.NewClient(options...)

	return &client
}
