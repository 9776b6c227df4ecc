// Package ollama implements the council AI client against a local or
// remote Ollama server.
package ollama

import (
	"net/http"
	"net/url"

	"github.com/quorum-ai/quorum/backend/pkg/ai"

	"github.com/ollama/ollama/api"
	"golang.org/x/sync/semaphore"
)

// CouncilOllamaClient implements the ai.CouncilAIClient interface using
// Ollama as the backend. Concurrent requests are bounded by a semaphore
// since local servers usually serve one model at a time.
type CouncilOllamaClient struct {
	defaultModel string

	reqLock *semaphore.Weighted

	ai.MetricsAccumulator

	baseURL    *url.URL
	apiKey     string
	httpClient *http.Client

	Client *api.Client
}

// NewCouncilOllamaClientParams contains configuration options for creating
// a new CouncilOllamaClient.
type NewCouncilOllamaClientParams struct {
	DefaultModel string

	BaseURL string
	ApiKey  string

	MaxConcurrentRequests int64
}

type headerTransport struct {
	headers map[string]string
	rt      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone so original request isn't modified
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		// don't overwrite if already set
		if r.Header.Get(k) == "" {
			r.Header.Set(k, v)
		}
	}
	return t.rt.RoundTrip(r)
}

// NewCouncilOllamaClient creates a new Ollama-based AI client with the
// specified configuration. It connects to the Ollama server at the given
// BaseURL (or the default if empty).
func NewCouncilOllamaClient(
	params NewCouncilOllamaClientParams,
) (*CouncilOllamaClient, error) {
	var (
		u   *url.URL
		err error
	)

	if params.BaseURL != "" {
		u, err = url.Parse(params.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	httpClient := &http.Client{
		Transport: &headerTransport{
			headers: map[string]string{
				"Authorization": "Bearer " + params.ApiKey,
			},
			rt: http.DefaultTransport,
		},
	}

	cli := api.NewClient(u, httpClient)

	maxConcurrent := params.MaxConcurrentRequests
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &CouncilOllamaClient{
		defaultModel: params.DefaultModel,

		reqLock: semaphore.NewWeighted(maxConcurrent),

		baseURL:    u,
		apiKey:     params.ApiKey,
		httpClient: httpClient,

		Client: cli,
	}, nil
}
