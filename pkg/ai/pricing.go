package ai

import (
	"sort"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// ModelPricing holds per-million-token prices in USD.
type ModelPricing struct {
	InputPerMillion  float64 `json:"input_per_million"`
	OutputPerMillion float64 `json:"output_per_million"`
}

// ModelInfo describes one model the service knows how to invoke.
type ModelInfo struct {
	ID       string       `json:"id"`
	Provider string       `json:"provider"`
	Pricing  ModelPricing `json:"pricing"`
}

// pricingTable maps model identifiers to their prices. Unknown models
// (local Ollama models included) cost nothing.
var pricingTable = map[string]ModelPricing{
	"gpt-4o":       {InputPerMillion: 2.50, OutputPerMillion: 10.00},
	"gpt-4o-mini":  {InputPerMillion: 0.15, OutputPerMillion: 0.60},
	"gpt-4.1":      {InputPerMillion: 2.00, OutputPerMillion: 8.00},
	"gpt-4.1-mini": {InputPerMillion: 0.40, OutputPerMillion: 1.60},
	"gpt-4.1-nano": {InputPerMillion: 0.10, OutputPerMillion: 0.40},
	"o4-mini":      {InputPerMillion: 1.10, OutputPerMillion: 4.40},
	"gpt-5":        {InputPerMillion: 1.25, OutputPerMillion: 10.00},
	"gpt-5-mini":   {InputPerMillion: 0.25, OutputPerMillion: 2.00},
	"gpt-5-nano":   {InputPerMillion: 0.05, OutputPerMillion: 0.40},
}

// Cost computes the USD cost of one call against the pricing table.
// Models without a pricing entry are treated as free.
func Cost(model string, inputTokens, outputTokens int) float64 {
	p, ok := pricingTable[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1_000_000*p.InputPerMillion +
		float64(outputTokens)/1_000_000*p.OutputPerMillion
}

// Catalog returns the known models sorted by identifier, for listing
// endpoints.
func Catalog() []ModelInfo {
	infos := make([]ModelInfo, 0, len(pricingTable))
	for id, p := range pricingTable {
		infos = append(infos, ModelInfo{ID: id, Provider: "openai", Pricing: p})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// CountTokens estimates the token count of text for the given model.
// Falls back to a rough characters/4 heuristic when no encoding is
// available, which happens for models tiktoken does not know.
func CountTokens(model, text string) int {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
	}
	if err != nil || enc == nil {
		n := len(strings.TrimSpace(text)) / 4
		if n < 1 && text != "" {
			n = 1
		}
		return n
	}
	return len(enc.Encode(text, nil, nil))
}
