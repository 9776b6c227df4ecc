// Package engine runs council executions: fan out the query to all
// responders, have them rank each other's anonymized answers, then let
// the chairman synthesize the final answer. Progress is reported as a
// stream of protocol events.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/quorum-ai/quorum/backend/pkg/ai"
	"github.com/quorum-ai/quorum/backend/pkg/council"
	"github.com/quorum-ai/quorum/backend/pkg/execution"
	"github.com/quorum-ai/quorum/backend/pkg/logger"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"

	"golang.org/x/sync/errgroup"
)

// Sink receives the events of one execution, in order. Implementations
// do not need to be safe for concurrent use; the engine serializes all
// calls.
type Sink func(protocol.Event) error

// Outcome is the result of one finished execution, used for archiving.
type Outcome struct {
	ConversationID string
	Query          string
	Responses      map[string]execution.Response
	Rankings       map[string]execution.Ranking
	FinalAnswer    *execution.Response
	TotalTokens    int
	TotalCost      float64
}

// Engine executes council configurations against an AI client.
type Engine struct {
	client ai.CouncilAIClient
}

// New creates an engine backed by the given AI client.
func New(client ai.CouncilAIClient) *Engine {
	return &Engine{client: client}
}

// rankingPayload is the structured output requested from reviewers.
type rankingPayload struct {
	Rankings  []string `json:"rankings" jsonschema_description:"Answer labels ordered from best to worst"`
	Reasoning string   `json:"reasoning" jsonschema_description:"Short justification for the ordering"`
}

// run-scoped state shared by the phases of one execution.
type run struct {
	engine *Engine
	cfg    council.Config
	query  string

	emitMu sync.Mutex
	sink   Sink
	convID string

	mu       sync.Mutex
	outcome  *Outcome
	labelFor map[string]string // node id -> anonymized label
	nodeFor  map[string]string // anonymized label -> node id
}

// Run executes the configuration and reports progress through sink. A
// sink error aborts the execution; per-member model failures do not.
func (e *Engine) Run(
	ctx context.Context,
	conversationID string,
	query string,
	cfg council.Config,
	sink Sink,
) (*Outcome, error) {
	r := &run{
		engine: e,
		cfg:    cfg,
		query:  query,
		sink:   sink,
		convID: conversationID,
		outcome: &Outcome{
			ConversationID: conversationID,
			Query:          query,
			Responses:      make(map[string]execution.Response),
			Rankings:       make(map[string]execution.Ranking),
		},
		labelFor: make(map[string]string),
		nodeFor:  make(map[string]string),
	}

	responders := cfg.Responders()
	if len(responders) == 0 {
		err := fmt.Errorf("configuration has no responder nodes")
		r.emit(protocol.Event{Type: protocol.EventError, Error: err.Error()})
		return nil, err
	}

	if err := r.respondPhase(ctx, responders); err != nil {
		return nil, err
	}
	if len(r.outcome.Responses) == 0 {
		err := fmt.Errorf("all council members failed")
		r.emit(protocol.Event{Type: protocol.EventError, Error: err.Error()})
		return nil, err
	}

	if err := r.reviewPhase(ctx, responders); err != nil {
		return nil, err
	}

	if chair, ok := cfg.Chairman(); ok {
		if err := r.synthesisPhase(ctx, chair); err != nil {
			return nil, err
		}
	}

	if err := r.emit(protocol.Event{Type: protocol.EventComplete}); err != nil {
		return nil, err
	}
	return r.outcome, nil
}

// emit stamps the conversation id onto the event and forwards it to the
// sink, serialized across goroutines.
func (r *run) emit(ev protocol.Event) error {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	ev.ConversationID = r.convID
	return r.sink(ev)
}

func (r *run) memberOptions(node council.Node) []ai.GenerateOption {
	opts := []ai.GenerateOption{
		ai.WithModel(node.Data.Model),
		ai.WithTemperature(node.Data.Temperature),
		ai.WithPattern(string(node.Data.Pattern)),
	}
	return opts
}

func (r *run) respondPhase(ctx context.Context, responders []council.Node) error {
	if err := r.emit(protocol.Event{Type: protocol.EventStageUpdate, Stage: protocol.StageResponses}); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, node := range responders {
		g.Go(func() error {
			return r.respond(gctx, node)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Anonymize the successful answers in speaking order, so every
	// reviewer and the chairman see the same labels.
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := 1
	for _, node := range responders {
		if _, ok := r.outcome.Responses[node.ID]; !ok {
			continue
		}
		label := fmt.Sprintf("Answer %d", idx)
		r.labelFor[node.ID] = label
		r.nodeFor[label] = node.ID
		idx++
	}
	return nil
}

// respond streams one member's answer. Model failures are reported as
// node-scoped error events and swallowed; only sink failures propagate.
func (r *run) respond(ctx context.Context, node council.Node) error {
	if err := r.emit(protocol.Event{Type: protocol.EventNodeState, NodeID: node.ID, State: string(execution.StateActive)}); err != nil {
		return err
	}

	prompts := []string{responderBasePrompt}
	if node.Data.Instruction != "" {
		prompts = append(prompts, node.Data.Instruction)
	}
	opts := append(r.memberOptions(node), ai.WithSystemPrompts(prompts...))

	stream, err := r.engine.client.GenerateChatStream(ctx, []ai.ChatMessage{
		{Role: "user", Message: r.query},
	}, opts...)
	if err != nil {
		return r.nodeFailed(node.ID, err)
	}

	streaming := false
	var result *ai.ChatResult
	for ev := range stream {
		switch ev.Type {
		case "content":
			if !streaming {
				streaming = true
				if err := r.emit(protocol.Event{Type: protocol.EventNodeState, NodeID: node.ID, State: string(execution.StateStreaming)}); err != nil {
					return err
				}
			}
			if err := r.emit(protocol.Event{Type: protocol.EventStreamChunk, NodeID: node.ID, Chunk: ev.Content}); err != nil {
				return err
			}
		case "done":
			result = ev.Result
		}
	}
	if result == nil || result.Content == "" {
		return r.nodeFailed(node.ID, fmt.Errorf("model %s returned no answer", node.Data.Model))
	}

	resp := execution.Response{
		Content: result.Content,
		Tokens:  result.Metrics.TotalTokens,
		Cost:    result.Metrics.Cost,
	}
	r.mu.Lock()
	r.outcome.Responses[node.ID] = resp
	r.outcome.TotalTokens += resp.Tokens
	r.outcome.TotalCost += resp.Cost
	r.mu.Unlock()

	return r.emit(protocol.Event{
		Type:    protocol.EventResponse,
		NodeID:  node.ID,
		Content: resp.Content,
		Tokens:  resp.Tokens,
		Cost:    resp.Cost,
	})
}

func (r *run) nodeFailed(nodeID string, cause error) error {
	logger.Warn("[Engine] council member failed", "node", nodeID, "err", cause)
	return r.emit(protocol.Event{Type: protocol.EventError, NodeID: nodeID, Error: cause.Error()})
}

// reviewSet returns the node ids whose answers reviewer should rank.
// With edges present the review set follows the graph; without any
// edges every member reviews every other member.
func (r *run) reviewSet(reviewer council.Node) []string {
	var candidates []string
	if len(r.cfg.Edges) > 0 {
		candidates = r.cfg.Inbound(reviewer.ID)
	} else {
		for id := range r.outcome.Responses {
			candidates = append(candidates, id)
		}
	}

	set := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if id == reviewer.ID {
			continue
		}
		if _, ok := r.outcome.Responses[id]; !ok {
			continue
		}
		set = append(set, id)
	}
	sort.Slice(set, func(i, j int) bool {
		return r.labelFor[set[i]] < r.labelFor[set[j]]
	})
	return set
}

func (r *run) reviewPhase(ctx context.Context, responders []council.Node) error {
	if err := r.emit(protocol.Event{Type: protocol.EventStageUpdate, Stage: protocol.StageReview}); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, node := range responders {
		if _, ok := r.outcome.Responses[node.ID]; !ok {
			continue
		}
		peers := r.reviewSet(node)
		if len(peers) == 0 {
			continue
		}
		g.Go(func() error {
			return r.review(gctx, node, peers)
		})
	}
	return g.Wait()
}

func (r *run) review(ctx context.Context, reviewer council.Node, peers []string) error {
	if err := r.emit(protocol.Event{Type: protocol.EventNodeState, NodeID: reviewer.ID, State: string(execution.StateActive)}); err != nil {
		return err
	}

	labels := make([]string, len(peers))
	answers := make(map[string]string, len(peers))
	for i, id := range peers {
		labels[i] = r.labelFor[id]
		answers[labels[i]] = r.outcome.Responses[id].Content
	}

	opts := append(r.memberOptions(reviewer), ai.WithSystemPrompts(reviewerBasePrompt))
	var payload rankingPayload
	metrics, err := r.engine.client.GenerateChatWithFormat(
		ctx,
		"peer_ranking",
		"Ordered ranking of anonymized council answers",
		[]ai.ChatMessage{{Role: "user", Message: reviewPrompt(r.query, labels, answers)}},
		&payload,
		opts...,
	)
	if err != nil {
		return r.nodeFailed(reviewer.ID, err)
	}

	// Translate labels back to node ids, dropping anything the model
	// made up.
	ranked := make([]string, 0, len(payload.Rankings))
	for _, label := range payload.Rankings {
		if id, ok := r.nodeFor[label]; ok {
			ranked = append(ranked, id)
		}
	}

	ranking := execution.Ranking{Rankings: ranked, Reasoning: payload.Reasoning}
	r.mu.Lock()
	r.outcome.Rankings[reviewer.ID] = ranking
	r.outcome.TotalTokens += metrics.TotalTokens
	r.outcome.TotalCost += metrics.Cost
	r.mu.Unlock()

	if err := r.emit(protocol.Event{
		Type:      protocol.EventRanking,
		NodeID:    reviewer.ID,
		Rankings:  ranked,
		Reasoning: payload.Reasoning,
	}); err != nil {
		return err
	}
	return r.emit(protocol.Event{Type: protocol.EventNodeState, NodeID: reviewer.ID, State: string(execution.StateComplete)})
}

func (r *run) synthesisPhase(ctx context.Context, chair council.Node) error {
	if err := r.emit(protocol.Event{Type: protocol.EventStageUpdate, Stage: protocol.StageSynthesis}); err != nil {
		return err
	}
	if err := r.emit(protocol.Event{Type: protocol.EventNodeState, NodeID: chair.ID, State: string(execution.StateActive)}); err != nil {
		return err
	}

	labels := make([]string, 0, len(r.outcome.Responses))
	answers := make(map[string]string, len(r.outcome.Responses))
	for id, resp := range r.outcome.Responses {
		label := r.labelFor[id]
		labels = append(labels, label)
		answers[label] = resp.Content
	}
	sort.Strings(labels)

	var rankingLines []string
	for id, ranking := range r.outcome.Rankings {
		ranked := make([]string, 0, len(ranking.Rankings))
		for _, peer := range ranking.Rankings {
			ranked = append(ranked, r.labelFor[peer])
		}
		rankingLines = append(rankingLines, fmt.Sprintf("Reviewer of %s ranked: %s", r.labelFor[id], joinLabels(ranked)))
	}
	sort.Strings(rankingLines)

	prompts := []string{chairmanBasePrompt}
	if chair.Data.Instruction != "" {
		prompts = append(prompts, chair.Data.Instruction)
	}
	opts := append(r.memberOptions(chair), ai.WithSystemPrompts(prompts...))

	stream, err := r.engine.client.GenerateChatStream(ctx, []ai.ChatMessage{
		{Role: "user", Message: synthesisPrompt(r.query, labels, answers, rankingLines)},
	}, opts...)
	if err != nil {
		return r.nodeFailed(chair.ID, err)
	}

	streaming := false
	var result *ai.ChatResult
	for ev := range stream {
		switch ev.Type {
		case "content":
			if !streaming {
				streaming = true
				if err := r.emit(protocol.Event{Type: protocol.EventNodeState, NodeID: chair.ID, State: string(execution.StateStreaming)}); err != nil {
					return err
				}
			}
			if err := r.emit(protocol.Event{Type: protocol.EventStreamChunk, NodeID: chair.ID, Chunk: ev.Content}); err != nil {
				return err
			}
		case "done":
			result = ev.Result
		}
	}
	if result == nil || result.Content == "" {
		return r.nodeFailed(chair.ID, fmt.Errorf("model %s returned no synthesis", chair.Data.Model))
	}

	r.mu.Lock()
	r.outcome.FinalAnswer = &execution.Response{
		Content: result.Content,
		Tokens:  result.Metrics.TotalTokens,
		Cost:    result.Metrics.Cost,
	}
	r.outcome.TotalTokens += result.Metrics.TotalTokens
	r.outcome.TotalCost += result.Metrics.Cost
	r.mu.Unlock()

	if err := r.emit(protocol.Event{
		Type:    protocol.EventFinalAnswer,
		Content: result.Content,
		Tokens:  result.Metrics.TotalTokens,
		Cost:    result.Metrics.Cost,
	}); err != nil {
		return err
	}
	return r.emit(protocol.Event{Type: protocol.EventNodeState, NodeID: chair.ID, State: string(execution.StateComplete)})
}

func joinLabels(labels []string) string {
	if len(labels) == 0 {
		return "(none)"
	}
	out := labels[0]
	for _, l := range labels[1:] {
		out += " > " + l
	}
	return out
}
