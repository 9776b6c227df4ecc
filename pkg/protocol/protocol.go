// Package protocol defines the wire format spoken between the council
// execution endpoint and its clients. Every frame on the stream is exactly
// one JSON-encoded Event; the client sends exactly one ExecuteCommand when
// the connection opens.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/quorum-ai/quorum/backend/pkg/council"
)

// EventType identifies the kind of a streamed event.
type EventType string

const (
	EventStageUpdate EventType = "stage_update"
	EventNodeState   EventType = "node_state"
	EventStreamChunk EventType = "stream_chunk"
	EventResponse    EventType = "response"
	EventRanking     EventType = "ranking"
	EventFinalAnswer EventType = "final_answer"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// Stages of a council execution. The stage marker only ever moves forward.
const (
	StageResponses = 1
	StageReview    = 2
	StageSynthesis = 3
)

// Event is one frame of the execution stream. Which fields are populated
// depends on Type; unknown fields are ignored by both sides so the protocol
// can grow without breaking older clients.
//
// ConversationID may ride along on any event. Clients capture it
// opportunistically and use it as the history record id.
type Event struct {
	Type EventType `json:"type"`

	// stage_update
	Stage int `json:"stage,omitempty"`

	// node_state, stream_chunk, response, ranking, error
	NodeID string `json:"nodeId,omitempty"`

	// node_state
	State string `json:"state,omitempty"`

	// stream_chunk
	Chunk string `json:"chunk,omitempty"`

	// response, final_answer
	Content string  `json:"content,omitempty"`
	Tokens  int     `json:"tokens,omitempty"`
	Cost    float64 `json:"cost,omitempty"`

	// ranking
	Rankings  []string `json:"rankings,omitempty"`
	Reasoning string   `json:"reasoning,omitempty"`

	// error
	Error string `json:"error,omitempty"`

	ConversationID string `json:"conversationId,omitempty"`
}

// ExecuteCommand is the single outbound message a client sends after
// opening the stream.
type ExecuteCommand struct {
	Type   string         `json:"type"`
	Query  string         `json:"query"`
	Config council.Config `json:"config"`
}

// NewExecuteCommand builds the outbound command for one execution.
func NewExecuteCommand(query string, cfg council.Config) ExecuteCommand {
	return ExecuteCommand{
		Type:   "execute",
		Query:  query,
		Config: cfg,
	}
}

// Decode parses one frame into an Event. A frame that is not a JSON object
// or carries no type is rejected; callers drop such frames with a
// diagnostic instead of tearing down the stream.
func Decode(frame []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		return Event{}, fmt.Errorf("malformed frame: %w", err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("frame has no event type")
	}
	return ev, nil
}

// Encode serializes an event to one frame.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}
