// Package execution holds the client-side state of one council run. The
// state machine consumes the ordered event stream and keeps per-node
// lifecycle, streamed text, results and aggregate metrics consistent.
//
// Event application is deliberately permissive: node lifecycle is a
// set/overwrite, not a transition table, because the producer guarantees
// total order on the stream but no order across nodes. A response for a
// node that was never marked active is stored, not rejected.
package execution

import (
	"strings"
	"time"

	"github.com/quorum-ai/quorum/backend/pkg/protocol"
)

// NodeState is the lifecycle state of one council node during a run.
type NodeState string

const (
	StatePending   NodeState = "pending"
	StateActive    NodeState = "active"
	StateStreaming NodeState = "streaming"
	StateComplete  NodeState = "complete"
	StateError     NodeState = "error"
)

// Response is one node's finished answer.
type Response struct {
	Content string  `json:"content"`
	Tokens  int     `json:"tokens"`
	Cost    float64 `json:"cost"`
}

// Ranking is one node's peer-review result: an ordered preference list of
// peer node ids plus free-text reasoning.
type Ranking struct {
	Rankings  []string `json:"rankings"`
	Reasoning string   `json:"reasoning"`
}

// Execution is the full state of one run of a council against one query.
type Execution struct {
	ID    string
	Query string

	Stage      int
	NodeStates map[string]NodeState
	Responses  map[string]Response
	Rankings   map[string]Ranking

	FinalAnswer *Response

	TotalTokens int
	TotalCost   float64

	Running   bool
	StartedAt time.Time
	EndedAt   time.Time

	// Err holds the last execution-level error (an error event without a
	// node id). Node-level errors live in NodeErrors.
	Err        string
	NodeErrors map[string]string

	buffers map[string]*strings.Builder
}

// StreamedText returns the text streamed so far for a node.
func (e *Execution) StreamedText(nodeID string) string {
	if b, ok := e.buffers[nodeID]; ok {
		return b.String()
	}
	return ""
}

// Terminal reports whether every known node reached complete or error.
func (e *Execution) Terminal() bool {
	for _, s := range e.NodeStates {
		if s != StateComplete && s != StateError {
			return false
		}
	}
	return !e.Running
}

// Machine owns at most one live execution. Starting a new execution fully
// replaces all prior state; nothing leaks between runs.
type Machine struct {
	current *Execution
}

// NewMachine creates an empty state machine.
func NewMachine() *Machine {
	return &Machine{}
}

// Start begins a new execution for query across the given node ids. Every
// node starts pending, the stage marker at 1.
func (m *Machine) Start(query string, nodeIDs []string) *Execution {
	ex := &Execution{
		Query:      query,
		Stage:      protocol.StageResponses,
		NodeStates: make(map[string]NodeState, len(nodeIDs)),
		Responses:  make(map[string]Response),
		Rankings:   make(map[string]Ranking),
		NodeErrors: make(map[string]string),
		buffers:    make(map[string]*strings.Builder),
		Running:    true,
		StartedAt:  time.Now(),
	}
	for _, id := range nodeIDs {
		ex.NodeStates[id] = StatePending
	}
	m.current = ex
	return ex
}

// Current returns the live (or last finished) execution, or nil.
func (m *Machine) Current() *Execution {
	return m.current
}

// Adopt installs an externally built execution, e.g. one reconstructed
// from a history record. The adopted execution replaces any live run.
func (m *Machine) Adopt(ex *Execution) {
	m.current = ex
}

// Apply folds one protocol event into the current execution. Events for an
// absent execution are dropped. Handlers run synchronously and never
// panic on out-of-order or unknown input.
func (m *Machine) Apply(ev protocol.Event) {
	ex := m.current
	if ex == nil {
		return
	}

	if ev.ConversationID != "" {
		ex.ID = ev.ConversationID
	}

	switch ev.Type {
	case protocol.EventStageUpdate:
		// forward only; a stale or duplicated stage frame is ignored
		if ev.Stage > ex.Stage {
			ex.Stage = ev.Stage
		}

	case protocol.EventNodeState:
		ex.NodeStates[ev.NodeID] = NodeState(ev.State)

	case protocol.EventStreamChunk:
		b, ok := ex.buffers[ev.NodeID]
		if !ok {
			b = &strings.Builder{}
			ex.buffers[ev.NodeID] = b
		}
		b.WriteString(ev.Chunk)

	case protocol.EventResponse:
		ex.Responses[ev.NodeID] = Response{
			Content: ev.Content,
			Tokens:  ev.Tokens,
			Cost:    ev.Cost,
		}
		ex.NodeStates[ev.NodeID] = StateComplete
		ex.TotalTokens += ev.Tokens
		ex.TotalCost += ev.Cost

	case protocol.EventRanking:
		ex.Rankings[ev.NodeID] = Ranking{
			Rankings:  append([]string(nil), ev.Rankings...),
			Reasoning: ev.Reasoning,
		}

	case protocol.EventFinalAnswer:
		// last write wins, at any stage
		ex.FinalAnswer = &Response{
			Content: ev.Content,
			Tokens:  ev.Tokens,
			Cost:    ev.Cost,
		}
		ex.TotalTokens += ev.Tokens
		ex.TotalCost += ev.Cost

	case protocol.EventComplete:
		ex.Running = false
		ex.EndedAt = time.Now()

	case protocol.EventError:
		if ev.NodeID == "" {
			// An execution-level error ends the run; there is no node left
			// to attribute it to.
			ex.Err = ev.Error
			ex.Running = false
			ex.EndedAt = time.Now()
			return
		}
		ex.NodeStates[ev.NodeID] = StateError
		ex.NodeErrors[ev.NodeID] = ev.Error
	}
}
