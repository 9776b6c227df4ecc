package protocol

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/quorum-ai/quorum/backend/pkg/council"
)

func TestDecodeRejectsMalformedFrames(t *testing.T) {
	cases := []struct {
		name  string
		frame string
	}{
		{"not json", "{nope"},
		{"wrong shape", `[1, 2, 3]`},
		{"no type", `{"stage": 2}`},
		{"empty type", `{"type": ""}`},
	}
	for _, tc := range cases {
		if _, err := Decode([]byte(tc.frame)); err == nil {
			t.Errorf("%s: expected decode error", tc.name)
		}
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	ev, err := Decode([]byte(`{"type": "response", "nodeId": "n1", "tokens": 5, "futureField": true}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if ev.Type != EventResponse || ev.NodeID != "n1" || ev.Tokens != 5 {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	events := []Event{
		{Type: EventStageUpdate, Stage: 2, ConversationID: "conv-1"},
		{Type: EventNodeState, NodeID: "n1", State: "streaming"},
		{Type: EventStreamChunk, NodeID: "n1", Chunk: "partial "},
		{Type: EventResponse, NodeID: "n1", Content: "done", Tokens: 12, Cost: 0.0012},
		{Type: EventRanking, NodeID: "n2", Rankings: []string{"n1", "n2"}, Reasoning: "clarity"},
		{Type: EventFinalAnswer, Content: "synthesis", Tokens: 30, Cost: 0.003},
		{Type: EventComplete, ConversationID: "conv-1"},
		{Type: EventError, NodeID: "n3", Error: "model timeout"},
	}
	for _, want := range events {
		frame, err := want.Encode()
		if err != nil {
			t.Fatalf("%s: Encode failed: %v", want.Type, err)
		}
		got, err := Decode(frame)
		if err != nil {
			t.Fatalf("%s: Decode failed: %v", want.Type, err)
		}
		wantJSON, _ := json.Marshal(want)
		gotJSON, _ := json.Marshal(got)
		if string(wantJSON) != string(gotJSON) {
			t.Errorf("%s: round trip changed the event: %s != %s", want.Type, gotJSON, wantJSON)
		}
	}
}

func TestEventWireNames(t *testing.T) {
	frame, err := Event{
		Type:           EventResponse,
		NodeID:         "n1",
		ConversationID: "conv-1",
	}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	for _, key := range []string{`"nodeId"`, `"conversationId"`} {
		if !strings.Contains(string(frame), key) {
			t.Errorf("frame missing %s: %s", key, frame)
		}
	}
}

func TestOmitEmptyKeepsFramesSparse(t *testing.T) {
	frame, err := Event{Type: EventComplete}.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if string(frame) != `{"type":"complete"}` {
		t.Errorf("unexpected frame %s", frame)
	}
}

func TestNewExecuteCommand(t *testing.T) {
	cfg := council.Config{Name: "test", Nodes: []council.Node{{ID: "n1"}}}
	cmd := NewExecuteCommand("why?", cfg)
	if cmd.Type != "execute" {
		t.Errorf("unexpected type %q", cmd.Type)
	}
	if cmd.Query != "why?" || cmd.Config.Name != "test" {
		t.Errorf("unexpected command %+v", cmd)
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var back ExecuteCommand
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(back.Config.Nodes) != 1 || back.Config.Nodes[0].ID != "n1" {
		t.Errorf("config lost in transit: %+v", back.Config)
	}
}
