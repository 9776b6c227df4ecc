package history

import (
	"testing"
	"time"

	"github.com/quorum-ai/quorum/backend/pkg/council"
	"github.com/quorum-ai/quorum/backend/pkg/execution"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"
)

func TestNewRecordSnapshotsExecution(t *testing.T) {
	ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ex := &execution.Execution{
		ID:    "conv-1",
		Query: "q",
		Responses: map[string]execution.Response{
			"n1": {Content: "a", Tokens: 10, Cost: 0.001},
		},
		Rankings: map[string]execution.Ranking{
			"n1": {Rankings: []string{"n1"}, Reasoning: "only answer"},
		},
		FinalAnswer: &execution.Response{Content: "a", Tokens: 4, Cost: 0.0004},
		TotalTokens: 14,
		TotalCost:   0.0014,
		EndedAt:     ended,
	}
	cfg := council.Config{Name: "test", Nodes: []council.Node{{ID: "n1"}}}

	r := NewRecord(ex, cfg)
	if r.ID != "conv-1" || r.Query != "q" {
		t.Errorf("unexpected identity %q/%q", r.ID, r.Query)
	}
	if r.Tokens != 14 || r.Cost != 0.0014 {
		t.Errorf("unexpected totals %d/%v", r.Tokens, r.Cost)
	}
	if !r.CreatedAt.Equal(ended) {
		t.Errorf("expected created_at from EndedAt, got %v", r.CreatedAt)
	}
	if r.Config.Name != "test" {
		t.Errorf("config not captured: %+v", r.Config)
	}

	// the record holds copies, not aliases
	ex.Responses["n1"] = execution.Response{Content: "mutated"}
	ex.FinalAnswer.Content = "mutated"
	if r.Responses["n1"].Content != "a" || r.FinalAnswer.Content != "a" {
		t.Error("record aliases live execution state")
	}
}

func TestRestoreFullRecord(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := Record{
		ID:    "conv-2",
		Query: "q",
		Responses: map[string]execution.Response{
			"n1": {Content: "a", Tokens: 10},
			"n2": {Content: "b", Tokens: 20},
		},
		Rankings: map[string]execution.Ranking{
			"n1": {Rankings: []string{"n2", "n1"}},
		},
		FinalAnswer: &execution.Response{Content: "b wins", Tokens: 5},
		Tokens:      35,
		Cost:        0.005,
		CreatedAt:   created,
	}

	ex := Restore(r)
	if ex.Stage != protocol.StageSynthesis {
		t.Errorf("expected stage 3, got %d", ex.Stage)
	}
	if ex.Running {
		t.Error("restored execution must not be running")
	}
	if !ex.Terminal() {
		t.Error("restored execution must be terminal")
	}
	for id := range r.Responses {
		if ex.NodeStates[id] != execution.StateComplete {
			t.Errorf("node %s: expected complete, got %q", id, ex.NodeStates[id])
		}
	}
	if ex.TotalTokens != 35 || ex.TotalCost != 0.005 {
		t.Errorf("unexpected totals %d/%v", ex.TotalTokens, ex.TotalCost)
	}
	if ex.FinalAnswer == nil || ex.FinalAnswer.Content != "b wins" {
		t.Errorf("unexpected final answer %+v", ex.FinalAnswer)
	}
	if !ex.StartedAt.Equal(created) || !ex.EndedAt.Equal(created) {
		t.Error("timestamps must fall back to the record's creation time")
	}
}

func TestRestoreMinimalRecord(t *testing.T) {
	ex := Restore(Record{ID: "conv-3"})
	if ex.ID != "conv-3" {
		t.Errorf("unexpected id %q", ex.ID)
	}
	if ex.FinalAnswer != nil {
		t.Error("expected nil final answer")
	}
	if len(ex.Responses) != 0 || len(ex.Rankings) != 0 {
		t.Error("expected empty result maps")
	}
	if ex.NodeStates == nil || ex.NodeErrors == nil {
		t.Error("maps must be initialized even for an empty record")
	}
	if !ex.Terminal() {
		t.Error("an empty record still restores to a terminal execution")
	}
}

func at(day int) time.Time {
	return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
}

func TestMergeRemoteWins(t *testing.T) {
	remote := []Record{{ID: "a", Query: "remote", CreatedAt: at(2)}}
	local := []Record{{ID: "a", Query: "local", CreatedAt: at(2)}, {ID: "b", CreatedAt: at(1)}}

	merged := Merge(remote, local, 10)
	if len(merged) != 2 {
		t.Fatalf("expected 2 records, got %d", len(merged))
	}
	if merged[0].Query != "remote" {
		t.Errorf("remote must win on collision, got %q", merged[0].Query)
	}
	if merged[1].ID != "b" {
		t.Errorf("local-only record lost: %v", merged)
	}
}

func TestMergeSortsMostRecentFirst(t *testing.T) {
	remote := []Record{{ID: "a", CreatedAt: at(1)}, {ID: "c", CreatedAt: at(3)}}
	local := []Record{{ID: "b", CreatedAt: at(2)}}

	merged := Merge(remote, local, 10)
	for i, want := range []string{"c", "b", "a"} {
		if merged[i].ID != want {
			t.Errorf("position %d: expected %q, got %q", i, want, merged[i].ID)
		}
	}
}

func TestMergeTruncates(t *testing.T) {
	var remote []Record
	for i := 1; i <= 6; i++ {
		remote = append(remote, Record{ID: string(rune('a' + i)), CreatedAt: at(i)})
	}
	merged := Merge(remote, nil, 3)
	if len(merged) != 3 {
		t.Fatalf("expected 3 records, got %d", len(merged))
	}
	if merged[0].CreatedAt.Before(merged[2].CreatedAt) {
		t.Error("truncation must keep the most recent records")
	}
}
