// Package history keeps durable records of finished executions, mirrored
// between a fast local cache and a remote store-of-record, and rebuilds
// execution state from a record for replay without a live connection.
package history

import (
	"sort"
	"time"

	"github.com/quorum-ai/quorum/backend/pkg/council"
	"github.com/quorum-ai/quorum/backend/pkg/execution"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"
)

// Record is an immutable-once-written snapshot of a finished execution
// plus the query and the exported council configuration that produced it.
// A record may be amended later, e.g. to attach an archived transcript
// key, but is never partially invalidated.
type Record struct {
	ID          string                        `json:"id"`
	Query       string                        `json:"query,omitempty"`
	Config      council.Config                `json:"config,omitempty"`
	Responses   map[string]execution.Response `json:"responses"`
	Rankings    map[string]execution.Ranking  `json:"rankings,omitempty"`
	FinalAnswer *execution.Response           `json:"final_answer,omitempty"`
	Tokens      int                           `json:"tokens,omitempty"`
	Cost        float64                       `json:"cost,omitempty"`
	LogKey      string                        `json:"log_key,omitempty"`
	CreatedAt   time.Time                     `json:"created_at,omitempty"`
}

// NewRecord snapshots a finished execution into a record.
func NewRecord(ex *execution.Execution, cfg council.Config) Record {
	responses := make(map[string]execution.Response, len(ex.Responses))
	for id, r := range ex.Responses {
		responses[id] = r
	}
	rankings := make(map[string]execution.Ranking, len(ex.Rankings))
	for id, r := range ex.Rankings {
		rankings[id] = r
	}
	var final *execution.Response
	if ex.FinalAnswer != nil {
		f := *ex.FinalAnswer
		final = &f
	}
	return Record{
		ID:          ex.ID,
		Query:       ex.Query,
		Config:      cfg,
		Responses:   responses,
		Rankings:    rankings,
		FinalAnswer: final,
		Tokens:      ex.TotalTokens,
		Cost:        ex.TotalCost,
		CreatedAt:   ex.EndedAt,
	}
}

// Restore derives a complete, terminal execution from a record. It is pure
// and total over any record shape: missing optional fields fall back to
// zero values, every responding node is complete, the stage marker is
// forced to the final stage and nothing is running.
func Restore(r Record) *execution.Execution {
	states := make(map[string]execution.NodeState, len(r.Responses))
	responses := make(map[string]execution.Response, len(r.Responses))
	for id, resp := range r.Responses {
		states[id] = execution.StateComplete
		responses[id] = resp
	}

	rankings := make(map[string]execution.Ranking, len(r.Rankings))
	for id, rk := range r.Rankings {
		rankings[id] = rk
	}

	var final *execution.Response
	if r.FinalAnswer != nil {
		f := *r.FinalAnswer
		final = &f
	}

	return &execution.Execution{
		ID:          r.ID,
		Query:       r.Query,
		Stage:       protocol.StageSynthesis,
		NodeStates:  states,
		Responses:   responses,
		Rankings:    rankings,
		FinalAnswer: final,
		TotalTokens: r.Tokens,
		TotalCost:   r.Cost,
		Running:     false,
		StartedAt:   r.CreatedAt,
		EndedAt:     r.CreatedAt,
		NodeErrors:  make(map[string]string),
	}
}

// Merge combines the remote record set with local records. Remote data
// wins on id collision; local records the remote has not seen yet are
// kept. The result is sorted most-recent-first and truncated to limit.
// Merge is pure so the sync policy is testable without any transport.
func Merge(remote, local []Record, limit int) []Record {
	seen := make(map[string]bool, len(remote))
	merged := make([]Record, 0, len(remote)+len(local))
	for _, r := range remote {
		merged = append(merged, r)
		seen[r.ID] = true
	}
	for _, r := range local {
		if !seen[r.ID] {
			merged = append(merged, r)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
