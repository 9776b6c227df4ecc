package main

import (
	"fmt"
	"io"

	"github.com/quorum-ai/quorum/backend/pkg/council"
	"github.com/quorum-ai/quorum/backend/pkg/execution"
	"github.com/quorum-ai/quorum/backend/pkg/protocol"

	"github.com/charmbracelet/lipgloss"
)

var (
	stageStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	memberStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

var stageNames = map[int]string{
	protocol.StageResponses: "Responses",
	protocol.StageReview:    "Peer review",
	protocol.StageSynthesis: "Synthesis",
}

// printer renders the event stream for a terminal. Member answers are
// printed whole when they arrive; only the chairman's synthesis is
// streamed live.
type printer struct {
	out       io.Writer
	labels    map[string]string
	stage     int
	streaming bool
}

func newPrinter(out io.Writer, cfg council.Config) *printer {
	labels := make(map[string]string, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		label := n.Data.Model
		if n.Data.Role != "" {
			label = fmt.Sprintf("%s (%s)", n.Data.Model, n.Data.Role)
		}
		labels[n.ID] = label
	}
	return &printer{out: out, labels: labels}
}

func (p *printer) label(nodeID string) string {
	if l, ok := p.labels[nodeID]; ok {
		return l
	}
	return nodeID
}

func (p *printer) print(ev protocol.Event) {
	switch ev.Type {
	case protocol.EventStageUpdate:
		p.stage = ev.Stage
		name := stageNames[ev.Stage]
		if name == "" {
			name = fmt.Sprintf("Stage %d", ev.Stage)
		}
		fmt.Fprintf(p.out, "\n%s\n", stageStyle.Render(fmt.Sprintf("── %s ──", name)))
	case protocol.EventStreamChunk:
		if p.stage != protocol.StageSynthesis {
			return
		}
		if !p.streaming {
			p.streaming = true
			fmt.Fprintf(p.out, "%s\n", memberStyle.Render(p.label(ev.NodeID)))
		}
		fmt.Fprint(p.out, ev.Chunk)
	case protocol.EventResponse:
		fmt.Fprintf(p.out, "%s\n%s\n\n", memberStyle.Render(p.label(ev.NodeID)), ev.Content)
	case protocol.EventRanking:
		ranked := make([]string, len(ev.Rankings))
		for i, id := range ev.Rankings {
			ranked[i] = p.label(id)
		}
		fmt.Fprintf(p.out, "%s ranked: %v\n", memberStyle.Render(p.label(ev.NodeID)), ranked)
		if ev.Reasoning != "" {
			fmt.Fprintf(p.out, "%s\n", dimStyle.Render(ev.Reasoning))
		}
	case protocol.EventFinalAnswer:
		if !p.streaming {
			fmt.Fprintf(p.out, "%s\n", ev.Content)
		}
		fmt.Fprintln(p.out)
	case protocol.EventError:
		if ev.NodeID != "" {
			fmt.Fprintf(p.out, "%s\n", errStyle.Render(fmt.Sprintf("%s failed: %s", p.label(ev.NodeID), ev.Error)))
		} else {
			fmt.Fprintf(p.out, "%s\n", errStyle.Render("execution failed: "+ev.Error))
		}
	}
}

func (p *printer) summary(ex *execution.Execution) {
	if ex == nil {
		return
	}
	fmt.Fprintf(p.out, "\n%s\n", dimStyle.Render(fmt.Sprintf(
		"conversation %s · %d tokens · $%.4f",
		ex.ID, ex.TotalTokens, ex.TotalCost,
	)))
}
