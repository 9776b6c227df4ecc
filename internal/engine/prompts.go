package engine

import (
	"fmt"
	"strings"
)

const responderBasePrompt = "You are one member of a council of AI models answering the same question independently. Give your best complete answer. Do not mention the council or the other members."

const reviewerBasePrompt = "You are reviewing anonymized answers that other council members gave to the same question. Rank them from best to worst by correctness, completeness and clarity. Refer to answers only by their labels."

const chairmanBasePrompt = "You are the chairman of a council of AI models. You receive the members' answers and their peer rankings. Synthesize one final answer that takes the best of each response. Do not mention the council, the members or the rankings."

func reviewPrompt(query string, labels []string, answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", query)
	b.WriteString("Answers to rank:\n\n")
	for _, label := range labels {
		fmt.Fprintf(&b, "%s:\n%s\n\n", label, answers[label])
	}
	fmt.Fprintf(&b, "Rank all %d answers from best to worst.", len(labels))
	return b.String()
}

func synthesisPrompt(query string, labels []string, answers map[string]string, rankingLines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\n", query)
	b.WriteString("Council answers:\n\n")
	for _, label := range labels {
		fmt.Fprintf(&b, "%s:\n%s\n\n", label, answers[label])
	}
	if len(rankingLines) > 0 {
		b.WriteString("Peer rankings (best to worst):\n")
		for _, line := range rankingLines {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Write the final answer.")
	return b.String()
}
