package ai

import "testing"

type rankingPayload struct {
	Rankings  []string `json:"rankings"`
	Reasoning string   `json:"reasoning"`
}

func TestUnmarshalFlexibleValidJSON(t *testing.T) {
	data := []byte(`{"rankings":["a","b"],"reasoning":"a was clearer"}`)

	var out rankingPayload
	if err := UnmarshalFlexible(data, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Rankings) != 2 || out.Rankings[0] != "a" {
		t.Fatalf("unexpected rankings: %v", out.Rankings)
	}
}

func TestUnmarshalFlexibleRepairsMalformedJSON(t *testing.T) {
	// trailing comma and unquoted key, typical model output defects
	data := []byte(`{rankings: ["a", "b",], "reasoning": "ok",}`)

	var out rankingPayload
	if err := UnmarshalFlexible(data, &out); err != nil {
		t.Fatalf("expected repair to succeed, got: %v", err)
	}
	if len(out.Rankings) != 2 {
		t.Fatalf("unexpected rankings: %v", out.Rankings)
	}
	if out.Reasoning != "ok" {
		t.Fatalf("unexpected reasoning: %q", out.Reasoning)
	}
}

func TestUnmarshalFlexibleRejectsGarbage(t *testing.T) {
	var out rankingPayload
	if err := UnmarshalFlexible([]byte("not even close }{"), &out); err == nil {
		t.Fatal("expected error for unrepairable input")
	}
}
