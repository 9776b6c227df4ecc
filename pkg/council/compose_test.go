package council

import "testing"

func TestComposeBuildsFullMesh(t *testing.T) {
	cfg, err := Compose(3, ComposeBalanced)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if len(cfg.Nodes) != 4 {
		t.Fatalf("expected 3 agents + chairman, got %d nodes", len(cfg.Nodes))
	}
	chair, ok := cfg.Chairman()
	if !ok {
		t.Fatal("composed council must have a chairman")
	}
	if chair.Data.Role != RoleChairman {
		t.Errorf("expected chairman role, got %q", chair.Data.Role)
	}

	// 3 agents: 6 peer edges plus 3 fan-in edges to the chairman
	if len(cfg.Edges) != 9 {
		t.Fatalf("expected 9 edges, got %d", len(cfg.Edges))
	}
	inbound := cfg.Inbound(chair.ID)
	if len(inbound) != 3 {
		t.Errorf("expected every agent wired to the chairman, got %d", len(inbound))
	}
	for _, n := range cfg.Responders() {
		if peers := cfg.Inbound(n.ID); len(peers) != 2 {
			t.Errorf("agent %s: expected 2 inbound peers, got %d", n.ID, len(peers))
		}
	}
}

func TestComposeModes(t *testing.T) {
	for _, mode := range []ComposeMode{ComposeBalanced, ComposeSpecialized, ComposeDiverse} {
		cfg, err := Compose(5, mode)
		if err != nil {
			t.Fatalf("Compose(%s) failed: %v", mode, err)
		}
		if len(cfg.Nodes) != 6 {
			t.Errorf("Compose(%s): expected 6 nodes, got %d", mode, len(cfg.Nodes))
		}
	}

	if _, err := Compose(0, ComposeBalanced); err == nil {
		t.Error("expected error for zero agents")
	}
	if _, err := Compose(3, ComposeMode("bogus")); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestAddAgentWiresMesh(t *testing.T) {
	cfg, err := Compose(2, ComposeBalanced)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	cfg, id := AddAgent(cfg, RoleCreative, "llama3.3")
	if len(cfg.Nodes) != 4 {
		t.Fatalf("expected 4 nodes, got %d", len(cfg.Nodes))
	}
	added, ok := cfg.Node(id)
	if !ok {
		t.Fatal("added agent missing from config")
	}
	if added.Data.Model != "llama3.3" || added.Data.Role != RoleCreative {
		t.Errorf("unexpected agent data %+v", added.Data)
	}

	chair, _ := cfg.Chairman()
	found := false
	for _, src := range cfg.Inbound(chair.ID) {
		if src == id {
			found = true
		}
	}
	if !found {
		t.Error("added agent must feed the chairman")
	}
	if peers := cfg.Inbound(id); len(peers) != 2 {
		t.Errorf("expected 2 inbound peers for the new agent, got %d", len(peers))
	}
}

func TestRemoveAgent(t *testing.T) {
	cfg, err := Compose(3, ComposeDiverse)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	victim := cfg.Responders()[0].ID

	cfg = RemoveAgent(cfg, victim)
	if len(cfg.Nodes) != 3 {
		t.Fatalf("expected 3 remaining nodes, got %d", len(cfg.Nodes))
	}
	for _, e := range cfg.Edges {
		if e.Source == victim || e.Target == victim {
			t.Fatalf("edge %+v still references removed agent", e)
		}
	}
}
