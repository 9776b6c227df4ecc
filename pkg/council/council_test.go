package council

import (
	"errors"
	"testing"
)

func TestAddNodeDefaults(t *testing.T) {
	c := New("test", nil)
	id := c.AddNode(NodeData{})

	nodes := c.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.ID != id {
		t.Errorf("expected id %q, got %q", id, n.ID)
	}
	if n.Data.Model != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, n.Data.Model)
	}
	if n.Data.Role != RoleResponder {
		t.Errorf("expected default role %q, got %q", RoleResponder, n.Data.Role)
	}
	if n.Data.Temperature != DefaultTemperature {
		t.Errorf("expected default temperature %v, got %v", DefaultTemperature, n.Data.Temperature)
	}
	if n.Data.Pattern != PatternStandard {
		t.Errorf("expected default pattern %q, got %q", PatternStandard, n.Data.Pattern)
	}
	if n.Data.SpeakingOrder != 1 {
		t.Errorf("expected speaking order 1, got %d", n.Data.SpeakingOrder)
	}
}

func TestAddNodeUniqueIDs(t *testing.T) {
	c := New("test", nil)
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		id := c.AddNode(NodeData{})
		if seen[id] {
			t.Fatalf("duplicate node id %q", id)
		}
		seen[id] = true
	}
}

func TestGridPositions(t *testing.T) {
	c := New("test", nil)
	for i := 0; i < 9; i++ {
		c.AddNode(NodeData{})
	}
	nodes := c.Nodes()

	seen := make(map[Position]bool)
	for _, n := range nodes {
		if seen[n.Position] {
			t.Fatalf("overlapping position %+v", n.Position)
		}
		seen[n.Position] = true
	}
	if nodes[0].Position != (Position{X: 120, Y: 100}) {
		t.Errorf("unexpected first position %+v", nodes[0].Position)
	}
	if nodes[4].Position != (Position{X: 120 + 260, Y: 100 + 200}) {
		t.Errorf("unexpected fifth position %+v", nodes[4].Position)
	}
}

func TestUpdateNode(t *testing.T) {
	c := New("test", nil)
	id := c.AddNode(NodeData{Model: "gpt-4o"})

	model := "gpt-4o-mini"
	chair := true
	pos := Position{X: 1, Y: 2}
	c.UpdateNode(id, NodePatch{Model: &model, IsChairman: &chair, Position: &pos})

	n := c.Nodes()[0]
	if n.Data.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", n.Data.Model)
	}
	if !n.Data.IsChairman {
		t.Error("expected chairman flag set")
	}
	if n.Position != pos {
		t.Errorf("expected position %+v, got %+v", pos, n.Position)
	}
	if n.Data.Role != RoleResponder {
		t.Errorf("untouched field changed: role %q", n.Data.Role)
	}

	// unknown id is a no-op
	c.UpdateNode("missing", NodePatch{Model: &model})
	if len(c.Nodes()) != 1 {
		t.Fatalf("unexpected node count %d", len(c.Nodes()))
	}
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	c := New("test", nil)
	a := c.AddNode(NodeData{})
	b := c.AddNode(NodeData{})
	d := c.AddNode(NodeData{})
	c.AddEdge(a, b)
	c.AddEdge(b, a)
	c.AddEdge(b, d)
	c.Select(a)

	c.RemoveNode(a)

	if len(c.Nodes()) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(c.Nodes()))
	}
	edges := c.Edges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 surviving edge, got %d", len(edges))
	}
	if edges[0].Source != b || edges[0].Target != d {
		t.Errorf("wrong surviving edge %+v", edges[0])
	}
	if c.Selected() != "" {
		t.Errorf("expected selection cleared, got %q", c.Selected())
	}
}

func TestRemoveEdge(t *testing.T) {
	c := New("test", nil)
	a := c.AddNode(NodeData{})
	b := c.AddNode(NodeData{})
	e := c.AddEdge(a, b)

	c.RemoveEdge(e)
	if len(c.Edges()) != 0 {
		t.Fatalf("expected no edges, got %d", len(c.Edges()))
	}
	c.RemoveEdge(e) // already gone, must not panic
}

func TestExportIsIndependent(t *testing.T) {
	c := New("test", nil)
	a := c.AddNode(NodeData{Model: "gpt-4o"})
	b := c.AddNode(NodeData{})
	c.AddEdge(a, b)

	cfg := c.Export()
	c.RemoveNode(a)
	model := "changed"
	c.UpdateNode(b, NodePatch{Model: &model})

	if len(cfg.Nodes) != 2 {
		t.Fatalf("exported config mutated: %d nodes", len(cfg.Nodes))
	}
	if len(cfg.Edges) != 1 {
		t.Fatalf("exported config mutated: %d edges", len(cfg.Edges))
	}
	if cfg.Nodes[0].Data.Model != "gpt-4o" {
		t.Errorf("exported node mutated: %q", cfg.Nodes[0].Data.Model)
	}
}

func TestLoadPresetAppliesDefaults(t *testing.T) {
	c := New("old", nil)
	c.AddNode(NodeData{})
	c.Select(c.Nodes()[0].ID)

	c.LoadPreset(Preset{
		Name: "fresh",
		Nodes: []Node{
			{ID: "x1", Data: NodeData{Model: "gpt-4o", SpeakingOrder: 1}},
			{ID: "x2", Data: NodeData{SpeakingOrder: 2}},
		},
		Edges: []Edge{{ID: "e1", Source: "x1", Target: "x2"}},
	})

	if c.Name() != "fresh" {
		t.Errorf("expected name fresh, got %q", c.Name())
	}
	if c.Selected() != "" {
		t.Errorf("expected selection cleared, got %q", c.Selected())
	}
	nodes := c.Nodes()
	if len(nodes) != 2 || len(c.Edges()) != 1 {
		t.Fatalf("unexpected shape: %d nodes, %d edges", len(nodes), len(c.Edges()))
	}
	if nodes[1].Data.Model != DefaultModel {
		t.Errorf("expected defaulted model, got %q", nodes[1].Data.Model)
	}
	if nodes[1].Data.Temperature != DefaultTemperature {
		t.Errorf("expected defaulted temperature, got %v", nodes[1].Data.Temperature)
	}
}

func TestFavourites(t *testing.T) {
	c := New("test", nil)
	c.Favourite("a")
	c.Favourite("b")
	c.Favourite("a") // idempotent
	if got := c.Favourites(); len(got) != 2 {
		t.Fatalf("expected 2 favourites, got %v", got)
	}
	c.Unfavourite("a")
	if got := c.Favourites(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("unexpected favourites %v", got)
	}
}

type failStore struct{}

func (failStore) Save(Snapshot) error     { return errors.New("disk full") }
func (failStore) Load() (Snapshot, error) { return Snapshot{}, errors.New("no snapshot") }

func TestPersistenceFailureIsSwallowed(t *testing.T) {
	c := Open("test", failStore{})
	id := c.AddNode(NodeData{})
	if len(c.Nodes()) != 1 || c.Nodes()[0].ID != id {
		t.Fatal("in-memory council must stay authoritative when the store fails")
	}
}

func TestChairmanSelection(t *testing.T) {
	cfg := Config{Nodes: []Node{
		{ID: "b", Data: NodeData{IsChairman: true, SpeakingOrder: 2}},
		{ID: "c", Data: NodeData{IsChairman: true, SpeakingOrder: 1}},
		{ID: "a", Data: NodeData{IsChairman: true, SpeakingOrder: 1}},
		{ID: "d", Data: NodeData{SpeakingOrder: 0}},
	}}
	chair, ok := cfg.Chairman()
	if !ok {
		t.Fatal("expected a chairman")
	}
	if chair.ID != "a" {
		t.Errorf("expected lowest order with id tiebreak to pick a, got %q", chair.ID)
	}

	if _, ok := (Config{}).Chairman(); ok {
		t.Error("empty config must have no chairman")
	}
}

func TestResponders(t *testing.T) {
	cfg := Config{Nodes: []Node{
		{ID: "n3", Data: NodeData{SpeakingOrder: 3}},
		{ID: "chair", Data: NodeData{IsChairman: true, SpeakingOrder: 4}},
		{ID: "n1", Data: NodeData{SpeakingOrder: 1}},
		{ID: "n2", Data: NodeData{SpeakingOrder: 2}},
	}}
	got := cfg.Responders()
	if len(got) != 3 {
		t.Fatalf("expected 3 responders, got %d", len(got))
	}
	for i, want := range []string{"n1", "n2", "n3"} {
		if got[i].ID != want {
			t.Errorf("responder %d: expected %q, got %q", i, want, got[i].ID)
		}
	}
}

func TestInbound(t *testing.T) {
	cfg := Config{Edges: []Edge{
		{ID: "e1", Source: "a", Target: "x"},
		{ID: "e2", Source: "b", Target: "x"},
		{ID: "e3", Source: "a", Target: "x"}, // duplicate
		{ID: "e4", Source: "a", Target: "y"},
	}}
	got := cfg.Inbound("x")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected inbound set %v", got)
	}
	if cfg.Inbound("z") != nil {
		t.Error("expected no inbound sources for z")
	}
}

func TestPresetCatalog(t *testing.T) {
	if len(Presets()) == 0 {
		t.Fatal("expected built-in presets")
	}
	for _, p := range Presets() {
		if p.ID == "" || p.Name == "" || len(p.Nodes) == 0 {
			t.Errorf("incomplete preset %+v", p.ID)
		}
		ids := make(map[string]bool)
		for _, n := range p.Nodes {
			if ids[n.ID] {
				t.Errorf("preset %s has duplicate node id %q", p.ID, n.ID)
			}
			ids[n.ID] = true
		}
		for _, e := range p.Edges {
			if !ids[e.Source] || !ids[e.Target] {
				t.Errorf("preset %s edge %s references unknown node", p.ID, e.ID)
			}
		}
	}

	p, ok := PresetByID("classic-four")
	if !ok {
		t.Fatal("expected classic-four preset")
	}
	cfg := Config{Name: p.Name, Nodes: p.Nodes, Edges: p.Edges}
	if _, ok := cfg.Chairman(); !ok {
		t.Error("classic-four must have a chairman")
	}

	solo, ok := PresetByID("solo-review")
	if !ok {
		t.Fatal("expected solo-review preset")
	}
	soloCfg := Config{Nodes: solo.Nodes, Edges: solo.Edges}
	if _, ok := soloCfg.Chairman(); ok {
		t.Error("solo-review must not have a chairman")
	}

	if _, ok := PresetByID("nope"); ok {
		t.Error("unknown preset id must not resolve")
	}
}
