package council

// Preset is a named, ready-made council template. Preset nodes may predate
// newer NodeData fields; LoadPreset fills the gaps with defaults.
type Preset struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Nodes       []Node `json:"nodes"`
	Edges       []Edge `json:"edges"`
}

// Presets returns the built-in preset catalog.
func Presets() []Preset {
	return presets
}

// PresetByID returns the preset with the given id.
func PresetByID(id string) (Preset, bool) {
	for _, p := range presets {
		if p.ID == id {
			return p, true
		}
	}
	return Preset{}, false
}

var presets = []Preset{
	{
		ID:          "classic-four",
		Name:        "Classic Four",
		Description: "Three frontier responders reviewed by each other, one chairman.",
		Nodes: []Node{
			{ID: "p1", Data: NodeData{Model: "gpt-4o", Role: RoleResponder, SpeakingOrder: 1}, Position: gridPosition(0)},
			{ID: "p2", Data: NodeData{Model: "claude-sonnet-4-5", Role: RoleCritic, SpeakingOrder: 2}, Position: gridPosition(1)},
			{ID: "p3", Data: NodeData{Model: "gemini-2.5-pro", Role: RolePractical, SpeakingOrder: 3}, Position: gridPosition(2)},
			{ID: "p4", Data: NodeData{Model: "gpt-4o", Role: RoleChairman, IsChairman: true, SpeakingOrder: 4}, Position: gridPosition(4)},
		},
		Edges: []Edge{
			{ID: "pe1", Source: "p1", Target: "p2"},
			{ID: "pe2", Source: "p2", Target: "p1"},
			{ID: "pe3", Source: "p1", Target: "p3"},
			{ID: "pe4", Source: "p3", Target: "p1"},
			{ID: "pe5", Source: "p2", Target: "p3"},
			{ID: "pe6", Source: "p3", Target: "p2"},
			{ID: "pe7", Source: "p1", Target: "p4"},
			{ID: "pe8", Source: "p2", Target: "p4"},
			{ID: "pe9", Source: "p3", Target: "p4"},
		},
	},
	{
		ID:          "red-team",
		Name:        "Red Team",
		Description: "A proposer, a critic and a fact checker feeding a synthesizer chairman.",
		Nodes: []Node{
			{ID: "r1", Data: NodeData{Model: "gpt-4o", Role: RoleResponder, SpeakingOrder: 1, Instruction: "Propose the strongest answer you can."}, Position: gridPosition(0)},
			{ID: "r2", Data: NodeData{Model: "claude-sonnet-4-5", Role: RoleCritic, SpeakingOrder: 2, Instruction: "Attack the question's assumptions and the likely easy answer."}, Position: gridPosition(1)},
			{ID: "r3", Data: NodeData{Model: "gpt-4o-mini", Role: RoleFactChecker, SpeakingOrder: 3, Pattern: PatternChainOfThought}, Position: gridPosition(2)},
			{ID: "r4", Data: NodeData{Model: "claude-opus-4-1", Role: RoleSynthesizer, IsChairman: true, SpeakingOrder: 4}, Position: gridPosition(4)},
		},
		Edges: []Edge{
			{ID: "re1", Source: "r1", Target: "r2"},
			{ID: "re2", Source: "r1", Target: "r3"},
			{ID: "re3", Source: "r1", Target: "r4"},
			{ID: "re4", Source: "r2", Target: "r4"},
			{ID: "re5", Source: "r3", Target: "r4"},
		},
	},
	{
		ID:          "solo-review",
		Name:        "Solo With Review",
		Description: "One responder, one reviewer. No chairman, no synthesis stage.",
		Nodes: []Node{
			{ID: "s1", Data: NodeData{Model: "gpt-4o-mini", Role: RoleResponder, SpeakingOrder: 1}, Position: gridPosition(0)},
			{ID: "s2", Data: NodeData{Model: "llama3.3", Role: RoleCritic, SpeakingOrder: 2}, Position: gridPosition(1)},
		},
		Edges: []Edge{
			{ID: "se1", Source: "s1", Target: "s2"},
		},
	},
}
