package council

import "fmt"

// ComposeMode selects the role mix used when composing a council of N
// agents automatically.
type ComposeMode string

const (
	ComposeBalanced    ComposeMode = "balanced"
	ComposeSpecialized ComposeMode = "specialized"
	ComposeDiverse     ComposeMode = "diverse"
)

var composeRoles = map[ComposeMode][]Role{
	ComposeBalanced:    {RoleResponder, RoleCritic, RolePractical, RoleFactChecker},
	ComposeSpecialized: {RoleDomainExpert, RoleDomainExpert, RoleFactChecker, RoleCritic},
	ComposeDiverse:     {RoleResponder, RoleCreative, RoleCritic, RolePractical, RoleDomainExpert},
}

var composeModels = []string{
	"gpt-4o",
	"claude-sonnet-4-5",
	"gemini-2.5-pro",
	"gpt-4o-mini",
	"llama3.3",
}

// Compose builds a council of n agents under the given mode, plus one
// chairman wired to receive every agent's output. Each agent reviews every
// other agent. n must be at least 1.
func Compose(n int, mode ComposeMode) (Config, error) {
	if n < 1 {
		return Config{}, fmt.Errorf("council needs at least one agent, got %d", n)
	}
	roles, ok := composeRoles[mode]
	if !ok {
		return Config{}, fmt.Errorf("unknown compose mode %q", mode)
	}

	c := New(fmt.Sprintf("%s council", mode), nil)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := c.AddNode(NodeData{
			Model:         composeModels[i%len(composeModels)],
			Role:          roles[i%len(roles)],
			SpeakingOrder: i + 1,
		})
		ids = append(ids, id)
	}
	chair := c.AddNode(NodeData{
		Model:         composeModels[0],
		Role:          RoleChairman,
		IsChairman:    true,
		SpeakingOrder: n + 1,
	})

	for _, a := range ids {
		for _, b := range ids {
			if a != b {
				c.AddEdge(a, b)
			}
		}
		c.AddEdge(a, chair)
	}

	return c.Export(), nil
}

// AddAgent appends one agent with the given role to a composed council,
// wiring it into the existing peer-review mesh and the chairman fan-in.
// Returns the updated config and the new node's id.
func AddAgent(cfg Config, role Role, model string) (Config, string) {
	c := fromConfig(cfg)
	if model == "" {
		model = composeModels[len(cfg.Nodes)%len(composeModels)]
	}
	id := c.AddNode(NodeData{
		Model:         model,
		Role:          role,
		SpeakingOrder: len(cfg.Nodes) + 1,
	})
	chair, hasChair := cfg.Chairman()
	for _, n := range cfg.Nodes {
		if hasChair && n.ID == chair.ID {
			continue
		}
		c.AddEdge(id, n.ID)
		c.AddEdge(n.ID, id)
	}
	if hasChair {
		c.AddEdge(id, chair.ID)
	}
	return c.Export(), id
}

// RemoveAgent removes one agent and its incident edges from a composed
// council.
func RemoveAgent(cfg Config, nodeID string) Config {
	c := fromConfig(cfg)
	c.RemoveNode(nodeID)
	return c.Export()
}

func fromConfig(cfg Config) *Council {
	c := New(cfg.Name, nil)
	c.nodes = append([]Node(nil), cfg.Nodes...)
	c.edges = cloneEdges(cfg.Edges)
	return c
}
