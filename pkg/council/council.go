// Package council owns the node/edge collection describing a council's
// composition and turns it into an execution-ready configuration.
//
// The collection is deliberately permissive: duplicate or cyclic edges and
// multiple chairman flags are accepted here and resolved by the executing
// side. The only hard invariants are unique node ids and that no edge
// survives the removal of one of its endpoints.
package council

import (
	"sort"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/quorum-ai/quorum/backend/pkg/logger"
)

// Role tags what a node contributes to the council.
type Role string

const (
	RoleResponder    Role = "responder"
	RoleCritic       Role = "critic"
	RoleFactChecker  Role = "fact_checker"
	RoleCreative     Role = "creative"
	RolePractical    Role = "practical"
	RoleDomainExpert Role = "domain_expert"
	RoleSynthesizer  Role = "synthesizer"
	RoleChairman     Role = "chairman"
)

// Roles lists every valid role tag in display order.
func Roles() []Role {
	return []Role{
		RoleResponder,
		RoleCritic,
		RoleFactChecker,
		RoleCreative,
		RolePractical,
		RoleDomainExpert,
		RoleSynthesizer,
		RoleChairman,
	}
}

// ReasoningPattern selects the prompting style applied to a node.
type ReasoningPattern string

const (
	PatternStandard       ReasoningPattern = "standard"
	PatternChainOfThought ReasoningPattern = "chain_of_thought"
)

// Defaults applied by AddNode and LoadPreset for omitted fields.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
)

// Position is a 2D canvas coordinate. Presentation only.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds the configurable attributes of a council participant.
type NodeData struct {
	Model         string           `json:"model"`
	Role          Role             `json:"role"`
	Instruction   string           `json:"instruction"`
	SpeakingOrder int              `json:"speaking_order"`
	IsChairman    bool             `json:"is_chairman"`
	Temperature   float64          `json:"temperature"`
	Pattern       ReasoningPattern `json:"pattern"`
}

// Node is one participant in the council.
type Node struct {
	ID       string   `json:"id"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// Edge is a directed relation: the source node's output is an input to the
// target node.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Style  string `json:"style,omitempty"`
}

// Config is an immutable snapshot of a council, suitable for transmission.
type Config struct {
	Name  string `json:"name"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodePatch carries partial updates for UpdateNode. Nil fields are left
// untouched.
type NodePatch struct {
	Model         *string           `json:"model,omitempty"`
	Role          *Role             `json:"role,omitempty"`
	Instruction   *string           `json:"instruction,omitempty"`
	SpeakingOrder *int              `json:"speaking_order,omitempty"`
	IsChairman    *bool             `json:"is_chairman,omitempty"`
	Temperature   *float64          `json:"temperature,omitempty"`
	Pattern       *ReasoningPattern `json:"pattern,omitempty"`
	Position      *Position         `json:"position,omitempty"`
}

// EdgePatch carries partial updates for UpdateEdge.
type EdgePatch struct {
	Source *string `json:"source,omitempty"`
	Target *string `json:"target,omitempty"`
	Style  *string `json:"style,omitempty"`
}

// Store persists council snapshots. Persistence failures are logged and
// swallowed; the in-memory council stays authoritative for the session.
type Store interface {
	Save(snap Snapshot) error
	Load() (Snapshot, error)
}

// Snapshot is the durable local state of the graph model: the council
// itself plus the user's favourites list, persisted under one key.
type Snapshot struct {
	Name       string   `json:"name"`
	Nodes      []Node   `json:"nodes"`
	Edges      []Edge   `json:"edges"`
	Favourites []string `json:"favourites,omitempty"`
}

// Council is a mutable, validated node/edge collection. It is owned by a
// single goroutine; the execution path only ever reads exported copies.
type Council struct {
	name       string
	nodes      []Node
	edges      []Edge
	favourites []string
	selected   string
	store      Store
}

// New creates an empty council. The store may be nil for an in-memory-only
// council (tests, one-shot exports).
func New(name string, store Store) *Council {
	return &Council{name: name, store: store}
}

// Open creates a council from the store's last persisted snapshot. A
// missing or unreadable snapshot yields an empty council.
func Open(name string, store Store) *Council {
	c := New(name, store)
	if store == nil {
		return c
	}
	snap, err := store.Load()
	if err != nil {
		logger.Debug("No usable council snapshot, starting empty", "err", err)
		return c
	}
	if snap.Name != "" {
		c.name = snap.Name
	}
	c.nodes = applyNodeDefaults(snap.Nodes)
	c.edges = cloneEdges(snap.Edges)
	c.favourites = append([]string(nil), snap.Favourites...)
	return c
}

func newNodeID() string {
	id, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 10)
	if err != nil {
		panic(err)
	}
	return id
}

// gridPosition places the n-th node on a 3x3 grid so that at least the
// first nine nodes never overlap.
func gridPosition(n int) Position {
	col := n % 3
	row := (n / 3) % 3
	return Position{
		X: 120 + float64(col)*260,
		Y: 100 + float64(row)*200,
	}
}

func withDefaults(data NodeData) NodeData {
	if data.Model == "" {
		data.Model = DefaultModel
	}
	if data.Role == "" {
		data.Role = RoleResponder
	}
	if data.Temperature == 0 {
		data.Temperature = DefaultTemperature
	}
	if data.Pattern == "" {
		data.Pattern = PatternStandard
	}
	return data
}

func applyNodeDefaults(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.Data = withDefaults(n.Data)
		out[i] = n
	}
	return out
}

// AddNode appends a node built from data, filling defaults for omitted
// fields and auto-assigning a grid position. Returns the new node's id.
func (c *Council) AddNode(data NodeData) string {
	node := Node{
		ID:       newNodeID(),
		Data:     withDefaults(data),
		Position: gridPosition(len(c.nodes)),
	}
	if node.Data.SpeakingOrder == 0 {
		node.Data.SpeakingOrder = len(c.nodes) + 1
	}
	c.nodes = append(c.nodes, node)
	c.persist()
	return node.ID
}

// UpdateNode merges patch into the node's data. No-op if id is absent.
func (c *Council) UpdateNode(id string, patch NodePatch) {
	for i := range c.nodes {
		if c.nodes[i].ID != id {
			continue
		}
		n := &c.nodes[i]
		if patch.Model != nil {
			n.Data.Model = *patch.Model
		}
		if patch.Role != nil {
			n.Data.Role = *patch.Role
		}
		if patch.Instruction != nil {
			n.Data.Instruction = *patch.Instruction
		}
		if patch.SpeakingOrder != nil {
			n.Data.SpeakingOrder = *patch.SpeakingOrder
		}
		if patch.IsChairman != nil {
			n.Data.IsChairman = *patch.IsChairman
		}
		if patch.Temperature != nil {
			n.Data.Temperature = *patch.Temperature
		}
		if patch.Pattern != nil {
			n.Data.Pattern = *patch.Pattern
		}
		if patch.Position != nil {
			n.Position = *patch.Position
		}
		c.persist()
		return
	}
}

// RemoveNode removes the node and, atomically, every edge whose source or
// target equals id. Clears the selection if the removed node was selected.
func (c *Council) RemoveNode(id string) {
	idx := -1
	for i := range c.nodes {
		if c.nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	c.nodes = append(c.nodes[:idx], c.nodes[idx+1:]...)

	kept := c.edges[:0]
	for _, e := range c.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	c.edges = kept

	if c.selected == id {
		c.selected = ""
	}
	c.persist()
}

// AddEdge appends a directed edge with a freshly generated id. Duplicate
// and cyclic edges are not rejected here.
func (c *Council) AddEdge(sourceID, targetID string) string {
	edge := Edge{
		ID:     newNodeID(),
		Source: sourceID,
		Target: targetID,
	}
	c.edges = append(c.edges, edge)
	c.persist()
	return edge.ID
}

// UpdateEdge merges patch into the edge. No-op if id is absent.
func (c *Council) UpdateEdge(id string, patch EdgePatch) {
	for i := range c.edges {
		if c.edges[i].ID != id {
			continue
		}
		e := &c.edges[i]
		if patch.Source != nil {
			e.Source = *patch.Source
		}
		if patch.Target != nil {
			e.Target = *patch.Target
		}
		if patch.Style != nil {
			e.Style = *patch.Style
		}
		c.persist()
		return
	}
}

// RemoveEdge removes the edge with the given id, if present.
func (c *Council) RemoveEdge(id string) {
	for i := range c.edges {
		if c.edges[i].ID == id {
			c.edges = append(c.edges[:i], c.edges[i+1:]...)
			c.persist()
			return
		}
	}
}

// Select marks a node as selected for editing. Selection is presentation
// state and not part of the exported configuration.
func (c *Council) Select(id string) { c.selected = id }

// Selected returns the currently selected node id, or "".
func (c *Council) Selected() string { return c.selected }

// Name returns the council's display name.
func (c *Council) Name() string { return c.name }

// Rename sets the council's display name.
func (c *Council) Rename(name string) {
	c.name = name
	c.persist()
}

// Nodes returns a copy of the node list.
func (c *Council) Nodes() []Node {
	return append([]Node(nil), c.nodes...)
}

// Edges returns a copy of the edge list.
func (c *Council) Edges() []Edge {
	return cloneEdges(c.edges)
}

// Export returns a deep, independent configuration snapshot. Later graph
// mutations cannot retroactively alter an in-flight execution's config.
func (c *Council) Export() Config {
	return Config{
		Name:  c.name,
		Nodes: append([]Node(nil), c.nodes...),
		Edges: cloneEdges(c.edges),
	}
}

// LoadPreset atomically replaces the entire node/edge collection and name.
// Preset nodes missing newer fields get default values, so presets authored
// before a field existed keep working.
func (c *Council) LoadPreset(preset Preset) {
	c.name = preset.Name
	c.nodes = applyNodeDefaults(preset.Nodes)
	c.edges = cloneEdges(preset.Edges)
	c.selected = ""
	c.persist()
}

// Favourite adds an entry to the favourites list if not already present.
func (c *Council) Favourite(id string) {
	for _, f := range c.favourites {
		if f == id {
			return
		}
	}
	c.favourites = append(c.favourites, id)
	c.persist()
}

// Unfavourite removes an entry from the favourites list.
func (c *Council) Unfavourite(id string) {
	for i, f := range c.favourites {
		if f == id {
			c.favourites = append(c.favourites[:i], c.favourites[i+1:]...)
			c.persist()
			return
		}
	}
}

// Favourites returns a copy of the favourites list.
func (c *Council) Favourites() []string {
	return append([]string(nil), c.favourites...)
}

func (c *Council) persist() {
	if c.store == nil {
		return
	}
	snap := Snapshot{
		Name:       c.name,
		Nodes:      append([]Node(nil), c.nodes...),
		Edges:      cloneEdges(c.edges),
		Favourites: append([]string(nil), c.favourites...),
	}
	if err := c.store.Save(snap); err != nil {
		logger.Error("Failed to persist council snapshot", "err", err)
	}
}

func cloneEdges(edges []Edge) []Edge {
	return append([]Edge(nil), edges...)
}

// Chairman returns the node that will produce the final synthesis. When
// several nodes carry the flag the one with the lowest speaking order wins,
// ties broken by id; ok is false when no node is flagged.
func (cfg Config) Chairman() (Node, bool) {
	var best Node
	found := false
	for _, n := range cfg.Nodes {
		if !n.Data.IsChairman {
			continue
		}
		if !found ||
			n.Data.SpeakingOrder < best.Data.SpeakingOrder ||
			(n.Data.SpeakingOrder == best.Data.SpeakingOrder && n.ID < best.ID) {
			best = n
			found = true
		}
	}
	return best, found
}

// Responders returns all nodes that are not the effective chairman, in
// speaking order.
func (cfg Config) Responders() []Node {
	chair, hasChair := cfg.Chairman()
	out := make([]Node, 0, len(cfg.Nodes))
	for _, n := range cfg.Nodes {
		if hasChair && n.ID == chair.ID {
			continue
		}
		out = append(out, n)
	}
	sortNodesBySpeakingOrder(out)
	return out
}

// Node returns the node with the given id.
func (cfg Config) Node(id string) (Node, bool) {
	for _, n := range cfg.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Inbound returns the ids of nodes with an edge into target.
func (cfg Config) Inbound(target string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, e := range cfg.Edges {
		if e.Target != target || seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		out = append(out, e.Source)
	}
	return out
}

func sortNodesBySpeakingOrder(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.Data.SpeakingOrder != b.Data.SpeakingOrder {
			return a.Data.SpeakingOrder < b.Data.SpeakingOrder
		}
		return a.ID < b.ID
	})
}
