package network

import (
	"encoding/json"
)

// House holds the canonical house attributes. HouseID is always set.
type House struct {
	HouseID        int   `json:"HouseID"`
	AutoID         bool  `json:"auto_house_id,omitempty"` // HouseID was assigned by the loader
	PredictedPhase Phase `json:"predicted_phase,omitempty"`
	Solar          *bool `json:"solar,omitempty"`
}

// Street holds the canonical street attributes.
type Street struct {
	ConnectedNodes []string `json:"connected_nodes,omitempty"`
	NetNodeID      string   `json:"net_node_id,omitempty"`
}

// Node is a canonical network node. Nodes are never mutated once the graph
// that owns them is built.
type Node struct {
	ID      string  `json:"id"`
	Kind    Kind    `json:"type"`
	Name    string  `json:"name,omitempty"`
	Label   string  `json:"label"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	XMeters float64 `json:"x_meters"`
	YMeters float64 `json:"y_meters"`

	NextNodes []string `json:"next_nodes"`
	PrevNodes []string `json:"prev_nodes"`
	PrevNode  string   `json:"prev_node,omitempty"`

	House  *House  `json:"house,omitempty"`
	Street *Street `json:"street,omitempty"`

	// Dataset is the index of the input dataset the node came from.
	Dataset int                        `json:"dataset"`
	Extra   map[string]json.RawMessage `json:"extra,omitempty"`
}

// PrevIDs returns the backward references of n: prev_nodes when present,
// otherwise prev_node.
func (n *Node) PrevIDs() []string {
	if len(n.PrevNodes) > 0 {
		return n.PrevNodes
	}
	if n.PrevNode != "" {
		return []string{n.PrevNode}
	}
	return nil
}

// NetNodeID returns the anchor id of a street node, or "".
func (n *Node) NetNodeID() string {
	if n.Street == nil {
		return ""
	}
	return n.Street.NetNodeID
}

// ConnectedNodes returns the connected street ids of a street node.
func (n *Node) ConnectedNodes() []string {
	if n.Street == nil {
		return nil
	}
	return n.Street.ConnectedNodes
}

// Link is one directed edge derived from a next_nodes entry.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type linkKey struct{ source, target string }

// Graph is the canonical network: nodes in input order, links, and an
// adjacency index built once at construction.
type Graph struct {
	Nodes  []*Node    `json:"nodes"`
	Links  []Link     `json:"links"`
	Report LoadReport `json:"-"`

	byID     map[string]*Node
	children map[string][]string // id -> nodes whose prev refs include id
	anchored map[string][]string // id -> streets whose net_node_id is id
	parents  map[string][]string // id -> nodes whose next_nodes include id
	linkAt   map[linkKey]int     // first index of each directed pair
}

// NewGraph indexes already-canonical nodes and links. References are taken
// as given: nothing is sanitized, so dangling ids survive.
func NewGraph(nodes []*Node, links []Link) *Graph {
	g := &Graph{
		Nodes:    nodes,
		Links:    links,
		byID:     make(map[string]*Node, len(nodes)),
		children: make(map[string][]string),
		anchored: make(map[string][]string),
		parents:  make(map[string][]string),
		linkAt:   make(map[linkKey]int, len(links)),
	}

	for _, n := range nodes {
		if _, dup := g.byID[n.ID]; !dup {
			g.byID[n.ID] = n
		}
	}

	for _, n := range nodes {
		for _, p := range n.PrevIDs() {
			g.children[p] = appendUnique(g.children[p], n.ID)
		}
		if n.Kind == KindStreet && n.NetNodeID() != "" {
			g.anchored[n.NetNodeID()] = appendUnique(g.anchored[n.NetNodeID()], n.ID)
		}
		for _, next := range n.NextNodes {
			g.parents[next] = appendUnique(g.parents[next], n.ID)
		}
	}

	for i, l := range links {
		k := linkKey{l.Source, l.Target}
		if _, ok := g.linkAt[k]; !ok {
			g.linkAt[k] = i
		}
	}

	return g
}

// Node returns the node with the given id, or nil.
func (g *Graph) Node(id string) *Node {
	if g == nil {
		return nil
	}
	return g.byID[id]
}

// Has reports whether id is a node of g.
func (g *Graph) Has(id string) bool {
	return g.Node(id) != nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// Children returns the ids of nodes declaring id as a backward reference,
// in graph order.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// AnchoredStreets returns the ids of street nodes whose net_node_id is id,
// in graph order.
func (g *Graph) AnchoredStreets(id string) []string {
	return g.anchored[id]
}

// Parents returns the ids of nodes whose next_nodes include id, in graph
// order.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// LinkBetween returns the first link joining a and b in either direction.
func (g *Graph) LinkBetween(a, b string) (Link, bool) {
	i, okAB := g.linkAt[linkKey{a, b}]
	j, okBA := g.linkAt[linkKey{b, a}]
	switch {
	case okAB && okBA:
		return g.Links[min(i, j)], true
	case okAB:
		return g.Links[i], true
	case okBA:
		return g.Links[j], true
	}
	return Link{}, false
}

// Roots returns the feeder/grid nodes that have no backward reference.
func (g *Graph) Roots() []*Node {
	var roots []*Node
	for _, n := range g.Nodes {
		if n.Kind.IsRoot() && len(n.PrevIDs()) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

// CountByKind tallies nodes per kind.
func (g *Graph) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, n := range g.Nodes {
		counts[n.Kind]++
	}
	return counts
}

// HouseByID finds a house node by its HouseID.
func (g *Graph) HouseByID(houseID int) *Node {
	for _, n := range g.Nodes {
		if n.House != nil && n.House.HouseID == houseID {
			return n
		}
	}
	return nil
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
