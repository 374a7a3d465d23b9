// Package viz renders a network graph as a self-contained cytoscape.js page.
package viz

import "github.com/feedergraph/feedergraph/internal/network"

// Highlight classes set on elements by BuildGraph.
const (
	ClassDownstream = "downstream"
	ClassPath       = "path"
)

// GraphData contains all data needed to render the visualization.
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one network node as the page sees it.
type Node struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`

	// House-specific fields (for tooltips)
	HouseID int    `json:"houseId,omitempty"`
	Phase   string `json:"phase,omitempty"`
	Solar   *bool  `json:"solar,omitempty"`

	// Display
	Color string `json:"color"`
	Size  int    `json:"size"`

	X       float64  `json:"-"`
	Y       float64  `json:"-"`
	Classes []string `json:"-"`
}

// Edge is one network link.
type Edge struct {
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Classes []string `json:"-"`
}

// IsEmpty returns true if the graph has no nodes.
func (g *GraphData) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// NodeSize returns the display size of a node kind.
func NodeSize(k network.Kind) int {
	switch k {
	case network.KindGrid, network.KindFeeder:
		return 100
	case network.KindTransformer:
		return 60
	default:
		return 14
	}
}

var phaseColors = map[network.Phase]string{
	network.PhaseA: "#FF4C4C",
	network.PhaseB: "#4CFF4C",
	network.PhaseC: "#4C4CFF",
}

// DefaultPhaseColor is used for houses without a known phase.
const DefaultPhaseColor = "#999999"

// PhaseColor returns the fill color for a house on phase p.
func PhaseColor(p network.Phase) string {
	if c, ok := phaseColors[p]; ok {
		return c
	}
	return DefaultPhaseColor
}

// NodeColor picks the fill color of n: houses by phase, everything else by kind.
func NodeColor(n *network.Node) string {
	switch n.Kind {
	case network.KindHouse:
		if n.House != nil {
			return PhaseColor(n.House.PredictedPhase)
		}
		return DefaultPhaseColor
	case network.KindTransformer:
		return "orange"
	case network.KindStreet:
		return "#BBBBBB"
	default:
		return "#333333"
	}
}
