package viz

import (
	"fmt"

	"github.com/feedergraph/feedergraph/internal/network"
	"github.com/feedergraph/feedergraph/internal/traverse"
)

// BuildOptions selects the highlights applied by BuildGraph.
type BuildOptions struct {
	// Focus marks the focus node and everything downstream of it.
	Focus string
	// Trace marks the path from the trace node back to the root.
	Trace string
	// PathOptions are passed to the upstream walk of Trace.
	PathOptions []traverse.PathOption
}

// BuildGraph converts a network graph into GraphData, tagging highlighted
// nodes and links with ClassDownstream and ClassPath.
func BuildGraph(g *network.Graph, opts BuildOptions) (*GraphData, error) {
	nodeClasses := make(map[string][]string)
	edgeClasses := make(map[network.Link][]string)

	if opts.Focus != "" {
		down, err := traverse.DownstreamIDs(g, opts.Focus)
		if err != nil {
			return nil, fmt.Errorf("focus: %w", err)
		}
		for _, n := range down {
			nodeClasses[n.ID] = append(nodeClasses[n.ID], ClassDownstream)
		}
		for _, l := range traverse.Links(g, down) {
			edgeClasses[l] = append(edgeClasses[l], ClassDownstream)
		}
	}

	if opts.Trace != "" {
		p, err := traverse.PathToRootID(g, opts.Trace, opts.PathOptions...)
		if err != nil {
			return nil, fmt.Errorf("trace: %w", err)
		}
		for _, n := range p.Nodes {
			nodeClasses[n.ID] = append(nodeClasses[n.ID], ClassPath)
		}
		for _, l := range p.Links {
			edgeClasses[l] = append(edgeClasses[l], ClassPath)
		}
	}

	data := &GraphData{
		Nodes: make([]Node, 0, g.Len()),
		Edges: make([]Edge, 0, len(g.Links)),
	}
	for _, n := range g.Nodes {
		vn := newNode(n)
		vn.Classes = nodeClasses[n.ID]
		data.Nodes = append(data.Nodes, vn)
	}
	for _, l := range g.Links {
		data.Edges = append(data.Edges, Edge{Source: l.Source, Target: l.Target, Classes: edgeClasses[l]})
	}
	return data, nil
}

// newNode creates a visualization node from a network node.
func newNode(n *network.Node) Node {
	vn := Node{
		ID:    n.ID,
		Type:  string(n.Kind),
		Label: n.Label,
		Color: NodeColor(n),
		Size:  NodeSize(n.Kind),
		X:     n.X,
		Y:     n.Y,
	}
	if n.House != nil {
		vn.HouseID = n.House.HouseID
		vn.Phase = string(n.House.PredictedPhase)
		vn.Solar = n.House.Solar
	}
	return vn
}
