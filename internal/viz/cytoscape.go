package viz

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CytoscapeElements is the grouped elements object accepted by cytoscape().
type CytoscapeElements struct {
	Nodes []CytoscapeNode `json:"nodes"`
	Edges []CytoscapeEdge `json:"edges"`
}

// CytoscapeNode wraps a Node with its preset position and highlight classes.
type CytoscapeNode struct {
	Data     Node     `json:"data"`
	Position Position `json:"position"`
	Classes  string   `json:"classes,omitempty"`
}

// Position is used by the preset layout and ignored by the others.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type CytoscapeEdge struct {
	Data    CytoscapeEdgeData `json:"data"`
	Classes string            `json:"classes,omitempty"`
}

type CytoscapeEdgeData struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// ToCytoscapeJSON encodes g as a cytoscape.js elements object.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	var els CytoscapeElements
	els.Nodes = make([]CytoscapeNode, len(g.Nodes))
	for i, n := range g.Nodes {
		els.Nodes[i] = CytoscapeNode{
			Data:     n,
			Position: Position{X: n.X, Y: n.Y},
			Classes:  strings.Join(n.Classes, " "),
		}
	}

	els.Edges = make([]CytoscapeEdge, len(g.Edges))
	for i, e := range g.Edges {
		els.Edges[i] = CytoscapeEdge{
			Data:    CytoscapeEdgeData{ID: edgeID(e.Source, e.Target, i), Source: e.Source, Target: e.Target},
			Classes: strings.Join(e.Classes, " "),
		}
	}

	b, err := json.Marshal(els)
	if err != nil {
		return "", fmt.Errorf("encoding cytoscape elements: %w", err)
	}
	return string(b), nil
}

// edgeID is unique within one page; the index keeps parallel links apart.
func edgeID(source, target string, index int) string {
	return fmt.Sprintf("%s-%s-%d", source, target, index)
}
