// Package traverse answers structural queries over a canonical network
// graph: everything downstream of a node, and the single path from a node
// back to the root.
package traverse

import (
	"fmt"

	"github.com/feedergraph/feedergraph/internal/network"
)

// Downstream returns every node reachable from start, breadth first, with
// start first. Four edge sources are followed from each node:
//
//   - its own next_nodes;
//   - nodes that list it as a backward reference;
//   - for non-street nodes, the streets anchored to it;
//   - for street nodes, its connected streets and then its anchor.
//
// Each node appears once. A nil graph or start yields an empty result.
func Downstream(g *network.Graph, start *network.Node) []*network.Node {
	if g == nil || start == nil {
		return []*network.Node{}
	}

	visited := map[string]bool{start.ID: true}
	queue := []*network.Node{start}
	var result []*network.Node

	enqueue := func(id string) {
		if id == "" || visited[id] {
			return
		}
		if n := g.Node(id); n != nil {
			visited[id] = true
			queue = append(queue, n)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		result = append(result, curr)

		for _, id := range curr.NextNodes {
			enqueue(id)
		}
		for _, id := range g.Children(curr.ID) {
			enqueue(id)
		}

		if curr.Kind != network.KindStreet {
			for _, id := range g.AnchoredStreets(curr.ID) {
				enqueue(id)
			}
		} else {
			for _, id := range curr.ConnectedNodes() {
				enqueue(id)
			}
			enqueue(curr.NetNodeID())
		}
	}

	observeDownstream(len(result))
	return result
}

// DownstreamIDs is Downstream keyed by node id.
func DownstreamIDs(g *network.Graph, id string) ([]*network.Node, error) {
	start := g.Node(id)
	if start == nil {
		return nil, fmt.Errorf("%w: %s", network.ErrNodeNotFound, id)
	}
	return Downstream(g, start), nil
}

// Links returns the links whose endpoints both lie in nodes, in graph order.
func Links(g *network.Graph, nodes []*network.Node) []network.Link {
	in := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		in[n.ID] = true
	}
	var links []network.Link
	for _, l := range g.Links {
		if in[l.Source] && in[l.Target] {
			links = append(links, l)
		}
	}
	return links
}
