package main

import (
	"github.com/spf13/cobra"

	"github.com/feedergraph/feedergraph/internal/network"
	"github.com/feedergraph/feedergraph/internal/traverse"
)

func init() {
	rootCmd.AddCommand(downstreamCmd)
}

var downstreamCmd = &cobra.Command{
	Use:   "downstream <node-id>",
	Short: "List every node fed from a node",
	Long: `List every node reachable downstream of a node, breadth first,
starting with the node itself.

Forward links, backward references, street anchors and street connections
are all followed, so streets attached only by net_node_id are included.

Examples:
  fg downstream T1
  fg downstream feeder_1 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runDownstream,
}

// DownstreamResponse is the response for the downstream command.
type DownstreamResponse struct {
	Start string          `json:"start"`
	Count int             `json:"count"`
	Nodes []*network.Node `json:"nodes"`
	Links []network.Link  `json:"links"`
}

func runDownstream(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	g := mustLoadGraph(cmd.Context(), cfg)
	start := mustFindNode(g, args[0])

	nodes := traverse.Downstream(g, start)
	links := traverse.Links(g, nodes)
	if links == nil {
		links = []network.Link{}
	}

	if !humanOutput {
		return outputJSON(DownstreamResponse{Start: start.ID, Count: len(nodes), Nodes: nodes, Links: links})
	}

	headerColor.Printf("%d node(s) downstream of %s\n", len(nodes), start.ID)
	printNodesHuman(nodes)
	return nil
}
