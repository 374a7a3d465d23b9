package main

import (
	"github.com/spf13/cobra"

	"github.com/feedergraph/feedergraph/internal/traverse"
)

func init() {
	rootCmd.AddCommand(pathCmd)
}

var pathCmd = &cobra.Command{
	Use:   "path <node-id>",
	Short: "Trace a node back to its feeder",
	Long: `Walk upstream from a node, one predecessor per step, until a feeder or
grid root is reached.

The walk never fails: a broken reference, a cycle or the depth cap
(max_depth, default 100) ends it with a partial path, and "stop" says why.

Examples:
  fg path H42
  fg path H42 --human`,
	Args: cobra.ExactArgs(1),
	RunE: runPath,
}

// PathResponse is the response for the path command.
type PathResponse struct {
	Start    string `json:"start"`
	Complete bool   `json:"complete"`
	traverse.Path
}

func runPath(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	g := mustLoadGraph(cmd.Context(), cfg)
	start := mustFindNode(g, args[0])

	p := traverse.PathToRoot(g, start, pathOptions(cfg)...)

	if !humanOutput {
		return outputJSON(PathResponse{Start: start.ID, Complete: p.Complete(), Path: p})
	}

	headerColor.Printf("Path from %s (%d node(s), %d link(s))\n", start.ID, len(p.Nodes), len(p.Links))
	printNodesHuman(p.Nodes)
	if p.Complete() {
		okColor.Printf("stopped: %s\n", p.Stop)
	} else {
		warnColor.Printf("stopped early: %s\n", p.Stop)
	}
	if p.Recovered > 0 {
		warnColor.Printf("recovered %d broken reference(s) through next_nodes\n", p.Recovered)
	}
	return nil
}
