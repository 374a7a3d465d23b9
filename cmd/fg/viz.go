package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/feedergraph/feedergraph/internal/viz"
)

var (
	vizOutput string
	vizLayout string
	vizFocus  string
	vizTrace  string
	vizTitle  string
)

func init() {
	vizCmd.Flags().StringVarP(&vizOutput, "output", "o", "", "Output file path (default: stdout)")
	vizCmd.Flags().StringVar(&vizLayout, "layout", "preset", "Layout algorithm: preset, force, circle, or grid")
	vizCmd.Flags().StringVar(&vizFocus, "focus", "", "Highlight everything downstream of this node")
	vizCmd.Flags().StringVar(&vizTrace, "trace", "", "Highlight the path from this node to its feeder")
	vizCmd.Flags().StringVar(&vizTitle, "title", "", "Page title")
	rootCmd.AddCommand(vizCmd)
}

var vizCmd = &cobra.Command{
	Use:   "viz",
	Short: "Generate network visualization",
	Long: `Generate an interactive HTML visualization of the network.

Nodes are placed at their dataset coordinates (preset layout) and sized by
type. Houses are colored by predicted phase:
  - red: A
  - green: B
  - blue: C
  - gray: unknown

Examples:
  # Generate HTML to stdout
  fg viz > network.html

  # Highlight a transformer's area and trace one house
  fg viz --focus T3 --trace H42 --output network.html

  # Ignore coordinates and use a force-directed layout
  fg viz --layout force --output network.html`,
	Args: cobra.NoArgs,
	RunE: runViz,
}

func runViz(cmd *cobra.Command, args []string) error {
	if err := viz.ValidateLayout(vizLayout); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	cfg := mustLoadConfig()
	g := mustLoadGraph(cmd.Context(), cfg)

	graph, err := viz.BuildGraph(g, viz.BuildOptions{
		Focus:       vizFocus,
		Trace:       vizTrace,
		PathOptions: pathOptions(cfg),
	})
	if err != nil {
		exitWithError(exitCodeFor(err), "building graph data: %v", err)
	}

	opts := viz.HTMLOptions{Layout: vizLayout, Title: vizTitle}
	html, err := viz.GenerateHTML(graph, opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}

	if vizOutput == "" {
		fmt.Print(html)
		return nil
	}
	if err := os.WriteFile(vizOutput, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	if humanOutput {
		outputHuman("Visualization written to %s\n", vizOutput)
		return nil
	}
	return outputJSON(StatusResponse{Status: "written", Path: vizOutput})
}
