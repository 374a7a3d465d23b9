package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/feedergraph/feedergraph/internal/network"
)

var (
	headerColor = color.New(color.Bold)
	kindColors  = map[network.Kind]*color.Color{
		network.KindFeeder:      color.New(color.FgMagenta, color.Bold),
		network.KindGrid:        color.New(color.FgMagenta, color.Bold),
		network.KindTransformer: color.New(color.FgYellow),
		network.KindStreet:      color.New(color.FgWhite),
		network.KindHouse:       color.New(color.FgCyan),
	}
	phaseColors = map[network.Phase]*color.Color{
		network.PhaseA: color.New(color.FgRed),
		network.PhaseB: color.New(color.FgGreen),
		network.PhaseC: color.New(color.FgBlue),
	}
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...any) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "%s %s\n", errColor.Sprint("error:"), msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Count  int    `json:"count,omitempty"`
}

// formatKind renders a node kind in its color.
func formatKind(k network.Kind) string {
	if c, ok := kindColors[k]; ok {
		return c.Sprint(string(k))
	}
	return string(k)
}

// formatNodeLine formats a node as "id  kind  label [phase]".
func formatNodeLine(n *network.Node) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %-20s %s", n.ID, formatKind(n.Kind), n.Label))
	if n.House != nil && n.House.PredictedPhase != "" {
		c, ok := phaseColors[n.House.PredictedPhase]
		if !ok {
			c = color.New(color.Reset)
		}
		sb.WriteString(" ")
		sb.WriteString(c.Sprintf("[%s]", n.House.PredictedPhase))
	}
	return sb.String()
}

// printNodesHuman prints one line per node, indented.
func printNodesHuman(nodes []*network.Node) {
	for _, n := range nodes {
		fmt.Printf("  %s\n", formatNodeLine(n))
	}
}
