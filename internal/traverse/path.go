package traverse

import (
	"fmt"
	"log/slog"

	"github.com/feedergraph/feedergraph/internal/network"
)

// DefaultMaxDepth caps the number of upstream steps taken by PathToRoot.
const DefaultMaxDepth = 100

// StopReason tells why an upstream walk ended.
type StopReason string

const (
	StopRoot     StopReason = "root"      // current node has no predecessor
	StopFeeder   StopReason = "feeder"    // predecessor is a feeder or grid
	StopBroken   StopReason = "broken"    // predecessor unresolvable and no recovery
	StopCycle    StopReason = "cycle"     // predecessor already on the path
	StopDepthCap StopReason = "depth_cap" // iteration cap exceeded
	StopNoStart  StopReason = "no_start"
)

// Path is the upstream walk from a node towards the root. Nodes starts with
// the start node. Links holds the connecting link of every step that has
// one, in step order, so len(Links) <= len(Nodes)-1.
type Path struct {
	Nodes []*network.Node `json:"nodes"`
	Links []network.Link  `json:"links"`
	Stop  StopReason      `json:"stop"`

	// Recovered counts predecessors found through the next_nodes fallback.
	Recovered int `json:"recovered,omitempty"`
}

// Complete reports whether the walk ended at a root.
func (p Path) Complete() bool {
	return p.Stop == StopRoot || p.Stop == StopFeeder
}

type pathOptions struct {
	maxDepth int
	logger   *slog.Logger
}

// PathOption configures PathToRoot.
type PathOption func(*pathOptions)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) PathOption {
	return func(o *pathOptions) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

// WithLogger sets the logger for walk diagnostics.
func WithLogger(logger *slog.Logger) PathOption {
	return func(o *pathOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// PathToRoot walks strictly upstream from start, one predecessor per step.
//
// The predecessor is the first backward reference, or for a street without
// one, its anchor. An unresolvable predecessor is replaced by the first node
// whose next_nodes lists the current node; if there is none the walk stops
// with what it has. The walk never fails: cycles, broken references and the
// depth cap all end it early with a partial path.
func PathToRoot(g *network.Graph, start *network.Node, opts ...PathOption) Path {
	o := pathOptions{maxDepth: DefaultMaxDepth, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if g == nil || start == nil {
		return Path{Nodes: []*network.Node{}, Links: []network.Link{}, Stop: StopNoStart}
	}

	log := o.logger.With("component", "traverse.path", "start", start.ID)
	p := Path{
		Nodes: []*network.Node{start},
		Links: []network.Link{},
		Stop:  StopDepthCap,
	}
	visited := map[string]bool{start.ID: true}
	curr := start

	for depth := 0; depth < o.maxDepth; depth++ {
		prevID := predecessorID(curr)
		if prevID == "" {
			log.Debug("reached root node", "type", curr.Kind, "id", curr.ID)
			p.Stop = StopRoot
			break
		}

		prev := g.Node(prevID)
		if prev == nil {
			log.Warn("predecessor not found, trying alternative path", "id", curr.ID, "prev", prevID)
			prev = recoverPredecessor(g, curr)
			if prev == nil {
				log.Warn("no alternative path found, stopping traversal", "id", curr.ID)
				p.Stop = StopBroken
				break
			}
			p.Recovered++
			log.Debug("found alternative parent node", "type", prev.Kind, "id", prev.ID)
		}

		if visited[prev.ID] {
			log.Warn("cycle detected", "id", prev.ID)
			p.Stop = StopCycle
			break
		}

		p.Nodes = append(p.Nodes, prev)
		visited[prev.ID] = true

		if l, ok := g.LinkBetween(curr.ID, prev.ID); ok {
			p.Links = append(p.Links, l)
		}

		curr = prev

		if curr.Kind.IsRoot() {
			log.Debug("path complete", "root", curr.ID, "nodes", len(p.Nodes))
			p.Stop = StopFeeder
			break
		}
	}

	if p.Stop == StopDepthCap {
		log.Warn("traversal depth cap exceeded", "max_depth", o.maxDepth, "nodes", len(p.Nodes))
	}
	observePath(p)
	return p
}

// PathToRootID is PathToRoot keyed by node id.
func PathToRootID(g *network.Graph, id string, opts ...PathOption) (Path, error) {
	start := g.Node(id)
	if start == nil {
		return Path{}, fmt.Errorf("%w: %s", network.ErrNodeNotFound, id)
	}
	return PathToRoot(g, start, opts...), nil
}

// predecessorID picks the single upstream id of n. Backward references win
// over a street's anchor.
func predecessorID(n *network.Node) string {
	if prev := n.PrevIDs(); len(prev) > 0 {
		return prev[0]
	}
	if n.Kind == network.KindStreet {
		return n.NetNodeID()
	}
	return ""
}

// recoverPredecessor finds the first node whose next_nodes lists n.
func recoverPredecessor(g *network.Graph, n *network.Node) *network.Node {
	for _, id := range g.Parents(n.ID) {
		if p := g.Node(id); p != nil {
			return p
		}
	}
	return nil
}
