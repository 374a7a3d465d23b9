package network

import (
	"fmt"
	"log/slog"
	"strconv"
)

const (
	// DefaultScale converts raw meter coordinates to display coordinates.
	DefaultScale = 4.0

	// GridRootID is the id of the synthetic legacy root added by WithGridRoot.
	GridRootID = "grid1"

	defaultFeederLabel      = "Main Feeder"
	defaultTransformerLabel = "Transformer"
	gridRootName            = "Main Grid"
)

// LoadReport summarises the repairs made while loading.
type LoadReport struct {
	Datasets          int `json:"datasets"`
	Elements          int `json:"elements"`
	Nodes             int `json:"nodes"`
	Links             int `json:"links"`
	Roots             int `json:"roots"`
	RemovedStreets    int `json:"removed_streets"`
	InvalidElements   int `json:"invalid_elements"`
	AutoHouseIDs      int `json:"auto_house_ids"`
	DroppedRefs       int `json:"dropped_refs"`
	MergedRoots       int `json:"merged_roots"`
	SkippedDuplicates int `json:"skipped_duplicates"`
}

type loadOptions struct {
	scale    float64
	logger   *slog.Logger
	gridRoot bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithScale sets the meters-to-display scale factor.
func WithScale(scale float64) Option {
	return func(o *loadOptions) {
		if scale > 0 {
			o.scale = scale
		}
	}
}

// WithLogger sets the logger used for load warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *loadOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithGridRoot adds a shared synthetic grid root to every dataset that has
// no feeder or grid element of its own.
func WithGridRoot() Option {
	return func(o *loadOptions) {
		o.gridRoot = true
	}
}

// Load builds the canonical graph from one or more raw datasets.
//
// Dangling references are dropped. A duplicate id is an error when a single
// dataset is given; with several datasets a repeated feeder/grid id is merged
// and any other repeat is skipped with a warning.
func Load(datasets [][]Element, opts ...Option) (*Graph, error) {
	if len(datasets) == 0 {
		return nil, ErrNoDatasets
	}

	o := loadOptions{scale: DefaultScale, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.With("component", "network.loader")

	if o.gridRoot {
		datasets = addGridRoots(datasets)
	}

	multi := len(datasets) > 1
	report := LoadReport{Datasets: len(datasets)}

	// Every id in the input, removed streets included.
	valid := make(map[string]bool)
	claimed := make(map[int]bool)
	for _, ds := range datasets {
		for i := range ds {
			if ds[i].ID != "" {
				valid[ds[i].ID] = true
			}
			if h := ds[i].House; h != nil && h.HouseID != nil {
				claimed[*h.HouseID] = true
			}
		}
	}

	var nodes []*Node
	byID := make(map[string]*Node)
	nextHouseID := 1

	for di, ds := range datasets {
		for _, e := range ds {
			report.Elements++

			if skip := checkElement(&e, log); skip {
				report.InvalidElements++
				continue
			}
			e.Kind = ParseKind(string(e.Kind))

			if e.IsRemovedStreet() {
				report.RemovedStreets++
				continue
			}

			if existing, dup := byID[e.ID]; dup {
				if !multi {
					return nil, fmt.Errorf("%w: %q", ErrDuplicateID, e.ID)
				}
				if existing.Kind.IsRoot() && e.Kind.IsRoot() {
					next, dropped := filterRefs(e.NextNodes, valid)
					report.DroppedRefs += dropped
					for _, id := range next {
						existing.NextNodes = appendUnique(existing.NextNodes, id)
					}
					report.MergedRoots++
					log.Debug("merged shared root", "id", e.ID, "dataset", di)
					continue
				}
				report.SkippedDuplicates++
				log.Warn("skipping duplicate node id", "id", e.ID, "dataset", di, "kept_dataset", existing.Dataset)
				continue
			}

			n := &Node{
				ID:      e.ID,
				Kind:    e.Kind,
				Name:    e.Name,
				Dataset: di,
				Extra:   e.Extra,
			}

			if e.Kind == KindHouse {
				h := &House{}
				if e.House != nil {
					h.PredictedPhase = e.House.PredictedPhase
					h.Solar = e.House.Solar
				}
				if e.House != nil && e.House.HouseID != nil {
					h.HouseID = *e.House.HouseID
				} else {
					for claimed[nextHouseID] {
						nextHouseID++
					}
					h.HouseID = nextHouseID
					h.AutoID = true
					claimed[nextHouseID] = true
					report.AutoHouseIDs++
				}
				n.House = h
			}

			var dropped int
			n.NextNodes, dropped = filterRefs(e.NextNodes, valid)
			report.DroppedRefs += dropped
			n.PrevNodes, dropped = filterRefs(e.PrevNodes, valid)
			report.DroppedRefs += dropped
			if len(n.PrevNodes) > 0 {
				n.PrevNode = n.PrevNodes[0]
			}

			if e.Kind == KindStreet && e.Street != nil {
				s := &Street{}
				s.ConnectedNodes, dropped = filterRefs(e.Street.ConnectedNodes, valid)
				report.DroppedRefs += dropped
				if e.Street.NetNodeID != "" {
					if valid[e.Street.NetNodeID] {
						s.NetNodeID = e.Street.NetNodeID
					} else {
						report.DroppedRefs++
					}
				}
				n.Street = s
			}

			n.Label = label(n)
			if e.XMeters != nil {
				n.XMeters = *e.XMeters
			}
			if e.YMeters != nil {
				n.YMeters = *e.YMeters
			}
			n.X = n.XMeters * o.scale
			n.Y = n.YMeters * o.scale

			byID[n.ID] = n
			nodes = append(nodes, n)
		}
	}

	// Second pass against the registered set: refs to removed or skipped
	// elements passed the input check but must not survive.
	for _, n := range nodes {
		report.DroppedRefs += pruneRefs(n, byID)
	}

	var links []Link
	for _, n := range nodes {
		for _, target := range n.NextNodes {
			if _, ok := byID[target]; ok {
				links = append(links, Link{Source: n.ID, Target: target})
			}
		}
	}

	g := NewGraph(nodes, links)
	report.Nodes = len(nodes)
	report.Links = len(links)
	report.Roots = len(g.Roots())
	g.Report = report

	if report.Roots != 1 {
		log.Warn("network does not have exactly one root", "roots", report.Roots)
	}
	if report.DroppedRefs > 0 {
		log.Debug("dropped dangling references", "count", report.DroppedRefs)
	}

	return g, nil
}

// label derives the display label for a node.
func label(n *Node) string {
	switch n.Kind {
	case KindFeeder:
		if n.Name != "" {
			return n.Name
		}
		return defaultFeederLabel
	case KindTransformer:
		if n.Name != "" {
			return n.Name
		}
		return defaultTransformerLabel
	case KindHouse:
		return "House " + strconv.Itoa(n.House.HouseID)
	case KindStreet:
		return "Street " + n.ID
	default:
		return n.ID
	}
}

// filterRefs keeps the ids present in valid, preserving order.
func filterRefs(ids []string, valid map[string]bool) ([]string, int) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if valid[id] {
			out = append(out, id)
		}
	}
	return out, len(ids) - len(out)
}

// pruneRefs drops references to ids that were not registered.
func pruneRefs(n *Node, byID map[string]*Node) int {
	registered := func(ids []string) ([]string, int) {
		out := ids[:0:0]
		for _, id := range ids {
			if _, ok := byID[id]; ok {
				out = append(out, id)
			}
		}
		return out, len(ids) - len(out)
	}

	var total, d int
	n.NextNodes, d = registered(n.NextNodes)
	total += d
	n.PrevNodes, d = registered(n.PrevNodes)
	total += d
	n.PrevNode = ""
	if len(n.PrevNodes) > 0 {
		n.PrevNode = n.PrevNodes[0]
	}
	if n.Street != nil {
		n.Street.ConnectedNodes, d = registered(n.Street.ConnectedNodes)
		total += d
		if n.Street.NetNodeID != "" {
			if _, ok := byID[n.Street.NetNodeID]; !ok {
				n.Street.NetNodeID = ""
				total++
			}
		}
	}
	return total
}

// addGridRoots returns a copy of datasets where every dataset without a
// feeder/grid element gets the shared synthetic grid root in front.
func addGridRoots(datasets [][]Element) [][]Element {
	out := make([][]Element, len(datasets))
	for i, ds := range datasets {
		if len(ds) == 0 || hasRoot(ds) {
			out[i] = ds
			continue
		}

		first := ds[0]
		if len(first.PrevNodes) == 0 {
			first.PrevNodes = []string{GridRootID}
		}

		zero := 0.0
		grid := Element{
			ID:        GridRootID,
			Kind:      KindGrid,
			Name:      gridRootName,
			XMeters:   &zero,
			YMeters:   &zero,
			NextNodes: []string{first.ID},
		}

		withRoot := make([]Element, 0, len(ds)+1)
		withRoot = append(withRoot, grid, first)
		withRoot = append(withRoot, ds[1:]...)
		out[i] = withRoot
	}
	return out
}

func hasRoot(ds []Element) bool {
	for i := range ds {
		if ParseKind(string(ds[i].Kind)).IsRoot() {
			return true
		}
	}
	return false
}
