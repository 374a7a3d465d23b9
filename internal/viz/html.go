package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"slices"
	"strings"

	"github.com/feedergraph/feedergraph/internal/network"
)

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "preset", "force", "circle", or "grid"
	Title  string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Layout: "preset",
		Title:  "Feeder Network",
	}
}

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{"preset", "force", "circle", "grid"}

// GenerateHTML renders graph as a single HTML page. cytoscape.js itself is
// loaded from a CDN.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}

	if err := ValidateLayout(opts.Layout); err != nil {
		return "", err
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	if graph.IsEmpty() {
		return generateEmptyHTML(opts.Title)
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", fmt.Errorf("encoding elements: %w", err)
	}

	data := pageData{
		Title:     opts.Title,
		GraphJSON: template.JS(graphJSON),
		Layout:    layoutToCytoscape(opts.Layout),
		Nodes:     len(graph.Nodes),
		Edges:     len(graph.Edges),
		Legend:    legend(),
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return buf.String(), nil
}

// ValidateLayout reports whether layout is one of ValidLayouts. The empty
// string selects the default.
func ValidateLayout(layout string) error {
	if layout == "" || slices.Contains(ValidLayouts, layout) {
		return nil
	}
	return fmt.Errorf("invalid layout %q: must be one of %s", layout, strings.Join(ValidLayouts, ", "))
}

type legendEntry struct {
	Label string
	Color string
}

type pageData struct {
	Title     string
	GraphJSON template.JS
	Layout    string
	Nodes     int
	Edges     int
	Legend    []legendEntry
}

func legend() []legendEntry {
	return []legendEntry{
		{"Phase A", PhaseColor(network.PhaseA)},
		{"Phase B", PhaseColor(network.PhaseB)},
		{"Phase C", PhaseColor(network.PhaseC)},
		{"Unknown phase", DefaultPhaseColor},
	}
}

// layoutToCytoscape maps a layout flag value to the cytoscape.js layout name.
func layoutToCytoscape(layout string) string {
	if layout == "force" {
		return "cose"
	}
	if layout == "circle" || layout == "grid" {
		return layout
	}
	return "preset"
}

func generateEmptyHTML(title string) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "empty", pageData{Title: title}); err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return buf.String(), nil
}

const pageHTML = `{{define "empty"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  html, body { height: 100%; margin: 0; }
  body { display: grid; place-items: center; font: 15px system-ui, sans-serif; color: #555; background: #fafafa; }
  kbd { font-family: ui-monospace, monospace; border: 1px solid #ccc; border-radius: 3px; padding: 0 4px; }
</style>
</head>
<body>
<main>
  <h1>No network data</h1>
  <p>The configured datasets did not produce a single node.</p>
  <p>Run <kbd>fg config</kbd> to see which files are read.</p>
</main>
</body>
</html>{{end}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
<style>
  html, body { height: 100%; margin: 0; }
  body { display: flex; font: 13px system-ui, sans-serif; color: #222; }
  #cy { flex: 1; background: #fff; }
  aside { width: 260px; padding: 12px 16px; border-left: 1px solid #ddd; background: #fafafa; overflow-y: auto; }
  aside h1 { font-size: 16px; margin: 0 0 4px; }
  aside h2 { font-size: 11px; letter-spacing: .06em; text-transform: uppercase; color: #777; margin: 18px 0 6px; }
  .summary { color: #666; }
  .swatch { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-right: 6px; }
  dl { display: grid; grid-template-columns: auto 1fr; gap: 2px 10px; margin: 0; }
  dt { color: #777; }
  dd { margin: 0; word-break: break-all; }
</style>
</head>
<body>
<div id="cy"></div>
<aside>
  <h1>{{.Title}}</h1>
  <div class="summary">{{.Nodes}} nodes, {{.Edges}} links</div>
  <h2>Houses</h2>
  {{range .Legend}}<div><span class="swatch" style="background: {{.Color}}"></span>{{.Label}}</div>
  {{end}}
  <h2>Selected</h2>
  <div id="details">Click a node to inspect it and its downstream area.</div>
</aside>
<script>
(function () {
  const elements = {{.GraphJSON}};
  const layout = "{{.Layout}}";

  const layoutOptions = { name: layout, animate: false, fit: true };
  if (layout === 'cose') {
    Object.assign(layoutOptions, { nodeRepulsion: 9000, idealEdgeLength: 80, gravity: 0.4 });
  }

  const accent = { downstream: '#E8923A', path: '#2F6FB3' };

  const cy = cytoscape({
    container: document.getElementById('cy'),
    elements: elements,
    layout: layoutOptions,
    style: [
      { selector: 'node', style: {
        'background-color': 'data(color)', 'width': 'data(size)', 'height': 'data(size)',
        'font-size': 10, 'text-valign': 'bottom', 'text-margin-y': 4, 'color': '#444'
      } },
      { selector: 'node[type = "house"]', style: { 'background-opacity': 0.65 } },
      { selector: 'node[type = "street"]', style: { 'shape': 'rectangle' } },
      { selector: 'node[type = "transformer"]', style: { 'shape': 'round-rectangle', 'label': 'data(label)' } },
      { selector: 'node[type = "feeder"], node[type = "grid"]', style: {
        'shape': 'hexagon', 'label': 'data(label)', 'font-size': 14, 'font-weight': 'bold'
      } },
      { selector: 'edge', style: {
        'width': 1.2, 'curve-style': 'straight', 'line-color': '#A7B1B7',
        'target-arrow-shape': 'triangle', 'target-arrow-color': '#A7B1B7', 'arrow-scale': 0.5
      } },
      { selector: 'node.downstream', style: { 'border-width': 3, 'border-color': accent.downstream } },
      { selector: 'edge.downstream', style: { 'width': 3, 'line-color': accent.downstream, 'target-arrow-color': accent.downstream } },
      { selector: 'node.path', style: { 'border-width': 4, 'border-color': accent.path, 'label': 'data(label)' } },
      { selector: 'edge.path', style: {
        'width': 4, 'line-color': accent.path, 'target-arrow-color': accent.path,
        'line-style': 'dashed', 'line-dash-pattern': [8, 4]
      } },
      { selector: '.faded', style: { 'opacity': 0.15 } }
    ]
  });

  const marked = cy.$('.path, .downstream');
  if (marked.nonempty()) {
    cy.fit(marked, 120);
  }

  // march the dashes along the traced path toward the house
  const traced = cy.edges('.path');
  if (traced.nonempty()) {
    let dash = 0;
    setInterval(function () {
      dash = (dash + 1) % 12;
      traced.style('line-dash-offset', dash);
    }, 60);
  }

  const details = document.getElementById('details');

  function text(v) {
    const span = document.createElement('span');
    span.textContent = v === undefined || v === null || v === '' ? '-' : String(v);
    return span.innerHTML;
  }

  function describe(node) {
    const d = node.data();
    const rows = [['Type', d.type], ['Id', d.id], ['Label', d.label]];
    if (d.type === 'house') {
      rows.push(['House', d.houseId], ['Phase', d.phase || 'unknown']);
      if (d.solar !== undefined) {
        rows.push(['Solar', d.solar ? 'yes' : 'no']);
      }
    }
    rows.push(['Downstream', node.successors('node').length]);
    return '<dl>' + rows.map(function (r) {
      return '<dt>' + r[0] + '</dt><dd>' + text(r[1]) + '</dd>';
    }).join('') + '</dl>';
  }

  cy.on('tap', 'node', function (evt) {
    const node = evt.target;
    const area = node.successors().union(node).union(node.incomers());
    cy.elements().removeClass('faded');
    cy.elements().difference(area).addClass('faded');
    details.innerHTML = describe(node);
  });

  cy.on('tap', function (evt) {
    if (evt.target === cy) {
      cy.elements().removeClass('faded');
      details.textContent = 'Click a node to inspect it and its downstream area.';
    }
  });
})();
</script>
</body>
</html>`
