package viz

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"github.com/storymap/storymap/internal/chapter"
	"github.com/storymap/storymap/internal/storygraph"
)

// Templates are parsed at init time to fail fast on template errors.
var (
	compiledTemplate      *template.Template
	compiledErrorTemplate *template.Template
)

func init() {
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
	compiledErrorTemplate = template.Must(template.New("error").Parse(errorTemplate))
}

// CDNScript is where the page loads Cytoscape.js from unless Offline is set.
const CDNScript = "https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"

// OfflineScript is the relative path referenced when Offline is set; the file is
// expected next to the generated page.
const OfflineScript = "cytoscape.min.js"

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout    string                     // "force", "circle", or "grid"
	Offline   bool                       // Load Cytoscape.js from OfflineScript instead of the CDN
	Selection storygraph.SelectionReader // Owner highlighted when the page opens; may be nil
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Layout:  "force",
		Offline: false,
	}
}

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{"force", "circle", "grid"}

// GenerateHTML generates a self-contained HTML page for the story graph.
// Tapping a chapter highlights its owner's chain; the initial highlight comes from
// opts.Selection.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}

	if err := validateLayout(opts.Layout); err != nil {
		return "", err
	}

	if graph.IsEmpty() {
		return generateEmptyHTML(), nil
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	data := templateData{
		ScriptSrc: CDNScript,
		GraphJSON: template.JS(graphJSON),
		Layout:    layoutToCytoscape(opts.Layout),
		Owners:    legend(graph),
	}
	if opts.Offline {
		data.ScriptSrc = OfflineScript
	}
	if opts.Selection != nil {
		if owner, ok := opts.Selection.Current(); ok {
			data.Selected = owner
		}
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// validateLayout checks if the layout option is valid.
func validateLayout(layout string) error {
	switch layout {
	case "", "force", "circle", "grid":
		return nil
	default:
		return fmt.Errorf("invalid layout %q: must be force, circle, or grid", layout)
	}
}

// templateData holds data for the HTML template.
type templateData struct {
	ScriptSrc string
	GraphJSON template.JS
	Layout    string
	Selected  string
	Owners    []legendEntry
}

type legendEntry struct {
	Owner string
	Color string
}

// legend lists each owner with the color of their chain.
func legend(graph *GraphData) []legendEntry {
	colors := make(map[string]string)
	for _, n := range graph.Nodes {
		if !n.Origin {
			colors[n.Owner] = n.Color
		}
	}
	entries := make([]legendEntry, 0, len(graph.Owners))
	for _, o := range graph.Owners {
		entries = append(entries, legendEntry{Owner: o, Color: colors[o]})
	}
	return entries
}

// layoutToCytoscape converts user-friendly layout names to Cytoscape.js layout algorithm names.
func layoutToCytoscape(layout string) string {
	switch layout {
	case "circle":
		return "circle"
	case "grid":
		return "grid"
	default:
		return "cose"
	}
}

// GenerateErrorHTML returns the page shown instead of a graph when assembly fails.
// It names the offending file when the failure is an ordering key error.
func GenerateErrorHTML(cause error) string {
	data := struct {
		Message  string
		Filename string
	}{Message: "unknown error"}

	if cause != nil {
		data.Message = cause.Error()
	}
	var keyErr *chapter.OrderingKeyError
	if errors.As(cause, &keyErr) {
		data.Filename = keyErr.Filename
	}

	var buf bytes.Buffer
	if err := compiledErrorTemplate.Execute(&buf, data); err != nil {
		// The template is static; only a writer failure could get here.
		return "<!DOCTYPE html><html><body><h2>Story graph unavailable</h2></body></html>"
	}
	return buf.String()
}

// generateEmptyHTML returns HTML for an empty graph state.
func generateEmptyHTML() string {
	return `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Story Map - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No chapters yet</h2>
    <p>Add a chapter using <code>smap add 01-start.md --owner you</code></p>
    <p>or import one using <code>smap import github you</code></p>
  </div>
</body>
</html>`
}

const errorTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Story Map - Error</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 3em auto;
      max-width: 640px;
      color: #333;
    }
    .error {
      border-left: 4px solid #E74C3C;
      background: #fdf0ef;
      padding: 1em 1.5em;
    }
    code {
      background: #eee;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="error">
    <h2>Story graph unavailable</h2>
    <p>{{.Message}}</p>
    {{if .Filename}}<p>Rename <code>{{.Filename}}</code> so it starts with its chapter number, e.g. <code>01-{{.Filename}}</code>.</p>{{end}}
  </div>
</body>
</html>`

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>Story Map</title>
  <script src="{{.ScriptSrc}}"></script>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #cy {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #legend {
      position: absolute;
      top: 12px;
      left: 12px;
      background: rgba(255,255,255,0.9);
      border: 1px solid #ddd;
      border-radius: 4px;
      padding: 8px 12px;
      font-size: 13px;
      z-index: 1000;
    }
    #legend .owner {
      cursor: pointer;
      margin: 3px 0;
    }
    #legend .swatch {
      display: inline-block;
      width: 10px;
      height: 10px;
      border-radius: 50%;
      margin-right: 6px;
    }
    #legend .owner.selected {
      font-weight: bold;
    }
    #tooltip {
      position: absolute;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 320px;
      font-size: 13px;
      z-index: 1000;
      pointer-events: none;
    }
    #tooltip .owner {
      font-size: 10px;
      text-transform: uppercase;
      color: #888;
      margin-bottom: 4px;
    }
    #tooltip .label {
      font-weight: bold;
      margin-bottom: 4px;
    }
    #tooltip .detail {
      color: #555;
      margin: 2px 0;
    }
    #tooltip .summary {
      font-style: italic;
      color: #666;
      margin-top: 4px;
    }
  </style>
</head>
<body>
  <div id="cy"></div>
  <div id="legend">
    {{range .Owners}}<div class="owner" data-owner="{{.Owner}}"><span class="swatch" style="background: {{.Color}}"></span>{{.Owner}}</div>
    {{end}}
  </div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const graphData = {{.GraphJSON}};
      const layout = "{{.Layout}}";
      const initialOwner = "{{.Selected}}";

      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: graphData,
        style: [
          {
            selector: 'node',
            style: {
              'background-color': 'data(color)',
              'label': 'data(label)',
              'color': '#333',
              'font-size': '10px',
              'text-valign': 'bottom',
              'text-margin-y': '5px',
              'width': '30px',
              'height': '30px'
            }
          },
          {
            selector: 'node[?origin]',
            style: {
              'shape': 'star',
              'font-weight': 'bold',
              'width': '40px',
              'height': '40px'
            }
          },
          {
            selector: 'edge',
            style: {
              'line-color': '#95A5A6',
              'target-arrow-color': '#95A5A6',
              'target-arrow-shape': 'triangle',
              'curve-style': 'bezier',
              'width': 2
            }
          },
          {
            selector: 'node.highlighted',
            style: {
              'border-width': 3,
              'border-color': '#ff6b6b'
            }
          },
          {
            selector: 'edge.highlighted',
            style: {
              'line-color': '#ff6b6b',
              'target-arrow-color': '#ff6b6b',
              'width': 3
            }
          },
          {
            selector: 'node.dimmed',
            style: {
              'opacity': 0.3
            }
          },
          {
            selector: 'edge.dimmed',
            style: {
              'opacity': 0.2
            }
          }
        ],
        layout: {
          name: layout,
          animate: false,
          // cose-specific options
          nodeRepulsion: 8000,
          idealEdgeLength: 100,
          edgeElasticity: 100
        }
      });

      const tooltip = document.getElementById('tooltip');

      function showTooltip(evt, content) {
        tooltip.innerHTML = content;
        tooltip.style.display = 'block';
        const pos = evt.renderedPosition || evt.position;
        tooltip.style.left = (pos.x + 15) + 'px';
        tooltip.style.top = (pos.y + 15) + 'px';
      }

      function hideTooltip() {
        tooltip.style.display = 'none';
      }

      function getNodeTooltip(node) {
        const data = node.data();
        if (data.origin) {
          return '<div class="label">' + escapeHtml(data.label) + '</div>';
        }
        let html = '<div class="owner">' + escapeHtml(data.owner) + '</div>';
        html += '<div class="label">' + escapeHtml(data.title) + '</div>';
        if (data.filename) html += '<div class="detail">' + escapeHtml(data.filename) + '</div>';
        if (data.summary) html += '<div class="summary">' + escapeHtml(data.summary) + '</div>';
        return html;
      }

      function escapeHtml(str) {
        if (!str) return '';
        return str.replace(/&/g, '&amp;')
                  .replace(/</g, '&lt;')
                  .replace(/>/g, '&gt;')
                  .replace(/"/g, '&quot;');
      }

      // Highlight one owner's chain: their chapters, the edges between them and
      // the edge from the origin into it.
      function selectOwner(owner) {
        cy.elements().removeClass('highlighted dimmed');
        document.querySelectorAll('#legend .owner').forEach(function(el) {
          el.classList.toggle('selected', el.dataset.owner === owner);
        });
        if (!owner) return;

        const chain = cy.elements().filter(function(ele) {
          return ele.data('owner') === owner && !ele.data('origin');
        });
        const marked = chain.add(cy.getElementById('0'));
        chain.addClass('highlighted');
        cy.elements().not(marked).addClass('dimmed');
      }

      cy.on('mouseover', 'node', function(evt) {
        showTooltip(evt, getNodeTooltip(evt.target));
      });

      cy.on('mouseout', 'node', function() {
        hideTooltip();
      });

      cy.on('tap', 'node', function(evt) {
        const data = evt.target.data();
        if (!data.origin) selectOwner(data.owner);
      });

      document.querySelectorAll('#legend .owner').forEach(function(el) {
        el.addEventListener('click', function() {
          selectOwner(el.dataset.owner);
        });
      });

      // Click on empty space to reset
      cy.on('tap', function(evt) {
        if (evt.target === cy) {
          selectOwner('');
        }
      });

      if (initialOwner) selectOwner(initialOwner);
    })();
  </script>
</body>
</html>`
