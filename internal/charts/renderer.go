// Package charts renders grouped-metric bar charts as PNG artifacts.
//
// Chart generation is a collaborator of the query engine, not core logic:
// it writes an image to the configured directory and hands back a reference
// path the web layer can serve.
package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"factorygpt/internal/engine"
)

// Renderer writes chart PNGs into a directory and returns web paths under
// the given URL prefix.
type Renderer struct {
	dir       string
	urlPrefix string
}

// NewRenderer creates a Renderer, ensuring the artifact directory exists.
func NewRenderer(dir, urlPrefix string) (*Renderer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}
	return &Renderer{
		dir:       dir,
		urlPrefix: strings.TrimRight(urlPrefix, "/"),
	}, nil
}

// Render draws a bar chart of the points and writes it as
// <metric>_by_<grouping>_<uuid>.png. The UUID doubles as a cache-busting
// marker, so each render of the same metric/grouping combination gets a
// fresh, uniquely named artifact.
func (r *Renderer) Render(metric, grouping string, points []engine.ChartPoint) (string, error) {
	if len(points) == 0 {
		return "", fmt.Errorf("no points to chart")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s by %s", metric, grouping)
	p.Y.Label.Text = metric
	p.X.Tick.Label.Rotation = 0.5

	values := make(plotter.Values, len(points))
	labels := make([]string, len(points))
	for i, pt := range points {
		values[i] = pt.Value
		labels[i] = pt.Label
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return "", fmt.Errorf("build bar chart: %w", err)
	}
	p.Add(bars)
	p.NominalX(labels...)

	name := fmt.Sprintf("%s_by_%s_%s.png", slug(metric), slug(grouping), uuid.NewString())
	path := filepath.Join(r.dir, name)
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save chart: %w", err)
	}

	return r.urlPrefix + "/" + name, nil
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
