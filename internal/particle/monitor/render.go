package monitor

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/particle.report/internal/fsutil"
	"github.com/banshee-data/particle.report/internal/monitoring"
	"github.com/banshee-data/particle.report/internal/particle/l3objects"
	"github.com/banshee-data/particle.report/internal/particle/pipeline"
)

// minPlotSide keeps tiny grids readable.
const minPlotSide = 4 * vg.Inch

// Renderer draws classified tracks as a PNG scatter plot, one series per
// particle type, with rows increasing downwards like the source grid.
type Renderer struct {
	// Scale is the plot size of one grid cell, in points.
	Scale int
}

// NewRenderer creates a renderer with scale points per cell (minimum 1).
func NewRenderer(scale int) *Renderer {
	return &Renderer{Scale: max(scale, 1)}
}

// Plot builds the plot for the tracks at the given indices of res.
func (r *Renderer) Plot(res *pipeline.Result, visible []int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Particle tracks (%d of %d)", len(visible), len(res.Particles))
	p.X.Label.Text = "Column"
	p.Y.Label.Text = "Row"
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	p.Legend.Top = true

	byType := make(map[l3objects.PartType]plotter.XYs, len(l3objects.AllPartTypes))
	for _, i := range visible {
		if i < 0 || i >= len(res.Particles) {
			return nil, fmt.Errorf("track index %d out of range", i)
		}
		pt := res.Summaries[i].Type
		for _, c := range res.Particles[i].Track() {
			byType[pt] = append(byType[pt], plotter.XY{X: float64(c.Col), Y: float64(c.Row)})
		}
	}

	for _, pt := range l3objects.AllPartTypes {
		xys := byType[pt]
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("%s scatter: %w", pt, err)
		}
		s.GlyphStyle.Color = TypeColor(pt)
		s.GlyphStyle.Shape = draw.BoxGlyph{}
		s.GlyphStyle.Radius = vg.Points(float64(r.Scale) / 2)
		p.Add(s)
		p.Legend.Add(pt.String(), s)
	}

	if res.Grid != nil {
		p.X.Min, p.X.Max = 0, float64(max(res.Grid.Cols()-1, 1))
		p.Y.Min, p.Y.Max = 0, float64(max(res.Grid.Rows()-1, 1))
	}
	return p, nil
}

// size returns the canvas size for res.
func (r *Renderer) size(res *pipeline.Result) (w, h vg.Length) {
	w, h = minPlotSide, minPlotSide
	if res.Grid != nil {
		w = max(w, vg.Points(float64(res.Grid.Cols()*r.Scale)))
		h = max(h, vg.Points(float64(res.Grid.Rows()*r.Scale)))
	}
	return w, h
}

// WritePNG renders the visible tracks of res as PNG to out.
func (r *Renderer) WritePNG(out io.Writer, res *pipeline.Result, visible []int) error {
	p, err := r.Plot(res, visible)
	if err != nil {
		return err
	}
	w, h := r.size(res)
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}

// SavePNG renders the visible tracks of res to path on fsys.
func (r *Renderer) SavePNG(fsys fsutil.FileSystem, path string, res *pipeline.Result, visible []int) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.WritePNG(f, res, visible); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	monitoring.Logf("[monitor] wrote %s (%d tracks)", path, len(visible))
	return nil
}
