package monitor

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/particle.report/internal/particle/l3objects"
	"github.com/banshee-data/particle.report/internal/particle/pipeline"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// TallyChart builds a bar chart of particle counts in display order.
func TallyChart(tally map[l3objects.PartType]int) *charts.Bar {
	x := make([]string, 0, len(l3objects.AllPartTypes))
	y := make([]opts.BarData, 0, len(l3objects.AllPartTypes))
	total := 0
	for _, pt := range l3objects.AllPartTypes {
		x = append(x, pt.String())
		y = append(y, opts.BarData{
			Name:      pt.String(),
			Value:     tally[pt],
			ItemStyle: &opts.ItemStyle{Color: TypeColor(pt).Hex()},
		})
		total += tally[pt]
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Particle tally", Width: "900px", Height: "500px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Particle tally", Subtitle: fmt.Sprintf("%d tracks", total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("count", y,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}

// TracksChart builds a scatter of the tracks at the given indices: x is the
// column, y the row (inverted), and the third value the cell energy. A
// result without a grid gives an empty chart.
func TracksChart(res *pipeline.Result, visible []int) *charts.Scatter {
	rows, cols := 0, 0
	if res.Grid != nil {
		rows, cols = res.Grid.Rows(), res.Grid.Cols()
	} else {
		visible = nil
	}

	byType := make(map[l3objects.PartType][]opts.ScatterData, len(l3objects.AllPartTypes))
	for _, i := range visible {
		if i < 0 || i >= len(res.Particles) {
			continue
		}
		p := res.Particles[i]
		pt := res.Summaries[i].Type
		for _, c := range p.Track() {
			byType[pt] = append(byType[pt], opts.ScatterData{
				Name:  fmt.Sprintf("track %d", p.ID()),
				Value: []interface{}{c.Col, c.Row, res.Grid.AtCoord(c)},
			})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Particle tracks", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Particle tracks", Subtitle: fmt.Sprintf("showing %d of %d", len(visible), len(res.Particles))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: max(cols-1, 0), Name: "Column", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: max(rows-1, 0), Name: "Row", NameLocation: "middle", NameGap: 30, Inverse: opts.Bool(true)}),
	)
	for _, pt := range l3objects.AllPartTypes {
		data := byType[pt]
		if len(data) == 0 {
			continue
		}
		scatter.AddSeries(pt.String(), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: TypeColor(pt).Hex()}),
		)
	}
	return scatter
}

// renderer is implemented by every go-echarts chart.
type renderer interface {
	Render(w io.Writer) error
}

// RenderChart writes a chart's HTML page to w.
func RenderChart(w io.Writer, c renderer) error {
	if err := c.Render(w); err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	return nil
}
