package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/trajplan/core/arctime"
	"github.com/kilianp07/trajplan/core/geom"
	"github.com/kilianp07/trajplan/core/motion"
)

// ArcTimeChart draws forbidden regions and a profile in the arc-time plane.
type ArcTimeChart struct {
	Title   string
	Regions []arctime.ForbiddenRegion
	// Profile may be empty for infeasible plans.
	Profile motion.ArcTimePath
}

// Render writes the chart as a standalone HTML page.
func (c ArcTimeChart) Render(w io.Writer) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "900px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: fmt.Sprintf("regions=%d", len(c.Regions))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "arc", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "seconds", NameLocation: "middle", NameGap: 30}),
	)
	for _, r := range c.Regions {
		name := fmt.Sprintf("obstacle %d", r.Index)
		for _, piece := range r.Pieces {
			line.AddSeries(name, ring(piece),
				charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
				charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.3)}),
			)
		}
	}
	if !c.Profile.IsEmpty() {
		data := make([]opts.LineData, 0, c.Profile.Len())
		for _, v := range c.Profile.Points() {
			data = append(data, opts.LineData{Value: []interface{}{v.X, v.Y}})
		}
		line.AddSeries("profile", data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	}
	return line.Render(w)
}

// ring closes the polygon so the outline is drawn completely.
func ring(poly geom.Polygon) []opts.LineData {
	out := make([]opts.LineData, 0, len(poly)+1)
	for _, v := range poly {
		out = append(out, opts.LineData{Value: []interface{}{v.X, v.Y}})
	}
	if len(poly) > 0 {
		out = append(out, opts.LineData{Value: []interface{}{poly[0].X, poly[0].Y}})
	}
	return out
}
