// Package render turns dashboard snapshots into HTML chart pages and
// track map images.
package render

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"

	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
	"github.com/mpapenbr/beyond-the-apex/pkg/telemetry/series"
	"github.com/mpapenbr/beyond-the-apex/pkg/view/zoom"
)

var ErrNothingToRender = errors.New("nothing to render")

const chartHeight = "320px"

// TelemetryPage renders one line chart per metric. All charts share the
// distance axis, the current zoom window is applied as data zoom.
func TelemetryPage(w io.Writer, title string, tv *dashboard.TelemetryView) error {
	if tv == nil || len(tv.Charts) == 0 {
		return ErrNothingToRender
	}
	page := components.NewPage()
	page.PageTitle = title
	for _, c := range tv.Charts {
		page.AddCharts(telemetryChart(c, tv.Zoom[c.Metric.Key]))
	}
	return page.Render(w)
}

func telemetryChart(c series.Chart, win zoom.Window) *charts.Line {
	line := charts.NewLine()
	start, end := zoomPercent(c.Labels, win)
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: c.Metric.Title, Subtitle: c.Metric.Unit}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside", Start: start, End: end}),
	)
	line.SetXAxis(c.Labels)
	for _, s := range c.Series {
		data := lo.Map(s.Data, func(v float64, _ int) opts.LineData {
			return opts.LineData{Value: v}
		})
		line.AddSeries(s.Name, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: s.Color}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: s.Color, Width: 1.5}),
		)
	}
	return line
}

// zoomPercent converts a window on the distance axis to the percentages
// used by the data zoom component.
func zoomPercent(labels []int, win zoom.Window) (start, end float32) {
	if len(labels) < 2 || win.Span() <= 0 {
		return 0, 100
	}
	v := zoom.NewViewport(zoom.Window{
		Min: float64(labels[0]),
		Max: float64(labels[len(labels)-1]),
	})
	v.Zoom(win.Min, win.Max)
	return v.Percent()
}

// LapScatter renders the lap times of a lap distribution, one scatter
// series per driver. Picked laps are drawn larger.
func LapScatter(w io.Writer, title string, lv *dashboard.LapView) error {
	if lv == nil || len(lv.Points) == 0 {
		return ErrNothingToRender
	}
	scatter := charts.NewScatter()
	subtitle := ""
	if lv.RaceWinner != "" {
		subtitle = fmt.Sprintf("%s: %s", lo.CoalesceOrEmpty(lv.WinnerLabel, "Winner"), lv.RaceWinner)
	}
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Lap", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Lap Time (s)", Type: "value", Scale: opts.Bool(true)}),
	)
	groups := lo.GroupBy(lv.Points, func(p dashboard.LapPoint) string { return p.Driver })
	drivers := lo.Uniq(lo.Map(lv.Points, func(p dashboard.LapPoint, _ int) string { return p.Driver }))
	for _, driver := range drivers {
		points := groups[driver]
		data := lo.Map(points, func(p dashboard.LapPoint, _ int) opts.ScatterData {
			size := 8
			if p.Picked {
				size = 14
			}
			return opts.ScatterData{
				Name:       fmt.Sprintf("%s L%d %s", p.Driver, p.Lap, p.Symbol),
				Value:      []any{p.Lap, p.Seconds},
				SymbolSize: size,
			}
		})
		scatter.AddSeries(driver, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: points[0].Color}))
	}
	return scatter.Render(w)
}

// StandingsBar renders current and projected points of the drivers'
// championship side by side.
func StandingsBar(w io.Writer, title string, sv *dashboard.SeasonView) error {
	if sv == nil || len(sv.Projected.Drivers) == 0 {
		return ErrNothingToRender
	}
	base := map[string]float64{}
	for _, d := range sv.Base.Drivers {
		base[d.Code] = d.Points.InexactFloat64()
	}
	codes := lo.Map(sv.Projected.Drivers, func(d model.DriverStanding, _ int) string { return d.Code })
	current := lo.Map(codes, func(c string, _ int) opts.BarData { return opts.BarData{Value: base[c]} })
	projected := lo.Map(sv.Projected.Drivers, func(d model.DriverStanding, _ int) opts.BarData {
		return opts.BarData{Value: d.Points.InexactFloat64()}
	})

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("Season %d", sv.Year)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10"}),
	)
	bar.SetXAxis(codes).
		AddSeries("Current", current).
		AddSeries("Projected", projected,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar.Render(w)
}
