// Package series turns per-driver channel arrays into chart series.
package series

import (
	"math"

	"github.com/samber/lo"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

// Palette is cycled by driver position when there are more drivers than colors
var Palette = []string{
	"#36a2eb", // blue
	"#ff6384", // red
	"#4bc0c0",
	"#ff9f40",
	"#9966ff",
	"#ffcd56",
	"#c9cbcf",
	"#2ecc71",
}

// fillAlpha is appended to a hex color to get the translucent area fill
const fillAlpha = "33"

type Metric struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Unit  string `json:"unit"`
}

// Metrics lists the charts of the telemetry view in display order
var Metrics = []Metric{
	{Key: model.ChannelSpeed, Title: "Speed Trace", Unit: "(km/h)"},
	{Key: model.ChannelThrottle, Title: "Throttle Application", Unit: "(%)"},
	{Key: model.ChannelBrake, Title: "Brake Pressure", Unit: "(%)"},
	{Key: model.ChannelRPM, Title: "Engine RPM"},
	{Key: model.ChannelGear, Title: "Gear Usage"},
	{Key: model.ChannelLongG, Title: "Longitudinal G", Unit: "(g)"},
	{Key: model.ChannelDelta, Title: "Delta To Pole", Unit: "(s)"},
}

func MetricKeys() []string {
	return lo.Map(Metrics, func(m Metric, _ int) string { return m.Key })
}

// LookupMetric returns the descriptor of a metric. Unknown keys get the
// key as title and no unit.
func LookupMetric(key string) Metric {
	if m, ok := lo.Find(Metrics, func(m Metric) bool { return m.Key == key }); ok {
		return m
	}
	return Metric{Key: key, Title: key}
}

type Series struct {
	Name      string    `json:"name"`
	Key       string    `json:"key"` // driver key of the payload
	Color     string    `json:"color"`
	FillColor string    `json:"fillColor"`
	Data      []float64 `json:"data"`
}

type Chart struct {
	Metric Metric   `json:"metric"`
	Labels []int    `json:"labels"`
	Series []Series `json:"series"`
}

// ColorFor returns the palette color of the driver at position idx
func ColorFor(idx int) string {
	if idx < 0 {
		idx = -idx
	}
	return Palette[idx%len(Palette)]
}

// Labels derives the shared x axis from the distance channel of the first
// driver. Every chart uses the same labels so the charts stay aligned.
func Labels(drivers model.DriverLaps) []int {
	if len(drivers) == 0 {
		return []int{}
	}
	dist := drivers[0].Telemetry.Get(model.ChannelDistance)
	return lo.Map(dist, func(d float64, _ int) int { return int(math.Round(d)) })
}

// Build creates one series per driver for the given metric.
// A driver without the channel gets an empty series, it is never dropped.
// Series of different lengths are kept as they are.
func Build(drivers model.DriverLaps, metric string) Chart {
	return build(drivers, metric, Labels(drivers))
}

// BuildAll builds the charts of all metrics, deriving the labels once.
func BuildAll(drivers model.DriverLaps, metrics []string) []Chart {
	labels := Labels(drivers)
	return lo.Map(metrics, func(m string, _ int) Chart {
		return build(drivers, m, labels)
	})
}

func build(drivers model.DriverLaps, metric string, labels []int) Chart {
	desc := LookupMetric(metric)
	ret := Chart{
		Metric: desc,
		Labels: labels,
		Series: make([]Series, 0, len(drivers)),
	}
	for i := range drivers {
		color := ColorFor(i)
		name := drivers[i].Key
		if desc.Unit != "" {
			name += " " + desc.Unit
		}
		values := drivers[i].Telemetry.Get(metric)
		data := make([]float64, len(values))
		copy(data, values)
		ret.Series = append(ret.Series, Series{
			Name:      name,
			Key:       drivers[i].Key,
			Color:     color,
			FillColor: color + fillAlpha,
			Data:      data,
		})
	}
	return ret
}

// ValueAt returns the value of the series at a sample index, false if the
// series is shorter.
func (s Series) ValueAt(idx int) (float64, bool) {
	if idx < 0 || idx >= len(s.Data) {
		return 0, false
	}
	return s.Data[idx], true
}
