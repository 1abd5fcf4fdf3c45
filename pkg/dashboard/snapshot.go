package dashboard

import (
	"slices"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
	"github.com/mpapenbr/beyond-the-apex/pkg/telemetry/sector"
	"github.com/mpapenbr/beyond-the-apex/pkg/telemetry/series"
	"github.com/mpapenbr/beyond-the-apex/pkg/view/zoom"
)

type UpdateType string

const (
	UpdateSnapshot UpdateType = "snapshot"
	UpdateHover    UpdateType = "hover"
)

// Update is sent to subscribers. Hover updates only carry the hover state.
type Update struct {
	Type     UpdateType  `json:"type"`
	Snapshot *Snapshot   `json:"snapshot,omitempty"`
	Hover    *HoverState `json:"hover,omitempty"`
}

type HoverState struct {
	Active bool                   `json:"active"`
	Index  int                    `json:"index"`
	Labels map[string]int         `json:"labels,omitempty"` // chart -> x label
	Track  *model.TelemetrySample `json:"track,omitempty"`
}

type LapPoint struct {
	Index    int            `json:"index"`
	Driver   string         `json:"driver"`
	Lap      int            `json:"lap"`
	Seconds  float64        `json:"seconds"`
	Compound model.Compound `json:"compound"`
	Symbol   string         `json:"symbol"`
	Color    string         `json:"color"`
	Picked   bool           `json:"picked"`
}

type LapView struct {
	Points      []LapPoint               `json:"points"`
	Stints      map[string][]model.Stint `json:"stints"`
	RaceWinner  string                   `json:"raceWinner,omitempty"`
	WinnerLabel string                   `json:"winnerLabel,omitempty"`
}

type TelemetryView struct {
	Keys        []string               `json:"keys"`
	Labels      []int                  `json:"labels"`
	Charts      []series.Chart         `json:"charts"`
	Zoom        map[string]zoom.Window `json:"zoom"`
	Track       sector.Result          `json:"track"`
	Sectors     [][]sector.Highlight   `json:"sectors"`
	SectorTimes [][]float64            `json:"sectorTimes"`
	TrackLength float64                `json:"trackLength"`
	Pole        *model.PoleInfo        `json:"pole,omitempty"`
}

type SeasonView struct {
	Year        int               `json:"year"`
	Base        model.Standings   `json:"base"`
	Projected   model.Standings   `json:"projected"`
	Rounds      model.Schedule    `json:"rounds"`
	Predictions model.Predictions `json:"predictions"`
}

// Snapshot is the complete render state of a dashboard
type Snapshot struct {
	Version   uint64           `json:"version"`
	Years     []int            `json:"years"`
	Races     []string         `json:"races"`
	Sessions  []string         `json:"sessions"`
	Selection model.SessionRef `json:"selection"`
	Drivers   []string         `json:"drivers"`
	Kind      string           `json:"kind"`
	Loading   bool             `json:"loading"`
	Error     string           `json:"error,omitempty"`
	Picks     []model.LapRef   `json:"picks"`
	PickState string           `json:"pickState"`
	Laps      *LapView         `json:"laps,omitempty"`
	Telemetry *TelemetryView   `json:"telemetry,omitempty"`
	Weather   *model.Weather   `json:"weather,omitempty"`
	Insights  []string         `json:"insights"`
	Hover     *HoverState      `json:"hover,omitempty"`
	Season    *SeasonView      `json:"season,omitempty"`
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version++
	s := Snapshot{
		Version:   d.version,
		Years:     slices.Clone(d.years),
		Races:     slices.Clone(d.races),
		Sessions:  slices.Clone(d.sessions),
		Selection: d.sel,
		Drivers:   slices.Clone(d.drivers),
		Kind:      model.KindOf(d.sel.Session).String(),
		Loading:   d.loading,
		Error:     d.errMsg,
		Picks:     d.picks.Picks(),
		PickState: d.picks.State().String(),
		Insights:  []string{},
		Hover:     d.hoverState(),
	}
	if d.laps != nil {
		s.Laps = d.lapView()
		s.Weather = d.laps.Weather
		s.Insights = append(s.Insights, d.laps.Insights...)
	}
	if det := d.currentDetail(); det != nil {
		s.Telemetry = d.telemetryView(det)
		if det.Weather != nil {
			s.Weather = det.Weather
		}
		// detail insights replace the distribution insights
		if len(det.Insights) > 0 {
			s.Insights = slices.Clone(det.Insights)
		}
	}
	if d.predictor != nil {
		s.Season = &SeasonView{
			Year:        d.seasonYear,
			Base:        d.predictor.Base(),
			Projected:   d.predictor.Standings(),
			Rounds:      d.predictor.Rounds(),
			Predictions: d.predictor.Predictions(),
		}
	}
	return s
}

// Detail returns the detailed telemetry on display or nil
func (d *Dashboard) Detail() *model.DetailTelemetry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.currentDetail()
}

// LapDistribution returns the loaded lap distribution or nil
func (d *Dashboard) LapDistribution() *model.LapDistribution {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.laps
}

// Caller must hold d.mu.
func (d *Dashboard) lapView() *LapView {
	colors := map[string]string{}
	for _, l := range d.laps.Laps {
		if _, ok := colors[l.Driver]; !ok {
			colors[l.Driver] = series.ColorFor(len(colors))
		}
	}
	ret := &LapView{
		Points:      make([]LapPoint, len(d.laps.Laps)),
		Stints:      d.laps.Stints,
		RaceWinner:  d.laps.RaceWinner,
		WinnerLabel: d.laps.WinnerLabel,
	}
	for i, l := range d.laps.Laps {
		ret.Points[i] = LapPoint{
			Index:    i,
			Driver:   l.Driver,
			Lap:      l.LapNumber,
			Seconds:  l.LapTimeSeconds,
			Compound: l.Compound,
			Symbol:   l.Compound.Symbol(),
			Color:    colors[l.Driver],
			Picked:   d.picks.IsPicked(l.Driver, l.LapNumber),
		}
	}
	return ret
}

// Caller must hold d.mu.
func (d *Dashboard) telemetryView(det *model.DetailTelemetry) *TelemetryView {
	ret := &TelemetryView{
		Keys:        det.Drivers.Keys(),
		Labels:      series.Labels(det.Drivers),
		Charts:      series.BuildAll(det.Drivers, d.metrics),
		Zoom:        map[string]zoom.Window{},
		TrackLength: det.TrackLength,
		Pole:        det.PoleInfo,
		SectorTimes: make([][]float64, len(det.Drivers)),
	}
	for _, m := range d.metrics {
		ret.Zoom[m] = d.viewports[m].Window()
	}
	for i, dl := range det.Drivers {
		ret.SectorTimes[i] = dl.Sectors
	}
	ret.Sectors = sector.Compare(ret.SectorTimes, det.SessionBestSectors)
	if len(det.Drivers) > 0 {
		var opts []sector.Option
		if idx, ok := d.track.Index(); ok {
			opts = append(opts, sector.WithHighlight(idx))
		}
		ret.Track = sector.Segment(det.Drivers[0].Telemetry.Samples(), det.TrackLength, opts...)
	}
	return ret
}

// hoverState collects the hover position from the view consumers.
// It must not lock d.mu since hover listeners run while d.mu is held.
func (d *Dashboard) hoverState() *HoverState {
	idx, ok := d.hover.Active()
	if !ok {
		return &HoverState{Active: false}
	}
	ret := &HoverState{Active: true, Index: idx, Labels: map[string]int{}}
	for _, m := range d.metrics {
		if _, label, ok := d.crosshairs[m].Position(); ok {
			ret.Labels[m] = label
		}
	}
	if sample, ok := d.track.Sample(); ok {
		ret.Track = &sample
	}
	return ret
}
