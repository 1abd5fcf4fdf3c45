package dashboard

import (
	"context"
	"slices"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/fetch"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
	"github.com/mpapenbr/beyond-the-apex/pkg/racestints"
	"github.com/mpapenbr/beyond-the-apex/pkg/selection"
	"github.com/mpapenbr/beyond-the-apex/pkg/telemetry/series"
	"github.com/mpapenbr/beyond-the-apex/pkg/view/hover"
	"github.com/mpapenbr/beyond-the-apex/pkg/view/zoom"
)

// Load runs the main action for the selected session. Qualifying sessions
// load the fastest lap of every driver, other sessions the lap distribution.
// Previous data, errors and lap picks are discarded.
// Without a complete selection or drivers nothing happens.
//
//nolint:funlen // sequential steps
func (d *Dashboard) Load(ctx context.Context) error {
	d.mu.Lock()
	if !d.sel.IsComplete() || len(d.drivers) == 0 {
		d.mu.Unlock()
		d.log.Debug("load ignored, incomplete selection")
		return nil
	}
	d.resetSessionData()
	d.loading = true
	tok := d.loadToken
	ref := d.sel
	drivers := slices.Clone(d.drivers)
	d.mu.Unlock()
	d.publishSnapshot()

	kind := model.KindOf(ref.Session)
	ctx, span := d.tracer.Start(ctx, "dashboard.Load",
		trace.WithAttributes(
			attribute.String("session", ref.Session),
			attribute.String("kind", kind.String())))
	defer span.End()

	var (
		dist   *model.LapDistribution
		detail *model.DetailTelemetry
		err    error
	)
	if kind == model.KindQualifying {
		detail, err = d.src.DetailTelemetry(ctx, model.DetailRequest{SessionRef: ref, Drivers: drivers})
	} else {
		dist, err = d.src.LapDistribution(ctx, model.LapRequest{SessionRef: ref, Drivers: drivers})
	}

	d.mu.Lock()
	if tok != d.loadToken {
		d.mu.Unlock()
		d.log.Debug("drop stale load result")
		return nil
	}
	d.loading = false
	switch {
	case err != nil:
		d.errMsg = fetch.Message(err)
		d.log.Warn("load failed", log.ErrorField(err))
	case detail != nil:
		d.fastest = detail
		d.setDataset(detail)
	case dist != nil:
		d.laps = d.completeDistribution(dist)
	}
	d.mu.Unlock()
	d.publishSnapshot()
	return err
}

// completeDistribution fills stints and insights the service did not deliver
func (d *Dashboard) completeDistribution(dist *model.LapDistribution) *model.LapDistribution {
	if len(dist.Stints) == 0 && len(dist.Laps) > 0 {
		dist.Stints = racestints.Derive(dist.Laps)
	}
	for driver := range dist.Stints {
		laps := lo.FilterMap(dist.Laps, func(l model.Lap, _ int) (int, bool) {
			return l.LapNumber, l.Driver == driver
		})
		if err := racestints.Validate(dist.DriverStints(driver), laps); err != nil {
			d.log.Warn("inconsistent stints", log.String("driver", driver), log.ErrorField(err))
		}
	}
	if len(dist.Insights) == 0 {
		dist.Insights = racestints.Insights(dist)
	}
	return dist
}

// ToggleLap adds or removes a lap of the lap distribution from the
// comparison and fetches the detailed telemetry of the remaining picks.
// Results of superseded picks are dropped.
func (d *Dashboard) ToggleLap(ctx context.Context, driver string, lap int) error {
	d.mu.Lock()
	if d.laps == nil || !slices.ContainsFunc(d.laps.Laps, func(l model.Lap) bool {
		return l.Driver == driver && l.LapNumber == lap
	}) {
		d.mu.Unlock()
		return ErrNotFound
	}
	ticket, ok := d.picks.Toggle(driver, lap)
	ref := d.sel
	drivers := slices.Clone(d.drivers)
	d.errMsg = ""
	d.loading = ok
	if !ok {
		d.setDataset(nil)
	}
	d.mu.Unlock()
	d.publishSnapshot()
	if !ok {
		return nil
	}
	return d.fetchPicks(ctx, ticket, ref, drivers)
}

// ToggleLapAt toggles the lap shown at index of the lap scatter
func (d *Dashboard) ToggleLapAt(ctx context.Context, index int) error {
	d.mu.Lock()
	if d.laps == nil || index < 0 || index >= len(d.laps.Laps) {
		d.mu.Unlock()
		return ErrNotFound
	}
	l := d.laps.Laps[index]
	d.mu.Unlock()
	return d.ToggleLap(ctx, l.Driver, l.LapNumber)
}

func (d *Dashboard) fetchPicks(
	ctx context.Context,
	ticket selection.Ticket,
	ref model.SessionRef,
	drivers []string,
) error {
	ctx, span := d.tracer.Start(ctx, "dashboard.fetchPicks",
		trace.WithAttributes(attribute.Int("picks", len(ticket.Picks))))
	defer span.End()

	// picked drivers outside the driver list are requested as well
	drivers = lo.Uniq(append(drivers, lo.Map(ticket.Picks, func(p model.LapRef, _ int) string {
		return p.Driver
	})...))
	detail, err := d.src.DetailTelemetry(ctx, model.DetailRequest{
		SessionRef: ref,
		Drivers:    drivers,
		Laps:       ticket.Picks,
	})

	d.mu.Lock()
	outcome := d.picks.Resolve(ticket.Token, detail, err)
	span.SetAttributes(attribute.String("outcome", outcome.String()))
	switch outcome {
	case selection.OutcomeApplied:
		d.loading = false
		d.setDataset(detail)
	case selection.OutcomeFailed:
		d.loading = false
		d.errMsg = fetch.Message(err)
	case selection.OutcomeStale:
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()
	d.publishSnapshot()
	return err
}

// ClearData removes the detailed telemetry and all lap picks.
// The lap distribution stays available.
func (d *Dashboard) ClearData() {
	d.mu.Lock()
	d.picks.Clear()
	d.fastest = nil
	d.loading = false
	d.setDataset(nil)
	d.mu.Unlock()
	d.publishSnapshot()
}

// currentDetail is the detailed telemetry on display.
// Caller must hold d.mu.
func (d *Dashboard) currentDetail() *model.DetailTelemetry {
	if d.fastest != nil {
		return d.fastest
	}
	return d.picks.Detail()
}

// setDataset replaces the telemetry shown in charts and on the track map.
// Caller must hold d.mu.
func (d *Dashboard) setDataset(detail *model.DetailTelemetry) {
	d.hover.ReplaceDataset()
	if detail == nil || len(detail.Drivers) == 0 {
		d.track.SetTrace(nil)
		for _, m := range d.metrics {
			d.crosshairs[m].SetLabels(nil)
			if ref, ok := d.zoom.Lookup(m); ok {
				ref.Unmount()
			}
		}
		return
	}
	ref := detail.Drivers[0].Telemetry
	samples := ref.Samples()
	d.track.SetTrace(samples)
	labels := series.Labels(detail.Drivers)
	extent := zoom.Window{}
	if len(samples) > 0 {
		extent = zoom.Window{Min: samples[0].Distance, Max: samples[len(samples)-1].Distance}
	}
	for _, m := range d.metrics {
		d.crosshairs[m].SetLabels(labels)
		d.viewports[m].SetExtent(extent)
		if r, ok := d.zoom.Lookup(m); ok {
			r.Mount(d.viewports[m])
		}
	}
}

// HoverAt sets the hovered sample index. A negative index clears the hover.
func (d *Dashboard) HoverAt(index int) {
	if index < 0 {
		d.hover.Clear()
		return
	}
	d.hover.Set(index)
}

// HoverDistance hovers the sample nearest to distance on the reference trace
func (d *Dashboard) HoverDistance(distance float64) {
	d.mu.Lock()
	var distances []float64
	if det := d.currentDetail(); det != nil && len(det.Drivers) > 0 {
		distances = det.Drivers[0].Telemetry.Get(model.ChannelDistance)
	}
	d.mu.Unlock()
	if idx := hover.NearestIndex(distances, distance); idx >= 0 {
		d.hover.Set(idx)
	}
}

func (d *Dashboard) ClearHover() {
	d.hover.Clear()
}

// Zoom narrows the visible range of one chart
func (d *Dashboard) Zoom(chart string, from, to float64) error {
	v, ok := d.viewports[chart]
	if !ok {
		return ErrNotFound
	}
	v.Zoom(from, to)
	d.publishSnapshot()
	return nil
}

func (d *Dashboard) Pan(chart string, delta float64) error {
	v, ok := d.viewports[chart]
	if !ok {
		return ErrNotFound
	}
	v.Pan(delta)
	d.publishSnapshot()
	return nil
}

// ResetZoom resets all charts currently showing data
func (d *Dashboard) ResetZoom() int {
	n := d.zoom.ResetAll()
	d.publishSnapshot()
	return n
}
