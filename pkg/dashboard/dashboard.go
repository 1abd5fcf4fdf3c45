// Package dashboard holds the state of one viewer session: the session
// selection cascade, fetched data, lap picks and the shared view state.
package dashboard

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/championship"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
	"github.com/mpapenbr/beyond-the-apex/pkg/selection"
	"github.com/mpapenbr/beyond-the-apex/pkg/telemetry/series"
	"github.com/mpapenbr/beyond-the-apex/pkg/utils/broadcast"
	"github.com/mpapenbr/beyond-the-apex/pkg/view/hover"
	"github.com/mpapenbr/beyond-the-apex/pkg/view/zoom"
)

var ErrNotFound = errors.New("not found")

// Source delivers the data of the remote analysis service
type Source interface {
	Years(ctx context.Context) ([]int, error)
	Races(ctx context.Context, year int) ([]string, error)
	Sessions(ctx context.Context, year int, race string) ([]string, error)
	LapDistribution(ctx context.Context, req model.LapRequest) (*model.LapDistribution, error)
	DetailTelemetry(ctx context.Context, req model.DetailRequest) (*model.DetailTelemetry, error)
	Standings(ctx context.Context, year int) (*model.Standings, error)
	Schedule(ctx context.Context, year int) (model.Schedule, error)
}

type Option func(*Dashboard)

// WithMetrics sets the telemetry charts shown for detailed telemetry
func WithMetrics(keys ...string) Option {
	return func(d *Dashboard) {
		d.metrics = keys
	}
}

func WithDrivers(drivers string) Option {
	return func(d *Dashboard) {
		d.drivers = model.ParseDrivers(drivers)
	}
}

func WithName(name string) Option {
	return func(d *Dashboard) {
		d.name = name
	}
}

type Dashboard struct {
	mu   sync.Mutex
	name string
	src  Source

	years    []int
	races    []string
	sessions []string
	sel      model.SessionRef
	drivers  []string
	cascade  uint64

	loadToken uint64
	loading   bool
	errMsg    string
	laps      *model.LapDistribution
	fastest   *model.DetailTelemetry
	picks     *selection.Machine
	metrics   []string

	hover      *hover.Synchronizer
	crosshairs map[string]*hover.Crosshair
	track      *hover.TrackHighlight
	zoom       *zoom.Registry
	viewports  map[string]*zoom.Viewport

	seasonToken uint64
	seasonYear  int
	predictor   *championship.Predictor

	version     uint64
	pubMu       sync.Mutex
	closed      bool
	updates     chan Update
	broadcaster broadcast.BroadcastServer[Update]

	tracer trace.Tracer
	log    *log.Logger
}

func New(src Source, opts ...Option) *Dashboard {
	d := &Dashboard{
		name:       "dashboard",
		src:        src,
		drivers:    []string{},
		picks:      selection.New(),
		metrics:    series.MetricKeys(),
		hover:      hover.NewSynchronizer(),
		crosshairs: map[string]*hover.Crosshair{},
		track:      hover.NewTrackHighlight(),
		zoom:       zoom.NewRegistry(),
		viewports:  map[string]*zoom.Viewport{},
		updates:    make(chan Update, 32),
		tracer:     otel.Tracer("bta"),
		log:        log.Default().Named("dashboard"),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, m := range d.metrics {
		c := hover.NewCrosshair(m)
		c.Attach(d.hover)
		d.crosshairs[m] = c
		d.viewports[m] = zoom.NewViewport(zoom.Window{})
		d.zoom.Register(m)
	}
	d.track.Attach(d.hover)
	d.hover.Subscribe(func(hover.Index) {
		d.publish(Update{Type: UpdateHover, Hover: d.hoverState()})
	})
	d.broadcaster = broadcast.NewBroadcastServer[Update](d.name, "dashboard", d.updates,
		broadcast.WithBuffer[Update](8))
	return d
}

// Subscribe returns a channel receiving all updates of the dashboard
func (d *Dashboard) Subscribe() <-chan Update {
	return d.broadcaster.Subscribe()
}

func (d *Dashboard) Unsubscribe(ch <-chan Update) {
	d.broadcaster.CancelSubscription(ch)
}

func (d *Dashboard) Close() {
	d.pubMu.Lock()
	if d.closed {
		d.pubMu.Unlock()
		return
	}
	d.closed = true
	d.pubMu.Unlock()
	d.broadcaster.Close()
}

func (d *Dashboard) publish(u Update) {
	d.pubMu.Lock()
	defer d.pubMu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.updates <- u:
	default:
		d.log.Debug("update dropped", log.String("type", string(u.Type)))
	}
}

// publishSnapshot sends the current state to all subscribers.
// Must not be called while holding d.mu.
func (d *Dashboard) publishSnapshot() {
	s := d.Snapshot()
	d.publish(Update{Type: UpdateSnapshot, Snapshot: &s})
}
