package hover

import (
	"sync"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

// Crosshair is the hover state of a single chart.
type Crosshair struct {
	Chart  string
	mu     sync.Mutex
	labels []int
	idx    Index
}

func NewCrosshair(chart string) *Crosshair {
	return &Crosshair{Chart: chart}
}

// Attach subscribes the crosshair to s.
func (c *Crosshair) Attach(s *Synchronizer) (detach func()) {
	return s.Subscribe(func(i Index) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.idx = i
	})
}

func (c *Crosshair) SetLabels(labels []int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.labels = labels
}

// Position returns the hovered index and its x axis label.
// ok is false when nothing is hovered or the index is outside the labels.
func (c *Crosshair) Position() (idx, label int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.idx.Valid || c.idx.Value >= len(c.labels) {
		return 0, 0, false
	}
	return c.idx.Value, c.labels[c.idx.Value], true
}

// TrackHighlight is the hover marker on the track map.
type TrackHighlight struct {
	mu      sync.Mutex
	samples []model.TelemetrySample
	idx     Index
}

func NewTrackHighlight() *TrackHighlight {
	return &TrackHighlight{}
}

func (t *TrackHighlight) Attach(s *Synchronizer) (detach func()) {
	return s.Subscribe(func(i Index) {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.idx = i
	})
}

// SetTrace sets the reference trace the marker is placed on.
func (t *TrackHighlight) SetTrace(samples []model.TelemetrySample) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = samples
}

// Index returns the hovered index if it is valid for the current trace.
func (t *TrackHighlight) Index() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.idx.Valid || t.idx.Value >= len(t.samples) {
		return 0, false
	}
	return t.idx.Value, true
}

// Sample returns the hovered sample of the trace.
func (t *TrackHighlight) Sample() (model.TelemetrySample, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.idx.Valid || t.idx.Value >= len(t.samples) {
		return model.TelemetrySample{}, false
	}
	return t.samples[t.idx.Value], true
}
