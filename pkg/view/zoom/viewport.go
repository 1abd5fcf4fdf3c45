package zoom

import "sync"

// Window is the visible x range of a chart.
type Window struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (w Window) Span() float64 { return w.Max - w.Min }

// Viewport is the zoom/pan state of one chart. The visible window is
// always kept within the chart's full extent.
type Viewport struct {
	mu     sync.Mutex
	extent Window
	cur    Window
}

func NewViewport(extent Window) *Viewport {
	if extent.Max < extent.Min {
		extent.Min, extent.Max = extent.Max, extent.Min
	}
	return &Viewport{extent: extent, cur: extent}
}

// SetExtent replaces the full range and resets the window.
func (v *Viewport) SetExtent(extent Window) {
	if extent.Max < extent.Min {
		extent.Min, extent.Max = extent.Max, extent.Min
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.extent = extent
	v.cur = extent
}

// Zoom narrows the window to [lo,hi], clamped to the extent.
// An empty or inverted range is ignored.
func (v *Viewport) Zoom(lo, hi float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	lo = max(lo, v.extent.Min)
	hi = min(hi, v.extent.Max)
	if hi <= lo {
		return
	}
	v.cur = Window{Min: lo, Max: hi}
}

// Pan shifts the window by delta keeping its span.
func (v *Viewport) Pan(delta float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	span := v.cur.Span()
	lo := v.cur.Min + delta
	switch {
	case lo < v.extent.Min:
		lo = v.extent.Min
	case lo+span > v.extent.Max:
		lo = v.extent.Max - span
	}
	v.cur = Window{Min: lo, Max: lo + span}
}

func (v *Viewport) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = v.extent
}

// ResetZoom makes a Viewport usable as Resetter.
func (v *Viewport) ResetZoom() { v.Reset() }

func (v *Viewport) Window() Window {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

func (v *Viewport) Zoomed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur != v.extent
}

// Percent returns the window as percentage of the extent, the form chart
// data zoom components expect.
func (v *Viewport) Percent() (start, end float32) {
	v.mu.Lock()
	defer v.mu.Unlock()
	span := v.extent.Span()
	if span <= 0 {
		return 0, 100
	}
	return float32((v.cur.Min - v.extent.Min) / span * 100),
		float32((v.cur.Max - v.extent.Min) / span * 100)
}
