// Package sector splits a lap trace into three sectors for the track map
// and compares sector times.
package sector

import (
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

const (
	NumSectors = 3
	// proportional sector boundaries of the lap distance
	Threshold1 = 0.33
	Threshold2 = 0.66
)

type Point struct {
	Index    int     `json:"index"` // sample index within the trace
	Distance float64 `json:"distance"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

type Result struct {
	Sectors   [NumSectors][]Point `json:"sectors"`
	Highlight *Point              `json:"highlight,omitempty"`
}

type Option func(*config)

type config struct {
	highlight *int
}

// WithHighlight marks the sample at idx as current position
func WithHighlight(idx int) Option {
	return func(c *config) {
		c.highlight = &idx
	}
}

// Bounds returns the distance thresholds for a track length
func Bounds(trackLength float64) (t1, t2 float64) {
	return Threshold1 * trackLength, Threshold2 * trackLength
}

// Segment partitions the trace into three polylines.
//
// A sample belongs to sector 1 if d <= t1, to sector 2 if t1 <= d <= t2 and
// to sector 3 if d >= t2. When a sample enters a sector the previous sample
// was not part of, the previous sample is appended to that sector first, so
// the drawn arcs join without a gap. The same sample may therefore appear in
// two sectors. This is intended and must be kept.
// A sample lying exactly on a threshold already joins both arcs, nothing is
// carried over in that case.
//
// A non-positive trackLength falls back to the largest distance of the trace.
//
//nolint:gocognit // readability
func Segment(samples []model.TelemetrySample, trackLength float64, opts ...Option) Result {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	ret := Result{}
	for i := range ret.Sectors {
		ret.Sectors[i] = []Point{}
	}
	if trackLength <= 0 {
		for _, s := range samples {
			trackLength = max(trackLength, s.Distance)
		}
	}
	t1, t2 := Bounds(trackLength)

	var prevIn [NumSectors]bool
	for i, s := range samples {
		p := toPoint(i, s)
		in := membership(s.Distance, t1, t2)
		shared := false
		for k := range NumSectors {
			shared = shared || (in[k] && prevIn[k])
		}
		for k := range NumSectors {
			if !in[k] {
				continue
			}
			// boundary continuity: carry the previous sample into the new sector
			if i > 0 && !prevIn[k] && !shared {
				arc := ret.Sectors[k]
				if len(arc) == 0 || arc[len(arc)-1].Index != i-1 {
					ret.Sectors[k] = append(ret.Sectors[k], toPoint(i-1, samples[i-1]))
				}
			}
			ret.Sectors[k] = append(ret.Sectors[k], p)
		}
		prevIn = in
	}

	if cfg.highlight != nil && *cfg.highlight >= 0 && *cfg.highlight < len(samples) {
		hp := toPoint(*cfg.highlight, samples[*cfg.highlight])
		ret.Highlight = &hp
	}
	return ret
}

func membership(d, t1, t2 float64) [NumSectors]bool {
	return [NumSectors]bool{
		d <= t1,
		d >= t1 && d <= t2,
		d >= t2,
	}
}

func toPoint(idx int, s model.TelemetrySample) Point {
	return Point{Index: idx, Distance: s.Distance, X: s.X, Y: s.Y}
}
