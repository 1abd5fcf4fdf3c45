package hover

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

func TestSynchronizerNotifiesOnChangeOnly(t *testing.T) {
	s := NewSynchronizer()
	got := []Index{}
	s.Subscribe(func(i Index) { got = append(got, i) })

	s.Set(3)
	s.Set(3)
	s.Set(4)
	s.Clear()
	s.Clear()
	s.Set(-1)

	assert.Equal(t, []Index{
		{Value: 3, Valid: true},
		{Value: 4, Valid: true},
		{},
	}, got)
	_, ok := s.Active()
	assert.False(t, ok)
}

func TestSynchronizerUnsubscribe(t *testing.T) {
	s := NewSynchronizer()
	calls := 0
	unsub := s.Subscribe(func(Index) { calls++ })
	s.Set(1)
	unsub()
	s.Set(2)
	assert.Equal(t, 1, calls)
	idx, ok := s.Active()
	assert.True(t, ok)
	assert.Equal(t, 2, idx)
}

func TestSynchronizerUnsubscribeReleasesListener(t *testing.T) {
	s := NewSynchronizer()
	keep := s.Subscribe(func(Index) {})
	for i := 0; i < 100; i++ {
		s.Subscribe(func(Index) {})()
	}
	assert.Len(t, s.order, 1)
	assert.Len(t, s.listeners, 1)
	keep()
	assert.Empty(t, s.order)
	assert.Empty(t, s.listeners)
}

func TestReplaceDatasetClears(t *testing.T) {
	s := NewSynchronizer()
	s.Set(10)
	s.ReplaceDataset()
	_, ok := s.Active()
	assert.False(t, ok)
}

// hovering chart A must move the marker on the track map and the crosshair
// on chart B
func TestHoverPropagatesToAllViews(t *testing.T) {
	s := NewSynchronizer()
	trace := []model.TelemetrySample{
		{Distance: 0, X: 1, Y: 1},
		{Distance: 50, X: 2, Y: 3},
		{Distance: 100, X: 4, Y: 5},
	}
	chartA := NewCrosshair("speed")
	chartA.SetLabels([]int{0, 50, 100})
	chartB := NewCrosshair("throttle")
	chartB.SetLabels([]int{0, 50, 100})
	track := NewTrackHighlight()
	track.SetTrace(trace)
	chartA.Attach(s)
	chartB.Attach(s)
	track.Attach(s)

	// pointer on chart A at 48m
	s.Set(NearestIndex([]float64{0, 50, 100}, 48))

	idx, label, ok := chartB.Position()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 50, label)

	sample, ok := track.Sample()
	assert.True(t, ok)
	assert.Equal(t, trace[1], sample)

	_, _, ok = chartA.Position()
	assert.True(t, ok)

	s.Clear()
	_, _, ok = chartB.Position()
	assert.False(t, ok)
	_, ok = track.Index()
	assert.False(t, ok)
}

func TestTrackHighlightOutOfRange(t *testing.T) {
	s := NewSynchronizer()
	track := NewTrackHighlight()
	track.SetTrace([]model.TelemetrySample{{Distance: 0}})
	track.Attach(s)
	s.Set(5)
	_, ok := track.Sample()
	assert.False(t, ok)
}

func TestNearestIndex(t *testing.T) {
	distances := []float64{0, 10, 20, 30}
	tests := []struct {
		name string
		d    float64
		want int
	}{
		{name: "before start", d: -5, want: 0},
		{name: "exact", d: 20, want: 2},
		{name: "closer to lower", d: 14, want: 1},
		{name: "closer to upper", d: 16, want: 2},
		{name: "midpoint picks lower", d: 15, want: 1},
		{name: "beyond end", d: 99, want: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NearestIndex(distances, tt.d))
		})
	}
	assert.Equal(t, -1, NearestIndex(nil, 3))
}
