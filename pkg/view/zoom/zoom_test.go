package zoom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type resetRecorder struct {
	name  string
	calls *[]string
}

func (r resetRecorder) ResetZoom() { *r.calls = append(*r.calls, r.name) }

func TestResetAll(t *testing.T) {
	calls := []string{}
	reg := NewRegistry()
	speed := reg.Register("speed")
	throttle := reg.Register("throttle")
	brake := reg.Register("brake")

	brake.Mount(resetRecorder{"brake", &calls})
	speed.Mount(resetRecorder{"speed", &calls})
	_ = throttle

	assert.Equal(t, 2, reg.ResetAll())
	assert.Equal(t, []string{"speed", "brake"}, calls, "registration order")

	speed.Unmount()
	calls = calls[:0]
	assert.Equal(t, 1, reg.ResetAll())
	assert.Equal(t, []string{"brake"}, calls)
}

func TestRegisterTwice(t *testing.T) {
	reg := NewRegistry()
	a := reg.Register("speed")
	b := reg.Register("speed")
	assert.Same(t, a, b)
	got, ok := reg.Lookup("speed")
	assert.True(t, ok)
	assert.Same(t, a, got)
	_, ok = reg.Lookup("rpm")
	assert.False(t, ok)
}

func TestViewport(t *testing.T) {
	v := NewViewport(Window{Min: 0, Max: 5000})

	v.Zoom(1000, 2000)
	assert.Equal(t, Window{Min: 1000, Max: 2000}, v.Window())
	assert.True(t, v.Zoomed())

	v.Pan(500)
	assert.Equal(t, Window{Min: 1500, Max: 2500}, v.Window())

	v.Pan(10000)
	assert.Equal(t, Window{Min: 4000, Max: 5000}, v.Window(), "clamped at the end")

	v.Pan(-10000)
	assert.Equal(t, Window{Min: 0, Max: 1000}, v.Window(), "clamped at the start")

	v.Zoom(3000, 3000)
	assert.Equal(t, Window{Min: 0, Max: 1000}, v.Window(), "empty range ignored")

	v.Zoom(-100, 9000)
	assert.Equal(t, Window{Min: 0, Max: 5000}, v.Window())

	v.Zoom(1000, 2000)
	start, end := v.Percent()
	assert.InDelta(t, 20, start, 1e-4)
	assert.InDelta(t, 40, end, 1e-4)

	v.Reset()
	assert.False(t, v.Zoomed())
}

func TestViewportsAreIndependent(t *testing.T) {
	reg := NewRegistry()
	a := NewViewport(Window{Min: 0, Max: 100})
	b := NewViewport(Window{Min: 0, Max: 100})
	reg.Register("a").Mount(a)
	reg.Register("b").Mount(b)

	a.Zoom(10, 20)
	assert.False(t, b.Zoomed())

	b.Zoom(30, 40)
	reg.ResetAll()
	assert.False(t, a.Zoomed())
	assert.False(t, b.Zoomed())
}
