// Package hover keeps the hovered sample index shared by all views of a
// dashboard. A hover on one chart is visible on every other chart and on
// the track map.
package hover

import (
	"slices"
	"sort"
	"sync"
)

// Index is the hovered sample index. Valid is false when nothing is hovered.
type Index struct {
	Value int
	Valid bool
}

func (i Index) Get() (int, bool) {
	return i.Value, i.Valid
}

type Listener func(Index)

type Synchronizer struct {
	mu        sync.Mutex
	active    Index
	nextID    int
	listeners map[int]Listener
	order     []int
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{listeners: map[int]Listener{}}
}

// Set activates idx. Listeners are notified only if the value changed.
func (s *Synchronizer) Set(idx int) {
	if idx < 0 {
		s.Clear()
		return
	}
	s.update(Index{Value: idx, Valid: true})
}

func (s *Synchronizer) Clear() {
	s.update(Index{})
}

// ReplaceDataset must be called when the underlying traces are replaced.
// An index into the old dataset has no meaning for the new one.
func (s *Synchronizer) ReplaceDataset() {
	s.Clear()
}

func (s *Synchronizer) Active() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.Get()
}

// Subscribe registers l. Listeners are called synchronously in subscription
// order. The returned func removes the listener.
func (s *Synchronizer) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
		s.order = slices.DeleteFunc(s.order, func(v int) bool { return v == id })
	}
}

func (s *Synchronizer) update(next Index) {
	s.mu.Lock()
	if s.active == next {
		s.mu.Unlock()
		return
	}
	s.active = next
	notify := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		notify = append(notify, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range notify {
		l(next)
	}
}

// NearestIndex returns the index of the sample closest to d.
// distances must be non-decreasing. Returns -1 for empty input.
func NearestIndex(distances []float64, d float64) int {
	n := len(distances)
	if n == 0 {
		return -1
	}
	i := sort.SearchFloat64s(distances, d)
	switch {
	case i == 0:
		return 0
	case i == n:
		return n - 1
	case d-distances[i-1] <= distances[i]-d:
		return i - 1
	default:
		return i
	}
}
