// Package zoom keeps the per chart zoom/pan state and a registry used to
// reset all charts of a dashboard at once.
package zoom

import (
	"sync"

	"github.com/mpapenbr/beyond-the-apex/log"
)

type Resetter interface {
	ResetZoom()
}

// Ref is a handle to a chart slot. The slot may be empty while the chart
// is not displayed.
type Ref struct {
	name string
	mu   sync.Mutex
	r    Resetter
}

func (r *Ref) Name() string { return r.name }

func (r *Ref) Mount(target Resetter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.r = target
}

func (r *Ref) Unmount() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.r = nil
}

func (r *Ref) Mounted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r != nil
}

func (r *Ref) reset() bool {
	r.mu.Lock()
	target := r.r
	r.mu.Unlock()
	if target == nil {
		return false
	}
	target.ResetZoom()
	return true
}

type Registry struct {
	mu     sync.Mutex
	refs   []*Ref
	byName map[string]*Ref
	log    *log.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		byName: map[string]*Ref{},
		log:    log.Default().Named("zoom"),
	}
}

// Register returns the ref for name. Registering a name twice returns the
// same ref.
func (reg *Registry) Register(name string) *Ref {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.byName[name]; ok {
		return r
	}
	r := &Ref{name: name}
	reg.refs = append(reg.refs, r)
	reg.byName[name] = r
	return r
}

func (reg *Registry) Lookup(name string) (*Ref, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.byName[name]
	return r, ok
}

// ResetAll resets every mounted chart in registration order.
// Returns the number of charts that were reset.
func (reg *Registry) ResetAll() int {
	reg.mu.Lock()
	refs := make([]*Ref, len(reg.refs))
	copy(refs, reg.refs)
	reg.mu.Unlock()

	count := 0
	for _, r := range refs {
		if r.reset() {
			count++
		} else {
			reg.log.Debug("skip unmounted chart", log.String("chart", r.name))
		}
	}
	return count
}
