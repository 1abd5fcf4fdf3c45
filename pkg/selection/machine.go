// Package selection tracks the laps picked for comparison and guards the
// resulting detail fetches against stale responses.
package selection

import (
	"slices"
	"sync"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

type State int

const (
	StateEmpty State = iota
	StateSelecting
	StateFetchingDetail
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateSelecting:
		return "selecting"
	case StateFetchingDetail:
		return "fetching"
	default:
		return "unknown"
	}
}

type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeStale
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeStale:
		return "stale"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Ticket describes a detail fetch for exactly the picks at issue time.
// The result must be handed back to Resolve together with Token.
type Ticket struct {
	Token uint64
	Picks []model.LapRef
}

type Machine struct {
	mu      sync.Mutex
	state   State
	picks   []model.LapRef
	detail  *model.DetailTelemetry
	lastErr error
	token   uint64
	log     *log.Logger
}

func New() *Machine {
	return &Machine{
		picks: []model.LapRef{},
		log:   log.Default().Named("selection"),
	}
}

// Toggle removes the (driver,lap) pick if present, adds it otherwise.
// If picks remain a ticket for a detail fetch is returned.
// Removing the last pick clears the detail and returns no ticket.
func (m *Machine) Toggle(driver string, lap int) (Ticket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := model.LapRef{Driver: driver, Lap: lap}
	if idx := slices.Index(m.picks, ref); idx >= 0 {
		m.picks = slices.Delete(m.picks, idx, idx+1)
	} else {
		m.picks = append(m.picks, ref)
	}
	m.token++
	m.lastErr = nil
	if len(m.picks) == 0 {
		m.detail = nil
		m.state = StateEmpty
		m.log.Debug("selection empty", log.Uint64("token", m.token))
		return Ticket{}, false
	}
	m.state = StateFetchingDetail
	m.log.Debug("request detail",
		log.Uint64("token", m.token),
		log.Int("picks", len(m.picks)))
	return Ticket{Token: m.token, Picks: slices.Clone(m.picks)}, true
}

// Resolve applies the result of the fetch issued with token.
// Results of superseded tickets are dropped.
func (m *Machine) Resolve(token uint64, detail *model.DetailTelemetry, err error) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	if token != m.token || m.state != StateFetchingDetail {
		m.log.Debug("drop stale detail",
			log.Uint64("token", token),
			log.Uint64("current", m.token))
		return OutcomeStale
	}
	m.state = StateSelecting
	if err != nil {
		m.lastErr = err
		m.log.Warn("detail fetch failed", log.ErrorField(err))
		return OutcomeFailed
	}
	m.detail = detail
	return OutcomeApplied
}

// Reset discards picks and detail. Pending tickets become stale.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token++
	m.picks = []model.LapRef{}
	m.detail = nil
	m.lastErr = nil
	m.state = StateEmpty
}

// Clear is the user initiated variant of Reset.
func (m *Machine) Clear() {
	m.Reset()
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Picks() []model.LapRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.picks)
}

func (m *Machine) IsPicked(driver string, lap int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.picks, model.LapRef{Driver: driver, Lap: lap})
}

func (m *Machine) Detail() *model.DetailTelemetry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detail
}

// Err returns the error of the last failed fetch since the last toggle.
func (m *Machine) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}
