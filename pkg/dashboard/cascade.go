package dashboard

import (
	"context"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/fetch"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

// Init loads the available years and walks the selection cascade with
// the default choices: newest year, first race, first qualifying session.
func (d *Dashboard) Init(ctx context.Context) error {
	ctx, span := d.tracer.Start(ctx, "dashboard.Init")
	defer span.End()

	tok := d.startCascade(func() {})
	years, err := d.src.Years(ctx)
	if !d.applyCascade(tok, err, func() {
		d.years = years
		if len(years) > 0 {
			d.sel.Year = slices.Max(years)
		}
	}) {
		return err
	}
	if len(years) == 0 {
		return nil
	}
	return d.loadRaces(ctx, tok)
}

// SelectYear changes the season. Races and sessions are reloaded and the
// defaults selected.
func (d *Dashboard) SelectYear(ctx context.Context, year int) error {
	ctx, span := d.tracer.Start(ctx, "dashboard.SelectYear",
		trace.WithAttributes(attribute.Int("year", year)))
	defer span.End()
	tok := d.startCascade(func() {
		d.sel = model.SessionRef{Year: year}
		d.races = nil
		d.sessions = nil
	})
	return d.loadRaces(ctx, tok)
}

func (d *Dashboard) SelectRace(ctx context.Context, race string) error {
	ctx, span := d.tracer.Start(ctx, "dashboard.SelectRace",
		trace.WithAttributes(attribute.String("race", race)))
	defer span.End()
	d.mu.Lock()
	known := slices.Contains(d.races, race)
	d.mu.Unlock()
	if !known {
		return ErrNotFound
	}
	tok := d.startCascade(func() {
		d.sel.Race = race
		d.sel.Session = ""
		d.sessions = nil
	})
	return d.loadSessions(ctx, tok)
}

// SelectSession picks one of the loaded sessions. Lap picks and data of
// the previous session are discarded.
func (d *Dashboard) SelectSession(session string) error {
	d.mu.Lock()
	if !slices.Contains(d.sessions, session) {
		d.mu.Unlock()
		return ErrNotFound
	}
	if d.sel.Session != session {
		d.cascade++
		d.sel.Session = session
		d.resetSessionData()
	}
	d.mu.Unlock()
	d.publishSnapshot()
	return nil
}

// SetDrivers sets the comma separated driver list used by the next load
func (d *Dashboard) SetDrivers(drivers string) {
	d.mu.Lock()
	d.drivers = model.ParseDrivers(drivers)
	d.mu.Unlock()
	d.publishSnapshot()
}

func (d *Dashboard) loadRaces(ctx context.Context, tok uint64) error {
	d.mu.Lock()
	year := d.sel.Year
	d.mu.Unlock()
	races, err := d.src.Races(ctx, year)
	if !d.applyCascade(tok, err, func() {
		d.races = races
		d.sel.Race = ""
		if len(races) > 0 {
			d.sel.Race = races[0]
		}
	}) {
		return err
	}
	if len(races) == 0 {
		return nil
	}
	return d.loadSessions(ctx, tok)
}

func (d *Dashboard) loadSessions(ctx context.Context, tok uint64) error {
	d.mu.Lock()
	year, race := d.sel.Year, d.sel.Race
	d.mu.Unlock()
	sessions, err := d.src.Sessions(ctx, year, race)
	d.applyCascade(tok, err, func() {
		d.sessions = sessions
		d.sel.Session = model.DefaultSession(sessions)
	})
	return err
}

// startCascade invalidates running cascades and applies the change
func (d *Dashboard) startCascade(change func()) uint64 {
	d.mu.Lock()
	d.cascade++
	tok := d.cascade
	change()
	d.resetSessionData()
	d.mu.Unlock()
	d.publishSnapshot()
	return tok
}

// applyCascade applies a cascade step if tok is still current.
// Returns true if the cascade may continue.
func (d *Dashboard) applyCascade(tok uint64, err error, apply func()) bool {
	d.mu.Lock()
	if tok != d.cascade {
		d.mu.Unlock()
		d.log.Debug("drop stale cascade result", log.Uint64("token", tok))
		return false
	}
	if err != nil {
		d.errMsg = fetch.Message(err)
		d.mu.Unlock()
		d.log.Warn("cascade step failed", log.ErrorField(err))
		d.publishSnapshot()
		return false
	}
	apply()
	d.mu.Unlock()
	d.publishSnapshot()
	return true
}

// resetSessionData drops everything depending on the selected session.
// Caller must hold d.mu.
func (d *Dashboard) resetSessionData() {
	d.loadToken++
	d.loading = false
	d.errMsg = ""
	d.laps = nil
	d.fastest = nil
	d.picks.Reset()
	d.setDataset(nil)
}
