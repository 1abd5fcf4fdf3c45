// Package racestints provides the stint related computations of a race:
// coverage checks, lap to stint lookup and tyre degradation insights.
package racestints

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

var (
	ErrEmptyStint = errors.New("stint has no laps")
	ErrOverlap    = errors.New("stints overlap")
	ErrGap        = errors.New("gap between stints")
	ErrUncovered  = errors.New("lap not covered by stints")
)

// Validate checks that stints are contiguous, do not overlap and cover
// every lap in laps. stints must be ordered by start lap.
func Validate(stints []model.Stint, laps []int) error {
	for i, s := range stints {
		if s.End < s.Start {
			return fmt.Errorf("stint %d (%d-%d): %w", i+1, s.Start, s.End, ErrEmptyStint)
		}
		if i == 0 {
			continue
		}
		prev := stints[i-1]
		switch {
		case s.Start <= prev.End:
			return fmt.Errorf("stint %d starts at %d, previous ends at %d: %w",
				i+1, s.Start, prev.End, ErrOverlap)
		case s.Start > prev.End+1:
			return fmt.Errorf("stint %d starts at %d, previous ends at %d: %w",
				i+1, s.Start, prev.End, ErrGap)
		}
	}
	for _, lap := range laps {
		if _, ok := ForLap(stints, lap); !ok {
			return fmt.Errorf("lap %d: %w", lap, ErrUncovered)
		}
	}
	return nil
}

// ForLap returns the stint containing lap
func ForLap(stints []model.Stint, lap int) (model.Stint, bool) {
	for _, s := range stints {
		if s.Contains(lap) {
			return s, true
		}
	}
	return model.Stint{}, false
}

// Derive builds stints from lap records. A new stint starts whenever the
// compound changes. Used when the service delivers laps without stints.
func Derive(laps []model.Lap) map[string][]model.Stint {
	byDriver := map[string][]model.Lap{}
	for _, l := range laps {
		byDriver[l.Driver] = append(byDriver[l.Driver], l)
	}
	ret := make(map[string][]model.Stint, len(byDriver))
	for driver, dl := range byDriver {
		sort.SliceStable(dl, func(i, j int) bool { return dl[i].LapNumber < dl[j].LapNumber })
		stints := []model.Stint{}
		for _, l := range dl {
			n := len(stints)
			if n > 0 && stints[n-1].Compound == l.Compound {
				stints[n-1].End = l.LapNumber
				continue
			}
			if n > 0 {
				// keep the stints contiguous across laps without records
				stints[n-1].End = max(stints[n-1].End, l.LapNumber-1)
			}
			stints = append(stints, model.Stint{
				Driver:   driver,
				Compound: l.Compound,
				Start:    l.LapNumber,
				End:      l.LapNumber,
			})
		}
		ret[driver] = stints
	}
	return ret
}
