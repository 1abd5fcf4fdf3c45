package model

import (
	"strings"
)

type Compound string

const (
	CompoundSoft         Compound = "SOFT"
	CompoundMedium       Compound = "MEDIUM"
	CompoundHard         Compound = "HARD"
	CompoundIntermediate Compound = "INTERMEDIATE"
	CompoundWet          Compound = "WET"
	CompoundUnknown      Compound = "UNKNOWN"
)

var knownCompounds = map[Compound]bool{
	CompoundSoft:         true,
	CompoundMedium:       true,
	CompoundHard:         true,
	CompoundIntermediate: true,
	CompoundWet:          true,
	CompoundUnknown:      true,
}

// ParseCompound maps free text to a compound, falling back to CompoundUnknown
func ParseCompound(s string) Compound {
	c := Compound(strings.ToUpper(strings.TrimSpace(s)))
	if knownCompounds[c] {
		return c
	}
	return CompoundUnknown
}

// Symbol is the single letter used on tyre badges
func (c Compound) Symbol() string {
	if c == "" {
		return "?"
	}
	return string(c)[:1]
}

func (c *Compound) UnmarshalText(text []byte) error {
	*c = ParseCompound(string(text))
	return nil
}

//nolint:tagliatelle // remote payload
type Lap struct {
	Driver         string   `json:"driver"`
	LapNumber      int      `json:"lap_number"`
	LapTimeSeconds float64  `json:"lap_time_seconds"`
	Compound       Compound `json:"compound"`
}

// LapRef identifies a single lap of a driver
type LapRef struct {
	Driver string `json:"driver"`
	Lap    int    `json:"lap"`
}

type Stint struct {
	Driver   string   `json:"driver,omitempty"`
	Compound Compound `json:"compound"`
	Start    int      `json:"start"` // first lap (inclusive)
	End      int      `json:"end"`   // last lap (inclusive)
}

func (s Stint) Laps() int {
	return s.End - s.Start + 1
}

func (s Stint) Contains(lap int) bool {
	return lap >= s.Start && lap <= s.End
}

//nolint:tagliatelle // remote payload
type Weather struct {
	AirTemp   float64 `json:"air_temp"`
	TrackTemp float64 `json:"track_temp"`
	Humidity  float64 `json:"humidity"`
	Rain      bool    `json:"rain"`
}

// LapDistribution is the race/practice overview of a session
//
//nolint:tagliatelle // remote payload
type LapDistribution struct {
	Laps        []Lap              `json:"laps"`
	Stints      map[string][]Stint `json:"stints"`
	RaceWinner  string             `json:"race_winner"`
	WinnerLabel string             `json:"winner_label"`
	Weather     *Weather           `json:"weather,omitempty"`
	Insights    []string           `json:"ai_insights,omitempty"`
}

// DriverStints returns the stints of a driver with the driver field filled
func (ld *LapDistribution) DriverStints(driver string) []Stint {
	ret := make([]Stint, 0, len(ld.Stints[driver]))
	for _, s := range ld.Stints[driver] {
		s.Driver = driver
		ret = append(ret, s)
	}
	return ret
}

// Normalize fills defaults the payload may omit
func (ld *LapDistribution) Normalize() {
	for i := range ld.Laps {
		if ld.Laps[i].Compound == "" {
			ld.Laps[i].Compound = CompoundUnknown
		}
	}
	for d, stints := range ld.Stints {
		for i := range stints {
			if stints[i].Compound == "" {
				stints[i].Compound = CompoundUnknown
			}
			stints[i].Driver = d
		}
	}
}
