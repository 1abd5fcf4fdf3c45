package sector

import "math"

// Epsilon is the tolerance for sector time comparisons. It avoids flapping
// highlights caused by floating point noise in the delivered times.
const Epsilon = 0.001

func Equal(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// IsSessionBest reports whether t matches the session best sector time.
// Non-positive values mean "no time" and never match.
func IsSessionBest(t, best float64) bool {
	if t <= 0 || best <= 0 {
		return false
	}
	return Equal(t, best) || t < best
}

// Fastest flags the entries holding the fastest time. Entries within
// Epsilon of the fastest are flagged as well. Non-positive times are ignored.
func Fastest(times []float64) []bool {
	ret := make([]bool, len(times))
	best := math.Inf(1)
	for _, t := range times {
		if t > 0 && t < best {
			best = t
		}
	}
	if math.IsInf(best, 1) {
		return ret
	}
	for i, t := range times {
		ret[i] = t > 0 && Equal(t, best)
	}
	return ret
}

type Highlight struct {
	SessionBest bool `json:"sessionBest"`
	Fastest     bool `json:"fastest"` // fastest among the compared laps
}

// Compare computes the highlight states for every lap and sector.
// laps[i][k] is the time of lap i in sector k.
func Compare(laps [][]float64, sessionBest []float64) [][]Highlight {
	ret := make([][]Highlight, len(laps))
	for i := range laps {
		ret[i] = make([]Highlight, NumSectors)
	}
	for k := range NumSectors {
		col := make([]float64, len(laps))
		for i := range laps {
			if k < len(laps[i]) {
				col[i] = laps[i][k]
			}
		}
		fastest := Fastest(col)
		for i := range laps {
			best := 0.0
			if k < len(sessionBest) {
				best = sessionBest[k]
			}
			ret[i][k] = Highlight{
				SessionBest: IsSessionBest(col[i], best),
				Fastest:     fastest[i],
			}
		}
	}
	return ret
}
