package model

// RoundPrediction holds hypothetical finishing orders of a round.
// The maps are keyed by finishing position and hold driver codes.
type RoundPrediction struct {
	Round  int            `json:"round" yaml:"round"`
	Race   map[int]string `json:"race,omitempty" yaml:"race,omitempty"`
	Sprint map[int]string `json:"sprint,omitempty" yaml:"sprint,omitempty"`
}

// Predictions are keyed by round
type Predictions map[int]*RoundPrediction

func (p RoundPrediction) IsEmpty() bool {
	return len(p.Race) == 0 && len(p.Sprint) == 0
}

// Clone returns a deep copy
func (p Predictions) Clone() Predictions {
	ret := make(Predictions, len(p))
	for k, v := range p {
		if v == nil {
			continue
		}
		c := &RoundPrediction{Round: v.Round}
		if v.Race != nil {
			c.Race = make(map[int]string, len(v.Race))
			for pos, code := range v.Race {
				c.Race[pos] = code
			}
		}
		if v.Sprint != nil {
			c.Sprint = make(map[int]string, len(v.Sprint))
			for pos, code := range v.Sprint {
				c.Sprint[pos] = code
			}
		}
		ret[k] = c
	}
	return ret
}
