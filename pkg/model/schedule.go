package model

//nolint:tagliatelle // remote payload
type Round struct {
	Round    int    `json:"round"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Location string `json:"location,omitempty"`
	IsSprint bool   `json:"is_sprint"`
	IsDone   bool   `json:"is_done"`
}

type Schedule []Round

func (s Schedule) Find(round int) (Round, bool) {
	for _, r := range s {
		if r.Round == round {
			return r, true
		}
	}
	return Round{}, false
}

// Upcoming returns the rounds without a result yet
func (s Schedule) Upcoming() Schedule {
	ret := Schedule{}
	for _, r := range s {
		if !r.IsDone {
			ret = append(ret, r)
		}
	}
	return ret
}
