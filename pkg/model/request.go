package model

// SessionRef identifies a session of the remote data service
type SessionRef struct {
	Year    int    `json:"year"`
	Race    string `json:"race"`
	Session string `json:"session"`
}

func (s SessionRef) IsComplete() bool {
	return s.Year > 0 && s.Race != "" && s.Session != ""
}

type LapRequest struct {
	SessionRef
	Drivers []string `json:"drivers"`
}

// DetailRequest asks for detailed telemetry. Without Laps the fastest lap
// of every driver is delivered.
type DetailRequest struct {
	SessionRef
	Drivers []string `json:"drivers"`
	Laps    []LapRef `json:"laps,omitempty"`
}
