package model

import "strings"

// SessionKind decides how a session is explored
type SessionKind int

const (
	// KindLapDistribution is used for races and practice: lap time scatter first
	KindLapDistribution SessionKind = iota
	// KindQualifying compares the fastest single laps directly
	KindQualifying
)

func (k SessionKind) String() string {
	if k == KindQualifying {
		return "qualifying"
	}
	return "lapDistribution"
}

func KindOf(session string) SessionKind {
	if strings.Contains(session, "Qualifying") {
		return KindQualifying
	}
	return KindLapDistribution
}

// DefaultSession picks the first qualifying-style session, otherwise the first one
func DefaultSession(sessions []string) string {
	for _, s := range sessions {
		if strings.Contains(s, "Qualifying") {
			return s
		}
	}
	if len(sessions) > 0 {
		return sessions[0]
	}
	return ""
}

// ParseDrivers splits a comma separated driver list
func ParseDrivers(s string) []string {
	ret := []string{}
	for _, d := range strings.Split(s, ",") {
		d = strings.ToUpper(strings.TrimSpace(d))
		if d != "" {
			ret = append(ret, d)
		}
	}
	return ret
}
