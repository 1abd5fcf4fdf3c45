package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

//nolint:tagliatelle // remote payload
type TyreInfo struct {
	Compound Compound `json:"compound"`
	Symbol   string   `json:"symbol"`
	Age      int      `json:"age"`
}

type PoleInfo struct {
	Driver string  `json:"driver"`
	Time   float64 `json:"time"`
}

// DriverLap is the detailed telemetry of one analyzed lap.
// Key is the payload key, either the driver code (fastest lap mode)
// or "<code> (L<lap>)" for explicitly selected laps.
//
//nolint:tagliatelle // remote payload
type DriverLap struct {
	Key       string    `json:"-"`
	Driver    string    `json:"-"`
	Telemetry Channels  `json:"telemetry"`
	Sectors   []float64 `json:"sectors"`
	LapTime   float64   `json:"lap_time"`
	LapNumber int       `json:"lap_number"`
	TyreInfo  *TyreInfo `json:"tyre_info,omitempty"`
}

// DriverLaps keeps the order of the payload object
type DriverLaps []DriverLap

var ErrDriversNotAnObject = errors.New("drivers: expected JSON object")

func DriverFromKey(key string) string {
	if f := strings.Fields(key); len(f) > 0 {
		return f[0]
	}
	return key
}

func (d *DriverLaps) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*d = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrDriversNotAnObject
	}
	ret := DriverLaps{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var entry DriverLap
		if err := dec.Decode(&entry); err != nil {
			return err
		}
		entry.Key = key
		entry.Driver = DriverFromKey(key)
		ret = append(ret, entry)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*d = ret
	return nil
}

func (d DriverLaps) MarshalJSON() ([]byte, error) {
	buf := bytes.Buffer{}
	buf.WriteByte('{')
	for i, entry := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d DriverLaps) Keys() []string {
	ret := make([]string, len(d))
	for i := range d {
		ret[i] = d[i].Key
	}
	return ret
}

// DetailTelemetry is the result of a detail telemetry request
//
//nolint:tagliatelle // remote payload
type DetailTelemetry struct {
	Drivers            DriverLaps `json:"drivers"`
	SessionBestSectors []float64  `json:"session_best_sectors"`
	TrackLength        float64    `json:"track_length"`
	PoleInfo           *PoleInfo  `json:"pole_info,omitempty"`
	Weather            *Weather   `json:"weather,omitempty"`
	Insights           []string   `json:"ai_insights,omitempty"`
}
