//nolint:funlen // ok for tests
package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompound(t *testing.T) {
	tests := []struct {
		in   string
		want Compound
	}{
		{"soft", CompoundSoft},
		{" MEDIUM ", CompoundMedium},
		{"HARD", CompoundHard},
		{"Intermediate", CompoundIntermediate},
		{"WET", CompoundWet},
		{"", CompoundUnknown},
		{"NAN", CompoundUnknown},
		{"NONE", CompoundUnknown},
		{"HYPERSOFT", CompoundUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCompound(tt.in))
		})
	}
}

func TestLapDistribution_Decode(t *testing.T) {
	payload := `{
		"laps": [
			{"driver":"VER","lap_number":1,"lap_time_seconds":95.1,"compound":"soft"},
			{"driver":"VER","lap_number":2,"lap_time_seconds":94.2},
			{"driver":"HAM","lap_number":1,"lap_time_seconds":95.7,"compound":"nan"}
		],
		"stints": {"VER":[{"compound":"SOFT","start":1,"end":2}]},
		"race_winner": "Max Verstappen",
		"winner_label": "RACE WINNER"
	}`
	var ld LapDistribution
	require.NoError(t, json.Unmarshal([]byte(payload), &ld))
	ld.Normalize()

	assert.Equal(t, CompoundSoft, ld.Laps[0].Compound)
	assert.Equal(t, CompoundUnknown, ld.Laps[1].Compound)
	assert.Equal(t, CompoundUnknown, ld.Laps[2].Compound)
	assert.Nil(t, ld.Weather)
	assert.Equal(t, []Stint{{Driver: "VER", Compound: CompoundSoft, Start: 1, End: 2}},
		ld.DriverStints("VER"))
}

func TestDetailTelemetry_KeepsDriverOrder(t *testing.T) {
	payload := `{
		"drivers": {
			"VER (L12)": {"telemetry": {"distance":[0,10.4],"speed":[100,110]}, "lap_time": 90.1, "lap_number": 12},
			"HAM (L7)": {"telemetry": {"distance":[0,10.6]}, "lap_time": 90.5, "lap_number": 7},
			"ALO": {"telemetry": {}, "lap_time": 91.0, "lap_number": 3}
		},
		"session_best_sectors": [30.1, 31.2, 28.9],
		"track_length": 5300.5,
		"pole_info": {"driver": "VER", "time": 89.9}
	}`
	var dt DetailTelemetry
	require.NoError(t, json.Unmarshal([]byte(payload), &dt))

	assert.Equal(t, []string{"VER (L12)", "HAM (L7)", "ALO"}, dt.Drivers.Keys())
	assert.Equal(t, "VER", dt.Drivers[0].Driver)
	assert.Equal(t, "HAM", dt.Drivers[1].Driver)
	assert.Equal(t, "ALO", dt.Drivers[2].Driver)
	assert.Equal(t, []float64{100, 110}, dt.Drivers[0].Telemetry.Get(ChannelSpeed))
	assert.Nil(t, dt.Drivers[1].Telemetry.Get(ChannelSpeed))

	// marshal keeps the order as well
	data, err := json.Marshal(dt.Drivers)
	require.NoError(t, err)
	var again DriverLaps
	require.NoError(t, json.Unmarshal(data, &again))
	if diff := cmp.Diff(dt.Drivers, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDriverLaps_RejectsArray(t *testing.T) {
	var d DriverLaps
	err := json.Unmarshal([]byte(`[1,2]`), &d)
	assert.ErrorIs(t, err, ErrDriversNotAnObject)
}

func TestChannels_Samples(t *testing.T) {
	c := Channels{
		ChannelDistance: {0, 5, 10},
		ChannelSpeed:    {100, 120},
		ChannelX:        {1, 2, 3},
	}
	s := c.Samples()
	require.Len(t, s, 3)
	assert.Equal(t, TelemetrySample{Distance: 5, Speed: 120, X: 2}, s[1])
	assert.Equal(t, TelemetrySample{Distance: 10, X: 3}, s[2])
	assert.Empty(t, Channels(nil).Samples())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindQualifying, KindOf("Qualifying"))
	assert.Equal(t, KindQualifying, KindOf("Sprint Qualifying"))
	assert.Equal(t, KindLapDistribution, KindOf("Race"))
	assert.Equal(t, KindLapDistribution, KindOf("Practice 1"))
	assert.Equal(t, KindLapDistribution, KindOf("Sprint Shootout"))
}

func TestDefaultSession(t *testing.T) {
	assert.Equal(t, "Qualifying",
		DefaultSession([]string{"Practice 1", "Practice 2", "Qualifying", "Race"}))
	assert.Equal(t, "Practice 1", DefaultSession([]string{"Practice 1", "Race"}))
	assert.Equal(t, "", DefaultSession(nil))
}

func TestParseDrivers(t *testing.T) {
	assert.Equal(t, []string{"VER", "HAM"}, ParseDrivers(" ver, HAM ,,"))
	assert.Equal(t, []string{}, ParseDrivers(""))
}

func TestPredictions_Clone(t *testing.T) {
	p := Predictions{1: {Round: 1, Race: map[int]string{1: "VER"}}}
	c := p.Clone()
	c[1].Race[1] = "HAM"
	assert.Equal(t, "VER", p[1].Race[1])
}
