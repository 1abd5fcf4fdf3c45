package racestints

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

func lapsWithTimes(driver string, c model.Compound, start int, times ...float64) []model.Lap {
	ret := make([]model.Lap, len(times))
	for i, tm := range times {
		ret[i] = model.Lap{Driver: driver, LapNumber: start + i, LapTimeSeconds: tm, Compound: c}
	}
	return ret
}

func linear(base, slope float64, n int) []float64 {
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = base + slope*float64(i)
	}
	return ret
}

func TestStintDegradation(t *testing.T) {
	tests := []struct {
		name  string
		times []float64
		c     model.Compound
		want  string
		ok    bool
	}{
		{
			name:  "heavy",
			times: linear(90, 0.1, 10),
			c:     model.CompoundSoft,
			want:  "VER SOFTs degraded heavily (+0.10s/lap).",
			ok:    true,
		},
		{
			name:  "moderate",
			times: linear(90, 0.05, 10),
			c:     model.CompoundMedium,
			want:  "VER MEDIUMs degraded by 0.05s per lap.",
			ok:    true,
		},
		{
			name:  "steady",
			times: []float64{90.1, 90.0, 90.0, 90.1, 90.1, 90.0, 90.0, 90.1},
			c:     model.CompoundHard,
			want:  "VER HARDs held steady.",
			ok:    true,
		},
		{
			name:  "improving",
			times: linear(92, -0.05, 10),
			c:     model.CompoundHard,
			want:  "VER got faster on HARDs (-0.05s/lap).",
			ok:    true,
		},
		{
			name:  "outlier dropped",
			times: []float64{90, 90, 90, 120, 90, 90, 90, 90},
			c:     model.CompoundSoft,
			want:  "VER SOFTs held steady.",
			ok:    true,
		},
		{name: "too short", times: linear(90, 0.1, 3), c: model.CompoundSoft},
		{name: "unknown compound", times: linear(90, 0.1, 10), c: model.CompoundUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			laps := lapsWithTimes("VER", tt.c, 1, tt.times...)
			stint := model.Stint{Driver: "VER", Compound: tt.c, Start: 1, End: len(tt.times)}
			got, ok := StintDegradation(stint, laps)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestClassify(t *testing.T) {
	assert.Equal(t, TrendNone, classify(0.02))
	assert.Equal(t, TrendNone, classify(-0.015))
	assert.Equal(t, TrendSteady, classify(0.005))
}

func TestInsights(t *testing.T) {
	laps := append(
		lapsWithTimes("VER", model.CompoundSoft, 1, linear(90, 0.1, 10)...),
		lapsWithTimes("VER", model.CompoundHard, 11, linear(91, 0.05, 10)...)...,
	)
	// pit in and out laps
	laps[9].LapTimeSeconds = 110
	laps[10].LapTimeSeconds = 112
	dist := &model.LapDistribution{
		Laps:   laps,
		Stints: map[string][]model.Stint{"VER": softHard()},
	}
	assert.Equal(t, []string{
		"VER SOFTs degraded heavily (+0.10s/lap).",
		"VER HARDs degraded by 0.05s per lap.",
	}, Insights(dist))
}

func TestInsightsLimit(t *testing.T) {
	dist := &model.LapDistribution{Stints: map[string][]model.Stint{}}
	for i := range 9 {
		driver := fmt.Sprintf("D%02d", i)
		dist.Laps = append(dist.Laps, lapsWithTimes(driver, model.CompoundSoft, 1, linear(90, 0.1, 8)...)...)
		dist.Stints[driver] = []model.Stint{{Compound: model.CompoundSoft, Start: 1, End: 8}}
	}
	got := Insights(dist)
	assert.Len(t, got, MaxInsights)
	assert.Equal(t, "D00 SOFTs degraded heavily (+0.10s/lap).", got[0])
	assert.Empty(t, Insights(nil))
}
