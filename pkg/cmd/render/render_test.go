package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/beyond-the-apex/pkg/dashboard"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

type stubSource struct{}

func (stubSource) Years(context.Context) ([]int, error) { return []int{2024}, nil }

func (stubSource) Races(context.Context, int) ([]string, error) {
	return []string{"Bahrain Grand Prix"}, nil
}

func (stubSource) Sessions(context.Context, int, string) ([]string, error) {
	return []string{"Qualifying", "Race"}, nil
}

func (stubSource) LapDistribution(context.Context, model.LapRequest) (*model.LapDistribution, error) {
	return &model.LapDistribution{Laps: []model.Lap{
		{Driver: "VER", LapNumber: 1, LapTimeSeconds: 96, Compound: model.CompoundSoft},
	}}, nil
}

func (stubSource) DetailTelemetry(_ context.Context, req model.DetailRequest) (*model.DetailTelemetry, error) {
	ret := &model.DetailTelemetry{TrackLength: 300}
	for _, d := range req.Drivers {
		ret.Drivers = append(ret.Drivers, model.DriverLap{
			Key: d, Driver: d,
			Telemetry: model.Channels{
				model.ChannelDistance: {0, 100, 200, 300},
				model.ChannelSpeed:    {100, 200, 250, 150},
				model.ChannelX:        {0, 10, 20, 30},
				model.ChannelY:        {0, 5, 10, 15},
			},
		})
	}
	return ret, nil
}

func (stubSource) Standings(context.Context, int) (*model.Standings, error) {
	return &model.Standings{Drivers: []model.DriverStanding{
		{Position: 1, Code: "VER", Points: decimal.NewFromInt(10)},
	}}, nil
}

func (stubSource) Schedule(context.Context, int) (model.Schedule, error) {
	return model.Schedule{{Round: 1}}, nil
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		session string
		want    []string
	}{
		{"qualifying", "", []string{"telemetry.html", "track.png", "standings.html"}},
		{"race", "Race", []string{"laps.html", "standings.html"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			d := dashboard.New(stubSource{}, dashboard.WithDrivers("VER"))
			defer d.Close()
			require.NoError(t, run(context.Background(), d, options{
				session: tt.session,
				outDir:  dir,
				season:  true,
			}))
			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			got := []string{}
			for _, e := range entries {
				got = append(got, e.Name())
			}
			assert.ElementsMatch(t, tt.want, got)
			for _, name := range tt.want {
				info, err := os.Stat(filepath.Join(dir, name))
				require.NoError(t, err)
				assert.Positive(t, info.Size())
			}
		})
	}
}

func TestRunUnknownRace(t *testing.T) {
	d := dashboard.New(stubSource{})
	defer d.Close()
	err := run(context.Background(), d, options{race: "Monaco Grand Prix", outDir: t.TempDir()})
	assert.ErrorIs(t, err, dashboard.ErrNotFound)
}
