package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

// fakeSource serves canned data. Detail requests for laps listed in block
// wait until the matching channel is closed.
type fakeSource struct {
	mu         sync.Mutex
	detailReqs []model.DetailRequest
	lapReqs    []model.LapRequest
	detailErr  error
	block      map[string]chan struct{}
	started    chan string
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		block:   map[string]chan struct{}{},
		started: make(chan string, 8),
	}
}

func picksKey(laps []model.LapRef) string {
	ret := ""
	for _, l := range laps {
		ret += fmt.Sprintf("%s/%d;", l.Driver, l.Lap)
	}
	return ret
}

func (f *fakeSource) Years(context.Context) ([]int, error) {
	return []int{2022, 2024, 2023}, nil
}

func (f *fakeSource) Races(_ context.Context, year int) ([]string, error) {
	if year == 1950 {
		return nil, errors.New("no such season")
	}
	return []string{"Bahrain Grand Prix", "Saudi Arabian Grand Prix"}, nil
}

func (f *fakeSource) Sessions(_ context.Context, _ int, race string) ([]string, error) {
	if race == "Saudi Arabian Grand Prix" {
		return []string{"Practice 1", "Race"}, nil
	}
	return []string{"Practice 1", "Sprint Qualifying", "Qualifying", "Race"}, nil
}

func (f *fakeSource) LapDistribution(_ context.Context, req model.LapRequest) (*model.LapDistribution, error) {
	f.mu.Lock()
	f.lapReqs = append(f.lapReqs, req)
	f.mu.Unlock()
	ret := &model.LapDistribution{RaceWinner: "Max Verstappen", WinnerLabel: "Winner"}
	for _, d := range req.Drivers {
		for lap := 1; lap <= 6; lap++ {
			c := model.CompoundSoft
			if lap > 3 {
				c = model.CompoundHard
			}
			ret.Laps = append(ret.Laps, model.Lap{
				Driver: d, LapNumber: lap, LapTimeSeconds: 95 + float64(lap), Compound: c,
			})
		}
	}
	return ret, nil
}

func (f *fakeSource) DetailTelemetry(ctx context.Context, req model.DetailRequest) (*model.DetailTelemetry, error) {
	f.mu.Lock()
	f.detailReqs = append(f.detailReqs, req)
	wait := f.block[picksKey(req.Laps)]
	err := f.detailErr
	f.mu.Unlock()
	if wait != nil {
		f.started <- picksKey(req.Laps)
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	ret := &model.DetailTelemetry{
		TrackLength:        300,
		SessionBestSectors: []float64{20, 21, 22},
		PoleInfo:           &model.PoleInfo{Driver: "VER", Time: 63},
		Drivers:            model.DriverLaps{},
	}
	keys := req.Drivers
	if len(req.Laps) > 0 {
		keys = nil
		for _, l := range req.Laps {
			keys = append(keys, fmt.Sprintf("%s (L%d)", l.Driver, l.Lap))
		}
	}
	for i, k := range keys {
		ret.Drivers = append(ret.Drivers, model.DriverLap{
			Key:    k,
			Driver: model.DriverFromKey(k),
			Telemetry: model.Channels{
				model.ChannelDistance: {0, 100, 200, 300},
				model.ChannelSpeed:    {100, 200 + float64(i), 250, 150},
				model.ChannelX:        {0, 10, 20, 30},
				model.ChannelY:        {0, 5, 10, 15},
			},
			Sectors: []float64{20 + float64(i), 21, 22.5},
		})
	}
	return ret, nil
}

func (f *fakeSource) Standings(context.Context, int) (*model.Standings, error) {
	return &model.Standings{
		Drivers: []model.DriverStanding{
			{Position: 1, Code: "VER", Team: "Red Bull", Points: decimal.NewFromInt(30)},
			{Position: 2, Code: "HAM", Team: "Ferrari", Points: decimal.NewFromInt(20)},
		},
		Constructors: []model.ConstructorStanding{
			{Position: 1, Team: "Red Bull", ID: "red_bull", Points: decimal.NewFromInt(30)},
			{Position: 2, Team: "Ferrari", ID: "ferrari", Points: decimal.NewFromInt(20)},
		},
	}, nil
}

func (f *fakeSource) Schedule(context.Context, int) (model.Schedule, error) {
	return model.Schedule{
		{Round: 1, Name: "Bahrain Grand Prix", IsDone: true},
		{Round: 2, Name: "Chinese Grand Prix", IsSprint: true},
		{Round: 3, Name: "Japanese Grand Prix"},
	}, nil
}

func (f *fakeSource) detailCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailReqs)
}

func (f *fakeSource) lapCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lapReqs)
}
