package championship

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

func sampleBase() model.Standings {
	return model.Standings{
		Drivers: []model.DriverStanding{
			driver("VER", "Red Bull", 50),
			driver("NOR", "McLaren", 40),
			driver("LEC", "Ferrari", 30),
		},
		Constructors: []model.ConstructorStanding{
			team("Red Bull", "red_bull", 50),
			team("McLaren", "mclaren", 40),
			team("Ferrari", "ferrari", 30),
		},
	}
}

func sampleSchedule() model.Schedule {
	return model.Schedule{
		{Round: 1, Name: "Bahrain", IsDone: true},
		{Round: 2, Name: "Shanghai", IsSprint: true},
		{Round: 3, Name: "Suzuka"},
	}
}

func TestPredictorEdits(t *testing.T) {
	p := NewPredictor(sampleBase(), sampleSchedule())

	assert.NilError(t, p.SetRace(3, 1, "LEC"))
	assert.DeepEqual(t, driverRows(p.Standings().Drivers), []row{
		{1, "LEC", "55"}, {2, "VER", "50"}, {3, "NOR", "40"},
	})

	assert.NilError(t, p.SetSprint(2, 1, "NOR"))
	assert.DeepEqual(t, teamRows(p.Standings().Constructors), []row{
		{1, "Ferrari", "55"}, {2, "Red Bull", "50"}, {3, "McLaren", "48"},
	})

	// moving LEC to P2 frees P1
	assert.NilError(t, p.SetRace(3, 2, "LEC"))
	assert.DeepEqual(t, p.Predictions()[3].Race, map[int]string{2: "LEC"})

	assert.NilError(t, p.ClearPosition(3, KindRace, 2))
	p.ClearRound(2)
	assert.Equal(t, len(p.Predictions()), 0)
	assert.DeepEqual(t, driverRows(p.Standings().Drivers), []row{
		{1, "VER", "50"}, {2, "NOR", "40"}, {3, "LEC", "30"},
	})
}

func TestPredictorRejects(t *testing.T) {
	tests := []struct {
		name    string
		round   int
		kind    ResultKind
		pos     int
		wantErr error
	}{
		{name: "completed round", round: 1, kind: KindRace, pos: 1, wantErr: ErrRoundDone},
		{name: "unknown round", round: 9, kind: KindRace, pos: 1, wantErr: ErrUnknownRound},
		{name: "sprint on regular round", round: 3, kind: KindSprint, pos: 1, wantErr: ErrNoSprint},
		{name: "race position 11", round: 3, kind: KindRace, pos: 11, wantErr: ErrInvalidPosition},
		{name: "sprint position 9", round: 2, kind: KindSprint, pos: 9, wantErr: ErrInvalidPosition},
		{name: "position 0", round: 3, kind: KindRace, pos: 0, wantErr: ErrInvalidPosition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPredictor(sampleBase(), sampleSchedule())
			before := p.Standings()
			err := p.Set(tt.round, tt.kind, tt.pos, "LEC")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, len(p.Predictions()), 0)
			assert.DeepEqual(t, driverRows(p.Standings().Drivers), driverRows(before.Drivers))
		})
	}
}

func TestPredictorSeed(t *testing.T) {
	p := NewPredictor(sampleBase(), sampleSchedule(), WithPredictions(model.Predictions{
		1: {Round: 1, Race: map[int]string{1: "LEC"}},
		3: {Round: 3, Race: map[int]string{1: "NOR"}},
	}))
	assert.DeepEqual(t, p.Predictions(), model.Predictions{
		3: {Round: 3, Race: map[int]string{1: "NOR"}},
	})
	assert.DeepEqual(t, driverRows(p.Standings().Drivers), []row{
		{1, "NOR", "65"}, {2, "VER", "50"}, {3, "LEC", "30"},
	})
	assert.Equal(t, len(p.Rounds()), 2)
}

func TestPredictorSeedDuplicateCodes(t *testing.T) {
	seed := func() model.Predictions {
		return model.Predictions{
			3: {Round: 3, Race: map[int]string{1: "LEC", 2: "LEC", 3: "NOR", 4: "NOR"}},
		}
	}
	want := []row{{1, "NOR", "52"}, {2, "VER", "50"}, {3, "LEC", "48"}}
	for i := 0; i < 50; i++ {
		p := NewPredictor(sampleBase(), sampleSchedule(), WithPredictions(seed()))
		assert.DeepEqual(t, driverRows(p.Standings().Drivers), want)
		assert.DeepEqual(t, p.Predictions(), model.Predictions{
			3: {Round: 3, Race: map[int]string{2: "LEC", 4: "NOR"}},
		})
	}
}
