package championship

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

var (
	ErrUnknownRound    = errors.New("unknown round")
	ErrRoundDone       = errors.New("round already completed")
	ErrNoSprint        = errors.New("round has no sprint")
	ErrInvalidPosition = errors.New("invalid position")
)

type ResultKind int

const (
	KindRace ResultKind = iota
	KindSprint
)

func (k ResultKind) String() string {
	if k == KindSprint {
		return "sprint"
	}
	return "race"
}

func (k ResultKind) table() PointsTable {
	if k == KindSprint {
		return SprintPoints
	}
	return RacePoints
}

type PredictorOption func(*Predictor)

// WithPredictions seeds the predictor. Entries violating the edit rules
// are dropped.
func WithPredictions(p model.Predictions) PredictorOption {
	return func(pr *Predictor) {
		pr.seed = p
	}
}

// Predictor is the editor for hypothetical round results.
// Every accepted edit recomputes the projected standings from scratch.
type Predictor struct {
	mu          sync.Mutex
	base        model.Standings
	schedule    model.Schedule
	predictions model.Predictions
	projected   model.Standings
	seed        model.Predictions
	log         *log.Logger
}

func NewPredictor(
	base model.Standings,
	schedule model.Schedule,
	opts ...PredictorOption,
) *Predictor {
	ret := &Predictor{
		base:        base,
		schedule:    schedule,
		predictions: model.Predictions{},
		log:         log.Default().Named("predictor"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	// seeds apply in round and position order; a code listed twice in a
	// result ends up on its last position
	rounds := lo.Keys(ret.seed)
	sort.Ints(rounds)
	for _, round := range rounds {
		rp := ret.seed[round]
		if rp == nil {
			continue
		}
		ret.applySeed(rp.Round, KindRace, rp.Race)
		ret.applySeed(rp.Round, KindSprint, rp.Sprint)
	}
	ret.seed = nil
	ret.recompute()
	return ret
}

func (p *Predictor) applySeed(round int, kind ResultKind, result map[int]string) {
	positions := lo.Keys(result)
	sort.Ints(positions)
	for _, pos := range positions {
		if err := p.set(round, kind, pos, result[pos]); err != nil {
			p.log.Warn("ignore prediction",
				log.Int("round", round),
				log.String("kind", kind.String()),
				log.ErrorField(err))
		}
	}
}

func (p *Predictor) SetRace(round, pos int, code string) error {
	return p.Set(round, KindRace, pos, code)
}

func (p *Predictor) SetSprint(round, pos int, code string) error {
	return p.Set(round, KindSprint, pos, code)
}

// Set puts driver code on pos of the round's result. A driver already
// placed elsewhere in the same result is moved. An empty code clears pos.
// On error nothing is changed.
func (p *Predictor) Set(round int, kind ResultKind, pos int, code string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.set(round, kind, pos, code); err != nil {
		return err
	}
	p.recompute()
	return nil
}

func (p *Predictor) ClearPosition(round int, kind ResultKind, pos int) error {
	return p.Set(round, kind, pos, "")
}

// ClearRound removes all predictions of round
func (p *Predictor) ClearRound(round int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.predictions, round)
	p.recompute()
}

func (p *Predictor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.predictions = model.Predictions{}
	p.recompute()
}

func (p *Predictor) Predictions() model.Predictions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.predictions.Clone()
}

// Standings returns the projected standings
func (p *Predictor) Standings() model.Standings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.projected
}

func (p *Predictor) Base() model.Standings {
	return p.base
}

// Rounds returns the rounds open for predictions
func (p *Predictor) Rounds() model.Schedule {
	return p.schedule.Upcoming()
}

//nolint:cyclop // validation steps
func (p *Predictor) set(round int, kind ResultKind, pos int, code string) error {
	r, ok := p.schedule.Find(round)
	if !ok {
		return fmt.Errorf("round %d: %w", round, ErrUnknownRound)
	}
	if r.IsDone {
		return fmt.Errorf("round %d: %w", round, ErrRoundDone)
	}
	if kind == KindSprint && !r.IsSprint {
		return fmt.Errorf("round %d: %w", round, ErrNoSprint)
	}
	if !kind.table().Valid(pos) {
		return fmt.Errorf("%s position %d: %w", kind, pos, ErrInvalidPosition)
	}

	rp, ok := p.predictions[round]
	if !ok {
		rp = &model.RoundPrediction{Round: round}
		p.predictions[round] = rp
	}
	result := rp.Race
	if kind == KindSprint {
		result = rp.Sprint
	}
	if result == nil {
		result = map[int]string{}
	}
	for k, v := range result {
		if v == code {
			delete(result, k)
		}
	}
	if code == "" {
		delete(result, pos)
	} else {
		result[pos] = code
	}
	if kind == KindSprint {
		rp.Sprint = result
	} else {
		rp.Race = result
	}
	if rp.IsEmpty() {
		delete(p.predictions, round)
	}
	return nil
}

func (p *Predictor) recompute() {
	p.projected = Simulate(p.base.Drivers, p.base.Constructors, p.predictions)
}
