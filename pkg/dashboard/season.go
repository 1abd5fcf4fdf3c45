package dashboard

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/beyond-the-apex/log"
	"github.com/mpapenbr/beyond-the-apex/pkg/championship"
	"github.com/mpapenbr/beyond-the-apex/pkg/fetch"
	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

// LoadSeason fetches standings and schedule of year concurrently and sets
// up a fresh predictor. Predictions of a previously loaded season are lost.
func (d *Dashboard) LoadSeason(ctx context.Context, year int) error {
	ctx, span := d.tracer.Start(ctx, "dashboard.LoadSeason",
		trace.WithAttributes(attribute.Int("year", year)))
	defer span.End()

	d.mu.Lock()
	d.seasonToken++
	tok := d.seasonToken
	d.mu.Unlock()

	var (
		standings *model.Standings
		schedule  model.Schedule
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		standings, err = d.src.Standings(gCtx, year)
		return err
	})
	g.Go(func() error {
		var err error
		schedule, err = d.src.Schedule(gCtx, year)
		return err
	})
	err := g.Wait()

	d.mu.Lock()
	if tok != d.seasonToken {
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		d.errMsg = fetch.Message(err)
		d.mu.Unlock()
		d.log.Warn("season load failed", log.Int("year", year), log.ErrorField(err))
		d.publishSnapshot()
		return err
	}
	d.seasonYear = year
	d.predictor = championship.NewPredictor(*standings, schedule)
	d.mu.Unlock()
	d.publishSnapshot()
	return nil
}

// Predictor returns the predictor of the loaded season or nil
func (d *Dashboard) Predictor() *championship.Predictor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.predictor
}

// Predict places driver code on pos of round. An empty code clears pos.
func (d *Dashboard) Predict(round int, kind championship.ResultKind, pos int, code string) error {
	p := d.Predictor()
	if p == nil {
		return ErrNotFound
	}
	if err := p.Set(round, kind, pos, code); err != nil {
		return err
	}
	d.publishSnapshot()
	return nil
}

func (d *Dashboard) ClearPredictions(round int) error {
	p := d.Predictor()
	if p == nil {
		return ErrNotFound
	}
	if round > 0 {
		p.ClearRound(round)
	} else {
		p.Reset()
	}
	d.publishSnapshot()
	return nil
}
