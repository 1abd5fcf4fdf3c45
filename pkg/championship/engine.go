// Package championship projects season standings from hypothetical results.
package championship

import (
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

// Simulate applies the predicted results to the given base standings and
// returns the new standings. The inputs are not modified.
//
// Rounds are applied in ascending order. Predictions naming an unknown
// driver code are ignored. Ties keep the order of the base standings.
func Simulate(
	drivers []model.DriverStanding,
	constructors []model.ConstructorStanding,
	predictions model.Predictions,
) model.Standings {
	wdc := make([]model.DriverStanding, len(drivers))
	copy(wdc, drivers)
	wcc := make([]model.ConstructorStanding, len(constructors))
	copy(wcc, constructors)

	byCode := make(map[string]int, len(wdc))
	for i := range wdc {
		if _, ok := byCode[wdc[i].Code]; !ok {
			byCode[wdc[i].Code] = i
		}
	}

	award := func(code string, points decimal.Decimal) {
		idx, ok := byCode[code]
		if !ok {
			return
		}
		wdc[idx].Points = wdc[idx].Points.Add(points)
		if cIdx := teamIndex(wcc, wdc[idx].Team); cIdx >= 0 {
			wcc[cIdx].Points = wcc[cIdx].Points.Add(points)
		}
	}

	rounds := lo.Keys(predictions)
	sort.Ints(rounds)
	for _, r := range rounds {
		pred := predictions[r]
		if pred == nil {
			continue
		}
		applyResult(pred.Race, RacePoints, award)
		applyResult(pred.Sprint, SprintPoints, award)
	}

	sort.SliceStable(wdc, func(i, j int) bool {
		return wdc[i].Points.GreaterThan(wdc[j].Points)
	})
	sort.SliceStable(wcc, func(i, j int) bool {
		return wcc[i].Points.GreaterThan(wcc[j].Points)
	})
	for i := range wdc {
		wdc[i].Position = i + 1
	}
	for i := range wcc {
		wcc[i].Position = i + 1
	}
	return model.Standings{Drivers: wdc, Constructors: wcc}
}

func applyResult(result map[int]string, table PointsTable, award func(string, decimal.Decimal)) {
	for _, pos := range table.Positions() {
		if code, ok := result[pos]; ok && code != "" {
			award(code, table.Points(pos))
		}
	}
}

// teamIndex finds the constructor by team name or constructor id
func teamIndex(wcc []model.ConstructorStanding, team string) int {
	if team == "" {
		return -1
	}
	_, idx, ok := lo.FindIndexOf(wcc, func(c model.ConstructorStanding) bool {
		return c.Team == team || c.ID == team
	})
	if !ok {
		return -1
	}
	return idx
}
