package racestints

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/mpapenbr/beyond-the-apex/pkg/model"
)

const (
	MinStintLaps = 4
	MaxInsights  = 7

	// slope thresholds in seconds per lap
	heavyDeg    = 0.08
	moderateDeg = 0.03
	steadyBand  = 0.01
	improving   = -0.02
)

type Trend int

const (
	TrendNone Trend = iota
	TrendHeavy
	TrendModerate
	TrendSteady
	TrendImproving
)

type Degradation struct {
	Driver   string
	Compound model.Compound
	Stint    model.Stint
	Slope    float64 // seconds per lap
	Trend    Trend
}

func (d Degradation) String() string {
	switch d.Trend {
	case TrendHeavy:
		return fmt.Sprintf("%s %ss degraded heavily (+%.2fs/lap).", d.Driver, d.Compound, d.Slope)
	case TrendModerate:
		return fmt.Sprintf("%s %ss degraded by %.2fs per lap.", d.Driver, d.Compound, d.Slope)
	case TrendSteady:
		return fmt.Sprintf("%s %ss held steady.", d.Driver, d.Compound)
	case TrendImproving:
		return fmt.Sprintf("%s got faster on %ss (-%.2fs/lap).", d.Driver, d.Compound, math.Abs(d.Slope))
	default:
		return ""
	}
}

func classify(slope float64) Trend {
	switch {
	case slope > heavyDeg:
		return TrendHeavy
	case slope > moderateDeg:
		return TrendModerate
	case slope > -steadyBand && slope < steadyBand:
		return TrendSteady
	case slope < improving:
		return TrendImproving
	default:
		return TrendNone
	}
}

// StintDegradation fits a line through the lap times of the stint.
// Laps further than two standard deviations from the mean are dropped
// before the fit. Returns false if fewer than MinStintLaps remain or the
// compound is unknown.
func StintDegradation(stint model.Stint, laps []model.Lap) (Degradation, bool) {
	if stint.Compound == model.CompoundUnknown {
		return Degradation{}, false
	}
	in := lo.Filter(laps, func(l model.Lap, _ int) bool {
		return l.Driver == stint.Driver && stint.Contains(l.LapNumber) && l.LapTimeSeconds > 0
	})
	if len(in) < MinStintLaps {
		return Degradation{}, false
	}
	y := lo.Map(in, func(l model.Lap, _ int) float64 { return l.LapTimeSeconds })
	mean, std := stat.PopMeanStdDev(y, nil)

	xs := make([]float64, 0, len(in))
	ys := make([]float64, 0, len(in))
	for _, l := range in {
		if math.Abs(l.LapTimeSeconds-mean) < 2*std {
			xs = append(xs, float64(l.LapNumber))
			ys = append(ys, l.LapTimeSeconds)
		}
	}
	if len(xs) < MinStintLaps {
		return Degradation{}, false
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return Degradation{
		Driver:   stint.Driver,
		Compound: stint.Compound,
		Stint:    stint,
		Slope:    slope,
		Trend:    classify(slope),
	}, true
}

// Insights computes degradation insights for every stint of dist.
// Drivers are processed in alphabetical order, stints by start lap.
// Out laps and in laps around a pit stop are excluded from the fit.
func Insights(dist *model.LapDistribution) []string {
	if dist == nil {
		return []string{}
	}
	drivers := lo.Keys(dist.Stints)
	sort.Strings(drivers)
	ret := []string{}
	for _, driver := range drivers {
		stints := dist.DriverStints(driver)
		for i, s := range stints {
			fit := s
			if i > 0 {
				fit.Start++
			}
			if i < len(stints)-1 {
				fit.End--
			}
			d, ok := StintDegradation(fit, dist.Laps)
			if !ok || d.Trend == TrendNone {
				continue
			}
			d.Stint = s
			ret = append(ret, d.String())
			if len(ret) == MaxInsights {
				return ret
			}
		}
	}
	return ret
}
