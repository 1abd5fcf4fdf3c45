package model

// channel names as delivered by the analysis service
const (
	ChannelDistance = "distance"
	ChannelSpeed    = "speed"
	ChannelThrottle = "throttle"
	ChannelBrake    = "brake"
	ChannelRPM      = "rpm"
	ChannelGear     = "gear"
	ChannelLongG    = "long_g"
	ChannelDelta    = "delta_to_pole"
	ChannelTime     = "time"
	ChannelX        = "x"
	ChannelY        = "y"
)

// TelemetrySample is a single point of a lap, ordered by Distance.
type TelemetrySample struct {
	Distance         float64 `json:"distance"` // meters
	Speed            float64 `json:"speed"`    // km/h
	Throttle         float64 `json:"throttle"` // 0-100
	Brake            float64 `json:"brake"`    // 0-100
	RPM              float64 `json:"rpm"`
	Gear             float64 `json:"gear"`
	LongG            float64 `json:"longG"`
	X                float64 `json:"x"`
	Y                float64 `json:"y"`
	DeltaToReference float64 `json:"deltaToReference"` // seconds
	Time             float64 `json:"time"`             // seconds into lap
}

// Channels holds the raw per-channel arrays of one driver lap.
// All arrays of one driver are aligned by distance.
type Channels map[string][]float64

// Get returns the values of a channel. A missing channel yields nil.
func (c Channels) Get(name string) []float64 {
	if c == nil {
		return nil
	}
	return c[name]
}

func (c Channels) Len() int {
	return len(c.Get(ChannelDistance))
}

// Samples zips the channel arrays into samples. The distance channel
// determines the number of samples, missing values stay zero.
func (c Channels) Samples() []TelemetrySample {
	n := c.Len()
	ret := make([]TelemetrySample, n)
	pick := func(name string, i int) float64 {
		v := c.Get(name)
		if i < len(v) {
			return v[i]
		}
		return 0
	}
	for i := range ret {
		ret[i] = TelemetrySample{
			Distance:         pick(ChannelDistance, i),
			Speed:            pick(ChannelSpeed, i),
			Throttle:         pick(ChannelThrottle, i),
			Brake:            pick(ChannelBrake, i),
			RPM:              pick(ChannelRPM, i),
			Gear:             pick(ChannelGear, i),
			LongG:            pick(ChannelLongG, i),
			X:                pick(ChannelX, i),
			Y:                pick(ChannelY, i),
			DeltaToReference: pick(ChannelDelta, i),
			Time:             pick(ChannelTime, i),
		}
	}
	return ret
}
