package sensor

import (
	"context"
	"math"
	"time"
)

// Sim produces a deterministic diurnal curve so development setups get
// plausible indoor data without hardware: temperature peaks mid-afternoon,
// humidity moves opposite to it.
type Sim struct {
	clock func() time.Time
	loc   *time.Location
}

func NewSim(loc *time.Location) *Sim {
	return &Sim{clock: time.Now, loc: loc}
}

func (s *Sim) Read(_ context.Context) (Reading, error) {
	now := s.clock().In(s.loc)
	h := float64(now.Hour()) + float64(now.Minute())/60.0
	phase := 2 * math.Pi * (h - 15) / 24
	return Reading{
		TemperatureC: 21.0 + 5.5*math.Cos(phase),
		HumidityPct:  60.0 - 12.0*math.Cos(phase),
	}, nil
}
