package service

import "math"

// Magnus formula constants, valid for the -45°C..60°C range.
const (
	magnusA = 17.62
	magnusB = 243.12
)

// DewPoint computes the dew point in °C from temperature in °C and relative
// humidity in percent (>0), rounded to two decimals. The result is clamped
// to the temperature: at 100% humidity both are equal and the dew point can
// never sit above the air temperature.
func DewPoint(tempC, humidityPct float64) float64 {
	gamma := magnusA*tempC/(magnusB+tempC) + math.Log(humidityPct/100)
	dew := round2(magnusB * gamma / (magnusA - gamma))
	if dew > tempC {
		dew = tempC
	}
	return dew
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
