// Package sensor abstracts the climate sensor behind a single Read call.
// Three drivers exist: sim (deterministic fake for development), dht22
// (single-wire GPIO) and bme280 (I²C). All drivers reject readings outside
// the plausible physical range before handing them to callers.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Christian-SuMePa/hausserver/internal/config"
)

// Reading is one raw sample from the hardware, unrounded.
type Reading struct {
	TemperatureC float64
	HumidityPct  float64
}

type Sensor interface {
	Read(ctx context.Context) (Reading, error)
}

// ErrInvalidReading marks samples outside the plausible physical range.
// Callers treat it like any other read failure.
var ErrInvalidReading = errors.New("reading outside plausible range")

// DHT22 datasheet limits; the BME280 range is wider but anything beyond
// these values indoors is a wiring or transfer fault, not weather.
const (
	minTemperatureC = -40.0
	maxTemperatureC = 85.0
	minHumidityPct  = 1.0
	maxHumidityPct  = 100.0
)

func validate(r Reading) error {
	if r.TemperatureC < minTemperatureC || r.TemperatureC > maxTemperatureC {
		return fmt.Errorf("%w: temperature %.1f°C", ErrInvalidReading, r.TemperatureC)
	}
	if r.HumidityPct < minHumidityPct || r.HumidityPct > maxHumidityPct {
		return fmt.Errorf("%w: humidity %.1f%%", ErrInvalidReading, r.HumidityPct)
	}
	return nil
}

// New builds the driver selected by SENSOR_DRIVER. Hardware drivers probe
// their bus on construction so a miswired setup fails at startup, not on the
// first sampling tick.
func New(cfg config.Config, logger *slog.Logger) (Sensor, error) {
	switch cfg.SensorDriver {
	case "sim":
		return NewSim(cfg.Location), nil
	case "dht22":
		return NewDHT22(cfg.SensorDHTPin, logger)
	case "bme280":
		return NewBME280(cfg.SensorBME280Addr, logger)
	default:
		return nil, fmt.Errorf("unknown sensor driver %q", cfg.SensorDriver)
	}
}
