package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"
)

// BME280 reads temperature and humidity over I²C. The pressure channel the
// chip also offers is ignored here.
type BME280 struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

func NewBME280(addr uint16, logger *slog.Logger) (*BME280, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open("") // default bus, usually /dev/i2c-1
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("probe bme280 at %#02x: %w", addr, err)
	}
	logger.Info("bme280 initialised", "addr", fmt.Sprintf("%#02x", addr))
	return &BME280{bus: bus, dev: dev}, nil
}

func (b *BME280) Read(ctx context.Context) (Reading, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	var env physic.Env
	if err := b.dev.Sense(&env); err != nil {
		return Reading{}, fmt.Errorf("bme280 sense: %w", err)
	}
	r := Reading{
		TemperatureC: env.Temperature.Celsius(),
		// env.Humidity is a fixed point integer at a precision of 0.00001%rH.
		HumidityPct: float64(env.Humidity) / 100000.0,
	}
	if err := validate(r); err != nil {
		return Reading{}, err
	}
	return r, nil
}

func (b *BME280) Close() error {
	err := b.dev.Halt()
	if cerr := b.bus.Close(); err == nil {
		err = cerr
	}
	return err
}
