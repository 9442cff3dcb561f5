package fan

import (
	"fmt"
	"log/slog"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIO switches the fan relay through one output pin, active high. The pin
// is driven low on construction so a crashed previous run cannot leave the
// fan running unnoticed.
type GPIO struct {
	mu  sync.Mutex
	pin gpio.PinIO
}

func NewGPIO(pinName string, logger *slog.Logger) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", pinName)
	}
	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("drive %s low: %w", pinName, err)
	}
	logger.Info("fan gpio initialised", "pin", pin.Name())
	return &GPIO{pin: pin}, nil
}

func (g *GPIO) Set(on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	level := gpio.Low
	if on {
		level = gpio.High
	}
	if err := g.pin.Out(level); err != nil {
		return fmt.Errorf("drive %s %s: %w", g.pin.Name(), level, err)
	}
	return nil
}
