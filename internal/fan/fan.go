// Package fan drives the enclosure fan with a temperature hysteresis band:
// it switches on at or above the upper threshold and off at or below the
// lower one, so readings inside the band never toggle the relay.
package fan

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/config"
)

// Actuator sets the physical drive level. Set is idempotent; re-asserting
// the current level is allowed and harmless.
type Actuator interface {
	Set(on bool) error
}

type State struct {
	On             bool      `json:"on"`
	LastTransition time.Time `json:"last_transition"`
}

// Controller owns the fan state machine. Evaluate feeds it fresh ambient
// temperatures; Reapply re-asserts the decision between samples so a
// restarted relay board ends up at the level the controller believes in.
type Controller struct {
	mu           sync.Mutex
	actuator     Actuator
	onC          float64
	offC         float64
	logger       *slog.Logger
	onTransition func(State)
	now          func() time.Time

	state    State
	lastTemp *float64
}

// NewController starts in the off state without touching the actuator; the
// first Evaluate or Reapply drives it. onTransition may be nil, and is
// called outside the controller lock.
func NewController(act Actuator, onC, offC float64, logger *slog.Logger, onTransition func(State)) (*Controller, error) {
	if act == nil {
		return nil, errors.New("fan: nil actuator")
	}
	if offC >= onC {
		return nil, fmt.Errorf("fan: off threshold %v not below on threshold %v", offC, onC)
	}
	return &Controller{
		actuator:     act,
		onC:          onC,
		offC:         offC,
		logger:       logger,
		onTransition: onTransition,
		now:          time.Now,
	}, nil
}

// Evaluate applies the hysteresis decision for a fresh temperature sample.
func (c *Controller) Evaluate(tempC float64) error {
	c.mu.Lock()
	c.lastTemp = &tempC
	st, changed, err := c.applyLocked(tempC)
	c.mu.Unlock()
	c.notify(st, changed)
	return err
}

// Reapply re-runs the decision for the most recent sample. Before the first
// sample it only re-asserts the current drive level.
func (c *Controller) Reapply() error {
	c.mu.Lock()
	if c.lastTemp == nil {
		err := c.actuator.Set(c.state.On)
		c.mu.Unlock()
		if err != nil {
			return fmt.Errorf("fan actuator: %w", err)
		}
		return nil
	}
	st, changed, err := c.applyLocked(*c.lastTemp)
	c.mu.Unlock()
	c.notify(st, changed)
	return err
}

// ForceOff drives the fan off regardless of temperature; used on shutdown so
// the relay is never left energised by a dead process.
func (c *Controller) ForceOff() error {
	c.mu.Lock()
	var changed bool
	err := c.actuator.Set(false)
	if err == nil && c.state.On {
		c.state = State{On: false, LastTransition: c.now()}
		changed = true
		c.logger.Info("fan forced off")
	}
	st := c.state
	c.mu.Unlock()
	c.notify(st, changed)
	if err != nil {
		return fmt.Errorf("fan actuator: %w", err)
	}
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// applyLocked decides the desired level, drives it, and records a transition
// only when the actuator accepted the new level.
func (c *Controller) applyLocked(tempC float64) (State, bool, error) {
	desired := c.state.On
	switch {
	case tempC >= c.onC:
		desired = true
	case tempC <= c.offC:
		desired = false
	}
	if err := c.actuator.Set(desired); err != nil {
		return c.state, false, fmt.Errorf("fan actuator: %w", err)
	}
	changed := desired != c.state.On
	if changed {
		c.state = State{On: desired, LastTransition: c.now()}
		c.logger.Info("fan switched",
			"on", desired,
			"temperature_c", tempC,
			"threshold_on_c", c.onC,
			"threshold_off_c", c.offC,
		)
	}
	return c.state, changed, nil
}

func (c *Controller) notify(st State, changed bool) {
	if changed && c.onTransition != nil {
		c.onTransition(st)
	}
}

// NewActuator builds the driver selected by FAN_DRIVER.
func NewActuator(cfg config.Config, logger *slog.Logger) (Actuator, error) {
	switch cfg.FanDriver {
	case "sim":
		return NewSim(), nil
	case "gpio":
		return NewGPIO(cfg.FanGPIOPin, logger)
	default:
		return nil, fmt.Errorf("unknown fan driver %q", cfg.FanDriver)
	}
}
