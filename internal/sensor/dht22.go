package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// A high pulse of 26-28µs encodes a 0 bit, ~70µs a 1 bit.
const bitThreshold = 50 * time.Microsecond

// DHT22 talks the AM2302 single-wire protocol over one GPIO pin. Reads are
// serialised; the sensor itself needs ~2s between conversions, which the
// sampling interval exceeds by orders of magnitude.
type DHT22 struct {
	mu     sync.Mutex
	pin    gpio.PinIO
	logger *slog.Logger
}

func NewDHT22(pinName string, logger *slog.Logger) (*DHT22, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", pinName)
	}
	// Idle high until the first read.
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure %s as input: %w", pinName, err)
	}
	logger.Info("dht22 initialised", "pin", pin.Name())
	return &DHT22{pin: pin, logger: logger}, nil
}

func (d *DHT22) Read(ctx context.Context) (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	frame, err := d.readFrame()
	if err != nil {
		return Reading{}, fmt.Errorf("dht22 on %s: %w", d.pin.Name(), err)
	}
	r, err := decodeFrame(frame)
	if err != nil {
		return Reading{}, fmt.Errorf("dht22 on %s: %w", d.pin.Name(), err)
	}
	if err := validate(r); err != nil {
		return Reading{}, err
	}
	return r, nil
}

func (d *DHT22) Close() error {
	return d.pin.Halt()
}

// readFrame runs the single-wire handshake and samples the 40 data bits.
// Bit timing is tight; a read preempted by the kernel scheduler shows up as
// a timeout or checksum mismatch and the caller retries on the next tick.
func (d *DHT22) readFrame() ([5]byte, error) {
	var frame [5]byte

	// Host start signal: hold the line low for 2ms (datasheet minimum 1ms),
	// then release it and let the pull-up raise it.
	if err := d.pin.Out(gpio.Low); err != nil {
		return frame, fmt.Errorf("start signal: %w", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := d.pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return frame, fmt.Errorf("release line: %w", err)
	}

	// Sensor response: ~80µs low, ~80µs high, then the data bits.
	if _, err := d.waitLevel(gpio.Low, 250*time.Microsecond); err != nil {
		return frame, fmt.Errorf("no response: %w", err)
	}
	if _, err := d.waitLevel(gpio.High, 200*time.Microsecond); err != nil {
		return frame, fmt.Errorf("response low phase: %w", err)
	}
	if _, err := d.waitLevel(gpio.Low, 200*time.Microsecond); err != nil {
		return frame, fmt.Errorf("response high phase: %w", err)
	}

	// Each bit is a ~50µs low separator followed by a level-encoding high.
	for i := 0; i < 40; i++ {
		if _, err := d.waitLevel(gpio.High, 150*time.Microsecond); err != nil {
			return frame, fmt.Errorf("bit %d separator: %w", i, err)
		}
		high, err := d.waitLevel(gpio.Low, 150*time.Microsecond)
		if err != nil {
			return frame, fmt.Errorf("bit %d pulse: %w", i, err)
		}
		if high > bitThreshold {
			frame[i/8] |= 1 << (7 - i%8)
		}
	}
	return frame, nil
}

// waitLevel busy-polls until the pin reads level, returning how long the
// previous level lasted. Sleeping is not an option at these pulse widths.
func (d *DHT22) waitLevel(level gpio.Level, timeout time.Duration) (time.Duration, error) {
	start := time.Now()
	for d.pin.Read() != level {
		if elapsed := time.Since(start); elapsed > timeout {
			return elapsed, fmt.Errorf("timeout waiting for line %s", level)
		}
	}
	return time.Since(start), nil
}

// decodeFrame validates the checksum and unpacks humidity and temperature,
// both transferred as tenths. Bit 15 of the temperature word is the sign.
func decodeFrame(frame [5]byte) (Reading, error) {
	sum := frame[0] + frame[1] + frame[2] + frame[3]
	if sum != frame[4] {
		return Reading{}, fmt.Errorf("checksum mismatch: computed %#02x, frame carries %#02x", sum, frame[4])
	}
	hum := float64(uint16(frame[0])<<8|uint16(frame[1])) / 10
	temp := float64(uint16(frame[2]&0x7F)<<8|uint16(frame[3])) / 10
	if frame[2]&0x80 != 0 {
		temp = -temp
	}
	return Reading{TemperatureC: temp, HumidityPct: hum}, nil
}
