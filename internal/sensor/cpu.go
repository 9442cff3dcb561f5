package sensor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/sensors"
)

// Zone names in preference order. A Raspberry Pi exposes cpu_thermal;
// desktop-class hosts report coretemp or k10temp.
var cpuSensorKeys = []string{"cpu_thermal", "cpu-thermal", "soc_thermal", "coretemp", "k10temp"}

// CPUTemperatureC reads the SoC temperature for the status endpoint. When no
// known zone matches it falls back to the hottest reported sensor.
func CPUTemperatureC(ctx context.Context) (float64, error) {
	stats, err := sensors.TemperaturesWithContext(ctx)
	if err != nil && len(stats) == 0 {
		return 0, fmt.Errorf("read temperature sensors: %w", err)
	}
	for _, key := range cpuSensorKeys {
		for _, s := range stats {
			if strings.Contains(s.SensorKey, key) && s.Temperature > 0 {
				return s.Temperature, nil
			}
		}
	}
	var hottest float64
	for _, s := range stats {
		if s.Temperature > hottest {
			hottest = s.Temperature
		}
	}
	if hottest == 0 {
		return 0, errors.New("no temperature sensors reported")
	}
	return hottest, nil
}
