// Package service implements the climate core: the sampling pipeline from
// sensor to store, fan control handoff, and the daily query views.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/config"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/repository"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
	"github.com/Christian-SuMePa/hausserver/internal/sensor"
)

// Publisher is the outbound MQTT surface the sampler needs. The real
// implementation no-ops when publishing is disabled.
type Publisher interface {
	PublishMeasurement(m types.Measurement) error
	PublishAlert(subject, detail string) error
}

// FanController receives every successfully sampled temperature.
type FanController interface {
	Evaluate(tempC float64) error
}

type Service struct {
	repo      repository.ClimateRepository
	sensor    sensor.Sensor
	fan       FanController
	publisher Publisher
	logger    *slog.Logger

	loc             *time.Location
	smoothingWindow int
	maxConsecFails  int

	now func() time.Time

	mu          sync.Mutex
	consecFails int
	lastSuccess time.Time
}

// Stats is the sampler health excerpt for the status endpoint.
type Stats struct {
	ConsecutiveSensorFailures int       `json:"consecutive_sensor_failures"`
	LastSampleAt              time.Time `json:"last_sample_at"`
}

func NewService(repo repository.ClimateRepository, sens sensor.Sensor, fanCtrl FanController, pub Publisher, cfg config.Config, logger *slog.Logger) *Service {
	return &Service{
		repo:            repo,
		sensor:          sens,
		fan:             fanCtrl,
		publisher:       pub,
		logger:          logger,
		loc:             cfg.Location,
		smoothingWindow: cfg.SmoothingWindow,
		maxConsecFails:  cfg.SensorMaxConsecFailures,
		now:             time.Now,
	}
}

// SampleOnce runs one sampling tick: read, round, derive the dew point, hand
// the temperature to the fan controller, store, publish. A sensor failure
// counts toward the alert ceiling; a storage failure drops the sample but is
// otherwise harmless.
func (s *Service) SampleOnce(ctx context.Context) error {
	reading, err := s.sensor.Read(ctx)
	if err != nil {
		n := s.recordFailure(err)
		return fmt.Errorf("read sensor (consecutive failure %d): %w", n, err)
	}
	s.recordSuccess()

	temp := round2(reading.TemperatureC)
	hum := round2(reading.HumidityPct)
	m := types.Measurement{
		Timestamp:    s.now().In(s.loc),
		TemperatureC: temp,
		HumidityPct:  hum,
		DewPointC:    DewPoint(temp, hum),
	}

	// Control before persistence: a full disk must not stop the fan.
	if err := s.fan.Evaluate(temp); err != nil {
		s.logger.Warn("fan evaluate failed", "error", err)
	}

	id, err := s.repo.Insert(m)
	if err != nil {
		return fmt.Errorf("store measurement: %w", err)
	}
	m.ID = id

	if err := s.publisher.PublishMeasurement(m); err != nil {
		s.logger.Warn("publish measurement failed", "error", err)
	}

	s.logger.Debug("sample stored",
		"id", id,
		"temperature_c", temp,
		"humidity_pct", hum,
		"dew_point_c", m.DewPointC,
	)
	return nil
}

// DailyView returns the raw and smoothed series for the civil day containing
// the given instant. Days without measurements yield empty arrays.
func (s *Service) DailyView(day time.Time) (types.DayView, error) {
	rows, err := s.repo.ListDay(day)
	if err != nil {
		return types.DayView{}, fmt.Errorf("list day: %w", err)
	}

	view := types.DayView{
		Date:       day.In(s.loc).Format("2006-01-02"),
		Timestamps: make([]string, 0, len(rows)),
		Raw: types.Series{
			Temperature: make([]float64, 0, len(rows)),
			Humidity:    make([]float64, 0, len(rows)),
			DewPoint:    make([]float64, 0, len(rows)),
		},
	}
	for _, m := range rows {
		view.Timestamps = append(view.Timestamps, m.Timestamp.Format(time.RFC3339))
		view.Raw.Temperature = append(view.Raw.Temperature, m.TemperatureC)
		view.Raw.Humidity = append(view.Raw.Humidity, m.HumidityPct)
		view.Raw.DewPoint = append(view.Raw.DewPoint, m.DewPointC)
	}
	view.Smoothed = types.Series{
		Temperature: smoothSeries(view.Raw.Temperature, s.smoothingWindow),
		Humidity:    smoothSeries(view.Raw.Humidity, s.smoothingWindow),
		DewPoint:    smoothSeries(view.Raw.DewPoint, s.smoothingWindow),
	}
	return view, nil
}

// Latest returns the most recent measurement, or nil on an empty store.
func (s *Service) Latest() (*types.Measurement, error) {
	return s.repo.Latest()
}

func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		ConsecutiveSensorFailures: s.consecFails,
		LastSampleAt:              s.lastSuccess,
	}
}

func (s *Service) recordFailure(err error) int {
	s.mu.Lock()
	s.consecFails++
	n := s.consecFails
	s.mu.Unlock()

	if n == s.maxConsecFails {
		s.logger.Error("sensor failure ceiling reached", "consecutive_failures", n, "error", err)
		detail := fmt.Sprintf("%d consecutive sensor read failures, last: %v", n, err)
		if perr := s.publisher.PublishAlert("sensor failing", detail); perr != nil {
			s.logger.Warn("publish alert failed", "error", perr)
		}
	}
	return n
}

func (s *Service) recordSuccess() {
	s.mu.Lock()
	s.consecFails = 0
	s.lastSuccess = s.now()
	s.mu.Unlock()
}

// smoothSeries is a trailing moving average: each element averages the
// window ending at it, with the window shrinking at the left edge so the
// output has the same length as the input.
func smoothSeries(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window < 1 {
		window = 1
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := window
		if i+1 < window {
			n = i + 1
		}
		out[i] = round2(sum / float64(n))
	}
	return out
}
