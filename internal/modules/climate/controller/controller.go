package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/fan"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
	"github.com/Christian-SuMePa/hausserver/internal/sensor"
)

// ClimateService is the slice of the climate service the HTTP layer needs.
type ClimateService interface {
	DailyView(day time.Time) (types.DayView, error)
	Latest() (*types.Measurement, error)
}

// FanStatus exposes the current fan state for the dashboard.
type FanStatus interface {
	State() fan.State
}

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service ClimateService
	fan     FanStatus
	loc     *time.Location
	cpuTemp func(ctx context.Context) (float64, error)
}

func NewClimateController(service ClimateService, fanStatus FanStatus, loc *time.Location) ClimateController {
	return &climateControllerImpl{
		service: service,
		fan:     fanStatus,
		loc:     loc,
		cpuTemp: sensor.CPUTemperatureC,
	}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /", c.handleDashboard)
	mux.HandleFunc("GET /climate", c.handleDayPage)
	mux.HandleFunc("GET /api/v1/climate/day", c.handleDay)
	mux.HandleFunc("GET /api/v1/climate/latest", c.handleLatest)
}
