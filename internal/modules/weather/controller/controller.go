package controller

import (
	"context"
	"net/http"

	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/types"
)

// WeatherService is the slice of the weather cache the HTTP layer needs.
type WeatherService interface {
	Snapshot(ctx context.Context) (types.Snapshot, error)
}

type WeatherController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type weatherControllerImpl struct {
	service WeatherService
}

func NewWeatherController(service WeatherService) WeatherController {
	return &weatherControllerImpl{service: service}
}

func (c *weatherControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /weather", c.handleWeatherPage)
	mux.HandleFunc("GET /api/v1/weather", c.handleSnapshot)
}
