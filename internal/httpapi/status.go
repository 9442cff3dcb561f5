package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Christian-SuMePa/hausserver/internal/fan"
	climateservice "github.com/Christian-SuMePa/hausserver/internal/modules/climate/service"
	weatherservice "github.com/Christian-SuMePa/hausserver/internal/modules/weather/service"
	"github.com/Christian-SuMePa/hausserver/internal/utils"
)

// FanStatus, SamplerStats and WeatherCache are the diagnostic slices of
// the subsystems surfaced by the status endpoint.
type FanStatus interface {
	State() fan.State
}

type SamplerStats interface {
	Stats() climateservice.Stats
}

type WeatherCache interface {
	CacheInfo() weatherservice.CacheInfo
}

type StatusDeps struct {
	Fan     FanStatus
	Sampler SamplerStats
	Weather WeatherCache
	CPUTemp func(ctx context.Context) (float64, error)
}

type statusResponse struct {
	Fan             fan.State                `json:"fan"`
	Sampler         climateservice.Stats     `json:"sampler"`
	WeatherCache    weatherservice.CacheInfo `json:"weather_cache"`
	CPUTemperatureC *float64                 `json:"cpu_temperature_c"`
}

type statusImpl struct {
	deps StatusDeps
}

// RegisterStatus mounts the diagnostics endpoint.
func RegisterStatus(mux *http.ServeMux, deps StatusDeps) {
	s := &statusImpl{deps: deps}
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
}

func (s *statusImpl) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Fan:          s.deps.Fan.State(),
		Sampler:      s.deps.Sampler.Stats(),
		WeatherCache: s.deps.Weather.CacheInfo(),
	}
	if s.deps.CPUTemp != nil {
		if temp, err := s.deps.CPUTemp(r.Context()); err == nil {
			resp.CPUTemperatureC = &temp
		} else {
			slog.Debug("cpu temperature unavailable", "error", err)
		}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}
