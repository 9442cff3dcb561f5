package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/service"
	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/views"
	"github.com/Christian-SuMePa/hausserver/internal/utils"
)

func (c *weatherControllerImpl) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := c.service.Snapshot(r.Context())
	if err != nil {
		slog.Error("weather: loading snapshot failed", "error", err)
		if errors.Is(err, service.ErrUpstreamUnavailable) {
			utils.WriteError(w, http.StatusServiceUnavailable, "weather data is currently unavailable")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "could not load weather data")
		return
	}

	utils.WriteJSON(w, http.StatusOK, snap)
}

// handleWeatherPage renders the forecast page. An unavailable upstream
// degrades to an empty-state page, never to an error page.
func (c *weatherControllerImpl) handleWeatherPage(w http.ResponseWriter, r *http.Request) {
	var data views.WeatherPageData
	snap, err := c.service.Snapshot(r.Context())
	if err != nil {
		slog.Warn("weather: rendering page without snapshot", "error", err)
		data.Unavailable = true
	} else {
		data = buildWeatherPage(snap)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderWeather(w, &data); err != nil {
		slog.Error("weather: rendering page failed", "error", err)
	}
}
