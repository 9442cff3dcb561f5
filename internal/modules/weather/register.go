// Package weather wires the DWD forecast and warning feature: the cached
// snapshot service, the forecast page and the read-only JSON API.
package weather

import (
	"net/http"

	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/controller"
)

// RegisterFeature mounts the weather HTTP surface on mux. The service is
// built by the caller because the scheduler shares it for cache warming.
func RegisterFeature(mux *http.ServeMux, service controller.WeatherService) {
	ctrl := controller.NewWeatherController(service)
	ctrl.RegisterRoutes(mux)
}
