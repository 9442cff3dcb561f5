// Package climate wires the indoor climate feature: the dashboard, the
// per-day history page and the read-only JSON API.
package climate

import (
	"net/http"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/controller"
)

// RegisterFeature mounts the climate HTTP surface on mux. The service and
// fan controller are built by the caller because the sampling side shares
// them with the scheduler.
func RegisterFeature(mux *http.ServeMux, service controller.ClimateService, fanStatus controller.FanStatus, loc *time.Location) {
	ctrl := controller.NewClimateController(service, fanStatus, loc)
	ctrl.RegisterRoutes(mux)
}
