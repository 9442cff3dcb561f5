package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/views"
)

const dateLayout = "2006-01-02"

// parseDateQuery reads the 'date' query parameter as a civil day in loc.
// When the parameter is absent and not required, the current day is used.
func parseDateQuery(r *http.Request, loc *time.Location, required bool) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		if required {
			return time.Time{}, errors.New("missing 'date' (expected YYYY-MM-DD)")
		}
		return time.Now().In(loc), nil
	}

	day, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return time.Time{}, errors.New("invalid 'date' (expected YYYY-MM-DD)")
	}
	return day, nil
}

func buildDayRows(view types.DayView) []views.DayRow {
	rows := make([]views.DayRow, 0, len(view.Timestamps))
	for i, ts := range view.Timestamps {
		label := ts
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			label = t.Format("15:04")
		}
		rows = append(rows, views.DayRow{
			Time:                label,
			Temperature:         view.Raw.Temperature[i],
			SmoothedTemperature: view.Smoothed.Temperature[i],
			Humidity:            view.Raw.Humidity[i],
			SmoothedHumidity:    view.Smoothed.Humidity[i],
			DewPoint:            view.Raw.DewPoint[i],
		})
	}
	return rows
}
