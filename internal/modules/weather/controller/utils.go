package controller

import (
	"strconv"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/types"
	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/views"
)

func buildWeatherPage(snap types.Snapshot) views.WeatherPageData {
	data := views.WeatherPageData{
		Stale:     snap.Stale,
		UpdatedAt: snap.UpdatedAt.Format("02 Jan 2006 15:04"),
		Summary: views.SummaryView{
			MaxTemp:  fmtValue(snap.TodaySummary.MaxTemp, 1, " °C"),
			MinTemp:  fmtValue(snap.TodaySummary.MinTemp, 1, " °C"),
			Sunshine: fmtValue(snap.TodaySummary.SunshineHours, 1, " h"),
			Symbol:   snap.TodaySummary.WeatherSymbol,
		},
		Hourly:   make([]views.HourlyRow, 0, len(snap.Hourly)),
		Warnings: make([]views.WarningRow, 0, len(snap.Warnings)),
	}

	for _, p := range snap.Hourly {
		data.Hourly = append(data.Hourly, views.HourlyRow{
			Time:   p.Time.Format("Mon 15:04"),
			Temp:   fmtValue(p.TemperatureC, 1, " °C"),
			Precip: fmtValue(p.PrecipProbability, 0, " %"),
			Rain:   fmtValue(p.PrecipAmountMM, 1, " mm"),
			Wind:   fmtValue(p.WindSpeed, 1, " m/s"),
			Symbol: types.SymbolForCode(p.WeatherCode),
		})
	}

	for _, warn := range snap.Warnings {
		data.Warnings = append(data.Warnings, views.WarningRow{
			Headline:    warn.Headline,
			Severity:    string(warn.Severity),
			Window:      fmtWindow(warn.Onset, warn.Expires),
			Description: warn.Description,
		})
	}
	return data
}

// fmtValue renders an optional reading with its unit, or a dash when the
// upstream did not provide it.
func fmtValue(v *float64, decimals int, unit string) string {
	if v == nil {
		return "–"
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64) + unit
}

func fmtWindow(onset, expires time.Time) string {
	const layout = "02.01. 15:04"
	switch {
	case onset.IsZero() && expires.IsZero():
		return ""
	case expires.IsZero():
		return "from " + onset.Format(layout)
	case onset.IsZero():
		return "until " + expires.Format(layout)
	default:
		return onset.Format(layout) + " until " + expires.Format(layout)
	}
}
