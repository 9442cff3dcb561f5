package types

import (
	"strings"
	"time"
)

// Severity is the canonical warning level derived from a CAP alert.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityExtreme  Severity = "extreme"
)

// ClassifySeverity maps the free-text severity of a CAP alert onto the four
// canonical levels. Matching is case-insensitive and checks the strongest
// level first; anything unrecognised counts as minor.
func ClassifySeverity(raw string) Severity {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "extreme"):
		return SeverityExtreme
	case strings.Contains(s, "severe"):
		return SeveritySevere
	case strings.Contains(s, "moderate"):
		return SeverityModerate
	default:
		return SeverityMinor
	}
}

// ForecastPoint is one hourly forecast step. Fields are pointers because
// MOSMIX marks unavailable values with sentinels that decode to nil.
type ForecastPoint struct {
	Time              time.Time `json:"time"`
	TemperatureC      *float64  `json:"temperature_c"`
	PrecipProbability *float64  `json:"precip_probability"`
	PrecipAmountMM    *float64  `json:"precip_amount_mm"`
	WindSpeed         *float64  `json:"wind_speed"`
	WindDirectionDeg  *float64  `json:"wind_direction_deg"`
	WeatherCode       *int      `json:"weather_code"`
}

// TodaySummary condenses the current civil day of the forecast.
type TodaySummary struct {
	MaxTemp       *float64 `json:"max_temp"`
	MinTemp       *float64 `json:"min_temp"`
	SunshineHours *float64 `json:"sunshine_hours"`
	WeatherSymbol string   `json:"weather_symbol"`
}

// Warning is one CAP alert filtered down to the configured area.
type Warning struct {
	Headline    string    `json:"headline"`
	Severity    Severity  `json:"severity"`
	Onset       time.Time `json:"onset"`
	Expires     time.Time `json:"expires"`
	Description string    `json:"description"`
	AreaID      string    `json:"area_id"`
}

// Snapshot is the full weather payload served over HTTP.
type Snapshot struct {
	UpdatedAt    time.Time       `json:"updated_at"`
	Stale        bool            `json:"stale"`
	Hourly       []ForecastPoint `json:"hourly"`
	TodaySummary TodaySummary    `json:"today_summary"`
	Warnings     []Warning       `json:"warnings"`
}

// SymbolForCode maps a WMO ww weather code onto a display symbol.
func SymbolForCode(code *int) string {
	if code == nil {
		return "❔"
	}
	switch c := *code; {
	case c >= 0 && c <= 2:
		return "☀️"
	case c == 3 || c == 4:
		return "⛅"
	case c == 45 || c == 48:
		return "🌫️"
	case c >= 51 && c <= 67:
		return "🌦️"
	case c >= 71 && c <= 77:
		return "❄️"
	case c >= 80 && c <= 82:
		return "🌧️"
	case c >= 95 && c <= 99:
		return "⛈️"
	default:
		return "☁️"
	}
}
