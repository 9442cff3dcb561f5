// Package types holds the climate domain model shared by the repository,
// service and controller layers.
package types

import "time"

// Measurement is one stored sample. Timestamp carries the civil-time zone
// offset it was taken in; values are rounded to two decimals on ingest.
type Measurement struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	TemperatureC float64   `json:"temperature_c"`
	HumidityPct  float64   `json:"humidity_pct"`
	DewPointC    float64   `json:"dew_point_c"`
}

// Series carries one value per timestamp of the surrounding DayView, in the
// same order.
type Series struct {
	Temperature []float64 `json:"temperature"`
	Humidity    []float64 `json:"humidity"`
	DewPoint    []float64 `json:"dew_point"`
}

// DayView is the chart payload for one civil day: the raw series plus a
// trailing-window moving average of equal length.
type DayView struct {
	Date       string   `json:"date"`
	Timestamps []string `json:"timestamps"`
	Raw        Series   `json:"raw"`
	Smoothed   Series   `json:"smoothed"`
}
