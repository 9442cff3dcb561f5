package dwd

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/modules/weather/types"
)

const kelvinOffset = 273.15

// Forecast is one parsed MOSMIX run, trimmed to today and tomorrow.
type Forecast struct {
	Points []types.ForecastPoint
	Today  types.TodaySummary
}

type mosmixKML struct {
	TimeSteps  []string          `xml:"Document>ExtendedData>ProductDefinition>ForecastTimeSteps>TimeStep"`
	Placemarks []mosmixPlacemark `xml:"Document>Placemark"`
}

type mosmixPlacemark struct {
	Forecasts []mosmixForecast `xml:"ExtendedData>Forecast"`
}

type mosmixForecast struct {
	ElementName string `xml:"elementName,attr"`
	Value       string `xml:"value"`
}

// FetchForecast downloads the latest MOSMIX_L run for the station and
// decodes the elements the dashboard uses. Timestamps are converted into
// loc and only steps falling on today or tomorrow are kept.
func (c *Client) FetchForecast(ctx context.Context, station string, loc *time.Location) (*Forecast, error) {
	url := fmt.Sprintf("%s/weather/local_forecasts/mos/MOSMIX_L/single_stations/%s/kml/MOSMIX_L_LATEST_%s.kmz",
		c.baseURL, station, station)
	data, err := c.get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch mosmix: %w", err)
	}
	kml, err := unzipKML(data)
	if err != nil {
		return nil, fmt.Errorf("fetch mosmix: %w", err)
	}
	return c.parseForecast(kml, loc)
}

func unzipKML(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open kmz: %w", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		kml, err := io.ReadAll(io.LimitReader(rc, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return kml, nil
	}
	return nil, errors.New("kmz contains no kml file")
}

func (c *Client) parseForecast(kml []byte, loc *time.Location) (*Forecast, error) {
	var doc mosmixKML
	if err := xml.Unmarshal(kml, &doc); err != nil {
		return nil, fmt.Errorf("decode kml: %w", err)
	}
	if len(doc.TimeSteps) == 0 || len(doc.Placemarks) == 0 {
		return nil, errors.New("kml contains no forecast data")
	}

	series := make(map[string][]string, len(doc.Placemarks[0].Forecasts))
	for _, fc := range doc.Placemarks[0].Forecasts {
		series[fc.ElementName] = strings.Fields(fc.Value)
	}

	// Some runs carry only the 6h precipitation probability.
	precipElement := "wwP"
	if _, ok := series[precipElement]; !ok {
		precipElement = "wwP6"
	}

	now := c.now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	todayEnd := dayStart.AddDate(0, 0, 1)
	windowEnd := dayStart.AddDate(0, 0, 2)

	forecast := &Forecast{Points: make([]types.ForecastPoint, 0, 48)}
	summary := types.TodaySummary{WeatherSymbol: types.SymbolForCode(nil)}
	var sunshineSeconds float64
	var sunshineSeen, symbolSet bool

	for i, raw := range doc.TimeSteps {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if err != nil {
			c.logger.Warn("skipping malformed forecast time step", "step", raw, "error", err)
			continue
		}
		ts = ts.In(loc)
		if ts.Before(dayStart) || !ts.Before(windowEnd) {
			continue
		}

		point := types.ForecastPoint{
			Time:              ts,
			TemperatureC:      kelvinToCelsius(c.floatAt(series, "TTT", i)),
			PrecipProbability: c.floatAt(series, precipElement, i),
			PrecipAmountMM:    c.floatAt(series, "RR1c", i),
			WindSpeed:         c.floatAt(series, "FF", i),
			WindDirectionDeg:  c.floatAt(series, "DD", i),
			WeatherCode:       c.intAt(series, "ww", i),
		}
		forecast.Points = append(forecast.Points, point)

		if !ts.Before(todayEnd) {
			continue
		}
		if t := point.TemperatureC; t != nil {
			if summary.MaxTemp == nil || *t > *summary.MaxTemp {
				v := *t
				summary.MaxTemp = &v
			}
			if summary.MinTemp == nil || *t < *summary.MinTemp {
				v := *t
				summary.MinTemp = &v
			}
		}
		if sun := c.floatAt(series, "SunD1", i); sun != nil {
			sunshineSeconds += *sun
			sunshineSeen = true
		}
		if !symbolSet && point.WeatherCode != nil {
			summary.WeatherSymbol = types.SymbolForCode(point.WeatherCode)
			symbolSet = true
		}
	}

	if len(forecast.Points) == 0 {
		return nil, errors.New("forecast contains no steps for today or tomorrow")
	}
	if sunshineSeen {
		hours := round2(sunshineSeconds / 3600)
		summary.SunshineHours = &hours
	}
	forecast.Today = summary
	return forecast, nil
}

// floatAt reads one value of a forecast element. Missing-value sentinels
// decode to nil, malformed values are skipped with a logged warning.
func (c *Client) floatAt(series map[string][]string, element string, i int) *float64 {
	values, ok := series[element]
	if !ok || i >= len(values) {
		return nil
	}
	raw := values[i]
	switch raw {
	case "-", "", "-999", "-999.0":
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.logger.Warn("skipping malformed forecast value", "element", element, "value", raw)
		return nil
	}
	return &v
}

func (c *Client) intAt(series map[string][]string, element string, i int) *int {
	v := c.floatAt(series, element, i)
	if v == nil {
		return nil
	}
	code := int(*v)
	return &code
}

func kelvinToCelsius(v *float64) *float64 {
	if v == nil {
		return nil
	}
	celsius := round2(*v - kelvinOffset)
	return &celsius
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
