package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
)

var weatherTmpl *template.Template

// WeatherPageData feeds the forecast page. All values arrive
// pre-formatted; missing readings already carry their dash placeholder.
type WeatherPageData struct {
	Unavailable bool
	Stale       bool
	UpdatedAt   string
	Summary     SummaryView
	Hourly      []HourlyRow
	Warnings    []WarningRow
}

type SummaryView struct {
	MaxTemp  string
	MinTemp  string
	Sunshine string
	Symbol   string
}

type HourlyRow struct {
	Time   string
	Temp   string
	Precip string
	Rain   string
	Wind   string
	Symbol string
}

type WarningRow struct {
	Headline    string
	Severity    string
	Window      string
	Description string
}

func loadTemplatesFromFS(fsys fs.FS, dir string) (*template.Template, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}
	return template.ParseFS(sub, "*.html", "partials/*.html")
}

// LoadTemplates parses the embedded weather templates. Call it once during
// startup before any Render function is used.
func LoadTemplates() error {
	tmpl, err := loadTemplatesFromFS(viewsFS, "templates")
	if err != nil {
		return err
	}
	weatherTmpl = tmpl
	return nil
}

// RenderWeather writes the forecast page.
func RenderWeather(w io.Writer, data *WeatherPageData) error {
	if weatherTmpl == nil {
		return errors.New("weather templates not loaded: call views.LoadTemplates during startup")
	}
	return weatherTmpl.ExecuteTemplate(w, "weather.html", data)
}
