package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"

	"github.com/Christian-SuMePa/hausserver/internal/fan"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
)

var climateTmpl *template.Template

// DashboardData feeds the landing page: the most recent measurement, the
// fan state and, when readable, the CPU temperature of the board itself.
type DashboardData struct {
	Latest  *types.Measurement
	Fan     fan.State
	CPUTemp float64
	HasCPU  bool
}

// DayRow is one table row on the day page, raw and smoothed side by side.
type DayRow struct {
	Time                string
	Temperature         float64
	SmoothedTemperature float64
	Humidity            float64
	SmoothedHumidity    float64
	DewPoint            float64
}

// DayPageData feeds the per-day history page.
type DayPageData struct {
	Date string
	Rows []DayRow
}

func loadTemplatesFromFS(fsys fs.FS, dir string) (*template.Template, error) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, err
	}
	return template.ParseFS(sub, "*.html", "partials/*.html")
}

// LoadTemplates parses the embedded climate templates. Call it once during
// startup before any Render function is used.
func LoadTemplates() error {
	tmpl, err := loadTemplatesFromFS(viewsFS, "templates")
	if err != nil {
		return err
	}
	climateTmpl = tmpl
	return nil
}

// RenderDashboard writes the landing page.
func RenderDashboard(w io.Writer, data *DashboardData) error {
	if climateTmpl == nil {
		return errors.New("climate templates not loaded: call views.LoadTemplates during startup")
	}
	return climateTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderDay writes the per-day history page.
func RenderDay(w io.Writer, data *DayPageData) error {
	if climateTmpl == nil {
		return errors.New("climate templates not loaded: call views.LoadTemplates during startup")
	}
	return climateTmpl.ExecuteTemplate(w, "day.html", data)
}
