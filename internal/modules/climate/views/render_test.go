package views

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Christian-SuMePa/hausserver/internal/fan"
	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/types"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("write failed")
}

func TestRenderWithoutLoadedTemplates(t *testing.T) {
	prev := climateTmpl
	climateTmpl = nil
	t.Cleanup(func() { climateTmpl = prev })

	if err := RenderDashboard(io.Discard, &DashboardData{}); err == nil {
		t.Fatal("RenderDashboard returned nil error, want template-not-loaded error")
	} else if !strings.Contains(err.Error(), "views.LoadTemplates") {
		t.Errorf("RenderDashboard error = %q, want mention of views.LoadTemplates", err)
	}

	if err := RenderDay(io.Discard, &DayPageData{}); err == nil {
		t.Fatal("RenderDay returned nil error, want template-not-loaded error")
	}
}

func TestLoadTemplatesFromFSRejectsBrokenTemplate(t *testing.T) {
	fsys := fstest.MapFS{
		"templates/dashboard.html":       {Data: []byte("{{if .Latest}}unterminated")},
		"templates/partials/nav.html":    {Data: []byte(`{{define "nav"}}<nav></nav>{{end}}`)},
		"templates/partials/styles.html": {Data: []byte(`{{define "styles"}}<style></style>{{end}}`)},
	}
	if _, err := loadTemplatesFromFS(fsys, "templates"); err == nil {
		t.Error("loadTemplatesFromFS returned nil error for broken template")
	}
}

func TestRenderDashboard(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates returned error: %v", err)
	}

	t.Run("with latest measurement", func(t *testing.T) {
		ts := time.Date(2026, 8, 25, 6, 30, 0, 0, time.UTC)
		data := &DashboardData{
			Latest: &types.Measurement{
				ID:           1,
				Timestamp:    ts,
				TemperatureC: 21.47,
				HumidityPct:  55.33,
				DewPointC:    12.08,
			},
			Fan:     fan.State{On: true, LastTransition: ts},
			CPUTemp: 48.2,
			HasCPU:  true,
		}
		var buf bytes.Buffer
		if err := RenderDashboard(&buf, data); err != nil {
			t.Fatalf("RenderDashboard returned error: %v", err)
		}
		html := buf.String()
		for _, want := range []string{"<!DOCTYPE html>", "21.5", "55.3", "12.1", ">on<", "48.2", "25 Aug 2026 06:30"} {
			if !strings.Contains(html, want) {
				t.Errorf("dashboard output missing %q", want)
			}
		}
	})

	t.Run("without measurements", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RenderDashboard(&buf, &DashboardData{}); err != nil {
			t.Fatalf("RenderDashboard returned error: %v", err)
		}
		if !strings.Contains(buf.String(), "No measurements yet.") {
			t.Error("dashboard output missing empty-state message")
		}
		if strings.Contains(buf.String(), "CPU") {
			t.Error("dashboard output shows CPU card without a CPU reading")
		}
	})

	t.Run("failing writer", func(t *testing.T) {
		if err := RenderDashboard(failingWriter{}, &DashboardData{}); err == nil {
			t.Error("RenderDashboard returned nil error for failing writer")
		}
	})
}

func TestRenderDay(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates returned error: %v", err)
	}

	t.Run("with rows", func(t *testing.T) {
		data := &DayPageData{
			Date: "2026-08-25",
			Rows: []DayRow{
				{Time: "06:00", Temperature: 18, SmoothedTemperature: 18, Humidity: 60, SmoothedHumidity: 60, DewPoint: 10.12},
				{Time: "06:05", Temperature: 18.5, SmoothedTemperature: 18.25, Humidity: 59, SmoothedHumidity: 59.5, DewPoint: 10.3},
			},
		}
		var buf bytes.Buffer
		if err := RenderDay(&buf, data); err != nil {
			t.Fatalf("RenderDay returned error: %v", err)
		}
		html := buf.String()
		for _, want := range []string{"2026-08-25", "06:00", "06:05", "18.25", "10.12"} {
			if !strings.Contains(html, want) {
				t.Errorf("day output missing %q", want)
			}
		}
	})

	t.Run("without rows", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RenderDay(&buf, &DayPageData{Date: "2026-08-25"}); err != nil {
			t.Fatalf("RenderDay returned error: %v", err)
		}
		if !strings.Contains(buf.String(), "No measurements for this day.") {
			t.Error("day output missing empty-state message")
		}
	})
}
