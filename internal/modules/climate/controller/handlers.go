package controller

import (
	"log/slog"
	"net/http"

	"github.com/Christian-SuMePa/hausserver/internal/modules/climate/views"
	"github.com/Christian-SuMePa/hausserver/internal/utils"
)

func (c *climateControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// "GET /" matches every path without a more specific pattern.
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	latest, err := c.service.Latest()
	if err != nil {
		slog.Error("climate: loading latest measurement failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "could not load the dashboard")
		return
	}

	data := views.DashboardData{Latest: latest, Fan: c.fan.State()}
	if temp, err := c.cpuTemp(r.Context()); err == nil {
		data.CPUTemp = temp
		data.HasCPU = true
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderDashboard(w, &data); err != nil {
		slog.Error("climate: rendering dashboard failed", "error", err)
	}
}

func (c *climateControllerImpl) handleDayPage(w http.ResponseWriter, r *http.Request) {
	day, err := parseDateQuery(r, c.loc, false)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := c.service.DailyView(day)
	if err != nil {
		slog.Error("climate: loading day view failed", "error", err, "date", day.Format(dateLayout))
		utils.WriteError(w, http.StatusInternalServerError, "could not load measurements for this day")
		return
	}

	data := views.DayPageData{Date: view.Date, Rows: buildDayRows(view)}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.RenderDay(w, &data); err != nil {
		slog.Error("climate: rendering day page failed", "error", err)
	}
}

func (c *climateControllerImpl) handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := parseDateQuery(r, c.loc, true)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := c.service.DailyView(day)
	if err != nil {
		slog.Error("climate: loading day view failed", "error", err, "date", day.Format(dateLayout))
		utils.WriteError(w, http.StatusInternalServerError, "could not load measurements for this day")
		return
	}

	utils.WriteJSON(w, http.StatusOK, view)
}

func (c *climateControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	latest, err := c.service.Latest()
	if err != nil {
		slog.Error("climate: loading latest measurement failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "could not load the latest measurement")
		return
	}
	if latest == nil {
		utils.WriteError(w, http.StatusNotFound, "no measurements yet")
		return
	}

	utils.WriteJSON(w, http.StatusOK, latest)
}
