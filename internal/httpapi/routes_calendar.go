package httpapi

import (
	"net/http"
	"time"

	"staffquote/internal/domain"
	"staffquote/internal/holidays"
)

// handleCalendarWeeks exposes the week breakdown without a stored project:
// ?start=YYYY-MM-DD&months=N&hours_per_day=H.
func (a *API) handleCalendarWeeks(w http.ResponseWriter, r *http.Request) {
	months, err := queryInt(r, "months", 1)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	hoursPerDay, err := queryFloat(r, "hours_per_day", 0)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	weeks, err := a.service.WeeklyBreakdown(r.URL.Query().Get("start"), months, hoursPerDay)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	if weeks == nil {
		weeks = []domain.WeekDescriptor{}
	}
	a.writeJSON(w, http.StatusOK, weeks)
}

type holidaysResponse struct {
	Year     int                `json:"year"`
	Holidays []holidays.Holiday `json:"holidays"`
}

// handleCalendarHolidays lists the configured holidays: ?year=YYYY, default
// the current year.
func (a *API) handleCalendarHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", time.Now().Year())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}

	list, err := a.service.Holidays(year)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	a.writeJSON(w, http.StatusOK, holidaysResponse{Year: year, Holidays: list})
}
