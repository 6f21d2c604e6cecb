package handlers

import (
	"net/http"
	"time"

	"github.com/learnx/calendar-sync/internal/ics"
	"github.com/learnx/calendar-sync/internal/timetable"
)

// CalendarHandler serves the semester timetable as an ICS feed, for calendar
// apps that subscribe by URL instead of going through a provider binding.
type CalendarHandler struct {
	*BaseHandler
}

// NewCalendarHandler creates a new calendar feed handler
func NewCalendarHandler(baseHandler *BaseHandler) *CalendarHandler {
	return &CalendarHandler{BaseHandler: baseHandler}
}

// RegisterRoutes registers the calendar feed route
func (h *CalendarHandler) RegisterRoutes() {
	http.HandleFunc("/calendar.ics", h.handleCalendarFeed)
}

// handleCalendarFeed renders the whole semester as an ICS document
func (h *CalendarHandler) handleCalendarFeed(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCalendarFeed").Logger()
	if !h.RequireMethod(w, r, http.MethodGet) {
		return
	}

	semester, ok, err := timetable.SemesterFromConfig(h.Config.Semester)
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Invalid semester configuration")
		h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeTimetableUnavailable)
		return
	}
	if !ok {
		handlerLogger.Warn().Msg("No semester configured")
		h.WriteJSONError(w, http.StatusNotFound, ErrCodeTimetableUnavailable)
		return
	}

	events, err := timetable.Expand(semester, h.Config.Semester.Slots, semester.Start, semester.End())
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to expand timetable")
		h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeUnknown)
		return
	}

	handlerLogger.Debug().Int("events", len(events)).Msg("Serving calendar feed")
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="learnx.ics"`)
	if _, err := w.Write([]byte(ics.Feed(events, time.Now()))); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to write calendar feed")
	}
}
