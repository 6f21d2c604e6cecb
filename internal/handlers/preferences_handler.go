package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/signals"
)

// PreferencesHandler manages the sync preference endpoints
type PreferencesHandler struct {
	*BaseHandler
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(baseHandler *BaseHandler) *PreferencesHandler {
	return &PreferencesHandler{BaseHandler: baseHandler}
}

// RegisterRoutes registers preference related routes
func (h *PreferencesHandler) RegisterRoutes() {
	http.HandleFunc("/api/preferences", h.handlePreferences)
}

// PreferencesPayload is the JSON shape of the sync preferences
type PreferencesPayload struct {
	CourseAlarm                  bool `json:"course_alarm"`
	CourseAlarmOffsetMinutes     int  `json:"course_alarm_offset_minutes"`
	AssignmentAlarm              bool `json:"assignment_alarm"`
	AssignmentAlarmOffsetMinutes int  `json:"assignment_alarm_offset_minutes"`
	CalendarOnly                 bool `json:"calendar_only"`
}

func (h *PreferencesHandler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGetPreferences(w, r)
	case http.MethodPut:
		h.handlePutPreferences(w, r)
	default:
		h.logger.Warn().Str("method", r.Method).Msg("Invalid method for preferences")
		h.WriteJSONError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
	}
}

func (h *PreferencesHandler) handleGetPreferences(w http.ResponseWriter, _ *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleGetPreferences").Logger()

	prefs, err := h.Settings.GetPreferences()
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to load preferences")
		h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeUnknown)
		return
	}

	h.WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: PreferencesPayload{
			CourseAlarm:                  prefs.CourseAlarm,
			CourseAlarmOffsetMinutes:     prefs.CourseAlarmOffsetMinutes,
			AssignmentAlarm:              prefs.AssignmentAlarm,
			AssignmentAlarmOffsetMinutes: prefs.AssignmentAlarmOffsetMinutes,
			CalendarOnly:                 prefs.CalendarOnly,
		},
	})
}

func (h *PreferencesHandler) handlePutPreferences(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handlePutPreferences").Logger()

	var payload PreferencesPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		handlerLogger.Warn().Err(err).Msg("Failed to parse request body")
		h.WriteJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequestBody)
		return
	}

	prefs := database.Preferences{
		CourseAlarm:                  payload.CourseAlarm,
		CourseAlarmOffsetMinutes:     payload.CourseAlarmOffsetMinutes,
		AssignmentAlarm:              payload.AssignmentAlarm,
		AssignmentAlarmOffsetMinutes: payload.AssignmentAlarmOffsetMinutes,
		CalendarOnly:                 payload.CalendarOnly,
	}
	if err := h.Settings.SavePreferences(prefs); err != nil {
		handlerLogger.Warn().Err(err).Msg("Rejected preference update")
		h.WriteJSONError(w, http.StatusBadRequest, ErrCodeInvalidPreferences)
		return
	}

	handlerLogger.Info().
		Bool("course_alarm", prefs.CourseAlarm).
		Bool("assignment_alarm", prefs.AssignmentAlarm).
		Bool("calendar_only", prefs.CalendarOnly).
		Msg("Preferences updated")
	signals.EmitPreferencesChanged(r.Context())

	h.WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Preferences updated",
	})
}
