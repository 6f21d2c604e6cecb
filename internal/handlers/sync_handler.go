package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/learnx/calendar-sync/internal/provider"
	"github.com/learnx/calendar-sync/internal/signals"
	"github.com/learnx/calendar-sync/internal/syncer"
	"github.com/learnx/calendar-sync/internal/timetable"
)

// SyncHandler manages the sync API: the client pushes its assignment list
// here and triggers course schedule rewrites and teardown.
type SyncHandler struct {
	*BaseHandler
	Engine *syncer.Engine
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(baseHandler *BaseHandler, engine *syncer.Engine) *SyncHandler {
	return &SyncHandler{
		BaseHandler: baseHandler,
		Engine:      engine,
	}
}

// RegisterRoutes registers sync related routes
func (h *SyncHandler) RegisterRoutes() {
	http.HandleFunc("/api/sync/assignments", h.handleSyncAssignments)
	http.HandleFunc("/api/sync/schedule", h.handleSyncSchedule)
	http.HandleFunc("/api/teardown", h.handleTeardown)
	http.HandleFunc("/healthz", h.handleHealth)
}

// AssignmentInput is one assignment as the client submits it
type AssignmentInput struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CourseName  string     `json:"course_name"`
	Description string     `json:"description"`
	StartTime   time.Time  `json:"start_time"`
	DueTime     time.Time  `json:"due_time"`
	Submitted   bool       `json:"submitted"`
	SubmitTime  *time.Time `json:"submit_time,omitempty"`
}

// AssignmentSyncRequest is the JSON request body for assignment sync
type AssignmentSyncRequest struct {
	Assignments []AssignmentInput `json:"assignments"`
}

// ScheduleSyncRequest is the JSON request body for course schedule sync.
// WindowWeeks overrides the configured sync window when positive.
type ScheduleSyncRequest struct {
	WindowWeeks int `json:"window_weeks,omitempty"`
}

// handleSyncAssignments mirrors the submitted assignment list into the
// user's calendar or reminders
func (h *SyncHandler) handleSyncAssignments(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleSyncAssignments").Logger()
	if !h.RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req AssignmentSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlerLogger.Warn().Err(err).Msg("Failed to parse request body")
		h.WriteJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequestBody)
		return
	}

	assignments := make([]syncer.Assignment, 0, len(req.Assignments))
	for _, in := range req.Assignments {
		if in.ID == "" || in.Title == "" || in.DueTime.IsZero() {
			handlerLogger.Warn().Str("assignment_id", in.ID).Msg("Assignment missing required fields")
			h.WriteJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequestBody)
			return
		}
		assignments = append(assignments, syncer.Assignment{
			ID:          in.ID,
			Title:       in.Title,
			CourseName:  in.CourseName,
			Description: in.Description,
			StartTime:   in.StartTime,
			DueTime:     in.DueTime,
			Submitted:   in.Submitted,
			SubmitTime:  in.SubmitTime,
		})
	}

	handlerLogger.Info().Int("assignments", len(assignments)).Msg("Starting assignment sync")
	if err := h.Engine.SyncAssignments(r.Context(), assignments); err != nil {
		handlerLogger.Error().Err(err).Msg("Assignment sync failed")
		signals.EmitSyncCompleted(r.Context(), "assignments", 0, false)
		h.writeSyncError(w, err)
		return
	}

	signals.EmitSyncCompleted(r.Context(), "assignments", len(assignments), true)
	h.WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Assignments synced successfully",
	})
}

// handleSyncSchedule expands the configured semester timetable over the sync
// window and rewrites the course calendar
func (h *SyncHandler) handleSyncSchedule(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleSyncSchedule").Logger()
	if !h.RequireMethod(w, r, http.MethodPost) {
		return
	}

	// An empty body means "use the configured window"
	var req ScheduleSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		handlerLogger.Warn().Err(err).Msg("Failed to parse request body")
		h.WriteJSONError(w, http.StatusBadRequest, ErrCodeInvalidRequestBody)
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
		h.WriteJSONError(w, http.StatusConflict, ErrCodeTimetableUnavailable)
		return
	}

	weeks := req.WindowWeeks
	if weeks <= 0 {
		weeks = h.Config.Sync.WindowWeeks
	}
	windowStart := time.Now()
	windowEnd := windowStart.AddDate(0, 0, 7*weeks)

	events, err := timetable.Expand(semester, h.Config.Semester.Slots, windowStart, windowEnd)
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to expand timetable")
		h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeSyncFailed)
		return
	}

	handlerLogger.Info().
		Int("events", len(events)).
		Time("window_start", windowStart).
		Time("window_end", windowEnd).
		Msg("Starting course schedule sync")
	if err := h.Engine.SyncCourseSchedule(r.Context(), events, windowStart, windowEnd); err != nil {
		handlerLogger.Error().Err(err).Msg("Course schedule sync failed")
		signals.EmitSyncCompleted(r.Context(), "schedule", 0, false)
		h.writeSyncError(w, err)
		return
	}

	signals.EmitSyncCompleted(r.Context(), "schedule", len(events), true)
	h.WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Course schedule synced successfully",
	})
}

// handleTeardown removes every synced collection and all local sync state
func (h *SyncHandler) handleTeardown(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleTeardown").Logger()
	if !h.RequireMethod(w, r, http.MethodPost) {
		return
	}

	handlerLogger.Info().Msg("Starting teardown")
	if err := h.Engine.RemoveAllSyncedData(r.Context()); err != nil {
		handlerLogger.Error().Err(err).Msg("Teardown failed")
		if errors.Is(err, provider.ErrPermissionDenied) {
			h.WriteJSONError(w, http.StatusUnauthorized, ErrCodeAuthRequired)
			return
		}
		h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeTeardownFailed)
		return
	}

	h.WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "All synced data removed",
	})
}

// handleHealth reports liveness
func (h *SyncHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.RequireMethod(w, r, http.MethodGet) {
		return
	}
	h.WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "ok"})
}

// writeSyncError maps sync engine failures onto HTTP status codes
func (h *SyncHandler) writeSyncError(w http.ResponseWriter, err error) {
	if errors.Is(err, provider.ErrPermissionDenied) {
		h.WriteJSONError(w, http.StatusUnauthorized, ErrCodeAuthRequired)
		return
	}
	h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeSyncFailed)
}
