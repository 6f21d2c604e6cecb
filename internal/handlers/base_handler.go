// Package handlers exposes the daemon's HTTP surface: the JSON sync API the
// mobile client calls, the preference endpoints, the ICS timetable feed and
// the OAuth flow for connecting a Google account.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/learnx/calendar-sync/internal/config"
	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/logging"
	"github.com/learnx/calendar-sync/internal/token"
)

// BaseHandler contains common handler functionality
type BaseHandler struct {
	TokenManager *token.TokenManager
	Settings     *database.SettingsStore
	Config       *config.Config
	logger       zerolog.Logger
}

// NewBaseHandler creates a common base handler with shared components
func NewBaseHandler(cfg *config.Config, tokenManager *token.TokenManager, settings *database.SettingsStore) *BaseHandler {
	return &BaseHandler{
		TokenManager: tokenManager,
		Settings:     settings,
		Config:       cfg,
		logger:       logging.GetLogger("base-handler"),
	}
}

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteJSONError writes an error response for a known error code
func (h *BaseHandler) WriteJSONError(w http.ResponseWriter, status int, code string) {
	h.WriteJSON(w, status, APIResponse{
		Success: false,
		Error:   code,
		Message: GetErrorMessage(code),
	})
}

// RequireMethod rejects requests with the wrong HTTP method. Returns false
// after writing the error response when the method does not match.
func (h *BaseHandler) RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		h.logger.Warn().Str("method", r.Method).Str("path", r.URL.Path).Msg("Invalid method")
		h.WriteJSONError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
		return false
	}
	return true
}

// CheckAuthentication checks if a usable OAuth token is stored
func (h *BaseHandler) CheckAuthentication(ctx context.Context, logger zerolog.Logger) bool {
	hasToken, err := h.TokenManager.HasToken()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to check token existence")
		return false
	}
	if !hasToken {
		logger.Debug().Msg("No token found")
		return false
	}

	tok, err := h.TokenManager.GetValidToken(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to validate token")
		return false
	}
	return tok != nil
}
