package handlers

import (
	"net/http"

	"github.com/learnx/calendar-sync/internal/signals"
)

// OAuthHandler manages the Google OAuth2 flow for the calendar binding
type OAuthHandler struct {
	*BaseHandler
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(baseHandler *BaseHandler) *OAuthHandler {
	return &OAuthHandler{BaseHandler: baseHandler}
}

// RegisterRoutes registers the OAuth routes
func (h *OAuthHandler) RegisterRoutes() {
	http.HandleFunc("/oauth", h.handleAuth)
	http.HandleFunc("/oauth/callback", h.handleCallback)
}

// handleAuth initiates the OAuth flow
func (h *OAuthHandler) handleAuth(w http.ResponseWriter, r *http.Request) {
	url := h.TokenManager.OAuthConfig().AuthCodeURL("state")
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleCallback processes the OAuth callback and stores the token
func (h *OAuthHandler) handleCallback(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleCallback").Logger()

	code := r.URL.Query().Get("code")
	if code == "" {
		handlerLogger.Warn().Msg("OAuth callback without code")
		h.WriteJSONError(w, http.StatusBadRequest, ErrCodeOAuthExchangeFailed)
		return
	}

	token, err := h.TokenManager.OAuthConfig().Exchange(r.Context(), code)
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Token exchange failed")
		signals.EmitTokenSetup(r.Context(), false)
		h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeOAuthExchangeFailed)
		return
	}

	if err := h.TokenManager.SaveToken(token); err != nil {
		handlerLogger.Error().Err(err).Msg("Failed to save token")
		signals.EmitTokenSetup(r.Context(), false)
		h.WriteJSONError(w, http.StatusInternalServerError, ErrCodeOAuthExchangeFailed)
		return
	}

	handlerLogger.Info().Msg("OAuth token stored")
	signals.EmitTokenSetup(r.Context(), true)
	h.WriteJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Message: "Calendar connected successfully",
	})
}
