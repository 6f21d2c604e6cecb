// Package token handles OAuth token storage and refreshing for the Google
// Calendar binding.
package token

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/learnx/calendar-sync/internal/database"
)

// TokenManager handles OAuth token retrieval and refresh
type TokenManager struct {
	tokenStore  *database.TokenStore
	oauthConfig *oauth2.Config
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(tokenStore *database.TokenStore, oauthConfig *oauth2.Config) *TokenManager {
	return &TokenManager{
		tokenStore:  tokenStore,
		oauthConfig: oauthConfig,
	}
}

// OAuthConfig returns the OAuth configuration backing this manager
func (tm *TokenManager) OAuthConfig() *oauth2.Config {
	return tm.oauthConfig
}

// HasToken checks whether a token is stored
func (tm *TokenManager) HasToken() (bool, error) {
	token, err := tm.tokenStore.GetToken()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	return token != nil, nil
}

// GetValidToken retrieves a valid token, refreshing and re-persisting it if expired
func (tm *TokenManager) GetValidToken(ctx context.Context) (*oauth2.Token, error) {
	token, err := tm.tokenStore.GetToken()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}

	if token == nil {
		return nil, fmt.Errorf("no token found")
	}

	if !token.Valid() {
		newToken, err := tm.oauthConfig.TokenSource(ctx, token).Token()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh token: %w", err)
		}

		if err := tm.tokenStore.SaveToken(newToken); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}

		token = newToken
	}

	return token, nil
}

// SaveToken persists a freshly obtained token
func (tm *TokenManager) SaveToken(token *oauth2.Token) error {
	return tm.tokenStore.SaveToken(token)
}

// ClearToken removes the stored token
func (tm *TokenManager) ClearToken() error {
	return tm.tokenStore.ClearToken()
}
