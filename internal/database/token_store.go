package database

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenStore handles OAuth token storage in SQLite for the Google Calendar binding
type TokenStore struct {
	db *sql.DB
}

// NewTokenStore creates a new token store
func NewTokenStore(db *DB) *TokenStore {
	return &TokenStore{db: db.Conn()}
}

// SaveToken stores the OAuth token
func (s *TokenStore) SaveToken(token *oauth2.Token) error {
	tokenJSON, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	_, err = s.db.Exec(`
INSERT OR REPLACE INTO oauth_tokens (id, token_data, updated_at)
VALUES (1, ?, CURRENT_TIMESTAMP)`, tokenJSON)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// GetToken retrieves the saved OAuth token. Returns nil when no token is stored.
func (s *TokenStore) GetToken() (*oauth2.Token, error) {
	var tokenJSON []byte
	err := s.db.QueryRow(`
SELECT token_data FROM oauth_tokens WHERE id = 1
`).Scan(&tokenJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve token: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &token, nil
}

// ClearToken removes the saved OAuth token
func (s *TokenStore) ClearToken() error {
	_, err := s.db.Exec(`DELETE FROM oauth_tokens WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}
