package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/learnx/calendar-sync/internal/logging"
)

// MappingStore persists the assignment-id-to-external-object-id mapping.
// It is the single source of truth for "is this assignment already mirrored,
// and as what external object". Entries are keyed by the target kind
// ("event" or "reminder") because the same assignment is mapped separately
// for each representation.
type MappingStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewMappingStore creates a new mapping store
func NewMappingStore(db *DB) *MappingStore {
	return &MappingStore{db: db.Conn(), logger: logging.GetLogger("mapping-store")}
}

// Get returns the external object id an assignment is mirrored as.
// Returns an empty string when the assignment has no mapping.
func (s *MappingStore) Get(kind, assignmentID string) (string, error) {
	var externalID string
	err := s.db.QueryRow(`
SELECT external_id FROM sync_mappings WHERE kind = ? AND assignment_id = ?
`, kind, assignmentID).Scan(&externalID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to retrieve mapping for assignment %s: %w", assignmentID, err)
	}
	return externalID, nil
}

// Set records the external object id for an assignment, replacing any
// previous entry. At most one external id exists per (kind, assignment).
func (s *MappingStore) Set(kind, assignmentID, externalID string) error {
	_, err := s.db.Exec(`
INSERT OR REPLACE INTO sync_mappings (kind, assignment_id, external_id, updated_at)
VALUES (?, ?, ?, CURRENT_TIMESTAMP)`, kind, assignmentID, externalID)
	if err != nil {
		return fmt.Errorf("failed to save mapping for assignment %s: %w", assignmentID, err)
	}
	s.logger.Debug().
		Str("kind", kind).
		Str("assignment_id", assignmentID).
		Str("external_id", externalID).
		Msg("Saved sync mapping")
	return nil
}

// Remove deletes the mapping entry for an assignment, if any
func (s *MappingStore) Remove(kind, assignmentID string) error {
	_, err := s.db.Exec(`
DELETE FROM sync_mappings WHERE kind = ? AND assignment_id = ?`, kind, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to remove mapping for assignment %s: %w", assignmentID, err)
	}
	s.logger.Debug().Str("kind", kind).Str("assignment_id", assignmentID).Msg("Removed sync mapping")
	return nil
}

// Clear deletes every mapping entry for one target kind
func (s *MappingStore) Clear(kind string) error {
	_, err := s.db.Exec(`DELETE FROM sync_mappings WHERE kind = ?`, kind)
	if err != nil {
		return fmt.Errorf("failed to clear %s mappings: %w", kind, err)
	}
	s.logger.Debug().Str("kind", kind).Msg("Cleared sync mappings for kind")
	return nil
}

// ClearAll deletes every mapping entry
func (s *MappingStore) ClearAll() error {
	_, err := s.db.Exec(`DELETE FROM sync_mappings`)
	if err != nil {
		return fmt.Errorf("failed to clear mappings: %w", err)
	}
	s.logger.Debug().Msg("Cleared all sync mappings")
	return nil
}

// All returns every mapping for one kind, keyed by assignment id
func (s *MappingStore) All(kind string) (map[string]string, error) {
	rows, err := s.db.Query(`
SELECT assignment_id, external_id FROM sync_mappings WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[string]string)
	for rows.Next() {
		var assignmentID, externalID string
		if err := rows.Scan(&assignmentID, &externalID); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}
		mappings[assignmentID] = externalID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mappings: %w", err)
	}
	return mappings, nil
}
