package database

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/learnx/calendar-sync/internal/constants"
	"github.com/learnx/calendar-sync/internal/logging"
)

// CollectionRole names a cached collection id slot. Each role corresponds to
// one collection the app owns in the host calendar subsystem.
type CollectionRole string

const (
	RoleCourseCalendar     CollectionRole = "course_calendar"
	RoleAssignmentCalendar CollectionRole = "assignment_calendar"
	RoleAssignmentReminder CollectionRole = "assignment_reminder"
)

// Preferences holds the user-tunable sync settings
type Preferences struct {
	CourseAlarm                  bool
	CourseAlarmOffsetMinutes     int
	AssignmentAlarm              bool
	AssignmentAlarmOffsetMinutes int
	// CalendarOnly forces assignment mirroring into calendar events even
	// when the provider supports reminders.
	CalendarOnly bool
}

// DefaultPreferences returns the preferences used before the user changes anything
func DefaultPreferences() Preferences {
	return Preferences{
		CourseAlarm:                  false,
		CourseAlarmOffsetMinutes:     constants.DefaultCourseAlarmOffsetMinutes,
		AssignmentAlarm:              false,
		AssignmentAlarmOffsetMinutes: constants.DefaultAssignmentAlarmOffsetMinutes,
		CalendarOnly:                 false,
	}
}

// SettingsStore handles cached collection ids and sync preferences in SQLite
type SettingsStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSettingsStore creates a new settings store
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db.Conn(), logger: logging.GetLogger("settings-store")}
}

// GetCollectionID retrieves the cached collection id for a role.
// Returns an empty string when nothing is cached.
func (s *SettingsStore) GetCollectionID(role CollectionRole) (string, error) {
	var id string
	err := s.db.QueryRow(`
SELECT collection_id FROM collection_ids WHERE role = ?
`, string(role)).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to retrieve collection id for %s: %w", role, err)
	}
	return id, nil
}

// SaveCollectionID caches the collection id for a role
func (s *SettingsStore) SaveCollectionID(role CollectionRole, id string) error {
	_, err := s.db.Exec(`
INSERT OR REPLACE INTO collection_ids (role, collection_id, updated_at)
VALUES (?, ?, CURRENT_TIMESTAMP)`, string(role), id)
	if err != nil {
		return fmt.Errorf("failed to save collection id for %s: %w", role, err)
	}
	s.logger.Debug().Str("role", string(role)).Str("collection_id", id).Msg("Cached collection id")
	return nil
}

// ClearCollectionID discards the cached collection id for a role
func (s *SettingsStore) ClearCollectionID(role CollectionRole) error {
	_, err := s.db.Exec(`DELETE FROM collection_ids WHERE role = ?`, string(role))
	if err != nil {
		return fmt.Errorf("failed to clear collection id for %s: %w", role, err)
	}
	return nil
}

// ClearCollectionIDs discards every cached collection id
func (s *SettingsStore) ClearCollectionIDs() error {
	_, err := s.db.Exec(`DELETE FROM collection_ids`)
	if err != nil {
		return fmt.Errorf("failed to clear collection ids: %w", err)
	}
	s.logger.Debug().Msg("Cleared all cached collection ids")
	return nil
}

// GetPreferences retrieves the stored sync preferences, falling back to the
// defaults when the preferences row has not been seeded yet.
func (s *SettingsStore) GetPreferences() (Preferences, error) {
	var p Preferences
	err := s.db.QueryRow(`
SELECT course_alarm, course_alarm_offset_minutes,
       assignment_alarm, assignment_alarm_offset_minutes,
       calendar_only
FROM sync_preferences WHERE id = 1
`).Scan(&p.CourseAlarm, &p.CourseAlarmOffsetMinutes,
		&p.AssignmentAlarm, &p.AssignmentAlarmOffsetMinutes,
		&p.CalendarOnly)
	if err == sql.ErrNoRows {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("failed to retrieve preferences: %w", err)
	}
	return p, nil
}

// SavePreferences stores the sync preferences
func (s *SettingsStore) SavePreferences(p Preferences) error {
	if p.CourseAlarmOffsetMinutes < 0 || p.AssignmentAlarmOffsetMinutes < 0 {
		return fmt.Errorf("alarm offsets cannot be negative")
	}

	_, err := s.db.Exec(`
INSERT INTO sync_preferences (id, course_alarm, course_alarm_offset_minutes,
    assignment_alarm, assignment_alarm_offset_minutes, calendar_only, updated_at)
VALUES (1, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(id) DO UPDATE SET
    course_alarm = excluded.course_alarm,
    course_alarm_offset_minutes = excluded.course_alarm_offset_minutes,
    assignment_alarm = excluded.assignment_alarm,
    assignment_alarm_offset_minutes = excluded.assignment_alarm_offset_minutes,
    calendar_only = excluded.calendar_only,
    updated_at = CURRENT_TIMESTAMP`,
		p.CourseAlarm, p.CourseAlarmOffsetMinutes,
		p.AssignmentAlarm, p.AssignmentAlarmOffsetMinutes, p.CalendarOnly)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	s.logger.Debug().
		Bool("course_alarm", p.CourseAlarm).
		Bool("assignment_alarm", p.AssignmentAlarm).
		Bool("calendar_only", p.CalendarOnly).
		Msg("Saved sync preferences")
	return nil
}

// HasPreferences reports whether the preferences row has been seeded
func (s *SettingsStore) HasPreferences() (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sync_preferences WHERE id = 1`).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check preferences: %w", err)
	}
	return count > 0, nil
}
