package database

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/learnx/calendar-sync/internal/config"
	"github.com/learnx/calendar-sync/internal/logging"
)

// PreferencesSeeder seeds sync preferences from the TOML config into the
// database. Runs on every startup but only writes when no preferences row
// exists yet, so user changes made through the API survive restarts.
type PreferencesSeeder struct {
	store  *SettingsStore
	logger zerolog.Logger
}

// NewPreferencesSeeder creates a new preferences seeder
func NewPreferencesSeeder(store *SettingsStore) *PreferencesSeeder {
	return &PreferencesSeeder{
		store:  store,
		logger: logging.GetLogger("preferences-seeder"),
	}
}

// SeedFromConfig writes the configured alarm defaults unless preferences
// already exist in the database.
func (s *PreferencesSeeder) SeedFromConfig(cfg *config.Config) error {
	hasPrefs, err := s.store.HasPreferences()
	if err != nil {
		return fmt.Errorf("failed to check existing preferences: %w", err)
	}

	if hasPrefs {
		s.logger.Debug().Msg("Preferences already exist in database, skipping seeding")
		return nil
	}

	s.logger.Info().Msg("Seeding sync preferences from config file")

	prefs := Preferences{
		CourseAlarm:                  cfg.Alarms.CourseAlarm,
		CourseAlarmOffsetMinutes:     cfg.Alarms.CourseAlarmOffsetMinutes,
		AssignmentAlarm:              cfg.Alarms.AssignmentAlarm,
		AssignmentAlarmOffsetMinutes: cfg.Alarms.AssignmentAlarmOffsetMinutes,
		CalendarOnly:                 cfg.Alarms.CalendarOnly,
	}
	if prefs.CourseAlarmOffsetMinutes == 0 {
		prefs.CourseAlarmOffsetMinutes = DefaultPreferences().CourseAlarmOffsetMinutes
	}
	if prefs.AssignmentAlarmOffsetMinutes == 0 {
		prefs.AssignmentAlarmOffsetMinutes = DefaultPreferences().AssignmentAlarmOffsetMinutes
	}

	if err := s.store.SavePreferences(prefs); err != nil {
		return fmt.Errorf("failed to seed preferences: %w", err)
	}

	s.logger.Info().Msg("Sync preferences seeded successfully")
	return nil
}
