package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration
type Config struct {
	Service  ServiceConfig  `toml:"service"`
	Sync     SyncConfig     `toml:"sync"`
	Alarms   AlarmsConfig   `toml:"alarms"`
	Semester SemesterConfig `toml:"semester"`
	OAuth    *OAuthConfig   // From environment
}

// ServiceConfig holds the service configuration
type ServiceConfig struct {
	Port      int    `toml:"port"`
	StateFile string `toml:"state_file"`
	LogLevel  string `toml:"log_level"`
}

// SyncConfig holds the sync engine parameters
type SyncConfig struct {
	// Provider selects the calendar binding: "google" or "memory"
	Provider string `toml:"provider"`
	// ScheduleCron is the cron expression for periodic course schedule re-sync
	ScheduleCron string `toml:"schedule_cron"`
	// WindowWeeks is how many weeks ahead the course schedule window extends
	WindowWeeks int `toml:"window_weeks"`
}

// AlarmsConfig holds the default alarm preferences seeded into the database
// on first start. The persisted preferences take over afterwards.
type AlarmsConfig struct {
	CourseAlarm                  bool `toml:"course_alarm"`
	CourseAlarmOffsetMinutes     int  `toml:"course_alarm_offset_minutes"`
	AssignmentAlarm              bool `toml:"assignment_alarm"`
	AssignmentAlarmOffsetMinutes int  `toml:"assignment_alarm_offset_minutes"`
	CalendarOnly                 bool `toml:"calendar_only"`
}

// SemesterConfig describes the semester the weekly timetable belongs to
type SemesterConfig struct {
	// StartDate is the Monday of week one, in YYYY-MM-DD
	StartDate string `toml:"start_date"`
	// Weeks is the total number of teaching weeks
	Weeks int    `toml:"weeks"`
	Slots []Slot `toml:"slots"`
}

// Slot is one weekly recurring class meeting
type Slot struct {
	CourseName string `toml:"course_name"`
	// Weekday follows time.Weekday numbering: 0 is Sunday
	Weekday   int    `toml:"weekday"`
	StartTime string `toml:"start_time"` // HH:MM
	EndTime   string `toml:"end_time"`   // HH:MM
	Location  string `toml:"location"`
	// Weeks restricts the slot to the listed teaching weeks; empty means all
	Weeks []int `toml:"weeks"`
}

// OAuthConfig holds the Google OAuth configuration from environment
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Load reads the configuration file and environment variables
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Ensure the state file path is absolute
	if !filepath.IsAbs(cfg.Service.StateFile) {
		configDir := filepath.Dir(path)
		cfg.Service.StateFile = filepath.Join(configDir, "..", cfg.Service.StateFile)
	}

	cfg.OAuth = &OAuthConfig{
		ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_OAUTH_REDIRECT_URL"),
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Service.Port <= 0 {
		return fmt.Errorf("service port must be positive")
	}
	if cfg.Service.StateFile == "" {
		return fmt.Errorf("state file path is required")
	}

	switch cfg.Sync.Provider {
	case "google", "memory":
	// Valid providers
	default:
		return fmt.Errorf("invalid sync provider: %s", cfg.Sync.Provider)
	}

	if cfg.Sync.WindowWeeks < 1 {
		return fmt.Errorf("sync window weeks must be positive")
	}

	if cfg.Alarms.CourseAlarmOffsetMinutes < 0 || cfg.Alarms.AssignmentAlarmOffsetMinutes < 0 {
		return fmt.Errorf("alarm offsets cannot be negative")
	}

	if cfg.Semester.StartDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.Semester.StartDate); err != nil {
			return fmt.Errorf("invalid semester start date %q: %w", cfg.Semester.StartDate, err)
		}
		if cfg.Semester.Weeks < 1 {
			return fmt.Errorf("semester weeks must be positive")
		}
	}

	for i, slot := range cfg.Semester.Slots {
		if slot.CourseName == "" {
			return fmt.Errorf("slot %d: course name is required", i)
		}
		if slot.Weekday < 0 || slot.Weekday > 6 {
			return fmt.Errorf("slot %d: weekday must be 0-6, got %d", i, slot.Weekday)
		}
		for _, field := range []string{slot.StartTime, slot.EndTime} {
			if _, err := time.Parse("15:04", field); err != nil {
				return fmt.Errorf("slot %d: invalid time %q: %w", i, field, err)
			}
		}
	}

	// OAuth configuration is only required for the google provider
	if cfg.Sync.Provider == "google" {
		if cfg.OAuth.ClientID == "" {
			return fmt.Errorf("GOOGLE_OAUTH_CLIENT_ID environment variable is required")
		}
		if cfg.OAuth.ClientSecret == "" {
			return fmt.Errorf("GOOGLE_OAUTH_CLIENT_SECRET environment variable is required")
		}
		if cfg.OAuth.RedirectURL == "" {
			return fmt.Errorf("GOOGLE_OAUTH_REDIRECT_URL environment variable is required")
		}
	}

	return nil
}
