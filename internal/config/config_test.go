package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sync.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
[service]
port = 8080
state_file = "data/learnx-sync.db"
log_level = "debug"

[sync]
provider = "memory"
schedule_cron = "0 3 * * *"
window_weeks = 2

[alarms]
course_alarm = true
course_alarm_offset_minutes = 15
assignment_alarm = true
assignment_alarm_offset_minutes = 1440

[semester]
start_date = "2026-09-14"
weeks = 16

[[semester.slots]]
course_name = "Calculus"
weekday = 1
start_time = "08:00"
end_time = "09:35"
location = "Room 6A-201"
weeks = [1, 2, 3]
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Service.Port)
	assert.True(t, filepath.IsAbs(cfg.Service.StateFile))
	assert.Equal(t, "memory", cfg.Sync.Provider)
	assert.Equal(t, 2, cfg.Sync.WindowWeeks)
	assert.True(t, cfg.Alarms.CourseAlarm)
	assert.Equal(t, 1440, cfg.Alarms.AssignmentAlarmOffsetMinutes)
	assert.Equal(t, "2026-09-14", cfg.Semester.StartDate)
	require.Len(t, cfg.Semester.Slots, 1)
	assert.Equal(t, "Calculus", cfg.Semester.Slots[0].CourseName)
	assert.Equal(t, []int{1, 2, 3}, cfg.Semester.Slots[0].Weeks)
}

func TestLoadRejectsBadProvider(t *testing.T) {
	path := writeConfig(t, `
[service]
port = 8080
state_file = "data/learnx-sync.db"

[sync]
provider = "carrier-pigeon"
window_weeks = 2
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid sync provider")
}

func TestLoadRejectsBadSlot(t *testing.T) {
	path := writeConfig(t, `
[service]
port = 8080
state_file = "data/learnx-sync.db"

[sync]
provider = "memory"
window_weeks = 2

[semester]
start_date = "2026-09-14"
weeks = 16

[[semester.slots]]
course_name = "Calculus"
weekday = 9
start_time = "08:00"
end_time = "09:35"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "weekday")
}

func TestLoadGoogleProviderRequiresOAuthEnv(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_OAUTH_REDIRECT_URL", "")

	path := writeConfig(t, `
[service]
port = 8080
state_file = "data/learnx-sync.db"

[sync]
provider = "google"
window_weeks = 2
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "GOOGLE_OAUTH_CLIENT_ID")

	t.Setenv("GOOGLE_OAUTH_CLIENT_ID", "client-id")
	t.Setenv("GOOGLE_OAUTH_CLIENT_SECRET", "client-secret")
	t.Setenv("GOOGLE_OAUTH_REDIRECT_URL", "http://localhost:8080/oauth/callback")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "client-id", cfg.OAuth.ClientID)
}
