package database

import (
	"testing"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	_ "github.com/ncruces/go-sqlite3/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnx/calendar-sync/internal/constants"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	opts := SQLiteOptions{
		Path:        ":memory:",
		Mode:        "memory",
		Cache:       CacheShared,
		Journal:     JournalMemory,
		ForeignKeys: true,
		BusyTimeout: 5000,
	}
	db, err := New(opts)
	require.NoError(t, err)

	err = db.MigrateDatabase()
	require.NoError(t, err)

	return db, func() {
		err := db.Close()
		assert.NoError(t, err)
	}
}

func TestCollectionIDCache(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSettingsStore(db)

	// Nothing cached yet
	id, err := store.GetCollectionID(RoleCourseCalendar)
	assert.NoError(t, err)
	assert.Empty(t, id)

	err = store.SaveCollectionID(RoleCourseCalendar, "cal-1")
	assert.NoError(t, err)

	id, err = store.GetCollectionID(RoleCourseCalendar)
	assert.NoError(t, err)
	assert.Equal(t, "cal-1", id)

	// Roles are independent
	id, err = store.GetCollectionID(RoleAssignmentReminder)
	assert.NoError(t, err)
	assert.Empty(t, id)

	// Overwriting replaces the cached id
	err = store.SaveCollectionID(RoleCourseCalendar, "cal-2")
	assert.NoError(t, err)
	id, err = store.GetCollectionID(RoleCourseCalendar)
	assert.NoError(t, err)
	assert.Equal(t, "cal-2", id)
}

func TestClearCollectionIDs(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSettingsStore(db)

	require.NoError(t, store.SaveCollectionID(RoleCourseCalendar, "cal-1"))
	require.NoError(t, store.SaveCollectionID(RoleAssignmentReminder, "rem-1"))

	err := store.ClearCollectionID(RoleCourseCalendar)
	assert.NoError(t, err)

	id, err := store.GetCollectionID(RoleCourseCalendar)
	assert.NoError(t, err)
	assert.Empty(t, id)

	// The other role is untouched
	id, err = store.GetCollectionID(RoleAssignmentReminder)
	assert.NoError(t, err)
	assert.Equal(t, "rem-1", id)

	err = store.ClearCollectionIDs()
	assert.NoError(t, err)
	id, err = store.GetCollectionID(RoleAssignmentReminder)
	assert.NoError(t, err)
	assert.Empty(t, id)
}

func TestPreferencesDefaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSettingsStore(db)

	has, err := store.HasPreferences()
	assert.NoError(t, err)
	assert.False(t, has)

	// Unseeded store falls back to defaults
	prefs, err := store.GetPreferences()
	assert.NoError(t, err)
	assert.False(t, prefs.CourseAlarm)
	assert.Equal(t, constants.DefaultCourseAlarmOffsetMinutes, prefs.CourseAlarmOffsetMinutes)
	assert.Equal(t, constants.DefaultAssignmentAlarmOffsetMinutes, prefs.AssignmentAlarmOffsetMinutes)
	assert.False(t, prefs.CalendarOnly)
}

func TestSavePreferences(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSettingsStore(db)

	want := Preferences{
		CourseAlarm:                  true,
		CourseAlarmOffsetMinutes:     30,
		AssignmentAlarm:              true,
		AssignmentAlarmOffsetMinutes: 60,
		CalendarOnly:                 true,
	}
	err := store.SavePreferences(want)
	assert.NoError(t, err)

	got, err := store.GetPreferences()
	assert.NoError(t, err)
	assert.Equal(t, want, got)

	has, err := store.HasPreferences()
	assert.NoError(t, err)
	assert.True(t, has)

	// Second save updates in place
	want.CourseAlarm = false
	err = store.SavePreferences(want)
	assert.NoError(t, err)
	got, err = store.GetPreferences()
	assert.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSavePreferencesRejectsNegativeOffsets(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewSettingsStore(db)

	prefs := DefaultPreferences()
	prefs.CourseAlarmOffsetMinutes = -5
	err := store.SavePreferences(prefs)
	assert.Error(t, err)
}
