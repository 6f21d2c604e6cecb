package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnx/calendar-sync/internal/constants"
	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/provider"
	"github.com/learnx/calendar-sync/internal/timetable"
)

func courseEvent(name, location string, start time.Time, minutes int) timetable.CourseEvent {
	return timetable.CourseEvent{
		CourseName: name,
		Location:   location,
		Start:      start,
		End:        start.Add(time.Duration(minutes) * time.Minute),
	}
}

func (f *fixture) courseCollectionID(t *testing.T) string {
	t.Helper()
	id, err := f.settings.GetCollectionID(database.RoleCourseCalendar)
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func TestSyncCourseScheduleCreatesEvents(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	windowStart := testNow
	windowEnd := testNow.AddDate(0, 0, 14)
	events := []timetable.CourseEvent{
		courseEvent("Calculus", "Hall 3", testNow.Add(24*time.Hour), 90),
		courseEvent("Physics", "Lab B", testNow.Add(48*time.Hour), 120),
	}

	require.NoError(t, f.engine.SyncCourseSchedule(ctx, events, windowStart, windowEnd))

	collectionID := f.courseCollectionID(t)
	c, ok := f.provider.CollectionByID(collectionID)
	require.True(t, ok)
	assert.Equal(t, constants.CourseCalendarTitle, c.Title)
	assert.Equal(t, provider.KindEvent, c.Kind)

	created := f.provider.EventsInCollection(collectionID)
	require.Len(t, created, 2)
	byTitle := map[string]provider.EventPayload{}
	for _, e := range created {
		byTitle[e.Payload.Title] = e.Payload
	}
	calc := byTitle["Calculus"]
	assert.Equal(t, "Hall 3", calc.Notes)
	assert.Equal(t, "Hall 3", calc.Location)
	assert.Equal(t, testNow.Add(24*time.Hour), calc.Start)
	assert.Equal(t, testNow.Add(24*time.Hour+90*time.Minute), calc.End)
}

func TestSyncCourseScheduleReplacesWindow(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	windowStart := testNow
	windowEnd := testNow.AddDate(0, 0, 7)

	// First pass mirrors the old timetable version
	old := []timetable.CourseEvent{
		courseEvent("Calculus", "Hall 3", testNow.Add(24*time.Hour), 90),
		courseEvent("Physics", "Lab B", testNow.Add(48*time.Hour), 120),
	}
	require.NoError(t, f.engine.SyncCourseSchedule(ctx, old, windowStart, windowEnd))
	collectionID := f.courseCollectionID(t)

	// An event outside the window must survive the rewrite
	outside := provider.EventPayload{
		Title: "Calculus",
		Start: windowEnd.Add(24 * time.Hour),
		End:   windowEnd.Add(24*time.Hour + 90*time.Minute),
	}
	outsideID, err := f.provider.CreateEvent(ctx, collectionID, outside)
	require.NoError(t, err)

	// Second pass with a changed timetable
	updated := []timetable.CourseEvent{
		courseEvent("Calculus", "Hall 7", testNow.Add(24*time.Hour), 90),
	}
	require.NoError(t, f.engine.SyncCourseSchedule(ctx, updated, windowStart, windowEnd))

	inWindow, err := f.provider.ListEvents(ctx, []string{collectionID}, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, inWindow, 1)
	assert.Equal(t, "Hall 7", inWindow[0].Payload.Location)

	all := f.provider.EventsInCollection(collectionID)
	assert.Len(t, all, 2)
	ids := map[string]bool{}
	for _, e := range all {
		ids[e.ID] = true
	}
	assert.True(t, ids[outsideID])
}

func TestSyncCourseScheduleEmptyTimetableClearsWindow(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	windowStart := testNow
	windowEnd := testNow.AddDate(0, 0, 7)
	require.NoError(t, f.engine.SyncCourseSchedule(ctx, []timetable.CourseEvent{
		courseEvent("Calculus", "Hall 3", testNow.Add(24*time.Hour), 90),
	}, windowStart, windowEnd))

	require.NoError(t, f.engine.SyncCourseSchedule(ctx, nil, windowStart, windowEnd))

	assert.Empty(t, f.provider.EventsInCollection(f.courseCollectionID(t)))
}

func TestSyncCourseSchedulePermissionGate(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	f.provider.DenyAccess(provider.KindEvent)

	err := f.engine.SyncCourseSchedule(ctx, []timetable.CourseEvent{
		courseEvent("Calculus", "Hall 3", testNow.Add(24*time.Hour), 90),
	}, testNow, testNow.AddDate(0, 0, 7))
	assert.ErrorIs(t, err, provider.ErrPermissionDenied)

	id, err := f.settings.GetCollectionID(database.RoleCourseCalendar)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSyncCourseScheduleAlarmPreference(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	prefs := database.DefaultPreferences()
	prefs.CourseAlarm = true
	prefs.CourseAlarmOffsetMinutes = 30
	require.NoError(t, f.settings.SavePreferences(prefs))

	require.NoError(t, f.engine.SyncCourseSchedule(ctx, []timetable.CourseEvent{
		courseEvent("Calculus", "Hall 3", testNow.Add(24*time.Hour), 90),
	}, testNow, testNow.AddDate(0, 0, 7)))

	created := f.provider.EventsInCollection(f.courseCollectionID(t))
	require.Len(t, created, 1)
	require.Len(t, created[0].Payload.Alarms, 1)
	assert.Equal(t, 30, created[0].Payload.Alarms[0].OffsetMinutes)
}

func TestRemoveAllSyncedData(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	// Populate both sides first
	require.NoError(t, f.engine.SyncAssignments(ctx, []Assignment{
		futureAssignment("hw-1", "Problem Set 3", "Calculus"),
	}))
	require.NoError(t, f.engine.SyncCourseSchedule(ctx, []timetable.CourseEvent{
		courseEvent("Calculus", "Hall 3", testNow.Add(24*time.Hour), 90),
	}, testNow, testNow.AddDate(0, 0, 7)))

	// An unrelated calendar must not be touched
	foreignID, err := f.provider.CreateCollection(ctx, provider.KindEvent, "Birthdays", "")
	require.NoError(t, err)

	courseID := f.courseCollectionID(t)
	reminderID := f.assignmentCollectionID(t)

	require.NoError(t, f.engine.RemoveAllSyncedData(ctx))

	_, ok := f.provider.CollectionByID(courseID)
	assert.False(t, ok)
	_, ok = f.provider.CollectionByID(reminderID)
	assert.False(t, ok)
	_, ok = f.provider.CollectionByID(foreignID)
	assert.True(t, ok)

	for _, kind := range []string{"event", "reminder"} {
		mappings, err := f.mappings.All(kind)
		require.NoError(t, err)
		assert.Empty(t, mappings, "kind %s", kind)
	}
	for _, role := range []database.CollectionRole{
		database.RoleCourseCalendar,
		database.RoleAssignmentCalendar,
		database.RoleAssignmentReminder,
	} {
		id, err := f.settings.GetCollectionID(role)
		require.NoError(t, err)
		assert.Empty(t, id, "role %s", role)
	}

	// A subsequent sync starts from scratch with fresh collections
	require.NoError(t, f.engine.SyncAssignments(ctx, []Assignment{
		futureAssignment("hw-1", "Problem Set 3", "Calculus"),
	}))
	assert.NotEqual(t, reminderID, f.assignmentCollectionID(t))
}
