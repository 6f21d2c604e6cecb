package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnx/calendar-sync/internal/config"
)

// Monday 2026-09-14 is week one of the test semester
var testSemester = Semester{
	Start: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
	Weeks: 16,
}

func TestSemesterFromConfig(t *testing.T) {
	sem, ok, err := SemesterFromConfig(config.SemesterConfig{
		StartDate: "2026-09-14",
		Weeks:     16,
	})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 16, sem.Weeks)
	assert.Equal(t, time.Monday, sem.Start.Weekday())

	_, ok, err = SemesterFromConfig(config.SemesterConfig{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExpandWeeklySlot(t *testing.T) {
	slots := []config.Slot{{
		CourseName: "Linear Algebra",
		Weekday:    int(time.Wednesday),
		StartTime:  "09:50",
		EndTime:    "11:25",
		Location:   "Teaching Building 3, Room 105",
	}}

	windowStart := testSemester.Start
	windowEnd := windowStart.AddDate(0, 0, 21)

	events, err := Expand(testSemester, slots, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, events, 3)

	first := events[0]
	assert.Equal(t, "Linear Algebra", first.CourseName)
	assert.Equal(t, "Teaching Building 3, Room 105", first.Location)
	assert.Equal(t, time.Wednesday, first.Start.Weekday())
	assert.Equal(t, 9, first.Start.Hour())
	assert.Equal(t, 50, first.Start.Minute())
	assert.Equal(t, 11, first.End.Hour())
	assert.Equal(t, 25, first.End.Minute())
	assert.True(t, first.End.After(first.Start))

	// Occurrences are exactly one week apart
	assert.Equal(t, first.Start.AddDate(0, 0, 7), events[1].Start)
	assert.Equal(t, first.Start.AddDate(0, 0, 14), events[2].Start)
}

func TestExpandRespectsWeekFilter(t *testing.T) {
	slots := []config.Slot{{
		CourseName: "Physics Lab",
		Weekday:    int(time.Friday),
		StartTime:  "13:30",
		EndTime:    "16:55",
		Weeks:      []int{1, 3},
	}}

	windowStart := testSemester.Start
	windowEnd := windowStart.AddDate(0, 0, 28)

	events, err := Expand(testSemester, slots, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, 1, testSemester.weekOf(events[0].Start))
	assert.Equal(t, 3, testSemester.weekOf(events[1].Start))
}

func TestExpandClampsToSemester(t *testing.T) {
	slots := []config.Slot{{
		CourseName: "Calculus",
		Weekday:    int(time.Monday),
		StartTime:  "08:00",
		EndTime:    "09:35",
	}}

	// Window extends well past the end of the semester
	windowStart := testSemester.Start.AddDate(0, 0, 7*15)
	windowEnd := windowStart.AddDate(0, 0, 7*10)

	events, err := Expand(testSemester, slots, windowStart, windowEnd)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 16, testSemester.weekOf(events[0].Start))
}

func TestExpandEmptyWindow(t *testing.T) {
	slots := []config.Slot{{
		CourseName: "Calculus",
		Weekday:    int(time.Monday),
		StartTime:  "08:00",
		EndTime:    "09:35",
	}}

	// Window entirely before the semester
	windowStart := testSemester.Start.AddDate(0, 0, -14)
	windowEnd := testSemester.Start.AddDate(0, 0, -7)

	events, err := Expand(testSemester, slots, windowStart, windowEnd)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestExpandRejectsInvertedWindow(t *testing.T) {
	_, err := Expand(testSemester, nil, testSemester.Start, testSemester.Start.AddDate(0, 0, -1))
	assert.Error(t, err)
}
