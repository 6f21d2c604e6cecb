package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/learnx/calendar-sync/internal/timetable"
)

func TestFeedSerializesEvents(t *testing.T) {
	start := time.Date(2026, 9, 16, 9, 50, 0, 0, time.UTC)
	events := []timetable.CourseEvent{
		{
			CourseName: "Linear Algebra",
			Location:   "Teaching Building 3, Room 105",
			Start:      start,
			End:        start.Add(95 * time.Minute),
		},
		{
			CourseName: "Physics Lab",
			Start:      start.AddDate(0, 0, 2),
			End:        start.AddDate(0, 0, 2).Add(3 * time.Hour),
		},
	}

	feed := Feed(events, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC))

	assert.True(t, strings.HasPrefix(feed, "BEGIN:VCALENDAR"))
	assert.Contains(t, feed, "SUMMARY:Linear Algebra")
	assert.Contains(t, feed, "SUMMARY:Physics Lab")
	assert.Contains(t, feed, "Room 105")
	assert.Equal(t, 2, strings.Count(feed, "BEGIN:VEVENT"))
}

func TestFeedUIDsAreStable(t *testing.T) {
	start := time.Date(2026, 9, 16, 9, 50, 0, 0, time.UTC)
	events := []timetable.CourseEvent{{
		CourseName: "Linear Algebra",
		Start:      start,
		End:        start.Add(time.Hour),
	}}

	first := Feed(events, start)
	second := Feed(events, start.Add(time.Hour))

	uid := func(feed string) string {
		for _, line := range strings.Split(feed, "\r\n") {
			if strings.HasPrefix(line, "UID:") {
				return line
			}
		}
		return ""
	}
	assert.NotEmpty(t, uid(first))
	assert.Equal(t, uid(first), uid(second))
}

func TestFeedEmpty(t *testing.T) {
	feed := Feed(nil, time.Now())
	assert.Contains(t, feed, "BEGIN:VCALENDAR")
	assert.NotContains(t, feed, "BEGIN:VEVENT")
}
