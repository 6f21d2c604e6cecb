// Package constants provides shared constants for the learnX calendar sync service
package constants

import "time"

// AppIdentifier is the marker carried in the title of every collection this
// application owns. Teardown relies on it to find collections to delete.
const AppIdentifier = "learnX"

// CourseCalendarTitle is the title of the calendar holding course schedule events
const CourseCalendarTitle = "learnX Schedule"

// AssignmentCalendarTitle is the title of the calendar/reminder collection
// holding mirrored assignment deadlines
const AssignmentCalendarTitle = "learnX Assignments"

// CalendarColor is the display color hint used when creating collections
const CalendarColor = "#7c4dff"

// CompletedMarker prefixes the title of a mirrored assignment that has been submitted
const CompletedMarker = "✅ "

// AssignmentEventLookback is how far before the due time a mirrored
// calendar event starts. Reminders carry true start/due times instead.
const AssignmentEventLookback = time.Hour

// Default alarm offsets, in minutes before the event start / due time.
const (
	DefaultCourseAlarmOffsetMinutes     = 15
	DefaultAssignmentAlarmOffsetMinutes = 24 * 60
)
