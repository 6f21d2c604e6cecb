// Package ics renders the expanded course schedule as an iCalendar feed so
// users can subscribe from any calendar client without granting the service
// write access to their calendars.
package ics

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/learnx/calendar-sync/internal/constants"
	"github.com/learnx/calendar-sync/internal/timetable"
)

const productID = "-//learnX//calendar-sync//EN"

// Feed serializes the given class meetings into an iCalendar document.
func Feed(events []timetable.CourseEvent, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(constants.CourseCalendarTitle)

	for _, e := range events {
		event := cal.AddEvent(eventUID(e))
		event.SetDtStampTime(now)
		event.SetStartAt(e.Start)
		event.SetEndAt(e.End)
		event.SetSummary(e.CourseName)
		if e.Location != "" {
			event.SetLocation(e.Location)
		}
	}

	return cal.Serialize()
}

// eventUID derives a stable UID so clients do not see duplicated events
// when the feed is re-fetched.
func eventUID(e timetable.CourseEvent) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d", e.CourseName, e.Start.Unix(), e.End.Unix())))
	return hex.EncodeToString(sum[:]) + "@learnx"
}
