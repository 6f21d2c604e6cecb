// Package timetable expands the configured weekly course slots into the
// concrete class meetings inside a bounded date window. The result carries no
// per-event identity: the schedule syncer reconciles it wholesale.
package timetable

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/learnx/calendar-sync/internal/config"
)

// CourseEvent is one concrete class meeting
type CourseEvent struct {
	CourseName string
	Location   string
	Start      time.Time
	End        time.Time
}

// Semester bounds the recurring timetable
type Semester struct {
	// Start is the Monday of teaching week one
	Start time.Time
	// Weeks is the number of teaching weeks
	Weeks int
}

// SemesterFromConfig parses the semester section of the configuration.
// Returns ok=false when no semester is configured.
func SemesterFromConfig(cfg config.SemesterConfig) (Semester, bool, error) {
	if cfg.StartDate == "" {
		return Semester{}, false, nil
	}
	start, err := time.ParseInLocation("2006-01-02", cfg.StartDate, time.Local)
	if err != nil {
		return Semester{}, false, fmt.Errorf("invalid semester start date: %w", err)
	}
	return Semester{Start: start, Weeks: cfg.Weeks}, true, nil
}

// End returns the first instant after the last teaching week
func (s Semester) End() time.Time {
	return s.Start.AddDate(0, 0, 7*s.Weeks)
}

// weekOf returns the one-based teaching week a date falls in
func (s Semester) weekOf(t time.Time) int {
	days := int(t.Sub(s.Start).Hours() / 24)
	return days/7 + 1
}

// Expand generates every class meeting of the given slots that starts within
// [windowStart, windowEnd), clamped to the semester.
func Expand(semester Semester, slots []config.Slot, windowStart, windowEnd time.Time) ([]CourseEvent, error) {
	if windowEnd.Before(windowStart) {
		return nil, fmt.Errorf("window end %v is before window start %v", windowEnd, windowStart)
	}

	var events []CourseEvent
	for i, slot := range slots {
		startClock, err := time.Parse("15:04", slot.StartTime)
		if err != nil {
			return nil, fmt.Errorf("slot %d: invalid start time: %w", i, err)
		}
		endClock, err := time.Parse("15:04", slot.EndTime)
		if err != nil {
			return nil, fmt.Errorf("slot %d: invalid end time: %w", i, err)
		}

		dtstart := firstOccurrence(semester.Start, time.Weekday(slot.Weekday), startClock)

		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.WEEKLY,
			Dtstart: dtstart,
			Until:   semester.End(),
		})
		if err != nil {
			return nil, fmt.Errorf("slot %d: failed to build recurrence rule: %w", i, err)
		}

		for _, occurrence := range rule.Between(windowStart, windowEnd, true) {
			// rrule treats Between as inclusive on both ends
			if !occurrence.Before(windowEnd) {
				continue
			}
			if len(slot.Weeks) > 0 && !containsWeek(slot.Weeks, semester.weekOf(occurrence)) {
				continue
			}

			end := time.Date(occurrence.Year(), occurrence.Month(), occurrence.Day(),
				endClock.Hour(), endClock.Minute(), 0, 0, occurrence.Location())
			events = append(events, CourseEvent{
				CourseName: slot.CourseName,
				Location:   slot.Location,
				Start:      occurrence,
				End:        end,
			})
		}
	}
	return events, nil
}

// firstOccurrence finds the first date on or after semesterStart that falls
// on the wanted weekday, at the given clock time.
func firstOccurrence(semesterStart time.Time, weekday time.Weekday, clock time.Time) time.Time {
	daysAhead := (int(weekday) - int(semesterStart.Weekday()) + 7) % 7
	date := semesterStart.AddDate(0, 0, daysAhead)
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), 0, 0, semesterStart.Location())
}

func containsWeek(weeks []int, week int) bool {
	for _, w := range weeks {
		if w == week {
			return true
		}
	}
	return false
}
