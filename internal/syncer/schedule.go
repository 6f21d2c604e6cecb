package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnx/calendar-sync/internal/constants"
	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/provider"
	"github.com/learnx/calendar-sync/internal/timetable"
)

// SyncCourseSchedule reconciles the course calendar window
// [windowStart, windowEnd) to contain exactly the given class meetings.
//
// The schedule is regenerated wholesale from source data on every sync and
// has no stable per-event identity, so this is a full delete-then-recreate
// of the window, not a diff. Manual edits a user made to mirrored course
// events inside that window are lost; the source schedule is authoritative.
//
// The delete phase must fully complete before the create phase starts,
// otherwise a newly created event could be observed and deleted by a
// logically earlier delete step. Any delete failure is fatal to the whole
// call: creating on top of undeleted old events would duplicate them. Create
// failures also surface immediately; the window is then partially synced,
// and the next sync fully reconciles it again.
func (e *Engine) SyncCourseSchedule(ctx context.Context, events []timetable.CourseEvent, windowStart, windowEnd time.Time) error {
	prefs, err := e.settings.GetPreferences()
	if err != nil {
		return err
	}

	if err := e.ensureAccess(ctx, provider.KindEvent); err != nil {
		return err
	}

	collectionID, err := e.resolveCollection(ctx, provider.KindEvent, database.RoleCourseCalendar, constants.CourseCalendarTitle, false)
	if err != nil {
		return err
	}

	e.logger.Info().
		Int("events", len(events)).
		Time("window_start", windowStart).
		Time("window_end", windowEnd).
		Msg("Starting course schedule sync")

	existing, err := e.provider.ListEvents(ctx, []string{collectionID}, windowStart, windowEnd)
	if err != nil {
		return fmt.Errorf("failed to list existing course events: %w", err)
	}

	for _, old := range existing {
		if err := e.provider.DeleteEvent(ctx, old.ID); err != nil {
			// Already-gone events are fine; the goal is an empty window
			if errors.Is(err, provider.ErrNotFound) {
				continue
			}
			return fmt.Errorf("failed to delete stale course event %s: %w", old.ID, err)
		}
	}
	e.logger.Debug().Int("deleted", len(existing)).Msg("Cleared course window")

	for _, event := range events {
		payload := courseEventPayload(event, prefs)
		_, err := e.provider.CreateEvent(ctx, collectionID, payload)
		if errors.Is(err, provider.ErrCollectionUnavailable) {
			e.logger.Warn().Msg("Course collection vanished between resolve and create, re-resolving once")
			collectionID, err = e.rebuildCollection(ctx, provider.KindEvent, database.RoleCourseCalendar, constants.CourseCalendarTitle, false)
			if err != nil {
				return err
			}
			_, err = e.provider.CreateEvent(ctx, collectionID, payload)
		}
		if err != nil {
			return fmt.Errorf("failed to create course event %q at %s: %w", event.CourseName, event.Start, err)
		}
	}

	e.logger.Info().Int("created", len(events)).Msg("Course schedule sync completed successfully")
	return nil
}

func courseEventPayload(event timetable.CourseEvent, prefs database.Preferences) provider.EventPayload {
	return provider.EventPayload{
		Title:    event.CourseName,
		Notes:    event.Location,
		Location: event.Location,
		Start:    event.Start,
		End:      event.End,
		Alarms:   alarmList(prefs.CourseAlarm, prefs.CourseAlarmOffsetMinutes),
	}
}
