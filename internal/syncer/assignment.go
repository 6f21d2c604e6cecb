package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/learnx/calendar-sync/internal/constants"
	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/htmlutil"
	"github.com/learnx/calendar-sync/internal/provider"
)

// SyncAssignments mirrors every assignment with a future deadline into the
// assignment collection, creating or updating one external object per
// assignment. Assignments already past due are left untouched: they are
// neither mirrored nor proactively deleted.
//
// Each assignment is synced independently and concurrently; failures are
// collected per item and joined, so one broken upsert does not block its
// siblings. Permission and collection-resolution failures abort the whole
// call before any mutation.
func (e *Engine) SyncAssignments(ctx context.Context, assignments []Assignment) error {
	prefs, err := e.settings.GetPreferences()
	if err != nil {
		return err
	}

	kind, role := e.assignmentTarget(prefs)
	if err := e.ensureAccess(ctx, kind); err != nil {
		return err
	}

	collectionID, err := e.resolveCollection(ctx, kind, role, constants.AssignmentCalendarTitle, true)
	if err != nil {
		return err
	}

	now := e.now()
	pending := make([]Assignment, 0, len(assignments))
	for _, a := range assignments {
		if a.DueTime.After(now) {
			pending = append(pending, a)
		}
	}
	e.logger.Info().
		Int("total", len(assignments)).
		Int("pending", len(pending)).
		Str("kind", kind.String()).
		Msg("Starting assignment sync")

	// processed is only touched from this dispatching loop; the workers
	// never see it
	processed := make(map[string]bool, len(pending))
	var wg sync.WaitGroup
	errChan := make(chan error, len(pending))
	sem := make(chan struct{}, maxConcurrentUpserts)

	for _, assignment := range pending {
		if processed[assignment.ID] {
			continue
		}
		processed[assignment.ID] = true

		wg.Add(1)
		go func(a Assignment) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := e.upsertAssignment(ctx, kind, role, collectionID, a, prefs); err != nil {
				errChan <- fmt.Errorf("assignment %s: %w", a.ID, err)
			}
		}(assignment)
	}

	wg.Wait()
	close(errChan)

	var allErrors []error
	for err := range errChan {
		allErrors = append(allErrors, err)
	}
	if len(allErrors) > 0 {
		joined := errors.Join(allErrors...)
		e.logger.Error().Err(joined).Int("error_count", len(allErrors)).Msg("Assignment sync finished with errors")
		return joined
	}

	e.logger.Info().Int("synced", len(processed)).Msg("Assignment sync completed successfully")
	return nil
}

// upsertAssignment creates or updates the external object mirroring one
// assignment, keyed through the mapping store.
func (e *Engine) upsertAssignment(ctx context.Context, kind provider.CollectionKind, role database.CollectionRole, collectionID string, a Assignment, prefs database.Preferences) error {
	logger := e.logger.With().
		Str("assignment_id", a.ID).
		Str("kind", kind.String()).
		Logger()

	externalID, err := e.mappings.Get(kind.String(), a.ID)
	if err != nil {
		return err
	}

	if externalID == "" {
		id, err := e.createAssignmentObject(ctx, kind, collectionID, a, prefs)
		if errors.Is(err, provider.ErrCollectionUnavailable) {
			logger.Warn().Msg("Collection vanished between resolve and create, re-resolving once")
			rebuilt, rerr := e.rebuildCollection(ctx, kind, role, constants.AssignmentCalendarTitle, true)
			if rerr != nil {
				return rerr
			}
			id, err = e.createAssignmentObject(ctx, kind, rebuilt, a, prefs)
		}
		if err != nil {
			return fmt.Errorf("failed to create mirrored object: %w", err)
		}
		logger.Debug().Str("external_id", id).Msg("Created mirrored object")
		return e.mappings.Set(kind.String(), a.ID, id)
	}

	err = e.updateAssignmentObject(ctx, kind, externalID, a, prefs)
	if errors.Is(err, provider.ErrNotFound) {
		// The user deleted the mirrored object out-of-band. Drop the stale
		// mapping so the next sync pass treats the assignment as absent and
		// creates afresh; no retry within this pass.
		logger.Info().Str("external_id", externalID).Msg("Mirrored object gone, removing stale mapping")
		return e.mappings.Remove(kind.String(), a.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update mirrored object %s: %w", externalID, err)
	}
	logger.Debug().Str("external_id", externalID).Msg("Updated mirrored object")
	return nil
}

func (e *Engine) createAssignmentObject(ctx context.Context, kind provider.CollectionKind, collectionID string, a Assignment, prefs database.Preferences) (string, error) {
	if kind == provider.KindReminder {
		return e.provider.CreateReminder(ctx, collectionID, reminderPayload(a, prefs))
	}
	return e.provider.CreateEvent(ctx, collectionID, eventPayload(a, prefs))
}

func (e *Engine) updateAssignmentObject(ctx context.Context, kind provider.CollectionKind, externalID string, a Assignment, prefs database.Preferences) error {
	if kind == provider.KindReminder {
		return e.provider.UpdateReminder(ctx, externalID, reminderPayload(a, prefs))
	}
	return e.provider.UpdateEvent(ctx, externalID, eventPayload(a, prefs))
}

// displayTitle builds the mirrored object title from the assignment and its course
func displayTitle(a Assignment) string {
	return a.Title + " - " + a.CourseName
}

// reminderPayload builds the reminder representation: true start/due
// semantics, submission state carried in the completed flag.
func reminderPayload(a Assignment, prefs database.Preferences) provider.ReminderPayload {
	return provider.ReminderPayload{
		Title:          displayTitle(a),
		Notes:          htmlutil.RemoveTags(a.Description),
		Start:          a.StartTime,
		Due:            a.DueTime,
		Completed:      a.Submitted,
		CompletionTime: a.SubmitTime,
		Alarms:         alarmList(prefs.AssignmentAlarm, prefs.AssignmentAlarmOffsetMinutes),
	}
}

// eventPayload builds the calendar-event representation: events have no due
// concept, so the event covers a fixed lookback window ending at the due
// time, and submission state is carried in the title.
func eventPayload(a Assignment, prefs database.Preferences) provider.EventPayload {
	title := displayTitle(a)
	if a.Submitted {
		title = constants.CompletedMarker + title
	}
	return provider.EventPayload{
		Title:  title,
		Notes:  htmlutil.RemoveTags(a.Description),
		Start:  a.DueTime.Add(-constants.AssignmentEventLookback),
		End:    a.DueTime,
		Alarms: alarmList(prefs.AssignmentAlarm, prefs.AssignmentAlarmOffsetMinutes),
	}
}

func alarmList(enabled bool, offsetMinutes int) []provider.Alarm {
	if !enabled {
		return nil
	}
	return []provider.Alarm{{OffsetMinutes: offsetMinutes}}
}
