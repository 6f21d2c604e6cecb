package syncer

import (
	"context"
	"strings"

	"github.com/learnx/calendar-sync/internal/constants"
	"github.com/learnx/calendar-sync/internal/provider"
)

// RemoveAllSyncedData deletes every collection this app owns (matched by the
// app identifier in the title), then clears the sync mappings and the cached
// collection ids. Used when the user disables sync entirely or logs out.
//
// Individual collection deletions are allowed to fail silently since a
// collection may already be gone; the local state is cleared regardless.
func (e *Engine) RemoveAllSyncedData(ctx context.Context) error {
	if err := e.ensureAccess(ctx, provider.KindEvent); err != nil {
		return err
	}
	if e.provider.SupportsReminders() {
		if err := e.ensureAccess(ctx, provider.KindReminder); err != nil {
			return err
		}
	}

	collections, err := e.provider.ListCollections(ctx, provider.KindEvent)
	if err != nil {
		return err
	}
	if e.provider.SupportsReminders() {
		reminderCollections, err := e.provider.ListCollections(ctx, provider.KindReminder)
		if err != nil {
			return err
		}
		collections = append(collections, reminderCollections...)
	}

	removed := 0
	for _, c := range collections {
		if !strings.Contains(c.Title, constants.AppIdentifier) {
			continue
		}
		if err := e.provider.DeleteCollection(ctx, c.ID); err != nil {
			e.logger.Warn().Err(err).
				Str("collection_id", c.ID).
				Str("title", c.Title).
				Msg("Failed to delete collection during teardown")
			continue
		}
		removed++
	}

	if err := e.mappings.ClearAll(); err != nil {
		return err
	}
	if err := e.settings.ClearCollectionIDs(); err != nil {
		return err
	}

	e.logger.Info().Int("collections_removed", removed).Msg("Removed all synced data")
	return nil
}
