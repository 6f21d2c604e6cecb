package syncer

import (
	"context"
	"fmt"

	"github.com/learnx/calendar-sync/internal/constants"
	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/provider"
)

// resolveCollection finds or creates the app-owned collection for a role.
//
// The cached id is a hint, never a guarantee: the host can silently
// invalidate collection ids (account removal, the user deleting the
// collection in the native app), so it is revalidated against the live
// collection list on every call. A title match rescues the cache after such
// invalidation without creating a duplicate collection; only when neither
// works is a fresh collection created.
//
// clearMappings is set for assignment collections: when one has to be
// created from scratch, any surviving mapping entries of that kind point
// into a dead collection and are discarded.
func (e *Engine) resolveCollection(ctx context.Context, kind provider.CollectionKind, role database.CollectionRole, title string, clearMappings bool) (string, error) {
	e.resolveMu.Lock()
	defer e.resolveMu.Unlock()
	return e.resolveCollectionLocked(ctx, kind, role, title, clearMappings)
}

// resolveCollectionLocked does the actual resolution. Callers hold resolveMu.
func (e *Engine) resolveCollectionLocked(ctx context.Context, kind provider.CollectionKind, role database.CollectionRole, title string, clearMappings bool) (string, error) {
	collections, err := e.provider.ListCollections(ctx, kind)
	if err != nil {
		return "", fmt.Errorf("failed to list %s collections: %w", kind, err)
	}

	cached, err := e.settings.GetCollectionID(role)
	if err != nil {
		return "", err
	}
	if cached != "" {
		for _, c := range collections {
			if c.ID == cached {
				return cached, nil
			}
		}
		e.logger.Warn().
			Str("role", string(role)).
			Str("collection_id", cached).
			Msg("Cached collection id no longer exists, re-resolving")
	}

	for _, c := range collections {
		if c.Title == title {
			if err := e.settings.SaveCollectionID(role, c.ID); err != nil {
				return "", err
			}
			e.logger.Info().
				Str("role", string(role)).
				Str("collection_id", c.ID).
				Msg("Recovered collection by title match")
			return c.ID, nil
		}
	}

	if clearMappings {
		if err := e.mappings.Clear(kind.String()); err != nil {
			return "", err
		}
	}

	id, err := e.provider.CreateCollection(ctx, kind, title, constants.CalendarColor)
	if err != nil {
		return "", fmt.Errorf("failed to create %s collection %q: %w", kind, title, err)
	}
	if err := e.settings.SaveCollectionID(role, id); err != nil {
		return "", err
	}
	e.logger.Info().
		Str("role", string(role)).
		Str("collection_id", id).
		Str("title", title).
		Msg("Created collection")
	return id, nil
}

// rebuildCollection discards the cached id for a role and resolves again.
// Used once per operation when a resolved collection vanishes between
// resolution and use; a second failure propagates. The clear and the
// re-resolve happen under resolveMu as one step, so a concurrent rebuild
// cannot clear an id a sibling just cached.
func (e *Engine) rebuildCollection(ctx context.Context, kind provider.CollectionKind, role database.CollectionRole, title string, clearMappings bool) (string, error) {
	e.resolveMu.Lock()
	defer e.resolveMu.Unlock()

	if err := e.settings.ClearCollectionID(role); err != nil {
		return "", err
	}
	return e.resolveCollectionLocked(ctx, kind, role, title, clearMappings)
}
