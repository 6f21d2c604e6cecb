// Package syncer reconciles LMS assignments and course schedules into an
// external calendar/reminder provider without duplicating objects or losing
// track of what has already been mirrored.
package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/learnx/calendar-sync/internal/database"
	"github.com/learnx/calendar-sync/internal/logging"
	"github.com/learnx/calendar-sync/internal/provider"
)

// maxConcurrentUpserts bounds how many assignment mutations are in flight at once
const maxConcurrentUpserts = 4

// Engine performs the sync operations against a calendar provider, using the
// settings store for cached collection ids and preferences, and the mapping
// store for assignment-to-external-object identity.
type Engine struct {
	provider provider.Provider
	settings *database.SettingsStore
	mappings *database.MappingStore
	logger   zerolog.Logger
	now      func() time.Time

	// resolveMu serializes collection resolution so concurrent self-healing
	// upserts cannot race to create duplicate collections.
	resolveMu sync.Mutex
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the engine's notion of "now", for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a sync engine
func NewEngine(p provider.Provider, settings *database.SettingsStore, mappings *database.MappingStore, opts ...Option) *Engine {
	e := &Engine{
		provider: p,
		settings: settings,
		mappings: mappings,
		logger:   logging.GetLogger("syncer"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ensureAccess requests permission for the kind and fails with
// ErrPermissionDenied on a clean denial. No mutation happens before this.
func (e *Engine) ensureAccess(ctx context.Context, kind provider.CollectionKind) error {
	granted, err := e.provider.RequestAccess(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to request %s access: %w", kind, err)
	}
	if !granted {
		return fmt.Errorf("%s access: %w", kind, provider.ErrPermissionDenied)
	}
	return nil
}

// assignmentTarget decides how assignments are mirrored: as reminders when
// the provider supports them and the user has not opted into calendar-only
// mode, as calendar events otherwise.
func (e *Engine) assignmentTarget(prefs database.Preferences) (provider.CollectionKind, database.CollectionRole) {
	if e.provider.SupportsReminders() && !prefs.CalendarOnly {
		return provider.KindReminder, database.RoleAssignmentReminder
	}
	return provider.KindEvent, database.RoleAssignmentCalendar
}
