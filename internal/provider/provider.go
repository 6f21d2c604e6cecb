// Package provider defines the capability contract the sync engine uses to
// talk to a host calendar/reminder subsystem. Bindings translate their host's
// error shapes into the sentinel errors of this package so the engine can
// react with errors.Is instead of matching error text.
package provider

import (
	"context"
	"time"
)

// CollectionKind distinguishes calendars holding events from reminder lists.
type CollectionKind string

const (
	KindEvent    CollectionKind = "event"
	KindReminder CollectionKind = "reminder"
)

// String returns the kind name for logging.
func (k CollectionKind) String() string {
	return string(k)
}

// Collection identifies one calendar or reminder list inside the host subsystem.
type Collection struct {
	ID    string
	Title string
	Kind  CollectionKind
}

// Alarm is a notification attached to an event or reminder.
// OffsetMinutes counts minutes before the start (events) or due time
// (reminders); it is always non-negative.
type Alarm struct {
	OffsetMinutes int
}

// EventPayload is the full desired state of a mirrored calendar event.
// Updates replace the stored object wholesale.
type EventPayload struct {
	Title    string
	Notes    string
	Location string
	Start    time.Time
	End      time.Time
	Alarms   []Alarm
}

// ReminderPayload is the full desired state of a mirrored reminder.
type ReminderPayload struct {
	Title          string
	Notes          string
	Start          time.Time
	Due            time.Time
	Completed      bool
	CompletionTime *time.Time
	Alarms         []Alarm
}

// Event is an existing event as reported by the host subsystem.
type Event struct {
	ID           string
	CollectionID string
	Payload      EventPayload
}

// Provider is the host calendar capability consumed by the sync engine.
//
// RequestAccess reports whether the application may touch collections of the
// given kind; it returns (false, nil) on a clean denial and an error only
// when the host could not answer. All other methods assume access has been
// granted and fail with ErrPermissionDenied when it was not.
type Provider interface {
	RequestAccess(ctx context.Context, kind CollectionKind) (bool, error)

	ListCollections(ctx context.Context, kind CollectionKind) ([]Collection, error)
	CreateCollection(ctx context.Context, kind CollectionKind, title, colorHint string) (string, error)
	DeleteCollection(ctx context.Context, id string) error

	ListEvents(ctx context.Context, collectionIDs []string, rangeStart, rangeEnd time.Time) ([]Event, error)
	CreateEvent(ctx context.Context, collectionID string, payload EventPayload) (string, error)
	UpdateEvent(ctx context.Context, id string, payload EventPayload) error
	DeleteEvent(ctx context.Context, id string) error

	// SupportsReminders reports whether the reminder methods are usable.
	// Bindings for hosts without a reminder store return false and the
	// engine mirrors assignments as calendar events instead.
	SupportsReminders() bool
	CreateReminder(ctx context.Context, collectionID string, payload ReminderPayload) (string, error)
	UpdateReminder(ctx context.Context, id string, payload ReminderPayload) error
	DeleteReminder(ctx context.Context, id string) error
}
