// Package memory provides an in-memory Provider used by tests and the
// "memory" provider mode. It behaves like a host calendar subsystem that
// supports both events and reminders, with per-kind access control.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/learnx/calendar-sync/internal/provider"
)

type storedReminder struct {
	ID           string
	CollectionID string
	Payload      provider.ReminderPayload
}

// Provider is an in-memory implementation of provider.Provider
type Provider struct {
	mu          sync.Mutex
	denied      map[provider.CollectionKind]bool
	collections map[string]provider.Collection
	events      map[string]provider.Event
	reminders   map[string]storedReminder
}

var _ provider.Provider = (*Provider)(nil)

// New creates an empty in-memory provider with all access granted
func New() *Provider {
	return &Provider{
		denied:      make(map[provider.CollectionKind]bool),
		collections: make(map[string]provider.Collection),
		events:      make(map[string]provider.Event),
		reminders:   make(map[string]storedReminder),
	}
}

// DenyAccess makes subsequent RequestAccess calls for the kind report denial
func (p *Provider) DenyAccess(kind provider.CollectionKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denied[kind] = true
}

// GrantAccess restores access for the kind
func (p *Provider) GrantAccess(kind provider.CollectionKind) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.denied, kind)
}

// RequestAccess implements provider.Provider
func (p *Provider) RequestAccess(_ context.Context, kind provider.CollectionKind) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.denied[kind], nil
}

func (p *Provider) checkAccess(kind provider.CollectionKind) error {
	if p.denied[kind] {
		return provider.ErrPermissionDenied
	}
	return nil
}

// ListCollections implements provider.Provider
func (p *Provider) ListCollections(_ context.Context, kind provider.CollectionKind) ([]provider.Collection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(kind); err != nil {
		return nil, err
	}

	var out []provider.Collection
	for _, c := range p.collections {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out, nil
}

// CreateCollection implements provider.Provider
func (p *Provider) CreateCollection(_ context.Context, kind provider.CollectionKind, title, _ string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(kind); err != nil {
		return "", err
	}

	id := uuid.NewString()
	p.collections[id] = provider.Collection{ID: id, Title: title, Kind: kind}
	return id, nil
}

// DeleteCollection implements provider.Provider. Objects inside the
// collection are deleted with it, as host subsystems do.
func (p *Provider) DeleteCollection(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	c, ok := p.collections[id]
	if !ok {
		return fmt.Errorf("delete collection %s: %w", id, provider.ErrNotFound)
	}
	if err := p.checkAccess(c.Kind); err != nil {
		return err
	}

	delete(p.collections, id)
	for eventID, e := range p.events {
		if e.CollectionID == id {
			delete(p.events, eventID)
		}
	}
	for reminderID, r := range p.reminders {
		if r.CollectionID == id {
			delete(p.reminders, reminderID)
		}
	}
	return nil
}

// ListEvents implements provider.Provider. An event is in range when it
// overlaps [rangeStart, rangeEnd).
func (p *Provider) ListEvents(_ context.Context, collectionIDs []string, rangeStart, rangeEnd time.Time) ([]provider.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(provider.KindEvent); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(collectionIDs))
	for _, id := range collectionIDs {
		wanted[id] = true
	}

	var out []provider.Event
	for _, e := range p.events {
		if !wanted[e.CollectionID] {
			continue
		}
		if e.Payload.End.After(rangeStart) && e.Payload.Start.Before(rangeEnd) {
			out = append(out, e)
		}
	}
	return out, nil
}

// CreateEvent implements provider.Provider
func (p *Provider) CreateEvent(_ context.Context, collectionID string, payload provider.EventPayload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(provider.KindEvent); err != nil {
		return "", err
	}
	if _, ok := p.collections[collectionID]; !ok {
		return "", fmt.Errorf("create event in %s: %w", collectionID, provider.ErrCollectionUnavailable)
	}

	id := uuid.NewString()
	p.events[id] = provider.Event{ID: id, CollectionID: collectionID, Payload: payload}
	return id, nil
}

// UpdateEvent implements provider.Provider
func (p *Provider) UpdateEvent(_ context.Context, id string, payload provider.EventPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(provider.KindEvent); err != nil {
		return err
	}

	e, ok := p.events[id]
	if !ok {
		return fmt.Errorf("update event %s: %w", id, provider.ErrNotFound)
	}
	e.Payload = payload
	p.events[id] = e
	return nil
}

// DeleteEvent implements provider.Provider
func (p *Provider) DeleteEvent(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(provider.KindEvent); err != nil {
		return err
	}

	if _, ok := p.events[id]; !ok {
		return fmt.Errorf("delete event %s: %w", id, provider.ErrNotFound)
	}
	delete(p.events, id)
	return nil
}

// SupportsReminders implements provider.Provider
func (p *Provider) SupportsReminders() bool {
	return true
}

// CreateReminder implements provider.Provider
func (p *Provider) CreateReminder(_ context.Context, collectionID string, payload provider.ReminderPayload) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(provider.KindReminder); err != nil {
		return "", err
	}
	if _, ok := p.collections[collectionID]; !ok {
		return "", fmt.Errorf("create reminder in %s: %w", collectionID, provider.ErrCollectionUnavailable)
	}

	id := uuid.NewString()
	p.reminders[id] = storedReminder{ID: id, CollectionID: collectionID, Payload: payload}
	return id, nil
}

// UpdateReminder implements provider.Provider
func (p *Provider) UpdateReminder(_ context.Context, id string, payload provider.ReminderPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(provider.KindReminder); err != nil {
		return err
	}

	r, ok := p.reminders[id]
	if !ok {
		return fmt.Errorf("update reminder %s: %w", id, provider.ErrNotFound)
	}
	r.Payload = payload
	p.reminders[id] = r
	return nil
}

// DeleteReminder implements provider.Provider
func (p *Provider) DeleteReminder(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkAccess(provider.KindReminder); err != nil {
		return err
	}

	if _, ok := p.reminders[id]; !ok {
		return fmt.Errorf("delete reminder %s: %w", id, provider.ErrNotFound)
	}
	delete(p.reminders, id)
	return nil
}

// CollectionByID returns a stored collection, for test assertions
func (p *Provider) CollectionByID(id string) (provider.Collection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.collections[id]
	return c, ok
}

// EventsInCollection returns all events stored in a collection, for test assertions
func (p *Provider) EventsInCollection(collectionID string) []provider.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []provider.Event
	for _, e := range p.events {
		if e.CollectionID == collectionID {
			out = append(out, e)
		}
	}
	return out
}

// ReminderPayloadByID returns a stored reminder payload, for test assertions
func (p *Provider) ReminderPayloadByID(id string) (provider.ReminderPayload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.reminders[id]
	return r.Payload, ok
}

// RemindersInCollection returns the ids of reminders in a collection, for test assertions
func (p *Provider) RemindersInCollection(collectionID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for id, r := range p.reminders {
		if r.CollectionID == collectionID {
			out = append(out, id)
		}
	}
	return out
}
