// Package googlecal implements the Provider contract on top of the Google
// Calendar API. Google has no reminder store, so the engine mirrors
// assignments as calendar events when this binding is active.
//
// Google addresses events by (calendarId, eventId); the contract addresses
// them by a single id. This binding therefore hands out composite ids of the
// form "<calendarId>/<eventId>".
package googlecal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/learnx/calendar-sync/internal/logging"
	"github.com/learnx/calendar-sync/internal/provider"
	"github.com/learnx/calendar-sync/internal/token"
)

// Service implements provider.Provider against Google Calendar
type Service struct {
	tokenManager *token.TokenManager
	logger       zerolog.Logger
}

var _ provider.Provider = (*Service)(nil)

// New creates a new Google Calendar provider. Operations fail with
// ErrPermissionDenied until a token has been obtained via the OAuth flow.
func New(tokenManager *token.TokenManager) *Service {
	return &Service{
		tokenManager: tokenManager,
		logger:       logging.GetLogger("googlecal"),
	}
}

// client builds an authenticated calendar service for the current token
func (s *Service) client(ctx context.Context) (*calendar.Service, error) {
	tok, err := s.tokenManager.GetValidToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", provider.ErrPermissionDenied, err)
	}

	oauthCfg := s.tokenManager.OAuthConfig()
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return srv, nil
}

// RequestAccess reports whether a usable OAuth token is available. Reminder
// access is always denied since Google Calendar has no reminder store.
func (s *Service) RequestAccess(ctx context.Context, kind provider.CollectionKind) (bool, error) {
	if kind == provider.KindReminder {
		return false, nil
	}

	hasToken, err := s.tokenManager.HasToken()
	if err != nil {
		return false, fmt.Errorf("failed to check token availability: %w", err)
	}
	if !hasToken {
		s.logger.Warn().Msg("No OAuth token available, calendar access denied")
		return false, nil
	}

	if _, err := s.tokenManager.GetValidToken(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Stored OAuth token is not usable")
		return false, nil
	}
	return true, nil
}

// ListCollections implements provider.Provider
func (s *Service) ListCollections(ctx context.Context, kind provider.CollectionKind) ([]provider.Collection, error) {
	if kind == provider.KindReminder {
		return nil, provider.ErrRemindersUnsupported
	}

	srv, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, translateError(err, "failed to list calendars")
	}

	collections := make([]provider.Collection, 0, len(list.Items))
	for _, item := range list.Items {
		collections = append(collections, provider.Collection{
			ID:    item.Id,
			Title: item.Summary,
			Kind:  provider.KindEvent,
		})
	}
	return collections, nil
}

// CreateCollection implements provider.Provider
func (s *Service) CreateCollection(ctx context.Context, kind provider.CollectionKind, title, colorHint string) (string, error) {
	if kind == provider.KindReminder {
		return "", provider.ErrRemindersUnsupported
	}

	srv, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	created, err := srv.Calendars.Insert(&calendar.Calendar{Summary: title}).Context(ctx).Do()
	if err != nil {
		return "", translateError(err, "failed to create calendar")
	}
	s.logger.Info().Str("calendar_id", created.Id).Str("title", title).Msg("Created calendar")

	// Color is cosmetic; a failure here should not fail the sync
	if colorHint != "" {
		entry := &calendar.CalendarListEntry{
			BackgroundColor: colorHint,
			ForegroundColor: "#ffffff",
		}
		_, err := srv.CalendarList.Patch(created.Id, entry).ColorRgbFormat(true).Context(ctx).Do()
		if err != nil {
			s.logger.Warn().Err(err).Str("calendar_id", created.Id).Msg("Failed to set calendar color")
		}
	}

	return created.Id, nil
}

// DeleteCollection implements provider.Provider
func (s *Service) DeleteCollection(ctx context.Context, id string) error {
	srv, err := s.client(ctx)
	if err != nil {
		return err
	}

	if err := srv.Calendars.Delete(id).Context(ctx).Do(); err != nil {
		return translateError(err, "failed to delete calendar")
	}
	s.logger.Info().Str("calendar_id", id).Msg("Deleted calendar")
	return nil
}

// ListEvents implements provider.Provider
func (s *Service) ListEvents(ctx context.Context, collectionIDs []string, rangeStart, rangeEnd time.Time) ([]provider.Event, error) {
	srv, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	var out []provider.Event
	for _, calendarID := range collectionIDs {
		call := srv.Events.List(calendarID).
			TimeMin(rangeStart.Format(time.RFC3339)).
			TimeMax(rangeEnd.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		events, err := call.Do()
		if err != nil {
			return nil, translateError(err, fmt.Sprintf("failed to list events for calendar %s", calendarID))
		}

		for _, item := range events.Items {
			out = append(out, provider.Event{
				ID:           compositeID(calendarID, item.Id),
				CollectionID: calendarID,
				Payload:      fromGoogleEvent(item),
			})
		}
	}
	return out, nil
}

// CreateEvent implements provider.Provider
func (s *Service) CreateEvent(ctx context.Context, collectionID string, payload provider.EventPayload) (string, error) {
	srv, err := s.client(ctx)
	if err != nil {
		return "", err
	}

	created, err := srv.Events.Insert(collectionID, toGoogleEvent(payload)).Context(ctx).Do()
	if err != nil {
		// A missing calendar surfaces as 404 on insert
		if isNotFound(err) {
			return "", fmt.Errorf("calendar %s: %w", collectionID, provider.ErrCollectionUnavailable)
		}
		return "", translateError(err, "failed to create event")
	}
	return compositeID(collectionID, created.Id), nil
}

// UpdateEvent implements provider.Provider
func (s *Service) UpdateEvent(ctx context.Context, id string, payload provider.EventPayload) error {
	calendarID, eventID, err := splitCompositeID(id)
	if err != nil {
		return err
	}

	srv, err := s.client(ctx)
	if err != nil {
		return err
	}

	_, err = srv.Events.Update(calendarID, eventID, toGoogleEvent(payload)).Context(ctx).Do()
	if err != nil {
		return translateError(err, "failed to update event")
	}
	return nil
}

// DeleteEvent implements provider.Provider
func (s *Service) DeleteEvent(ctx context.Context, id string) error {
	calendarID, eventID, err := splitCompositeID(id)
	if err != nil {
		return err
	}

	srv, err := s.client(ctx)
	if err != nil {
		return err
	}

	if err := srv.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return translateError(err, "failed to delete event")
	}
	return nil
}

// SupportsReminders implements provider.Provider
func (s *Service) SupportsReminders() bool {
	return false
}

// CreateReminder implements provider.Provider
func (s *Service) CreateReminder(context.Context, string, provider.ReminderPayload) (string, error) {
	return "", provider.ErrRemindersUnsupported
}

// UpdateReminder implements provider.Provider
func (s *Service) UpdateReminder(context.Context, string, provider.ReminderPayload) error {
	return provider.ErrRemindersUnsupported
}

// DeleteReminder implements provider.Provider
func (s *Service) DeleteReminder(context.Context, string) error {
	return provider.ErrRemindersUnsupported
}

func compositeID(calendarID, eventID string) string {
	return calendarID + "/" + eventID
}

func splitCompositeID(id string) (calendarID, eventID string, err error) {
	calendarID, eventID, found := strings.Cut(id, "/")
	if !found || calendarID == "" || eventID == "" {
		return "", "", fmt.Errorf("malformed external event id %q", id)
	}
	return calendarID, eventID, nil
}

func toGoogleEvent(payload provider.EventPayload) *calendar.Event {
	event := &calendar.Event{
		Summary:     payload.Title,
		Description: payload.Notes,
		Location:    payload.Location,
		Start:       &calendar.EventDateTime{DateTime: payload.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: payload.End.Format(time.RFC3339)},
	}

	if len(payload.Alarms) > 0 {
		overrides := make([]*calendar.EventReminder, 0, len(payload.Alarms))
		for _, alarm := range payload.Alarms {
			overrides = append(overrides, &calendar.EventReminder{
				Method:  "popup",
				Minutes: int64(alarm.OffsetMinutes),
			})
		}
		event.Reminders = &calendar.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		}
	}
	return event
}

func fromGoogleEvent(event *calendar.Event) provider.EventPayload {
	payload := provider.EventPayload{
		Title:    event.Summary,
		Notes:    event.Description,
		Location: event.Location,
	}
	if event.Start != nil && event.Start.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, event.Start.DateTime); err == nil {
			payload.Start = t
		}
	}
	if event.End != nil && event.End.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, event.End.DateTime); err == nil {
			payload.End = t
		}
	}
	return payload
}

// translateError maps googleapi failures onto the provider sentinel errors
func translateError(err error, msg string) error {
	switch {
	case isNotFound(err):
		return fmt.Errorf("%s: %w", msg, provider.ErrNotFound)
	case isPermissionDenied(err):
		return fmt.Errorf("%s: %w", msg, provider.ErrPermissionDenied)
	default:
		return fmt.Errorf("%s: %w", msg, err)
	}
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 404 || gerr.Code == 410
	}
	return false
}

func isPermissionDenied(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == 401 || gerr.Code == 403
	}
	return false
}
