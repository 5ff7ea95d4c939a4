package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatherly/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	attendeeRepo   domain.AttendeeRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	contextTimeout time.Duration
}

func NewEventService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		attendeeRepo:   attendeeRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		contextTimeout: timeout,
	}
}

// withAttendees populates the event's attendee list in invitation order.
func (s *eventService) withAttendees(ctx context.Context, e *domain.Event) (*domain.Event, error) {
	attendees, err := s.attendeeRepo.ListByEventID(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	e.Attendees = attendees
	return e, nil
}

// loadEvent fetches the event with its attendee list resolved.
func (s *eventService) loadEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return s.withAttendees(ctx, e)
}

// populateAll resolves attendee lists for each event (N+1; simple and fine
// at the list sizes these endpoints serve).
func (s *eventService) populateAll(ctx context.Context, events []*domain.Event) ([]*domain.Event, error) {
	for _, e := range events {
		if _, err := s.withAttendees(ctx, e); err != nil {
			return nil, err
		}
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) CreateEvent(ctx context.Context, callerID, title, description string, date time.Time, timeOfDay, location string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if callerID == "" {
		return nil, fmt.Errorf("event organizer is required")
	}

	now := time.Now()
	event := &domain.Event{
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Date:        date,
		Time:        timeOfDay,
		Location:    strings.TrimSpace(location),
		Organizer:   domain.UserRef{ID: callerID},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return s.loadEvent(ctx, event.ID)
}

func (s *eventService) UpdateEventDetails(ctx context.Context, eventID, callerID string, patch domain.EventPatch) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(callerID) {
		return nil, domain.ErrForbidden
	}
	updated, err := s.eventRepo.UpdateDetails(ctx, eventID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.withAttendees(ctx, updated)
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(callerID) {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (s *eventService) InviteToEvent(ctx context.Context, eventID, callerID string, emails []string) (*domain.InviteResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(callerID) {
		return nil, domain.ErrForbidden
	}

	normalized := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.TrimSpace(strings.ToLower(email))
		if email == "" {
			continue
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		normalized = append(normalized, email)
	}

	// Emails with no registered user are silently dropped; the call fails
	// only when none resolve.
	users, err := s.userRepo.ListByEmails(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("resolve emails: %w", err)
	}
	if len(users) == 0 {
		return nil, domain.ErrNoUsersFound
	}

	userIDs := make([]string, len(users))
	emailByID := make(map[string]string, len(users))
	for i, u := range users {
		userIDs[i] = u.ID
		emailByID[u.ID] = u.Email
	}

	added, err := s.attendeeRepo.AddIfAbsent(ctx, eventID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("add attendees: %w", err)
	}

	invited := make([]string, 0, len(added))
	for _, id := range added {
		invited = append(invited, emailByID[id])
	}

	s.notifyInvited(ctx, event, invited)

	return &domain.InviteResult{Invited: invited}, nil
}

// notifyInvited sends an invitation email to each newly invited address.
// Delivery is best effort; failures never fail the invite.
func (s *eventService) notifyInvited(ctx context.Context, event *domain.Event, emails []string) {
	if s.emailService == nil {
		return
	}
	for _, email := range emails {
		data := &domain.EventInvitationEmailData{
			Email:         email,
			OrganizerName: event.Organizer.Name,
			EventTitle:    event.Title,
			EventDate:     event.Date.Format("2006-01-02"),
			EventTime:     event.Time,
			EventLocation: event.Location,
		}
		_ = s.emailService.SendEventInvitation(ctx, data)
	}
}

func (s *eventService) UpdateAttendanceStatus(ctx context.Context, eventID, callerID string, status domain.AttendanceStatus) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if !status.ValidTransitionTarget() {
		return nil, domain.ErrInvalidInput
	}

	if _, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	attendee, err := s.attendeeRepo.GetByEventAndUser(ctx, eventID, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Not invited to this event.
			return nil, domain.ErrForbidden
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}
	if attendee.Role == domain.RoleOrganizer {
		return nil, domain.ErrOrganizerStatusLocked
	}

	if err := s.attendeeRepo.UpdateStatus(ctx, eventID, callerID, status); err != nil {
		return nil, fmt.Errorf("update attendance status: %w", err)
	}
	return s.loadEvent(ctx, eventID)
}

func (s *eventService) GetEventAttendees(ctx context.Context, eventID, callerID string) (*domain.EventAttendees, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if !event.IsOrganizer(callerID) {
		return nil, domain.ErrForbidden
	}
	attendees, err := s.attendeeRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendees: %w", err)
	}
	return &domain.EventAttendees{Title: event.Title, Attendees: attendees}, nil
}

func (s *eventService) GetMyOrganizedEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizer(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list organized events: %w", err)
	}
	return s.populateAll(ctx, events)
}

func (s *eventService) GetMyInvitedEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListInvited(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list invited events: %w", err)
	}
	return s.populateAll(ctx, events)
}

func (s *eventService) GetAllMyEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list member events: %w", err)
	}
	return s.populateAll(ctx, events)
}

func (s *eventService) GetEventByID(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	// Membership gate: any attendee record grants read access.
	if event.FindAttendee(userID) == nil {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) SearchEvents(ctx context.Context, userID string, filter domain.SearchFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.Search(ctx, userID, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("search events: %w", err)
	}
	events, err = s.populateAll(ctx, events)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}
