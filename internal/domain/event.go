package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across event operations.
var (
	// ErrNotFound is returned when a referenced event does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the authenticated caller lacks the
	// required relationship to the event (not organizer, or not a member).
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is returned when a request is structurally valid but
	// semantically unacceptable.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoUsersFound is returned by InviteToEvent when none of the given
	// emails resolve to a registered user.
	ErrNoUsersFound = errors.New("no valid users found")
)

// Event is the aggregate root: core details plus the ordered attendee list.
// Organizer is set once at creation and immutable thereafter; Attendees
// always contains exactly one organizer record (the creator, status Going).
// swagger:model Event
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        time.Time  `json:"date"`
	Time        string     `json:"time"`
	Location    string     `json:"location"`
	Organizer   UserRef    `json:"organizer"`
	Attendees   []Attendee `json:"attendees"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsOrganizer reports whether userID is the event's organizer.
func (e *Event) IsOrganizer(userID string) bool {
	return e.Organizer.ID == userID
}

// FindAttendee returns the attendee record for userID, or nil if userID is
// not a member of the event.
func (e *Event) FindAttendee(userID string) *Attendee {
	for i := range e.Attendees {
		if e.Attendees[i].User.ID == userID {
			return &e.Attendees[i]
		}
	}
	return nil
}

// EventPatch holds a partial update of event details. Nil fields are
// omitted (left untouched); non-nil fields are set, which distinguishes
// "field omitted" from "field cleared".
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Time        *string
	Location    *string
}

// EventRole narrows a search to one side of the membership relation.
type EventRole string

const (
	SearchRoleOrganizer EventRole = "organizer"
	SearchRoleAttendee  EventRole = "attendee"
)

// SearchFilter describes the optional filters of SearchEvents. Zero values
// mean "no filter"; all set filters AND together over the member scope.
type SearchFilter struct {
	Keyword   string
	StartDate *time.Time
	EndDate   *time.Time
	Role      EventRole
}

// EventRepository defines storage for event rows. Attendee rows live behind
// AttendeeRepository; repositories returning *Event resolve the organizer
// reference but leave Attendees empty for the service layer to populate.
type EventRepository interface {
	// Create persists the event and its organizer attendee record
	// (role organizer, status Going) in one transaction.
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	// ListByOrganizer returns events organized by userID, date ascending.
	ListByOrganizer(ctx context.Context, userID string) ([]*Event, error)
	// ListByMember returns events where userID appears in the attendee
	// list (any role), date ascending.
	ListByMember(ctx context.Context, userID string) ([]*Event, error)
	// ListInvited returns events where userID is a member but not the
	// organizer, date ascending.
	ListInvited(ctx context.Context, userID string) ([]*Event, error)
	// Search returns the member-scoped events matching filter, date
	// ascending, with the total count before pagination.
	Search(ctx context.Context, userID string, filter SearchFilter, params PaginationParams) ([]*Event, int, error)
	// UpdateDetails applies the non-nil fields of patch and returns the
	// updated event.
	UpdateDetails(ctx context.Context, eventID string, patch EventPatch) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// AttendeeRepository defines storage for the attendee records embedded in
// an event. Insertion order is preserved and observable.
type AttendeeRepository interface {
	// AddIfAbsent appends a Pending attendee record for each user id not
	// already present, atomically (add-if-absent, no read-then-push race),
	// and returns the ids that were newly added.
	AddIfAbsent(ctx context.Context, eventID string, userIDs []string) (added []string, err error)
	// GetByEventAndUser returns the record for userID, or ErrNotFound if
	// the user is not a member of the event.
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Attendee, error)
	// UpdateStatus overwrites the status of userID's record.
	UpdateStatus(ctx context.Context, eventID, userID string, status AttendanceStatus) error
	// ListByEventID returns the attendee list in invitation order with
	// user references resolved.
	ListByEventID(ctx context.Context, eventID string) ([]Attendee, error)
}

// InviteResult reports which emails were newly invited. Emails that did not
// resolve to users, or that were already invited, are omitted.
type InviteResult struct {
	Invited []string `json:"invited"`
}

// EventAttendees is the organizer-only attendee enumeration.
type EventAttendees struct {
	Title     string     `json:"title"`
	Attendees []Attendee `json:"attendees"`
}

// EventService defines the business logic for event lifecycle, attendance,
// and the scoped listing/search operations.
type EventService interface {
	CreateEvent(ctx context.Context, callerID, title, description string, date time.Time, timeOfDay, location string) (*Event, error)
	UpdateEventDetails(ctx context.Context, eventID, callerID string, patch EventPatch) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, callerID string) error

	InviteToEvent(ctx context.Context, eventID, callerID string, emails []string) (*InviteResult, error)
	UpdateAttendanceStatus(ctx context.Context, eventID, callerID string, status AttendanceStatus) (*Event, error)
	GetEventAttendees(ctx context.Context, eventID, callerID string) (*EventAttendees, error)

	GetMyOrganizedEvents(ctx context.Context, userID string) ([]*Event, error)
	GetMyInvitedEvents(ctx context.Context, userID string) ([]*Event, error)
	GetAllMyEvents(ctx context.Context, userID string) ([]*Event, error)
	GetEventByID(ctx context.Context, eventID, userID string) (*Event, error)
	SearchEvents(ctx context.Context, userID string, filter SearchFilter, params PaginationParams) ([]*Event, int, error)
}
