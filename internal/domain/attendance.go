package domain

import "errors"

// ErrOrganizerStatusLocked is returned when the organizer tries to change
// their own attendance status; it is fixed at Going for the event's lifetime.
var ErrOrganizerStatusLocked = errors.New("organizers cannot change their attendance status")

// AttendanceStatus is an attendee's RSVP state.
type AttendanceStatus string

const (
	StatusGoing    AttendanceStatus = "Going"
	StatusMaybe    AttendanceStatus = "Maybe"
	StatusNotGoing AttendanceStatus = "Not Going"
	StatusPending  AttendanceStatus = "Pending"
)

// ParseAttendanceStatus parses s into an AttendanceStatus.
// Unknown strings return ErrInvalidInput.
func ParseAttendanceStatus(s string) (AttendanceStatus, error) {
	switch AttendanceStatus(s) {
	case StatusGoing, StatusMaybe, StatusNotGoing, StatusPending:
		return AttendanceStatus(s), nil
	}
	return "", ErrInvalidInput
}

// ValidTransitionTarget reports whether st may be set through an explicit
// RSVP update. Pending is a system-assigned initial value only; it is never
// a transition target. Going, Maybe, and Not Going are freely interchangeable.
func (st AttendanceStatus) ValidTransitionTarget() bool {
	switch st {
	case StatusGoing, StatusMaybe, StatusNotGoing:
		return true
	}
	return false
}

// AttendeeRole distinguishes the single organizer record from invited attendees.
type AttendeeRole string

const (
	RoleOrganizer AttendeeRole = "organizer"
	RoleAttendee  AttendeeRole = "attendee"
)

// Attendee is one record in an event's attendee list, with the user
// reference resolved to display identity. List order is invitation order.
// swagger:model Attendee
type Attendee struct {
	User   UserRef          `json:"user"`
	Status AttendanceStatus `json:"status"`
	Role   AttendeeRole     `json:"role"`
}
