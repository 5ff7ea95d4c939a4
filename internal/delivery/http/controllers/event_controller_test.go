package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gatherly/internal/delivery/http/helpers"
	"gatherly/internal/delivery/http/middleware"
	"gatherly/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err          error
	event        *domain.Event
	events       []*domain.Event
	total        int
	inviteResult *domain.InviteResult
	attendees    *domain.EventAttendees

	lastEventID  string
	lastCallerID string
	lastEmails   []string
	lastStatus   domain.AttendanceStatus
	lastPatch    domain.EventPatch
	lastFilter   domain.SearchFilter
	lastParams   domain.PaginationParams
}

func (f *fakeEventService) CreateEvent(ctx context.Context, callerID, title, description string, date time.Time, timeOfDay, location string) (*domain.Event, error) {
	f.lastCallerID = callerID
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) UpdateEventDetails(ctx context.Context, eventID, callerID string, patch domain.EventPatch) (*domain.Event, error) {
	f.lastEventID, f.lastCallerID, f.lastPatch = eventID, callerID, patch
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, eventID, callerID string) error {
	f.lastEventID, f.lastCallerID = eventID, callerID
	return f.err
}

func (f *fakeEventService) InviteToEvent(ctx context.Context, eventID, callerID string, emails []string) (*domain.InviteResult, error) {
	f.lastEventID, f.lastCallerID, f.lastEmails = eventID, callerID, emails
	if f.err != nil {
		return nil, f.err
	}
	return f.inviteResult, nil
}

func (f *fakeEventService) UpdateAttendanceStatus(ctx context.Context, eventID, callerID string, status domain.AttendanceStatus) (*domain.Event, error) {
	f.lastEventID, f.lastCallerID, f.lastStatus = eventID, callerID, status
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) GetEventAttendees(ctx context.Context, eventID, callerID string) (*domain.EventAttendees, error) {
	f.lastEventID, f.lastCallerID = eventID, callerID
	if f.err != nil {
		return nil, f.err
	}
	return f.attendees, nil
}

func (f *fakeEventService) GetMyOrganizedEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	f.lastCallerID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeEventService) GetMyInvitedEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	f.lastCallerID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeEventService) GetAllMyEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	f.lastCallerID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeEventService) GetEventByID(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	f.lastEventID, f.lastCallerID = eventID, userID
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) SearchEvents(ctx context.Context, userID string, filter domain.SearchFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastCallerID, f.lastFilter, f.lastParams = userID, filter, params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.events, f.total, nil
}

func sampleEvent() *domain.Event {
	return &domain.Event{
		ID:        "ev-1",
		Title:     "Offsite",
		Date:      time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		Time:      "10:00",
		Location:  "Lisbon",
		Organizer: domain.UserRef{ID: "user-123", Name: "Olivia", Email: "olivia@example.com"},
		Attendees: []domain.Attendee{{
			User:   domain.UserRef{ID: "user-123", Name: "Olivia", Email: "olivia@example.com"},
			Status: domain.StatusGoing,
			Role:   domain.RoleOrganizer,
		}},
	}
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be valid JSON envelope")
	return envelope
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		fakeErr        error
		noUserContext  bool
		wantStatus     int
		wantBodySubstr string
	}{
		{
			name:       "success",
			body:       `{"title":"Offsite","description":"Planning","date":"2026-10-01","time":"10:00","location":"Lisbon"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:           "no user in context",
			body:           `{"title":"Offsite","description":"d","date":"2026-10-01","time":"10:00","location":"Lisbon"}`,
			noUserContext:  true,
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "unauthorized",
		},
		{
			name:           "invalid json",
			body:           `{invalid`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "invalid",
		},
		{
			name:           "missing title",
			body:           `{"description":"d","date":"2026-10-01","time":"10:00","location":"Lisbon"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "title is required",
		},
		{
			name:           "bad date format",
			body:           `{"title":"t","description":"d","date":"01/10/2026","time":"10:00","location":"Lisbon"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "YYYY-MM-DD",
		},
		{
			name:           "unknown field rejected",
			body:           `{"title":"t","description":"d","date":"2026-10-01","time":"10:00","location":"Lisbon","organizer":"me"}`,
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "unknown field",
		},
		{
			name:           "service error",
			body:           `{"title":"t","description":"d","date":"2026-10-01","time":"10:00","location":"Lisbon"}`,
			fakeErr:        errors.New("db error"),
			wantStatus:     http.StatusInternalServerError,
			wantBodySubstr: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr, event: sampleEvent()}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/api/events", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			}
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusCreated {
				require.Nil(t, envelope.Error)
				assert.Equal(t, "user-123", fake.lastCallerID)
			} else if tt.wantBodySubstr != "" {
				require.NotNil(t, envelope.Error)
				assert.Contains(t, envelope.Error.Message, tt.wantBodySubstr)
			}
		})
	}
}

func TestEventController_InviteToEvent(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		fakeErr      error
		wantStatus   int
		wantErrCode  string
		wantInvited  []string
	}{
		{
			name:        "success reports newly invited emails",
			body:        `{"emails":["ben@example.com","ghost@example.com"]}`,
			wantStatus:  http.StatusOK,
			wantInvited: []string{"ben@example.com"},
		},
		{
			name:        "empty emails",
			body:        `{"emails":[]}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "no users found",
			body:        `{"emails":["ghost@example.com"]}`,
			fakeErr:     domain.ErrNoUsersFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
		{
			name:        "not organizer",
			body:        `{"emails":["ben@example.com"]}`,
			fakeErr:     domain.ErrForbidden,
			wantStatus:  http.StatusForbidden,
			wantErrCode: helpers.ErrCodeForbidden,
		},
		{
			name:        "event missing",
			body:        `{"emails":["ben@example.com"]}`,
			fakeErr:     domain.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{
				err:          tt.fakeErr,
				inviteResult: &domain.InviteResult{Invited: []string{"ben@example.com"}},
			}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/api/events/ev-1/invite", bytes.NewBufferString(tt.body))
			req.SetPathValue("eventID", "ev-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			rr := httptest.NewRecorder()

			ctrl.InviteToEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				var result domain.InviteResult
				data, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				require.NoError(t, json.Unmarshal(data, &result))
				assert.Equal(t, tt.wantInvited, result.Invited)
				assert.Equal(t, "ev-1", fake.lastEventID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			}
		})
	}
}

func TestEventController_UpdateAttendanceStatus(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		fakeErr     error
		wantStatus  int
		wantErrCode string
	}{
		{
			name:       "success",
			body:       `{"status":"Maybe"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:        "unknown status string",
			body:        `{"status":"Perhaps"}`,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "Pending is rejected by the service",
			body:        `{"status":"Pending"}`,
			fakeErr:     domain.ErrInvalidInput,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeBadRequest,
		},
		{
			name:        "organizer status locked",
			body:        `{"status":"Not Going"}`,
			fakeErr:     domain.ErrOrganizerStatusLocked,
			wantStatus:  http.StatusBadRequest,
			wantErrCode: helpers.ErrCodeInvalidTransition,
		},
		{
			name:        "not a member",
			body:        `{"status":"Going"}`,
			fakeErr:     domain.ErrForbidden,
			wantStatus:  http.StatusForbidden,
			wantErrCode: helpers.ErrCodeForbidden,
		},
		{
			name:        "event missing",
			body:        `{"status":"Going"}`,
			fakeErr:     domain.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantErrCode: helpers.ErrCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr, event: sampleEvent()}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPatch, "/api/events/ev-1/status", bytes.NewBufferString(tt.body))
			req.SetPathValue("eventID", "ev-1")
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-456"))
			rr := httptest.NewRecorder()

			ctrl.UpdateAttendanceStatus(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			envelope := decodeEnvelope(t, rr)
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				assert.Equal(t, domain.StatusMaybe, fake.lastStatus)
				assert.Equal(t, "user-456", fake.lastCallerID)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantErrCode, envelope.Error.Code)
			}
		})
	}
}

func TestEventController_UpdateEventDetails(t *testing.T) {
	t.Run("passes only provided fields in the patch", func(t *testing.T) {
		fake := &fakeEventService{event: sampleEvent()}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodPatch, "/api/events/ev-1",
			bytes.NewBufferString(`{"title":"New Title","date":"2026-12-01"}`))
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.UpdateEventDetails(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, fake.lastPatch.Title)
		assert.Equal(t, "New Title", *fake.lastPatch.Title)
		require.NotNil(t, fake.lastPatch.Date)
		assert.Equal(t, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC), *fake.lastPatch.Date)
		assert.Nil(t, fake.lastPatch.Description)
		assert.Nil(t, fake.lastPatch.Location)
	})

	t.Run("empty patch is rejected", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{})
		req := httptest.NewRequest(http.MethodPatch, "/api/events/ev-1", bytes.NewBufferString(`{}`))
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.UpdateEventDetails(rr, req)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("forbidden for non-organizer", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{err: domain.ErrForbidden})
		req := httptest.NewRequest(http.MethodPatch, "/api/events/ev-1", bytes.NewBufferString(`{"title":"x"}`))
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-456"))
		rr := httptest.NewRecorder()

		ctrl.UpdateEventDetails(rr, req)

		require.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestEventController_ListEndpoints(t *testing.T) {
	events := []*domain.Event{sampleEvent()}
	fake := &fakeEventService{events: events}
	ctrl := NewEventController(testLogger, fake)

	endpoints := []struct {
		name    string
		handler http.HandlerFunc
		path    string
	}{
		{"all", ctrl.GetAllMyEvents, "/api/events/all"},
		{"organized", ctrl.GetMyOrganizedEvents, "/api/events/organized"},
		{"invited", ctrl.GetMyInvitedEvents, "/api/events/invited"},
	}

	for _, ep := range endpoints {
		t.Run(ep.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, ep.path, nil)
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			rr := httptest.NewRecorder()

			ep.handler(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			envelope := decodeEnvelope(t, rr)
			require.Nil(t, envelope.Error)
			var resp EventListResponse
			data, err := json.Marshal(envelope.Data)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(data, &resp))
			assert.Equal(t, 1, resp.Count)
			require.Len(t, resp.Events, 1)
			assert.Equal(t, "ev-1", resp.Events[0].ID)
		})
	}
}

func TestEventController_SearchEvents(t *testing.T) {
	t.Run("parses filters and pagination", func(t *testing.T) {
		fake := &fakeEventService{events: []*domain.Event{sampleEvent()}, total: 7}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet,
			"/api/events/search?keyword=offsite&startDate=2026-10-01&endDate=2026-10-31&role=organizer&page=2&page_size=3", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.SearchEvents(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "offsite", fake.lastFilter.Keyword)
		require.NotNil(t, fake.lastFilter.StartDate)
		assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), *fake.lastFilter.StartDate)
		require.NotNil(t, fake.lastFilter.EndDate)
		assert.Equal(t, domain.SearchRoleOrganizer, fake.lastFilter.Role)
		assert.Equal(t, 2, fake.lastParams.Page)
		assert.Equal(t, 3, fake.lastParams.PageSize)

		envelope := decodeEnvelope(t, rr)
		var resp SearchEventsResponse
		data, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &resp))
		assert.Equal(t, 1, resp.Count)
		assert.Equal(t, 7, resp.Pagination.Total)
		assert.Equal(t, 3, resp.Pagination.TotalPages)
	})

	t.Run("invalid date", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{})
		req := httptest.NewRequest(http.MethodGet, "/api/events/search?startDate=10-01-2026", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.SearchEvents(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{})
		req := httptest.NewRequest(http.MethodGet, "/api/events/search?role=owner", nil)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.SearchEvents(rr, req)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEventController_GetEventAttendees(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeEventService{attendees: &domain.EventAttendees{
			Title: "Offsite",
			Attendees: []domain.Attendee{
				{User: domain.UserRef{ID: "user-123"}, Status: domain.StatusGoing, Role: domain.RoleOrganizer},
				{User: domain.UserRef{ID: "user-456"}, Status: domain.StatusPending, Role: domain.RoleAttendee},
			},
		}}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1/attendees", nil)
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.GetEventAttendees(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		envelope := decodeEnvelope(t, rr)
		var resp domain.EventAttendees
		data, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &resp))
		assert.Equal(t, "Offsite", resp.Title)
		assert.Len(t, resp.Attendees, 2)
	})

	t.Run("forbidden for non-organizer", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{err: domain.ErrForbidden})
		req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1/attendees", nil)
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-456"))
		rr := httptest.NewRecorder()

		ctrl.GetEventAttendees(rr, req)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestEventController_GetEventByID(t *testing.T) {
	t.Run("member sees the event", func(t *testing.T) {
		fake := &fakeEventService{event: sampleEvent()}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1", nil)
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.GetEventByID(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ev-1", fake.lastEventID)
	})

	t.Run("non-member gets 403", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{err: domain.ErrForbidden})
		req := httptest.NewRequest(http.MethodGet, "/api/events/ev-1", nil)
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-outsider"))
		rr := httptest.NewRecorder()

		ctrl.GetEventByID(rr, req)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestEventController_DeleteEvent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fake := &fakeEventService{}
		ctrl := NewEventController(testLogger, fake)
		req := httptest.NewRequest(http.MethodDelete, "/api/events/ev-1", nil)
		req.SetPathValue("eventID", "ev-1")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.DeleteEvent(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ev-1", fake.lastEventID)
		assert.Equal(t, "user-123", fake.lastCallerID)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := NewEventController(testLogger, &fakeEventService{err: domain.ErrNotFound})
		req := httptest.NewRequest(http.MethodDelete, "/api/events/missing", nil)
		req.SetPathValue("eventID", "missing")
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
		rr := httptest.NewRecorder()

		ctrl.DeleteEvent(rr, req)
		require.Equal(t, http.StatusNotFound, rr.Code)
	})
}
