package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gatherly/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{DB: db}
}

// eventColumns is the select list shared by every event query; the join on
// users resolves the organizer reference to display identity.
const eventColumns = `
	e.id, e.title, e.description, e.date, e.time, e.location,
	e.organizer_id, u.name, u.email, e.created_at, e.updated_at
`

const eventFrom = `
	FROM events e
	JOIN users u ON u.id = e.organizer_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.Organizer.ID, &e.Organizer.Name, &e.Organizer.Email, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertEvent := `
		INSERT INTO events (id, title, description, date, time, location, organizer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := tx.ExecContext(ctx, insertEvent,
		e.ID, e.Title, e.Description, e.Date, e.Time, e.Location, e.Organizer.ID, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return err
	}

	// The organizer's attendee record is created atomically with the event.
	insertOrganizer := `
		INSERT INTO event_attendees (event_id, user_id, status, role)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, insertOrganizer,
		e.ID, e.Organizer.ID, domain.StatusGoing, domain.RoleOrganizer,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + `WHERE e.id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + `
		WHERE e.organizer_id = $1
		ORDER BY e.date ASC, e.created_at ASC
	`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) ListByMember(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + `
		JOIN event_attendees a ON a.event_id = e.id
		WHERE a.user_id = $1
		ORDER BY e.date ASC, e.created_at ASC
	`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) ListInvited(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + `
		JOIN event_attendees a ON a.event_id = e.id
		WHERE a.user_id = $1 AND e.organizer_id <> $1
		ORDER BY e.date ASC, e.created_at ASC
	`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) Search(ctx context.Context, userID string, filter domain.SearchFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	where := []string{"a.user_id = $1"}
	args := []any{userID}
	n := 2
	if filter.Keyword != "" {
		where = append(where, fmt.Sprintf("(e.title ILIKE $%d OR e.description ILIKE $%d)", n, n))
		args = append(args, "%"+filter.Keyword+"%")
		n++
	}
	if filter.StartDate != nil {
		where = append(where, fmt.Sprintf("e.date >= $%d", n))
		args = append(args, *filter.StartDate)
		n++
	}
	if filter.EndDate != nil {
		where = append(where, fmt.Sprintf("e.date <= $%d", n))
		args = append(args, *filter.EndDate)
		n++
	}
	switch filter.Role {
	case domain.SearchRoleOrganizer:
		where = append(where, "e.organizer_id = $1")
	case domain.SearchRoleAttendee:
		where = append(where, "e.organizer_id <> $1")
	}
	whereClause := strings.Join(where, " AND ")

	countQuery := `SELECT COUNT(*)` + eventFrom + `
		JOIN event_attendees a ON a.event_id = e.id
		WHERE ` + whereClause
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT` + eventColumns + eventFrom + `
		JOIN event_attendees a ON a.event_id = e.id
		WHERE ` + whereClause + fmt.Sprintf(`
		ORDER BY e.date ASC, e.created_at ASC
		LIMIT $%d OFFSET $%d`, n, n+1)
	args = append(args, params.PageSize, params.Offset())
	events, err := r.queryEvents(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *eventRepository) UpdateDetails(ctx context.Context, eventID string, patch domain.EventPatch) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	n := 1
	if patch.Title != nil {
		setClauses = append(setClauses, fmt.Sprintf("title = $%d", n))
		args = append(args, *patch.Title)
		n++
	}
	if patch.Description != nil {
		setClauses = append(setClauses, fmt.Sprintf("description = $%d", n))
		args = append(args, *patch.Description)
		n++
	}
	if patch.Date != nil {
		setClauses = append(setClauses, fmt.Sprintf("date = $%d", n))
		args = append(args, *patch.Date)
		n++
	}
	if patch.Time != nil {
		setClauses = append(setClauses, fmt.Sprintf("time = $%d", n))
		args = append(args, *patch.Time)
		n++
	}
	if patch.Location != nil {
		setClauses = append(setClauses, fmt.Sprintf("location = $%d", n))
		args = append(args, *patch.Location)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, eventID)
	}
	args = append(args, eventID)
	query := fmt.Sprintf(`UPDATE events SET %s WHERE id = $%d`, strings.Join(setClauses, ", "), n)
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, eventID)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
