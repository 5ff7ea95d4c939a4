package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"gatherly/internal/domain"
)

type attendeeRepository struct {
	DB *sql.DB
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{DB: db}
}

// AddIfAbsent inserts a Pending attendee row per user id, skipping ids that
// already have a row for the event. ON CONFLICT DO NOTHING makes the
// check-and-append atomic against concurrent invites.
func (r *attendeeRepository) AddIfAbsent(ctx context.Context, eventID string, userIDs []string) ([]string, error) {
	query := `
		INSERT INTO event_attendees (event_id, user_id, status, role)
		SELECT $1, uid, $3, $4 FROM unnest($2::uuid[]) AS uid
		ON CONFLICT (event_id, user_id) DO NOTHING
		RETURNING user_id
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, pq.Array(userIDs), domain.StatusPending, domain.RoleAttendee)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	added := make([]string, 0, len(userIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		added = append(added, id)
	}
	return added, rows.Err()
}

func (r *attendeeRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Attendee, error) {
	query := `
		SELECT a.user_id, u.name, u.email, a.status, a.role
		FROM event_attendees a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1 AND a.user_id = $2
	`
	a := &domain.Attendee{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(
		&a.User.ID, &a.User.Name, &a.User.Email, &a.Status, &a.Role,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (r *attendeeRepository) UpdateStatus(ctx context.Context, eventID, userID string, status domain.AttendanceStatus) error {
	query := `
		UPDATE event_attendees
		SET status = $1
		WHERE event_id = $2 AND user_id = $3
	`
	result, err := r.DB.ExecContext(ctx, query, status, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *attendeeRepository) ListByEventID(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	// ORDER BY a.id preserves invitation order.
	query := `
		SELECT a.user_id, u.name, u.email, a.status, a.role
		FROM event_attendees a
		JOIN users u ON u.id = a.user_id
		WHERE a.event_id = $1
		ORDER BY a.id ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attendees := make([]domain.Attendee, 0)
	for rows.Next() {
		var a domain.Attendee
		if err := rows.Scan(&a.User.ID, &a.User.Name, &a.User.Email, &a.Status, &a.Role); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}
