package room

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Repository defines room data access interface
type Repository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*Room, error)
	AddBlockedDays(ctx context.Context, roomID uuid.UUID, days []calendar.Day) error
	RemoveBlockedDays(ctx context.Context, roomID uuid.UUID, days []calendar.Day) error
	UpdateWindow(ctx context.Context, roomID uuid.UUID, start, end *calendar.Day, alwaysAvailable bool) error
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new room repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, room *Room) error {
	query := `
		INSERT INTO rooms (id, host_id, title, type, base_price, start_date, end_date, is_always_available, is_active, created_at, updated_at)
		VALUES (:id, :host_id, :title, :type, :base_price, :start_date, :end_date, :is_always_available, :is_active, :created_at, :updated_at)
	`
	_, err := r.db.NamedExecContext(ctx, query, room)
	return err
}

// GetByID loads the room together with all of its host blocks.
func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	query := `
		SELECT id, host_id, title, type, base_price, start_date, end_date,
		       is_always_available, is_active, created_at, updated_at
		FROM rooms WHERE id = $1
	`
	var room Room
	err := r.db.GetContext(ctx, &room, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}

	var blocked []calendar.Day
	err = r.db.SelectContext(ctx, &blocked, `SELECT day FROM room_blocked_days WHERE room_id = $1 ORDER BY day`, id)
	if err != nil {
		return nil, err
	}
	room.BlockedDays = blocked
	return &room, nil
}

func (r *repository) AddBlockedDays(ctx context.Context, roomID uuid.UUID, days []calendar.Day) error {
	query := `
		INSERT INTO room_blocked_days (room_id, day)
		SELECT $1, d FROM unnest($2::date[]) AS d
		ON CONFLICT (room_id, day) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, roomID, pq.Array(dayStrings(days)))
	return mapWriteError(err)
}

func (r *repository) RemoveBlockedDays(ctx context.Context, roomID uuid.UUID, days []calendar.Day) error {
	query := `DELETE FROM room_blocked_days WHERE room_id = $1 AND day = ANY($2::date[])`
	_, err := r.db.ExecContext(ctx, query, roomID, pq.Array(dayStrings(days)))
	return err
}

func (r *repository) UpdateWindow(ctx context.Context, roomID uuid.UUID, start, end *calendar.Day, alwaysAvailable bool) error {
	query := `
		UPDATE rooms
		SET start_date = $2, end_date = $3, is_always_available = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, roomID, start, end, alwaysAvailable)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func dayStrings(days []calendar.Day) []string {
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.String()
	}
	return out
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		// room_blocked_days.room_id foreign key
		return ErrRoomNotFound
	}
	return err
}
