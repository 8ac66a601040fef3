package booking

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// Repository defines booking data access interface
type Repository interface {
	// Create stores b after verifying, under the room's lock, that none of its
	// days is blocked or held by another active booking.
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	// Update locks the booking, applies fn and persists the result. Days of a
	// booking that stops being active are released in the same transaction.
	Update(ctx context.Context, id uuid.UUID, fn func(b *Booking) error) (*Booking, error)
	FindByRoomAndStatus(ctx context.Context, roomID uuid.UUID, statuses ...Status) ([]*Booking, error)
	ListActiveByRoom(ctx context.Context, roomID uuid.UUID, window calendar.DateRange) ([]*Booking, error)
	ListByGuest(ctx context.Context, guestID uuid.UUID) ([]*Booking, error)
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]*Booking, error)
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

const bookingColumns = `
	id, room_id, guest_id, host_id, room_type, check_in, check_out, check_in_time, check_out_time,
	guest_count, booking_status, payment_status, payment_method,
	units, unit_price, subtotal, service_fee_rate, service_fee, total_price,
	is_cancellable, cancellation_deadline,
	cancelled_at, cancelled_by, cancellation_reason, refund_amount, refund_percentage,
	confirmed_at, paid_at, completed_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

// NewRepository creates new booking repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *repository) Create(ctx context.Context, b *Booking) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Writers for the same room queue up here.
	var locked uuid.UUID
	err = tx.GetContext(ctx, &locked, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, b.RoomID)
	if errors.Is(err, sql.ErrNoRows) {
		return room.ErrRoomNotFound
	}
	if err != nil {
		return err
	}

	taken, err := takenDays(ctx, tx, b.RoomID, b.Stay())
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return &ConflictError{Days: taken}
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (
			:id, :room_id, :guest_id, :host_id, :room_type, :check_in, :check_out, :check_in_time, :check_out_time,
			:guest_count, :booking_status, :payment_status, :payment_method,
			:units, :unit_price, :subtotal, :service_fee_rate, :service_fee, :total_price,
			:is_cancellable, :cancellation_deadline,
			:cancelled_at, :cancelled_by, :cancellation_reason, :refund_amount, :refund_percentage,
			:confirmed_at, :paid_at, :completed_at, :created_at, :updated_at
		)
	`
	if _, err := tx.NamedExecContext(ctx, query, b); err != nil {
		return err
	}

	// One row per occupied day; (room_id, day) is the primary key.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO booking_days (room_id, day, booking_id)
		SELECT $1, d::date, $2
		FROM generate_series($3::date, $4::date, interval '1 day') AS d
	`, b.RoomID, b.ID, b.CheckIn.String(), b.CheckOut.String())
	if isUniqueViolation(err) {
		tx.Rollback()
		return r.conflictFromCommitted(ctx, b)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// conflictFromCommitted reports which days were taken after the
// uniqueness constraint rejected an insert.
func (r *repository) conflictFromCommitted(ctx context.Context, b *Booking) error {
	taken, err := takenDays(ctx, r.db, b.RoomID, b.Stay())
	if err != nil {
		return err
	}
	if len(taken) == 0 {
		taken, _ = calendar.EnumerateDays(b.Stay())
	}
	return &ConflictError{Days: taken}
}

// takenDays returns the days of stay that are blocked or already booked.
func takenDays(ctx context.Context, q sqlx.QueryerContext, roomID uuid.UUID, stay calendar.DateRange) ([]calendar.Day, error) {
	var days []calendar.Day
	err := sqlx.SelectContext(ctx, q, &days, `
		SELECT day FROM room_blocked_days WHERE room_id = $1 AND day BETWEEN $2::date AND $3::date
		UNION
		SELECT day FROM booking_days WHERE room_id = $1 AND day BETWEEN $2::date AND $3::date
		ORDER BY day
	`, roomID, stay.CheckIn.String(), stay.CheckOut.String())
	return days, err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, fn func(b *Booking) error) (*Booking, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var b Booking
	err = tx.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	wasActive := b.IsActive()
	if err := fn(&b); err != nil {
		return nil, err
	}
	b.UpdatedAt = time.Now()

	query := `
		UPDATE bookings SET
			booking_status = :booking_status,
			payment_status = :payment_status,
			is_cancellable = :is_cancellable,
			cancellation_deadline = :cancellation_deadline,
			cancelled_at = :cancelled_at,
			cancelled_by = :cancelled_by,
			cancellation_reason = :cancellation_reason,
			refund_amount = :refund_amount,
			refund_percentage = :refund_percentage,
			confirmed_at = :confirmed_at,
			paid_at = :paid_at,
			completed_at = :completed_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	if _, err := tx.NamedExecContext(ctx, query, &b); err != nil {
		return nil, err
	}

	if wasActive && !b.IsActive() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_days WHERE booking_id = $1`, b.ID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) FindByRoomAndStatus(ctx context.Context, roomID uuid.UUID, statuses ...Status) ([]*Booking, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	var bookings []*Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = $1 AND (cardinality($2::text[]) = 0 OR booking_status = ANY($2::text[]))
		ORDER BY check_in
	`, roomID, pq.Array(names))
	return bookings, err
}

func (r *repository) ListActiveByRoom(ctx context.Context, roomID uuid.UUID, window calendar.DateRange) ([]*Booking, error) {
	var bookings []*Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = $1
		  AND booking_status NOT IN ('cancelled', 'rejected')
		  AND check_in <= $3::date AND check_out >= $2::date
		ORDER BY check_in
	`, roomID, window.CheckIn.String(), window.CheckOut.String())
	return bookings, err
}

func (r *repository) ListByGuest(ctx context.Context, guestID uuid.UUID) ([]*Booking, error) {
	var bookings []*Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+` FROM bookings WHERE guest_id = $1 ORDER BY check_in DESC
	`, guestID)
	return bookings, err
}

func (r *repository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]*Booking, error) {
	var bookings []*Booking
	err := r.db.SelectContext(ctx, &bookings, `
		SELECT `+bookingColumns+` FROM bookings WHERE host_id = $1 ORDER BY check_in DESC
	`, hostID)
	return bookings, err
}

// DeleteInactiveBefore removes cancelled and rejected bookings last touched before cutoff.
func (r *repository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM bookings
		WHERE booking_status IN ('cancelled', 'rejected') AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
