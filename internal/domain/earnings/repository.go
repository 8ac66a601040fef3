package earnings

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Upsert records the earning for a booking. Only a pending row is ever
// updated: available and reversed rows are settled.
func (r *Repository) Upsert(ctx context.Context, e *Earning) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO host_earnings (id, host_id, booking_id, gross_amount, platform_fee, net_amount, status, created_at, updated_at)
		VALUES (:id, :host_id, :booking_id, :gross_amount, :platform_fee, :net_amount, :status, :created_at, :updated_at)
		ON CONFLICT (booking_id) DO UPDATE SET
			status = EXCLUDED.status,
			gross_amount = EXCLUDED.gross_amount,
			platform_fee = EXCLUDED.platform_fee,
			net_amount = EXCLUDED.net_amount,
			updated_at = EXCLUDED.updated_at
		WHERE host_earnings.status = 'pending'
	`, e)
	return err
}

func (r *Repository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]Earning, error) {
	var out []Earning
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, host_id, booking_id, gross_amount, platform_fee, net_amount, status, created_at, updated_at
		FROM host_earnings
		WHERE host_id = $1
		ORDER BY created_at DESC
	`, hostID)
	return out, err
}

func (r *Repository) Summary(ctx context.Context, hostID uuid.UUID) (*Summary, error) {
	var s Summary
	err := r.db.GetContext(ctx, &s, `
		SELECT
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'pending'), 0) AS pending,
			COALESCE(SUM(net_amount) FILTER (WHERE status = 'available'), 0) AS available
		FROM host_earnings
		WHERE host_id = $1
	`, hostID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
