package earnings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/domain/booking"
)

type Store interface {
	Upsert(ctx context.Context, e *Earning) error
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]Earning, error)
	Summary(ctx context.Context, hostID uuid.UUID) (*Summary, error)
}

type Service struct {
	repo Store
}

func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// RecordPaymentReceived books the host's share as pending until the stay is completed.
func (s *Service) RecordPaymentReceived(ctx context.Context, b *booking.Booking) error {
	return s.record(ctx, b, StatusPending)
}

// RecordCompleted releases the host's share for payout.
func (s *Service) RecordCompleted(ctx context.Context, b *booking.Booking) error {
	return s.record(ctx, b, StatusAvailable)
}

// RecordCancelled settles the earning of a cancelled or rejected booking that
// was already paid. The host keeps the part of the payment the guest was not
// refunded, split between net and fee in the booking's proportions. A full
// refund reverses the entry.
func (s *Service) RecordCancelled(ctx context.Context, b *booking.Booking) error {
	if !b.PaidAt.Valid {
		return nil
	}

	refund := decimal.Zero
	if b.RefundAmount.Valid {
		refund = b.RefundAmount.Decimal
	}
	if !b.TotalPrice.IsPositive() || !refund.LessThan(b.TotalPrice) {
		return s.save(ctx, b, StatusReversed, b.TotalPrice, b.ServiceFee, b.Subtotal)
	}

	gross := b.TotalPrice.Sub(refund)
	net := b.Subtotal.Mul(gross).Div(b.TotalPrice).Round(2)
	return s.save(ctx, b, StatusAvailable, gross, gross.Sub(net), net)
}

func (s *Service) record(ctx context.Context, b *booking.Booking, status Status) error {
	return s.save(ctx, b, status, b.TotalPrice, b.ServiceFee, b.Subtotal)
}

func (s *Service) save(ctx context.Context, b *booking.Booking, status Status, gross, fee, net decimal.Decimal) error {
	now := time.Now()
	e := &Earning{
		ID:          uuid.New(),
		HostID:      b.HostID,
		BookingID:   b.ID,
		Gross:       gross,
		PlatformFee: fee,
		Net:         net,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Upsert(ctx, e); err != nil {
		return err
	}
	log.Info().Str("host_id", b.HostID.String()).Str("booking_id", b.ID.String()).Str("net", e.Net.String()).Str("status", string(status)).Msg("host earning recorded")
	return nil
}

func (s *Service) ListForHost(ctx context.Context, hostID uuid.UUID) ([]Earning, error) {
	return s.repo.ListByHost(ctx, hostID)
}

func (s *Service) Summary(ctx context.Context, hostID uuid.UUID) (*Summary, error) {
	return s.repo.Summary(ctx, hostID)
}
