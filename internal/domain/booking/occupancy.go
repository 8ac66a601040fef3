package booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/spacehub/spacehub-api/internal/domain/availability"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// OccupancySource exposes active bookings to the availability checker.
type OccupancySource struct {
	repo Repository
}

func NewOccupancySource(repo Repository) *OccupancySource {
	return &OccupancySource{repo: repo}
}

func (o *OccupancySource) ListOccupancy(ctx context.Context, roomID uuid.UUID, window calendar.DateRange) ([]availability.Occupancy, error) {
	bookings, err := o.repo.ListActiveByRoom(ctx, roomID, window)
	if err != nil {
		return nil, err
	}

	out := make([]availability.Occupancy, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Occupancy())
	}
	return out, nil
}
