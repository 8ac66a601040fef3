package room

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
)

// ChangeNotifier is told whenever a room's availability inputs change.
type ChangeNotifier interface {
	RoomChanged(ctx context.Context, roomID uuid.UUID)
}

// Service handles room business logic
type Service struct {
	repo     Repository
	notifier ChangeNotifier
}

// NewService creates room service. notifier may be nil.
func NewService(repo Repository, notifier ChangeNotifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Create lists a new room for the host
func (s *Service) Create(ctx context.Context, hostID uuid.UUID, req *CreateRoomRequest) (*Room, error) {
	roomType := Type(req.Type)
	if !roomType.IsValid() {
		return nil, ErrInvalidType
	}

	price, err := decimal.NewFromString(req.BasePrice)
	if err != nil || !price.IsPositive() {
		return nil, ErrInvalidPrice
	}

	start, end, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := &Room{
		ID:                uuid.New(),
		HostID:            hostID,
		Title:             req.Title,
		Type:              roomType,
		BasePrice:         price,
		StartDate:         start,
		EndDate:           end,
		IsAlwaysAvailable: req.IsAlwaysAvailable || (start == nil && end == nil),
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, room); err != nil {
		return nil, err
	}

	log.Info().Str("room_id", room.ID.String()).Str("host_id", hostID.String()).Str("type", string(roomType)).Msg("room created")
	return room, nil
}

// GetByID returns room with its host blocks
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Room, error) {
	return s.repo.GetByID(ctx, id)
}

// BlockDays marks days unavailable on behalf of the host
func (s *Service) BlockDays(ctx context.Context, userID uuid.UUID, role user.Role, roomID uuid.UUID, days []calendar.Day) (*Room, error) {
	if _, err := s.authorize(ctx, userID, role, roomID); err != nil {
		return nil, err
	}
	if err := s.repo.AddBlockedDays(ctx, roomID, days); err != nil {
		return nil, err
	}
	s.changed(ctx, roomID)
	return s.repo.GetByID(ctx, roomID)
}

// UnblockDays removes host blocks. Days claimed by bookings stay unavailable.
func (s *Service) UnblockDays(ctx context.Context, userID uuid.UUID, role user.Role, roomID uuid.UUID, days []calendar.Day) (*Room, error) {
	if _, err := s.authorize(ctx, userID, role, roomID); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveBlockedDays(ctx, roomID, days); err != nil {
		return nil, err
	}
	s.changed(ctx, roomID)
	return s.repo.GetByID(ctx, roomID)
}

// UpdateWindow replaces the room's active window
func (s *Service) UpdateWindow(ctx context.Context, userID uuid.UUID, role user.Role, roomID uuid.UUID, req *UpdateWindowRequest) (*Room, error) {
	if _, err := s.authorize(ctx, userID, role, roomID); err != nil {
		return nil, err
	}

	start, end, err := parseWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	always := req.IsAlwaysAvailable || (start == nil && end == nil)

	if err := s.repo.UpdateWindow(ctx, roomID, start, end, always); err != nil {
		return nil, err
	}
	s.changed(ctx, roomID)
	return s.repo.GetByID(ctx, roomID)
}

func (s *Service) authorize(ctx context.Context, userID uuid.UUID, role user.Role, roomID uuid.UUID) (*Room, error) {
	room, err := s.repo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.CanManage(userID, role) {
		return nil, ErrNotRoomOwner
	}
	return room, nil
}

func (s *Service) changed(ctx context.Context, roomID uuid.UUID) {
	if s.notifier != nil {
		s.notifier.RoomChanged(ctx, roomID)
	}
}

func parseWindow(startRaw, endRaw *string) (*calendar.Day, *calendar.Day, error) {
	var start, end *calendar.Day
	if startRaw != nil && *startRaw != "" {
		d, err := calendar.ParseDay(*startRaw)
		if err != nil {
			return nil, nil, err
		}
		start = &d
	}
	if endRaw != nil && *endRaw != "" {
		d, err := calendar.ParseDay(*endRaw)
		if err != nil {
			return nil, nil, err
		}
		end = &d
	}
	if start != nil && end != nil && start.After(*end) {
		return nil, nil, ErrInvalidWindow
	}
	return start, end, nil
}
