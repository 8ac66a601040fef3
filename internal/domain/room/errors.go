package room

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotRoomOwner  = errors.New("only the room host can change this room")
	ErrRoomInactive  = errors.New("room is not accepting bookings")
	ErrOutsideWindow = errors.New("dates are outside the room's available period")
	ErrInvalidWindow = errors.New("start date must not be after end date")
	ErrInvalidType   = errors.New("unknown room type")
	ErrInvalidPrice  = errors.New("base price must be positive")
)
