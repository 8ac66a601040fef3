package room

// CreateRoomRequest is the host-side listing payload
type CreateRoomRequest struct {
	Title             string  `json:"title" validate:"required,min=3,max=200"`
	Type              string  `json:"type" validate:"required,room_type"`
	BasePrice         string  `json:"base_price" validate:"required,decimal_amount"`
	StartDate         *string `json:"start_date" validate:"omitempty,day"`
	EndDate           *string `json:"end_date" validate:"omitempty,day"`
	IsAlwaysAvailable bool    `json:"is_always_available"`
}

// BlockDaysRequest adds or removes host blocks
type BlockDaysRequest struct {
	Days []string `json:"days" validate:"required,min=1,max=366,dive,day"`
}

// UpdateWindowRequest replaces the active window
type UpdateWindowRequest struct {
	StartDate         *string `json:"start_date" validate:"omitempty,day"`
	EndDate           *string `json:"end_date" validate:"omitempty,day"`
	IsAlwaysAvailable bool    `json:"is_always_available"`
}
