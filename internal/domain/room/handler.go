package room

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/middleware"
	"github.com/spacehub/spacehub-api/internal/pkg/calendar"
	"github.com/spacehub/spacehub-api/internal/pkg/errorhandler"
	"github.com/spacehub/spacehub-api/internal/pkg/response"
	"github.com/spacehub/spacehub-api/internal/pkg/validator"
)

// Handler handles room HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates room handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns room router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.GetByID)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.With(middleware.RequireRole(string(user.RoleHost), string(user.RoleAdmin))).Post("/", h.Create)
		r.Post("/{id}/blocked-days", h.BlockDays)
		r.Delete("/{id}/blocked-days", h.UnblockDays)
		r.Put("/{id}/window", h.UpdateWindow)
	})

	return r
}

// Create handles POST /rooms
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreateRoomRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	room, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, room.ToResponse())
}

// GetByID handles GET /rooms/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	room, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, room.ToResponse())
}

// BlockDays handles POST /rooms/{id}/blocked-days
func (h *Handler) BlockDays(w http.ResponseWriter, r *http.Request) {
	h.changeBlocks(w, r, h.service.BlockDays)
}

// UnblockDays handles DELETE /rooms/{id}/blocked-days
func (h *Handler) UnblockDays(w http.ResponseWriter, r *http.Request) {
	h.changeBlocks(w, r, h.service.UnblockDays)
}

func (h *Handler) changeBlocks(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID uuid.UUID, role user.Role, roomID uuid.UUID, days []calendar.Day) (*Room, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req BlockDaysRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	days := make([]calendar.Day, 0, len(req.Days))
	for _, raw := range req.Days {
		d, err := calendar.ParseDay(raw)
		if err != nil {
			response.ValidationError(w, map[string]string{"days": "Dates must be YYYY-MM-DD"})
			return
		}
		days = append(days, d)
	}

	room, err := fn(r.Context(), middleware.GetUserID(r.Context()), user.Role(middleware.GetRole(r.Context())), id, days)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, room.ToResponse())
}

// UpdateWindow handles PUT /rooms/{id}/window
func (h *Handler) UpdateWindow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid room ID")
		return
	}

	var req UpdateWindowRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	room, err := h.service.UpdateWindow(r.Context(), middleware.GetUserID(r.Context()), user.Role(middleware.GetRole(r.Context())), id, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, room.ToResponse())
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		response.NotFound(w, "Room not found")
	case errors.Is(err, ErrNotRoomOwner):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidType):
		response.ValidationError(w, map[string]string{"type": err.Error()})
	case errors.Is(err, ErrInvalidPrice):
		response.ValidationError(w, map[string]string{"base_price": err.Error()})
	case errors.Is(err, ErrInvalidWindow):
		response.ValidationError(w, map[string]string{"start_date": err.Error()})
	case errors.Is(err, calendar.ErrInvalidDay):
		response.ValidationError(w, map[string]string{"date": "Dates must be YYYY-MM-DD"})
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "Failed to process room request", err)
	}
}
