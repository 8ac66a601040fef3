package booking

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spacehub/spacehub-api/internal/domain/room"
	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/middleware"
	"github.com/spacehub/spacehub-api/internal/pkg/errorhandler"
	"github.com/spacehub/spacehub-api/internal/pkg/response"
	"github.com/spacehub/spacehub-api/internal/pkg/validator"
)

// Handler handles booking HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns booking router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/quote", h.Quote)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Create)
		r.Get("/my", h.ListMy)
		r.With(middleware.RequireRole(string(user.RoleHost), string(user.RoleAdmin))).Get("/hosting", h.ListHosting)
		r.Get("/{id}", h.GetByID)
		r.Post("/{id}/transitions", h.Transition)
		r.Get("/{id}/cancellation", h.CancellationEligibility)
	})

	return r
}

// AdminRoutes returns routes mounted under /admin/bookings
func (h *Handler) AdminRoutes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireAdmin())
	r.Post("/cleanup", h.Cleanup)
	return r
}

// Quote handles POST /bookings/quote
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	quote, err := h.service.Quote(r.Context(), &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, quote)
}

// Create handles POST /bookings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == uuid.Nil {
		response.Unauthorized(w, "User not authenticated")
		return
	}

	var req CreateBookingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	b, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.Created(w, b.ToResponse())
}

// ListMy handles GET /bookings/my
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.ListForGuest(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, toListResponse(bookings))
}

// ListHosting handles GET /bookings/hosting
func (h *Handler) ListHosting(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.ListForHost(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	response.OK(w, toListResponse(bookings))
}

// GetByID handles GET /bookings/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	b, err := h.service.GetByID(r.Context(), id, actorFrom(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, b.ToResponse())
}

// Transition handles POST /bookings/{id}/transitions
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	var req TransitionRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	b, err := h.service.Transition(r.Context(), id, actorFrom(r), Transition(req.Transition), strings.TrimSpace(req.Reason))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, b.ToResponse())
}

// CancellationEligibility handles GET /bookings/{id}/cancellation
func (h *Handler) CancellationEligibility(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return
	}

	eligibility, err := h.service.CancellationEligibility(r.Context(), id, actorFrom(r))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, eligibility)
}

// Cleanup handles POST /admin/bookings/cleanup
func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	req := CleanupRequest{OlderThanDays: 30}
	if r.ContentLength != 0 {
		if err := response.DecodeJSON(r.Body, &req); err != nil {
			response.BadRequest(w, "Invalid JSON body")
			return
		}
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	deleted, err := h.service.Cleanup(r.Context(), time.Duration(req.OlderThanDays)*24*time.Hour)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	response.OK(w, map[string]int64{"deleted": deleted})
}

func actorFrom(r *http.Request) Actor {
	return Actor{
		ID:   middleware.GetUserID(r.Context()),
		Role: user.Role(middleware.GetRole(r.Context())),
	}
}

func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *ValidationError
	var conflictErr *ConflictError
	var transitionErr *TransitionError

	switch {
	case errors.As(err, &validationErr):
		response.ValidationError(w, validationErr.Fields)
	case errors.As(err, &conflictErr):
		days := make([]string, len(conflictErr.Days))
		for i, d := range conflictErr.Days {
			days[i] = d.String()
		}
		response.ErrorWithDetails(w, http.StatusConflict, response.CodeDatesUnavailable, "Selected dates are unavailable", map[string]string{
			"conflicting_days": strings.Join(days, ","),
		})
	case errors.As(err, &transitionErr):
		response.Error(w, http.StatusConflict, response.CodeInvalidTransition, transitionErr.Error())
	case errors.Is(err, ErrNotCancellable):
		response.Forbidden(w, "Booking can no longer be cancelled")
	case errors.Is(err, ErrNotAuthorized):
		response.Forbidden(w, "Not authorized for this booking")
	case errors.Is(err, ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, room.ErrRoomNotFound):
		response.NotFound(w, "Room not found")
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "Failed to process booking request", err)
	}
}
