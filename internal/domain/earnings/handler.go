package earnings

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/spacehub/spacehub-api/internal/domain/user"
	"github.com/spacehub/spacehub-api/internal/middleware"
	"github.com/spacehub/spacehub-api/internal/pkg/errorhandler"
	"github.com/spacehub/spacehub-api/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Use(middleware.RequireRole(string(user.RoleHost), string(user.RoleAdmin)))
	r.Get("/my", h.ListMy)
	return r
}

// ListMy handles GET /earnings/my
func (h *Handler) ListMy(w http.ResponseWriter, r *http.Request) {
	hostID := middleware.GetUserID(r.Context())
	if hostID == uuid.Nil {
		response.Unauthorized(w, "unauthorized")
		return
	}

	items, err := h.svc.ListForHost(r.Context(), hostID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "Failed to load earnings", err)
		return
	}
	summary, err := h.svc.Summary(r.Context(), hostID)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, response.CodeInternal, "Failed to load earnings", err)
		return
	}
	if items == nil {
		items = []Earning{}
	}

	response.OK(w, map[string]interface{}{
		"items":   items,
		"summary": summary,
	})
}
