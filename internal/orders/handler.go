package orders

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

// Handler exposes the back-office order endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermOrdersView))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
	})
	r.With(h.rbac.RequireAll(shared.PermOrdersEdit)).Post("/{id}/transition", h.transition)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := ListFilters{
		PageRequest: shared.ParsePageRequest(q),
		Status:      Status(q.Get("status")),
		PickupDate:  q.Get("pickup_date"),
		LocationID:  httpx.QueryInt64(r, "location_id"),
	}
	verr := &shared.ValidationError{}
	if filters.Status != "" && !filters.Status.IsValid() {
		verr.Add("status", "must be one of: pending, confirmed, ready, collected, cancelled")
	}
	if filters.PickupDate != "" {
		if _, err := time.Parse(time.DateOnly, filters.PickupDate); err != nil {
			verr.Add("pickup_date", "must be a date in 2006-01-02 format")
		}
	}
	if err := verr.OrNil(); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	page, err := h.service.List(r.Context(), filters)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.URLParamID(r, "id")
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	var req TransitionRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	o, err := h.service.Transition(r.Context(), id, req)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, o)
}
