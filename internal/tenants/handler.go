package tenants

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

// Handler exposes tenant endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountSignup registers the public signup endpoint.
func (h *Handler) MountSignup(r chi.Router) {
	r.With(httprate.LimitByIP(5, time.Minute)).Post("/", h.signup)
}

// MountMine registers the membership listing; requires a session only.
func (h *Handler) MountMine(r chi.Router) {
	r.Get("/", h.mine)
}

// MountCurrent registers the current tenant endpoints.
func (h *Handler) MountCurrent(r chi.Router) {
	r.Get("/", h.current)
	r.With(h.rbac.RequireAll(shared.PermTenantEdit)).Patch("/", h.update)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	res, err := h.service.Signup(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Mine(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Current(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateTenantRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	t, err := h.service.UpdateCurrent(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, t)
}
