package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/rbac"
	"github.com/bakeops/bakeops/internal/shared"
)

// Handler serves dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs the handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers dashboard routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(shared.PermDashboardView)).Get("/stats", h.stats)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=30")
	httpx.JSON(w, http.StatusOK, st)
}
