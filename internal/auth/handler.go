package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/shared"
)

// LoginAttemptsPerMinute bounds POST /login per client IP.
const LoginAttemptsPerMinute = 10

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	sessions *shared.SessionManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager) *Handler {
	return &Handler{logger: logger, service: service, sessions: sessions}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(LoginAttemptsPerMinute, time.Minute)).Post("/login", h.handleLogin)
	r.Group(func(r chi.Router) {
		r.Use(RequireSession(h.sessions, h.logger))
		r.Post("/logout", h.handleLogout)
		r.Get("/me", h.handleMe)
		r.Put("/tenant", h.handleSwitchTenant)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	result, err := h.service.Login(r.Context(), req, r.RemoteAddr, r.UserAgent())
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	if err := h.service.Logout(r.Context(), p.SessionID); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := shared.PrincipalFromContext(r.Context())
	profile, err := h.service.Me(r.Context(), p)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, profile)
}

func (h *Handler) handleSwitchTenant(w http.ResponseWriter, r *http.Request) {
	var req SwitchTenantRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	p, _ := shared.PrincipalFromContext(r.Context())
	result, err := h.service.SwitchTenant(r.Context(), p, req)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}
