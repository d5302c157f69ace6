package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/shared"
)

// PermissionsHandler exposes the static role table to the admin SPA.
type PermissionsHandler struct {
	logger   *slog.Logger
	resolver RoleResolver
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, resolver RoleResolver) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, resolver: resolver}
}

// MountRoutes registers permission routes. Callers mount it behind auth.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
}

type roleView struct {
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

type permissionsResponse struct {
	Current roleView   `json:"current"`
	Roles   []roleView `json:"roles"`
}

func (h *PermissionsHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, r, h.logger, shared.ErrUnauthorized)
		return
	}
	role, perms, err := EffectivePermissions(r.Context(), h.resolver, principal)
	if err != nil {
		httpx.RespondError(w, r, h.logger, err)
		return
	}
	resp := permissionsResponse{Current: roleView{Role: role, Permissions: perms}}
	for _, rl := range Roles() {
		resp.Roles = append(resp.Roles, roleView{Role: rl, Permissions: rl.Permissions()})
	}
	httpx.JSON(w, http.StatusOK, resp)
}
