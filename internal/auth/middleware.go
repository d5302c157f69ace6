package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bakeops/bakeops/internal/platform/httpx"
	"github.com/bakeops/bakeops/internal/shared"
)

// RequireSession resolves the bearer token into a shared.Principal. Requests
// without a live session get a 401 problem.
func RequireSession(sessions *shared.SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := shared.BearerToken(r)
			if token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			sess, err := sessions.Load(r.Context(), token)
			if err != nil {
				if errors.Is(err, shared.ErrSessionNotFound) {
					httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "session expired")
					return
				}
				httpx.RespondError(w, r, logger, err)
				return
			}
			ctx := shared.ContextWithPrincipal(r.Context(), shared.Principal{
				SessionID: sess.ID,
				UserID:    sess.UserID,
				TenantID:  sess.TenantID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
