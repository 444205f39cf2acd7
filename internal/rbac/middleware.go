package rbac

import (
	"log/slog"
	"net/http"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAuthenticated rejects anonymous callers with 401 before the handler runs.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := PrincipalFromContext(r.Context())
		if !p.IsAuthenticated() {
			if m.Logger != nil {
				m.Logger.Debug("anonymous request rejected", slog.String("path", r.URL.Path))
			}
			httpx.RespondError(w, shared.ErrAuthenticationRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects callers that are not administrator-class.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !PrincipalFromContext(r.Context()).IsAdmin() {
			httpx.RespondError(w, shared.ErrNotAuthorized)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
