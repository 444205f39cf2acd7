package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	"github.com/inkwell-blog/inkwell/internal/rbac"
	"github.com/inkwell-blog/inkwell/internal/shared"
)

// Middleware resolves the Authorization header on every request and stores
// the principal in the request context. A presented but invalid token fails
// the request even on public routes.
func Middleware(resolver *Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential, err := CredentialFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				httpx.RespondError(w, err)
				return
			}
			principal, err := resolver.Resolve(r.Context(), credential)
			if err != nil {
				if !errors.Is(err, shared.ErrInvalidToken) && logger != nil {
					logger.Error("resolve principal", slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(rbac.ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
