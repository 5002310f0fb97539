package authz

import (
	"log/slog"
	"net/http"

	"github.com/nusalend/nusalend/internal/platform/httpx"
)

// Middleware wires authorization checks into HTTP handlers. It translates
// Deny into a 403 response at the boundary; the decision itself comes from
// the pure Authorize function over the session's principal snapshot.
type Middleware struct {
	Logger *slog.Logger
}

// Require ensures the current principal holds the given permission code.
// An empty code only requires an authenticated session.
func (m Middleware) Require(code string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if Authorize(principal, code) == Deny {
				if m.Logger != nil {
					m.Logger.Warn("authorization denied",
						slog.String("username", principal.Username),
						slog.String("permission", code),
						slog.String("path", r.URL.Path))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing permission "+code)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated only checks that a principal is attached.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return m.Require("")
}
