package middleware

import (
	"net/http"

	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

// UserContext tags the request logger with the authenticated caller. It must run after
// the auth middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := coreUser.PrincipalFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "user_id", p.ID, "role", p.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
