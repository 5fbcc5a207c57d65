package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/frahmantamala/expense-reporting/internal"
	coreUser "github.com/frahmantamala/expense-reporting/internal/core/user"
	"github.com/frahmantamala/expense-reporting/pkg/logger"
)

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...coreUser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, _ := coreUser.PrincipalFromContext(r.Context())

			decision := coreUser.Authorize(p, roles...)
			if !decision.Allowed() {
				if p != nil {
					logger.From(r.Context()).Warn("access denied: role not permitted",
						"user_id", p.ID,
						"role", p.Role,
						"required_roles", roles)
				}
				appErr, _ := internal.IsAppError(decision.Err())
				status, body := appErr.ToHTTPResponse()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				_ = json.NewEncoder(w).Encode(body)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequirePrivileged admits managers and admins.
func RequirePrivileged() func(http.Handler) http.Handler {
	return RequireRoles(coreUser.RoleManager, coreUser.RoleAdmin)
}
