package middleware

import (
	"net/http"

	"github.com/tasklift/tasklift/internal/domain"
)

// RequireRole returns middleware that checks the caller carries one of the
// allowed roles. It must be chained after Identity, which stores the role in
// the request context via ContextKeyRole.
//
// Returns 401 Unauthorized when no role is present in context and 403
// Forbidden when the role does not match any of the allowed roles. The fine
// grained overlay (which role may drive which transition) is the engine's
// job; this gate only keeps unknown roles out of the mutation routes.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := RoleFromContext(r.Context())
			if !ok {
				http.Error(w, `{"title":"Unauthorized","status":401,"detail":"caller role required"}`, http.StatusUnauthorized)
				return
			}

			if _, match := allowed[role]; !match {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
