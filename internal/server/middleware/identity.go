package middleware

import (
	"context"
	"net/http"

	"github.com/tasklift/tasklift/internal/domain"
)

// Identity headers. Authentication happens upstream (gateway or sidecar);
// by the time a request reaches this service the caller identity and role
// arrive pre-validated in these headers.
const (
	HeaderTenantID    = "X-Tenant-ID"
	HeaderWorkspaceID = "X-Workspace-ID"
	HeaderActorID     = "X-Actor-ID"
	HeaderActorRole   = "X-Actor-Role"
)

// Identity copies the caller identity headers into the request context.
// Missing headers are left unset; RequireTenant and RequireRole decide what
// is mandatory per route group.
func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if v := r.Header.Get(HeaderTenantID); v != "" {
				ctx = context.WithValue(ctx, ContextKeyTenantID, v)
			}
			if v := r.Header.Get(HeaderWorkspaceID); v != "" {
				ctx = context.WithValue(ctx, ContextKeyWorkspaceID, v)
			}
			if v := r.Header.Get(HeaderActorID); v != "" {
				ctx = context.WithValue(ctx, ContextKeyActorID, v)
			}
			if v := r.Header.Get(HeaderActorRole); v != "" {
				ctx = context.WithValue(ctx, ContextKeyRole, domain.Role(v))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
