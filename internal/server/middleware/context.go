package middleware

import (
	"context"

	"github.com/tasklift/tasklift/internal/domain"
)

type contextKey string

const (
	ContextKeyTenantID    contextKey = "tenant_id"
	ContextKeyWorkspaceID contextKey = "workspace_id"
	ContextKeyActorID     contextKey = "actor_id"
	ContextKeyRole        contextKey = "role"
)

func TenantIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyTenantID).(string)
	return v, ok && v != ""
}

func WorkspaceIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyWorkspaceID).(string)
	return v, ok && v != ""
}

func ActorIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyActorID).(string)
	return v, ok && v != ""
}

func RoleFromContext(ctx context.Context) (domain.Role, bool) {
	v, ok := ctx.Value(ContextKeyRole).(domain.Role)
	return v, ok && v != ""
}
