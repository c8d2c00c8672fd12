package v1_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/tasklift/tasklift/internal/domain"
	"github.com/tasklift/tasklift/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject tenant/workspace/actor/role into context for DoCtx
// ---------------------------------------------------------------------------

func scopedCtx(tenantID, workspaceID string) context.Context {
	ctx := context.Background()
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	ctx = context.WithValue(ctx, middleware.ContextKeyWorkspaceID, workspaceID)
	return ctx
}

func actorCtx(tenantID, workspaceID, actorID string, role domain.Role) context.Context {
	ctx := scopedCtx(tenantID, workspaceID)
	ctx = context.WithValue(ctx, middleware.ContextKeyActorID, actorID)
	ctx = context.WithValue(ctx, middleware.ContextKeyRole, role)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock Lifecycle
// ---------------------------------------------------------------------------

type mockLifecycle struct {
	createFunc     func(ctx context.Context, tenantID, workspaceID, title string, priority domain.Priority, idempotencyKey string) (*domain.TaskRevision, error)
	assignFunc     func(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, assigneeID string, expectedVersion int64) (*domain.TaskRevision, error)
	transitionFunc func(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, actorID string, target domain.TaskState, expectedVersion int64) (*domain.TaskRevision, error)
	getFunc        func(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID) (*domain.Task, []*domain.Event, error)
	listFunc       func(ctx context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error)
	listEventsFunc func(ctx context.Context, tenantID string, limit int) ([]*domain.Event, error)
}

func (m *mockLifecycle) Create(ctx context.Context, tenantID, workspaceID, title string, priority domain.Priority, idempotencyKey string) (*domain.TaskRevision, error) {
	return m.createFunc(ctx, tenantID, workspaceID, title, priority, idempotencyKey)
}

func (m *mockLifecycle) Assign(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, assigneeID string, expectedVersion int64) (*domain.TaskRevision, error) {
	return m.assignFunc(ctx, tenantID, workspaceID, taskID, role, assigneeID, expectedVersion)
}

func (m *mockLifecycle) Transition(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, actorID string, target domain.TaskState, expectedVersion int64) (*domain.TaskRevision, error) {
	return m.transitionFunc(ctx, tenantID, workspaceID, taskID, role, actorID, target, expectedVersion)
}

func (m *mockLifecycle) Get(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID) (*domain.Task, []*domain.Event, error) {
	return m.getFunc(ctx, tenantID, workspaceID, taskID)
}

func (m *mockLifecycle) List(ctx context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	return m.listFunc(ctx, tenantID, workspaceID, filter)
}

func (m *mockLifecycle) ListEvents(ctx context.Context, tenantID string, limit int) ([]*domain.Event, error) {
	return m.listEventsFunc(ctx, tenantID, limit)
}
