package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/tasklift/tasklift/internal/domain"
)

// Lifecycle abstracts the task-lifecycle engine for handler testing.
// *lifecycle.Engine satisfies this interface.
type Lifecycle interface {
	Create(ctx context.Context, tenantID, workspaceID, title string, priority domain.Priority, idempotencyKey string) (*domain.TaskRevision, error)
	Assign(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, assigneeID string, expectedVersion int64) (*domain.TaskRevision, error)
	Transition(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, actorID string, target domain.TaskState, expectedVersion int64) (*domain.TaskRevision, error)
	Get(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID) (*domain.Task, []*domain.Event, error)
	List(ctx context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error)
	ListEvents(ctx context.Context, tenantID string, limit int) ([]*domain.Event, error)
}
