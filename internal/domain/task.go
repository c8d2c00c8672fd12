package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskState string

const (
	TaskStateNew        TaskState = "new"
	TaskStateInProgress TaskState = "in_progress"
	TaskStateDone       TaskState = "done"
	TaskStateCancelled  TaskState = "cancelled"
)

// Terminal reports whether no further mutation is accepted from s.
func (s TaskState) Terminal() bool {
	return s == TaskStateDone || s == TaskStateCancelled
}

// ValidTransition checks if a task state transition edge exists, independent
// of role. Allowed: new->in_progress, new->cancelled, in_progress->done,
// in_progress->cancelled. Terminal states have no outgoing edges.
func (s TaskState) ValidTransition(to TaskState) bool {
	switch s {
	case TaskStateNew:
		return to == TaskStateInProgress || to == TaskStateCancelled
	case TaskStateInProgress:
		return to == TaskStateDone || to == TaskStateCancelled
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

type Task struct {
	ID          uuid.UUID `json:"id"`
	TenantID    string    `json:"tenant_id"`
	WorkspaceID string    `json:"workspace_id"`
	Title       string    `json:"title"`
	Priority    Priority  `json:"priority"`
	State       TaskState `json:"state"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	Version     int64     `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskRevision is the result of every accepted mutation: the task identity
// plus the state and version as of that mutation. It is also the payload
// cached under an idempotency key.
type TaskRevision struct {
	TaskID  uuid.UUID `json:"task_id"`
	State   TaskState `json:"state"`
	Version int64     `json:"version"`
}

// TaskFilter narrows List results. Limit 0 means the default page size.
// Before, when set, is a keyset cursor: only tasks created strictly before
// it are returned.
type TaskFilter struct {
	State      *TaskState
	AssigneeID *string
	Limit      int
	Before     *time.Time
}

// DefaultPageSize is applied when a list request does not specify a limit.
const DefaultPageSize = 20

type TaskRepository interface {
	Insert(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*Task, error)
	List(ctx context.Context, tenantID, workspaceID string, filter TaskFilter) ([]*Task, error)
	// ConditionalAssign and ConditionalTransition apply the mutation only if
	// the stored version still equals expectedVersion at write time; a lost
	// race surfaces as ErrVersionMismatch with nothing applied.
	ConditionalAssign(ctx context.Context, tenantID string, id uuid.UUID, assigneeID string, expectedVersion int64) error
	ConditionalTransition(ctx context.Context, tenantID string, id uuid.UUID, to TaskState, expectedVersion int64) error
}
