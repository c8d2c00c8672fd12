package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventTaskCreated      EventKind = "task.created"
	EventTaskAssigned     EventKind = "task.assigned"
	EventTaskStateChanged EventKind = "task.state_changed"
)

// Event is an outbox record: an immutable fact about something that happened
// to a task, written in the same transaction as the state change itself.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  string         `json:"tenant_id"`
	TaskID    uuid.UUID      `json:"task_id"`
	Kind      EventKind      `json:"kind"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewTaskCreated builds the outbox record for a freshly inserted task. The
// payload carries a full snapshot so consumers never need a second read.
func NewTaskCreated(t *Task) *Event {
	return &Event{
		ID:       uuid.New(),
		TenantID: t.TenantID,
		TaskID:   t.ID,
		Kind:     EventTaskCreated,
		Payload: map[string]any{
			"workspace_id": t.WorkspaceID,
			"title":        t.Title,
			"priority":     string(t.Priority),
			"state":        string(t.State),
			"version":      t.Version,
		},
		CreatedAt: t.CreatedAt,
	}
}

// NewTaskAssigned builds the outbox record for an assignment.
func NewTaskAssigned(t *Task, assigneeID string, at time.Time) *Event {
	return &Event{
		ID:       uuid.New(),
		TenantID: t.TenantID,
		TaskID:   t.ID,
		Kind:     EventTaskAssigned,
		Payload: map[string]any{
			"assignee_id": assigneeID,
		},
		CreatedAt: at,
	}
}

// NewTaskStateChanged builds the outbox record for a state transition,
// carrying the {from,to} delta.
func NewTaskStateChanged(t *Task, from, to TaskState, at time.Time) *Event {
	return &Event{
		ID:       uuid.New(),
		TenantID: t.TenantID,
		TaskID:   t.ID,
		Kind:     EventTaskStateChanged,
		Payload: map[string]any{
			"from": string(from),
			"to":   string(to),
		},
		CreatedAt: at,
	}
}

// EventRepository is append-only: the core contract has no update or delete.
type EventRepository interface {
	Append(ctx context.Context, e *Event) error
	ListByTask(ctx context.Context, tenantID string, taskID uuid.UUID, limit int) ([]*Event, error)
	ListRecent(ctx context.Context, tenantID string, limit int) ([]*Event, error)
}
