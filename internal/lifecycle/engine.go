// Package lifecycle implements the transactional task-lifecycle engine:
// idempotent create, optimistic-locked mutation, and atomic outbox append
// composed into one storage transaction per operation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tasklift/tasklift/internal/domain"
)

// DataStore is the set of repositories an atomic unit operates on. Both the
// top-level store and a transaction-bound view satisfy it.
type DataStore interface {
	Tasks() domain.TaskRepository
	Events() domain.EventRepository
	Idempotency() domain.IdempotencyRepository
}

// Store is the storage dependency of the engine. InTx runs fn against a
// transaction-bound DataStore; every repository call inside fn commits or
// rolls back as one unit.
type Store interface {
	DataStore
	InTx(ctx context.Context, fn func(tx DataStore) error) error
}

// EventFeed receives committed outbox records for live inspection. Publishing
// is best effort and happens outside the atomic unit; failures are logged,
// never surfaced.
type EventFeed interface {
	PublishEvent(ctx context.Context, workspaceID string, e *domain.Event) error
}

// timelineLimit bounds the event timeline attached to a Get response.
const timelineLimit = 50

type Engine struct {
	store Store
	feed  EventFeed // nil disables the live feed
}

func New(store Store, feed EventFeed) *Engine {
	return &Engine{store: store, feed: feed}
}

// Create inserts a new task in state "new" with version 1 and appends its
// TaskCreated event atomically. When idempotencyKey is non-empty the response
// of the first successful create is cached under the key and returned
// verbatim for every repeat, without a second task or event.
func (e *Engine) Create(ctx context.Context, tenantID, workspaceID, title string, priority domain.Priority, idempotencyKey string) (*domain.TaskRevision, error) {
	if idempotencyKey != "" {
		rec, err := e.store.Idempotency().Lookup(ctx, idempotencyKey)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("lifecycle.Engine.Create: lookup key: %w", err)
		}
		if rec != nil {
			resp := rec.Response
			return &resp, nil
		}
	}

	if priority == "" {
		priority = domain.PriorityMedium
	}

	now := time.Now().UTC()
	t := &domain.Task{
		ID:          uuid.New(),
		TenantID:    tenantID,
		WorkspaceID: workspaceID,
		Title:       title,
		Priority:    priority,
		State:       domain.TaskStateNew,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ev := domain.NewTaskCreated(t)
	rev := domain.TaskRevision{TaskID: t.ID, State: t.State, Version: t.Version}

	err := e.store.InTx(ctx, func(tx DataStore) error {
		if idempotencyKey != "" {
			// Claim the key first: a losing writer aborts before it inserts
			// anything, so at most one task ever exists per key.
			rec := &domain.IdempotencyRecord{Key: idempotencyKey, Response: rev, CreatedAt: now}
			if err := tx.Idempotency().Store(ctx, rec); err != nil {
				return err
			}
		}
		if err := tx.Tasks().Insert(ctx, t); err != nil {
			return err
		}
		return tx.Events().Append(ctx, ev)
	})
	if err != nil {
		if idempotencyKey != "" && errors.Is(err, domain.ErrConflict) {
			// Lost the key race: return the winner's cached response.
			rec, lerr := e.store.Idempotency().Lookup(ctx, idempotencyKey)
			if lerr != nil {
				return nil, fmt.Errorf("lifecycle.Engine.Create: lookup after conflict: %w", lerr)
			}
			resp := rec.Response
			return &resp, nil
		}
		return nil, fmt.Errorf("lifecycle.Engine.Create: %w", err)
	}

	e.publish(ctx, workspaceID, ev)

	return &rev, nil
}

// Assign sets the assignee of a task. Manager-only, rejected on terminal
// tasks, guarded by expectedVersion. The version check is re-enforced by the
// conditional write itself, so a racing mutation between read and write
// surfaces as ErrVersionMismatch rather than a lost update.
func (e *Engine) Assign(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, assigneeID string, expectedVersion int64) (*domain.TaskRevision, error) {
	var (
		rev *domain.TaskRevision
		ev  *domain.Event
	)

	err := e.store.InTx(ctx, func(tx DataStore) error {
		t, err := e.getScoped(ctx, tx, tenantID, workspaceID, taskID)
		if err != nil {
			return err
		}
		if t.State.Terminal() {
			return fmt.Errorf("task %s is %s: %w", t.ID, t.State, domain.ErrInvalidState)
		}
		if !domain.CanAssign(t.State, role) {
			return fmt.Errorf("role %q may not assign: %w", role, domain.ErrForbidden)
		}
		if t.Version != expectedVersion {
			return fmt.Errorf("expected version %d, have %d: %w", expectedVersion, t.Version, domain.ErrVersionMismatch)
		}

		if err := tx.Tasks().ConditionalAssign(ctx, tenantID, taskID, assigneeID, expectedVersion); err != nil {
			return err
		}

		ev = domain.NewTaskAssigned(t, assigneeID, time.Now().UTC())
		if err := tx.Events().Append(ctx, ev); err != nil {
			return err
		}

		rev = &domain.TaskRevision{TaskID: t.ID, State: t.State, Version: expectedVersion + 1}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lifecycle.Engine.Assign: %w", err)
	}

	e.publish(ctx, workspaceID, ev)

	return rev, nil
}

// Transition moves a task to a new state. Authorization is evaluated against
// the row read inside the same transaction the conditional write runs in, so
// a decision can never be based on a state the write no longer sees.
func (e *Engine) Transition(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID, role domain.Role, actorID string, target domain.TaskState, expectedVersion int64) (*domain.TaskRevision, error) {
	var (
		rev *domain.TaskRevision
		ev  *domain.Event
	)

	err := e.store.InTx(ctx, func(tx DataStore) error {
		t, err := e.getScoped(ctx, tx, tenantID, workspaceID, taskID)
		if err != nil {
			return err
		}
		if t.State.Terminal() {
			return fmt.Errorf("task %s is %s: %w", t.ID, t.State, domain.ErrInvalidState)
		}
		if !t.State.ValidTransition(target) {
			return fmt.Errorf("%s -> %s: %w", t.State, target, domain.ErrInvalidTransition)
		}
		if !domain.Decide(t.State, target, role, t.AssigneeID, actorID) {
			return fmt.Errorf("role %q may not drive %s -> %s: %w", role, t.State, target, domain.ErrForbidden)
		}
		if t.Version != expectedVersion {
			return fmt.Errorf("expected version %d, have %d: %w", expectedVersion, t.Version, domain.ErrVersionMismatch)
		}

		if err := tx.Tasks().ConditionalTransition(ctx, tenantID, taskID, target, expectedVersion); err != nil {
			return err
		}

		ev = domain.NewTaskStateChanged(t, t.State, target, time.Now().UTC())
		if err := tx.Events().Append(ctx, ev); err != nil {
			return err
		}

		rev = &domain.TaskRevision{TaskID: t.ID, State: target, Version: expectedVersion + 1}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lifecycle.Engine.Transition: %w", err)
	}

	e.publish(ctx, workspaceID, ev)

	return rev, nil
}

// Get returns a task with its recent event timeline. Reads are unsynchronized
// snapshots and may be stale relative to concurrent writes.
func (e *Engine) Get(ctx context.Context, tenantID, workspaceID string, taskID uuid.UUID) (*domain.Task, []*domain.Event, error) {
	t, err := e.getScoped(ctx, e.store, tenantID, workspaceID, taskID)
	if err != nil {
		return nil, nil, fmt.Errorf("lifecycle.Engine.Get: %w", err)
	}

	timeline, err := e.store.Events().ListByTask(ctx, tenantID, taskID, timelineLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("lifecycle.Engine.Get: timeline: %w", err)
	}

	return t, timeline, nil
}

// List returns tasks in a workspace ordered by creation time descending.
func (e *Engine) List(ctx context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	if filter.Limit <= 0 {
		filter.Limit = domain.DefaultPageSize
	}

	tasks, err := e.store.Tasks().List(ctx, tenantID, workspaceID, filter)
	if err != nil {
		return nil, fmt.Errorf("lifecycle.Engine.List: %w", err)
	}

	return tasks, nil
}

// ListEvents returns the tenant's most recent outbox records across all
// tasks.
func (e *Engine) ListEvents(ctx context.Context, tenantID string, limit int) ([]*domain.Event, error) {
	if limit <= 0 {
		limit = timelineLimit
	}

	events, err := e.store.Events().ListRecent(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("lifecycle.Engine.ListEvents: %w", err)
	}

	return events, nil
}

// getScoped resolves a task by (tenant, id) and validates workspace scope.
// A task outside the caller's workspace is indistinguishable from an absent
// one.
func (e *Engine) getScoped(ctx context.Context, ds DataStore, tenantID, workspaceID string, taskID uuid.UUID) (*domain.Task, error) {
	t, err := ds.Tasks().GetByID(ctx, tenantID, taskID)
	if err != nil {
		return nil, err
	}
	if t.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("task %s not in workspace %s: %w", taskID, workspaceID, domain.ErrNotFound)
	}
	return t, nil
}

func (e *Engine) publish(ctx context.Context, workspaceID string, ev *domain.Event) {
	if e.feed == nil || ev == nil {
		return
	}
	if err := e.feed.PublishEvent(ctx, workspaceID, ev); err != nil {
		log.Warn().Err(err).Str("task_id", ev.TaskID.String()).Str("kind", string(ev.Kind)).Msg("event feed publish failed")
	}
}
