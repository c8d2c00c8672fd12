package lifecycle_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasklift/tasklift/internal/domain"
	"github.com/tasklift/tasklift/internal/lifecycle"
)

// ---------------------------------------------------------------------------
// Mock repositories — func-field style, wired into a mock store whose InTx
// runs the callback against the same repositories, so tests can observe
// exactly what happens inside the atomic unit.
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	insertFunc         func(ctx context.Context, t *domain.Task) error
	getByIDFunc        func(ctx context.Context, tenantID string, id uuid.UUID) (*domain.Task, error)
	listFunc           func(ctx context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error)
	condAssignFunc     func(ctx context.Context, tenantID string, id uuid.UUID, assigneeID string, expectedVersion int64) error
	condTransitionFunc func(ctx context.Context, tenantID string, id uuid.UUID, to domain.TaskState, expectedVersion int64) error
}

func (m *mockTaskRepo) Insert(ctx context.Context, t *domain.Task) error {
	return m.insertFunc(ctx, t)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, tenantID, id)
}

func (m *mockTaskRepo) List(ctx context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	return m.listFunc(ctx, tenantID, workspaceID, filter)
}

func (m *mockTaskRepo) ConditionalAssign(ctx context.Context, tenantID string, id uuid.UUID, assigneeID string, expectedVersion int64) error {
	return m.condAssignFunc(ctx, tenantID, id, assigneeID, expectedVersion)
}

func (m *mockTaskRepo) ConditionalTransition(ctx context.Context, tenantID string, id uuid.UUID, to domain.TaskState, expectedVersion int64) error {
	return m.condTransitionFunc(ctx, tenantID, id, to, expectedVersion)
}

type mockEventRepo struct {
	appended       []*domain.Event
	appendFunc     func(ctx context.Context, e *domain.Event) error
	listByTaskFunc func(ctx context.Context, tenantID string, taskID uuid.UUID, limit int) ([]*domain.Event, error)
	listRecentFunc func(ctx context.Context, tenantID string, limit int) ([]*domain.Event, error)
}

func (m *mockEventRepo) Append(ctx context.Context, e *domain.Event) error {
	m.appended = append(m.appended, e)
	if m.appendFunc != nil {
		return m.appendFunc(ctx, e)
	}
	return nil
}

func (m *mockEventRepo) ListByTask(ctx context.Context, tenantID string, taskID uuid.UUID, limit int) ([]*domain.Event, error) {
	return m.listByTaskFunc(ctx, tenantID, taskID, limit)
}

func (m *mockEventRepo) ListRecent(ctx context.Context, tenantID string, limit int) ([]*domain.Event, error) {
	return m.listRecentFunc(ctx, tenantID, limit)
}

type mockIdempotencyRepo struct {
	lookupFunc func(ctx context.Context, key string) (*domain.IdempotencyRecord, error)
	storeFunc  func(ctx context.Context, rec *domain.IdempotencyRecord) error
}

func (m *mockIdempotencyRepo) Lookup(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	return m.lookupFunc(ctx, key)
}

func (m *mockIdempotencyRepo) Store(ctx context.Context, rec *domain.IdempotencyRecord) error {
	return m.storeFunc(ctx, rec)
}

// mockStore satisfies lifecycle.Store. InTx hands the callback the store
// itself; a callback error is returned as the "rolled back" transaction
// error.
type mockStore struct {
	tasks       *mockTaskRepo
	events      *mockEventRepo
	idempotency *mockIdempotencyRepo
	txCalls     int
}

func (m *mockStore) Tasks() domain.TaskRepository              { return m.tasks }
func (m *mockStore) Events() domain.EventRepository            { return m.events }
func (m *mockStore) Idempotency() domain.IdempotencyRepository { return m.idempotency }

func (m *mockStore) InTx(_ context.Context, fn func(tx lifecycle.DataStore) error) error {
	m.txCalls++
	return fn(m)
}

type mockFeed struct {
	published []*domain.Event
	err       error
}

func (m *mockFeed) PublishEvent(_ context.Context, _ string, e *domain.Event) error {
	m.published = append(m.published, e)
	return m.err
}

func notFoundLookup(_ context.Context, _ string) (*domain.IdempotencyRecord, error) {
	return nil, domain.ErrNotFound
}

func storedTask(state domain.TaskState, version int64, assignee *string) *domain.Task {
	return &domain.Task{
		ID:          uuid.New(),
		TenantID:    "tenant_1",
		WorkspaceID: "ws_1",
		Title:       "Implement auth",
		Priority:    domain.PriorityHigh,
		State:       state,
		AssigneeID:  assignee,
		Version:     version,
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
		UpdatedAt:   time.Now().UTC(),
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestEngine_Create(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var inserted *domain.Task
		events := &mockEventRepo{}
		store := &mockStore{
			tasks: &mockTaskRepo{
				insertFunc: func(_ context.Context, task *domain.Task) error {
					inserted = task
					return nil
				},
			},
			events:      events,
			idempotency: &mockIdempotencyRepo{lookupFunc: notFoundLookup},
		}
		feed := &mockFeed{}
		engine := lifecycle.New(store, feed)

		rev, err := engine.Create(context.Background(), "tenant_1", "ws_1", "Implement auth", domain.PriorityHigh, "")
		require.NoError(t, err)

		require.NotNil(t, inserted)
		assert.Equal(t, "tenant_1", inserted.TenantID)
		assert.Equal(t, "ws_1", inserted.WorkspaceID)
		assert.Equal(t, domain.TaskStateNew, inserted.State)
		assert.Equal(t, int64(1), inserted.Version)
		assert.Nil(t, inserted.AssigneeID)

		assert.Equal(t, domain.TaskStateNew, rev.State)
		assert.Equal(t, int64(1), rev.Version)
		assert.Equal(t, inserted.ID, rev.TaskID)

		// Exactly one event of the matching kind, inside one atomic unit.
		require.Len(t, events.appended, 1)
		assert.Equal(t, domain.EventTaskCreated, events.appended[0].Kind)
		assert.Equal(t, inserted.ID, events.appended[0].TaskID)
		assert.Equal(t, 1, store.txCalls)

		// Committed event reaches the live feed.
		require.Len(t, feed.published, 1)
		assert.Equal(t, events.appended[0], feed.published[0])
	})

	t.Run("empty_priority_defaults_to_medium", func(t *testing.T) {
		t.Parallel()

		var inserted *domain.Task
		store := &mockStore{
			tasks: &mockTaskRepo{
				insertFunc: func(_ context.Context, task *domain.Task) error {
					inserted = task
					return nil
				},
			},
			events:      &mockEventRepo{},
			idempotency: &mockIdempotencyRepo{lookupFunc: notFoundLookup},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Create(context.Background(), "tenant_1", "ws_1", "Triage", "", "")
		require.NoError(t, err)
		assert.Equal(t, domain.PriorityMedium, inserted.Priority)
	})

	t.Run("idempotent_replay_returns_cached_response", func(t *testing.T) {
		t.Parallel()

		cached := domain.TaskRevision{TaskID: uuid.New(), State: domain.TaskStateNew, Version: 1}
		store := &mockStore{
			tasks:  &mockTaskRepo{},
			events: &mockEventRepo{},
			idempotency: &mockIdempotencyRepo{
				lookupFunc: func(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
					assert.Equal(t, "key-1", key)
					return &domain.IdempotencyRecord{Key: key, Response: cached}, nil
				},
			},
		}
		feed := &mockFeed{}
		engine := lifecycle.New(store, feed)

		rev, err := engine.Create(context.Background(), "tenant_1", "ws_1", "Implement auth", domain.PriorityHigh, "key-1")
		require.NoError(t, err)

		assert.Equal(t, cached, *rev)
		assert.Equal(t, 0, store.txCalls, "replay must not open a transaction")
		assert.Empty(t, feed.published, "replay must not publish a second event")
	})

	t.Run("key_race_loser_returns_winner_response", func(t *testing.T) {
		t.Parallel()

		winner := domain.TaskRevision{TaskID: uuid.New(), State: domain.TaskStateNew, Version: 1}
		lookups := 0
		insertCalled := false
		store := &mockStore{
			tasks: &mockTaskRepo{
				insertFunc: func(_ context.Context, _ *domain.Task) error {
					insertCalled = true
					return nil
				},
			},
			events: &mockEventRepo{},
			idempotency: &mockIdempotencyRepo{
				lookupFunc: func(_ context.Context, key string) (*domain.IdempotencyRecord, error) {
					lookups++
					if lookups == 1 {
						// First lookup misses; the concurrent writer commits
						// between the lookup and our claim.
						return nil, domain.ErrNotFound
					}
					return &domain.IdempotencyRecord{Key: key, Response: winner}, nil
				},
				storeFunc: func(_ context.Context, _ *domain.IdempotencyRecord) error {
					return domain.ErrConflict
				},
			},
		}
		engine := lifecycle.New(store, nil)

		rev, err := engine.Create(context.Background(), "tenant_1", "ws_1", "Implement auth", domain.PriorityHigh, "key-1")
		require.NoError(t, err)

		assert.Equal(t, winner, *rev)
		assert.False(t, insertCalled, "losing writer must abort before inserting a task")
	})

	t.Run("claims_key_inside_the_atomic_unit", func(t *testing.T) {
		t.Parallel()

		var order []string
		store := &mockStore{
			tasks: &mockTaskRepo{
				insertFunc: func(_ context.Context, _ *domain.Task) error {
					order = append(order, "insert")
					return nil
				},
			},
			events: &mockEventRepo{
				appendFunc: func(_ context.Context, _ *domain.Event) error {
					order = append(order, "append")
					return nil
				},
			},
			idempotency: &mockIdempotencyRepo{
				lookupFunc: notFoundLookup,
				storeFunc: func(_ context.Context, rec *domain.IdempotencyRecord) error {
					order = append(order, "claim")
					assert.Equal(t, "key-1", rec.Key)
					return nil
				},
			},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Create(context.Background(), "tenant_1", "ws_1", "Implement auth", domain.PriorityHigh, "key-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"claim", "insert", "append"}, order)
	})
}

// ---------------------------------------------------------------------------
// Assign
// ---------------------------------------------------------------------------

func TestEngine_Assign(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 1, nil)
		var condCalled bool
		events := &mockEventRepo{}
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, tenantID string, id uuid.UUID) (*domain.Task, error) {
					assert.Equal(t, "tenant_1", tenantID)
					assert.Equal(t, task.ID, id)
					return task, nil
				},
				condAssignFunc: func(_ context.Context, _ string, _ uuid.UUID, assigneeID string, expectedVersion int64) error {
					condCalled = true
					assert.Equal(t, "user_123", assigneeID)
					assert.Equal(t, int64(1), expectedVersion)
					return nil
				},
			},
			events: events,
		}
		feed := &mockFeed{}
		engine := lifecycle.New(store, feed)

		rev, err := engine.Assign(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleManager, "user_123", 1)
		require.NoError(t, err)

		assert.True(t, condCalled)
		assert.Equal(t, domain.TaskStateNew, rev.State, "assignment does not change state")
		assert.Equal(t, int64(2), rev.Version)

		require.Len(t, events.appended, 1)
		assert.Equal(t, domain.EventTaskAssigned, events.appended[0].Kind)
		assert.Equal(t, "user_123", events.appended[0].Payload["assignee_id"])
		require.Len(t, feed.published, 1)
	})

	t.Run("task_not_found", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return nil, domain.ErrNotFound
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Assign(context.Background(), "tenant_1", "ws_1", uuid.New(), domain.RoleManager, "user_123", 1)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("workspace_scope_is_not_found", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 1, nil)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Assign(context.Background(), "tenant_1", "ws_other", task.ID, domain.RoleManager, "user_123", 1)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("terminal_state_rejected", func(t *testing.T) {
		t.Parallel()

		for _, state := range []domain.TaskState{domain.TaskStateDone, domain.TaskStateCancelled} {
			task := storedTask(state, 5, nil)
			store := &mockStore{
				tasks: &mockTaskRepo{
					getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
						return task, nil
					},
				},
				events: &mockEventRepo{},
			}
			engine := lifecycle.New(store, nil)

			_, err := engine.Assign(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleManager, "user_123", 5)
			require.ErrorIs(t, err, domain.ErrInvalidState, "state %s", state)
		}
	})

	t.Run("agent_may_not_assign", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 1, nil)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Assign(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleAgent, "user_123", 1)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("stale_version_rejected_without_write", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 2, nil)
		var condCalled bool
		events := &mockEventRepo{}
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
				condAssignFunc: func(_ context.Context, _ string, _ uuid.UUID, _ string, _ int64) error {
					condCalled = true
					return nil
				},
			},
			events: events,
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Assign(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleManager, "user_123", 1)
		require.ErrorIs(t, err, domain.ErrVersionMismatch)
		assert.False(t, condCalled)
		assert.Empty(t, events.appended, "no event on a rejected mutation")
	})

	t.Run("write_time_race_surfaces_version_mismatch", func(t *testing.T) {
		t.Parallel()

		// The read sees a matching version but a concurrent writer commits
		// first; the conditional write loses and nothing is applied.
		task := storedTask(domain.TaskStateNew, 1, nil)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
				condAssignFunc: func(_ context.Context, _ string, _ uuid.UUID, _ string, _ int64) error {
					return domain.ErrVersionMismatch
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Assign(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleManager, "user_123", 1)
		require.ErrorIs(t, err, domain.ErrVersionMismatch)
	})
}

// ---------------------------------------------------------------------------
// Transition
// ---------------------------------------------------------------------------

func TestEngine_Transition(t *testing.T) {
	t.Parallel()

	assignee := "user_123"

	t.Run("assigned_agent_starts_task", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 2, &assignee)
		events := &mockEventRepo{}
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
				condTransitionFunc: func(_ context.Context, _ string, _ uuid.UUID, to domain.TaskState, expectedVersion int64) error {
					assert.Equal(t, domain.TaskStateInProgress, to)
					assert.Equal(t, int64(2), expectedVersion)
					return nil
				},
			},
			events: events,
		}
		feed := &mockFeed{}
		engine := lifecycle.New(store, feed)

		rev, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleAgent, "user_123", domain.TaskStateInProgress, 2)
		require.NoError(t, err)

		assert.Equal(t, domain.TaskStateInProgress, rev.State)
		assert.Equal(t, int64(3), rev.Version)

		require.Len(t, events.appended, 1)
		assert.Equal(t, domain.EventTaskStateChanged, events.appended[0].Kind)
		assert.Equal(t, map[string]any{"from": "new", "to": "in_progress"}, events.appended[0].Payload)
		require.Len(t, feed.published, 1)
	})

	t.Run("manager_cancels", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateInProgress, 3, &assignee)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
				condTransitionFunc: func(_ context.Context, _ string, _ uuid.UUID, to domain.TaskState, _ int64) error {
					assert.Equal(t, domain.TaskStateCancelled, to)
					return nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		rev, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleManager, "mgr_1", domain.TaskStateCancelled, 3)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStateCancelled, rev.State)
		assert.Equal(t, int64(4), rev.Version)
	})

	t.Run("manager_may_only_cancel", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateInProgress, 3, &assignee)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleManager, "mgr_1", domain.TaskStateDone, 3)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("agent_actor_must_match_assignee", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 2, &assignee)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleAgent, "user_456", domain.TaskStateInProgress, 2)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("absent_edge_rejected_for_every_role", func(t *testing.T) {
		t.Parallel()

		for _, role := range []domain.Role{domain.RoleManager, domain.RoleAgent} {
			task := storedTask(domain.TaskStateNew, 1, &assignee)
			store := &mockStore{
				tasks: &mockTaskRepo{
					getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
						return task, nil
					},
				},
				events: &mockEventRepo{},
			}
			engine := lifecycle.New(store, nil)

			_, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, role, "user_123", domain.TaskStateDone, 1)
			require.ErrorIs(t, err, domain.ErrInvalidTransition, "role %s", role)
		}
	})

	t.Run("terminal_state_rejected", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateDone, 4, &assignee)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleManager, "mgr_1", domain.TaskStateCancelled, 4)
		require.ErrorIs(t, err, domain.ErrInvalidState)
	})

	t.Run("stale_version_rejected", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateInProgress, 3, &assignee)
		var condCalled bool
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
				condTransitionFunc: func(_ context.Context, _ string, _ uuid.UUID, _ domain.TaskState, _ int64) error {
					condCalled = true
					return nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleAgent, "user_123", domain.TaskStateDone, 2)
		require.ErrorIs(t, err, domain.ErrVersionMismatch)
		assert.False(t, condCalled)
	})

	t.Run("feed_failure_does_not_fail_the_mutation", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 1, &assignee)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
				condTransitionFunc: func(_ context.Context, _ string, _ uuid.UUID, _ domain.TaskState, _ int64) error {
					return nil
				},
			},
			events: &mockEventRepo{},
		}
		feed := &mockFeed{err: errors.New("redis down")}
		engine := lifecycle.New(store, feed)

		_, err := engine.Transition(context.Background(), "tenant_1", "ws_1", task.ID, domain.RoleAgent, "user_123", domain.TaskStateInProgress, 1)
		require.NoError(t, err)
	})
}

// ---------------------------------------------------------------------------
// Get / List / ListEvents
// ---------------------------------------------------------------------------

func TestEngine_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns_task_with_timeline", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateInProgress, 3, nil)
		timeline := []*domain.Event{
			{ID: uuid.New(), TaskID: task.ID, Kind: domain.EventTaskStateChanged},
			{ID: uuid.New(), TaskID: task.ID, Kind: domain.EventTaskCreated},
		}
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
			},
			events: &mockEventRepo{
				listByTaskFunc: func(_ context.Context, tenantID string, taskID uuid.UUID, limit int) ([]*domain.Event, error) {
					assert.Equal(t, "tenant_1", tenantID)
					assert.Equal(t, task.ID, taskID)
					assert.Equal(t, 50, limit)
					return timeline, nil
				},
			},
		}
		engine := lifecycle.New(store, nil)

		got, gotTimeline, err := engine.Get(context.Background(), "tenant_1", "ws_1", task.ID)
		require.NoError(t, err)
		assert.Equal(t, task, got)
		assert.Equal(t, timeline, gotTimeline)
	})

	t.Run("workspace_scope_is_not_found", func(t *testing.T) {
		t.Parallel()

		task := storedTask(domain.TaskStateNew, 1, nil)
		store := &mockStore{
			tasks: &mockTaskRepo{
				getByIDFunc: func(_ context.Context, _ string, _ uuid.UUID) (*domain.Task, error) {
					return task, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, _, err := engine.Get(context.Background(), "tenant_1", "ws_other", task.ID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestEngine_List(t *testing.T) {
	t.Parallel()

	t.Run("applies_default_page_size", func(t *testing.T) {
		t.Parallel()

		store := &mockStore{
			tasks: &mockTaskRepo{
				listFunc: func(_ context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error) {
					assert.Equal(t, "tenant_1", tenantID)
					assert.Equal(t, "ws_1", workspaceID)
					assert.Equal(t, domain.DefaultPageSize, filter.Limit)
					return nil, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.List(context.Background(), "tenant_1", "ws_1", domain.TaskFilter{})
		require.NoError(t, err)
	})

	t.Run("passes_filters_through", func(t *testing.T) {
		t.Parallel()

		state := domain.TaskStateInProgress
		assignee := "user_123"
		before := time.Now().UTC()
		store := &mockStore{
			tasks: &mockTaskRepo{
				listFunc: func(_ context.Context, _, _ string, filter domain.TaskFilter) ([]*domain.Task, error) {
					assert.Equal(t, &state, filter.State)
					assert.Equal(t, &assignee, filter.AssigneeID)
					assert.Equal(t, &before, filter.Before)
					assert.Equal(t, 7, filter.Limit)
					return nil, nil
				},
			},
			events: &mockEventRepo{},
		}
		engine := lifecycle.New(store, nil)

		_, err := engine.List(context.Background(), "tenant_1", "ws_1", domain.TaskFilter{
			State:      &state,
			AssigneeID: &assignee,
			Before:     &before,
			Limit:      7,
		})
		require.NoError(t, err)
	})
}

func TestEngine_ListEvents(t *testing.T) {
	t.Parallel()

	store := &mockStore{
		tasks: &mockTaskRepo{},
		events: &mockEventRepo{
			listRecentFunc: func(_ context.Context, tenantID string, limit int) ([]*domain.Event, error) {
				assert.Equal(t, "tenant_1", tenantID)
				assert.Equal(t, 50, limit, "zero limit falls back to the default")
				return nil, nil
			},
		},
	}
	engine := lifecycle.New(store, nil)

	_, err := engine.ListEvents(context.Background(), "tenant_1", 0)
	require.NoError(t, err)
}
