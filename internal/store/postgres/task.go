package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tasklift/tasklift/internal/domain"
)

type TaskRepo struct {
	db DBTX
}

func NewTaskRepo(db DBTX) *TaskRepo {
	return &TaskRepo{db: db}
}

func (r *TaskRepo) Insert(ctx context.Context, t *domain.Task) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO tasks (id, tenant_id, workspace_id, title, priority, state, assignee_id, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.TenantID, t.WorkspaceID, t.Title, t.Priority,
		t.State, t.AssigneeID, t.Version, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Insert: %w", err)
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, tenantID string, id uuid.UUID) (*domain.Task, error) {
	var t domain.Task

	err := r.db.QueryRow(ctx,
		`SELECT id, tenant_id, workspace_id, title, priority, state, assignee_id, version, created_at, updated_at
		 FROM tasks WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(
		&t.ID, &t.TenantID, &t.WorkspaceID, &t.Title, &t.Priority,
		&t.State, &t.AssigneeID, &t.Version, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetByID: %w", err)
	}

	return &t, nil
}

func (r *TaskRepo) List(ctx context.Context, tenantID, workspaceID string, filter domain.TaskFilter) ([]*domain.Task, error) {
	query := `SELECT id, tenant_id, workspace_id, title, priority, state, assignee_id, version, created_at, updated_at
	 FROM tasks WHERE tenant_id = $1 AND workspace_id = $2`
	args := []any{tenantID, workspaceID}

	if filter.State != nil {
		args = append(args, *filter.State)
		query += fmt.Sprintf(" AND state = $%d", len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if filter.Before != nil {
		args = append(args, *filter.Before)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.List: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows, "taskRepo.List")
}

// ConditionalAssign sets the assignee and bumps the version, guarded by the
// version observed at read time. Zero rows affected means a concurrent
// mutation won the race after our read: the defining optimistic-concurrency
// failure, reported as ErrVersionMismatch with nothing applied.
func (r *TaskRepo) ConditionalAssign(ctx context.Context, tenantID string, id uuid.UUID, assigneeID string, expectedVersion int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET assignee_id = $1, version = version + 1, updated_at = now()
		 WHERE tenant_id = $2 AND id = $3 AND version = $4`,
		assigneeID, tenantID, id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.ConditionalAssign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.ConditionalAssign: %w", domain.ErrVersionMismatch)
	}

	return nil
}

// ConditionalTransition is the same version-guarded write as
// ConditionalAssign, mutating state instead of assignee. Authorization must
// already have been evaluated by the caller against the read this write is
// conditioned on.
func (r *TaskRepo) ConditionalTransition(ctx context.Context, tenantID string, id uuid.UUID, to domain.TaskState, expectedVersion int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE tasks SET state = $1, version = version + 1, updated_at = now()
		 WHERE tenant_id = $2 AND id = $3 AND version = $4`,
		to, tenantID, id, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.ConditionalTransition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.ConditionalTransition: %w", domain.ErrVersionMismatch)
	}

	return nil
}

func scanTasks(rows pgx.Rows, caller string) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(
			&t.ID, &t.TenantID, &t.WorkspaceID, &t.Title, &t.Priority,
			&t.State, &t.AssigneeID, &t.Version, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return tasks, nil
}
