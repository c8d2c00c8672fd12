package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the three tables and their secondary indexes if they
// do not exist. Statements are idempotent so startup can run this
// unconditionally.
func (s *Store) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
		    id           UUID PRIMARY KEY,
		    tenant_id    TEXT NOT NULL,
		    workspace_id TEXT NOT NULL,
		    title        TEXT NOT NULL,
		    priority     TEXT NOT NULL DEFAULT 'medium',
		    state        TEXT NOT NULL DEFAULT 'new',
		    assignee_id  TEXT,
		    version      BIGINT NOT NULL DEFAULT 1,
		    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_workspace_state ON tasks (tenant_id, workspace_id, state)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_workspace_assignee ON tasks (tenant_id, workspace_id, assignee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_workspace_created ON tasks (tenant_id, workspace_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS events (
		    id         UUID PRIMARY KEY,
		    tenant_id  TEXT NOT NULL,
		    task_id    UUID NOT NULL REFERENCES tasks (id),
		    kind       TEXT NOT NULL,
		    payload    JSONB NOT NULL,
		    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_task ON events (tenant_id, task_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created ON events (tenant_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS idempotency_keys (
		    key        TEXT PRIMARY KEY,
		    response   JSONB NOT NULL,
		    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres.Store.EnsureSchema: %w", err)
		}
	}

	return nil
}
