package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tasklift/tasklift/internal/domain"
)

type EventRepo struct {
	db DBTX
}

func NewEventRepo(db DBTX) *EventRepo {
	return &EventRepo{db: db}
}

// Append inserts one outbox record. The log is append-only: no update or
// delete path exists.
func (r *EventRepo) Append(ctx context.Context, e *domain.Event) error {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("eventRepo.Append: marshal payload: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO events (id, tenant_id, task_id, kind, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.TenantID, e.TaskID, e.Kind, payload, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("eventRepo.Append: %w", err)
	}

	return nil
}

func (r *EventRepo) ListByTask(ctx context.Context, tenantID string, taskID uuid.UUID, limit int) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, tenant_id, task_id, kind, payload, created_at
		 FROM events WHERE tenant_id = $1 AND task_id = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		tenantID, taskID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("eventRepo.ListByTask: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows, "eventRepo.ListByTask")
}

func (r *EventRepo) ListRecent(ctx context.Context, tenantID string, limit int) ([]*domain.Event, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, tenant_id, task_id, kind, payload, created_at
		 FROM events WHERE tenant_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("eventRepo.ListRecent: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows, "eventRepo.ListRecent")
}

func scanEvents(rows pgx.Rows, caller string) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		var e domain.Event
		var payload []byte

		if err := rows.Scan(&e.ID, &e.TenantID, &e.TaskID, &e.Kind, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", caller, err)
		}
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("%s: unmarshal payload: %w", caller, err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", caller, err)
	}

	return events, nil
}
