package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tasklift/tasklift/internal/domain"
)

type IdempotencyRepo struct {
	db DBTX
}

func NewIdempotencyRepo(db DBTX) *IdempotencyRepo {
	return &IdempotencyRepo{db: db}
}

func (r *IdempotencyRepo) Lookup(ctx context.Context, key string) (*domain.IdempotencyRecord, error) {
	var (
		rec      domain.IdempotencyRecord
		response []byte
	)

	err := r.db.QueryRow(ctx,
		`SELECT key, response, created_at FROM idempotency_keys WHERE key = $1`,
		key,
	).Scan(&rec.Key, &response, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("idempotencyRepo.Lookup: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("idempotencyRepo.Lookup: %w", err)
	}

	if err := json.Unmarshal(response, &rec.Response); err != nil {
		return nil, fmt.Errorf("idempotencyRepo.Lookup: unmarshal response: %w", err)
	}

	return &rec, nil
}

// Store claims the key with first-write-wins semantics. ON CONFLICT DO
// NOTHING never touches the existing row; a losing write reports ErrConflict
// so the caller can roll back its unit and return the original response.
func (r *IdempotencyRepo) Store(ctx context.Context, rec *domain.IdempotencyRecord) error {
	response, err := json.Marshal(rec.Response)
	if err != nil {
		return fmt.Errorf("idempotencyRepo.Store: marshal response: %w", err)
	}

	tag, err := r.db.Exec(ctx,
		`INSERT INTO idempotency_keys (key, response, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		rec.Key, response, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("idempotencyRepo.Store: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idempotencyRepo.Store: key %q already claimed: %w", rec.Key, domain.ErrConflict)
	}

	return nil
}
