package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasklift/tasklift/internal/domain"
	"github.com/tasklift/tasklift/internal/lifecycle"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx. Repositories
// run on it so the same code serves both pooled reads and transactional
// mutations.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool        *pgxpool.Pool
	tasks       *TaskRepo
	events      *EventRepo
	idempotency *IdempotencyRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		tasks:       NewTaskRepo(pool),
		events:      NewEventRepo(pool),
		idempotency: NewIdempotencyRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Tasks() domain.TaskRepository              { return s.tasks }
func (s *Store) Events() domain.EventRepository            { return s.events }
func (s *Store) Idempotency() domain.IdempotencyRepository { return s.idempotency }

// InTx runs fn against repositories bound to one pgx transaction. Either
// every mutation inside fn commits or none do; this is the atomic unit the
// lifecycle engine builds its outbox and optimistic-locking guarantees on.
func (s *Store) InTx(ctx context.Context, fn func(tx lifecycle.DataStore) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&txStore{
			tasks:       NewTaskRepo(tx),
			events:      NewEventRepo(tx),
			idempotency: NewIdempotencyRepo(tx),
		})
	})
}

// txStore is the transaction-bound view handed to InTx callbacks.
type txStore struct {
	tasks       *TaskRepo
	events      *EventRepo
	idempotency *IdempotencyRepo
}

func (t *txStore) Tasks() domain.TaskRepository              { return t.tasks }
func (t *txStore) Events() domain.EventRepository            { return t.events }
func (t *txStore) Idempotency() domain.IdempotencyRepository { return t.idempotency }
