package eventlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderflow/ordersvc/internal/domain"
	"github.com/orderflow/ordersvc/internal/outbox"
)

// Schema is the DDL for the event log and its outbox. The unique constraints
// back the optimistic concurrency check for races the version pre-check
// cannot see.
const Schema = `
CREATE TABLE IF NOT EXISTS order_events (
	event_id       uuid        PRIMARY KEY,
	aggregate_id   text        NOT NULL,
	aggregate_type text        NOT NULL,
	event_type     text        NOT NULL,
	version        bigint      NOT NULL,
	occurred_at    timestamptz NOT NULL,
	payload        jsonb       NOT NULL,
	UNIQUE (aggregate_id, version)
);

CREATE TABLE IF NOT EXISTS order_outbox (
	id           bigserial   PRIMARY KEY,
	event_id     uuid        NOT NULL REFERENCES order_events (event_id),
	published_at timestamptz
);

CREATE INDEX IF NOT EXISTS order_outbox_pending_idx
	ON order_outbox (id) WHERE published_at IS NULL;
`

// Postgres stores events and outbox entries in one transaction per append.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate applies the schema. Safe to run at every boot.
func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *Postgres) Append(ctx context.Context, aggregateID string, expectedVersion int64, events []domain.Event) error {
	envs, err := encodeBatch(aggregateID, expectedVersion, events)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	var head int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM order_events WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&head)
	if err != nil {
		return fmt.Errorf("read head version: %w", err)
	}
	if head != expectedVersion {
		return fmt.Errorf("%w: aggregate %s at version %d, expected %d", ErrConcurrencyConflict, aggregateID, head, expectedVersion)
	}

	for _, env := range envs {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_events (event_id, aggregate_id, aggregate_type, event_type, version, occurred_at, payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			env.EventID, env.AggregateID, env.AggregateType, env.EventType, env.Version, env.OccurredAt, env.Payload,
		)
		if err != nil {
			return mapInsertErr(err)
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO order_outbox (event_id) VALUES ($1)`,
			env.EventID,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// mapInsertErr folds unique violations into the concurrency category; other
// storage failures pass through unchanged.
func mapInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConcurrencyConflict, pgErr.ConstraintName)
	}
	return fmt.Errorf("insert event: %w", err)
}

func (s *Postgres) Load(ctx context.Context, aggregateID string) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT event_id, aggregate_id, aggregate_type, event_type, version, occurred_at, payload
		 FROM order_events WHERE aggregate_id = $1 ORDER BY version ASC`,
		aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		var env domain.Envelope
		if err := rows.Scan(&env.EventID, &env.AggregateID, &env.AggregateType, &env.EventType, &env.Version, &env.OccurredAt, &env.Payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev, err := domain.Decode(env)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Pending implements outbox.Store.
func (s *Postgres) Pending(ctx context.Context, limit int) ([]outbox.Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT o.id, e.event_id, e.aggregate_id, e.aggregate_type, e.event_type, e.version, e.occurred_at, e.payload
		 FROM order_outbox o
		 JOIN order_events e ON e.event_id = o.event_id
		 WHERE o.published_at IS NULL
		 ORDER BY o.id ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("load pending outbox: %w", err)
	}
	defer rows.Close()

	var entries []outbox.Entry
	for rows.Next() {
		var entry outbox.Entry
		env := &entry.Envelope
		if err := rows.Scan(&entry.ID, &env.EventID, &env.AggregateID, &env.AggregateType, &env.EventType, &env.Version, &env.OccurredAt, &env.Payload); err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkPublished implements outbox.Store.
func (s *Postgres) MarkPublished(ctx context.Context, ids []int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE order_outbox SET published_at = now() WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}
