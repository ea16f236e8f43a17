package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of *pgxpool.Pool the Postgres store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const sessionSchema = `
CREATE TABLE IF NOT EXISTS dashboard_sessions (
	id         UUID PRIMARY KEY,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS dashboard_sessions_updated_at_idx
	ON dashboard_sessions (updated_at);
`

// PostgresStore keeps sessions in the dashboard_sessions table so they
// survive restarts and are shared between replicas.
type PostgresStore struct {
	db DBTX
}

// NewPostgresStore returns a store backed by db.
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the sessions table if it does not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, sessionSchema); err != nil {
		return fmt.Errorf("create session schema: %w", err)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (State, error) {
	key, err := toPgUUID(id)
	if err != nil {
		return State{}, ErrSessionNotFound
	}

	var (
		raw       []byte
		updatedAt pgtype.Timestamptz
	)
	err = p.db.QueryRow(ctx,
		`SELECT state, updated_at FROM dashboard_sessions WHERE id = $1`, key,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return State{}, ErrSessionNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("load session: %w", err)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("decode session: %w", err)
	}
	if updatedAt.Valid {
		s.UpdatedAt = updatedAt.Time
	}
	return s, nil
}

func (p *PostgresStore) Put(ctx context.Context, id string, s State) error {
	key, err := toPgUUID(id)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}

	s.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = p.db.Exec(ctx, `
		INSERT INTO dashboard_sessions (id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		key, raw, pgtype.Timestamptz{Time: s.UpdatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	key, err := toPgUUID(id)
	if err != nil {
		return nil
	}
	if _, err := p.db.Exec(ctx, `DELETE FROM dashboard_sessions WHERE id = $1`, key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (p *PostgresStore) PurgeExpired(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := p.db.Exec(ctx,
		`DELETE FROM dashboard_sessions WHERE updated_at < $1`,
		pgtype.Timestamptz{Time: olderThan, Valid: true},
	)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// toPgUUID converts a session ID to a pgtype.UUID.
func toPgUUID(s string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("invalid session id %q: %w", s, err)
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
