package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists audit entries in PostgreSQL. The payload is stored
// as JSONB alongside the chain columns; a unique index on entry_hash makes
// Recorder retries idempotent.
type PostgresStore struct {
	db *sql.DB
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
    sequence        BIGINT PRIMARY KEY,
    entry_hash      TEXT NOT NULL UNIQUE,
    prev_hash       TEXT NOT NULL,
    transaction_ref TEXT NOT NULL,
    recorded_at     TIMESTAMPTZ NOT NULL,
    payload         JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_entries_txn_idx ON audit_entries (transaction_ref);
`

// NewPostgresStore opens the connection and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}
	if _, err := db.ExecContext(ctx, auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (sequence, entry_hash, prev_hash, transaction_ref, recorded_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (entry_hash) DO NOTHING`,
		e.Sequence, e.EntryHash, e.PrevHash, e.TransactionRef, e.RecordedAt, payload)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT payload FROM audit_entries ORDER BY sequence`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) ListByTransaction(ctx context.Context, txnRef string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM audit_entries WHERE transaction_ref = $1 ORDER BY sequence`, txnRef)
	if err != nil {
		return nil, fmt.Errorf("list audit entries by transaction: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// HeadHash returns the hash of the latest entry, or GenesisHash when empty.
// The Recorder seeds its chain from this on startup.
func (s *PostgresStore) HeadHash(ctx context.Context) (string, uint64, error) {
	var hash string
	var seq uint64
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_hash, sequence FROM audit_entries ORDER BY sequence DESC LIMIT 1`).
		Scan(&hash, &seq)
	if err == sql.ErrNoRows {
		return GenesisHash, 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("read audit head: %w", err)
	}
	return hash, seq, nil
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		var e Entry
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
