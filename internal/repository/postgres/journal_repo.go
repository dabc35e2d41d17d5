package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xela07ax/agentmarket-console/internal/audit"
)

const (
	journalColumns   = 10
	defaultListLimit = 50
	maxListLimit     = 500
)

const journalSchema = `
CREATE TABLE IF NOT EXISTS operation_journal (
	id          UUID PRIMARY KEY,
	trace_id    TEXT NOT NULL DEFAULT '',
	kind        TEXT NOT NULL,
	payload     JSONB,
	status      TEXT NOT NULL,
	result      TEXT NOT NULL DEFAULT '',
	http_status INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	timestamp   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS operation_journal_timestamp_idx ON operation_journal (timestamp DESC);`

type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// EnsureSchema создает таблицу журнала, если ее еще нет.
func (r *JournalRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, journalSchema); err != nil {
		return fmt.Errorf("postgres: journal schema: %w", err)
	}
	return nil
}

// WriteBatch пишет пачку записей одним INSERT.
func (r *JournalRepo) WriteBatch(ctx context.Context, entries []audit.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	query, vals := buildJournalInsert(entries)
	if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: journal insert: %w", err)
	}
	return nil
}

// ListRecent возвращает последние записи, новые первыми.
func (r *JournalRepo) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, trace_id, kind, COALESCE(payload::text, ''), status, result, http_status, duration_ms, error, timestamp
		FROM operation_journal
		ORDER BY timestamp DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: journal list: %w", err)
	}
	defer rows.Close()

	out := make([]audit.Entry, 0, limit)
	for rows.Next() {
		var (
			e       audit.Entry
			payload string
		)
		if err := rows.Scan(&e.ID, &e.TraceID, &e.Kind, &payload, &e.Status, &e.Result,
			&e.HTTPStatus, &e.DurationMs, &e.Error, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("postgres: journal scan: %w", err)
		}
		if payload != "" {
			e.Payload = []byte(payload)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func buildJournalInsert(entries []audit.Entry) (string, []any) {
	var sb strings.Builder
	vals := make([]any, 0, len(entries)*journalColumns)

	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		p := i * journalColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		// Пустой payload пишем как NULL, иначе JSONB не примет ""
		var payload any
		if len(e.Payload) > 0 {
			payload = string(e.Payload)
		}
		vals = append(vals,
			e.ID, e.TraceID, e.Kind, payload, e.Status,
			e.Result, e.HTTPStatus, e.DurationMs, e.Error, e.Timestamp,
		)
	}

	query := "INSERT INTO operation_journal (id, trace_id, kind, payload, status, result, http_status, duration_ms, error, timestamp) VALUES " +
		sb.String() + " ON CONFLICT (id) DO NOTHING"
	return query, vals
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
