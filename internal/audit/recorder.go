// Package audit keeps a trail of contract actions taken through the bot.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"contract-bot/internal/common/logger"
)

const (
	OutcomeOK       = "ok"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Entry is one user-initiated action and how it ended.
type Entry struct {
	ChatID         int64                  `json:"chatId"`
	Action         string                 `json:"action"`
	ContractNumber string                 `json:"contractNumber,omitempty"`
	Outcome        string                 `json:"outcome"`
	Details        map[string]interface{} `json:"details,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}

type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// NopRecorder drops every entry. Used when audit is disabled.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }

const schema = `
CREATE TABLE IF NOT EXISTS bot_audit_log (
	id              BIGSERIAL PRIMARY KEY,
	chat_id         BIGINT      NOT NULL,
	action          TEXT        NOT NULL,
	contract_number TEXT,
	outcome         TEXT        NOT NULL,
	details         JSONB       NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL
)`

// PostgresRecorder appends entries to bot_audit_log.
type PostgresRecorder struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresRecorder(db *sql.DB, log logger.Logger) *PostgresRecorder {
	return &PostgresRecorder{db: db, logger: log.With(map[string]interface{}{"component": "audit"})}
}

func (r *PostgresRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, entry Entry) error {
	details := []byte("{}")
	if len(entry.Details) > 0 {
		b, err := json.Marshal(entry.Details)
		if err != nil {
			r.logger.Warn("failed to marshal audit details", map[string]interface{}{
				"error":  err,
				"action": entry.Action,
			})
		} else {
			details = b
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var number sql.NullString
	if entry.ContractNumber != "" {
		number = sql.NullString{String: entry.ContractNumber, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bot_audit_log (chat_id, action, contract_number, outcome, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ChatID,
		entry.Action,
		number,
		entry.Outcome,
		details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT chat_id, action, COALESCE(contract_number, ''), outcome, details, created_at
		FROM bot_audit_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			details []byte
		)
		if err := rows.Scan(&e.ChatID, &e.Action, &e.ContractNumber, &e.Outcome, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				r.logger.Warn("unreadable audit details", map[string]interface{}{"error": err})
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
