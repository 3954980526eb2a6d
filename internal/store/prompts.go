// ABOUTME: Append-only prompt audit log
// ABOUTME: Records every dispatch attempt with its result or error marker

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppendPromptRecord appends one entry to the prompt audit log. Generates
// ID and Timestamp if not set. Each append is a single indivisible insert,
// so concurrent dispatches never interleave partial records.
func (s *SQLiteStore) AppendPromptRecord(ctx context.Context, rec *PromptRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO prompt_log (id, ts, prompt, result, config_json)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Prompt,
		rec.Result,
		rec.Config,
	)
	if err != nil {
		return fmt.Errorf("inserting prompt record: %w", err)
	}

	s.logger.Debug("appended prompt record", "id", rec.ID)
	return nil
}

// ListPromptRecords returns audit entries, oldest first, capped at limit
// (default 100, max 1000 when limit is out of range).
func (s *SQLiteStore) ListPromptRecords(ctx context.Context, limit int) ([]PromptRecord, error) {
	switch {
	case limit <= 0:
		limit = 100
	case limit > 1000:
		limit = 1000
	}

	query := `
		SELECT id, ts, prompt, result, config_json
		FROM prompt_log
		ORDER BY ts ASC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying prompt log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []PromptRecord
	for rows.Next() {
		var rec PromptRecord
		var tsStr string
		if err := rows.Scan(&rec.ID, &tsStr, &rec.Prompt, &rec.Result, &rec.Config); err != nil {
			return nil, fmt.Errorf("scanning prompt record: %w", err)
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prompt records: %w", err)
	}

	if records == nil {
		records = []PromptRecord{}
	}
	return records, nil
}
