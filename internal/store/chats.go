// ABOUTME: Chat transcript persistence
// ABOUTME: Stores the full message log of a chat, replacing any prior copy

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LogChat writes the whole history of a chat, replacing any previously
// stored transcript for the same ID. Callers filter out internal speakers
// before logging.
func (s *SQLiteStore) LogChat(ctx context.Context, rec *ChatRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chats (id, updated_at) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, rec.ID, now); err != nil {
		return fmt.Errorf("upserting chat: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE chat_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("clearing chat messages: %w", err)
	}

	for i, msg := range rec.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_messages (chat_id, seq, companion, message, ts)
			VALUES (?, ?, ?, ?, ?)
		`, rec.ID, i, msg.Companion, msg.Message, msg.Timestamp); err != nil {
			return fmt.Errorf("inserting chat message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chat log: %w", err)
	}

	s.logger.Debug("logged chat", "chat_id", rec.ID, "messages", len(rec.History))
	return nil
}

// GetChat returns a stored transcript. Returns ErrNotFound for an unknown
// chat ID.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*ChatRecord, error) {
	var chatID string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM chats WHERE id = ?`, id).Scan(&chatID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying chat: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT companion, message, ts
		FROM chat_messages
		WHERE chat_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("querying chat messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	rec := &ChatRecord{ID: chatID}
	for rows.Next() {
		var msg HistoryRecord
		if err := rows.Scan(&msg.Companion, &msg.Message, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		rec.History = append(rec.History, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}
	return rec, nil
}

// ListChats returns the IDs of all stored chats.
func (s *SQLiteStore) ListChats(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning chat id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chats: %w", err)
	}
	return ids, nil
}

// DeleteChat removes a stored transcript and its messages.
func (s *SQLiteStore) DeleteChat(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting chat: %w", err)
	}
	return nil
}
