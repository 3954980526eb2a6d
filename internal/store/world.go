// ABOUTME: World key-value state persistence
// ABOUTME: Session-wide facts plus per-companion interaction counters

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SetWorldState upserts one world-state entry.
func (s *SQLiteStore) SetWorldState(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO world_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("upserting world state: %w", err)
	}
	return nil
}

// GetWorldState returns one world-state value. Returns ErrNotFound for an
// unknown key.
func (s *SQLiteStore) GetWorldState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM world_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying world state: %w", err)
	}
	return value, nil
}

// World returns all world-state entries.
func (s *SQLiteStore) World(ctx context.Context) ([]KeyValueRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM world_state ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying world state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []KeyValueRecord
	for rows.Next() {
		var kv KeyValueRecord
		if err := rows.Scan(&kv.Key, &kv.Value); err != nil {
			return nil, fmt.Errorf("scanning world state: %w", err)
		}
		entries = append(entries, kv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating world state: %w", err)
	}
	return entries, nil
}

// SeedCompanionCounters writes zeroed interaction and action counters for
// each companion ID, overwriting any existing values. Called once at
// persona-load time.
func (s *SQLiteStore) SeedCompanionCounters(ctx context.Context, companionIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range companionIDs {
		upper := strings.ToUpper(id)
		for _, key := range []string{"COMPANION_INTERACTIONS_" + upper, "COMPANION_ACTIONS_" + upper} {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO world_state (key, value) VALUES (?, '0')
				ON CONFLICT(key) DO UPDATE SET value = '0'
			`, key); err != nil {
				return fmt.Errorf("seeding counter %s: %w", key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing counters: %w", err)
	}
	return nil
}
