// ABOUTME: Mock store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory store implementation for testing.
type MockStore struct {
	mu      sync.RWMutex
	prompts []PromptRecord
	chats   map[string]*ChatRecord
	world   map[string]string

	// PromptErr, when set, is returned by AppendPromptRecord.
	PromptErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		chats: make(map[string]*ChatRecord),
		world: make(map[string]string),
	}
}

// AppendPromptRecord records an audit entry in memory.
func (m *MockStore) AppendPromptRecord(ctx context.Context, rec *PromptRecord) error {
	if m.PromptErr != nil {
		return m.PromptErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	r := *rec
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	m.prompts = append(m.prompts, r)
	return nil
}

// PromptRecords returns a copy of all recorded audit entries.
func (m *MockStore) PromptRecords() []PromptRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PromptRecord, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// LogChat stores a transcript copy keyed by chat ID.
func (m *MockStore) LogChat(ctx context.Context, rec *ChatRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := ChatRecord{ID: rec.ID, History: append([]HistoryRecord(nil), rec.History...)}
	m.chats[r.ID] = &r
	return nil
}

// GetChat retrieves a stored transcript.
func (m *MockStore) GetChat(ctx context.Context, id string) (*ChatRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := ChatRecord{ID: rec.ID, History: append([]HistoryRecord(nil), rec.History...)}
	return &out, nil
}

// SetWorldState upserts a world-state entry.
func (m *MockStore) SetWorldState(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.world[key] = value
	return nil
}

// GetWorldState returns a world-state value.
func (m *MockStore) GetWorldState(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.world[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}
