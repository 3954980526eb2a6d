// ABOUTME: Store types and errors for drama-engine persistence
// ABOUTME: Defines prompt audit records, chat logs, and world state entries

package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// PromptRecord is one entry in the append-only audit log of dispatch
// attempts. Result holds the generated text, "NONE" for an empty reply,
// or an "ERROR: ..." marker for a failed attempt. Config is the JSON
// serialization of the generation parameters used.
type PromptRecord struct {
	ID        string
	Timestamp time.Time
	Prompt    string
	Result    string
	Config    string
}

// HistoryRecord is one logged chat message: speaker display name, text,
// and the logical timestamp it carried in the session.
type HistoryRecord struct {
	Companion string
	Message   string
	Timestamp int64
}

// ChatRecord is a persisted chat transcript.
type ChatRecord struct {
	ID      string
	History []HistoryRecord
}

// KeyValueRecord is one world-state entry.
type KeyValueRecord struct {
	Key   string
	Value string
}
