// ABOUTME: Conversion of chat history into persistable transcript records
// ABOUTME: Internal shell speakers are filtered out before logging

package chat

import (
	"github.com/coreyalejandro/drama-engine/internal/companion"
	"github.com/coreyalejandro/drama-engine/internal/store"
)

// Record converts the chat history into a storable transcript. Only user
// and npc messages are kept; internal shell exchanges never leave the
// session.
func (c *Chat) Record() *store.ChatRecord {
	rec := &store.ChatRecord{ID: c.ID}
	for _, msg := range c.History.Sorted() {
		kind := msg.Companion.Config.Kind
		if kind != companion.KindNPC && kind != companion.KindUser {
			continue
		}
		rec.History = append(rec.History, store.HistoryRecord{
			Companion: msg.Companion.Config.Name,
			Message:   msg.Text,
			Timestamp: msg.Timestamp,
		})
	}
	return rec
}
