// ABOUTME: Conversation state for a single chat session
// ABOUTME: Ordered message history, session settings, and cyclic speaker order

package chat

import (
	"sort"

	"github.com/coreyalejandro/drama-engine/internal/companion"
)

// SelectionMode configures how the scheduler rotates speakers when no
// higher-priority rule applies.
type SelectionMode string

const (
	ModeRoundRobin SelectionMode = "round_robin"
	ModeRandom     SelectionMode = "random"
	ModeAuto       SelectionMode = "auto" // defer to the model-assisted fallback
)

// Message is one history entry: who spoke, what they said, and when.
// Timestamp is a logical clock supplied by the caller; Seq is assigned on
// append and breaks timestamp ties deterministically.
type Message struct {
	Companion *companion.Companion
	Text      string
	Timestamp int64
	Seq       uint64
}

// History is the append-only message log of a chat.
type History struct {
	msgs    []Message
	nextSeq uint64
}

// Append records a message and assigns its tie-break sequence number.
func (h *History) Append(c *companion.Companion, text string, timestamp int64) {
	h.msgs = append(h.msgs, Message{
		Companion: c,
		Text:      text,
		Timestamp: timestamp,
		Seq:       h.nextSeq,
	})
	h.nextSeq++
}

// Len returns the number of recorded messages.
func (h *History) Len() int { return len(h.msgs) }

// Sorted returns a copy of the history ordered by (timestamp, seq).
// Insertion order wins between entries sharing a timestamp, so the
// ordering is total and stable across calls.
func (h *History) Sorted() []Message {
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// LastSpeaker returns the companion of the maximum-timestamp entry, or nil
// for an empty history.
func (h *History) LastSpeaker() *companion.Companion {
	sorted := h.Sorted()
	if len(sorted) == 0 {
		return nil
	}
	return sorted[len(sorted)-1].Companion
}

// Chat is one conversation: its participants, settings, and history.
type Chat struct {
	ID        string
	Situation string

	// Companions participating in this chat, in configured order. The
	// cyclic round-robin order is derived from this slice.
	Companions []*companion.Companion

	SpeakerSelection   SelectionMode
	AllowRepeatSpeaker bool

	History History
}

// New creates a chat with the given participants. The default selection
// mode defers rotation to the model-assisted fallback.
func New(id, situation string, companions []*companion.Companion) *Chat {
	return &Chat{
		ID:               id,
		Situation:        situation,
		Companions:       companions,
		SpeakerSelection: ModeAuto,
	}
}

// NextCompanion returns the first member of pool that follows last in the
// chat's cyclic participant order. Falls back to the first pool member
// when last is not a participant; returns nil for an empty pool.
func (c *Chat) NextCompanion(last *companion.Companion, pool []*companion.Companion) *companion.Companion {
	if len(pool) == 0 {
		return nil
	}

	inPool := make(map[string]*companion.Companion, len(pool))
	for _, p := range pool {
		inPool[p.ID] = p
	}

	start := -1
	for i, member := range c.Companions {
		if last != nil && member.ID == last.ID {
			start = i
			break
		}
	}
	if start < 0 {
		return pool[0]
	}

	for i := 1; i <= len(c.Companions); i++ {
		member := c.Companions[(start+i)%len(c.Companions)]
		if next, ok := inPool[member.ID]; ok {
			return next
		}
	}
	return pool[0]
}
