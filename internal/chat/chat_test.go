// ABOUTME: Tests for chat history ordering and session helpers
// ABOUTME: Verifies timestamp sorting, tie-breaks, and the cyclic speaker order

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyalejandro/drama-engine/internal/companion"
)

func npc(name string) *companion.Companion {
	return companion.New(companion.Config{Name: name, Kind: companion.KindNPC})
}

func TestHistory_SortedByTimestamp(t *testing.T) {
	alice, bob := npc("Alice"), npc("Bob")

	var h History
	h.Append(bob, "second", 20)
	h.Append(alice, "first", 10)

	sorted := h.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "first", sorted[0].Text)
	assert.Equal(t, "second", sorted[1].Text)
}

func TestHistory_TimestampTieBreaksByInsertion(t *testing.T) {
	alice, bob := npc("Alice"), npc("Bob")

	var h History
	h.Append(alice, "a", 5)
	h.Append(bob, "b", 5)

	sorted := h.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "a", sorted[0].Text)
	assert.Equal(t, "b", sorted[1].Text)

	// Repeated sorts never reorder ties.
	again := h.Sorted()
	assert.Equal(t, sorted[0].Text, again[0].Text)
	assert.Equal(t, sorted[1].Text, again[1].Text)
}

func TestHistory_LastSpeaker(t *testing.T) {
	alice, bob := npc("Alice"), npc("Bob")

	var h History
	assert.Nil(t, h.LastSpeaker())

	h.Append(bob, "late entry, early timestamp", 1)
	h.Append(alice, "spoken last", 9)
	// Appended out of order on purpose.
	h.Append(bob, "middle", 5)

	require.NotNil(t, h.LastSpeaker())
	assert.Equal(t, alice.ID, h.LastSpeaker().ID)
}

func TestChat_NextCompanion_Cycles(t *testing.T) {
	alice, bob, carol := npc("Alice"), npc("Bob"), npc("Carol")
	c := New("c1", "test", []*companion.Companion{alice, bob, carol})

	pool := []*companion.Companion{alice, bob, carol}
	assert.Equal(t, bob.ID, c.NextCompanion(alice, pool).ID)
	assert.Equal(t, carol.ID, c.NextCompanion(bob, pool).ID)
	assert.Equal(t, alice.ID, c.NextCompanion(carol, pool).ID)
}

func TestChat_NextCompanion_SkipsMembersOutsidePool(t *testing.T) {
	alice, bob, carol := npc("Alice"), npc("Bob"), npc("Carol")
	c := New("c1", "test", []*companion.Companion{alice, bob, carol})

	// Bob is not in the pool, so Alice's successor is Carol.
	pool := []*companion.Companion{alice, carol}
	assert.Equal(t, carol.ID, c.NextCompanion(alice, pool).ID)
}

func TestChat_NextCompanion_EmptyPool(t *testing.T) {
	alice := npc("Alice")
	c := New("c1", "test", []*companion.Companion{alice})
	assert.Nil(t, c.NextCompanion(alice, nil))
}

func TestChat_Record_FiltersShellSpeakers(t *testing.T) {
	alice := npc("Alice")
	you := companion.New(companion.Config{Name: "You", Kind: companion.KindUser})
	shell := companion.New(companion.ModeratorConfig)

	c := New("c1", "test", []*companion.Companion{you, alice})
	c.History.Append(you, "hello", 1)
	c.History.Append(shell, "internal exchange", 2)
	c.History.Append(alice, "hi there", 3)

	rec := c.Record()
	require.Equal(t, "c1", rec.ID)
	require.Len(t, rec.History, 2)
	assert.Equal(t, "You", rec.History[0].Companion)
	assert.Equal(t, "Alice", rec.History[1].Companion)
}
