// ABOUTME: Tests for the companion registry
// ABOUTME: Verifies ordering, duplicate rejection, and deputy resolution

package companion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddAndList(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(New(Config{Name: "Alice", Kind: KindNPC})))
	require.NoError(t, r.Add(New(Config{Name: "Bob", Kind: KindNPC})))

	got := r.List()
	require.Len(t, got, 2)
	assert.Equal(t, "alice", got[0].ID)
	assert.Equal(t, "bob", got[1].ID)
}

func TestRegistry_RejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(New(Config{Name: "Jean Luc", Kind: KindNPC})))

	// Different display name, same slug.
	err := r.Add(New(Config{Name: "jean  luc", Kind: KindNPC}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRegistry_SpeakersExcludesShell(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(New(Config{Name: "Alice", Kind: KindNPC})))
	require.NoError(t, r.Add(New(ModeratorConfig)))

	speakers := r.Speakers()
	require.Len(t, speakers, 1)
	assert.Equal(t, "alice", speakers[0].ID)
}

func TestRegistry_User(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.User())

	require.NoError(t, r.Add(New(Config{Name: "Alice", Kind: KindNPC})))
	require.NoError(t, r.Add(New(Config{Name: "You", Kind: KindUser})))
	require.NotNil(t, r.User())
	assert.Equal(t, "you", r.User().ID)
}

func TestRegistry_FindDeputy(t *testing.T) {
	r := NewRegistry()
	deputy := New(ModeratorConfig)
	require.NoError(t, r.Add(deputy))

	target := Config{
		Name: "Alice",
		Kind: KindNPC,
		Actions: []ActionDescription{
			{ID: "summarize", Deputy: "JeanLuc"},
		},
	}
	got := r.FindDeputy(target)
	require.NotNil(t, got)
	assert.Equal(t, deputy.ID, got.ID)
}

func TestRegistry_FindDeputy_NoneRegistered(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Add(New(Config{Name: "Alice", Kind: KindNPC})))

	assert.Nil(t, r.FindDeputy(Config{Name: "Alice"}))
	assert.Nil(t, r.FindDeputy(Config{
		Name:    "Alice",
		Actions: []ActionDescription{{ID: "x", Deputy: "Nobody"}},
	}))
}

func TestSelectSpeakerPrologue(t *testing.T) {
	speakers := []*Companion{
		New(Config{Name: "Alice", Description: "A pirate.", Kind: KindNPC}),
		New(Config{Name: "You", Description: "ignored", Kind: KindUser}),
	}
	got := SelectSpeakerPrologue(speakers, "corey")

	assert.Contains(t, got, "## ROLES ##")
	assert.Contains(t, got, "Alice: A pirate.")
	assert.Contains(t, got, "corey: A guest user in the chatroom.")
	assert.Contains(t, got, "## CONVERSATION ##")
	assert.NotContains(t, got, "ignored")
}
