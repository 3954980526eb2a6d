// ABOUTME: Tests for the speaker selection rule chain
// ABOUTME: Covers explicit targets, questions, mentions, rotation, and fallbacks

package scheduler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreyalejandro/drama-engine/internal/chat"
	"github.com/coreyalejandro/drama-engine/internal/companion"
	"github.com/coreyalejandro/drama-engine/internal/model"
	"github.com/coreyalejandro/drama-engine/internal/store"
)

// mockDispatcher records the job it receives and replies with a canned
// response, optionally after a delay to exercise the moderator timeout.
type mockDispatcher struct {
	lastJob *model.Job
	resp    *model.JobResponse
	err     error
	delay   time.Duration
}

func (m *mockDispatcher) Dispatch(ctx context.Context, job *model.Job, opts ...model.RequestOption) (*model.JobResponse, error) {
	m.lastJob = job
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	return m.resp, m.err
}

func makeNPC(name, description string) *companion.Companion {
	return companion.New(companion.Config{
		Name:        name,
		Description: description,
		Kind:        companion.KindNPC,
	})
}

// testCast builds the standard three-npc cast and a registry holding them.
func testCast(t *testing.T) (*companion.Registry, *companion.Companion, *companion.Companion, *companion.Companion) {
	t.Helper()
	alice := makeNPC("Alice", "A pirate.")
	bob := makeNPC("Bob", "A sailor.")
	carol := makeNPC("Carol", "A navigator.")
	reg := companion.NewRegistry()
	for _, c := range []*companion.Companion{alice, bob, carol} {
		require.NoError(t, reg.Add(c))
	}
	return reg, alice, bob, carol
}

func ids(speakers []*companion.Companion) []string {
	out := make([]string, len(speakers))
	for i, c := range speakers {
		out[i] = c.ID
	}
	return out
}

func TestNextSpeakers_NoParticipants(t *testing.T) {
	reg, _, _, _ := testCast(t)
	sel := NewSelector(reg, nil, nil)

	_, err := sel.NextSpeakers(context.Background(), &Request{Chat: chat.New("c", "s", nil)})
	assert.ErrorIs(t, err, ErrNoSpeakers)

	_, err = sel.NextSpeakers(context.Background(), &Request{})
	assert.ErrorIs(t, err, ErrNoSpeakers)
}

func TestNextSpeakers_SingleParticipant(t *testing.T) {
	reg, alice, _, _ := testCast(t)
	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{alice})
	c.History.Append(alice, "talking to myself again", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids(got))
}

func TestNextSpeakers_ExplicitTargetWithDeputy(t *testing.T) {
	alice := companion.New(companion.Config{
		Name: "Alice",
		Kind: companion.KindNPC,
		Actions: []companion.ActionDescription{
			{ID: "navigate", Label: "Plot a course", Deputy: "Carol"},
		},
	})
	bob := makeNPC("Bob", "A sailor.")
	carol := makeNPC("Carol", "A navigator.")
	reg := companion.NewRegistry()
	for _, c := range []*companion.Companion{alice, bob, carol} {
		require.NoError(t, reg.Add(c))
	}

	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})

	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c, Recipient: alice})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "carol"}, ids(got))
}

func TestNextSpeakers_ExplicitTargetWithoutDeputy(t *testing.T) {
	reg, _, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{bob, carol})

	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c, Recipient: bob})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids(got))
}

func TestNextSpeakers_SingleCandidate(t *testing.T) {
	reg, alice, bob, _ := testCast(t)
	sel := NewSelector(reg, nil, nil)

	// Two participants and no repeats: the non-last speaker is the only
	// candidate left.
	c := chat.New("c", "s", []*companion.Companion{alice, bob})
	c.History.Append(alice, "the tide is rising", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids(got))
}

func TestNextSpeakers_OpenQuestionBeatsMentions(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(alice, "Where did we bury the chest?", 1)
	c.History.Append(bob, "Carol knows the spot.", 2)

	// The mention of Carol loses to the unanswered question: Alice asked,
	// so Alice hears the answer.
	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids(got))
}

func TestNextSpeakers_MentionsPrependLastSpeaker(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(carol, "I think Alice and Bob should settle this.", 1)

	// Mentions reversed, with the mentioning speaker queued first so the
	// follow-up returns to her.
	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "bob", "alice"}, ids(got))
}

func TestNextSpeakers_MentionsWithoutPrepend(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.AllowRepeatSpeaker = true
	c.History.Append(alice, "Maybe Alice should defer to Bob on this.", 1)

	// The last speaker named herself, so nothing is prepended.
	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, ids(got))
}

func TestNextSpeakers_RoundRobin(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.SpeakerSelection = chat.ModeRoundRobin
	c.History.Append(alice, "the tide is rising", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids(got))

	// Advance the conversation; the rotation follows the configured order.
	c.History.Append(bob, "so it is", 2)
	got, err = sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, ids(got))
}

func TestNextSpeakers_RandomMode(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	sel.randIntn = func(n int) int { return n - 1 }

	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.SpeakerSelection = chat.ModeRandom
	c.History.Append(alice, "the tide is rising", 1)

	// Eligible candidates are bob and carol; the stubbed picker takes the
	// last of them.
	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, ids(got))
}

func TestNextSpeakers_RandomFallbackWithoutDispatcher(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	sel.randIntn = func(n int) int { return 0 }

	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(alice, "the tide is rising", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{Chat: c})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids(got))
}

func TestNextSpeakers_FallbackNeverPicksShell(t *testing.T) {
	reg, alice, _, _ := testCast(t)
	shell := companion.New(companion.ModeratorConfig)
	require.NoError(t, reg.Add(shell))

	sel := NewSelector(reg, nil, nil)
	sel.randIntn = func(n int) int { return 0 }

	// Excluding the only npc empties the pool; the widened fallback still
	// refuses the internal shell companion.
	c := chat.New("c", "s", []*companion.Companion{shell, alice})
	got, err := sel.NextSpeakers(context.Background(), &Request{
		Chat:   c,
		Except: []*companion.Companion{alice},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids(got))
}

func TestNextSpeakers_ModeratorSelects(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	disp := &mockDispatcher{resp: &model.JobResponse{ID: "j1", Response: "Alice"}}
	sel := NewSelector(reg, disp, nil)

	user := companion.New(companion.Config{Name: "You", Kind: companion.KindUser})
	c := chat.New("c", "harbor", []*companion.Companion{alice, bob, carol})
	c.History.Append(carol, "the tide is rising", 1)

	window := []chat.Message{
		{Companion: user, Text: "hello everyone", Timestamp: 0},
		{Companion: carol, Text: "the tide is rising", Timestamp: 1},
	}
	got, err := sel.NextSpeakers(context.Background(), &Request{
		Chat:     c,
		Messages: window,
		Username: "corey",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids(got))

	// The moderator job is a pinned-temperature instruction inference.
	require.NotNil(t, disp.lastJob)
	job := disp.lastJob
	assert.Equal(t, "SELECT_SPEAKER", job.Context.Action)
	assert.Equal(t, "c", job.Context.ChatID)
	require.NotNil(t, job.Config)
	require.NotNil(t, job.Config.Temperature)
	assert.Zero(t, *job.Config.Temperature)

	assert.Contains(t, job.Prompt, "## ROLES ##")
	assert.Contains(t, job.Prompt, "Alice: A pirate.")
	assert.Contains(t, job.Prompt, "corey: A guest user in the chatroom.")
	assert.Contains(t, job.Prompt, "## CONVERSATION ##")
	assert.Contains(t, job.Prompt, "corey: hello everyone")
	assert.Contains(t, job.Prompt, "Carol: the tide is rising")
	assert.Contains(t, job.Prompt, "## END OF CONVERSATION ##")
}

func TestNextSpeakers_ModeratorUsesSessionCredentials(t *testing.T) {
	reg, alice, bob, carol := testCast(t)

	// Backend that rejects anything without the session bearer token.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sekrit" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"j1","choices":[{"text":"Alice"}]}`))
	}))
	t.Cleanup(srv.Close)

	disp := model.NewDispatcher(srv.URL, model.Config{}, store.NewMockStore(), nil)
	disp.SetRequestOptions(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer sekrit")
	})

	sel := NewSelector(reg, disp, nil)
	sel.randIntn = func(n int) int {
		t.Fatal("moderator decision expected, random fallback reached")
		return 0
	}

	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(carol, "the tide is rising", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{
		Chat:     c,
		Messages: []chat.Message{{Companion: carol, Text: "the tide is rising"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids(got))
}

func TestNextSpeakers_ModeratorIgnoresIneligibleReply(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	// Carol spoke last and is not eligible, so a reply naming only her is
	// treated as no decision.
	disp := &mockDispatcher{resp: &model.JobResponse{ID: "j1", Response: "Carol"}}
	sel := NewSelector(reg, disp, nil)
	sel.randIntn = func(n int) int { return 0 }

	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(carol, "the tide is rising", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{
		Chat:     c,
		Messages: []chat.Message{{Companion: carol, Text: "the tide is rising"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids(got))
}

func TestNextSpeakers_ModeratorFailureAbsorbed(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	disp := &mockDispatcher{err: errors.New("backend unavailable")}
	sel := NewSelector(reg, disp, nil)
	sel.randIntn = func(n int) int { return 0 }

	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(alice, "the tide is rising", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{
		Chat:     c,
		Messages: []chat.Message{{Companion: alice, Text: "the tide is rising"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids(got))
}

func TestNextSpeakers_ModeratorTimeoutAbsorbed(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	disp := &mockDispatcher{
		resp:  &model.JobResponse{ID: "j1", Response: "Bob"},
		delay: time.Second,
	}
	sel := NewSelector(reg, disp, nil)
	sel.SetModeratorTimeout(5 * time.Millisecond)
	sel.randIntn = func(n int) int { return 1 }

	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(alice, "the tide is rising", 1)

	got, err := sel.NextSpeakers(context.Background(), &Request{
		Chat:     c,
		Messages: []chat.Message{{Companion: alice, Text: "the tide is rising"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, ids(got))
}

func TestNextSpeakers_Idempotent(t *testing.T) {
	reg, alice, bob, carol := testCast(t)
	sel := NewSelector(reg, nil, nil)
	c := chat.New("c", "s", []*companion.Companion{alice, bob, carol})
	c.History.Append(carol, "I think Alice and Bob should settle this.", 1)

	req := &Request{Chat: c}
	first, err := sel.NextSpeakers(context.Background(), req)
	require.NoError(t, err)
	second, err := sel.NextSpeakers(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
}
