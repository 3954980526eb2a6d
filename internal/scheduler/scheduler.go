// ABOUTME: Speaker Selection Scheduler - decides who speaks next in a chat
// ABOUTME: Ordered rule chain; first rule producing a decision wins

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/coreyalejandro/drama-engine/internal/chat"
	"github.com/coreyalejandro/drama-engine/internal/companion"
	"github.com/coreyalejandro/drama-engine/internal/model"
)

// ErrNoSpeakers indicates the chat has no participants at all. This is the
// only error NextSpeakers can return.
var ErrNoSpeakers = errors.New("no speakers configured")

// DefaultModeratorTimeout bounds the model-assisted fallback so a stalled
// moderator call cannot stall the scheduler.
const DefaultModeratorTimeout = 10 * time.Second

// Dispatcher is what the scheduler needs from the job dispatch layer for
// the moderator fallback.
type Dispatcher interface {
	Dispatch(ctx context.Context, job *model.Job, opts ...model.RequestOption) (*model.JobResponse, error)
}

// Request is an immutable snapshot of one scheduling call's inputs.
type Request struct {
	Chat *chat.Chat

	// LastSpeaker overrides the speaker derived from history, when known.
	LastSpeaker *companion.Companion

	// Recipient is an explicit next-speaker target supplied by the caller.
	Recipient *companion.Companion

	// Except lists companions excluded from selection.
	Except []*companion.Companion

	// Messages is the recent-message window for the moderator fallback.
	// When nil the fallback is skipped and a random speaker is chosen.
	Messages []chat.Message

	// Username labels the human participant in the moderation prompt.
	// Defaults to "user".
	Username string
}

// Selector is the turn-taking decision engine. Each call evaluates the
// rule chain in strict priority order against the request snapshot; no
// mutable state is shared between calls.
type Selector struct {
	registry         *companion.Registry
	dispatcher       Dispatcher
	moderatorTimeout time.Duration
	logger           *slog.Logger

	// randIntn is swapped out in tests for deterministic selection.
	randIntn func(n int) int

	rules []rule
}

// NewSelector creates a scheduler. The dispatcher may be nil, in which
// case the moderator fallback is skipped entirely.
func NewSelector(registry *companion.Registry, dispatcher Dispatcher, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Selector{
		registry:         registry,
		dispatcher:       dispatcher,
		moderatorTimeout: DefaultModeratorTimeout,
		logger:           logger.With("component", "scheduler"),
		randIntn:         rand.Intn,
	}
	s.rules = []rule{
		{"single_participant", ruleSingleParticipant},
		{"explicit_with_deputy", ruleExplicitWithDeputy},
		{"explicit_target", ruleExplicitTarget},
		{"single_candidate", ruleSingleCandidate},
		{"open_question", ruleOpenQuestion},
		{"mention_override", ruleMentionOverride},
		{"configured_rotation", ruleConfiguredRotation},
		{"moderator", ruleModerator},
		{"random_fallback", ruleRandomFallback},
	}
	return s
}

// SetModeratorTimeout overrides the bound on the moderator fallback call.
func (s *Selector) SetModeratorTimeout(d time.Duration) { s.moderatorTimeout = d }

// rule is one named step of the decision chain. A nil result means "no
// decision, try the next rule".
type rule struct {
	name  string
	apply func(s *Selector, st *turnState) []*companion.Companion
}

// turnState is the per-call working state derived from a Request.
type turnState struct {
	ctx         context.Context
	req         *Request
	chat        *chat.Chat
	history     []chat.Message
	lastSpeaker *companion.Companion

	// allowed = participants minus excluded minus shell kind.
	// eligible = allowed minus last speaker, unless repeats are permitted.
	allowed  []*companion.Companion
	eligible []*companion.Companion
}

// NextSpeakers returns the ordered turn decision for one conversation
// step: the first element speaks next, any following elements form a
// deputized follow-up chain. The result is never empty; the only failure
// is a chat with no participants.
func (s *Selector) NextSpeakers(ctx context.Context, req *Request) ([]*companion.Companion, error) {
	if req.Chat == nil || len(req.Chat.Companions) == 0 {
		return nil, ErrNoSpeakers
	}

	st := s.newTurnState(ctx, req)
	for _, r := range s.rules {
		decision := r.apply(s, st)
		if len(decision) == 0 {
			continue
		}
		s.logger.Debug("next speakers selected",
			"rule", r.name,
			"speakers", speakerIDs(decision),
			"chat_id", req.Chat.ID,
		)
		return decision, nil
	}

	// The random fallback always decides for a non-empty participant list.
	return nil, ErrNoSpeakers
}

func (s *Selector) newTurnState(ctx context.Context, req *Request) *turnState {
	st := &turnState{
		ctx:         ctx,
		req:         req,
		chat:        req.Chat,
		history:     req.Chat.History.Sorted(),
		lastSpeaker: req.LastSpeaker,
	}

	if st.lastSpeaker == nil && len(st.history) > 0 {
		st.lastSpeaker = st.history[len(st.history)-1].Companion
	}

	excluded := make(map[string]bool, len(req.Except))
	for _, e := range req.Except {
		excluded[e.ID] = true
	}

	for _, c := range st.chat.Companions {
		if excluded[c.ID] || !c.IsSpeaker() {
			continue
		}
		st.allowed = append(st.allowed, c)
	}

	if st.chat.AllowRepeatSpeaker || st.lastSpeaker == nil {
		st.eligible = st.allowed
	} else {
		for _, c := range st.allowed {
			if c.ID != st.lastSpeaker.ID {
				st.eligible = append(st.eligible, c)
			}
		}
	}

	return st
}

func speakerIDs(speakers []*companion.Companion) []string {
	ids := make([]string, len(speakers))
	for i, c := range speakers {
		ids[i] = c.ID
	}
	return ids
}

func reversed(speakers []*companion.Companion) []*companion.Companion {
	out := make([]*companion.Companion, len(speakers))
	for i, c := range speakers {
		out[len(speakers)-1-i] = c
	}
	return out
}
