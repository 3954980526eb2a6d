// ABOUTME: Model-assisted speaker selection fallback
// ABOUTME: Best-effort moderator inference with its own timeout; never raises

package scheduler

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/coreyalejandro/drama-engine/internal/chat"
	"github.com/coreyalejandro/drama-engine/internal/companion"
	"github.com/coreyalejandro/drama-engine/internal/model"
)

// moderatorWindow is how many trailing messages the moderator sees.
const moderatorWindow = 8

// selectSpeakerAction is the preset name attached to moderator jobs.
const selectSpeakerAction = "SELECT_SPEAKER"

// moderatorOutcome makes the best-effort contract explicit: the caller
// always discards everything except a successful selection.
type moderatorOutcome string

const (
	moderatorSelected    moderatorOutcome = "selected"
	moderatorUnavailable moderatorOutcome = "unavailable" // no window or no dispatcher
	moderatorFailed      moderatorOutcome = "failed"
	moderatorTimedOut    moderatorOutcome = "timed_out"
	moderatorNoMention   moderatorOutcome = "no_mention"
)

// moderate asks the moderator model to pick the next speaker from the
// eligible candidates. Generation temperature is pinned to zero so the
// selection is deterministic for identical windows.
func (s *Selector) moderate(st *turnState) ([]*companion.Companion, moderatorOutcome) {
	if st.req.Messages == nil || s.dispatcher == nil {
		return nil, moderatorUnavailable
	}

	username := st.req.Username
	if username == "" {
		username = "user"
	}

	window := renderWindow(st.req.Messages, username)
	prompt := companion.SelectSpeakerPrologue(st.eligible, username) +
		window +
		"\n## END OF CONVERSATION ##"

	zero := 0.0
	job := &model.Job{
		ID:     uuid.New().String(),
		Prompt: prompt,
		Config: &model.Config{Temperature: &zero},
		Context: model.JobContext{
			Action:      selectSpeakerAction,
			ChatID:      st.chat.ID,
			SituationID: st.chat.Situation,
		},
	}

	ctx, cancel := context.WithTimeout(st.ctx, s.moderatorTimeout)
	defer cancel()

	resp, err := s.dispatcher.Dispatch(ctx, job)
	if err != nil {
		s.logger.Warn("moderator dispatch failed", "error", err, "chat_id", st.chat.ID)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, moderatorTimedOut
		}
		return nil, moderatorFailed
	}
	if resp == nil || resp.Response == "" {
		return nil, moderatorNoMention
	}

	mentioned := companion.Mentions(resp.Response, st.eligible)
	if len(mentioned) == 0 {
		s.logger.Debug("moderator reply mentioned nobody eligible", "reply", resp.Response)
		return nil, moderatorNoMention
	}
	return reversed(mentioned), moderatorSelected
}

// renderWindow formats the trailing non-shell messages as "name: text"
// lines, newest last. The human participant is labelled with the session
// username.
func renderWindow(messages []chat.Message, username string) string {
	var visible []chat.Message
	for _, msg := range messages {
		if msg.Companion.Config.Kind == companion.KindShell {
			continue
		}
		visible = append(visible, msg)
	}
	if len(visible) > moderatorWindow {
		visible = visible[len(visible)-moderatorWindow:]
	}

	lines := make([]string, 0, len(visible))
	for _, msg := range visible {
		name := msg.Companion.Config.Name
		if msg.Companion.Config.Kind == companion.KindUser {
			name = username
		}
		lines = append(lines, name+": "+strings.TrimSpace(msg.Text))
	}
	return strings.Join(lines, "\n")
}
