// ABOUTME: The ordered decision rules of the speaker selection chain
// ABOUTME: Each rule returns a turn decision or nil to pass to the next rule

package scheduler

import (
	"strings"

	"github.com/coreyalejandro/drama-engine/internal/chat"
	"github.com/coreyalejandro/drama-engine/internal/companion"
)

// ruleSingleParticipant: with only one participant there is nothing to
// decide.
func ruleSingleParticipant(s *Selector, st *turnState) []*companion.Companion {
	if len(st.chat.Companions) == 1 {
		return []*companion.Companion{st.chat.Companions[0]}
	}
	return nil
}

// ruleExplicitWithDeputy: an explicit target with a registered deputy
// yields the chain [target, deputy].
func ruleExplicitWithDeputy(s *Selector, st *turnState) []*companion.Companion {
	if st.req.Recipient == nil {
		return nil
	}
	deputy := s.registry.FindDeputy(st.req.Recipient.Config)
	if deputy == nil {
		return nil
	}
	return []*companion.Companion{st.req.Recipient, deputy}
}

// ruleExplicitTarget: an explicit target without a deputy speaks alone.
func ruleExplicitTarget(s *Selector, st *turnState) []*companion.Companion {
	if st.req.Recipient == nil {
		return nil
	}
	return []*companion.Companion{st.req.Recipient}
}

// ruleSingleCandidate: exactly one eligible candidate left.
func ruleSingleCandidate(s *Selector, st *turnState) []*companion.Companion {
	if len(st.eligible) == 1 {
		return []*companion.Companion{st.eligible[0]}
	}
	return nil
}

// ruleOpenQuestion: if the second-to-last message contains a question, its
// asker gets the answer. Overrides mentions and rotation.
func ruleOpenQuestion(s *Selector, st *turnState) []*companion.Companion {
	if len(st.history) < 2 {
		return nil
	}
	asking := st.history[len(st.history)-2]
	if !strings.Contains(asking.Text, "?") {
		return nil
	}
	return []*companion.Companion{asking.Companion}
}

// ruleMentionOverride: companions named in the most recent message speak
// next, last-mentioned first. The last speaker is prepended when it was
// not itself among the mentions, so whoever raised the names follows up.
func ruleMentionOverride(s *Selector, st *turnState) []*companion.Companion {
	if len(st.history) == 0 {
		return nil
	}
	last := st.history[len(st.history)-1]
	mentioned := companion.Mentions(last.Text, st.eligible)
	if len(mentioned) == 0 {
		return nil
	}

	decision := reversed(mentioned)
	if st.lastSpeaker != nil && !containsSpeaker(mentioned, st.lastSpeaker) {
		decision = append([]*companion.Companion{st.lastSpeaker}, decision...)
	}
	return decision
}

// ruleConfiguredRotation: round-robin advances to the next eligible npc
// after the last speaker; random mode picks uniformly from the eligible
// candidates.
func ruleConfiguredRotation(s *Selector, st *turnState) []*companion.Companion {
	switch st.chat.SpeakerSelection {
	case chat.ModeRoundRobin:
		if st.lastSpeaker == nil {
			return nil
		}
		var npcs []*companion.Companion
		for _, c := range st.eligible {
			if c.Config.Kind == companion.KindNPC {
				npcs = append(npcs, c)
			}
		}
		next := st.chat.NextCompanion(st.lastSpeaker, npcs)
		if next == nil {
			return nil
		}
		return []*companion.Companion{next}

	case chat.ModeRandom:
		if len(st.eligible) == 0 {
			return nil
		}
		return []*companion.Companion{st.eligible[s.randIntn(len(st.eligible))]}
	}
	return nil
}

// ruleModerator delegates to the model-assisted fallback. Any failure in
// that path is absorbed; the outcome is logged and discarded so the random
// fallback below guarantees a decision.
func ruleModerator(s *Selector, st *turnState) []*companion.Companion {
	decision, outcome := s.moderate(st)
	if outcome != moderatorSelected {
		s.logger.Debug("moderator fallback produced no decision",
			"outcome", string(outcome),
			"chat_id", st.chat.ID,
		)
		return nil
	}
	return decision
}

// ruleRandomFallback: the liveness guarantee - pick one uniformly-random
// candidate, widening the pool if exclusions emptied it.
func ruleRandomFallback(s *Selector, st *turnState) []*companion.Companion {
	pool := st.eligible
	if len(pool) == 0 {
		pool = st.allowed
	}
	if len(pool) == 0 {
		// Exclusions emptied the pool entirely; ignore them rather than
		// fail, but never hand the turn to an internal shell companion.
		for _, c := range st.chat.Companions {
			if c.Config.Kind != companion.KindShell {
				pool = append(pool, c)
			}
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return []*companion.Companion{pool[s.randIntn(len(pool))]}
}

func containsSpeaker(speakers []*companion.Companion, target *companion.Companion) bool {
	for _, c := range speakers {
		if c.ID == target.ID {
			return true
		}
	}
	return false
}
