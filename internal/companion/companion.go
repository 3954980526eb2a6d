// ABOUTME: Companion model for drama-engine participants
// ABOUTME: Defines kinds, lifecycle states, configuration, and stable slug IDs

package companion

import (
	"regexp"
	"strings"
)

// Kind classifies what drives a companion.
type Kind string

const (
	KindUser  Kind = "user"  // the human participant
	KindNPC   Kind = "npc"   // autonomous, model-driven persona
	KindShell Kind = "shell" // internal system responder, never a conversational speaker
)

// State is the lifecycle status of a companion within a session.
type State string

const (
	StateDisabled   State = "disabled"
	StateFree       State = "free"
	StateActive     State = "active"
	StateAutonomous State = "autonomous"
	StateChatOnly   State = "chat-only"
)

// ActionDescription names an action a companion offers and the deputy
// companion that handles it. The deputy is chained to speak right after
// the companion when it is explicitly targeted.
type ActionDescription struct {
	ID     string `toml:"id"`
	Label  string `toml:"label"`
	Deputy string `toml:"deputy"`
}

// Config is the static persona definition for a companion, loaded from a
// TOML persona file at startup. Moods, mottos, and knowledge entries are
// carried opaquely; nothing in this package evaluates them.
type Config struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
	BasePrompt  string `toml:"base_prompt"`
	Kind        Kind   `toml:"kind"`

	Bio string `toml:"bio"`
	Job string `toml:"job"`

	Actions []ActionDescription `toml:"actions"`

	// ModelDefaults overrides the session generation parameters for jobs
	// issued on behalf of this companion.
	ModelDefaults map[string]any `toml:"model"`
}

// Companion is a participant in a conversation. Identity is the slug ID
// derived once from the configured name; two companions with the same ID
// are the same entity.
type Companion struct {
	ID     string
	Config Config
	State  State

	// Session statistics.
	Interactions int
	Actions      int
}

// New creates a companion from its configuration. The ID is derived from
// the configured name and never recomputed afterwards.
func New(cfg Config) *Companion {
	return &Companion{
		ID:     ToID(cfg.Name),
		Config: cfg,
		State:  StateActive,
	}
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9\s]+`)
	slugSpaces   = regexp.MustCompile(`\s+`)
)

// ToID normalizes a display name into a stable slug: punctuation stripped,
// whitespace runs collapsed to "-", lowercased.
func ToID(name string) string {
	s := nonSlugChars.ReplaceAllString(name, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// Name returns the configured display name.
func (c *Companion) Name() string { return c.Config.Name }

// IsSpeaker reports whether the companion may be returned as a
// conversational next speaker by the default selection path.
func (c *Companion) IsSpeaker() bool {
	return c.Config.Kind != KindShell && c.State != StateDisabled
}
