// ABOUTME: Registry of companions participating in a session
// ABOUTME: Insertion-ordered lookup by slug ID plus deputy resolution

package companion

import (
	"fmt"
)

// Registry holds all companions loaded for a session in insertion order.
// It is populated once at persona-load time; companions are never removed
// mid-session, only disabled.
type Registry struct {
	order []*Companion
	byID  map[string]*Companion
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Companion)}
}

// Add registers a companion. Adding a second companion with the same slug
// ID is a configuration error.
func (r *Registry) Add(c *Companion) error {
	if _, ok := r.byID[c.ID]; ok {
		return fmt.Errorf("duplicate companion id %q", c.ID)
	}
	r.order = append(r.order, c)
	r.byID[c.ID] = c
	return nil
}

// List returns all companions in insertion order. The returned slice is a
// copy; the companions themselves are shared.
func (r *Registry) List() []*Companion {
	out := make([]*Companion, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the companion with the given slug ID, or nil.
func (r *Registry) Get(id string) *Companion {
	return r.byID[id]
}

// GetByName returns the companion whose configured name normalizes to the
// same slug as name, or nil.
func (r *Registry) GetByName(name string) *Companion {
	return r.byID[ToID(name)]
}

// Speakers returns the companions eligible as conversational speakers
// (non-shell, not disabled), in insertion order.
func (r *Registry) Speakers() []*Companion {
	var out []*Companion
	for _, c := range r.order {
		if c.IsSpeaker() {
			out = append(out, c)
		}
	}
	return out
}

// User returns the human participant, or nil if none is registered.
func (r *Registry) User() *Companion {
	for _, c := range r.order {
		if c.Config.Kind == KindUser {
			return c
		}
	}
	return nil
}

// FindDeputy resolves the deputy companion registered for a target's
// configuration: the first action carrying a deputy reference that names a
// registered companion wins. Returns nil when no deputy applies.
func (r *Registry) FindDeputy(cfg Config) *Companion {
	for _, action := range cfg.Actions {
		if action.Deputy == "" {
			continue
		}
		if d := r.byID[ToID(action.Deputy)]; d != nil {
			return d
		}
	}
	return nil
}
