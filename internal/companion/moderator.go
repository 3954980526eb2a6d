// ABOUTME: Built-in moderator persona used for instruction-based inferences
// ABOUTME: Provides the speaker-selection prompt prologue for the LLM fallback

package companion

import (
	"strings"
)

// ModeratorConfig is the internal shell persona used when the scheduler
// falls back to a model-assisted decision. Temperature is pinned to zero
// so selection is deterministic given the same conversation window.
var ModeratorConfig = Config{
	Name:        "JeanLuc",
	Description: "This is an internal bot for instruction-based inferences.",
	BasePrompt:  "",
	Kind:        KindShell,
	ModelDefaults: map[string]any{
		"temperature": 0.0,
	},
}

const selectSpeakerPrefix = `
You are a moderator in an online chatroom. You are provided with a list of online users with their bios under ## ROLES ##. In addition, you have access to their conversation history under ## CONVERSATION ## where you can find the previous exchanges between different users.

Your task is to read the history in ## CONVERSATION ## and then select which of the ## ROLES ## should speak next. You MUST only return a single name as your response.
`

// SelectSpeakerPrologue builds the moderation prompt prefix: the roster of
// autonomous personas with their descriptions, the human's label, and the
// opening of the conversation section. The caller appends the rendered
// message window and the closing marker.
func SelectSpeakerPrologue(speakers []*Companion, username string) string {
	var roles strings.Builder
	for _, c := range speakers {
		if c.Config.Kind != KindNPC {
			continue
		}
		roles.WriteString(c.Config.Name + ": " + c.Config.Description + "\n")
	}
	roles.WriteString(username + ": A guest user in the chatroom.\n")

	return selectSpeakerPrefix + "\n## ROLES ##\n\n" + roles.String() + "\n## END OF ROLES ##\n\n## CONVERSATION ##\n"
}
