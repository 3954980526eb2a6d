// ABOUTME: Chat transcript rendering for export
// ABOUTME: Produces markdown from a stored chat and HTML via goldmark

package transcript

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/coreyalejandro/drama-engine/internal/store"
)

// Render formats a stored chat as a markdown transcript: a heading with
// the chat ID followed by one "**name**: text" paragraph per message.
func Render(rec *store.ChatRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Chat %s\n", rec.ID)
	for _, msg := range rec.History {
		fmt.Fprintf(&b, "\n**%s**: %s\n", msg.Companion, msg.Message)
	}
	return b.String()
}

// RenderHTML converts the markdown transcript to HTML.
func RenderHTML(rec *store.ChatRecord) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Render(rec)), &buf); err != nil {
		return "", fmt.Errorf("converting transcript: %w", err)
	}
	return buf.String(), nil
}
