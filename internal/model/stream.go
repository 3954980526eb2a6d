// ABOUTME: Stream Reconstructor for event-stream backend replies
// ABOUTME: Rebuilds one complete response document from incremental SSE chunks

package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnreadableBody indicates the response body could not be read at all.
var ErrUnreadableBody = errors.New("response body is not readable")

// ErrIncompleteStream indicates the stream ended before any terminal data
// object was observed.
var ErrIncompleteStream = errors.New("error in response stream or incomplete stream received")

const streamTerminator = "[DONE]"

// buildFromStream consumes an event-stream body and reassembles the full
// response document. Each chunk's first-choice text is one token; the
// last-seen chunk serves as the envelope template because identifier and
// usage fields only appear reliably on later chunks. On end of stream the
// concatenated token text is spliced into the template's primary text
// field.
//
// Framing: the buffer is split on CRLF; the final, possibly partial, line
// is retained for the next read. Lines are trimmed, empty lines skipped,
// and only lines carrying the "data:" prefix are decoded. A malformed
// JSON data message aborts the whole read.
func buildFromStream(body io.Reader) (*generateResponse, error) {
	var (
		buffer   string
		tokens   []string
		template *generateResponse
	)

	processLine := func(raw string) error {
		line := strings.TrimSpace(raw)
		if line == "" {
			return nil
		}
		if !strings.HasPrefix(line, "data:") {
			return nil
		}

		dataMessage := strings.TrimSpace(line[len("data:"):])
		if dataMessage == "" || dataMessage == streamTerminator {
			return nil
		}

		var chunk generateResponse
		if err := json.Unmarshal([]byte(dataMessage), &chunk); err != nil {
			return fmt.Errorf("parsing stream data: %w", err)
		}
		template = &chunk
		if len(chunk.Choices) > 0 {
			tokens = append(tokens, chunk.Choices[0].Text)
		}
		return nil
	}

	chunk := make([]byte, 4096)
	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buffer += string(chunk[:n])
			lines := strings.Split(buffer, "\r\n")
			for i := 0; i < len(lines)-1; i++ {
				if perr := processLine(lines[i]); perr != nil {
					return nil, perr
				}
			}
			buffer = lines[len(lines)-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnreadableBody, err)
		}
	}

	if template == nil {
		return nil, ErrIncompleteStream
	}

	complete := strings.Join(tokens, "")
	if len(template.Choices) == 0 {
		template.Choices = append(template.Choices, struct {
			Text string `json:"text"`
		}{})
	}
	template.Choices[0].Text = complete
	return template, nil
}
