// ABOUTME: Generation job and response types for the remote text backend
// ABOUTME: Defines the wire payload shape shared by plain and streamed replies

package model

// Config holds generation parameters sent with a job. A job-level config
// replaces the dispatcher's session defaults for that single call.
type Config struct {
	Model       string   `json:"model,omitempty" yaml:"model"`
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature"`
	MaxTokens   int      `json:"max_tokens,omitempty" yaml:"max_tokens"`
	TopP        *float64 `json:"top_p,omitempty" yaml:"top_p"`
	Stop        []string `json:"stop,omitempty" yaml:"stop"`
	Stream      bool     `json:"stream,omitempty" yaml:"stream"`
}

// JobContext carries the conversational origin of a job: what kind of
// request produced it and where the reply belongs.
type JobContext struct {
	Action        string // preset/action name, e.g. "SELECT_SPEAKER"
	ChatID        string
	SituationID   string
	InteractionID string
	RecipientID   string // companion slug the reply is addressed to, if any
}

// Job is one request for text generation. Immutable once submitted.
type Job struct {
	ID      string
	Prompt  string
	Config  *Config // optional override of the session defaults
	Context JobContext
}

// JobResponse is the normalized result of a job. Token counts are nil when
// the backend does not report usage.
type JobResponse struct {
	ID           string
	Response     string
	InputTokens  *int
	OutputTokens *int
}

// generateResponse mirrors the backend reply document. The same shape
// arrives either as a single JSON body or as incremental SSE chunks.
type generateResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// toJobResponse flattens a backend reply into the normalized form.
func (g *generateResponse) toJobResponse() *JobResponse {
	resp := &JobResponse{ID: g.ID}
	if len(g.Choices) > 0 {
		resp.Response = g.Choices[0].Text
	}
	if g.Usage != nil {
		in, out := g.Usage.PromptTokens, g.Usage.CompletionTokens
		resp.InputTokens = &in
		resp.OutputTokens = &out
	}
	return resp
}

// requestPayload is the JSON document POSTed to the backend: the prompt
// and routing identifiers with the generation parameters flattened in.
type requestPayload struct {
	Prompt        string `json:"prompt"`
	Preset        string `json:"preset,omitempty"`
	ChatID        string `json:"chat_id,omitempty"`
	SituationID   string `json:"situation_id,omitempty"`
	InteractionID string `json:"interaction_id,omitempty"`
	Config
}
