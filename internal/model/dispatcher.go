// ABOUTME: Job dispatcher for the remote text-generation backend
// ABOUTME: Sends one job, normalizes plain or streamed replies, audits every attempt

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coreyalejandro/drama-engine/internal/store"
)

// DefaultPath is the backend generation endpoint.
const DefaultPath = "/api/user/writersroom/generate"

const auditTimeout = 5 * time.Second

// PromptStore defines what the dispatcher needs from storage: an
// append-only record of every dispatch attempt.
type PromptStore interface {
	AppendPromptRecord(ctx context.Context, rec *store.PromptRecord) error
}

// RequestOption mutates the outgoing HTTP request, e.g. to add auth
// headers for a single call.
type RequestOption func(*http.Request)

// Dispatcher sends generation jobs to the remote backend. It owns the
// cumulative token counters and writes an audit record for every attempt,
// success or failure. Safe for concurrent use.
type Dispatcher struct {
	baseURL     string
	path        string
	client      *http.Client
	defaults    Config
	defaultOpts []RequestOption
	prompts     PromptStore
	usage       *Usage
	logger      *slog.Logger
}

// NewDispatcher creates a dispatcher for the backend at baseURL. The
// prompt store collaborator may not be nil; pass a nil logger to use the
// process default.
func NewDispatcher(baseURL string, defaults Config, prompts PromptStore, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		path:     DefaultPath,
		client:   &http.Client{Timeout: 2 * time.Minute},
		defaults: defaults,
		prompts:  prompts,
		usage:    &Usage{},
		logger:   logger.With("component", "dispatcher"),
	}
}

// SetPath overrides the generation endpoint path.
func (d *Dispatcher) SetPath(path string) { d.path = path }

// SetHTTPClient replaces the transport client, e.g. to adjust timeouts.
func (d *Dispatcher) SetHTTPClient(c *http.Client) { d.client = c }

// SetRequestOptions installs options applied to every outgoing request,
// such as session auth headers. Per-call options run after these, so every
// caller of Dispatch reaches the backend with the same credentials.
func (d *Dispatcher) SetRequestOptions(opts ...RequestOption) { d.defaultOpts = opts }

// Usage returns the cumulative token totals across successful dispatches.
func (d *Dispatcher) Usage() (input, output int) { return d.usage.Totals() }

// Dispatch sends one job and returns its normalized response. Every
// failure is returned as a *DispatchError; every attempt that reaches the
// transport is audited exactly once, even when the call is cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, job *Job, opts ...RequestOption) (*JobResponse, error) {
	if job.Prompt == "" {
		return nil, &DispatchError{Msg: "can not run inference", Reason: ReasonNoPrompt, Job: job}
	}

	cfg := d.defaults
	if job.Config != nil {
		cfg = *job.Config
	}

	payload := requestPayload{
		Prompt:        job.Prompt,
		Preset:        job.Context.Action,
		ChatID:        job.Context.ChatID,
		SituationID:   job.Context.SituationID,
		InteractionID: job.Context.InteractionID,
		Config:        cfg,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &DispatchError{Msg: "can not run inference", Reason: ReasonInvalidResponse, Job: job, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+d.path, bytes.NewReader(body))
	if err != nil {
		return nil, &DispatchError{Msg: "can not run inference", Reason: ReasonRequestFailed, Job: job, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range d.defaultOpts {
		opt(req)
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, d.fail(job, nil, cfg, ReasonRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, d.fail(job, nil, cfg, ReasonRequestFailed, fmt.Errorf("backend returned status %d", resp.StatusCode))
	}

	raw, err := d.decodeResponse(resp)
	if err != nil {
		reason := ReasonInvalidResponse
		if errors.Is(err, ErrIncompleteStream) {
			reason = ReasonIncompleteStream
		}
		return nil, d.fail(job, nil, cfg, reason, err)
	}

	jobResponse := raw.toJobResponse()
	if jobResponse.ID == "" {
		return nil, d.fail(job, jobResponse, cfg, ReasonMissingJobID, nil)
	}

	// Each counter is counted when reported, so a reply carrying only one
	// figure still contributes it.
	if jobResponse.InputTokens != nil || jobResponse.OutputTokens != nil {
		var in, out int
		if jobResponse.InputTokens != nil {
			in = *jobResponse.InputTokens
		}
		if jobResponse.OutputTokens != nil {
			out = *jobResponse.OutputTokens
		}
		d.usage.Add(in, out)
	}

	result := jobResponse.Response
	if result == "" {
		result = "NONE"
	}
	d.audit(job.Prompt, result, cfg)

	d.logger.Debug("job completed",
		"job_id", jobResponse.ID,
		"chat_id", job.Context.ChatID,
		"action", job.Context.Action,
	)
	return jobResponse, nil
}

// decodeResponse picks the decoding strategy from the reply content type:
// an event-stream is reassembled chunk by chunk, anything else is a single
// JSON document.
func (d *Dispatcher) decodeResponse(resp *http.Response) (*generateResponse, error) {
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/event-stream") {
		return buildFromStream(resp.Body)
	}

	var raw generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &raw, nil
}

// fail audits the failed attempt and wraps the cause into the uniform
// dispatch error.
func (d *Dispatcher) fail(job *Job, partial *JobResponse, cfg Config, reason string, cause error) *DispatchError {
	marker := "ERROR: " + reason
	if cause != nil {
		marker = "ERROR: " + cause.Error()
	}
	d.audit(job.Prompt, marker, cfg)

	d.logger.Error("job failed",
		"reason", reason,
		"chat_id", job.Context.ChatID,
		"action", job.Context.Action,
		"error", cause,
	)
	return &DispatchError{Msg: "job failed", Reason: reason, Job: job, Response: partial, Err: cause}
}

// audit appends one prompt record. A detached context is used so the write
// is still attempted when the dispatch context was cancelled; storage
// errors are logged, never propagated.
func (d *Dispatcher) audit(prompt, result string, cfg Config) {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		configJSON = []byte("{}")
	}

	auditCtx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	rec := &store.PromptRecord{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Prompt:    prompt,
		Result:    result,
		Config:    string(configJSON),
	}
	if err := d.prompts.AppendPromptRecord(auditCtx, rec); err != nil {
		d.logger.Error("failed to append prompt record", "error", err, "record_id", rec.ID)
	}
}
