// ABOUTME: Uniform dispatch error surfaced by the model package
// ABOUTME: Callers never see raw transport or parsing errors directly

package model

import "fmt"

// Dispatch failure reasons.
const (
	ReasonNoPrompt         = "no prompt found"
	ReasonRequestFailed    = "request failed"
	ReasonInvalidResponse  = "invalid response"
	ReasonMissingJobID     = "job id not found"
	ReasonIncompleteStream = "incomplete stream"
)

// DispatchError wraps every failure surfaced by Dispatch: a human-readable
// message, a machine-readable reason, the originating job, the partially
// built response if one exists, and the underlying cause if any.
type DispatchError struct {
	Msg      string
	Reason   string
	Job      *Job
	Response *JobResponse
	Err      error
}

func (e *DispatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Msg, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Msg, e.Reason)
}

func (e *DispatchError) Unwrap() error { return e.Err }
