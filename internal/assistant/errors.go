// ABOUTME: Error types raised by the assistant runtime client and the run poller
// ABOUTME: AIServiceError carries the identifiers of the call that failed

package assistant

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingArgument is returned when a required identifier or content is empty
	ErrMissingArgument = errors.New("missing required argument")

	// ErrRunNotFound means the run was not among the thread's most recent runs
	ErrRunNotFound = errors.New("run not found")

	// ErrNoAssistantResponse means the thread holds no assistant message
	ErrNoAssistantResponse = errors.New("no assistant response found")
)

// AIServiceError wraps a failed call to the assistant runtime
type AIServiceError struct {
	Op          string
	ThreadID    string
	RunID       string
	AssistantID string
	Err         error
}

func (e *AIServiceError) Error() string {
	var b strings.Builder
	b.WriteString("assistant ")
	b.WriteString(e.Op)
	for _, kv := range [][2]string{
		{"thread", e.ThreadID},
		{"run", e.RunID},
		{"assistant", e.AssistantID},
	} {
		if kv[1] != "" {
			fmt.Fprintf(&b, " %s=%s", kv[0], kv[1])
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *AIServiceError) Unwrap() error {
	return e.Err
}

// RunFailedError is returned by the poller when a run reaches a failure status
type RunFailedError struct {
	RunID     string
	Status    RunStatus
	LastError *RunError
}

func (e *RunFailedError) Error() string {
	if e.LastError != nil && e.LastError.Message != "" {
		return fmt.Sprintf("run %s ended with status %s: %s", e.RunID, e.Status, e.LastError.Message)
	}
	return fmt.Sprintf("run %s ended with status %s", e.RunID, e.Status)
}

// RunTimeoutError is returned by the poller when attempts run out before a terminal status
type RunTimeoutError struct {
	RunID      string
	Attempts   int
	LastStatus RunStatus
}

func (e *RunTimeoutError) Error() string {
	return fmt.Sprintf("run %s still %s after %d attempts", e.RunID, e.LastStatus, e.Attempts)
}
