// ABOUTME: Errors returned by the conversation service
// ABOUTME: The HTTP layer maps these onto status codes

package conversation

import (
	"errors"
	"fmt"
)

// ErrThreadNotFound is returned when a thread is missing or belongs to someone else.
// The two cases are indistinguishable to callers.
var ErrThreadNotFound = errors.New("thread not found")

// ValidationError reports a malformed request
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// AssistantUnavailableError means the configured assistant could not be reached
// before a run was started.
type AssistantUnavailableError struct {
	AssistantID string
	Err         error
}

func (e *AssistantUnavailableError) Error() string {
	return fmt.Sprintf("assistant %s unavailable: %v", e.AssistantID, e.Err)
}

func (e *AssistantUnavailableError) Unwrap() error {
	return e.Err
}
