// ABOUTME: Runtime-neutral types for threads, runs and messages of the assistant runtime
// ABOUTME: Content blocks are a tagged variant; only text blocks are interpreted

package assistant

import "time"

// Role is the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// RunStatus is the runtime's status vocabulary for a run
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
	RunStatusIncomplete     RunStatus = "incomplete"
)

// Succeeded reports whether the run finished successfully.
func (s RunStatus) Succeeded() bool {
	return s == RunStatusCompleted
}

// Failed reports whether the run reached a terminal failure.
func (s RunStatus) Failed() bool {
	switch s {
	case RunStatusFailed, RunStatusCancelled, RunStatusExpired:
		return true
	default:
		return false
	}
}

// RunError is the structured failure detail the runtime attaches to failed runs
type RunError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Run is a single execution of an assistant against a thread.
// Runs are owned by the runtime; this package only observes them.
type Run struct {
	ID        string
	ThreadID  string
	Status    RunStatus
	LastError *RunError
}

// ContentType discriminates content blocks
type ContentType string

const (
	ContentTypeText      ContentType = "text"
	ContentTypeImageFile ContentType = "image_file"
	ContentTypeImageURL  ContentType = "image_url"
	ContentTypeRefusal   ContentType = "refusal"
)

// ContentBlock is one typed piece of a message. Exactly the field matching
// Type is populated.
type ContentBlock struct {
	Type        ContentType
	Text        string
	ImageFileID string
	ImageURL    string
	Refusal     string
}

// Message is a thread message as reported by the runtime
type Message struct {
	ID        string
	ThreadID  string
	Role      Role
	Content   []ContentBlock
	CreatedAt time.Time
}

// AssistantInfo is the metadata returned by the availability probe
type AssistantInfo struct {
	ID        string
	Name      string
	Model     string
	ToolTypes []string
}
