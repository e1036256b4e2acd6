// ABOUTME: Client for the hosted assistant runtime built on the openai-go Beta Assistants API
// ABOUTME: Every failure is wrapped in AIServiceError with the identifiers of the call

package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// runLookupLimit bounds how many of a thread's most recent runs are scanned
// when resolving a run id.
const runLookupLimit = 10

// Client is the subset of the assistant runtime used by the gateway.
type Client interface {
	CreateThread(ctx context.Context) (string, error)
	AppendMessage(ctx context.Context, threadID, content string, role Role) (*Message, error)
	StartRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	GetRunStatus(ctx context.Context, threadID, runID string) (*Run, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
	GetAssistant(ctx context.Context, assistantID string) (*AssistantInfo, error)
}

// Options configures an OpenAIClient
type Options struct {
	APIKey         string
	BaseURL        string
	RequestTimeout time.Duration
}

// OpenAIClient talks to the OpenAI Assistants API.
type OpenAIClient struct {
	client openai.Client
	logger *slog.Logger
}

// NewOpenAIClient builds a client. The SDK's own retry loop is disabled so
// each operation maps to exactly one remote call.
func NewOpenAIClient(opts Options, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(opts.APIKey)),
		option.WithMaxRetries(0),
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(base))
	}
	if opts.RequestTimeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.RequestTimeout))
	}
	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		logger: logger.With("component", "assistant"),
	}
}

// CreateThread creates an empty remote thread and returns its id.
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", &AIServiceError{Op: "create thread", Err: err}
	}
	c.logger.Debug("thread created", "thread_id", thread.ID)
	return thread.ID, nil
}

// AppendMessage adds a message to a thread. An empty role means user.
func (c *OpenAIClient) AppendMessage(ctx context.Context, threadID, content string, role Role) (*Message, error) {
	if threadID == "" || content == "" {
		return nil, &AIServiceError{Op: "append message", ThreadID: threadID, Err: ErrMissingArgument}
	}

	params := openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(content),
		},
	}
	if role == RoleAssistant {
		params.Role = openai.BetaThreadMessageNewParamsRoleAssistant
	}

	msg, err := c.client.Beta.Threads.Messages.New(ctx, threadID, params)
	if err != nil {
		return nil, &AIServiceError{Op: "append message", ThreadID: threadID, Err: err}
	}
	out := convertMessage(*msg)
	return &out, nil
}

// StartRun starts the given assistant against the thread.
func (c *OpenAIClient) StartRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	if threadID == "" || assistantID == "" {
		return nil, &AIServiceError{Op: "start run", ThreadID: threadID, AssistantID: assistantID, Err: ErrMissingArgument}
	}

	run, err := c.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return nil, &AIServiceError{Op: "start run", ThreadID: threadID, AssistantID: assistantID, Err: err}
	}
	c.logger.Debug("run started", "thread_id", threadID, "run_id", run.ID, "status", run.Status)
	out := convertRun(*run)
	return &out, nil
}

// GetRunStatus resolves a run by listing the thread's most recent runs and
// selecting the one with a matching id. A run older than the lookup window
// yields ErrRunNotFound.
func (c *OpenAIClient) GetRunStatus(ctx context.Context, threadID, runID string) (*Run, error) {
	if threadID == "" || runID == "" {
		return nil, &AIServiceError{Op: "get run status", ThreadID: threadID, RunID: runID, Err: ErrMissingArgument}
	}

	page, err := c.client.Beta.Threads.Runs.List(ctx, threadID, openai.BetaThreadRunListParams{
		Limit: openai.Int(runLookupLimit),
		Order: openai.BetaThreadRunListParamsOrderDesc,
	})
	if err != nil {
		return nil, &AIServiceError{Op: "get run status", ThreadID: threadID, RunID: runID, Err: err}
	}

	for _, r := range page.Data {
		if r.ID == runID {
			out := convertRun(r)
			return &out, nil
		}
	}
	return nil, &AIServiceError{Op: "get run status", ThreadID: threadID, RunID: runID, Err: ErrRunNotFound}
}

// ListMessages returns the first page of the thread's messages, newest first.
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	if threadID == "" {
		return nil, &AIServiceError{Op: "list messages", Err: ErrMissingArgument}
	}

	page, err := c.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
	})
	if err != nil {
		return nil, &AIServiceError{Op: "list messages", ThreadID: threadID, Err: err}
	}

	messages := make([]Message, 0, len(page.Data))
	for _, m := range page.Data {
		messages = append(messages, convertMessage(m))
	}
	return messages, nil
}

// GetAssistant fetches assistant metadata. Used as an availability probe.
func (c *OpenAIClient) GetAssistant(ctx context.Context, assistantID string) (*AssistantInfo, error) {
	if assistantID == "" {
		return nil, &AIServiceError{Op: "get assistant", Err: ErrMissingArgument}
	}

	a, err := c.client.Beta.Assistants.Get(ctx, assistantID)
	if err != nil {
		return nil, &AIServiceError{Op: "get assistant", AssistantID: assistantID, Err: err}
	}

	info := &AssistantInfo{
		ID:    a.ID,
		Name:  a.Name,
		Model: a.Model,
	}
	for _, tool := range a.Tools {
		info.ToolTypes = append(info.ToolTypes, tool.Type)
	}
	return info, nil
}

func convertRun(r openai.Run) Run {
	out := Run{
		ID:       r.ID,
		ThreadID: r.ThreadID,
		Status:   RunStatus(r.Status),
	}
	if r.LastError.Code != "" || r.LastError.Message != "" {
		out.LastError = &RunError{
			Code:    string(r.LastError.Code),
			Message: r.LastError.Message,
		}
	}
	return out
}

func convertMessage(m openai.Message) Message {
	out := Message{
		ID:       m.ID,
		ThreadID: m.ThreadID,
		Role:     Role(m.Role),
	}
	if m.CreatedAt > 0 {
		out.CreatedAt = time.Unix(m.CreatedAt, 0).UTC()
	}
	for _, c := range m.Content {
		block := ContentBlock{Type: ContentType(c.Type)}
		switch block.Type {
		case ContentTypeText:
			block.Text = c.Text.Value
		case ContentTypeImageFile:
			block.ImageFileID = c.ImageFile.FileID
		case ContentTypeImageURL:
			block.ImageURL = c.ImageURL.URL
		case ContentTypeRefusal:
			block.Refusal = c.Refusal
		}
		out.Content = append(out.Content, block)
	}
	return out
}

// String renders a run for log lines.
func (r Run) String() string {
	return fmt.Sprintf("run %s (%s)", r.ID, r.Status)
}
