// ABOUTME: Tests for the conversation service using MockStore and a scripted assistant runtime
// ABOUTME: Covers the full turn, run failure, timeout, ownership and best-effort activity updates

package conversation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luksoai/lukso-gateway/internal/assistant"
	"github.com/luksoai/lukso-gateway/internal/store"
)

// fakeRuntime is a scripted assistant.Client
type fakeRuntime struct {
	mu sync.Mutex

	nextThreadID string
	runStatuses  []assistant.RunStatus
	runError     *assistant.RunError
	replies      []assistant.Message

	createErr error
	appendErr error
	probeErr  error

	created    int
	appended   []string
	probes     int
	runsStart  int
	statusPoll int
}

func (f *fakeRuntime) CreateThread(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created++
	return f.nextThreadID, nil
}

func (f *fakeRuntime) AppendMessage(_ context.Context, threadID, content string, role assistant.Role) (*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.appended = append(f.appended, threadID+":"+content)
	return &assistant.Message{ID: "msg_user", ThreadID: threadID, Role: role}, nil
}

func (f *fakeRuntime) StartRun(_ context.Context, threadID, assistantID string) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runsStart++
	return &assistant.Run{ID: "run_1", ThreadID: threadID, Status: assistant.RunStatusQueued}, nil
}

func (f *fakeRuntime) GetRunStatus(_ context.Context, threadID, runID string) (*assistant.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.statusPoll
	if idx >= len(f.runStatuses) {
		idx = len(f.runStatuses) - 1
	}
	f.statusPoll++
	run := &assistant.Run{ID: runID, ThreadID: threadID, Status: f.runStatuses[idx]}
	if run.Status.Failed() {
		run.LastError = f.runError
	}
	return run, nil
}

func (f *fakeRuntime) ListMessages(_ context.Context, threadID string) ([]assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replies, nil
}

func (f *fakeRuntime) GetAssistant(_ context.Context, assistantID string) (*assistant.AssistantInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probes++
	if f.probeErr != nil {
		return nil, f.probeErr
	}
	return &assistant.AssistantInfo{ID: assistantID}, nil
}

func textReply(text string) []assistant.Message {
	return []assistant.Message{
		{ID: "msg_2", Role: assistant.RoleAssistant, Content: []assistant.ContentBlock{{Type: assistant.ContentTypeText, Text: text}}},
		{ID: "msg_1", Role: assistant.RoleUser, Content: []assistant.ContentBlock{{Type: assistant.ContentTypeText, Text: "hi"}}},
	}
}

func newTestService(t *testing.T, ai *fakeRuntime) (*Service, *store.MockStore, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	st := store.NewMockStore()
	svc := New(st, ai, Config{
		AssistantID:     "asst_1",
		PollInterval:    time.Millisecond,
		MaxPollAttempts: 30,
	}, logger)
	return svc, st, &logs
}

func TestConverse_NewThread(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		runStatuses:  []assistant.RunStatus{assistant.RunStatusQueued, assistant.RunStatusInProgress, assistant.RunStatusCompleted},
		replies:      textReply("hello!"),
	}
	svc, st, _ := newTestService(t, ai)
	ctx := context.Background()

	result, err := svc.Converse(ctx, ConverseRequest{OwnerID: "user-1", OwnerDisplayName: "Ana", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "th_1", result.ThreadID)
	assert.Equal(t, "Ana", result.OwnerDisplayName)
	assert.Equal(t, "hello!", result.Text)

	thread, err := st.FindThreadByExternalID(ctx, "th_1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", thread.OwnerDisplayName)
	assert.Equal(t, 1, st.TouchCount)
	assert.Equal(t, []string{"th_1:hi"}, ai.appended)
	assert.Equal(t, 3, ai.statusPoll)
}

func TestConverse_QueuedThenCompleted(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		runStatuses:  []assistant.RunStatus{assistant.RunStatusQueued, assistant.RunStatusCompleted},
		replies:      textReply("hello!"),
	}
	svc, st, _ := newTestService(t, ai)

	result, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", OwnerDisplayName: "Ana", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "th_1", result.ThreadID)
	assert.Equal(t, "hello!", result.Text)
	assert.Equal(t, 2, ai.statusPoll)
	assert.Equal(t, 1, ai.runsStart)
	assert.Equal(t, 1, st.ThreadCount())
	assert.Equal(t, 1, st.TouchCount)
}

func TestConverse_ExistingThread(t *testing.T) {
	ai := &fakeRuntime{
		runStatuses: []assistant.RunStatus{assistant.RunStatusCompleted},
		replies:     textReply("again"),
	}
	svc, st, _ := newTestService(t, ai)
	ctx := context.Background()
	_, err := st.CreateThread(ctx, "user-1", "Ana", "th_1")
	require.NoError(t, err)

	result, err := svc.Converse(ctx, ConverseRequest{OwnerID: "user-1", OwnerDisplayName: "Ana S.", ThreadID: "th_1", Message: "more"})
	require.NoError(t, err)
	assert.Equal(t, "again", result.Text)
	assert.Equal(t, "Ana", result.OwnerDisplayName, "display name comes from the stored thread")
	assert.Equal(t, 0, ai.created, "no new remote thread for an existing conversation")
}

func TestConverse_EmptyMessage(t *testing.T) {
	ai := &fakeRuntime{nextThreadID: "th_1"}
	svc, st, _ := newTestService(t, ai)

	for _, msg := range []string{"", "   \n"} {
		_, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: msg})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "message", vErr.Field)
	}
	assert.Equal(t, 0, ai.created)
	assert.Equal(t, 0, st.ThreadCount())
}

func TestConverse_ForeignThread(t *testing.T) {
	ai := &fakeRuntime{runStatuses: []assistant.RunStatus{assistant.RunStatusCompleted}}
	svc, st, _ := newTestService(t, ai)
	ctx := context.Background()
	_, err := st.CreateThread(ctx, "user-2", "Bruno", "th_x")
	require.NoError(t, err)

	_, err = svc.Converse(ctx, ConverseRequest{OwnerID: "user-1", ThreadID: "th_x", Message: "hi"})
	assert.ErrorIs(t, err, ErrThreadNotFound)
	assert.Empty(t, ai.appended, "nothing is sent to a thread the caller does not own")

	_, err = svc.Converse(ctx, ConverseRequest{OwnerID: "user-1", ThreadID: "th_missing", Message: "hi"})
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestConverse_RunFailed(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		runStatuses:  []assistant.RunStatus{assistant.RunStatusInProgress, assistant.RunStatusFailed},
		runError:     &assistant.RunError{Code: "rate_limit_exceeded", Message: "rate_limited"},
	}
	svc, st, logs := newTestService(t, ai)

	_, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: "hi"})

	var failed *assistant.RunFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, assistant.RunStatusFailed, failed.Status)
	assert.Contains(t, logs.String(), "rate_limited")
	assert.Equal(t, 0, st.TouchCount)
	assert.Equal(t, 2, ai.statusPoll)
}

func TestConverse_RunTimeout(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		runStatuses:  []assistant.RunStatus{assistant.RunStatusInProgress},
	}
	svc, _, _ := newTestService(t, ai)

	_, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: "hi"})

	var timeout *assistant.RunTimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 30, ai.statusPoll)
}

func TestConverse_AssistantUnavailable(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		probeErr:     errors.New("no such assistant"),
	}
	svc, _, _ := newTestService(t, ai)

	_, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: "hi"})

	var unavailable *AssistantUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "asst_1", unavailable.AssistantID)
	assert.Equal(t, 0, ai.runsStart, "no run is started when the probe fails")
	assert.Len(t, ai.appended, 1, "the user message was already appended")
}

func TestConverse_FallbackReply(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		runStatuses:  []assistant.RunStatus{assistant.RunStatusCompleted},
		replies: []assistant.Message{
			{Role: assistant.RoleAssistant, Content: []assistant.ContentBlock{{Type: assistant.ContentTypeImageFile, ImageFileID: "file_1"}}},
		},
	}
	svc, _, _ := newTestService(t, ai)

	result, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, assistant.FallbackReply, result.Text)
}

func TestConverse_NoAssistantReply(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		runStatuses:  []assistant.RunStatus{assistant.RunStatusCompleted},
	}
	svc, _, _ := newTestService(t, ai)

	_, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: "hi"})
	assert.ErrorIs(t, err, assistant.ErrNoAssistantResponse)
}

func TestConverse_TouchFailureIsSwallowed(t *testing.T) {
	ai := &fakeRuntime{
		nextThreadID: "th_1",
		runStatuses:  []assistant.RunStatus{assistant.RunStatusCompleted},
		replies:      textReply("hello!"),
	}
	svc, st, logs := newTestService(t, ai)
	st.TouchThreadErr = errors.New("store offline")

	result, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hello!", result.Text)
	assert.Contains(t, logs.String(), "store offline")
}

func TestConverse_PersistFailureOrphansRemoteThread(t *testing.T) {
	ai := &fakeRuntime{nextThreadID: "th_orphan"}
	svc, st, logs := newTestService(t, ai)
	st.CreateThreadErr = errors.New("insert failed")

	_, err := svc.Converse(context.Background(), ConverseRequest{OwnerID: "user-1", Message: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, ai.created)
	assert.Empty(t, ai.appended)
	assert.Contains(t, logs.String(), "th_orphan")
}

func TestThreadMessages_OwnerScoped(t *testing.T) {
	ai := &fakeRuntime{replies: textReply("hello!")}
	svc, st, _ := newTestService(t, ai)
	ctx := context.Background()
	_, err := st.CreateThread(ctx, "user-1", "Ana", "th_1")
	require.NoError(t, err)

	thread, messages, err := svc.ThreadMessages(ctx, "th_1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", thread.OwnerDisplayName)
	assert.Len(t, messages, 2)

	_, _, err = svc.ThreadMessages(ctx, "th_1", "user-2")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	_, messages, err = svc.AnyThreadMessages(ctx, "th_1")
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestDeleteThread_LocalOnly(t *testing.T) {
	ai := &fakeRuntime{}
	svc, st, _ := newTestService(t, ai)
	ctx := context.Background()
	_, err := st.CreateThread(ctx, "user-1", "Ana", "th_1")
	require.NoError(t, err)

	_, err = svc.DeleteThread(ctx, "th_1", "user-2")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	deleted, err := svc.DeleteThread(ctx, "th_1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", deleted.OwnerDisplayName)
	assert.Equal(t, 0, st.ThreadCount())

	threads, err := svc.ListThreads(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Empty(t, threads)
}

func TestStartThread(t *testing.T) {
	ai := &fakeRuntime{nextThreadID: "th_new"}
	svc, _, _ := newTestService(t, ai)

	thread, err := svc.StartThread(context.Background(), "user-1", "Ana")
	require.NoError(t, err)
	assert.Equal(t, "th_new", thread.ExternalThreadID)

	all, err := svc.ListAllThreads(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
