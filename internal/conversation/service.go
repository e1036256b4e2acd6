// ABOUTME: Service orchestrates a conversation turn across the thread store and the assistant runtime
// ABOUTME: Resolve or create the thread, append, probe, run, poll, extract, then touch activity

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/luksoai/lukso-gateway/internal/assistant"
	"github.com/luksoai/lukso-gateway/internal/store"
)

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	store.ThreadStore
	GetThreadByExternalID(ctx context.Context, externalThreadID string) (*store.Thread, error)
	ListThreads(ctx context.Context, limit int) ([]*store.Thread, error)
}

// Config holds the assistant settings used for every run
type Config struct {
	AssistantID     string
	PollInterval    time.Duration
	MaxPollAttempts int
}

// Service is the conversation layer between the HTTP handlers and the
// assistant runtime. The store and the runtime are both remote; no state is
// cached here.
type Service struct {
	store       ConversationStore
	ai          assistant.Client
	poller      *assistant.Poller
	assistantID string
	logger      *slog.Logger
}

// New creates a new conversation Service
func New(st ConversationStore, ai assistant.Client, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       st,
		ai:          ai,
		poller:      assistant.NewPoller(ai, cfg.PollInterval, cfg.MaxPollAttempts, logger),
		assistantID: cfg.AssistantID,
		logger:      logger.With("component", "conversation"),
	}
}

// ConverseRequest is one user turn. ThreadID is the runtime thread id and may
// be empty to start a new conversation.
type ConverseRequest struct {
	OwnerID          string
	OwnerDisplayName string
	ThreadID         string
	Message          string
}

// ConverseResult is the assistant's reply to a turn
type ConverseResult struct {
	ThreadID         string
	OwnerDisplayName string
	Text             string
}

// Converse runs one full turn. The steps are not transactional: a failure
// part-way leaves earlier side effects (a new thread, an appended message) in
// place.
func (s *Service) Converse(ctx context.Context, req ConverseRequest) (*ConverseResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, &ValidationError{Field: "message", Message: "message is required"}
	}

	thread, err := s.resolveThread(ctx, req)
	if err != nil {
		return nil, err
	}
	threadID := thread.ExternalThreadID
	log := s.logger.With("thread_id", threadID, "owner_id", req.OwnerID)

	if _, err := s.ai.AppendMessage(ctx, threadID, req.Message, assistant.RoleUser); err != nil {
		return nil, err
	}

	if _, err := s.ai.GetAssistant(ctx, s.assistantID); err != nil {
		log.Error("assistant probe failed", "assistant_id", s.assistantID, "error", err)
		return nil, &AssistantUnavailableError{AssistantID: s.assistantID, Err: err}
	}

	run, err := s.ai.StartRun(ctx, threadID, s.assistantID)
	if err != nil {
		return nil, err
	}

	if _, err := s.poller.Wait(ctx, threadID, run.ID); err != nil {
		log.Error("run did not complete", "run_id", run.ID, "outcome", assistant.OutcomeOf(err), "error", err)
		return nil, err
	}

	messages, err := s.ai.ListMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}
	text, err := assistant.ExtractReply(messages)
	if err != nil {
		log.Error("no assistant reply", "run_id", run.ID, "error", err)
		return nil, err
	}

	if err := s.store.TouchThread(ctx, threadID); err != nil {
		log.Warn("failed to update thread activity", "error", err)
	}

	log.Info("conversation turn completed", "run_id", run.ID)
	return &ConverseResult{
		ThreadID:         threadID,
		OwnerDisplayName: thread.OwnerDisplayName,
		Text:             text,
	}, nil
}

func (s *Service) resolveThread(ctx context.Context, req ConverseRequest) (*store.Thread, error) {
	if req.ThreadID == "" {
		return s.StartThread(ctx, req.OwnerID, req.OwnerDisplayName)
	}
	return s.ownedThread(ctx, req.ThreadID, req.OwnerID)
}

// StartThread creates a remote thread and links it to the owner. If the row
// cannot be written the remote thread is left orphaned.
func (s *Service) StartThread(ctx context.Context, ownerID, ownerDisplayName string) (*store.Thread, error) {
	threadID, err := s.ai.CreateThread(ctx)
	if err != nil {
		return nil, err
	}

	thread, err := s.store.CreateThread(ctx, ownerID, ownerDisplayName, threadID)
	if err != nil {
		s.logger.Error("remote thread orphaned, failed to persist link",
			"thread_id", threadID,
			"owner_id", ownerID,
			"error", err,
		)
		return nil, fmt.Errorf("persist thread: %w", err)
	}

	s.logger.Info("thread started", "thread_id", threadID, "owner_id", ownerID)
	return thread, nil
}

// ThreadMessages returns an owned thread and its messages, newest first.
func (s *Service) ThreadMessages(ctx context.Context, threadID, ownerID string) (*store.Thread, []assistant.Message, error) {
	thread, err := s.ownedThread(ctx, threadID, ownerID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.ai.ListMessages(ctx, thread.ExternalThreadID)
	if err != nil {
		return nil, nil, err
	}
	return thread, messages, nil
}

// AnyThreadMessages is ThreadMessages without the owner check.
func (s *Service) AnyThreadMessages(ctx context.Context, threadID string) (*store.Thread, []assistant.Message, error) {
	thread, err := s.store.GetThreadByExternalID(ctx, threadID)
	if err != nil {
		return nil, nil, notFound(err)
	}
	messages, err := s.ai.ListMessages(ctx, thread.ExternalThreadID)
	if err != nil {
		return nil, nil, err
	}
	return thread, messages, nil
}

// DeleteThread removes the owner's link to a thread. The remote thread is kept.
func (s *Service) DeleteThread(ctx context.Context, threadID, ownerID string) (*store.Thread, error) {
	thread, err := s.ownedThread(ctx, threadID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteThread(ctx, thread.ID); err != nil {
		return nil, notFound(err)
	}
	s.logger.Info("thread deleted", "thread_id", threadID, "owner_id", ownerID)
	return thread, nil
}

// ListThreads returns the owner's threads by most recent activity.
func (s *Service) ListThreads(ctx context.Context, ownerID string, limit int) ([]*store.Thread, error) {
	return s.store.ListThreadsByOwner(ctx, ownerID, limit)
}

// ListAllThreads returns every thread by most recent activity.
func (s *Service) ListAllThreads(ctx context.Context, limit int) ([]*store.Thread, error) {
	return s.store.ListThreads(ctx, limit)
}

func (s *Service) ownedThread(ctx context.Context, threadID, ownerID string) (*store.Thread, error) {
	thread, err := s.store.FindThreadByExternalID(ctx, threadID, ownerID)
	if err != nil {
		return nil, notFound(err)
	}
	return thread, nil
}

func notFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrThreadNotFound
	}
	return err
}
