// ABOUTME: HTTP handlers for the chat API: converse, start, list, messages and delete
// ABOUTME: Every route runs behind RequireUser and scopes threads to the caller

package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/luksoai/lukso-gateway/internal/assistant"
	"github.com/luksoai/lukso-gateway/internal/auth"
	"github.com/luksoai/lukso-gateway/internal/conversation"
	"github.com/luksoai/lukso-gateway/internal/render"
	"github.com/luksoai/lukso-gateway/internal/store"
)

// ConversationRequest is the body of POST /api/chat/conversation
type ConversationRequest struct {
	ThreadID string `json:"threadId,omitempty"`
	Message  string `json:"message"`
}

// ConversationData is the assistant's reply
type ConversationData struct {
	ThreadID   string `json:"threadId"`
	ClientName string `json:"clientName"`
	Role       string `json:"role"`
	Message    string `json:"message"`
}

// ConversationResponse wraps a successful turn
type ConversationResponse struct {
	Success bool             `json:"success"`
	Data    ConversationData `json:"data"`
}

// ThreadResponse is a thread as exposed to clients
type ThreadResponse struct {
	ID             string    `json:"id"`
	ClientID       string    `json:"clientId"`
	ClientFullname string    `json:"clientFullname"`
	ThreadID       string    `json:"threadId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TextResponse is the payload of a text content block
type TextResponse struct {
	Value string `json:"value"`
	HTML  string `json:"html,omitempty"`
}

// ContentBlockResponse is one typed block of a message
type ContentBlockResponse struct {
	Type        string        `json:"type"`
	Text        *TextResponse `json:"text,omitempty"`
	ImageFileID string        `json:"imageFileId,omitempty"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Refusal     string        `json:"refusal,omitempty"`
}

// MessageResponse is a thread message as exposed to clients
type MessageResponse struct {
	ID        string                 `json:"id"`
	Role      string                 `json:"role"`
	Content   []ContentBlockResponse `json:"content"`
	CreatedAt time.Time              `json:"createdAt"`
}

// ThreadMessagesResponse is the body of the thread messages routes
type ThreadMessagesResponse struct {
	Messages       []MessageResponse `json:"messages"`
	ThreadID       string            `json:"threadId"`
	ClientFullname string            `json:"clientFullname"`
}

func toThreadResponse(t *store.Thread) ThreadResponse {
	return ThreadResponse{
		ID:             t.ID,
		ClientID:       t.OwnerID,
		ClientFullname: t.OwnerDisplayName,
		ThreadID:       t.ExternalThreadID,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func toThreadResponses(threads []*store.Thread) []ThreadResponse {
	out := make([]ThreadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, toThreadResponse(t))
	}
	return out
}

// toMessageResponses converts runtime messages, optionally rendering text
// blocks to HTML. A block that fails to render keeps only its raw value.
func (g *Gateway) toMessageResponses(messages []assistant.Message, withHTML bool) []MessageResponse {
	out := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp := MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   make([]ContentBlockResponse, 0, len(m.Content)),
			CreatedAt: m.CreatedAt,
		}
		for _, c := range m.Content {
			block := ContentBlockResponse{Type: string(c.Type)}
			switch c.Type {
			case assistant.ContentTypeText:
				block.Text = &TextResponse{Value: c.Text}
				if withHTML {
					html, err := render.Markdown(c.Text)
					if err != nil {
						g.logger.Warn("failed to render message", "message_id", m.ID, "error", err)
					} else {
						block.Text.HTML = html
					}
				}
			case assistant.ContentTypeImageFile:
				block.ImageFileID = c.ImageFileID
			case assistant.ContentTypeImageURL:
				block.ImageURL = c.ImageURL
			case assistant.ContentTypeRefusal:
				block.Refusal = c.Refusal
			}
			resp.Content = append(resp.Content, block)
		}
		out = append(out, resp)
	}
	return out
}

func conversationRequest(caller *auth.AuthContext, req ConversationRequest) conversation.ConverseRequest {
	return conversation.ConverseRequest{
		OwnerID:          caller.ProfileID,
		OwnerDisplayName: caller.DisplayName,
		ThreadID:         req.ThreadID,
		Message:          req.Message,
	}
}

func (g *Gateway) handleConversation(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	var req ConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		g.writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}

	// a client disconnect must not abort a run that is already being polled
	ctx := context.WithoutCancel(r.Context())

	result, err := g.conversation.Converse(ctx, conversationRequest(caller, req))
	if err != nil {
		g.writeConversationError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, ConversationResponse{
		Success: true,
		Data: ConversationData{
			ThreadID:   result.ThreadID,
			ClientName: result.OwnerDisplayName,
			Role:       string(assistant.RoleAssistant),
			Message:    result.Text,
		},
	})
}

func (g *Gateway) handleStartThread(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	thread, err := g.conversation.StartThread(r.Context(), caller.ProfileID, caller.DisplayName)
	if err != nil {
		g.writeConversationError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]any{
		"message": "conversation started",
		"thread":  toThreadResponse(thread),
	})
}

func (g *Gateway) handleListThreads(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	limit, err := parseLimit(r, defaultThreadLimit, maxThreadLimit)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	threads, err := g.conversation.ListThreads(r.Context(), caller.ProfileID, limit)
	if err != nil {
		g.writeConversationError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]any{
		"threads": toThreadResponses(threads),
		"limit":   limit,
	})
}

func (g *Gateway) handleThreadMessages(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	thread, messages, err := g.conversation.ThreadMessages(r.Context(), r.PathValue("threadId"), caller.ProfileID)
	if err != nil {
		g.writeConversationError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, ThreadMessagesResponse{
		Messages:       g.toMessageResponses(messages, r.URL.Query().Get("format") == "html"),
		ThreadID:       thread.ExternalThreadID,
		ClientFullname: thread.OwnerDisplayName,
	})
}

func (g *Gateway) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	caller := auth.FromContext(r.Context())

	thread, err := g.conversation.DeleteThread(r.Context(), r.PathValue("threadId"), caller.ProfileID)
	if err != nil {
		g.writeConversationError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("conversation of %s removed", thread.OwnerDisplayName),
	})
}
