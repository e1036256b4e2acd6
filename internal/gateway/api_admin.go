// ABOUTME: HTTP handlers for the admin API: profile listing and status, unscoped thread access
// ABOUTME: Every route runs behind RequireAdmin

package gateway

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/luksoai/lukso-gateway/internal/store"
)

const (
	defaultAdminLimit = 50
	maxAdminLimit     = 500
)

func (g *Gateway) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultAdminLimit, maxAdminLimit)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := store.ProfileFilter{Limit: limit}
	switch role := store.Role(r.URL.Query().Get("role")); role {
	case "":
	case store.RoleUser, store.RoleAdmin:
		filter.Role = &role
	default:
		g.sendJSONError(w, http.StatusBadRequest, "role must be user or admin")
		return
	}

	profiles, err := g.store.ListProfiles(r.Context(), filter)
	if err != nil {
		g.logger.Error("failed to list profiles", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	total, err := g.store.CountProfiles(r.Context())
	if err != nil {
		g.logger.Error("failed to count profiles", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	users := make([]*UserResponse, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, toUserResponse(p))
	}

	g.writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"limit": limit,
		"total": total,
	})
}

// UserStatusRequest is the body of PATCH /api/admin/users/{userId}/status
type UserStatusRequest struct {
	Active *bool `json:"active"`
}

func (g *Gateway) handleAdminUserStatus(w http.ResponseWriter, r *http.Request) {
	var req UserStatusRequest
	if err := decodeJSON(r, &req); err != nil || req.Active == nil {
		g.sendJSONError(w, http.StatusBadRequest, `"active" must be true or false`)
		return
	}

	status, verb := store.ProfileStatusDisabled, "disabled"
	if *req.Active {
		status, verb = store.ProfileStatusActive, "activated"
	}

	userID := r.PathValue("userId")
	profile, err := g.store.UpdateProfileStatus(r.Context(), userID, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			g.sendJSONError(w, http.StatusNotFound, "user not found")
			return
		}
		g.logger.Error("failed to update profile status", "profile_id", userID, "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.logger.Info("profile status changed", "profile_id", userID, "status", status)
	g.writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("user %s", verb),
		"user":    toUserResponse(profile),
	})
}

func (g *Gateway) handleAdminThreads(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, defaultAdminLimit, maxAdminLimit)
	if err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	threads, err := g.conversation.ListAllThreads(r.Context(), limit)
	if err != nil {
		g.writeConversationError(w, r, err)
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]any{
		"threads": toThreadResponses(threads),
		"limit":   limit,
	})
}

func (g *Gateway) handleAdminThreadMessages(w http.ResponseWriter, r *http.Request) {
	thread, messages, err := g.conversation.AnyThreadMessages(r.Context(), r.PathValue("threadId"))
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
