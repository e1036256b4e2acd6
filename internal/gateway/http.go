// ABOUTME: Shared HTTP helpers: JSON responses, error mapping, CORS and service endpoints
// ABOUTME: writeConversationError is the single place errors become status codes

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/luksoai/lukso-gateway/internal/assistant"
	"github.com/luksoai/lukso-gateway/internal/conversation"
)

const (
	defaultThreadLimit = 50
	maxThreadLimit     = 100
	maxBodyBytes       = 1 << 20
)

// writeJSON writes v as a JSON response with the given status.
func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.Debug("failed to write response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	g.writeJSON(w, status, map[string]string{"error": message})
}

// writeConversationError maps conversation and runtime errors onto a status
// code and a fixed message. Internal detail is logged, never returned.
func (g *Gateway) writeConversationError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := classifyConversationError(err)
	if status >= http.StatusInternalServerError {
		g.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	g.writeJSON(w, status, map[string]any{"success": false, "error": message})
}

func classifyConversationError(err error) (int, string) {
	var (
		validation  *conversation.ValidationError
		unavailable *conversation.AssistantUnavailableError
		runFailed   *assistant.RunFailedError
		runTimeout  *assistant.RunTimeoutError
		aiErr       *assistant.AIServiceError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Message
	case errors.Is(err, conversation.ErrThreadNotFound):
		return http.StatusNotFound, "thread not found"
	case errors.As(err, &unavailable):
		return http.StatusInternalServerError, "assistant unavailable"
	case errors.As(err, &runFailed):
		return http.StatusInternalServerError, "the assistant could not complete the response"
	case errors.As(err, &runTimeout):
		return http.StatusInternalServerError, "the assistant took too long to respond"
	case errors.Is(err, assistant.ErrNoAssistantResponse):
		return http.StatusInternalServerError, "no response from the assistant"
	case errors.As(err, &aiErr):
		return http.StatusInternalServerError, "error communicating with the assistant"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// parseLimit reads ?limit= and clamps it to [1, maxLimit]. Missing means def.
func parseLimit(r *http.Request, def, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": g.now().UTC().Format(time.RFC3339),
		"version":   g.version,
	})
}

func (g *Gateway) handleRoot(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{
		"message": "LuksoAI Backend API",
		"version": g.version,
	})
}

func (g *Gateway) handleNotFound(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusNotFound, map[string]any{
		"error":      "route not found",
		"message":    fmt.Sprintf("%s %s does not exist", r.Method, r.URL.Path),
		"statusCode": http.StatusNotFound,
	})
}

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, PATCH, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type"
)

// corsMiddleware allows credentialed cross-origin requests from the listed
// origins. "*" echoes any origin. An empty list disables CORS headers.
func corsMiddleware(origins []string) func(http.Handler) http.Handler {
	allowAny := slices.Contains(origins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			allowed := origin != "" && (allowAny || slices.ContainsFunc(origins, func(o string) bool {
				return strings.EqualFold(strings.TrimSuffix(o, "/"), origin)
			}))

			if allowed {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				if allowed {
					w.Header().Set("Access-Control-Allow-Methods", corsAllowMethods)
					w.Header().Set("Access-Control-Allow-Headers", corsAllowHeaders)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
