// ABOUTME: HTTP middleware for JWT authentication on API endpoints
// ABOUTME: Resolves the bearer token to a profile and enforces user or admin role

package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/luksoai/lukso-gateway/internal/store"
)

// Error codes returned in the "code" field of auth failures
const (
	CodeMissingToken    = "MISSING_TOKEN"
	CodeInvalidToken    = "INVALID_TOKEN"
	CodeAccountDisabled = "ACCOUNT_DISABLED"
	CodeProfileError    = "PROFILE_ERROR"
	CodeUserRequired    = "USER_REQUIRED"
	CodeAdminRequired   = "ADMIN_REQUIRED"
)

// ExtractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func ExtractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

// Authenticate resolves the request's access token to an AuthContext.
// The returned status and code are meaningful only when the error is non-nil.
func Authenticate(r *http.Request, profiles ProfileStore, verifier TokenVerifier) (*AuthContext, int, string, error) {
	token, errMsg := ExtractBearerToken(r.Header.Get("Authorization"))
	if errMsg != "" {
		return nil, http.StatusUnauthorized, CodeMissingToken, errors.New(errMsg)
	}

	profileID, err := verifier.Verify(token, TokenTypeAccess)
	if err != nil {
		return nil, http.StatusUnauthorized, CodeInvalidToken, err
	}

	profile, err := profiles.GetProfile(r.Context(), profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, http.StatusUnauthorized, CodeInvalidToken, ErrInvalidToken
		}
		return nil, http.StatusInternalServerError, CodeProfileError, err
	}

	if profile.Status != store.ProfileStatusActive {
		return nil, http.StatusForbidden, CodeAccountDisabled, ErrAccountDisabled
	}

	return newAuthContext(profile), 0, "", nil
}

// RequireUser creates an HTTP middleware that authenticates the request and
// requires the user or admin role.
func RequireUser(profiles ProfileStore, verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(profiles, verifier, logger, (*AuthContext).IsUser, "access denied", CodeUserRequired)
}

// RequireAdmin creates an HTTP middleware that authenticates the request and
// requires the admin role.
func RequireAdmin(profiles ProfileStore, verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireRole(profiles, verifier, logger, (*AuthContext).IsAdmin, "administrator privileges required", CodeAdminRequired)
}

func requireRole(profiles ProfileStore, verifier TokenVerifier, logger *slog.Logger, allowed func(*AuthContext) bool, deniedMsg, deniedCode string) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, status, code, err := Authenticate(r, profiles, verifier)
			if err != nil {
				if status == http.StatusInternalServerError {
					logger.Error("failed to load profile", "error", err)
				}
				writeAuthError(w, status, authMessage(code), code)
				return
			}

			if !allowed(authCtx) {
				writeAuthError(w, http.StatusForbidden, deniedMsg, deniedCode)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), authCtx)))
		})
	}
}

func authMessage(code string) string {
	switch code {
	case CodeMissingToken:
		return "authentication token required"
	case CodeInvalidToken:
		return "invalid token"
	case CodeAccountDisabled:
		return "account disabled"
	default:
		return "internal server error"
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
