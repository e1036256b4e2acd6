// ABOUTME: HTTP handlers for account registration, login, token refresh, verify and logout
// ABOUTME: Tokens are stateless, so logout only acknowledges the request

package gateway

import (
	"errors"
	"net/http"
	"time"

	"github.com/luksoai/lukso-gateway/internal/auth"
	"github.com/luksoai/lukso-gateway/internal/store"
)

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /api/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is a profile as exposed to clients
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TokenResponse carries a token pair
type TokenResponse struct {
	Message      string        `json:"message,omitempty"`
	User         *UserResponse `json:"user,omitempty"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresAt    time.Time     `json:"expires_at"`
}

func toUserResponse(p *store.Profile) *UserResponse {
	return &UserResponse{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		Status:    string(p.Status),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (g *Gateway) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := g.accounts.Register(r.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		var regErr *auth.RegistrationError
		switch {
		case errors.As(err, &regErr):
			g.sendJSONError(w, http.StatusBadRequest, regErr.Reason)
		case errors.Is(err, auth.ErrEmailTaken):
			g.sendJSONError(w, http.StatusBadRequest, "email already registered")
		default:
			g.logger.Error("registration failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]any{
		"message": "user registered",
		"user":    toUserResponse(profile),
	})
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		g.sendJSONError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	profile, pair, err := g.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			g.sendJSONError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, auth.ErrAccountDisabled):
			g.sendJSONError(w, http.StatusForbidden, "account disabled")
		default:
			g.logger.Error("login failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	g.writeJSON(w, http.StatusOK, TokenResponse{
		Message:      "login successful",
		User:         toUserResponse(profile),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (g *Gateway) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(r, &req); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RefreshToken == "" {
		g.sendJSONError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}

	_, pair, err := g.accounts.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidToken),
			errors.Is(err, auth.ErrExpiredToken),
			errors.Is(err, auth.ErrWrongTokenType),
			errors.Is(err, auth.ErrMissingClaim),
			errors.Is(err, auth.ErrAccountDisabled):
			g.sendJSONError(w, http.StatusUnauthorized, "invalid refresh token")
		default:
			g.logger.Error("refresh failed", "error", err)
			g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	g.writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (g *Gateway) handleVerify(w http.ResponseWriter, r *http.Request) {
	caller, status, code, err := auth.Authenticate(r, g.store, g.issuer)
	if err != nil {
		if status == http.StatusInternalServerError {
			g.logger.Error("verify failed", "error", err)
		}
		g.writeJSON(w, status, map[string]any{"valid": false, "code": code})
		return
	}

	profile, err := g.store.GetProfile(r.Context(), caller.ProfileID)
	if err != nil {
		g.logger.Error("verify failed", "error", err)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	g.writeJSON(w, http.StatusOK, map[string]any{
		"valid": true,
		"user":  toUserResponse(profile),
	})
}

func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	g.writeJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}
