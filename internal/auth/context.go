// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating the caller's profile via context

package auth

import (
	"context"

	"github.com/luksoai/lukso-gateway/internal/store"
)

// AuthContext holds the authenticated profile extracted from a request.
type AuthContext struct {
	ProfileID   string
	Email       string
	Role        store.Role
	DisplayName string
}

func newAuthContext(p *store.Profile) *AuthContext {
	return &AuthContext{
		ProfileID:   p.ID,
		Email:       p.Email,
		Role:        p.Role,
		DisplayName: p.DisplayName(),
	}
}

// IsAdmin returns true if the caller has the admin role.
func (a *AuthContext) IsAdmin() bool {
	return a.Role == store.RoleAdmin
}

// IsUser returns true for any role allowed to chat.
func (a *AuthContext) IsUser() bool {
	return a.Role == store.RoleUser || a.Role == store.RoleAdmin
}

type authContextKey struct{}

// WithAuth returns a new context with the AuthContext attached.
func WithAuth(ctx context.Context, auth *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, auth)
}

// FromContext retrieves the AuthContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *AuthContext {
	auth, _ := ctx.Value(authContextKey{}).(*AuthContext)
	return auth
}
