// Package auth provides account management and request authentication.
//
// # Tokens
//
// JWTIssuer signs HS256 tokens carrying the profile id in "sub" and a "typ"
// claim of "access" or "refresh". An access token is never accepted where a
// refresh token is expected, and the reverse.
//
// # Accounts
//
// Service registers profiles (always with the user role), checks passwords
// with bcrypt and rotates token pairs. Admin profiles are created only through
// CreateAdmin, which the CLI's bootstrap command calls.
//
// # Middleware
//
// RequireUser and RequireAdmin resolve the bearer token to an active profile
// and attach an AuthContext:
//
//	mux.Handle("GET /api/chat/threads", auth.RequireUser(profiles, issuer, logger)(h))
//
// Failures are JSON bodies with an "error" message and a "code":
// MISSING_TOKEN, INVALID_TOKEN, ACCOUNT_DISABLED, PROFILE_ERROR,
// USER_REQUIRED or ADMIN_REQUIRED.
package auth
