// ABOUTME: JWT access and refresh token issuing and verification
// ABOUTME: Uses HS256 signing with a configurable secret and a token type claim

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token expired")
	ErrMissingClaim   = errors.New("missing required claim")
	ErrWrongTokenType = errors.New("wrong token type")
)

// TokenType distinguishes short-lived access tokens from refresh tokens
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// TokenVerifier defines the interface for access token verification
type TokenVerifier interface {
	Verify(tokenString string, want TokenType) (profileID string, err error)
}

// TokenPair is what a successful login or refresh hands back to the client
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// JWTIssuer implements TokenVerifier using HS256 signed JWTs
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTIssuer creates an issuer. Non-positive TTLs use the defaults.
func NewJWTIssuer(secret []byte, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &JWTIssuer{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// IssuePair signs a fresh access and refresh token for the profile.
func (j *JWTIssuer) IssuePair(profileID string) (*TokenPair, error) {
	access, expiresAt, err := j.generate(profileID, TokenTypeAccess, j.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, _, err := j.generate(profileID, TokenTypeRefresh, j.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

func (j *JWTIssuer) generate(profileID string, typ TokenType, ttl time.Duration) (string, time.Time, error) {
	now := j.now()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub": profileID,
		"typ": string(typ),
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	return signed, exp, err
}

// Verify validates the token, checks its type and returns the "sub" claim
func (j *JWTIssuer) Verify(tokenString string, want TokenType) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}

	if typ, _ := claims["typ"].(string); TokenType(typ) != want {
		return "", ErrWrongTokenType
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", fmt.Errorf("%w: sub", ErrMissingClaim)
	}

	return sub, nil
}
