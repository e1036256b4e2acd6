// ABOUTME: Account service for registration, password login and token refresh
// ABOUTME: Profiles live in the store; tokens are stateless JWTs

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/luksoai/lukso-gateway/internal/store"
)

// Account errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrEmailTaken         = errors.New("email already registered")
)

// RegistrationError reports a rejected registration request
type RegistrationError struct {
	Reason string
}

func (e *RegistrationError) Error() string {
	return "registration rejected: " + e.Reason
}

// ProfileStore defines what the auth layer needs from storage
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *store.Profile) error
	GetProfile(ctx context.Context, id string) (*store.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*store.Profile, error)
}

// Service handles account lifecycle
type Service struct {
	profiles ProfileStore
	issuer   *JWTIssuer
	logger   *slog.Logger
}

// NewService creates an account service
func NewService(profiles ProfileStore, issuer *JWTIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		profiles: profiles,
		issuer:   issuer,
		logger:   logger.With("component", "auth"),
	}
}

// RegisterRequest carries the fields of a new account
type RegisterRequest struct {
	Email    string
	Password string
	FullName string
}

// Register creates a profile with the user role.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*store.Profile, error) {
	return s.createProfile(ctx, req, store.RoleUser)
}

// CreateAdmin creates a profile with the admin role. It is only reachable
// from the command line.
func (s *Service) CreateAdmin(ctx context.Context, req RegisterRequest) (*store.Profile, error) {
	return s.createProfile(ctx, req, store.RoleAdmin)
}

func (s *Service) createProfile(ctx context.Context, req RegisterRequest, role store.Role) (*store.Profile, error) {
	email := strings.TrimSpace(req.Email)
	fullName := strings.TrimSpace(req.FullName)
	if email == "" || req.Password == "" || fullName == "" {
		return nil, &RegistrationError{Reason: "email, password and full name are required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, &RegistrationError{Reason: "email is not valid"}
	}

	hash, err := HashPassword(req.Password)
	if errors.Is(err, ErrPasswordTooShort) {
		return nil, &RegistrationError{Reason: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	if errors.Is(err, ErrPasswordTooLong) {
		return nil, &RegistrationError{Reason: fmt.Sprintf("password must be at most %d bytes", MaxPasswordLength)}
	}
	if err != nil {
		return nil, err
	}

	profile := &store.Profile{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		Role:         role,
		Status:       store.ProfileStatusActive,
		PasswordHash: hash,
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.logger.Info("profile registered", "profile_id", profile.ID, "role", role)
	return profile, nil
}

// Login checks the credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*store.Profile, *TokenPair, error) {
	profile, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			CheckPassword("", password)
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}

	if !CheckPassword(profile.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if profile.Status != store.ProfileStatusActive {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issuer.IssuePair(profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, pair, nil
}

// Refresh exchanges a valid refresh token for a new token pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*store.Profile, *TokenPair, error) {
	profileID, err := s.issuer.Verify(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, nil, err
	}

	profile, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.Status != store.ProfileStatusActive {
		return nil, nil, ErrAccountDisabled
	}

	pair, err := s.issuer.IssuePair(profile.ID)
	if err != nil {
		return nil, nil, err
	}
	return profile, pair, nil
}
