// ABOUTME: Store interfaces and data types for lukso-gateway persistence
// ABOUTME: Defines conversation threads, user profiles and the interfaces over them

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateThread is returned when a runtime thread id is already linked to a row
var ErrDuplicateThread = errors.New("thread already exists")

// ErrDuplicateEmail is returned when registering an email that already has a profile
var ErrDuplicateEmail = errors.New("email already registered")

// Thread links a user to a conversation thread held by the assistant runtime.
// ExternalThreadID is unique and is the only key used to address the runtime.
type Thread struct {
	ID               string
	OwnerID          string
	OwnerDisplayName string
	ExternalThreadID string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Role is a profile's authorization level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ProfileStatus tracks whether a profile may sign in
type ProfileStatus string

const (
	ProfileStatusActive   ProfileStatus = "active"
	ProfileStatusDisabled ProfileStatus = "disabled"
)

// Profile is a registered user of the gateway
type Profile struct {
	ID           string
	Email        string
	FullName     string
	Role         Role
	Status       ProfileStatus
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName returns the label shown next to a user's conversations.
func (p *Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	if p.Email != "" {
		return p.Email
	}
	return "User"
}

// ProfileFilter narrows ListProfiles results
type ProfileFilter struct {
	Role  *Role
	Limit int
}

// ThreadStore is the conversation-thread table.
// Lookups by runtime thread id are always scoped by owner; a row owned by
// someone else is reported as ErrNotFound.
type ThreadStore interface {
	CreateThread(ctx context.Context, ownerID, ownerDisplayName, externalThreadID string) (*Thread, error)
	FindThreadByExternalID(ctx context.Context, externalThreadID, ownerID string) (*Thread, error)
	TouchThread(ctx context.Context, externalThreadID string) error
	DeleteThread(ctx context.Context, id string) error
	ListThreadsByOwner(ctx context.Context, ownerID string, limit int) ([]*Thread, error)
}

// AdminThreadStore exposes unscoped thread reads for administrative paths
type AdminThreadStore interface {
	ListThreads(ctx context.Context, limit int) ([]*Thread, error)
	GetThreadByExternalID(ctx context.Context, externalThreadID string) (*Thread, error)
}

// ProfileStore persists user profiles
type ProfileStore interface {
	CreateProfile(ctx context.Context, profile *Profile) error
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (*Profile, error)
	ListProfiles(ctx context.Context, filter ProfileFilter) ([]*Profile, error)
	CountProfiles(ctx context.Context) (int, error)
	UpdateProfileStatus(ctx context.Context, id string, status ProfileStatus) (*Profile, error)
}

// Store is everything the gateway persists
type Store interface {
	ThreadStore
	AdminThreadStore
	ProfileStore

	// Close releases any resources held by the store
	Close() error
}
