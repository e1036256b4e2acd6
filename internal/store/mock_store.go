// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu          sync.RWMutex
	threads     map[string]*Thread  // keyed by thread ID
	threadIndex map[string]string   // keyed by external thread ID -> thread ID
	profiles    map[string]*Profile // keyed by profile ID

	// Failure injection
	CreateThreadErr error
	TouchThreadErr  error
	FindThreadErr   error

	// TouchCount counts TouchThread calls, including failed ones
	TouchCount int
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		threads:     make(map[string]*Thread),
		threadIndex: make(map[string]string),
		profiles:    make(map[string]*Profile),
	}
}

// CreateThread stores a new thread.
func (m *MockStore) CreateThread(ctx context.Context, ownerID, ownerDisplayName, externalThreadID string) (*Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateThreadErr != nil {
		return nil, m.CreateThreadErr
	}
	if _, exists := m.threadIndex[externalThreadID]; exists {
		return nil, ErrDuplicateThread
	}

	now := time.Now().UTC()
	t := &Thread{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		OwnerDisplayName: ownerDisplayName,
		ExternalThreadID: externalThreadID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	m.threads[t.ID] = t
	m.threadIndex[externalThreadID] = t.ID

	result := *t
	return &result, nil
}

// FindThreadByExternalID retrieves an owner's thread by runtime thread ID.
func (m *MockStore) FindThreadByExternalID(ctx context.Context, externalThreadID, ownerID string) (*Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindThreadErr != nil {
		return nil, m.FindThreadErr
	}
	id, ok := m.threadIndex[externalThreadID]
	if !ok {
		return nil, ErrNotFound
	}
	t := m.threads[id]
	if t.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	result := *t
	return &result, nil
}

// GetThreadByExternalID retrieves a thread by runtime thread ID regardless of owner.
func (m *MockStore) GetThreadByExternalID(ctx context.Context, externalThreadID string) (*Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.threadIndex[externalThreadID]
	if !ok {
		return nil, ErrNotFound
	}
	result := *m.threads[id]
	return &result, nil
}

// TouchThread bumps UpdatedAt.
func (m *MockStore) TouchThread(ctx context.Context, externalThreadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TouchCount++
	if m.TouchThreadErr != nil {
		return m.TouchThreadErr
	}
	id, ok := m.threadIndex[externalThreadID]
	if !ok {
		return ErrNotFound
	}
	m.threads[id].UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteThread removes a thread by internal ID.
func (m *MockStore) DeleteThread(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.threadIndex, t.ExternalThreadID)
	delete(m.threads, id)
	return nil
}

// ListThreadsByOwner returns an owner's threads, most recent activity first.
func (m *MockStore) ListThreadsByOwner(ctx context.Context, ownerID string, limit int) ([]*Thread, error) {
	return m.listThreads(func(t *Thread) bool { return t.OwnerID == ownerID }, limit), nil
}

// ListThreads returns all threads, most recent activity first.
func (m *MockStore) ListThreads(ctx context.Context, limit int) ([]*Thread, error) {
	return m.listThreads(func(*Thread) bool { return true }, limit), nil
}

func (m *MockStore) listThreads(keep func(*Thread) bool, limit int) []*Thread {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Thread, 0, len(m.threads))
	for _, t := range m.threads {
		if keep(t) {
			copied := *t
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})

	limit = clampLimit(limit)
	if len(result) > limit {
		result = result[:limit]
	}
	return result
}

// ThreadCount returns the number of stored threads.
func (m *MockStore) ThreadCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.threads)
}

// CreateProfile stores a profile.
func (m *MockStore) CreateProfile(ctx context.Context, profile *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if profile.ID == "" {
		return errors.New("profile id is required")
	}
	profile.Email = normalizeEmail(profile.Email)
	for _, p := range m.profiles {
		if p.Email == profile.Email {
			return ErrDuplicateEmail
		}
	}
	if profile.Role == "" {
		profile.Role = RoleUser
	}
	if profile.Status == "" {
		profile.Status = ProfileStatusActive
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
		profile.UpdatedAt = profile.CreatedAt
	}

	p := *profile
	m.profiles[p.ID] = &p
	return nil
}

// GetProfile retrieves a profile by ID.
func (m *MockStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	result := *p
	return &result, nil
}

// GetProfileByEmail retrieves a profile by email.
func (m *MockStore) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range m.profiles {
		if p.Email == email {
			result := *p
			return &result, nil
		}
	}
	return nil, ErrNotFound
}

// ListProfiles returns profiles newest first.
func (m *MockStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]*Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Profile, 0, len(m.profiles))
	for _, p := range m.profiles {
		if filter.Role != nil && p.Role != *filter.Role {
			continue
		}
		copied := *p
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	limit := clampLimit(filter.Limit)
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// CountProfiles returns the number of stored profiles.
func (m *MockStore) CountProfiles(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.profiles), nil
}

// UpdateProfileStatus sets a profile's status.
func (m *MockStore) UpdateProfileStatus(ctx context.Context, id string, status ProfileStatus) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	result := *p
	return &result, nil
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}
