// ABOUTME: Profile persistence for registered gateway users
// ABOUTME: Profiles carry the role and status consulted by the HTTP auth middleware

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const profileColumns = `id, email, full_name, role, status, password_hash, created_at, updated_at`

// CreateProfile inserts a new profile. Emails are stored lower-cased.
// Returns ErrDuplicateEmail if the email is already registered.
func (s *SQLiteStore) CreateProfile(ctx context.Context, profile *Profile) error {
	if profile.Role == "" {
		profile.Role = RoleUser
	}
	if profile.Status == "" {
		profile.Status = ProfileStatusActive
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = s.now().UTC()
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = profile.CreatedAt
	}
	profile.Email = normalizeEmail(profile.Email)

	query := `INSERT INTO profiles (` + profileColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		profile.ID,
		profile.Email,
		profile.FullName,
		string(profile.Role),
		string(profile.Status),
		profile.PasswordHash,
		formatTime(profile.CreatedAt),
		formatTime(profile.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("inserting profile: %w", err)
	}

	s.logger.Debug("created profile", "id", profile.ID, "role", profile.Role)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func scanProfile(row rowScanner) (*Profile, error) {
	var p Profile
	var role, status, createdAtStr, updatedAtStr string

	if err := row.Scan(
		&p.ID,
		&p.Email,
		&p.FullName,
		&role,
		&status,
		&p.PasswordHash,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return nil, err
	}
	p.Role = Role(role)
	p.Status = ProfileStatus(status)

	var err error
	p.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &p, nil
}

// GetProfile retrieves a profile by id.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = ?`

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return p, nil
}

// GetProfileByEmail retrieves a profile by email, case-insensitively.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) GetProfileByEmail(ctx context.Context, email string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = ?`

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, normalizeEmail(email)))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile by email: %w", err)
	}
	return p, nil
}

// ListProfiles returns profiles newest first, optionally filtered by role.
func (s *SQLiteStore) ListProfiles(ctx context.Context, filter ProfileFilter) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var args []any

	if filter.Role != nil {
		query += ` WHERE role = ?`
		args = append(args, string(*filter.Role))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, clampLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying profiles: %w", err)
	}
	defer rows.Close()

	profiles := make([]*Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return profiles, nil
}

// CountProfiles returns the number of registered profiles
func (s *SQLiteStore) CountProfiles(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting profiles: %w", err)
	}
	return count, nil
}

// UpdateProfileStatus activates or disables a profile and returns it.
// Returns ErrNotFound if it doesn't exist.
func (s *SQLiteStore) UpdateProfileStatus(ctx context.Context, id string, status ProfileStatus) (*Profile, error) {
	query := `UPDATE profiles SET status = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, string(status), formatTime(s.now()), id)
	if err != nil {
		return nil, fmt.Errorf("updating profile status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return nil, ErrNotFound
	}

	s.logger.Debug("updated profile status", "id", id, "status", status)
	return s.GetProfile(ctx, id)
}
