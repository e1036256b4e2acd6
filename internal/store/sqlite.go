// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides conversation thread persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeFormat is fixed-width so that ORDER BY on the text column sorts chronologically
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
		now:    time.Now,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS profiles (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			full_name     TEXT NOT NULL,
			role          TEXT NOT NULL DEFAULT 'user',
			status        TEXT NOT NULL DEFAULT 'active',
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL,

			CHECK (role IN ('user', 'admin')),
			CHECK (status IN ('active', 'disabled'))
		);

		CREATE INDEX IF NOT EXISTS idx_profiles_role ON profiles(role);

		CREATE TABLE IF NOT EXISTS chat_threads (
			id                 TEXT PRIMARY KEY,
			client_id          TEXT NOT NULL,
			client_fullname    TEXT NOT NULL,
			openai_thread_id   TEXT NOT NULL UNIQUE,
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_chat_threads_client ON chat_threads(client_id, updated_at);
		CREATE INDEX IF NOT EXISTS idx_chat_threads_updated ON chat_threads(updated_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// isUniqueViolation checks if the error is a SQLite UNIQUE constraint violation.
// CHECK and NOT NULL failures are not matched.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

// CreateThread links a runtime thread to its owner. The row id and
// timestamps are assigned here. Returns ErrDuplicateThread if the runtime
// thread id is already linked.
func (s *SQLiteStore) CreateThread(ctx context.Context, ownerID, ownerDisplayName, externalThreadID string) (*Thread, error) {
	now := s.now().UTC()
	thread := &Thread{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		OwnerDisplayName: ownerDisplayName,
		ExternalThreadID: externalThreadID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	query := `
		INSERT INTO chat_threads (id, client_id, client_fullname, openai_thread_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		thread.ID,
		thread.OwnerID,
		thread.OwnerDisplayName,
		thread.ExternalThreadID,
		formatTime(thread.CreatedAt),
		formatTime(thread.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateThread
		}
		return nil, fmt.Errorf("inserting thread: %w", err)
	}

	s.logger.Debug("created thread", "id", thread.ID, "external_thread_id", externalThreadID)
	return thread, nil
}

const threadColumns = `id, client_id, client_fullname, openai_thread_id, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*Thread, error) {
	var thread Thread
	var createdAtStr, updatedAtStr string

	if err := row.Scan(
		&thread.ID,
		&thread.OwnerID,
		&thread.OwnerDisplayName,
		&thread.ExternalThreadID,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return nil, err
	}

	var err error
	thread.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	thread.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &thread, nil
}

// FindThreadByExternalID retrieves a thread by runtime thread id, scoped to ownerID.
// Returns ErrNotFound when the thread doesn't exist or belongs to someone else.
func (s *SQLiteStore) FindThreadByExternalID(ctx context.Context, externalThreadID, ownerID string) (*Thread, error) {
	query := `SELECT ` + threadColumns + `
		FROM chat_threads
		WHERE openai_thread_id = ? AND client_id = ?
	`

	thread, err := scanThread(s.db.QueryRowContext(ctx, query, externalThreadID, ownerID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}
	return thread, nil
}

// GetThreadByExternalID retrieves a thread by runtime thread id regardless of owner.
// Only administrative paths use this.
func (s *SQLiteStore) GetThreadByExternalID(ctx context.Context, externalThreadID string) (*Thread, error) {
	query := `SELECT ` + threadColumns + `
		FROM chat_threads
		WHERE openai_thread_id = ?
	`

	thread, err := scanThread(s.db.QueryRowContext(ctx, query, externalThreadID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying thread: %w", err)
	}
	return thread, nil
}

// TouchThread sets updated_at to now for the given runtime thread id.
// Returns ErrNotFound if no row matched.
func (s *SQLiteStore) TouchThread(ctx context.Context, externalThreadID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chat_threads SET updated_at = ? WHERE openai_thread_id = ?`,
		formatTime(s.now()), externalThreadID,
	)
	if err != nil {
		return fmt.Errorf("touching thread: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteThread removes the local row only.
// Returns ErrNotFound if the thread doesn't exist.
func (s *SQLiteStore) DeleteThread(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM chat_threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting thread: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("deleted thread", "id", id)
	return nil
}

// clampLimit applies the default of 100 and the ceiling of 1000
func clampLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

// ListThreadsByOwner retrieves one owner's threads ordered by most recent activity.
func (s *SQLiteStore) ListThreadsByOwner(ctx context.Context, ownerID string, limit int) ([]*Thread, error) {
	query := `SELECT ` + threadColumns + `
		FROM chat_threads
		WHERE client_id = ?
		ORDER BY updated_at DESC
		LIMIT ?
	`
	return s.queryThreads(ctx, query, ownerID, clampLimit(limit))
}

// ListThreads retrieves all threads ordered by most recent activity.
// If limit is 0 or negative, a default limit of 100 is used.
func (s *SQLiteStore) ListThreads(ctx context.Context, limit int) ([]*Thread, error) {
	query := `SELECT ` + threadColumns + `
		FROM chat_threads
		ORDER BY updated_at DESC
		LIMIT ?
	`
	return s.queryThreads(ctx, query, clampLimit(limit))
}

func (s *SQLiteStore) queryThreads(ctx context.Context, query string, args ...any) ([]*Thread, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying threads: %w", err)
	}
	defer rows.Close()

	threads := make([]*Thread, 0)
	for rows.Next() {
		thread, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning thread: %w", err)
		}
		threads = append(threads, thread)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating threads: %w", err)
	}
	return threads, nil
}
