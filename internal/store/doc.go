// Package store provides persistent storage for the gateway using SQLite.
//
// # Architecture
//
// The store is split into narrow interfaces so each consumer asks only for
// what it uses:
//
//   - ThreadStore: owner-scoped thread rows keyed by the runtime thread id
//   - AdminThreadStore: unscoped thread lookup and listing
//   - ProfileStore: account profiles with role and status
//
// Store composes all three. SQLiteStore and MockStore both implement it.
//
// # Data Models
//
//   - Thread: links an owner profile to a remote assistant thread
//     (table chat_threads; updated_at orders listings by recent activity)
//   - Profile: an account with email, full name, role (user or admin),
//     status and bcrypt password hash (table profiles)
//
// Message content is never stored locally; the assistant runtime owns it.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Timestamps are written as fixed-width UTC text so lexical order matches
// chronological order. The schema is created on open.
//
// # Error Handling
//
//   - ErrNotFound: requested row does not exist or is not owned by the caller
//   - ErrDuplicateThread: a row already links that runtime thread
//   - ErrDuplicateEmail: a profile with that email exists
//
// # Testing
//
// Use NewMockStore() for unit tests. It supports failure injection through
// CreateThreadErr, FindThreadErr and TouchThreadErr, and counts TouchThread
// calls. Use NewSQLiteStore(":memory:") for integration tests.
package store
