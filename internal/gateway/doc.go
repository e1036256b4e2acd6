// Package gateway wires the lukso-gateway server components together.
//
// # Overview
//
// Gateway owns the store, the conversation service, the account service and
// the HTTP server. New builds everything from a *config.Config; options
// replace the store or the assistant runtime client, which is how tests run
// the full HTTP surface without a database file or network access:
//
//	gw, err := gateway.New(cfg, logger,
//	    gateway.WithStore(store.NewMockStore()),
//	    gateway.WithAssistantClient(fake))
//
// # HTTP API
//
// Chat (RequireUser, threads scoped to the caller):
//
//   - POST /api/chat/conversation - one conversation turn
//   - POST /api/chat/start - open an empty thread
//   - GET /api/chat/threads - caller's threads by recent activity
//   - GET /api/chat/threads/{threadId}/messages - history, ?format=html renders markdown
//   - DELETE /api/chat/threads/{threadId} - drop the local link only
//
// Auth (public): register, login, logout, refresh and verify under /api/auth.
//
// Admin (RequireAdmin): /api/admin/users, PATCH /api/admin/users/{userId}/status
// (activate or disable), /api/admin/threads and
// /api/admin/threads/{threadId}/messages.
//
// Service: GET /health, GET / and a JSON 404 for everything else.
//
// # Errors
//
// writeConversationError is the only place domain errors become status
// codes: validation 400, unknown or foreign thread 404, every runtime
// failure 500 with a fixed message. The underlying error is logged.
//
// # Listeners
//
// Run listens on server.http_addr, or joins a tailnet with tsnet when
// tailscale.enabled is set (:80, or :443 through Funnel). It blocks until the
// context is canceled and then shuts down within five seconds.
package gateway
