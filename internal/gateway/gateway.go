// ABOUTME: Gateway orchestrator that wires the store, assistant runtime and HTTP server
// ABOUTME: Manages listener setup (TCP or tailnet), routing and graceful shutdown

package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"tailscale.com/ipn/ipnstate"
	"tailscale.com/tsnet"

	"github.com/luksoai/lukso-gateway/internal/assistant"
	"github.com/luksoai/lukso-gateway/internal/auth"
	"github.com/luksoai/lukso-gateway/internal/config"
	"github.com/luksoai/lukso-gateway/internal/conversation"
	"github.com/luksoai/lukso-gateway/internal/store"
)

// shutdownTimeout bounds graceful shutdown after the run context ends
const shutdownTimeout = 5 * time.Second

// Gateway serves the chat, auth and admin HTTP API.
type Gateway struct {
	config       *config.Config
	store        store.Store
	conversation *conversation.Service
	accounts     *auth.Service
	issuer       *auth.JWTIssuer
	httpServer   *http.Server
	tsnetServer  *tsnet.Server
	logger       *slog.Logger
	version      string
	now          func() time.Time
}

// Option customizes a Gateway
type Option func(*options)

type options struct {
	store   store.Store
	ai      assistant.Client
	version string
}

// WithStore uses st instead of opening the configured database.
func WithStore(st store.Store) Option {
	return func(o *options) { o.store = st }
}

// WithAssistantClient uses ai instead of the OpenAI client.
func WithAssistantClient(ai assistant.Client) Option {
	return func(o *options) { o.ai = ai }
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// initStore creates and returns a store based on config and environment.
func initStore(cfg *config.Config) (store.Store, error) {
	s, err := store.NewSQLiteStore(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// New creates a gateway from configuration. It opens the store unless one is
// supplied with WithStore.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	st := o.store
	if st == nil {
		var err error
		st, err = initStore(cfg)
		if err != nil {
			return nil, err
		}
	}

	ai := o.ai
	if ai == nil {
		ai = assistant.NewOpenAIClient(assistant.Options{
			APIKey:         cfg.Assistant.APIKey,
			BaseURL:        cfg.Assistant.BaseURL,
			RequestTimeout: cfg.Assistant.RequestTimeout,
		}, logger)
	}

	issuer := auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)

	gw := &Gateway{
		config: cfg,
		store:  st,
		conversation: conversation.New(st, ai, conversation.Config{
			AssistantID:     cfg.Assistant.AssistantID,
			PollInterval:    cfg.Assistant.PollInterval,
			MaxPollAttempts: cfg.Assistant.MaxPollAttempts,
		}, logger),
		accounts: auth.NewService(st, issuer, logger),
		issuer:   issuer,
		logger:   logger.With("component", "gateway"),
		version:  o.version,
		now:      time.Now,
	}

	gw.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           gw.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return gw, nil
}

// Handler returns the gateway's full HTTP handler including CORS.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	requireUser := auth.RequireUser(g.store, g.issuer, g.logger)
	requireAdmin := auth.RequireAdmin(g.store, g.issuer, g.logger)

	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /{$}", g.handleRoot)

	mux.HandleFunc("POST /api/auth/register", g.handleRegister)
	mux.HandleFunc("POST /api/auth/login", g.handleLogin)
	mux.HandleFunc("POST /api/auth/logout", g.handleLogout)
	mux.HandleFunc("POST /api/auth/refresh", g.handleRefresh)
	mux.HandleFunc("GET /api/auth/verify", g.handleVerify)

	mux.Handle("POST /api/chat/conversation", requireUser(http.HandlerFunc(g.handleConversation)))
	mux.Handle("POST /api/chat/start", requireUser(http.HandlerFunc(g.handleStartThread)))
	mux.Handle("GET /api/chat/threads", requireUser(http.HandlerFunc(g.handleListThreads)))
	mux.Handle("GET /api/chat/threads/{threadId}/messages", requireUser(http.HandlerFunc(g.handleThreadMessages)))
	mux.Handle("DELETE /api/chat/threads/{threadId}", requireUser(http.HandlerFunc(g.handleDeleteThread)))

	mux.Handle("GET /api/admin/users", requireAdmin(http.HandlerFunc(g.handleAdminUsers)))
	mux.Handle("PATCH /api/admin/users/{userId}/status", requireAdmin(http.HandlerFunc(g.handleAdminUserStatus)))
	mux.Handle("GET /api/admin/threads", requireAdmin(http.HandlerFunc(g.handleAdminThreads)))
	mux.Handle("GET /api/admin/threads/{threadId}/messages", requireAdmin(http.HandlerFunc(g.handleAdminThreadMessages)))

	mux.HandleFunc("/", g.handleNotFound)

	return corsMiddleware(g.config.Server.CORSOrigins)(mux)
}

// setupListener creates the HTTP listener based on configuration (Tailscale or TCP).
func (g *Gateway) setupListener(ctx context.Context) (net.Listener, error) {
	if g.config.Tailscale.Enabled {
		if g.config.Server.HTTPAddr != "" {
			g.logger.Warn("server.http_addr is ignored when tailscale is enabled", "http_addr", g.config.Server.HTTPAddr)
		}
		return g.setupTailscaleListener(ctx)
	}

	ln, err := net.Listen("tcp", g.config.Server.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on HTTP address: %w", err)
	}
	return ln, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
// Returns nil on graceful shutdown, or an error if the server fails.
func (g *Gateway) Run(ctx context.Context) error {
	ln, err := g.setupListener(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		if err := g.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		g.logger.Info("context canceled, initiating shutdown")
	case serverErr = <-errCh:
		g.logger.Error("server error", "error", serverErr)
	}

	// the run context is already done, so shutdown gets a fresh one
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := g.Shutdown(shutdownCtx)

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// resolveTailscaleStateDir returns the state directory, using default if not configured.
func resolveTailscaleStateDir(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for tailscale state (set tailscale.state_dir explicitly): %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "lukso-gateway", "tailscale"), nil
}

// resolveTailscaleAuthKey returns the auth key from config or environment.
func resolveTailscaleAuthKey(configured string) (string, error) {
	authKey := configured
	if authKey == "" {
		authKey = os.Getenv("TS_AUTHKEY")
	}
	if authKey == "" {
		return "", errors.New("tailscale auth key required: set auth_key in config or TS_AUTHKEY environment variable")
	}
	return authKey, nil
}

// setupTailscaleListener joins the tailnet and listens on :80, or on :443
// through Funnel when public ingress is enabled.
func (g *Gateway) setupTailscaleListener(ctx context.Context) (net.Listener, error) {
	tsCfg := g.config.Tailscale

	stateDir, err := resolveTailscaleStateDir(tsCfg.StateDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return nil, fmt.Errorf("creating tailscale state dir: %w", err)
	}

	authKey, err := resolveTailscaleAuthKey(tsCfg.AuthKey)
	if err != nil {
		return nil, err
	}

	g.tsnetServer = &tsnet.Server{
		Hostname:  tsCfg.Hostname,
		Dir:       stateDir,
		Ephemeral: tsCfg.Ephemeral,
		AuthKey:   authKey,
	}

	g.logger.Info("starting tailscale node", "hostname", tsCfg.Hostname, "state_dir", stateDir, "ephemeral", tsCfg.Ephemeral)
	status, err := g.tsnetServer.Up(ctx)
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("starting tailscale: %w", err)
	}
	g.logTailscaleStatus(tsCfg.Hostname, status)

	var ln net.Listener
	if tsCfg.Funnel {
		g.logger.Info("enabling tailscale funnel (public HTTPS) on :443")
		ln, err = g.tsnetServer.ListenFunnel("tcp", ":443")
	} else {
		ln, err = g.tsnetServer.Listen("tcp", ":80")
	}
	if err != nil {
		_ = g.tsnetServer.Close()
		return nil, fmt.Errorf("listening on tailscale HTTP port: %w", err)
	}
	return ln, nil
}

// logTailscaleStatus logs info about the tailscale node status.
func (g *Gateway) logTailscaleStatus(hostname string, status *ipnstate.Status) {
	var tsAddr, dnsName string
	if len(status.TailscaleIPs) > 0 {
		tsAddr = status.TailscaleIPs[0].String()
	} else {
		g.logger.Warn("tailscale node has no IP addresses assigned")
	}
	if status.Self != nil {
		dnsName = status.Self.DNSName
	}
	g.logger.Info("tailscale node ready", "hostname", hostname, "tailscale_ip", tsAddr, "dns_name", dnsName)
}

// appendCloseError appends an error with label if err is non-nil.
func appendCloseError(errs []error, label string, err error) []error {
	if err != nil {
		return append(errs, fmt.Errorf("%s: %w", label, err))
	}
	return errs
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.logger.Info("shutting down gateway")

	var errs []error
	errs = appendCloseError(errs, "HTTP shutdown", g.httpServer.Shutdown(ctx))

	if g.tsnetServer != nil {
		errs = appendCloseError(errs, "tailscale shutdown", g.tsnetServer.Close())
	}
	errs = appendCloseError(errs, "store close", g.store.Close())

	return errors.Join(errs...)
}
