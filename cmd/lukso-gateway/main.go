// ABOUTME: Entry point for lukso-gateway, the chat backend in front of the assistants runtime
// ABOUTME: Cobra commands for serve, bootstrap (first admin) and health

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/luksoai/lukso-gateway/internal/auth"
	"github.com/luksoai/lukso-gateway/internal/config"
	"github.com/luksoai/lukso-gateway/internal/gateway"
	"github.com/luksoai/lukso-gateway/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
  _       _                                _
 | |_   _| | _____  ___         __ _  __ _| |_ _____      ____ _ _   _
 | | | | | |/ / __|/ _ \ _____ / _' |/ _' | __/ _ \ \ /\ / / _' | | | |
 | | |_| |   <\__ \ (_) |_____| (_| | (_| | ||  __/\ V  V / (_| | |_| |
 |_|\__,_|_|\_\___/\___/       \__, |\__,_|\__\___| \_/\_/ \__,_|\__, |
                               |___/                             |___/
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "lukso-gateway",
		Short:         "LuksoAI chat backend",
		Long:          "lukso-gateway serves the LuksoAI chat API in front of the OpenAI Assistants runtime.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $LUKSO_CONFIG or ~/.config/lukso/gateway.yaml)")

	resolve := func() string {
		if configPath != "" {
			return configPath
		}
		return config.DefaultPath()
	}

	root.AddCommand(newServeCommand(resolve))
	root.AddCommand(newBootstrapCommand(resolve))
	root.AddCommand(newHealthCommand(resolve))
	return root
}

func newServeCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath())
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.DatabasePath())
	green.Print("    ▶ ")
	fmt.Printf("Assistant: %s\n", cfg.Assistant.AssistantID)

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}
	fmt.Println()

	logger.Info("starting lukso-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"assistant_id", cfg.Assistant.AssistantID,
	)

	gw, err := gateway.New(cfg, logger, gateway.WithVersion(version))
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func newBootstrapCommand(configPath func() string) *cobra.Command {
	var email, name, password string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create the first admin account",
		Long: `Create an admin profile directly in the database.

Registration over HTTP always creates regular users, so the first admin
has to be created here. Bootstrap refuses to run once any admin exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("LUKSO_ADMIN_PASSWORD")
			}
			return runBootstrap(cmd.Context(), configPath(), email, name, password)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "admin email (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "admin full name (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "admin password (default $LUKSO_ADMIN_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func runBootstrap(ctx context.Context, configPath, email, name, password string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("name cannot be empty or whitespace only")
	}
	if password == "" {
		return errors.New("password is required: pass --password or set LUKSO_ADMIN_PASSWORD")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	dbPath := cfg.DatabasePath()
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	green.Printf("  ✓ Database: %s\n", dbPath)

	adminRole := store.RoleAdmin
	admins, err := s.ListProfiles(ctx, store.ProfileFilter{Role: &adminRole, Limit: 1})
	if err != nil {
		return fmt.Errorf("checking admins: %w", err)
	}
	if len(admins) > 0 {
		return fmt.Errorf("bootstrap already complete: admin %s exists", admins[0].Email)
	}

	issuer := auth.NewJWTIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	accounts := auth.NewService(s, issuer, setupLogger(cfg.Logging))

	profile, err := accounts.CreateAdmin(ctx, auth.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: name,
	})
	if err != nil {
		var regErr *auth.RegistrationError
		if errors.As(err, &regErr) {
			return errors.New(regErr.Reason)
		}
		return fmt.Errorf("creating admin: %w", err)
	}

	green.Printf("  ✓ Created admin: %s\n", profile.Email)

	fmt.Println()
	green.Println("  Bootstrap complete!")
	fmt.Println()
	cyan.Println("  Admin Profile")
	cyan.Println("  -------------")
	fmt.Printf("  ID:        %s\n", profile.ID)
	fmt.Printf("  Email:     %s\n", profile.Email)
	fmt.Printf("  Full Name: %s\n", profile.FullName)
	fmt.Printf("  Role:      %s\n", profile.Role)
	fmt.Println()

	yellow.Println("  Ready to go:")
	fmt.Println("    lukso-gateway serve                     # start the gateway")
	fmt.Println("    POST /api/auth/login with these credentials")
	fmt.Println()

	return nil
}

func newHealthCommand(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check gateway health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd.Context(), configPath())
		},
	}
}

func runHealth(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
