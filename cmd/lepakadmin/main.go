// Command lepakadmin operates the Lepak Masjid backend: it repairs
// collection API rules, reviews mosque submissions, and manages user
// accounts.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/Atan0707/lepakmasjid/internal/config"
	"github.com/Atan0707/lepakmasjid/internal/repository"
	"github.com/Atan0707/lepakmasjid/internal/service"
	"github.com/Atan0707/lepakmasjid/pkg/pocketbase"
)

var (
	// Global flags
	verbose   bool
	serverURL string
	timeout   time.Duration

	// Logger
	logger   *zap.Logger
	logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lepakadmin",
	Short: "Admin tooling for the Lepak Masjid backend",
	Long: `lepakadmin talks to the PocketBase instance behind Lepak Masjid.

It patches collection API rules, lists and reviews mosque submissions,
and bans or unbans user accounts. Credentials come from the environment
(POCKETBASE_ADMIN_EMAIL, LEPAK_REVIEWER_EMAIL, ...) and are prompted
for when missing.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}
		cfg := zap.NewProductionConfig()
		cfg.Level = logLevel
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// healthCmd pings the backend
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.pb.Health(cmd.Context()); err != nil {
			return fmt.Errorf("backend unreachable: %w", err)
		}
		fmt.Printf("backend healthy: %s\n", a.pb.BaseURL())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", "", "Backend base URL (overrides POCKETBASE_URL)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (overrides LEPAK_HTTP_TIMEOUT_SEC)")

	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(submissionsCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app wires the client, repositories and services for one invocation.
type app struct {
	cfg      *config.Config
	pb       *pocketbase.Client
	users    *repository.UserRepo
	subs     *repository.SubmissionRepo
	mosques  *repository.MosqueRepo
	review   *service.ReviewService
	accounts *service.AccountService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.URL = serverURL
	}
	if timeout > 0 {
		cfg.HTTPTimeout = timeout
	}
	if cfg.Debug {
		logLevel.SetLevel(zapcore.DebugLevel)
	}

	pb := pocketbase.New(cfg.URL,
		pocketbase.WithTimeout(cfg.HTTPTimeout),
		pocketbase.WithLogger(logger),
	)
	users := repository.NewUserRepo(pb)
	subs := repository.NewSubmissionRepo(pb)
	mosques := repository.NewMosqueRepo(pb)

	return &app{
		cfg:      cfg,
		pb:       pb,
		users:    users,
		subs:     subs,
		mosques:  mosques,
		review:   service.NewReviewService(subs, mosques, pb, logger),
		accounts: service.NewAccountService(users, pb, logger),
	}, nil
}

// signInAdmin opens a superuser session for the collection management API.
func (a *app) signInAdmin(ctx context.Context) error {
	email, password, err := resolveCredentials("admin", a.cfg.AdminEmail, a.cfg.AdminPassword)
	if err != nil {
		return err
	}
	if _, err := a.pb.AdminAuthWithPassword(ctx, email, password); err != nil {
		return fmt.Errorf("admin sign-in failed: %w", err)
	}
	logger.Debug("signed in as admin", zap.String("email", email))
	return nil
}

// signInReviewer opens a regular user session; the signed-in user is recorded
// as the reviewer on every decision.
func (a *app) signInReviewer(ctx context.Context) error {
	email, password, err := resolveCredentials("reviewer", a.cfg.ReviewerEmail, a.cfg.ReviewerPassword)
	if err != nil {
		return err
	}
	if _, err := a.pb.AuthWithPassword(ctx, repository.UsersCollection, email, password); err != nil {
		return fmt.Errorf("reviewer sign-in failed: %w", err)
	}
	logger.Debug("signed in as reviewer", zap.String("email", email))
	return nil
}

func resolveCredentials(role, email, password string) (string, string, error) {
	var err error
	if email == "" {
		email, err = promptLine(role + " email")
		if err != nil {
			return "", "", err
		}
	}
	if password == "" {
		password, err = promptPassword(role + " password")
		if err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", fmt.Errorf("%s credentials are required", role)
	}
	return email, password, nil
}

// stdin is shared by every prompt; a fresh reader per prompt would buffer
// ahead and drop the next line when credentials are piped in.
var stdin = bufio.NewReader(os.Stdin)

func promptLine(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal.
func promptPassword(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", label, err)
		}
		return string(raw), nil
	}
	line, err := stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimSpace(line), nil
}
