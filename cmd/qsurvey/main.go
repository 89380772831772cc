// Package main provides the CLI entrypoint for qsurvey.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/qsurvey/internal/api"
	"github.com/verte-zerg/qsurvey/internal/app"
	"github.com/verte-zerg/qsurvey/internal/config"
	"github.com/verte-zerg/qsurvey/internal/logger"
	"github.com/verte-zerg/qsurvey/internal/model"
	"github.com/verte-zerg/qsurvey/internal/session"
	"github.com/verte-zerg/qsurvey/internal/store"
)

const (
	defaultBaseURL    = "http://localhost:3002"
	defaultTimeout    = "30s"
	defaultLogLevel   = logger.InfoLevel
	defaultBatchLimit = 4
	envBaseURL        = "QSURVEY_BASE_URL"
)

var (
	errSessionExpired = errors.New("session expired; run: qsurvey login")
	errNotLoggedIn    = errors.New("not logged in; run: qsurvey login")
)

var (
	globalBaseURL     string
	globalTimeout     string
	globalLogLevel    string
	globalLogFile     string
	globalDownloadDir string

	dashboardTheme string
)

func main() {
	rootCmd := newRootCmd()
	err := rootCmd.Execute()
	if cerr := logger.Get().Close(); cerr != nil {
		logErrf("failed to close log: %v\n", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "qsurvey",
		Short:         "Survey analytics dashboard",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalBaseURL, "base-url", defaultBaseURL, "survey API base URL")
	flags.StringVar(&globalTimeout, "timeout", defaultTimeout, "request timeout")
	flags.StringVar(&globalLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	flags.StringVar(&globalLogFile, "log-file", "", "log file path, '-' for stderr (default: XDG state dir)")
	flags.StringVar(&globalDownloadDir, "download-dir", "", "directory for exports and images (default: ~/Downloads/qsurvey)")
	rootCmd.Flags().StringVar(&dashboardTheme, "theme", app.ThemeDark, "color theme (dark, light)")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImagesCmd())
	rootCmd.AddCommand(newDecodeCmd())

	return rootCmd
}

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	m := app.New(app.Options{
		Gate:        e.gate,
		Backend:     e.client,
		Prefs:       e.store,
		DownloadDir: e.cfg.DownloadDir,
		Theme:       e.cfg.Theme,
		Logger:      e.log,
	})
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// env holds what every networked command needs.
type env struct {
	cfg    model.Config
	log    *logger.Logger
	store  *store.Store
	gate   *session.Gate
	client *api.Client
}

func openEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		logErrf("logging disabled: %v\n", err)
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	gate := session.NewGate(st)
	client, err := api.New(api.Options{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Tokens:  gate,
		Logger:  log,
	})
	if err != nil {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: st, gate: gate, client: client}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

// requireSession resolves the gate and fails when no session is stored.
func (e *env) requireSession(ctx context.Context) error {
	status, err := e.gate.Start(ctx)
	if err != nil {
		e.log.Warnw("session check failed", "error", err)
	}
	if status != session.Authenticated {
		return errNotLoggedIn
	}
	return nil
}

// apiError expires the session when the backend rejected the token.
func (e *env) apiError(ctx context.Context, err error) error {
	if !errors.Is(err, api.ErrSessionExpired) {
		return err
	}
	if eerr := e.gate.Expire(ctx); eerr != nil {
		e.log.Warnw("failed to expire session", "error", eerr)
	}
	e.log.Infow("session expired")
	return errSessionExpired
}

func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "base-url", &globalBaseURL, fileCfg.API.BaseURL)
	if !cmd.Flags().Changed("base-url") {
		if v := strings.TrimSpace(os.Getenv(envBaseURL)); v != "" {
			globalBaseURL = v
		}
	}
	applyStringConfig(cmd, "timeout", &globalTimeout, fileCfg.API.Timeout)
	applyStringConfig(cmd, "log-level", &globalLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-file", &globalLogFile, fileCfg.Log.File)
	applyStringConfig(cmd, "download-dir", &globalDownloadDir, fileCfg.Download.Dir)
	applyStringConfig(cmd, "theme", &dashboardTheme, fileCfg.UI.Theme)

	timeout, err := config.ParseTimeout(globalTimeout)
	if err != nil {
		return model.Config{}, fmt.Errorf("invalid --timeout: %w", err)
	}
	cfg := model.Config{
		BaseURL:     strings.TrimSpace(globalBaseURL),
		Timeout:     timeout,
		DownloadDir: globalDownloadDir,
		Theme:       dashboardTheme,
		LogLevel:    globalLogLevel,
		LogFile:     globalLogFile,
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = config.DefaultDownloadDir()
	}
	if cfg.LogFile == "" {
		cfg.LogFile = config.DefaultLogPath()
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("--base-url must not be empty")
	}
	if !logger.ValidLevel(cfg.LogLevel) {
		return fmt.Errorf("--log-level must be one of debug, info, warn, error")
	}
	if cfg.Theme != app.ThemeDark && cfg.Theme != app.ThemeLight {
		return fmt.Errorf("--theme must be dark or light")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
