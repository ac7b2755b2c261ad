// Command rwctl drives a runweave run database from the terminal: runs,
// logs, artifacts, functions, and remote image builds.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/runweave-labs/runweave-go/rundb"
	"github.com/runweave-labs/runweave-go/sqldb"
)

var (
	// Global flags
	configPath  string
	flagURL     string
	flagUser    string
	flagPass    string
	flagToken   string
	flagTimeout time.Duration
	project     string
	localMode   bool
	verbose     bool

	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rwctl",
	Short: "Operate a runweave run database",
	Long: `rwctl talks to a runweave run database service, or with --local to an
embedded Postgres + object store backend, through the same operations:
runs, logs, artifacts, functions, and remote builds.

Connection settings come from flags, an optional YAML config file, and
RUNWEAVE_* environment variables, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Service URL (default RUNWEAVE_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "Basic auth user")
	rootCmd.PersistentFlags().StringVar(&flagPass, "password", "", "Basic auth password")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "Bearer token")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Per-request timeout (default RUNWEAVE_TIMEOUT or 20s)")
	rootCmd.PersistentFlags().StringVarP(&project, "project", "p", "", "Project name (default \"default\")")
	rootCmd.PersistentFlags().BoolVar(&localMode, "local", false, "Use the embedded backend instead of a service")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(artifactCmd)
	rootCmd.AddCommand(functionCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rwctl:", err)
		os.Exit(1)
	}
}

// commandContext is cancelled by SIGINT/SIGTERM so watch loops stop cleanly.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// backend is the selected run database plus whatever needs closing with it.
type backend struct {
	db     rundb.RunDB
	client *rundb.Client // nil in local mode
	close  func()
}

func openBackend(ctx context.Context) (*backend, error) {
	if localMode {
		store, err := sqldb.Open(ctx)
		if err != nil {
			return nil, err
		}
		return &backend{db: store, close: func() { _ = store.Close() }}, nil
	}

	cfg, err := clientConfig()
	if err != nil {
		return nil, err
	}
	client, err := rundb.New(cfg)
	if err != nil {
		return nil, err
	}
	return &backend{db: client, client: client, close: func() {}}, nil
}

// clientConfig layers flags over the optional config file over RUNWEAVE_*
// environment variables.
func clientConfig() (rundb.Config, error) {
	cfg, err := rundb.ConfigFromEnv()
	if err != nil {
		return rundb.Config{}, err
	}
	if configPath != "" {
		fc, err := loadFileConfig(configPath)
		if err != nil {
			return rundb.Config{}, err
		}
		cfg = fc.overlay(cfg)
	}
	if flagURL != "" {
		cfg.BaseURL = flagURL
	}
	if flagUser != "" {
		cfg.User = flagUser
	}
	if flagPass != "" {
		cfg.Password = flagPass
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if flagTimeout > 0 {
		cfg.Timeout = flagTimeout
	}
	cfg.Logger = logger
	return cfg, nil
}
