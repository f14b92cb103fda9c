// Command finxctl manages the local finx session from a terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"finx-auth/internal/app"
	"finx-auth/internal/config"
	"finx-auth/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOptions struct {
	configPath string
	storePath  string
	outputJSON bool
	verbose    bool
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "finxctl",
		Short: "Sign in to finx and inspect the stored session",
		Long: `finxctl signs in against the finx identity endpoint and keeps the
session (access token, refresh token and profile) in a local store shared
with later invocations.

Examples:
  finxctl login --email user@x.com --password-stdin < pw.txt
  finxctl status
  finxctl token              # prints a valid access token, refreshing if needed
  finxctl logout
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "error"
			if opts.verbose {
				level = "debug"
			}
			logger.Setup(cmd.ErrOrStderr(), level)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides FINX_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.storePath, "store", "", "session file (default: user config dir)")
	cmd.PersistentFlags().BoolVar(&opts.outputJSON, "json", false, "Output results as JSON")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	cmd.AddCommand(
		loginCmd(opts),
		logoutCmd(opts),
		statusCmd(opts),
		tokenCmd(opts),
		refreshCmd(opts),
		whoamiCmd(opts),
	)

	return cmd
}

// openServices loads configuration and wires the session stack. The
// in-memory store would forget the session on exit, so it is replaced by
// the session file.
func openServices(ctx context.Context, opts *globalOptions) (*app.Services, error) {
	if opts.configPath != "" {
		if err := os.Setenv("FINX_CONFIG", opts.configPath); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if opts.storePath != "" {
		cfg.StoreDriver = config.StoreFile
		cfg.StorePath = opts.storePath
	}
	if cfg.StoreDriver == config.StoreMemory {
		path, err := defaultStorePath()
		if err != nil {
			return nil, err
		}
		cfg.StoreDriver = config.StoreFile
		cfg.StorePath = path
	}

	return app.NewServices(ctx, cfg, nil)
}

func defaultStorePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "finx", "session.json"), nil
}
