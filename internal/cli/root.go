// Package cli implements genctl, the operator command line. It works on the
// same database and ledger as the server, without going through HTTP.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"generator_ledger/internal/app"
	"generator_ledger/internal/config"
	"generator_ledger/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigDir string
	Format    string // "text" | "json" | "yaml"
	Verbose   bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// Opener builds the service graph for one command.
type Opener func(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app.App, error)

// NewRootCommand creates the genctl root command backed by the configured
// database and ledger.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(OpenFromConfig)
}

// NewRootCommandWith is NewRootCommand with a custom opener.
func NewRootCommandWith(open Opener) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "genctl",
		Short: "genctl - standby generator ledger",
		Long:  "Inspect and operate the generator shift tracker and its spreadsheet ledger.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigDir, "config", "c", "", "directory containing config.yml")
	cmd.PersistentFlags().StringVarP(&opts.Format, "output", "o", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log to stderr at debug level")

	cmd.AddCommand(NewStateCommand(opts, open))
	cmd.AddCommand(NewSyncCommand(opts, open))
	cmd.AddCommand(NewOfflineCommand(opts, open))
	cmd.AddCommand(NewOnlineCommand(opts, open))
	cmd.AddCommand(NewUnsyncedCommand(opts, open))
	cmd.AddCommand(NewAutoCloseCommand(opts, open))

	return cmd
}

// OpenFromConfig loads configuration from opts.ConfigDir and opens the app
// with notifications disabled. Logs go to the command's stderr.
func OpenFromConfig(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app.App, error) {
	var dirs []string
	if opts.ConfigDir != "" {
		dirs = append(dirs, opts.ConfigDir)
	}
	cfg, err := config.Load(dirs...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}

	level := logger.WarnLevel
	if opts.Verbose {
		level = logger.DebugLevel
	}
	log := logger.NewWriter(level, cfg.Log.Format, cmd.ErrOrStderr())

	a, err := app.Open(ctx, cfg, log, app.Options{NoNotify: true})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open", err)
	}
	return a, nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
