// Package cmd contains all CLI commands for rentixctl
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Mavton23/rentix/internal/config"
	applog "github.com/Mavton23/rentix/internal/logger"
	"github.com/Mavton23/rentix/internal/output"
)

var (
	cfgFile   string
	envFile   string
	verbose   bool
	quiet     bool
	jsonOut   bool
	colorFlag string
	cfg       *config.Config
	logger    *slog.Logger
	printer   *output.Printer
	version   = "dev"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rentixctl",
	Short: "Rentix property management client",
	Long: `rentixctl talks to the Rentix backend on behalf of one signed-in user.

The session (token and user) is persisted locally and reused by every command
until you log out or the server rejects it.

Example usage:
  rentixctl login --email ana@rentix.com.br   # Sign in
  rentixctl whoami                            # Show the current session
  rentixctl tenants list --search souza       # Search tenants
  rentixctl payments list --status atrasado   # Late payments
  rentixctl serve                             # Start the web console`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every subcommand.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
}

// Printer returns the printer configured for the last run, or a plain one.
func Printer() *output.Printer {
	if printer != nil {
		return printer
	}
	return output.NewPrinter(output.PrinterOptions{ColorMode: output.ColorNever})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .rentix.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before the config (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress informational output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always, or never")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &output.CLIError{
			Summary:    err.Error(),
			Suggestion: fmt.Sprintf("Run '%s --help'", c.CommandPath()),
			ExitCode:   output.ExitUsageError,
			Err:        err,
		}
	})
}

// initConfig reads in config file and ENV variables, then builds the logger and printer.
func initConfig(cmd *cobra.Command) error {
	mode, err := output.ParseColorMode(colorFlag)
	if err != nil {
		return &output.CLIError{Summary: err.Error(), ExitCode: output.ExitUsageError, Err: err}
	}

	cfg, err = config.Load(cfgFile, envFile)
	if err != nil {
		return &output.CLIError{
			Summary:    "invalid configuration",
			Detail:     err.Error(),
			Suggestion: "Check .rentix.yaml and RENTIX_* environment variables",
			ExitCode:   output.ExitConfigError,
			Err:        err,
		}
	}

	level := applog.ParseLevel(cfg.Logging.Level)
	if verbose {
		level = slog.LevelDebug
	}
	logger = applog.New(applog.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		OTel:   cfg.Telemetry.Enabled,
		Writer: cmd.ErrOrStderr(),
	})

	printer = output.NewPrinter(output.PrinterOptions{
		ColorMode:    mode,
		ConfigColors: cfg.Output.Colors,
		Quiet:        quiet,
		JSON:         jsonOut,
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
	})

	logger.Debug("configuration loaded",
		"api_url", cfg.API.URL,
		"storage_driver", cfg.Storage.Driver,
		"log_format", cfg.Logging.Format,
	)
	return nil
}

// emit writes v as JSON in --json mode and reports whether it did.
func emit(v any) (bool, error) {
	if !printer.IsJSON() {
		return false, nil
	}
	if err := printer.JSON(v); err != nil {
		return true, fmt.Errorf("encoding output: %w", err)
	}
	return true, nil
}
