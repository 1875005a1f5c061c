// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for comet.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"comet-cli/internal/config"
	"comet-cli/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// verbose enables debug output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// timeoutSecs overrides the configured network timeout
	timeoutSecs int

	// appCfg is the effective configuration, loaded once by initRootConfig.
	appCfg = config.DefaultConfig()

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "comet",
		Short: "A component installer for Godot C# projects",
		Long: TitleStyle.Render("comet") + SubtitleStyle.Render(" - A component installer for Godot C# projects") + `

comet installs reusable components from a central GitHub repository
into your project's addons directory, resolving component and NuGet
package dependencies along the way.

` + SubtitleStyle.Render("Quick Start:") + `
  1. cd into your Godot C# project
  2. comet list                 See what's available
  3. comet install <component>  Install it

` + SubtitleStyle.Render("Examples:") + `
  comet install Signals             Install the Signals component
  comet install Signals --example   Also copy its example scenes
  comet update                      Re-install everything under addons/comet
  comet check                       Verify git and dotnet are usable`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/comet/config.toml)")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 0, "network timeout in seconds (default from config)")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	cfg, _, err := config.Load(config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		// Surface config problems but keep going on defaults.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
		return
	}
	appCfg = cfg

	// Apply verbose from config if not set via flag
	if !verbose {
		verbose = cfg.Verbose
	}
}

// newLogger creates a prefixed logger for a subsystem, with debug level
// gated by --verbose.
func newLogger(prefix string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: prefix})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// networkTimeout returns the per-request network timeout, with the --timeout
// flag taking precedence over the configured value.
func networkTimeout() time.Duration {
	if timeoutSecs > 0 {
		return time.Duration(timeoutSecs) * time.Second
	}
	return time.Duration(appCfg.TimeoutSeconds) * time.Second
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// projectPathArg resolves the optional trailing projectPath argument,
// defaulting to the current directory.
func projectPathArg(args []string, index int) string {
	if len(args) > index {
		return args[index]
	}
	return "."
}
