// Package main is the entry point for the balancecheck CLI.
//
// Usage:
//
//	balancecheck query -c settings.yaml          # Print one balance report
//	balancecheck query -c settings.yaml --tool   # Same, through the tool gate
//	balancecheck validate -c settings.yaml       # Validate settings
//	balancecheck serve -c settings.yaml          # Serve commands over HTTP
//	balancecheck version                         # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "balancecheck",
	Short: "Query account balances of API services",
	Long: `balancecheck queries the balance endpoints of the API services you use
and prints a one-line-per-service report.

Quick start:
  1. Create a settings file (settings.yaml)
  2. Run: balancecheck query -c settings.yaml

Example settings:
  title: "余额查询结果："
  token_config: |
    main|https://api.example.com/balance|Authorization:Bearer ${API_KEY}|data.total|USD`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this balancecheck binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "balancecheck %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
}

// newLogger creates a JSON logger on stderr for CLI use.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	}))
}
