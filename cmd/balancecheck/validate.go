package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/balancecheck"
	"github.com/jpalmerr/balancecheck/config"
)

// validateCmd validates a settings file without querying anything.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a settings file",
	Long: `Validate a balancecheck settings file without querying any service.

This command parses the settings, then parses the active service dialect
and expands environment variables for every service. It's useful for CI/CD
pipelines or pre-deployment checks.

Exit codes:
  0 - Settings are valid
  1 - Settings are invalid (error details printed to stderr)

Example:
  balancecheck validate -c settings.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to settings file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	var (
		entries []config.Entry
		skipped []string
	)
	if settings.UseYAMLConfig {
		set, err := config.ParseServices(settings.ServicesConfig.String(), settings.ServiceOptions()...)
		if err != nil {
			return fmt.Errorf("invalid services_config: %w", err)
		}
		entries, skipped = set.Entries, set.Skipped
	} else {
		entries = config.ParseFlat(settings.TokenConfig, settings.ServiceOptions()...)
	}

	out := cmd.OutOrStdout()
	printSettings(out, settings)

	var broken []config.Entry
	for _, e := range entries {
		if !e.OK() {
			broken = append(broken, e)
		}
	}

	fmt.Fprintf(out, "  Services:    %d ok, %d with errors\n", len(entries)-len(broken), len(broken))
	if len(skipped) > 0 {
		fmt.Fprintf(out, "  Skipped:     %s (no url)\n", strings.Join(skipped, ", "))
	}
	for _, e := range config.Services(entries) {
		printService(out, e)
	}

	if len(broken) > 0 {
		for _, e := range broken {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", balancecheck.ConfigErrorOutcome(e.Label, e.Err).Line())
		}
		return fmt.Errorf("%d services have configuration errors", len(broken))
	}

	fmt.Fprintln(out, "Settings are valid!")
	return nil
}

func printSettings(out io.Writer, s *config.Settings) {
	tool := "disabled"
	if s.EnableLLMTool {
		tool = "enabled"
	}
	concurrency := "unlimited"
	if s.MaxConcurrency > 0 {
		concurrency = fmt.Sprint(s.MaxConcurrency)
	}

	fmt.Fprintf(out, "  Mode:        %s\n", s.Mode())
	fmt.Fprintf(out, "  Timeout:     %s\n", s.Timeout.Duration())
	fmt.Fprintf(out, "  Concurrency: %s\n", concurrency)
	fmt.Fprintf(out, "  Port:        %d\n", s.Port)
	fmt.Fprintf(out, "  LLM tool:    %s\n", tool)
}

func printService(out io.Writer, svc balancecheck.Service) {
	if path, unit := svc.ValuePath(); path != "" {
		fmt.Fprintf(out, "    - %s: %s %s -> %s %s\n", svc.DisplayName(), svc.Method(), svc.URL(), path, unit)
		return
	}
	if tmpl, ok := svc.Template(); ok {
		fmt.Fprintf(out, "    - %s: %s %s -> template {%s}\n", svc.DisplayName(), svc.Method(), svc.URL(),
			strings.Join(balancecheck.Placeholders(tmpl), "} {"))
		return
	}
	fmt.Fprintf(out, "    - %s: %s %s -> whole body\n", svc.DisplayName(), svc.Method(), svc.URL())
}
