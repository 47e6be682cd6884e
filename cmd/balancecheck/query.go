package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/balancecheck/config"
	"github.com/jpalmerr/balancecheck/internal/plugin"
)

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("86"))

// queryCmd builds one balance report and prints it.
var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Print a balance report",
	Long: `Query every configured service once and print the report.

With --tool the report goes through the agent tool entry point, which only
answers when enable_llm_tool is set.

Example:
  balancecheck query -c settings.yaml
  balancecheck query -c settings.yaml --tool`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringP("config", "c", "", "path to settings file (required)")
	queryCmd.Flags().Bool("tool", false, "invoke the balance_query tool instead of the command")
	_ = queryCmd.MarkFlagRequired("config")
}

func runQuery(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	configFile, _ := cmd.Flags().GetString("config")
	settings, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	p, err := plugin.New(settings, logger)
	if err != nil {
		return fmt.Errorf("failed to create plugin: %w", err)
	}
	defer p.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ev := plugin.Event{
		ID:       uuid.NewString(),
		Sender:   os.Getenv("USER"),
		Platform: "cli",
	}

	var messages []string
	if tool, _ := cmd.Flags().GetBool("tool"); tool {
		messages = p.BalanceTool(ctx, ev)
	} else {
		messages = p.Balance(ctx, ev)
	}

	out := cmd.OutOrStdout()
	styled := isTerminal(out)
	title := plugin.Title(settings)
	for _, m := range messages {
		if styled {
			m = styleTitle(m, title)
		}
		fmt.Fprintln(out, m)
	}
	return nil
}

// styleTitle renders the first line of report with titleStyle when it is
// the report title.
func styleTitle(report, title string) string {
	if title == "" {
		return report
	}
	first, rest, found := strings.Cut(report, "\n")
	if first != title {
		return report
	}
	styled := titleStyle.Render(first)
	if !found {
		return styled
	}
	return styled + "\n" + rest
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
