// Package plugin exposes balance reports the way a chat host consumes them:
// a direct command, an optional agent tool, and settings that can be
// swapped while the process runs.
package plugin

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jpalmerr/balancecheck"
	"github.com/jpalmerr/balancecheck/config"
)

const (
	// ToolName is the name under which the report is registered as a tool.
	ToolName = "balance_query"

	toolDescription = "查询已配置的各个 API 服务的账户余额，返回每个服务一行的余额报告"

	msgToolDisabled = "余额查询工具未启用"
)

// Event describes the message that triggered a report.
type Event struct {
	ID       string
	Sender   string
	Platform string
}

// ToolSpec is the manifest entry an agent framework needs to register the
// balance tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Plugin serves balance reports for the current settings.
//
// Settings are replaced atomically by [Plugin.SetSettings]; a report in
// progress keeps using the settings it started with.
type Plugin struct {
	settings atomic.Pointer[config.Settings]
	checker  atomic.Pointer[balancecheck.Checker]

	// mu serializes SetSettings and Close.
	mu     sync.Mutex
	closed bool

	logger      *slog.Logger
	checkerOpts []balancecheck.Option
}

// New creates a Plugin for settings. A nil logger discards logs. Options in
// checkerOpts are applied to every checker the plugin builds, for example
// balancecheck.WithOutcomeCallback.
func New(settings *config.Settings, logger *slog.Logger, checkerOpts ...balancecheck.Option) (*Plugin, error) {
	if settings == nil {
		return nil, errors.New("settings cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &Plugin{logger: logger, checkerOpts: checkerOpts}

	checker, err := p.newChecker(settings)
	if err != nil {
		return nil, err
	}

	p.settings.Store(settings)
	p.checker.Store(checker)
	return p, nil
}

func (p *Plugin) newChecker(settings *config.Settings) (*balancecheck.Checker, error) {
	opts := []balancecheck.Option{
		balancecheck.WithLogger(p.logger),
		balancecheck.WithMaxConcurrency(settings.MaxConcurrency),
	}
	return balancecheck.New(append(opts, p.checkerOpts...)...)
}

// Settings returns the current settings.
func (p *Plugin) Settings() *config.Settings {
	return p.settings.Load()
}

// SetSettings replaces the current settings. The checker is rebuilt when
// the concurrency limit changes.
func (p *Plugin) SetSettings(settings *config.Settings) error {
	if settings == nil {
		return errors.New("settings cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("plugin is closed")
	}

	old := p.settings.Load()
	if old.MaxConcurrency != settings.MaxConcurrency {
		checker, err := p.newChecker(settings)
		if err != nil {
			return err
		}
		p.checker.Swap(checker).Close()
	}
	p.settings.Store(settings)

	p.logger.Info("settings updated",
		"mode", settings.Mode(),
		"tool_enabled", settings.EnableLLMTool,
	)
	return nil
}

// Balance answers the direct balance command.
func (p *Plugin) Balance(ctx context.Context, ev Event) []string {
	return []string{p.report(ctx, ev, "command")}
}

// BalanceTool answers a tool invocation. It reports that the tool is
// disabled, without querying anything, unless enable_llm_tool is set.
func (p *Plugin) BalanceTool(ctx context.Context, ev Event) []string {
	if !p.Settings().EnableLLMTool {
		p.logger.Debug("balance tool called while disabled", "event_id", ev.ID)
		return []string{msgToolDisabled}
	}
	return []string{p.report(ctx, ev, "tool")}
}

// Tools returns the tool manifest. It is empty while the tool is disabled.
func (p *Plugin) Tools() []ToolSpec {
	if !p.Settings().EnableLLMTool {
		return []ToolSpec{}
	}
	return []ToolSpec{{
		Name:        ToolName,
		Description: toolDescription,
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}}
}

// Close releases the checker's connections.
func (p *Plugin) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.checker.Load().Close()
}

func (p *Plugin) report(ctx context.Context, ev Event, source string) string {
	start := time.Now()
	settings := p.Settings()

	text := BuildReport(ctx, p.checker.Load(), settings, p.logger)

	p.logger.Info("balance report built",
		"event_id", ev.ID,
		"sender", ev.Sender,
		"platform", ev.Platform,
		"source", source,
		"mode", settings.Mode(),
		"duration", time.Since(start),
	)
	return text
}
