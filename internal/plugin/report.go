package plugin

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jpalmerr/balancecheck"
	"github.com/jpalmerr/balancecheck/config"
)

const (
	msgNoTokenConfig       = "未配置 token_config"
	msgNoServicesConfig    = "未配置 services_config"
	msgServicesParseFailed = "services_config 解析失败"
	msgServicesNotMapping  = "services_config 格式错误: 顶层必须是映射"
	msgNoResults           = "无可用结果"
)

// BuildReport queries every configured service and returns the report text.
//
// It never fails: configuration problems and query failures all become
// report lines. Lines follow configuration order. In the flat dialect the
// title is the first line.
func BuildReport(ctx context.Context, checker *balancecheck.Checker, settings *config.Settings, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var (
		entries []config.Entry
		title   string
	)

	if settings.UseYAMLConfig {
		text := settings.ServicesConfig.String()
		if strings.TrimSpace(text) == "" {
			return msgNoServicesConfig
		}

		set, err := config.ParseServices(text, settings.ServiceOptions()...)
		if err != nil {
			logger.Error("services_config rejected", "error", err)
			if errors.Is(err, config.ErrNotMapping) {
				return msgServicesNotMapping
			}
			return msgServicesParseFailed
		}
		for _, key := range set.Skipped {
			logger.Debug("service skipped, no url", "service", key)
		}
		entries = set.Entries
	} else {
		if strings.TrimSpace(settings.TokenConfig) == "" {
			return msgNoTokenConfig
		}
		entries = config.ParseFlat(settings.TokenConfig, settings.ServiceOptions()...)
		title = Title(settings)
	}

	if len(entries) == 0 {
		return msgNoResults
	}

	lines := make([]string, 0, len(entries)+1)
	if title != "" {
		lines = append(lines, title)
	}
	lines = append(lines, reportLines(ctx, checker, entries, logger)...)

	return strings.Join(lines, "\n")
}

// Title returns the first report line for settings, or "" in the
// structured dialect, which has no title.
func Title(settings *config.Settings) string {
	if settings.UseYAMLConfig {
		return ""
	}
	if settings.Title == "" {
		return config.DefaultTitle
	}
	return settings.Title
}

// reportLines runs the usable entries and merges their outcomes with the
// configuration errors, keeping entry order.
func reportLines(ctx context.Context, checker *balancecheck.Checker, entries []config.Entry, logger *slog.Logger) []string {
	outcomes := checker.Run(ctx, config.Services(entries))

	lines := make([]string, 0, len(entries))
	next := 0
	for _, e := range entries {
		if !e.OK() {
			logger.Warn("service misconfigured", "service", e.Label, "error", e.Err)
			lines = append(lines, balancecheck.ConfigErrorOutcome(e.Label, e.Err).Line())
			continue
		}
		lines = append(lines, outcomes[next].Line())
		next++
	}
	return lines
}
