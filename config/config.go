// Package config provides YAML settings and the two service configuration
// dialects for balancecheck.
//
// Settings mirror the options a chat host hands to the balance plugin:
//
//	title: "余额查询结果："
//	use_yaml_config: false
//	enable_llm_tool: true
//	timeout: 10s
//	token_config: |
//	  main|https://api.example.com/balance|Authorization:Bearer ${API_KEY}|data.total|USD
//	services_config: |
//	  services:
//	    deepseek:
//	      url: https://api.deepseek.com/user/balance
//	      headers:
//	        Authorization: Bearer ${DEEPSEEK_KEY}
//	      display_name: DeepSeek
//	      result_template: "余额: {balance_infos.0.total_balance} {balance_infos.0.currency}"
//
// The flat dialect is parsed by [ParseFlat], the structured one by
// [ParseServices]. Both produce [Entry] values in configuration order.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/balancecheck"
)

const (
	// DefaultTitle is prepended to flat-dialect reports when no title is set.
	DefaultTitle = "余额查询结果："

	defaultTimeout = 10 * time.Second
	defaultPort    = 8080

	// minTimeout prevents configurations that can never complete a request.
	minTimeout = 1 * time.Second
)

// Settings is the root configuration structure.
//
// Use [Load] or [Parse] to create Settings from YAML. Keys missing from the
// document keep their defaults; keys present with an empty value are kept
// as written.
type Settings struct {
	// Title is the first line of flat-dialect reports.
	Title string `yaml:"title"`

	// TokenConfig holds the flat dialect, one remark|url|headers|path|unit per line.
	TokenConfig string `yaml:"token_config"`

	// ServicesConfig holds the structured dialect as YAML text.
	// It may also be written as an inline mapping.
	ServicesConfig InlineYAML `yaml:"services_config"`

	// UseYAMLConfig selects the structured dialect instead of the flat one.
	UseYAMLConfig bool `yaml:"use_yaml_config"`

	// EnableLLMTool exposes the report as a tool for an external agent.
	EnableLLMTool bool `yaml:"enable_llm_tool"`

	// Timeout bounds each request. Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// MaxConcurrency limits in-flight requests per report. 0 means unlimited.
	MaxConcurrency int `yaml:"max_concurrency"`

	// Port is the HTTP port used by the serve command. Defaults to 8080.
	Port int `yaml:"port"`
}

// Default returns Settings with every default applied.
func Default() *Settings {
	return &Settings{
		Title:   DefaultTitle,
		Timeout: Duration(defaultTimeout),
		Port:    defaultPort,
	}
}

// Mode returns "yaml" or "flat" depending on the active dialect.
func (s *Settings) Mode() string {
	if s.UseYAMLConfig {
		return "yaml"
	}
	return "flat"
}

// ServiceOptions returns the options applied to every service built from
// these settings.
func (s *Settings) ServiceOptions() []balancecheck.ServiceOption {
	return []balancecheck.ServiceOption{
		balancecheck.WithTimeout(s.Timeout.Duration()),
	}
}

// InlineYAML holds YAML text. In a settings file it can be written either as
// a string or as a nested mapping, which is re-serialized to text.
type InlineYAML string

// UnmarshalYAML implements yaml.Unmarshaler for InlineYAML.
func (d *InlineYAML) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*d = InlineYAML(s)
		return nil
	}

	out, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("services_config: %w", err)
	}
	*d = InlineYAML(out)
	return nil
}

// String returns the YAML text.
func (d InlineYAML) String() string {
	return string(d)
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML settings data on top of [Default].
//
// Environment variables are not expanded here; they are expanded per
// service when the active dialect is parsed, so one bad variable only
// affects the service that uses it.
func Parse(data []byte) (*Settings, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks ranges of the numeric settings.
func (s *Settings) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", s.MaxConcurrency)
	}
	if s.Timeout.Duration() < minTimeout {
		return fmt.Errorf("timeout must be at least %s, got %s", minTimeout, s.Timeout.Duration())
	}
	return nil
}
