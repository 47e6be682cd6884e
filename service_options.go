package balancecheck

import (
	"errors"
	"strings"
	"time"
)

// serviceConfig holds mutable state during service construction.
type serviceConfig struct {
	displayName string
	method      string
	headers     map[string]string
	timeout     time.Duration
	valuePath   string
	unit        string
	template    string
	hasTemplate bool
}

// ServiceOption is a function that configures a [Service] during construction.
//
// Options return an error if validation fails.
type ServiceOption func(*serviceConfig) error

// WithDisplayName sets the label used in report lines.
// An empty name keeps the default, which is the service name.
func WithDisplayName(name string) ServiceOption {
	return func(cfg *serviceConfig) error {
		cfg.displayName = strings.TrimSpace(name)
		return nil
	}
}

// WithMethod sets the HTTP method. The value is upper-cased and any verb is
// accepted.
//
// Returns an error if the method is blank or contains whitespace.
func WithMethod(method string) ServiceOption {
	return func(cfg *serviceConfig) error {
		m := strings.ToUpper(strings.TrimSpace(method))
		if m == "" {
			return errors.New("请求方法不能为空")
		}
		if strings.ContainsAny(m, " \t\r\n") {
			return errors.New("请求方法不能包含空白字符")
		}
		cfg.method = m
		return nil
	}
}

// WithHeaders adds request headers as key-value pairs.
//
// Example:
//
//	balancecheck.WithHeaders("Authorization", "Bearer token123")
//
// Returns an error if an odd number of arguments is provided.
func WithHeaders(keyValues ...string) ServiceOption {
	return func(cfg *serviceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithHeaderMap adds every entry of headers to the request headers.
func WithHeaderMap(headers map[string]string) ServiceOption {
	return func(cfg *serviceConfig) error {
		for k, v := range headers {
			cfg.headers[k] = v
		}
		return nil
	}
}

// WithTimeout sets the request timeout. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) ServiceOption {
	return func(cfg *serviceConfig) error {
		if d <= 0 {
			return errors.New("超时时间必须为正数")
		}
		cfg.timeout = d
		return nil
	}
}

// WithValuePath reports the single value found at path, followed by unit.
// It replaces any template set with [WithTemplate].
//
// Returns an error if path is empty.
func WithValuePath(path, unit string) ServiceOption {
	return func(cfg *serviceConfig) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return errors.New("字段路径不能为空")
		}
		cfg.valuePath = path
		cfg.unit = strings.TrimSpace(unit)
		cfg.template = ""
		cfg.hasTemplate = false
		return nil
	}
}

// WithTemplate renders the response through tmpl (see [Render]).
// It replaces any value path set with [WithValuePath].
func WithTemplate(tmpl string) ServiceOption {
	return func(cfg *serviceConfig) error {
		cfg.template = tmpl
		cfg.hasTemplate = true
		cfg.valuePath = ""
		cfg.unit = ""
		return nil
	}
}
