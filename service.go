package balancecheck

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

const defaultServiceTimeout = 10 * time.Second

// Service describes one endpoint to query, independent of which
// configuration dialect produced it.
//
// Service is immutable after creation via [NewService]. Getters return
// copies of mutable data so a Service can be shared between goroutines.
//
// A Service renders its result in one of three ways:
//   - a single value path plus unit ([WithValuePath]), e.g. "sk-main 12.5 USD"
//   - a result template with {path} placeholders ([WithTemplate])
//   - neither: the whole decoded body as compact JSON
type Service struct {
	name        string
	displayName string
	url         string
	method      string
	headers     map[string]string
	timeout     time.Duration
	valuePath   string
	unit        string
	template    string
	hasTemplate bool
}

// Name returns the service's identifier, unique within one query run.
func (s Service) Name() string {
	return s.name
}

// DisplayName returns the label used in report lines.
// Defaults to [Service.Name].
func (s Service) DisplayName() string {
	return s.displayName
}

// URL returns the request URL. It may be empty, in which case the service
// is reported as misconfigured instead of being queried.
func (s Service) URL() string {
	return s.url
}

// Method returns the upper-cased HTTP method. Defaults to GET.
func (s Service) Method() string {
	return s.method
}

// Headers returns a copy of the request headers.
func (s Service) Headers() map[string]string {
	return copyMap(s.headers)
}

// Timeout returns the request timeout. Defaults to 10 seconds.
func (s Service) Timeout() time.Duration {
	return s.timeout
}

// ValuePath returns the dotted path and unit used for single-value reports.
// The path is empty when the service does not use a value path.
func (s Service) ValuePath() (path, unit string) {
	return s.valuePath, s.unit
}

// Template returns the result template and whether one was configured.
func (s Service) Template() (string, bool) {
	return s.template, s.hasTemplate
}

// NewService creates a [Service] with the given name, URL, and options.
//
// The name is required. The URL may be empty; such a service is reported as
// a configuration error when queried. A non-empty URL must be absolute with
// an http or https scheme.
//
// Example:
//
//	svc, err := balancecheck.NewService("deepseek", "https://api.deepseek.com/user/balance",
//	    balancecheck.WithHeaders("Authorization", "Bearer "+key),
//	    balancecheck.WithValuePath("balance_infos.0.total_balance", "CNY"),
//	)
func NewService(name, rawURL string, opts ...ServiceOption) (Service, error) {
	if name == "" {
		return Service{}, errors.New("服务名称不能为空")
	}

	if rawURL != "" {
		parsedURL, err := url.Parse(rawURL)
		if err != nil {
			return Service{}, errors.New("url 无效: " + err.Error())
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return Service{}, errors.New("url 必须以 http:// 或 https:// 开头")
		}
	}

	cfg := &serviceConfig{
		headers: make(map[string]string),
		method:  http.MethodGet,
		timeout: defaultServiceTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Service{}, err
		}
	}

	displayName := cfg.displayName
	if displayName == "" {
		displayName = name
	}

	return Service{
		name:        name,
		displayName: displayName,
		url:         rawURL,
		method:      cfg.method,
		headers:     cfg.headers,
		timeout:     cfg.timeout,
		valuePath:   cfg.valuePath,
		unit:        cfg.unit,
		template:    cfg.template,
		hasTemplate: cfg.hasTemplate,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
