package balancecheck

import (
	"fmt"
	"strings"
	"time"
)

// OutcomeKind classifies the result of querying one [Service].
type OutcomeKind string

const (
	// OutcomeOK indicates the value or template was rendered.
	OutcomeOK OutcomeKind = "ok"

	// OutcomeConfigError indicates the service could not be queried as configured.
	OutcomeConfigError OutcomeKind = "config_error"

	// OutcomeHTTPStatus indicates the endpoint answered with a status other than 200.
	OutcomeHTTPStatus OutcomeKind = "http_status"

	// OutcomeTimedOut indicates the request did not finish before its timeout.
	OutcomeTimedOut OutcomeKind = "timed_out"

	// OutcomeFieldNotFound indicates the value path did not resolve.
	OutcomeFieldNotFound OutcomeKind = "field_not_found"

	// OutcomeFailed covers transport, decode and unexpected failures.
	OutcomeFailed OutcomeKind = "failed"
)

// String returns the string representation of the kind.
func (k OutcomeKind) String() string {
	return string(k)
}

// Outcome holds the result of querying a single [Service].
//
// Every outcome, including failures, renders to exactly one report entry via
// [Outcome.Line]. Err carries the underlying error for logging; it never
// appears in the rendered line.
type Outcome struct {
	// ServiceName is the unique name of the queried service.
	ServiceName string

	// DisplayName is the label used at the start of the line.
	DisplayName string

	// Kind classifies the outcome.
	Kind OutcomeKind

	// Text is the rendered value for OutcomeOK, the problem description for
	// OutcomeConfigError, or the missing path for OutcomeFieldNotFound.
	Text string

	// Multiline is true when Text came from a result template.
	Multiline bool

	// StatusCode is the HTTP status code, zero if no response was received.
	StatusCode int

	// Latency is the time taken by the HTTP exchange.
	Latency time.Duration

	// CheckedAt is when the query finished.
	CheckedAt time.Time

	// Err is the underlying error, if any.
	Err error
}

// Line renders the outcome as one report entry.
func (o Outcome) Line() string {
	switch o.Kind {
	case OutcomeOK:
		if o.Multiline {
			return fmt.Sprintf("%s:\n%s", o.DisplayName, o.Text)
		}
		return strings.TrimRight(fmt.Sprintf("%s %s", o.DisplayName, o.Text), " ")
	case OutcomeConfigError:
		return fmt.Sprintf("%s 配置错误: %s", o.DisplayName, o.Text)
	case OutcomeHTTPStatus:
		return fmt.Sprintf("%s 请求失败 HTTP %d", o.DisplayName, o.StatusCode)
	case OutcomeTimedOut:
		return fmt.Sprintf("%s 请求超时", o.DisplayName)
	case OutcomeFieldNotFound:
		return fmt.Sprintf("%s 未找到字段 %s", o.DisplayName, o.Text)
	default:
		return fmt.Sprintf("%s 查询异常", o.DisplayName)
	}
}

// String implements fmt.Stringer and returns [Outcome.Line].
func (o Outcome) String() string {
	return o.Line()
}

// ConfigErrorOutcome builds an [OutcomeConfigError] for an entry that never
// became a queryable service, such as a malformed configuration line.
func ConfigErrorOutcome(displayName string, err error) Outcome {
	return Outcome{
		ServiceName: displayName,
		DisplayName: displayName,
		Kind:        OutcomeConfigError,
		Text:        err.Error(),
		CheckedAt:   time.Now(),
		Err:         err,
	}
}
