package balancecheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/balancecheck/internal/poller"
)

// errMissingURL is reported for services without a URL.
var errMissingURL = errors.New("缺少 url")

// Checker queries services concurrently and turns every result, including
// failures, into an [Outcome].
//
// A Checker owns one pooled HTTP client that is shared by all queries. It is
// created with [New], is safe for concurrent use, and should be released with
// [Checker.Close] when the process shuts down.
//
//	checker, err := balancecheck.New(balancecheck.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer checker.Close()
//
//	for _, o := range checker.Run(ctx, services) {
//	    fmt.Println(o.Line())
//	}
type Checker struct {
	client           *poller.Client
	maxConcurrency   int
	logger           *slog.Logger
	outcomeCallbacks []func(Outcome)
}

// New creates a new [Checker] with the given options.
//
// Defaults:
//   - Max concurrency: unlimited (every query starts immediately)
//   - Logger: slog.Default()
func New(opts ...Option) (*Checker, error) {
	cfg := &checkerConfig{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		client:           poller.NewClient(),
		maxConcurrency:   cfg.maxConcurrency,
		logger:           logger,
		outcomeCallbacks: cfg.outcomeCallbacks,
	}, nil
}

// Run queries every service concurrently and returns one [Outcome] per
// service, in the order the services were given.
//
// Run waits for all queries to settle. A failure, timeout or panic while
// processing one service is converted into that service's outcome and never
// affects the others.
func (c *Checker) Run(ctx context.Context, services []Service) []Outcome {
	outcomes := poller.Gather(ctx, len(services), c.maxConcurrency, func(ctx context.Context, i int) Outcome {
		return c.safeCheck(ctx, services[i])
	})

	for _, o := range outcomes {
		logAttrs := []any{
			"service", o.ServiceName,
			"kind", o.Kind.String(),
			"status_code", o.StatusCode,
			"latency_ms", o.Latency.Milliseconds(),
		}
		if o.Err != nil {
			c.logger.Warn("query failed", append(logAttrs, "error", o.Err.Error())...)
		} else if o.Kind != OutcomeOK {
			c.logger.Warn("query completed without value", logAttrs...)
		} else {
			c.logger.Debug("query completed", logAttrs...)
		}

		for _, cb := range c.outcomeCallbacks {
			invokeCallbackSafe(cb, o, c.logger)
		}
	}

	return outcomes
}

// Check queries a single service. It is equivalent to calling [Checker.Run]
// with one service, without invoking outcome callbacks.
func (c *Checker) Check(ctx context.Context, svc Service) Outcome {
	return c.safeCheck(ctx, svc)
}

// Close releases idle pooled connections. Safe to call multiple times.
func (c *Checker) Close() {
	if c == nil {
		return
	}
	c.client.Close()
}

// safeCheck runs check with panic recovery.
// A panic is logged with its stack trace under a correlation ID and reported
// as a failed outcome.
func (c *Checker) safeCheck(ctx context.Context, svc Service) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			c.logger.Error("query panic",
				"correlation_id", correlationID,
				"service", svc.name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			out = Outcome{
				ServiceName: svc.name,
				DisplayName: svc.displayName,
				Kind:        OutcomeFailed,
				CheckedAt:   time.Now(),
				Err:         fmt.Errorf("query panic (correlation_id: %s)", correlationID),
			}
		}
	}()
	return c.check(ctx, svc)
}

// check performs the request and classifies the response.
func (c *Checker) check(ctx context.Context, svc Service) Outcome {
	out := Outcome{
		ServiceName: svc.name,
		DisplayName: svc.displayName,
	}

	if svc.url == "" {
		out.Kind = OutcomeConfigError
		out.Text = errMissingURL.Error()
		out.Err = errMissingURL
		out.CheckedAt = time.Now()
		return out
	}

	resp := c.client.Fetch(ctx, poller.Request{
		Method:  svc.method,
		URL:     svc.url,
		Headers: svc.headers,
		Timeout: svc.timeout,
	})
	out.StatusCode = resp.StatusCode
	out.Latency = resp.Latency
	out.CheckedAt = time.Now()

	if resp.Error != nil {
		out.Err = resp.Error
		if resp.TimedOut {
			out.Kind = OutcomeTimedOut
		} else {
			out.Kind = OutcomeFailed
		}
		return out
	}

	// the body of a non-200 response is never decoded
	if resp.StatusCode != http.StatusOK {
		out.Kind = OutcomeHTTPStatus
		return out
	}

	body, err := DecodeJSON(resp.Body)
	if err != nil {
		out.Kind = OutcomeFailed
		out.Err = err
		return out
	}

	return renderOutcome(out, svc, body)
}

// renderOutcome fills in the rendered text for a decoded response.
func renderOutcome(out Outcome, svc Service, body any) Outcome {
	switch {
	case svc.valuePath != "":
		v, ok := Lookup(body, svc.valuePath)
		if !ok {
			out.Kind = OutcomeFieldNotFound
			out.Text = svc.valuePath
			return out
		}
		out.Kind = OutcomeOK
		out.Text = FormatValue(v)
		if svc.unit != "" {
			out.Text += " " + svc.unit
		}
	case svc.hasTemplate:
		out.Kind = OutcomeOK
		out.Multiline = true
		out.Text = Render(svc.template, body)
	default:
		out.Kind = OutcomeOK
		out.Text = FormatValue(body)
	}
	return out
}

// invokeCallbackSafe calls an outcome callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Outcome), o Outcome, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("outcome callback panicked",
				"panic", r,
				"service", o.ServiceName,
			)
		}
	}()
	cb(o)
}
