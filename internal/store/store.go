package store

import (
	"time"

	"github.com/jpalmerr/balancecheck"
)

// OutcomeRecord is the latest known result of one service, shaped for the
// JSON board and the event stream.
type OutcomeRecord struct {
	// Service is the unique service name.
	Service string `json:"service"`

	// DisplayName is the label shown in reports.
	DisplayName string `json:"display_name"`

	// Kind is the outcome classification, e.g. "ok" or "timed_out".
	Kind string `json:"kind"`

	// Line is the rendered report line.
	Line string `json:"line"`

	// StatusCode is the HTTP status, 0 when no response arrived.
	StatusCode int `json:"status_code,omitempty"`

	// LatencyMs is the request latency in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// CheckedAt is when the query finished.
	CheckedAt time.Time `json:"checked_at"`
}

// FromOutcome converts a checker outcome into a record. Failure detail is
// left out; it may carry request URLs and only goes to the logs.
func FromOutcome(o balancecheck.Outcome) OutcomeRecord {
	return OutcomeRecord{
		Service:     o.ServiceName,
		DisplayName: o.DisplayName,
		Kind:        o.Kind.String(),
		Line:        o.Line(),
		StatusCode:  o.StatusCode,
		LatencyMs:   o.Latency.Milliseconds(),
		CheckedAt:   o.CheckedAt,
	}
}

// Store keeps the latest record per service and fans updates out to
// subscribers.
//
// Implementations must be safe for concurrent access.
type Store interface {
	// Update stores a record keyed by Service and notifies subscribers.
	Update(rec OutcomeRecord)

	// GetAll returns a snapshot of the stored records sorted by service.
	GetAll() []OutcomeRecord

	// Subscribe returns a buffered channel of updates. Slow consumers may
	// miss updates. Callers must Unsubscribe when done.
	Subscribe() <-chan OutcomeRecord

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan OutcomeRecord)
}
