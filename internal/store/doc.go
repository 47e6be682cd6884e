// Package store keeps the most recent outcome of every queried service in
// memory and publishes each new outcome to subscribers.
//
// It backs the serve command's status board (GET /api/outcomes) and event
// stream (GET /api/events). Records are observations of past queries; they
// are never used in place of a fresh query.
package store
