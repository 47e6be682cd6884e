// Package poller provides the HTTP and concurrency plumbing behind balancecheck.
//
// The main components are:
//
//   - [Client]: pooled HTTP client with per-request timeouts and size limits
//   - [Gather]: bounded fan-out that returns results in input order
//
// Users of the balancecheck library should not need to interact with this
// package directly. Queries are issued through balancecheck.Checker.
package poller
