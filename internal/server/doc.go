// Package server exposes the balance command and the balance_query tool over
// HTTP, standing in for a chat host's dispatch framework.
//
// A command request is a POST with an optional JSON body naming the sender
// and platform:
//
//	curl -X POST localhost:8080/api/commands/balance -d '{"sender":"alice"}'
//	{"request_id":"...","messages":["余额查询结果：\nmain 12.5 USD"]}
//
// Every response carries an X-Request-ID header; a caller-supplied value is
// kept, otherwise a UUID is generated. The ID becomes the event ID seen in
// report logs.
//
// When a store is configured the server also publishes the latest outcome
// per service at /api/outcomes and streams new outcomes as Server-Sent
// Events at /api/events.
//
// The server shuts down gracefully when the context passed to Start is
// cancelled, with a 5-second timeout for in-flight requests.
package server
