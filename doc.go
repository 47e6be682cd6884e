// Package balancecheck queries many HTTP balance and status endpoints
// concurrently and renders one human-readable line per endpoint.
//
// Each endpoint is described by a [Service]: a URL, method, headers and
// either a dotted value path with a unit or a result template. A [Checker]
// fans the requests out, waits for all of them, and returns one [Outcome]
// per service in input order. A failing service never affects its siblings;
// its outcome simply renders as an error line.
//
// # Quick Start
//
//	svc, _ := balancecheck.NewService("main-key", "https://api.example.com/balance",
//	    balancecheck.WithHeaders("Authorization", "Bearer sk-..."),
//	    balancecheck.WithValuePath("data.total", "USD"),
//	)
//
//	checker, _ := balancecheck.New()
//	defer checker.Close()
//
//	for _, o := range checker.Run(ctx, []balancecheck.Service{svc}) {
//	    fmt.Println(o.Line()) // "main-key 12.5 USD"
//	}
//
// # Paths and Templates
//
// [Lookup] walks decoded JSON with dot notation. Array elements are addressed
// by index, negative indices count from the end:
//
//	data.list.0.balance
//	data.list.-1.balance
//
// [Render] fills {path} placeholders in a template, substituting "N/A" for
// paths that do not resolve:
//
//	"余额 {data.balance} / 已用 {data.used}"
//
// # Outcomes
//
// Every query ends in exactly one [OutcomeKind]: ok, config_error,
// http_status, timed_out, field_not_found or failed. Underlying errors are
// logged, never rendered.
//
// # Architecture
//
//   - config: YAML settings plus the flat line and structured service dialects
//   - internal/poller: pooled HTTP client and ordered fan-out
//   - internal/plugin: report aggregation and the command/tool entry points
//   - internal/server: HTTP surface for the command and tool entry points
//   - internal/store: latest outcome per service for the HTTP status board
package balancecheck
