// Example program: queries a set of fake balance APIs with the library and
// prints the report.
//
//	go run ./example              # one report against the built-in mock APIs
//	go run ./example -mock-only   # only run the mock APIs on :9999
//
// With -mock-only running, the CLI can be pointed at example/settings.yaml:
//
//	go run ./cmd/balancecheck query -c example/settings.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/balancecheck"
)

const mockAddr = ":9999"

func main() {
	mockOnly := flag.Bool("mock-only", false, "run the mock balance APIs until interrupted")
	flag.Parse()

	if *mockOnly {
		fmt.Println("Mock balance APIs listening on " + mockAddr)
		fmt.Println("Press Ctrl+C to stop")
		StartMockBalanceServer(mockAddr)
		return
	}

	// start mock server (see mock_server.go)
	go StartMockBalanceServer(mockAddr)
	time.Sleep(100 * time.Millisecond)

	base := "http://localhost" + mockAddr
	timeout := balancecheck.WithTimeout(3 * time.Second)

	deepseek, err := balancecheck.NewService("deepseek", base+"/deepseek/user/balance",
		balancecheck.WithDisplayName("DeepSeek"),
		balancecheck.WithTemplate("余额: {balance_infos.0.total_balance} {balance_infos.0.currency}\n可用: {is_available}"),
		timeout,
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	openrouter, _ := balancecheck.NewService("openrouter", base+"/openrouter/credits",
		balancecheck.WithDisplayName("OpenRouter"),
		balancecheck.WithValuePath("data.total_usage", "USD"),
		timeout,
	)
	moonshot, _ := balancecheck.NewService("moonshot", base+"/moonshot/balance",
		balancecheck.WithDisplayName("Moonshot"),
		balancecheck.WithHeaders("Authorization", "Bearer demo"),
		balancecheck.WithValuePath("data.available_balance", "CNY"),
		timeout,
	)
	slow, _ := balancecheck.NewService("slow", base+"/slow", balancecheck.WithValuePath("balance", ""), timeout)
	broken, _ := balancecheck.NewService("broken", base+"/broken", balancecheck.WithValuePath("balance", ""), timeout)

	checker, err := balancecheck.New()
	if err != nil {
		slog.Error("failed to create checker", "error", err)
		os.Exit(1)
	}
	defer checker.Close()

	// set up context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	outcomes := checker.Run(ctx, []balancecheck.Service{deepseek, openrouter, moonshot, slow, broken})

	fmt.Println("余额查询结果：")
	for _, o := range outcomes {
		fmt.Println(o.Line())
	}
	fmt.Printf("\n(%d services in %s)\n", len(outcomes), time.Since(start).Round(time.Millisecond))
}
