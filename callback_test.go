package balancecheck

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"
)

func TestWithOutcomeCallback_InvokedInOrder(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{"v": 1}`)

	var names []string
	c := newTestChecker(t, WithOutcomeCallback(func(o Outcome) {
		names = append(names, o.ServiceName)
	}))

	c.Run(context.Background(), []Service{
		mustService(t, "a", server.URL),
		mustService(t, "b", ""),
		mustService(t, "c", server.URL),
	})

	if strings.Join(names, ",") != "a,b,c" {
		t.Errorf("callback order = %v, want [a b c]", names)
	}
}

func TestWithOutcomeCallback_MultipleCallbacks(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{}`)

	var order []int
	c := newTestChecker(t,
		WithOutcomeCallback(func(Outcome) { order = append(order, 1) }),
		WithOutcomeCallback(func(Outcome) { order = append(order, 2) }),
	)

	c.Run(context.Background(), []Service{mustService(t, "a", server.URL)})

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("callbacks ran in order %v, want [1 2]", order)
	}
}

func TestWithOutcomeCallback_NilIgnored(t *testing.T) {
	c := newTestChecker(t, WithOutcomeCallback(nil))
	if len(c.outcomeCallbacks) != 0 {
		t.Errorf("len(outcomeCallbacks) = %d, want 0", len(c.outcomeCallbacks))
	}
}

func TestWithOutcomeCallback_PanicRecovered(t *testing.T) {
	server := jsonServer(t, http.StatusOK, `{}`)

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var secondCalled bool
	c, err := New(
		WithLogger(logger),
		WithOutcomeCallback(func(Outcome) { panic("callback exploded") }),
		WithOutcomeCallback(func(Outcome) { secondCalled = true }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	outcomes := c.Run(context.Background(), []Service{mustService(t, "a", server.URL)})

	if len(outcomes) != 1 || outcomes[0].Kind != OutcomeOK {
		t.Errorf("outcomes = %v, want one ok outcome", outcomes)
	}
	if !secondCalled {
		t.Error("second callback should run after first panicked")
	}
	if !strings.Contains(buf.String(), "outcome callback panicked") {
		t.Errorf("expected panic to be logged, got: %s", buf.String())
	}
}
