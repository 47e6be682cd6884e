package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockAccount is the balance of one fake provider. Every query spends a
// little of it so repeated reports change.
type mockAccount struct {
	mu      sync.Mutex
	balance float64
}

func (a *mockAccount) spend() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance -= float64(rand.Intn(50)) / 100
	if a.balance < 0 {
		a.balance = 0
	}
	return a.balance
}

// StartMockBalanceServer runs fake balance APIs in the shapes real
// providers use:
//
//	/deepseek/user/balance   nested array with string amounts
//	/openrouter/credits      flat numbers under "data"
//	/moonshot/balance        requires "Authorization: Bearer demo"
//	/slow                    answers after 15s, past the default timeout
//	/broken                  answers 503
func StartMockBalanceServer(addr string) {
	deepseek := &mockAccount{balance: 110.0}
	openrouter := &mockAccount{balance: 25.5}
	moonshot := &mockAccount{balance: 300}

	mux := http.NewServeMux()

	mux.HandleFunc("/deepseek/user/balance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"is_available": true,
			"balance_infos": []map[string]any{{
				"currency":      "CNY",
				"total_balance": formatAmount(deepseek.spend()),
			}},
		})
	})

	mux.HandleFunc("/openrouter/credits", func(w http.ResponseWriter, r *http.Request) {
		total := 100.0
		writeJSON(w, map[string]any{
			"data": map[string]any{
				"total_credits": total,
				"total_usage":   total - openrouter.spend(),
			},
		})
	})

	mux.HandleFunc("/moonshot/balance", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer demo" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"error": "invalid key"})
			return
		}
		writeJSON(w, map[string]any{
			"data": map[string]any{"available_balance": moonshot.spend()},
		})
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(15 * time.Second):
		case <-r.Context().Done():
			return
		}
		writeJSON(w, map[string]any{"balance": 1})
	})

	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock server error", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	// simulate small latency variance
	time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func formatAmount(v float64) string {
	b, _ := json.Marshal(float64(int(v*100)) / 100)
	return string(b)
}
