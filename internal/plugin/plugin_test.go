package plugin

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jpalmerr/balancecheck"
	"github.com/jpalmerr/balancecheck/config"
)

func newTestPlugin(t *testing.T, settings *config.Settings) *Plugin {
	t.Helper()
	p, err := New(settings, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(p.Close)
	return p
}

func TestNew_NilSettings(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("New(nil) should fail")
	}
}

func TestPlugin_Balance(t *testing.T) {
	server, hits := countingServer(t, http.StatusOK, `{"v": 3}`)
	p := newTestPlugin(t, flatSettings("a|"+server.URL+"||v|"))

	got := p.Balance(context.Background(), Event{ID: "evt-1"})
	if len(got) != 1 || got[0] != config.DefaultTitle+"\na 3" {
		t.Errorf("Balance() = %q", got)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestPlugin_BalanceIgnoresToolFlag(t *testing.T) {
	server, _ := countingServer(t, http.StatusOK, `{"v": 3}`)
	settings := flatSettings("a|" + server.URL + "||v|")
	settings.EnableLLMTool = false
	p := newTestPlugin(t, settings)

	got := p.Balance(context.Background(), Event{})
	if len(got) != 1 || got[0] == msgToolDisabled {
		t.Errorf("Balance() = %q, direct command must always run", got)
	}
}

func TestPlugin_BalanceTool_Disabled(t *testing.T) {
	server, hits := countingServer(t, http.StatusOK, `{"v": 3}`)
	p := newTestPlugin(t, flatSettings("a|"+server.URL+"||v|"))

	got := p.BalanceTool(context.Background(), Event{})
	if len(got) != 1 || got[0] != msgToolDisabled {
		t.Errorf("BalanceTool() = %q, want %q", got, msgToolDisabled)
	}
	if hits.Load() != 0 {
		t.Errorf("hits = %d, disabled tool must not query services", hits.Load())
	}
}

func TestPlugin_BalanceTool_Enabled(t *testing.T) {
	server, hits := countingServer(t, http.StatusOK, `{"v": 3}`)
	settings := flatSettings("a|" + server.URL + "||v|")
	settings.EnableLLMTool = true
	p := newTestPlugin(t, settings)

	got := p.BalanceTool(context.Background(), Event{})
	if len(got) != 1 || !strings.HasSuffix(got[0], "a 3") {
		t.Errorf("BalanceTool() = %q", got)
	}
	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
}

func TestPlugin_Tools(t *testing.T) {
	settings := config.Default()
	p := newTestPlugin(t, settings)

	if tools := p.Tools(); len(tools) != 0 {
		t.Errorf("Tools() = %v, want none while disabled", tools)
	}

	enabled := config.Default()
	enabled.EnableLLMTool = true
	if err := p.SetSettings(enabled); err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}

	tools := p.Tools()
	if len(tools) != 1 || tools[0].Name != ToolName {
		t.Fatalf("Tools() = %v", tools)
	}
	if tools[0].Parameters["type"] != "object" {
		t.Errorf("Parameters = %v", tools[0].Parameters)
	}
}

func TestPlugin_SetSettings(t *testing.T) {
	p := newTestPlugin(t, config.Default())
	before := p.checker.Load()

	same := config.Default()
	same.Title = "new"
	if err := p.SetSettings(same); err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}
	if p.Settings().Title != "new" {
		t.Errorf("Title = %q, want new", p.Settings().Title)
	}
	if p.checker.Load() != before {
		t.Error("checker should be kept when concurrency is unchanged")
	}

	limited := config.Default()
	limited.MaxConcurrency = 2
	if err := p.SetSettings(limited); err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}
	if p.checker.Load() == before {
		t.Error("checker should be rebuilt when concurrency changes")
	}

	if err := p.SetSettings(nil); err == nil {
		t.Error("SetSettings(nil) should fail")
	}
}

func TestPlugin_SetSettingsAfterClose(t *testing.T) {
	p, err := New(config.Default(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	p.Close()
	p.Close()

	if err := p.SetSettings(config.Default()); err == nil {
		t.Error("SetSettings() after Close should fail")
	}
}

func TestPlugin_ReportLogsEvent(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	p, err := New(flatSettings(""), logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	p.Balance(context.Background(), Event{ID: "req-42", Sender: "alice"})

	if !strings.Contains(buf.String(), `"event_id":"req-42"`) {
		t.Errorf("log missing event id: %s", buf.String())
	}
}

func writeSettings(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatchSettings_Reloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "title: first\n")

	settings, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p := newTestPlugin(t, settings)

	closer, err := WatchSettings(path, p, 20*time.Millisecond, testLogger())
	if err != nil {
		t.Fatalf("WatchSettings() error = %v", err)
	}
	defer closer.Close()

	writeSettings(t, path, "title: second\n")
	waitFor(t, func() bool { return p.Settings().Title == "second" })
}

func TestWatchSettings_InvalidKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	writeSettings(t, path, "title: first\n")

	settings, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	p := newTestPlugin(t, settings)

	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	closer, err := WatchSettings(path, p, 20*time.Millisecond, logger)
	if err != nil {
		t.Fatalf("WatchSettings() error = %v", err)
	}
	defer closer.Close()

	writeSettings(t, path, "port: 0\n")
	waitFor(t, func() bool { return strings.Contains(buf.String(), "settings reload failed") })

	if p.Settings().Title != "first" {
		t.Errorf("Title = %q, previous settings should be kept", p.Settings().Title)
	}
}

func TestWatchSettings_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	writeSettings(t, path, "title: first\n")

	evt := func(name string) bool {
		return shouldReload(fsnotifyWrite(name), path)
	}
	if !evt(path) {
		t.Error("write to settings file should trigger reload")
	}
	if evt(filepath.Join(dir, "other.yaml")) {
		t.Error("write to another file should not trigger reload")
	}
}

func TestWatchSettings_NilPlugin(t *testing.T) {
	if _, err := WatchSettings("x.yaml", nil, 0, nil); err == nil {
		t.Error("WatchSettings(nil plugin) should fail")
	}
}

func TestNew_CheckerOptionsApplied(t *testing.T) {
	server, _ := countingServer(t, http.StatusOK, `{"v": 3}`)

	var seen []string
	p, err := New(flatSettings("a|"+server.URL+"||v|\nb|"+server.URL+"||v|"), nil,
		balancecheck.WithOutcomeCallback(func(o balancecheck.Outcome) {
			seen = append(seen, o.ServiceName)
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer p.Close()

	p.Balance(context.Background(), Event{})
	if strings.Join(seen, ",") != "a,b" {
		t.Errorf("callback saw %v, want [a b]", seen)
	}

	// options survive a checker rebuild
	limited := flatSettings(p.Settings().TokenConfig)
	limited.MaxConcurrency = 1
	if err := p.SetSettings(limited); err != nil {
		t.Fatalf("SetSettings() error = %v", err)
	}
	seen = nil
	p.Balance(context.Background(), Event{})
	if len(seen) != 2 {
		t.Errorf("callback saw %v after rebuild, want 2 outcomes", seen)
	}
}
