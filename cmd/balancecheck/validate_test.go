package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeCmd runs the root command with args and returns captured stdout,
// stderr and any error.
func executeCmd(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		_ = queryCmd.Flags().Set("tool", "false")
	})

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestRunValidate_ValidFlatConfig(t *testing.T) {
	path := writeConfig(t, `
port: 8080
timeout: 5s
token_config: |
  main|https://api.example.com/balance|Authorization:Bearer x|data.total|USD
  # disabled|https://old.example.com||x|
  raw|https://raw.example.com||a.b|
`)

	output, _, err := executeCmd(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Mode:        flat",
		"Timeout:     5s",
		"Concurrency: unlimited",
		"Port:        8080",
		"LLM tool:    disabled",
		"Services:    2 ok, 0 with errors",
		"- main: GET https://api.example.com/balance -> data.total USD",
		"Settings are valid!",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_ValidYAMLConfig(t *testing.T) {
	path := writeConfig(t, `
use_yaml_config: true
enable_llm_tool: true
max_concurrency: 3
services_config: |
  services:
    deepseek:
      url: https://api.deepseek.com/user/balance
      display_name: DeepSeek
      result_template: "余额: {balance_infos.0.total_balance} {balance_infos.0.currency}"
    draft:
      display_name: Draft
`)

	output, _, err := executeCmd(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Mode:        yaml",
		"Concurrency: 3",
		"LLM tool:    enabled",
		"Services:    1 ok, 0 with errors",
		"Skipped:     draft (no url)",
		"template {balance_infos.0.total_balance} {balance_infos.0.currency}",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, output)
		}
	}
}

func TestRunValidate_EntryErrors(t *testing.T) {
	path := writeConfig(t, `
token_config: |
  good|https://a.example.com||x|
  broken|https://b.example.com
`)

	output, errOutput, err := executeCmd(t, "validate", "-c", path)
	if err == nil {
		t.Fatal("validate command expected error for broken entries, got nil")
	}
	if !strings.Contains(err.Error(), "1 services have configuration errors") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(output, "Services:    1 ok, 1 with errors") {
		t.Errorf("output = %s", output)
	}
	if !strings.Contains(errOutput, "broken 配置错误: 需要 5 个字段，实际 2 个") {
		t.Errorf("stderr = %s", errOutput)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "port: 0\n")

	_, _, err := executeCmd(t, "validate", "-c", path)
	if err == nil {
		t.Fatal("validate command expected error for invalid config, got nil")
	}
	if !strings.Contains(err.Error(), "port must be between") {
		t.Errorf("error should mention the port range, got: %v", err)
	}
}

func TestRunValidate_ServicesNotMapping(t *testing.T) {
	path := writeConfig(t, `
use_yaml_config: true
services_config: |
  - a
  - b
`)

	_, _, err := executeCmd(t, "validate", "-c", path)
	if err == nil || !strings.Contains(err.Error(), "invalid services_config") {
		t.Errorf("error = %v, want invalid services_config", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, _, err := executeCmd(t, "validate", "-c", "/nonexistent/path/settings.yaml")
	if err == nil {
		t.Fatal("validate command expected error for missing file, got nil")
	}

	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error should mention 'failed to read', got: %v", err)
	}
}

func TestVersion(t *testing.T) {
	output, _, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if !strings.HasPrefix(output, "balancecheck dev") {
		t.Errorf("output = %q", output)
	}
}
