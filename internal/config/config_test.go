package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsWithNoFileOrEnv(t *testing.T) {
	t.Setenv(envLLMAPIKey, "test-key")
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMModel != "gpt-4o" || cfg.ResultsDir != "./results" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if cfg.Orchestrator.MaxIterations != 5 {
		t.Errorf("expected default max iterations 5, got %d", cfg.Orchestrator.MaxIterations)
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "llm_model: claude-opus\nresults_dir: /tmp/out\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(envLLMAPIKey, "test-key")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLMModel != "claude-opus" || cfg.ResultsDir != "/tmp/out" {
		t.Errorf("yaml overrides not applied: %+v", cfg)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := "results_dir: /from-file\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(envLLMAPIKey, "test-key")
	t.Setenv(envResultsDir, "/from-env")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ResultsDir != "/from-env" {
		t.Errorf("expected env to win over file, got %q", cfg.ResultsDir)
	}
}

func TestLoadMissingAPIKeyFails(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error when LLM_API_KEY is unset")
	}
}

func TestLoadAppliesTimeoutEnvOverride(t *testing.T) {
	t.Setenv(envLLMAPIKey, "test-key")
	t.Setenv(envTimeoutClone, "45s")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Timeouts.Clone != 45*time.Second {
		t.Errorf("expected clone timeout override of 45s, got %s", cfg.Timeouts.Clone)
	}
}

func TestLoadRejectsInvalidTimeoutEnv(t *testing.T) {
	t.Setenv(envLLMAPIKey, "test-key")
	t.Setenv(envTimeoutLLM, "not-a-duration")

	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected an error for an unparseable timeout duration")
	}
}

func TestLoadRejectsInvalidMaxIterations(t *testing.T) {
	dir := t.TempDir()
	yaml := "orchestrator:\n  maxiterations: 0\n"
	if err := os.WriteFile(filepath.Join(dir, configFileName), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(envLLMAPIKey, "test-key")

	if _, err := Load(dir); err == nil {
		t.Error("expected an error for maxiterations: 0")
	}
}
