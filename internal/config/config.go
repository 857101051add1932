// Package config loads the healer's runtime settings: the LLM and forge
// credentials, workspace/results directories, timeouts, and the
// orchestrator tunables, merging an optional YAML file with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codeheal/healer/internal/fixer"
	"github.com/codeheal/healer/internal/forge"
	"github.com/codeheal/healer/internal/orchestrator"
	"github.com/codeheal/healer/internal/sandbox"
	"github.com/codeheal/healer/internal/testrunner"
	"github.com/codeheal/healer/internal/vcs"
	"github.com/codeheal/healer/internal/workspace"
)

const (
	configFileName = ".codehealer.yml"

	envLLMAPIKey    = "LLM_API_KEY"
	envLLMModel     = "LLM_MODEL"
	envForgeToken   = "FORGE_TOKEN"
	envResultsDir   = "RESULTS_DIR"
	envWorkspaceDir = "WORKSPACE_ROOT"

	envTimeoutClone    = "CODEHEALER_TIMEOUT_CLONE"
	envTimeoutAnalyzer = "CODEHEALER_TIMEOUT_ANALYZER"
	envTimeoutLLM      = "CODEHEALER_TIMEOUT_LLM"
	envTimeoutCIPoll   = "CODEHEALER_TIMEOUT_CI_POLL"
	envTimeoutTestRun  = "CODEHEALER_TIMEOUT_TEST_RUN"
	envTimeoutPush     = "CODEHEALER_TIMEOUT_PUSH"
	envTimeoutForge    = "CODEHEALER_TIMEOUT_FORGE"
)

// TimeoutsSection holds one overridable duration per §5 timeout budget.
// Zero values are never valid; Default populates every field and
// ApplyToPackages pushes the final values into the package-level vars
// each component actually reads.
type TimeoutsSection struct {
	Clone    time.Duration `yaml:"clone"`
	Analyzer time.Duration `yaml:"analyzer"`
	LLM      time.Duration `yaml:"llm"`
	CIPoll   time.Duration `yaml:"ci_poll"`
	TestRun  time.Duration `yaml:"test_run"`
	Push     time.Duration `yaml:"push"`
	Forge    time.Duration `yaml:"forge"`
}

func defaultTimeouts() TimeoutsSection {
	return TimeoutsSection{
		Clone:    workspace.CloneTimeout,
		Analyzer: sandbox.StaticTimeout,
		LLM:      fixer.DefaultTimeout,
		CIPoll:   orchestrator.CIPollTimeout,
		TestRun:  testrunner.Timeout,
		Push:     vcs.PushTimeout,
		Forge:    forge.RequestTimeout,
	}
}

// ApplyToPackages assigns every timeout onto the package-level var each
// component reads at call time. Must run once at process startup, before
// any component is constructed.
func (t TimeoutsSection) ApplyToPackages() {
	workspace.CloneTimeout = t.Clone
	sandbox.StaticTimeout = t.Analyzer
	sandbox.RuntimeTimeout = t.Analyzer
	fixer.DefaultTimeout = t.LLM
	orchestrator.CIPollTimeout = t.CIPoll
	testrunner.Timeout = t.TestRun
	vcs.PushTimeout = t.Push
	forge.RequestTimeout = t.Forge
}

// Config holds everything a run needs beyond the per-invocation
// RunRequest: credentials, directories, timeouts, and the loop tunables.
type Config struct {
	LLMAPIKey    string              `yaml:"-"`
	LLMModel     string              `yaml:"llm_model"`
	ForgeToken   string              `yaml:"-"`
	ResultsDir   string              `yaml:"results_dir"`
	Timeouts     TimeoutsSection     `yaml:"timeouts"`
	Orchestrator orchestrator.Config `yaml:"orchestrator"`
}

// Default returns the baked-in defaults (§5), before any file or
// environment overrides are applied.
func Default() *Config {
	return &Config{
		LLMModel:     "gpt-4o",
		ResultsDir:   "./results",
		Timeouts:     defaultTimeouts(),
		Orchestrator: orchestrator.DefaultConfig(),
	}
}

// Load merges .codehealer.yml under configDir (if present) onto the
// defaults, then layers environment variables on top, and validates the
// result. A missing config file is not an error — the defaults and
// environment stand on their own.
func Load(configDir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(envLLMAPIKey); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv(envLLMModel); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv(envForgeToken); v != "" {
		cfg.ForgeToken = v
	}
	if v := os.Getenv(envResultsDir); v != "" {
		cfg.ResultsDir = v
	}
	if v := os.Getenv(envWorkspaceDir); v != "" {
		cfg.Orchestrator.WorkspaceRoot = v
	}

	for env, dst := range map[string]*time.Duration{
		envTimeoutClone:    &cfg.Timeouts.Clone,
		envTimeoutAnalyzer: &cfg.Timeouts.Analyzer,
		envTimeoutLLM:      &cfg.Timeouts.LLM,
		envTimeoutCIPoll:   &cfg.Timeouts.CIPoll,
		envTimeoutTestRun:  &cfg.Timeouts.TestRun,
		envTimeoutPush:     &cfg.Timeouts.Push,
		envTimeoutForge:    &cfg.Timeouts.Forge,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = d
	}
	return nil
}

// Validate rejects a config that would fail later in the run rather than
// at startup.
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("%s is required", envLLMAPIKey)
	}
	if c.Orchestrator.MaxIterations < 1 {
		return fmt.Errorf("orchestrator.max_iterations must be >= 1, got %d", c.Orchestrator.MaxIterations)
	}
	if c.Orchestrator.TestTailIterations < 0 {
		return fmt.Errorf("orchestrator.test_tail_iterations must be >= 0, got %d", c.Orchestrator.TestTailIterations)
	}
	for name, d := range map[string]time.Duration{
		"clone":    c.Timeouts.Clone,
		"analyzer": c.Timeouts.Analyzer,
		"llm":      c.Timeouts.LLM,
		"ci_poll":  c.Timeouts.CIPoll,
		"test_run": c.Timeouts.TestRun,
		"push":     c.Timeouts.Push,
		"forge":    c.Timeouts.Forge,
	} {
		if d <= 0 {
			return fmt.Errorf("timeouts.%s must be > 0, got %s", name, d)
		}
	}
	return nil
}
