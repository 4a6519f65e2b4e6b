package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mwillis/wfgraph/internal/config"
)

func TestLoadAppliesDefaultsWithNoFile(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxSteps != 10000 {
		t.Errorf("Engine.MaxSteps = %d, want 10000", cfg.Engine.MaxSteps)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Store.Backend = %q, want memory", cfg.Store.Backend)
	}
	if cfg.Retry.BackoffMultiplier != 2.0 {
		t.Errorf("Retry.BackoffMultiplier = %v, want 2.0", cfg.Retry.BackoffMultiplier)
	}
}

func TestLoadOverridesFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wfgraph.yaml")
	yaml := `
engine:
  max_steps: 500
store:
  backend: sqlite
  dsn: "file:test.db"
retry:
  max_retries: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.MaxSteps != 500 {
		t.Errorf("Engine.MaxSteps = %d, want 500", cfg.Engine.MaxSteps)
	}
	if cfg.Store.Backend != "sqlite" || cfg.Store.DSN != "file:test.db" {
		t.Errorf("Store = %+v, want sqlite/file:test.db", cfg.Store)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("Retry.MaxRetries = %d, want 5", cfg.Retry.MaxRetries)
	}
}

func TestLoadEnvVarOverride(t *testing.T) {
	t.Setenv("WFGRAPH_STORE_BACKEND", "mysql")
	t.Setenv("WFGRAPH_STORE_DSN", "user:pass@tcp(localhost:3306)/wfgraph")

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Store.Backend != "mysql" {
		t.Errorf("Store.Backend = %q, want mysql", cfg.Store.Backend)
	}
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("WFGRAPH_STORE_BACKEND", "oracle")
	if _, err := config.Load(""); err == nil {
		t.Fatalf("expected validation error for unknown store backend")
	}
}

func TestValidateRequiresDSNForNonMemoryBackend(t *testing.T) {
	t.Setenv("WFGRAPH_STORE_BACKEND", "postgres")
	if _, err := config.Load(""); err == nil {
		t.Fatalf("expected validation error for missing DSN")
	}
}

func TestDefaultSweepMaxAgeIsThirtyMinutes(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sweep.MaxAge != 30*time.Minute {
		t.Errorf("Sweep.MaxAge = %v, want 30m", cfg.Sweep.MaxAge)
	}
}

func TestDumpRendersLoadableYAML(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	rendered, err := cfg.Dump()
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "dumped.yaml")
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("reloading dumped config: %v", err)
	}
	if reloaded.Engine.MaxSteps != cfg.Engine.MaxSteps {
		t.Errorf("Engine.MaxSteps = %d after round trip, want %d", reloaded.Engine.MaxSteps, cfg.Engine.MaxSteps)
	}
	if reloaded.Sweep.Schedule != cfg.Sweep.Schedule {
		t.Errorf("Sweep.Schedule = %q after round trip, want %q", reloaded.Sweep.Schedule, cfg.Sweep.Schedule)
	}
}
