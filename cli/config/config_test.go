package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_FullConfig(t *testing.T) {
	yaml := `stata:
  binary: /usr/local/stata18/stata-mp

cache_dir: /var/cache/stax

run:
  timeout: 30m
  parallel: 4
  allow_global: true

notify:
  url: https://hooks.example.com/stax
  headers:
    Authorization: Bearer token123
  timeout: 10s
  retries: 3
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	assertEqual(t, "stata.binary", cfg.Stata.Binary, "/usr/local/stata18/stata-mp")
	assertEqual(t, "cache_dir", cfg.CacheDir, "/var/cache/stax")

	if cfg.Run.Timeout.Duration != 30*time.Minute {
		t.Errorf("expected run.timeout=30m, got %v", cfg.Run.Timeout.Duration)
	}
	if cfg.Run.Parallel != 4 {
		t.Errorf("expected run.parallel=4, got %d", cfg.Run.Parallel)
	}
	if !cfg.Run.AllowGlobal {
		t.Error("expected run.allow_global=true")
	}

	assertEqual(t, "notify.url", cfg.Notify.URL, "https://hooks.example.com/stax")
	if cfg.Notify.Timeout.Duration != 10*time.Second {
		t.Errorf("expected notify.timeout=10s, got %v", cfg.Notify.Timeout.Duration)
	}
	if cfg.Notify.Retries == nil || *cfg.Notify.Retries != 3 {
		t.Errorf("expected notify.retries=3")
	}
	if cfg.Notify.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("expected Authorization header")
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Stata.Binary != "" {
		t.Errorf("expected empty binary, got %q", cfg.Stata.Binary)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "{{invalid yaml")
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_STATA_BINARY", "/opt/stata/stata-se")

	yaml := "stata:\n  binary: ${TEST_STATA_BINARY}\n"
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	assertEqual(t, "stata.binary", cfg.Stata.Binary, "/opt/stata/stata-se")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	yaml := `cache_dir: /tmp/cache
bogus_key: should_fail
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	yaml := `notify:
  url: https://example.com
  unknown_field: bad
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_field") {
		t.Errorf("error should mention the unknown key, got: %v", err)
	}
}

func TestLoad_CommentsOnlyConfig(t *testing.T) {
	path := writeTemp(t, "# This is a comment\n# Another comment\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed for comments-only config: %v", err)
	}
	if cfg.CacheDir != "" {
		t.Errorf("expected empty cache_dir, got %q", cfg.CacheDir)
	}
}

func TestLoad_RetriesZeroDistinctFromNil(t *testing.T) {
	// retries: 0 should parse as *int(0), not nil.
	yaml := `notify:
  url: https://example.com
  retries: 0
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Notify.Retries == nil {
		t.Fatal("expected retries to be non-nil (*int(0)), got nil")
	}
	if *cfg.Notify.Retries != 0 {
		t.Errorf("expected retries=0, got %d", *cfg.Notify.Retries)
	}
}

func TestLoad_RetriesOmittedIsNil(t *testing.T) {
	yaml := `notify:
  url: https://example.com
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Notify.Retries != nil {
		t.Errorf("expected retries to be nil, got %d", *cfg.Notify.Retries)
	}
}

func TestDuration_InvalidFormat(t *testing.T) {
	yaml := `run:
  timeout: not-a-duration
`
	path := writeTemp(t, yaml)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error should mention invalid duration, got: %v", err)
	}
}

func TestDuration_EmptyIsZero(t *testing.T) {
	yaml := `run:
  timeout: ""
`
	path := writeTemp(t, yaml)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Run.Timeout.Duration != 0 {
		t.Errorf("expected zero duration, got %v", cfg.Run.Timeout.Duration)
	}
}

func TestLoadDefault_MissingFileIsNotAnError(t *testing.T) {
	// Point the config dir at an empty temp dir.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadDefault()
	if err != nil {
		t.Fatalf("LoadDefault failed: %v", err)
	}
	if cfg.Stata.Binary != "" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

// writeTemp writes content to a temp file and returns the path.
func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, field, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: got %q, want %q", field, got, want)
	}
}
