package config

import (
	"fmt"
	"time"
)

// Config represents a stax user config file
// (~/.config/stax/config.yaml). All values are optional and act as
// defaults for stax commands. CLI flags always override config values.
type Config struct {
	Stata    StataConfig  `yaml:"stata"`
	CacheDir string       `yaml:"cache_dir"`
	Run      RunConfig    `yaml:"run"`
	Notify   NotifyConfig `yaml:"notify"`
}

// StataConfig holds interpreter defaults from the config file.
type StataConfig struct {
	// Binary is a path or $PATH name; empty means auto-detection.
	Binary string `yaml:"binary"`
}

// RunConfig holds execution defaults from the config file.
type RunConfig struct {
	Timeout     Duration `yaml:"timeout"`
	Parallel    int      `yaml:"parallel"`
	AllowGlobal bool     `yaml:"allow_global"`
}

// NotifyConfig holds webhook notification defaults from the config file.
type NotifyConfig struct {
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
