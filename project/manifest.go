// Package project loads and edits the stax.yaml manifest and locates
// the project root.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ManifestName is the project manifest filename.
const ManifestName = "stax.yaml"

// Manifest is the committed project configuration.
// Every section has a working zero value, so an empty file is a valid
// manifest.
type Manifest struct {
	Project      ProjectSection         `yaml:"project,omitempty"`
	Run          RunSection             `yaml:"run,omitempty"`
	Dependencies map[string]PackageSpec `yaml:"dependencies,omitempty"`
	Dev          map[string]PackageSpec `yaml:"dev,omitempty"`
	Test         map[string]PackageSpec `yaml:"test,omitempty"`
	Tasks        map[string]TaskDef     `yaml:"tasks,omitempty"`
}

// ProjectSection carries display metadata.
type ProjectSection struct {
	Name        string   `yaml:"name,omitempty"`
	Authors     []string `yaml:"authors,omitempty"`
	Description string   `yaml:"description,omitempty"`
	URL         string   `yaml:"url,omitempty"`
}

// RunSection holds execution settings.
type RunSection struct {
	// LogDir is where run logs land, relative to the project root.
	LogDir string `yaml:"log_dir,omitempty"`
	// Timeout bounds a single script run. Zero means no limit.
	Timeout Duration `yaml:"timeout,omitempty"`
	// MaxLogSizeMB warns when a log exceeds this size.
	MaxLogSizeMB int64 `yaml:"max_log_size_mb,omitempty"`
}

// Duration wraps time.Duration so manifests can say "90s" or "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses Go duration syntax.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML emits the compact duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Group identifies a dependency group.
type Group string

// Dependency groups. Production installs by default; dev and test are
// opted in with --with.
const (
	GroupProduction Group = "production"
	GroupDev        Group = "dev"
	GroupTest       Group = "test"
)

// PackageSpec declares a package source, optionally pinned.
//
// Two manifest forms are accepted:
//
//	estout: ssc
//	reghdfe: {source: "github:sergiocorreia/reghdfe", version: "5.7.3"}
type PackageSpec struct {
	Source  string
	Version string
}

// UnmarshalYAML accepts the scalar and mapping forms.
func (s *PackageSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		s.Version = ""
		return value.Decode(&s.Source)
	}
	var detailed struct {
		Source  string `yaml:"source"`
		Version string `yaml:"version"`
	}
	if err := value.Decode(&detailed); err != nil {
		return err
	}
	if detailed.Source == "" {
		return fmt.Errorf("package spec requires a source")
	}
	s.Source = detailed.Source
	s.Version = detailed.Version
	return nil
}

// MarshalYAML keeps the scalar form when there is no pin.
func (s PackageSpec) MarshalYAML() (interface{}, error) {
	if s.Version == "" {
		return s.Source, nil
	}
	return struct {
		Source  string `yaml:"source"`
		Version string `yaml:"version"`
	}{s.Source, s.Version}, nil
}

// PackageRef is one manifest declaration with its group.
type PackageRef struct {
	Name  string
	Spec  PackageSpec
	Group Group
}

// Default returns a manifest with working defaults.
func Default() *Manifest {
	return &Manifest{
		Run: RunSection{LogDir: "logs", MaxLogSizeMB: 50},
	}
}

// Load reads the manifest from rootDir. A missing file yields the
// default manifest, so a bare directory still runs.
func Load(rootDir string) (*Manifest, error) {
	path := filepath.Join(rootDir, ManifestName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	m := Default()
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if m.Run.LogDir == "" {
		m.Run.LogDir = "logs"
	}
	return m, nil
}

// Save writes the manifest to rootDir.
func (m *Manifest) Save(rootDir string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	path := filepath.Join(rootDir, ManifestName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// HasPackage reports whether any group declares name.
func (m *Manifest) HasPackage(name string) bool {
	_, ok := m.GroupOf(name)
	return ok
}

// GroupOf returns the group declaring name.
func (m *Manifest) GroupOf(name string) (Group, bool) {
	if _, ok := m.Dependencies[name]; ok {
		return GroupProduction, true
	}
	if _, ok := m.Dev[name]; ok {
		return GroupDev, true
	}
	if _, ok := m.Test[name]; ok {
		return GroupTest, true
	}
	return "", false
}

// AddPackage declares name in the given group, replacing any prior
// declaration of the same name in that group.
func (m *Manifest) AddPackage(name string, spec PackageSpec, group Group) {
	target := m.groupMap(group)
	if *target == nil {
		*target = make(map[string]PackageSpec)
	}
	(*target)[name] = spec
}

// RemovePackage drops name from whichever group declares it.
func (m *Manifest) RemovePackage(name string) (PackageSpec, bool) {
	for _, group := range []Group{GroupProduction, GroupDev, GroupTest} {
		target := m.groupMap(group)
		if spec, ok := (*target)[name]; ok {
			delete(*target, name)
			return spec, true
		}
	}
	return PackageSpec{}, false
}

func (m *Manifest) groupMap(group Group) *map[string]PackageSpec {
	switch group {
	case GroupDev:
		return &m.Dev
	case GroupTest:
		return &m.Test
	default:
		return &m.Dependencies
	}
}

// Packages returns declarations for the requested groups, sorted by
// group then name so output and hashing are deterministic.
func (m *Manifest) Packages(groups ...Group) []PackageRef {
	if len(groups) == 0 {
		groups = []Group{GroupProduction, GroupDev, GroupTest}
	}

	var refs []PackageRef
	for _, group := range groups {
		target := m.groupMap(group)
		names := make([]string, 0, len(*target))
		for name := range *target {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			refs = append(refs, PackageRef{Name: name, Spec: (*target)[name], Group: group})
		}
	}
	return refs
}

// Hash digests the dependency declarations. The lockfile stores it so
// a manifest edit is detectable without re-resolving.
func (m *Manifest) Hash() string {
	var b strings.Builder
	for _, ref := range m.Packages() {
		fmt.Fprintf(&b, "%s/%s=%s@%s\n", ref.Group, ref.Name, ref.Spec.Source, ref.Spec.Version)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
