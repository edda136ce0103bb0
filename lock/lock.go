// Package lock reads and writes the stax.lock file and checks it
// against the manifest.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/types"
)

// FileName is the lockfile name at the project root.
const FileName = "stax.lock"

// FormatVersion identifies the lockfile schema.
const FormatVersion = "1"

// ErrNoLockfile indicates the project has no lockfile yet.
var ErrNoLockfile = errors.New("no lockfile found")

// Lockfile pins every declared package to an exact version, source,
// and content checksum.
type Lockfile struct {
	Version      string           `yaml:"version"`
	StaxVersion  string           `yaml:"stax_version,omitempty"`
	ManifestHash string           `yaml:"manifest_hash,omitempty"`
	Packages     map[string]Entry `yaml:"packages"`
}

// Entry is one locked package.
type Entry struct {
	// Version is the resolved exact version.
	Version string `yaml:"version"`
	// Source is the manifest's declared source string.
	Source string `yaml:"source"`
	// Resolved is the fully pinned source, commit SHA included for
	// repository sources.
	Resolved string `yaml:"resolved,omitempty"`
	// Checksum is the sha256 digest of the fetched content.
	Checksum string `yaml:"checksum,omitempty"`
	// Group records which dependency group declared the package.
	Group project.Group `yaml:"group"`
}

// NamedEntry pairs an entry with its package name.
type NamedEntry struct {
	Name string
	Entry
}

// New returns an empty lockfile at the current schema version.
func New() *Lockfile {
	return &Lockfile{
		Version:     FormatVersion,
		StaxVersion: types.Version,
		Packages:    make(map[string]Entry),
	}
}

// Load reads the lockfile from rootDir. A missing file returns
// ErrNoLockfile.
func Load(rootDir string) (*Lockfile, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w in %s", ErrNoLockfile, rootDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if lf.Packages == nil {
		lf.Packages = make(map[string]Entry)
	}
	return &lf, nil
}

// LoadOrNew reads the lockfile from rootDir, returning an empty one
// when none exists.
func LoadOrNew(rootDir string) (*Lockfile, error) {
	lf, err := Load(rootDir)
	if errors.Is(err, ErrNoLockfile) {
		return New(), nil
	}
	return lf, err
}

// Save writes the lockfile to rootDir.
func (l *Lockfile) Save(rootDir string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to serialize lockfile: %w", err)
	}
	path := filepath.Join(rootDir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Set pins name to entry.
func (l *Lockfile) Set(name string, entry Entry) {
	if l.Packages == nil {
		l.Packages = make(map[string]Entry)
	}
	l.Packages[name] = entry
}

// Remove drops name from the lockfile.
func (l *Lockfile) Remove(name string) bool {
	if _, ok := l.Packages[name]; !ok {
		return false
	}
	delete(l.Packages, name)
	return true
}

// Sorted returns entries ordered by package name.
func (l *Lockfile) Sorted() []NamedEntry {
	names := make([]string, 0, len(l.Packages))
	for name := range l.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]NamedEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, NamedEntry{Name: name, Entry: l.Packages[name]})
	}
	return entries
}

// Status is the outcome of comparing the lockfile to the manifest.
type Status struct {
	// Missing lists declared packages absent from the lockfile.
	Missing []string
	// Extra lists locked packages no longer declared.
	Extra []string
	// Changed lists locked packages whose entry no longer satisfies
	// the declaration, by source or version pin.
	Changed []string
}

// InSync reports whether the lockfile matches the manifest.
func (s Status) InSync() bool {
	return len(s.Missing) == 0 && len(s.Extra) == 0 && len(s.Changed) == 0
}

// Check compares the lockfile against the manifest's declarations.
func (l *Lockfile) Check(m *project.Manifest) Status {
	var status Status

	declared := make(map[string]project.PackageRef)
	for _, ref := range m.Packages() {
		declared[ref.Name] = ref
	}

	for name, ref := range declared {
		entry, ok := l.Packages[name]
		if !ok {
			status.Missing = append(status.Missing, name)
			continue
		}
		if !satisfies(entry, ref.Spec) {
			status.Changed = append(status.Changed, name)
		}
	}
	for name := range l.Packages {
		if _, ok := declared[name]; !ok {
			status.Extra = append(status.Extra, name)
		}
	}

	sort.Strings(status.Missing)
	sort.Strings(status.Extra)
	sort.Strings(status.Changed)
	return status
}

// satisfies reports whether a locked entry still matches its
// declaration. The source must be identical; a version pin, when
// declared, must match the locked version exactly.
func satisfies(entry Entry, spec project.PackageSpec) bool {
	if entry.Source != spec.Source {
		return false
	}
	if spec.Version != "" && spec.Version != entry.Version {
		return false
	}
	return true
}

// Report summarizes a check for rendering.
func (l *Lockfile) Report(status Status, updated bool) types.LockReport {
	return types.LockReport{
		PackageCount: len(l.Packages),
		Updated:      updated,
		InSync:       status.InSync(),
		Missing:      status.Missing,
		Extra:        status.Extra,
		Changed:      status.Changed,
	}
}
