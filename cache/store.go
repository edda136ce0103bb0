// Package cache manages the global content-addressed package store.
//
// Packages live at {root}/{name}/{version}/ under the user cache
// directory. Writes are staged into a temporary sibling and renamed
// into place after checksum verification, so a crashed install never
// leaves a half-populated entry behind.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store is a package cache rooted at one directory.
type Store struct {
	root string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// DefaultDir returns the cache location, honoring XDG_CACHE_HOME.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "stax", "packages"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine cache directory: %w", err)
	}
	return filepath.Join(home, ".cache", "stax", "packages"), nil
}

// DefaultStore returns a Store at the default location.
func DefaultStore() (*Store, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewStore(dir), nil
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root
}

// PackagePath returns the directory for one package version.
func (s *Store) PackagePath(name, version string) string {
	return filepath.Join(s.root, strings.ToLower(name), version)
}

// Has reports whether the package version is cached with content.
func (s *Store) Has(name, version string) bool {
	entries, err := os.ReadDir(s.PackagePath(name, version))
	return err == nil && len(entries) > 0
}

// Put installs a package version. fill populates a staging directory;
// its content is digested, checked against wantChecksum when given,
// and renamed into place. The final checksum is returned either way.
// An existing entry is replaced.
func (s *Store) Put(name, version string, wantChecksum string, fill func(dir string) error) (string, error) {
	parent := filepath.Join(s.root, strings.ToLower(name))
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	staging, err := os.MkdirTemp(parent, ".tmp-"+version+"-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := fill(staging); err != nil {
		return "", err
	}

	checksum, err := DirChecksum(staging)
	if err != nil {
		return "", err
	}
	if wantChecksum != "" && checksum != wantChecksum {
		return "", fmt.Errorf("checksum mismatch for %s@%s: got %s, want %s",
			name, version, checksum, wantChecksum)
	}

	final := s.PackagePath(name, version)
	if err := os.Rename(staging, final); err == nil {
		return checksum, nil
	}

	// The slot exists: either a concurrent install won the rename, or a
	// stale entry occupies it. A digest match means the content is
	// already in place and this install is the loser; anything else is
	// replaced and the rename retried.
	if existing, err := DirChecksum(final); err == nil && existing == checksum {
		return checksum, nil
	}
	if err := os.RemoveAll(final); err != nil {
		return "", fmt.Errorf("failed to clear existing entry: %w", err)
	}
	if err := os.Rename(staging, final); err != nil {
		return "", fmt.Errorf("failed to commit cache entry: %w", err)
	}
	return checksum, nil
}

// Verify recomputes an entry's checksum and compares it.
func (s *Store) Verify(name, version, wantChecksum string) error {
	if !s.Has(name, version) {
		return fmt.Errorf("%s@%s is not cached", name, version)
	}
	checksum, err := DirChecksum(s.PackagePath(name, version))
	if err != nil {
		return err
	}
	if wantChecksum != "" && checksum != wantChecksum {
		return fmt.Errorf("checksum mismatch for %s@%s: got %s, want %s",
			name, version, checksum, wantChecksum)
	}
	return nil
}

// Remove drops one package version and its parent directory when that
// becomes empty.
func (s *Store) Remove(name, version string) error {
	path := s.PackagePath(name, version)
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove %s@%s: %w", name, version, err)
	}
	parent := filepath.Dir(path)
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		_ = os.Remove(parent)
	}
	return nil
}

// Entry describes one cached package version.
type Entry struct {
	Name    string
	Version string
	Path    string
	Size    int64
}

// List returns cached entries sorted by name then version.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	names, err := os.ReadDir(s.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	for _, nameEntry := range names {
		if !nameEntry.IsDir() || strings.HasPrefix(nameEntry.Name(), ".") {
			continue
		}
		versions, err := os.ReadDir(filepath.Join(s.root, nameEntry.Name()))
		if err != nil {
			continue
		}
		for _, versionEntry := range versions {
			if !versionEntry.IsDir() || strings.HasPrefix(versionEntry.Name(), ".") {
				continue
			}
			path := filepath.Join(s.root, nameEntry.Name(), versionEntry.Name())
			size, err := dirSize(path)
			if err != nil {
				return nil, err
			}
			entries = append(entries, Entry{
				Name:    nameEntry.Name(),
				Version: versionEntry.Name(),
				Path:    path,
				Size:    size,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Version < entries[j].Version
	})
	return entries, nil
}

// Size returns the total cache size in bytes.
func (s *Store) Size() (int64, error) {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return 0, nil
	}
	return dirSize(s.root)
}

// Clean removes entries not present in inUse, keyed "name@version"
// with the name lowercased. With force, referenced entries go too.
// Returns the removed entries.
func (s *Store) Clean(inUse map[string]bool, force bool) ([]Entry, error) {
	entries, err := s.List()
	if err != nil {
		return nil, err
	}

	var removed []Entry
	for _, entry := range entries {
		key := strings.ToLower(entry.Name) + "@" + entry.Version
		if inUse[key] && !force {
			continue
		}
		if err := s.Remove(entry.Name, entry.Version); err != nil {
			return removed, err
		}
		removed = append(removed, entry)
	}
	return removed, nil
}

// DirChecksum digests a directory: every regular file's relative path
// and content, in sorted path order, prefixed "sha256:".
func DirChecksum(dir string) (string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "%s\x00", filepath.ToSlash(rel))

		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", path, err)
		}
		if _, err := io.Copy(h, f); err != nil {
			f.Close()
			return "", fmt.Errorf("failed to hash %s: %w", path, err)
		}
		f.Close()
		fmt.Fprintf(h, "\x00")
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

func dirSize(root string) (int64, error) {
	var size int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
		}
		return nil
	})
	return size, err
}
