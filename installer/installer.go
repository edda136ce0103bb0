// Package installer resolves manifest declarations against the
// lockfile and populates the package cache.
package installer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/justapithecus/stax/cache"
	"github.com/justapithecus/stax/lock"
	"github.com/justapithecus/stax/log"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/source"
)

// Installer fetches packages into the cache and keeps the lockfile
// pinned.
type Installer struct {
	store  *cache.Store
	opts   source.Options
	logger *log.Logger
}

// New returns an Installer writing to store.
func New(store *cache.Store, opts source.Options, logger *log.Logger) *Installer {
	return &Installer{store: store, opts: opts, logger: logger}
}

// Action records what happened to one package during a sync.
type Action struct {
	Name    string
	Version string
	// Outcome is one of cached, fetched, relocked.
	Outcome string
}

// Sync makes the cache and lockfile satisfy the manifest for the
// given groups.
//
// For each declaration: a locked entry that still satisfies the
// declaration and is cached is left alone; a satisfied but uncached
// entry is re-fetched and verified against the locked checksum; an
// unlocked or drifted declaration is resolved fresh and pinned.
// Locked packages no longer declared are dropped from the lockfile.
func (i *Installer) Sync(ctx context.Context, m *project.Manifest, lf *lock.Lockfile, groups ...project.Group) ([]Action, error) {
	var actions []Action

	for _, ref := range m.Packages(groups...) {
		entry, locked := lf.Packages[ref.Name]
		satisfied := locked && entrySatisfies(entry, ref.Spec)

		if satisfied && i.store.Has(ref.Name, entry.Version) {
			if err := i.store.Verify(ref.Name, entry.Version, entry.Checksum); err != nil {
				return actions, fmt.Errorf("cached %s@%s failed verification: %w", ref.Name, entry.Version, err)
			}
			_ = i.store.Touch(ref.Name, entry.Version)
			actions = append(actions, Action{Name: ref.Name, Version: entry.Version, Outcome: "cached"})
			continue
		}

		if satisfied {
			// Locked but evicted from the cache: re-fetch at the pin
			// and hold it to the locked checksum.
			version, err := i.fetch(ctx, ref, entry.Checksum)
			if err != nil {
				return actions, err
			}
			if version != entry.Version {
				return actions, fmt.Errorf("%s: source now serves %s, lockfile pins %s; run update to re-pin",
					ref.Name, version, entry.Version)
			}
			actions = append(actions, Action{Name: ref.Name, Version: version, Outcome: "fetched"})
			continue
		}

		resolution, err := i.resolve(ctx, ref)
		if err != nil {
			return actions, err
		}
		lf.Set(ref.Name, lock.Entry{
			Version:  resolution.Version,
			Source:   ref.Spec.Source,
			Resolved: resolution.Resolved,
			Checksum: resolution.Checksum,
			Group:    ref.Group,
		})
		actions = append(actions, Action{Name: ref.Name, Version: resolution.Version, Outcome: "relocked"})
	}

	status := lf.Check(m)
	for _, name := range status.Extra {
		lf.Remove(name)
		i.log("package unlocked", map[string]any{"package": name})
	}

	lf.ManifestHash = m.Hash()
	return actions, nil
}

// Update re-resolves the named packages (all declared when names is
// empty), ignoring existing pins.
func (i *Installer) Update(ctx context.Context, m *project.Manifest, lf *lock.Lockfile, names []string) ([]Action, error) {
	refs := m.Packages()
	if len(names) > 0 {
		wanted := make(map[string]bool, len(names))
		for _, name := range names {
			if !m.HasPackage(name) {
				return nil, fmt.Errorf("package %s is not declared in the manifest", name)
			}
			wanted[name] = true
		}
		filtered := refs[:0]
		for _, ref := range refs {
			if wanted[ref.Name] {
				filtered = append(filtered, ref)
			}
		}
		refs = filtered
	}

	var actions []Action
	for _, ref := range refs {
		resolution, err := i.resolve(ctx, ref)
		if err != nil {
			return actions, err
		}
		previous, hadPrevious := lf.Packages[ref.Name]
		lf.Set(ref.Name, lock.Entry{
			Version:  resolution.Version,
			Source:   ref.Spec.Source,
			Resolved: resolution.Resolved,
			Checksum: resolution.Checksum,
			Group:    ref.Group,
		})

		outcome := "relocked"
		if hadPrevious && previous.Version == resolution.Version && previous.Checksum == resolution.Checksum {
			outcome = "cached"
		}
		actions = append(actions, Action{Name: ref.Name, Version: resolution.Version, Outcome: outcome})
	}

	lf.ManifestHash = m.Hash()
	return actions, nil
}

// OutdatedEntry reports one package behind its channel.
type OutdatedEntry struct {
	Name    string
	Locked  string
	Latest  string
	Source  string
	Pinned  bool
}

// Outdated compares locked versions against what each channel serves
// now. Unreachable channels are skipped with a warning rather than
// failing the whole report.
func (i *Installer) Outdated(ctx context.Context, m *project.Manifest, lf *lock.Lockfile) ([]OutdatedEntry, error) {
	var outdated []OutdatedEntry

	for _, ref := range m.Packages() {
		entry, locked := lf.Packages[ref.Name]
		if !locked {
			continue
		}

		fetcher, err := i.fetcherFor(ref)
		if err != nil {
			return nil, err
		}
		latest, err := fetcher.Latest(ctx, ref.Name)
		if err != nil {
			i.log("latest version check failed", map[string]any{"package": ref.Name, "error": err.Error()})
			continue
		}
		if latest != entry.Version {
			outdated = append(outdated, OutdatedEntry{
				Name:   ref.Name,
				Locked: entry.Version,
				Latest: latest,
				Source: ref.Spec.Source,
				Pinned: ref.Spec.Version != "",
			})
		}
	}
	return outdated, nil
}

// resolve fetches a declaration fresh and caches the result.
// The version is not known until the channel answers, so the download
// lands in a scratch directory first and is committed to the store at
// the resolved version.
func (i *Installer) resolve(ctx context.Context, ref project.PackageRef) (source.Resolution, error) {
	resolution, scratch, err := i.download(ctx, ref)
	if err != nil {
		return resolution, err
	}
	defer os.RemoveAll(scratch)

	if ref.Spec.Version != "" && ref.Spec.Version != resolution.Version {
		return resolution, fmt.Errorf("%s: manifest pins %s but %s serves %s",
			ref.Name, ref.Spec.Version, ref.Spec.Source, resolution.Version)
	}

	// The lockfile records the cache's content digest, so later cache
	// verification compares like with like.
	checksum, err := i.commit(ref.Name, resolution.Version, "", scratch)
	if err != nil {
		return resolution, err
	}
	resolution.Checksum = checksum
	i.log("package installed", map[string]any{"package": ref.Name, "version": resolution.Version})
	return resolution, nil
}

// fetch re-downloads a locked package and holds it to the locked
// checksum before committing.
func (i *Installer) fetch(ctx context.Context, ref project.PackageRef, wantChecksum string) (string, error) {
	resolution, scratch, err := i.download(ctx, ref)
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(scratch)

	if _, err := i.commit(ref.Name, resolution.Version, wantChecksum, scratch); err != nil {
		return resolution.Version, fmt.Errorf("%s: %w", ref.Name, err)
	}
	return resolution.Version, nil
}

func (i *Installer) download(ctx context.Context, ref project.PackageRef) (source.Resolution, string, error) {
	fetcher, err := i.fetcherFor(ref)
	if err != nil {
		return source.Resolution{}, "", err
	}

	scratch, err := os.MkdirTemp("", "stax-fetch-")
	if err != nil {
		return source.Resolution{}, "", err
	}
	resolution, err := fetcher.Fetch(ctx, ref.Name, scratch)
	if err != nil {
		os.RemoveAll(scratch)
		return resolution, "", fmt.Errorf("failed to fetch %s: %w", ref.Name, err)
	}
	return resolution, scratch, nil
}

func (i *Installer) commit(name, version, wantChecksum, scratch string) (string, error) {
	checksum, err := i.store.Put(name, version, wantChecksum, func(dir string) error {
		entries, err := os.ReadDir(scratch)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(scratch, entry.Name()))
			if err != nil {
				return err
			}
			if err := os.WriteFile(filepath.Join(dir, entry.Name()), data, 0o644); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return checksum, i.store.Touch(name, version)
}

func (i *Installer) fetcherFor(ref project.PackageRef) (source.Fetcher, error) {
	spec, err := source.ParseSpec(ref.Spec.Source)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", ref.Name, err)
	}
	fetcher, err := source.For(spec, i.opts)
	if err != nil {
		return nil, fmt.Errorf("package %s: %w", ref.Name, err)
	}
	return fetcher, nil
}

func (i *Installer) log(msg string, fields map[string]any) {
	if i.logger != nil {
		i.logger.Info(msg, fields)
	}
}

func entrySatisfies(entry lock.Entry, spec project.PackageSpec) bool {
	if entry.Source != spec.Source {
		return false
	}
	if spec.Version != "" && spec.Version != entry.Version {
		return false
	}
	return true
}
