// Package runtime launches Stata batch processes and orchestrates
// script runs: isolation, log parsing, sequential and parallel
// batches, and benchmarking.
package runtime

import (
	"sort"
	"strings"

	"github.com/justapithecus/stax/cache"
	"github.com/justapithecus/stax/lock"
	"github.com/justapithecus/stax/project"
)

// BuildSADO constructs the S_ADO search path from the lockfile.
//
// Strict by default: only locked package cache paths plus BASE, so a
// script using an unlocked package fails fast instead of silently
// picking it up from a machine-global directory. allowGlobal appends
// the conventional global locations for development convenience.
//
// Paths are sorted by package name so the search order is
// deterministic across machines.
func BuildSADO(store *cache.Store, lf *lock.Lockfile, groups []project.Group, allowGlobal bool) string {
	inGroup := func(g project.Group) bool {
		if len(groups) == 0 {
			return true
		}
		for _, want := range groups {
			if g == want {
				return true
			}
		}
		return false
	}

	var paths []string
	for _, entry := range lf.Sorted() {
		if !inGroup(entry.Group) {
			continue
		}
		paths = append(paths, store.PackagePath(entry.Name, entry.Version))
	}
	sort.Strings(paths)

	paths = append(paths, "BASE")
	if allowGlobal {
		paths = append(paths, "SITE", "PERSONAL", "PLUS", "OLDPLACE")
	}
	return strings.Join(paths, ";")
}
