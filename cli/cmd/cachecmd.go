package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cache"
	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/stata"
)

// CacheCommand inspects and prunes the package cache.
func CacheCommand() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and prune the package cache",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List cached package versions",
				Flags:  SharedFlags(),
				Action: cacheListAction,
			},
			{
				Name:  "clean",
				Usage: "Remove cached packages not referenced by the lockfile",
				Flags: append(SharedFlags(),
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Remove referenced entries too",
					},
					&cli.DurationFlag{
						Name:  "older-than",
						Usage: "Only remove entries unused for this long (e.g. 720h)",
					},
				),
				Action: cacheCleanAction,
			},
		},
	}
}

// cacheRow is the renderable form of a cache entry.
type cacheRow struct {
	Package string `json:"package"`
	Version string `json:"version"`
	SizeKB  int64  `json:"size_kb"`
	Path    string `json:"path"`
}

func cacheRows(entries []cache.Entry) []cacheRow {
	rows := make([]cacheRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, cacheRow{
			Package: e.Name,
			Version: e.Version,
			SizeKB:  (e.Size + 1023) / 1024,
			Path:    e.Path,
		})
	}
	return rows
}

func cacheListAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}

	entries, err := env.Store.List()
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot read cache: %v", err), stata.ExitFileError)
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(cacheRows(entries))
}

func cacheCleanAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}

	inUse := map[string]bool{}
	for _, named := range env.Lockfile.Sorted() {
		inUse[strings.ToLower(named.Name)+"@"+named.Entry.Version] = true
	}

	var removed []cache.Entry
	if maxAge := c.Duration("older-than"); maxAge > 0 {
		removed, err = cleanStale(env.Store, inUse, c.Bool("force"), maxAge)
	} else {
		removed, err = env.Store.Clean(inUse, c.Bool("force"))
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("cache clean failed: %v", err), stata.ExitFileError)
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(cacheRows(removed))
}

// cleanStale evicts entries last used before now-maxAge, sparing
// lockfile-referenced entries unless forced.
func cleanStale(store *cache.Store, inUse map[string]bool, force bool, maxAge time.Duration) ([]cache.Entry, error) {
	cutoff := time.Now().Add(-maxAge)

	var removed []cache.Entry
	for _, record := range store.LoadIndex().StaleEntries(cutoff) {
		key := strings.ToLower(record.Name) + "@" + record.Version
		if inUse[key] && !force {
			continue
		}
		if err := store.Remove(record.Name, record.Version); err != nil {
			return removed, err
		}
		if err := store.Forget(record.Name, record.Version); err != nil {
			return removed, err
		}
		removed = append(removed, cache.Entry{
			Name:    record.Name,
			Version: record.Version,
			Path:    store.PackagePath(record.Name, record.Version),
			Size:    record.Size,
		})
	}
	return removed, nil
}
