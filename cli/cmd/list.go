package cmd

import (
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/stax/cli/render"
	"github.com/justapithecus/stax/lock"
	"github.com/justapithecus/stax/project"
)

// ListCommand shows declared packages with their locked state.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List declared packages and their locked versions",
		Flags:  SharedFlags(),
		Action: listAction,
	}
}

// listRow is one package in the listing. Version is empty for
// declared-but-unlocked packages; group comes from the manifest when
// declared, else from the lock entry.
type listRow struct {
	Package string `json:"package"`
	Version string `json:"version,omitempty"`
	Source  string `json:"source"`
	Group   string `json:"group"`
	Locked  bool   `json:"locked"`
}

func listAction(c *cli.Context) error {
	env, err := loadEnv(c)
	if err != nil {
		return err
	}
	if err := env.requireProject(); err != nil {
		return err
	}

	renderer, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	return renderer.Render(listRows(env.Manifest, env.Lockfile))
}

// listRows joins manifest declarations with lock entries, sorted by
// package name. Lock entries no longer declared still appear, marked
// with the group the lockfile recorded.
func listRows(m *project.Manifest, lf *lock.Lockfile) []listRow {
	rows := make(map[string]listRow)

	for _, ref := range m.Packages() {
		rows[ref.Name] = listRow{
			Package: ref.Name,
			Version: ref.Spec.Version,
			Source:  ref.Spec.Source,
			Group:   string(ref.Group),
		}
	}
	for _, named := range lf.Sorted() {
		row, declared := rows[named.Name]
		if !declared {
			row = listRow{
				Package: named.Name,
				Source:  named.Source,
				Group:   string(named.Group),
			}
		}
		row.Version = named.Entry.Version
		row.Locked = true
		rows[named.Name] = row
	}

	out := make([]listRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}
