package project

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNoProject indicates no manifest or lockfile was found walking up
// from the start directory.
var ErrNoProject = errors.New("no stax project found")

// rootMarkers indicate a project root, in precedence order.
var rootMarkers = []string{ManifestName, "stax.lock"}

// Root is a detected project root.
type Root struct {
	// Dir is the project root directory, absolute.
	Dir string
	// Marker is the file that identified it.
	Marker string
}

// FindRoot walks up from startDir looking for a project marker. The
// first directory carrying one wins, so nested projects resolve to the
// innermost.
func FindRoot(startDir string) (Root, error) {
	current, err := filepath.Abs(startDir)
	if err != nil {
		return Root{}, err
	}
	if resolved, rerr := filepath.EvalSymlinks(current); rerr == nil {
		current = resolved
	}

	for {
		for _, marker := range rootMarkers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return Root{Dir: current, Marker: marker}, nil
			}
		}

		parent := filepath.Dir(current)
		if parent == current {
			return Root{}, ErrNoProject
		}
		current = parent
	}
}

// FindRootFromCwd locates the project root from the working directory.
func FindRootFromCwd() (Root, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Root{}, err
	}
	return FindRoot(cwd)
}
