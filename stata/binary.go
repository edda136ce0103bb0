package stata

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
)

// ErrBinaryNotFound indicates no Stata installation could be located.
// Maps to the environment exit class.
var ErrBinaryNotFound = errors.New("stata binary not found")

// binaryNames lists candidate executables in preference order.
// Flavors are tried most-capable first.
var binaryNames = []string{"stata-mp", "stata-se", "stata-be", "stata"}

// DetectBinary resolves the interpreter binary.
//
// Precedence: explicit flag value, then the STATA_BINARY environment
// variable, then the user config value, then $PATH search, then
// platform install locations. An explicit value that does not resolve
// is an error rather than a fall-through, so a typo never silently
// picks a different installation.
func DetectBinary(flagValue, configValue string) (string, error) {
	for _, explicit := range []string{flagValue, os.Getenv("STATA_BINARY"), configValue} {
		if explicit == "" {
			continue
		}
		path, err := resolveExplicit(explicit)
		if err != nil {
			return "", fmt.Errorf("%w: %q does not resolve to an executable", ErrBinaryNotFound, explicit)
		}
		return path, nil
	}

	for _, name := range binaryNames {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	if path := searchPlatformDirs(); path != "" {
		return path, nil
	}

	return "", ErrBinaryNotFound
}

// resolveExplicit resolves a user-supplied binary reference: a bare name
// is looked up on $PATH, a path is checked directly.
func resolveExplicit(ref string) (string, error) {
	if filepath.Base(ref) == ref {
		return exec.LookPath(ref)
	}
	info, err := os.Stat(ref)
	if err != nil {
		return "", err
	}
	if info.IsDir() || info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("not an executable file: %s", ref)
	}
	return ref, nil
}

// searchPlatformDirs probes conventional install locations.
func searchPlatformDirs() string {
	var patterns []string
	switch runtime.GOOS {
	case "darwin":
		patterns = []string{"/Applications/Stata/Stata*.app/Contents/MacOS"}
	default:
		patterns = []string{"/usr/local/stata*"}
	}

	var dirs []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			continue
		}
		dirs = append(dirs, matches...)
	}
	// Newest versioned directory first.
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))

	for _, dir := range dirs {
		for _, name := range binaryNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
				return candidate
			}
		}
	}
	return ""
}
