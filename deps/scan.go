// Package deps builds dependency graphs over Stata scripts.
//
// Scripts reference other work two ways: inclusion statements (do, run,
// include) that execute another script synchronously, and package
// requirements (ssc install, which guards) that name an external package.
// The analyzer expands inclusions depth-first with cycle detection;
// package requirements are always leaves.
package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind classifies a reference.
type Kind string

// Reference kinds.
const (
	KindDo      Kind = "do"
	KindRun     Kind = "run"
	KindInclude Kind = "include"
	KindPackage Kind = "package"
)

// Reference is one dependency statement found in a script.
type Reference struct {
	// Target is the referenced script path (normalized, .do appended
	// when no extension) or the package name for KindPackage.
	Target string
	// Kind is the statement kind.
	Kind Kind
	// Line is the 1-based source line number.
	Line int
	// Raw is the trimmed statement text.
	Raw string
}

// Resolve returns the target path resolved against baseDir.
// Package references resolve to their bare name.
func (r Reference) Resolve(baseDir string) string {
	if r.Kind == KindPackage || filepath.IsAbs(r.Target) {
		return r.Target
	}
	return filepath.Join(baseDir, r.Target)
}

// includePattern matches `do|run|include` with Stata's quoting forms:
// compound `"path"', plain "path", 'path', or a bare token.
var includePattern = regexp.MustCompile(
	`(?i)^\s*(do|run|include)\s+(?:` + "`" + `"([^"]+)"'|"([^"]+)"|'([^']+)'|(\S+))`)

// packagePatterns match requirement statements, optionally inside a
// non-fatal capture guard.
var packagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*(?:capture\s+)?(?:noisily\s+)?ssc\s+install\s+(\w+)`),
	regexp.MustCompile(`(?i)^\s*(?:capture\s+)?(?:noisily\s+)?net\s+install\s+(\w+)`),
	regexp.MustCompile(`(?i)^\s*(?:capture\s+)?which\s+(\w+)\s*$`),
}

// ScanFile parses the script at path for dependency statements.
func ScanFile(path string) ([]Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Scan(string(data)), nil
}

// Scan parses script content for dependency statements.
// Line comments (`*`, `//`) and block comments (`/* */`) are skipped;
// trailing `//` comments are stripped before matching.
func Scan(content string) []Reference {
	var refs []Reference
	inBlock := false

	for i, line := range strings.Split(content, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)

		if inBlock {
			if idx := strings.Index(trimmed, "*/"); idx >= 0 {
				inBlock = false
				trimmed = strings.TrimSpace(trimmed[idx+2:])
			} else {
				continue
			}
		}
		if strings.HasPrefix(trimmed, "/*") {
			// Single-line blocks close on the same line; anything
			// after the close is not a dependency statement in practice.
			if !strings.Contains(trimmed, "*/") {
				inBlock = true
			}
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "*") || strings.HasPrefix(trimmed, "//") {
			continue
		}

		// Strip trailing comment before matching.
		matchable := trimmed
		if idx := strings.Index(matchable, "//"); idx >= 0 {
			matchable = matchable[:idx]
		}

		if m := includePattern.FindStringSubmatch(matchable); m != nil {
			target := firstNonEmpty(m[2], m[3], m[4], m[5])
			refs = append(refs, Reference{
				Target: normalizePath(target),
				Kind:   Kind(strings.ToLower(m[1])),
				Line:   lineNo,
				Raw:    trimmed,
			})
			continue
		}

		for _, pat := range packagePatterns {
			if m := pat.FindStringSubmatch(matchable); m != nil {
				refs = append(refs, Reference{
					Target: strings.ToLower(m[1]),
					Kind:   KindPackage,
					Line:   lineNo,
					Raw:    trimmed,
				})
				break
			}
		}
	}

	return refs
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalizePath appends .do when the referenced path has no extension,
// matching how Stata itself resolves `do analysis`.
func normalizePath(target string) string {
	target = strings.TrimSpace(target)
	if filepath.Ext(target) == "" {
		return target + ".do"
	}
	return target
}
