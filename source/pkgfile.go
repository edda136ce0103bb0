package source

import (
	"fmt"
	"strings"
)

// PkgManifest is a parsed Stata .pkg file.
//
// The format is line-oriented, keyed by first character: d/D carry
// description and metadata, f/F list files to install, h/H name help
// files in the older format, v and p lines are structural.
type PkgManifest struct {
	Name             string
	Title            string
	Author           string
	DistributionDate string
	Files            []string
	Description      []string
}

// ParsePkg parses .pkg content. name provides the fallback title.
// A manifest listing no files is rejected.
func ParsePkg(content, name string) (*PkgManifest, error) {
	m := &PkgManifest{Name: name}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rest := strings.TrimSpace(line[1:])
		switch line[0] {
		case 'd', 'D':
			switch {
			case strings.HasPrefix(rest, "Distribution-Date:"):
				m.DistributionDate = strings.TrimSpace(strings.TrimPrefix(rest, "Distribution-Date:"))
			case strings.HasPrefix(rest, "Author:"):
				m.Author = strings.TrimSpace(strings.TrimPrefix(rest, "Author:"))
			case strings.HasPrefix(rest, "Authors:"):
				m.Author = strings.TrimSpace(strings.TrimPrefix(rest, "Authors:"))
			case rest != "":
				if m.Title == "" {
					m.Title = stripTitleTag(rest)
				}
				m.Description = append(m.Description, rest)
			}
		case 'f', 'F':
			if rest != "" {
				m.Files = append(m.Files, rest)
			}
		case 'h', 'H':
			if rest != "" {
				if !strings.Contains(rest, ".") {
					rest += ".sthlp"
				}
				m.Files = append(m.Files, rest)
			}
		}
	}

	if m.Title == "" {
		m.Title = name
	}
	if len(m.Files) == 0 {
		return nil, fmt.Errorf("package %s lists no files in its manifest", name)
	}
	return m, nil
}

// stripTitleTag unwraps the conventional `'NAME': description` form.
func stripTitleTag(rest string) string {
	if !strings.HasPrefix(rest, "'") {
		return rest
	}
	end := strings.Index(rest[1:], "'")
	if end < 0 {
		return rest
	}
	after := strings.TrimSpace(rest[end+2:])
	if title, ok := strings.CutPrefix(after, ":"); ok {
		return strings.TrimSpace(title)
	}
	return rest
}
