package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathFetcher copies a package from a local directory. The version is
// derived from the content digest, so editing the source directory
// and re-installing produces a new locked version.
type PathFetcher struct {
	dir        string
	projectDir string
}

// NewPathFetcher returns a fetcher for one path: spec. Relative
// directories resolve against projectDir.
func NewPathFetcher(spec Spec, projectDir string) *PathFetcher {
	return &PathFetcher{dir: spec.Dir, projectDir: projectDir}
}

func (f *PathFetcher) sourceDir() string {
	if filepath.IsAbs(f.dir) || f.projectDir == "" {
		return f.dir
	}
	return filepath.Join(f.projectDir, f.dir)
}

// Fetch copies the directory's files into dir. At least one .ado file
// must be present.
func (f *PathFetcher) Fetch(ctx context.Context, name, dir string) (Resolution, error) {
	src := f.sourceDir()
	entries, err := os.ReadDir(src)
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to read package directory %s: %w", src, err)
	}

	var checksums []string
	hasAdo := false
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Resolution{}, err
		}

		content, err := os.ReadFile(filepath.Join(src, entry.Name()))
		if err != nil {
			return Resolution{}, err
		}
		if err := os.WriteFile(filepath.Join(dir, entry.Name()), content, 0o644); err != nil {
			return Resolution{}, err
		}
		checksums = append(checksums, checksumBytes(content))
		if strings.HasSuffix(entry.Name(), ".ado") {
			hasAdo = true
		}
	}

	if len(checksums) == 0 {
		return Resolution{}, fmt.Errorf("package directory %s is empty", src)
	}
	if !hasAdo {
		return Resolution{}, fmt.Errorf("package directory %s contains no .ado files", src)
	}

	checksum := combineChecksums(checksums)
	return Resolution{
		Version:  "local-" + strings.TrimPrefix(checksum, "sha256:")[:12],
		Resolved: "path:" + src,
		Checksum: checksum,
	}, nil
}

// Latest reports the version the directory currently yields.
func (f *PathFetcher) Latest(ctx context.Context, name string) (string, error) {
	staging, err := os.MkdirTemp("", "stax-local-")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(staging)

	res, err := f.Fetch(ctx, name, staging)
	if err != nil {
		return "", err
	}
	return res.Version, nil
}
