package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	defaultGitHubAPIURL = "https://api.github.com"
	defaultGitHubRawURL = "https://raw.githubusercontent.com"
)

// GitHubFetcher downloads a package from a repository. The .pkg
// manifest is looked up at the repository root and under src/, and
// every fetch is pinned to the resolved commit SHA so the lockfile
// survives force-pushed branches.
type GitHubFetcher struct {
	client *http.Client
	apiURL string
	rawURL string
	repo   string
	ref    string
}

// NewGitHubFetcher returns a fetcher for one github:owner/repo[@ref]
// spec.
func NewGitHubFetcher(spec Spec, opts Options) *GitHubFetcher {
	f := &GitHubFetcher{
		client: opts.httpClient(),
		apiURL: opts.GitHubAPIURL,
		rawURL: opts.GitHubRawURL,
		repo:   spec.Repo,
		ref:    spec.Ref,
	}
	if f.apiURL == "" {
		f.apiURL = defaultGitHubAPIURL
	}
	if f.rawURL == "" {
		f.rawURL = defaultGitHubRawURL
	}
	return f
}

// Fetch resolves the ref to a commit, locates the .pkg manifest, and
// downloads the listed files at that commit.
func (f *GitHubFetcher) Fetch(ctx context.Context, name, dir string) (Resolution, error) {
	ref := f.ref
	if ref == "" {
		var err error
		ref, err = f.defaultBranch(ctx)
		if err != nil {
			return Resolution{}, err
		}
	}

	sha, err := f.resolveCommit(ctx, ref)
	if err != nil {
		return Resolution{}, err
	}

	pkgPath, pkgContent, err := f.findPkg(ctx, name, sha)
	if err != nil {
		return Resolution{}, err
	}
	manifest, err := ParsePkg(string(pkgContent), name)
	if err != nil {
		return Resolution{}, err
	}

	checksums := []string{checksumBytes(pkgContent)}
	if err := os.WriteFile(filepath.Join(dir, filepath.Base(pkgPath)), pkgContent, 0o644); err != nil {
		return Resolution{}, err
	}

	baseDir := path.Dir(pkgPath)
	for _, file := range manifest.Files {
		remote := file
		if baseDir != "." {
			remote = path.Join(baseDir, file)
		}
		content, err := f.raw(ctx, sha, remote)
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to fetch %s: %w", remote, err)
		}
		if err := os.WriteFile(filepath.Join(dir, filepath.Base(file)), content, 0o644); err != nil {
			return Resolution{}, err
		}
		checksums = append(checksums, checksumBytes(content))
	}

	version := f.ref
	if version == "" {
		version = shortSHA(sha)
	}
	return Resolution{
		Version:  version,
		Resolved: fmt.Sprintf("github:%s@%s", f.repo, sha),
		Checksum: combineChecksums(checksums),
	}, nil
}

// Latest returns the newest tag, falling back to the head commit of
// the default branch.
func (f *GitHubFetcher) Latest(ctx context.Context, name string) (string, error) {
	var tags []struct {
		Name string `json:"name"`
	}
	data, err := f.api(ctx, fmt.Sprintf("/repos/%s/tags?per_page=1", f.repo))
	if err == nil && json.Unmarshal(data, &tags) == nil && len(tags) > 0 {
		return tags[0].Name, nil
	}

	branch, err := f.defaultBranch(ctx)
	if err != nil {
		return "", err
	}
	sha, err := f.resolveCommit(ctx, branch)
	if err != nil {
		return "", err
	}
	return shortSHA(sha), nil
}

func (f *GitHubFetcher) defaultBranch(ctx context.Context) (string, error) {
	data, err := f.api(ctx, "/repos/"+f.repo)
	if err != nil {
		return "", err
	}
	var repo struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := json.Unmarshal(data, &repo); err != nil {
		return "", fmt.Errorf("failed to decode repository metadata: %w", err)
	}
	if repo.DefaultBranch == "" {
		return "main", nil
	}
	return repo.DefaultBranch, nil
}

func (f *GitHubFetcher) resolveCommit(ctx context.Context, ref string) (string, error) {
	data, err := f.api(ctx, fmt.Sprintf("/repos/%s/commits/%s", f.repo, ref))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s@%s: %w", f.repo, ref, err)
	}
	var commit struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(data, &commit); err != nil || commit.SHA == "" {
		return "", fmt.Errorf("failed to resolve %s@%s", f.repo, ref)
	}
	return commit.SHA, nil
}

// findPkg probes conventional manifest locations.
func (f *GitHubFetcher) findPkg(ctx context.Context, name, sha string) (string, []byte, error) {
	repoName := f.repo[strings.Index(f.repo, "/")+1:]
	candidates := []string{
		name + ".pkg",
		repoName + ".pkg",
		"src/" + name + ".pkg",
	}
	for _, candidate := range candidates {
		content, err := f.raw(ctx, sha, candidate)
		if err == nil {
			return candidate, content, nil
		}
	}
	return "", nil, fmt.Errorf("%w: no .pkg manifest in %s", ErrPackageNotFound, f.repo)
}

func (f *GitHubFetcher) raw(ctx context.Context, ref, filePath string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", f.rawURL, f.repo, ref, filePath)
	return f.get(ctx, url, "")
}

func (f *GitHubFetcher) api(ctx context.Context, apiPath string) ([]byte, error) {
	return f.get(ctx, f.apiURL+apiPath, "application/vnd.github+json")
}

func (f *GitHubFetcher) get(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

func shortSHA(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
