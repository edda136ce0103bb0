// Package source fetches Stata packages from their distribution
// channels: the SSC archive, GitHub repositories, S3 mirrors, and
// local directories.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind identifies a package source channel.
type Kind string

// Source kinds.
const (
	KindSSC    Kind = "ssc"
	KindGitHub Kind = "github"
	KindS3     Kind = "s3"
	KindPath   Kind = "path"
)

// Spec is a parsed source declaration.
//
// Accepted forms:
//
//	ssc
//	github:owner/repo
//	github:owner/repo@ref
//	s3://bucket/prefix
//	path:../local/dir
type Spec struct {
	Kind Kind
	// Repo is owner/repo for GitHub sources.
	Repo string
	// Ref is the requested branch, tag, or commit for GitHub sources.
	Ref string
	// Bucket and Prefix address S3 sources.
	Bucket string
	Prefix string
	// Dir is the directory for path sources.
	Dir string
	// Raw is the original declaration string.
	Raw string
}

// ParseSpec parses a manifest source declaration.
func ParseSpec(raw string) (Spec, error) {
	spec := Spec{Raw: raw}
	switch {
	case raw == "ssc":
		spec.Kind = KindSSC

	case strings.HasPrefix(raw, "github:"):
		spec.Kind = KindGitHub
		rest := strings.TrimPrefix(raw, "github:")
		if at := strings.LastIndex(rest, "@"); at >= 0 {
			spec.Ref = rest[at+1:]
			rest = rest[:at]
		}
		if strings.Count(rest, "/") != 1 || strings.HasPrefix(rest, "/") || strings.HasSuffix(rest, "/") {
			return Spec{}, fmt.Errorf("invalid github source %q: want github:owner/repo[@ref]", raw)
		}
		spec.Repo = rest

	case strings.HasPrefix(raw, "s3://"):
		spec.Kind = KindS3
		rest := strings.TrimPrefix(raw, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Spec{}, fmt.Errorf("invalid s3 source %q: want s3://bucket/prefix", raw)
		}
		spec.Bucket = bucket
		spec.Prefix = strings.TrimSuffix(prefix, "/")

	case strings.HasPrefix(raw, "path:"):
		spec.Kind = KindPath
		spec.Dir = strings.TrimPrefix(raw, "path:")
		if spec.Dir == "" {
			return Spec{}, fmt.Errorf("invalid path source %q: empty directory", raw)
		}

	default:
		return Spec{}, fmt.Errorf("unknown package source %q", raw)
	}
	return spec, nil
}

// Resolution pins a fetch to an exact version.
type Resolution struct {
	// Version is the resolved version string.
	Version string
	// Resolved is the fully pinned source, commit SHA included for
	// repository sources.
	Resolved string
	// Checksum is the combined sha256 of the fetched files.
	Checksum string
}

// Fetcher downloads one package from its channel.
type Fetcher interface {
	// Fetch resolves the package and writes its files into dir.
	Fetch(ctx context.Context, name, dir string) (Resolution, error)
	// Latest reports the newest available version without fetching.
	Latest(ctx context.Context, name string) (string, error)
}

// Options configures fetcher construction.
type Options struct {
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
	// SSCBaseURL overrides the SSC archive URL.
	SSCBaseURL string
	// SSCMirrorURL overrides the SSC mirror URL.
	SSCMirrorURL string
	// GitHubAPIURL and GitHubRawURL override the GitHub endpoints.
	GitHubAPIURL string
	GitHubRawURL string
	// ProjectDir anchors relative path sources.
	ProjectDir string
	// S3 provides the client for s3:// sources.
	S3 S3API
}

func (o Options) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// For returns the fetcher for a parsed spec.
func For(spec Spec, opts Options) (Fetcher, error) {
	switch spec.Kind {
	case KindSSC:
		return NewSSCFetcher(opts), nil
	case KindGitHub:
		return NewGitHubFetcher(spec, opts), nil
	case KindS3:
		if opts.S3 == nil {
			return nil, fmt.Errorf("s3 source %q requires AWS credentials", spec.Raw)
		}
		return NewS3Fetcher(spec, opts.S3), nil
	case KindPath:
		return NewPathFetcher(spec, opts.ProjectDir), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", spec.Kind)
	}
}

// checksumBytes digests one file's content.
func checksumBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// combineChecksums digests the sorted per-file checksums, so the
// result does not depend on download order.
func combineChecksums(checksums []string) string {
	sorted := append([]string(nil), checksums...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	h := sha256.New()
	for _, c := range sorted {
		h.Write([]byte(c))
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil))
}

// datedVersion formats a fallback version from a date.
func datedVersion(t time.Time) string {
	return t.UTC().Format("20060102")
}
