package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// The SSC archive at Boston College serves plain HTTP only; its port
// 443 does not speak TLS. Stata's own ssc command uses HTTP as well.
const defaultSSCBaseURL = "http://fmwww.bc.edu/repec/bocode"

// Community-maintained mirror used when the primary is unreachable or
// has a gap.
const defaultSSCMirrorURL = "https://raw.githubusercontent.com/labordynamicsinstitute/ssc-mirror/releases/fmwww.bc.edu/repec/bocode"

// ErrPackageNotFound indicates the channel has no such package.
var ErrPackageNotFound = errors.New("package not found")

// SSCFetcher downloads packages from the SSC archive, organized by
// first letter: {base}/{letter}/{name}.pkg plus the listed files.
type SSCFetcher struct {
	client    *http.Client
	baseURL   string
	mirrorURL string
}

// NewSSCFetcher returns an SSC fetcher.
func NewSSCFetcher(opts Options) *SSCFetcher {
	f := &SSCFetcher{
		client:    opts.httpClient(),
		baseURL:   opts.SSCBaseURL,
		mirrorURL: opts.SSCMirrorURL,
	}
	if f.baseURL == "" {
		f.baseURL = defaultSSCBaseURL
	}
	if f.mirrorURL == "" {
		f.mirrorURL = defaultSSCMirrorURL
	}
	return f
}

func sscPackageDir(baseURL, name string) string {
	letter := "_"
	if name != "" {
		letter = strings.ToLower(name[:1])
	}
	return fmt.Sprintf("%s/%s/", baseURL, letter)
}

// Fetch downloads the package, trying the primary server first and
// the mirror on connection failure or a primary gap. The version is
// the manifest's distribution date when present, otherwise today.
func (f *SSCFetcher) Fetch(ctx context.Context, name, dir string) (Resolution, error) {
	name = strings.ToLower(name)

	res, fromMirror, err := f.fetchWithFallback(ctx, name, dir)
	if err != nil {
		return Resolution{}, err
	}

	res.Resolved = "ssc:" + name
	if fromMirror {
		res.Resolved = "ssc-mirror:" + name
	}
	return res, nil
}

func (f *SSCFetcher) fetchWithFallback(ctx context.Context, name, dir string) (Resolution, bool, error) {
	res, primaryErr := f.fetchFrom(ctx, sscPackageDir(f.baseURL, name), name, dir)
	if primaryErr == nil {
		return res, false, nil
	}

	if isConnectionError(primaryErr) || errors.Is(primaryErr, ErrPackageNotFound) {
		res, mirrorErr := f.fetchFrom(ctx, sscPackageDir(f.mirrorURL, name), name, dir)
		if mirrorErr == nil {
			return res, true, nil
		}
		if errors.Is(primaryErr, ErrPackageNotFound) && errors.Is(mirrorErr, ErrPackageNotFound) {
			return Resolution{}, false, fmt.Errorf("%w on ssc: %s", ErrPackageNotFound, name)
		}
		if isConnectionError(primaryErr) && isConnectionError(mirrorErr) {
			return Resolution{}, false, fmt.Errorf("ssc and its mirror are both unreachable: %w", primaryErr)
		}
		return Resolution{}, false, fmt.Errorf("ssc fetch failed: primary: %v, mirror: %v", primaryErr, mirrorErr)
	}

	return Resolution{}, false, primaryErr
}

func (f *SSCFetcher) fetchFrom(ctx context.Context, baseURL, name, dir string) (Resolution, error) {
	pkgContent, err := f.get(ctx, baseURL+name+".pkg")
	if err != nil {
		return Resolution{}, err
	}
	manifest, err := ParsePkg(string(pkgContent), name)
	if err != nil {
		return Resolution{}, err
	}

	checksums := []string{checksumBytes(pkgContent)}
	if err := os.WriteFile(filepath.Join(dir, name+".pkg"), pkgContent, 0o644); err != nil {
		return Resolution{}, err
	}

	for _, file := range manifest.Files {
		content, err := f.get(ctx, baseURL+file)
		if err != nil {
			return Resolution{}, fmt.Errorf("failed to fetch %s: %w", file, err)
		}
		target := filepath.Join(dir, filepath.Base(file))
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return Resolution{}, err
		}
		checksums = append(checksums, checksumBytes(content))
	}

	version := manifest.DistributionDate
	if version == "" {
		version = datedVersion(time.Now())
	}
	return Resolution{Version: version, Checksum: combineChecksums(checksums)}, nil
}

// Latest returns the version the archive currently serves.
func (f *SSCFetcher) Latest(ctx context.Context, name string) (string, error) {
	name = strings.ToLower(name)
	pkgContent, err := f.get(ctx, sscPackageDir(f.baseURL, name)+name+".pkg")
	if err != nil {
		return "", err
	}
	manifest, err := ParsePkg(string(pkgContent), name)
	if err != nil {
		return "", err
	}
	if manifest.DistributionDate != "" {
		return manifest.DistributionDate, nil
	}
	return datedVersion(time.Now()), nil
}

func (f *SSCFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
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

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
