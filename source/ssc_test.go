package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testPkgContent = `d 'ESTOUT': module to export tables
d Distribution-Date: 20240301
f estout.ado
f estout.sthlp
`

func sscTestServer(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(content))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSSCFetch(t *testing.T) {
	server := sscTestServer(t, map[string]string{
		"/e/estout.pkg":   testPkgContent,
		"/e/estout.ado":   "program define estout\nend\n",
		"/e/estout.sthlp": "{smcl} help",
	})

	f := NewSSCFetcher(Options{SSCBaseURL: server.URL, SSCMirrorURL: server.URL + "/nomirror"})
	dir := t.TempDir()

	res, err := f.Fetch(context.Background(), "Estout", dir)
	if err != nil {
		t.Fatal(err)
	}
	if res.Version != "20240301" {
		t.Errorf("version = %q, want distribution date", res.Version)
	}
	if res.Resolved != "ssc:estout" {
		t.Errorf("resolved = %q", res.Resolved)
	}
	if !strings.HasPrefix(res.Checksum, "sha256:") {
		t.Errorf("checksum = %q", res.Checksum)
	}

	for _, name := range []string{"estout.pkg", "estout.ado", "estout.sthlp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing fetched file %s", name)
		}
	}
}

func TestSSCFetchNotFoundFallsBackToMirror(t *testing.T) {
	primary := sscTestServer(t, nil)
	mirror := sscTestServer(t, map[string]string{
		"/n/newpkg.pkg": "d new package\nf newpkg.ado\n",
		"/n/newpkg.ado": "program define newpkg\nend\n",
	})

	f := NewSSCFetcher(Options{SSCBaseURL: primary.URL, SSCMirrorURL: mirror.URL})
	res, err := f.Fetch(context.Background(), "newpkg", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if res.Resolved != "ssc-mirror:newpkg" {
		t.Errorf("resolved = %q, want mirror provenance", res.Resolved)
	}
}

func TestSSCFetchMissingEverywhere(t *testing.T) {
	primary := sscTestServer(t, nil)
	mirror := sscTestServer(t, nil)

	f := NewSSCFetcher(Options{SSCBaseURL: primary.URL, SSCMirrorURL: mirror.URL})
	_, err := f.Fetch(context.Background(), "ghost", t.TempDir())
	if !errors.Is(err, ErrPackageNotFound) {
		t.Fatalf("expected ErrPackageNotFound, got %v", err)
	}
}

func TestSSCFetchMissingListedFileFails(t *testing.T) {
	server := sscTestServer(t, map[string]string{
		"/b/broken.pkg": "d broken\nf broken.ado\nf gone.sthlp\n",
		"/b/broken.ado": "program define broken\nend\n",
	})

	f := NewSSCFetcher(Options{SSCBaseURL: server.URL, SSCMirrorURL: server.URL})
	if _, err := f.Fetch(context.Background(), "broken", t.TempDir()); err == nil {
		t.Fatal("expected error when a listed file is missing")
	}
}

func TestSSCLatest(t *testing.T) {
	server := sscTestServer(t, map[string]string{
		"/e/estout.pkg": testPkgContent,
	})

	f := NewSSCFetcher(Options{SSCBaseURL: server.URL})
	version, err := f.Latest(context.Background(), "estout")
	if err != nil {
		t.Fatal(err)
	}
	if version != "20240301" {
		t.Errorf("latest = %q", version)
	}
}
