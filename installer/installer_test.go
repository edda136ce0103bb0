package installer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/justapithecus/stax/cache"
	"github.com/justapithecus/stax/lock"
	"github.com/justapithecus/stax/project"
	"github.com/justapithecus/stax/source"
)

func sscServer(t *testing.T, files map[string]string) *httptest.Server {
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

func testInstaller(t *testing.T, files map[string]string) (*Installer, *cache.Store) {
	t.Helper()
	server := sscServer(t, files)
	store := cache.NewStore(t.TempDir())
	inst := New(store, source.Options{
		SSCBaseURL:   server.URL,
		SSCMirrorURL: server.URL,
	}, nil)
	return inst, store
}

var estoutFiles = map[string]string{
	"/e/estout.pkg": "d estout\nd Distribution-Date: 20240301\nf estout.ado\n",
	"/e/estout.ado": "program define estout\nend\n",
}

func TestSyncResolvesAndPins(t *testing.T) {
	inst, store := testInstaller(t, estoutFiles)

	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	lf := lock.New()

	actions, err := inst.Sync(context.Background(), m, lf)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].Outcome != "relocked" {
		t.Fatalf("actions = %+v", actions)
	}

	entry, ok := lf.Packages["estout"]
	if !ok {
		t.Fatal("estout should be locked")
	}
	if entry.Version != "20240301" || entry.Source != "ssc" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Checksum == "" {
		t.Error("locked entry should carry a checksum")
	}
	if !store.Has("estout", "20240301") {
		t.Error("package should be cached")
	}
	if lf.ManifestHash != m.Hash() {
		t.Error("manifest hash should be recorded")
	}

	// A second sync is a no-op against cache and lockfile.
	actions, err = inst.Sync(context.Background(), m, lf)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].Outcome != "cached" {
		t.Errorf("second sync actions = %+v", actions)
	}
}

func TestSyncRefetchesEvictedEntry(t *testing.T) {
	inst, store := testInstaller(t, estoutFiles)

	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	lf := lock.New()

	if _, err := inst.Sync(context.Background(), m, lf); err != nil {
		t.Fatal(err)
	}
	locked := lf.Packages["estout"]

	if err := store.Remove("estout", locked.Version); err != nil {
		t.Fatal(err)
	}

	actions, err := inst.Sync(context.Background(), m, lf)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].Outcome != "fetched" {
		t.Fatalf("actions = %+v", actions)
	}
	if !store.Has("estout", locked.Version) {
		t.Error("evicted entry should be restored")
	}
	if lf.Packages["estout"].Checksum != locked.Checksum {
		t.Error("re-fetch must not change the locked checksum")
	}
}

func TestSyncDropsUndeclaredPackages(t *testing.T) {
	inst, _ := testInstaller(t, estoutFiles)

	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	lf := lock.New()
	lf.Set("orphan", lock.Entry{Version: "1.0", Source: "ssc"})

	if _, err := inst.Sync(context.Background(), m, lf); err != nil {
		t.Fatal(err)
	}
	if _, ok := lf.Packages["orphan"]; ok {
		t.Error("undeclared locked package should be dropped")
	}
}

func TestSyncGroupFilter(t *testing.T) {
	files := map[string]string{}
	for k, v := range estoutFiles {
		files[k] = v
	}
	files["/m/mdesc.pkg"] = "d mdesc\nd Distribution-Date: 20240101\nf mdesc.ado\n"
	files["/m/mdesc.ado"] = "program define mdesc\nend\n"
	inst, store := testInstaller(t, files)

	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	m.AddPackage("mdesc", project.PackageSpec{Source: "ssc"}, project.GroupDev)
	lf := lock.New()

	if _, err := inst.Sync(context.Background(), m, lf, project.GroupProduction); err != nil {
		t.Fatal(err)
	}
	if store.Has("mdesc", "20240101") {
		t.Error("dev group should not install without opting in")
	}
	if !store.Has("estout", "20240301") {
		t.Error("production group should install")
	}
}

func TestSyncFailsOnMissingPackage(t *testing.T) {
	inst, _ := testInstaller(t, nil)

	m := project.Default()
	m.AddPackage("ghost", project.PackageSpec{Source: "ssc"}, project.GroupProduction)

	if _, err := inst.Sync(context.Background(), m, lock.New()); err == nil {
		t.Fatal("expected fetch failure")
	}
}

func TestUpdateRepins(t *testing.T) {
	inst, _ := testInstaller(t, estoutFiles)

	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	lf := lock.New()
	lf.Set("estout", lock.Entry{Version: "20230101", Source: "ssc", Checksum: "sha256:old"})

	actions, err := inst.Update(context.Background(), m, lf, []string{"estout"})
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 1 || actions[0].Version != "20240301" {
		t.Fatalf("actions = %+v", actions)
	}
	if lf.Packages["estout"].Version != "20240301" {
		t.Error("update should re-pin to the served version")
	}
}

func TestUpdateUnknownPackage(t *testing.T) {
	inst, _ := testInstaller(t, estoutFiles)
	m := project.Default()
	if _, err := inst.Update(context.Background(), m, lock.New(), []string{"nope"}); err == nil {
		t.Fatal("expected error for undeclared package")
	}
}

func TestOutdated(t *testing.T) {
	inst, _ := testInstaller(t, estoutFiles)

	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	lf := lock.New()
	lf.Set("estout", lock.Entry{Version: "20230101", Source: "ssc"})

	outdated, err := inst.Outdated(context.Background(), m, lf)
	if err != nil {
		t.Fatal(err)
	}
	if len(outdated) != 1 {
		t.Fatalf("outdated = %+v", outdated)
	}
	if outdated[0].Locked != "20230101" || outdated[0].Latest != "20240301" {
		t.Errorf("entry = %+v", outdated[0])
	}

	// In-sync entries are not reported.
	lf.Set("estout", lock.Entry{Version: "20240301", Source: "ssc"})
	outdated, err = inst.Outdated(context.Background(), m, lf)
	if err != nil {
		t.Fatal(err)
	}
	if len(outdated) != 0 {
		t.Errorf("outdated = %+v", outdated)
	}
}
