package lock

import (
	"errors"
	"testing"

	"github.com/justapithecus/stax/project"
)

func TestLoadMissingLockfile(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, ErrNoLockfile) {
		t.Fatalf("expected ErrNoLockfile, got %v", err)
	}

	lf, err := LoadOrNew(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(lf.Packages) != 0 || lf.Version != FormatVersion {
		t.Errorf("LoadOrNew = %+v", lf)
	}
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()

	lf := New()
	lf.ManifestHash = "abc123"
	lf.Set("estout", Entry{
		Version:  "2024.03.15",
		Source:   "ssc",
		Resolved: "ssc:estout",
		Checksum: "sha256:deadbeef",
		Group:    project.GroupProduction,
	})
	lf.Set("reghdfe", Entry{
		Version:  "5.7.3",
		Source:   "github:sergiocorreia/reghdfe",
		Resolved: "github:sergiocorreia/reghdfe@0123456789abcdef",
		Group:    project.GroupDev,
	})
	if err := lf.Save(dir); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ManifestHash != "abc123" {
		t.Errorf("manifest hash = %q", loaded.ManifestHash)
	}
	entry := loaded.Packages["estout"]
	if entry.Version != "2024.03.15" || entry.Checksum != "sha256:deadbeef" {
		t.Errorf("estout = %+v", entry)
	}
	if loaded.Packages["reghdfe"].Group != project.GroupDev {
		t.Errorf("reghdfe group = %q", loaded.Packages["reghdfe"].Group)
	}
}

func TestSortedOrder(t *testing.T) {
	lf := New()
	for _, name := range []string{"zulu", "alpha", "mike"} {
		lf.Set(name, Entry{Version: "1", Source: "ssc"})
	}

	sorted := lf.Sorted()
	want := []string{"alpha", "mike", "zulu"}
	for i, entry := range sorted {
		if entry.Name != want[i] {
			t.Errorf("sorted[%d] = %q, want %q", i, entry.Name, want[i])
		}
	}
}

func TestCheckInSync(t *testing.T) {
	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)

	lf := New()
	lf.Set("estout", Entry{Version: "2024.03.15", Source: "ssc", Group: project.GroupProduction})

	status := lf.Check(m)
	if !status.InSync() {
		t.Errorf("expected in sync, got %+v", status)
	}
}

func TestCheckMissingAndExtra(t *testing.T) {
	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	m.AddPackage("ftools", project.PackageSpec{Source: "ssc"}, project.GroupProduction)

	lf := New()
	lf.Set("estout", Entry{Version: "1", Source: "ssc"})
	lf.Set("orphan", Entry{Version: "1", Source: "ssc"})

	status := lf.Check(m)
	if status.InSync() {
		t.Fatal("expected drift")
	}
	if len(status.Missing) != 1 || status.Missing[0] != "ftools" {
		t.Errorf("missing = %v", status.Missing)
	}
	if len(status.Extra) != 1 || status.Extra[0] != "orphan" {
		t.Errorf("extra = %v", status.Extra)
	}
	if len(status.Changed) != 0 {
		t.Errorf("changed = %v", status.Changed)
	}
}

func TestCheckChangedSource(t *testing.T) {
	m := project.Default()
	m.AddPackage("reghdfe", project.PackageSpec{Source: "github:sergiocorreia/reghdfe"}, project.GroupProduction)

	lf := New()
	lf.Set("reghdfe", Entry{Version: "5.7.3", Source: "ssc"})

	status := lf.Check(m)
	if len(status.Changed) != 1 || status.Changed[0] != "reghdfe" {
		t.Errorf("changed = %v", status.Changed)
	}
}

func TestCheckChangedVersionPin(t *testing.T) {
	m := project.Default()
	m.AddPackage("reghdfe", project.PackageSpec{Source: "ssc", Version: "6.0.0"}, project.GroupProduction)

	lf := New()
	lf.Set("reghdfe", Entry{Version: "5.7.3", Source: "ssc"})

	status := lf.Check(m)
	if len(status.Changed) != 1 {
		t.Errorf("changed = %v", status.Changed)
	}

	// An unpinned declaration accepts whatever was locked.
	m2 := project.Default()
	m2.AddPackage("reghdfe", project.PackageSpec{Source: "ssc"}, project.GroupProduction)
	if status := lf.Check(m2); !status.InSync() {
		t.Errorf("unpinned declaration should accept locked version, got %+v", status)
	}
}

func TestReport(t *testing.T) {
	m := project.Default()
	m.AddPackage("estout", project.PackageSpec{Source: "ssc"}, project.GroupProduction)

	lf := New()
	status := lf.Check(m)

	report := lf.Report(status, false)
	if report.InSync {
		t.Error("report should show drift")
	}
	if report.PackageCount != 0 {
		t.Errorf("package count = %d", report.PackageCount)
	}
	if len(report.Missing) != 1 {
		t.Errorf("missing = %v", report.Missing)
	}
}
