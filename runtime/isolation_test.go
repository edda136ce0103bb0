package runtime

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/justapithecus/stax/cache"
	"github.com/justapithecus/stax/lock"
	"github.com/justapithecus/stax/project"
)

func testLockfile() *lock.Lockfile {
	lf := lock.New()
	lf.Set("reghdfe", lock.Entry{Version: "6.12.3", Source: "ssc", Group: project.GroupProduction})
	lf.Set("estout", lock.Entry{Version: "20240301", Source: "ssc", Group: project.GroupProduction})
	lf.Set("benchtools", lock.Entry{Version: "20230101", Source: "ssc", Group: project.GroupDev})
	return lf
}

func TestBuildSADOStrict(t *testing.T) {
	root := t.TempDir()
	store := cache.NewStore(root)

	sado := BuildSADO(store, testLockfile(), nil, false)
	parts := strings.Split(sado, ";")

	want := []string{
		filepath.Join(root, "benchtools", "20230101"),
		filepath.Join(root, "estout", "20240301"),
		filepath.Join(root, "reghdfe", "6.12.3"),
		"BASE",
	}
	if len(parts) != len(want) {
		t.Fatalf("parts = %v", parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("parts[%d] = %q, want %q", i, parts[i], want[i])
		}
	}
}

func TestBuildSADOGroupFilter(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	sado := BuildSADO(store, testLockfile(), []project.Group{project.GroupProduction}, false)
	if strings.Contains(sado, "benchtools") {
		t.Errorf("dev package leaked into production path: %s", sado)
	}
	if !strings.Contains(sado, "reghdfe") {
		t.Errorf("production package missing: %s", sado)
	}
}

func TestBuildSADOAllowGlobal(t *testing.T) {
	store := cache.NewStore(t.TempDir())

	sado := BuildSADO(store, lock.New(), nil, true)
	if sado != "BASE;SITE;PERSONAL;PLUS;OLDPLACE" {
		t.Errorf("sado = %q", sado)
	}

	strict := BuildSADO(store, lock.New(), nil, false)
	if strict != "BASE" {
		t.Errorf("strict sado = %q", strict)
	}
}
