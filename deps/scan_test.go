package deps

import (
	"path/filepath"
	"testing"
)

func TestScanInclusionForms(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantTarget string
		wantKind   Kind
	}{
		{"bare do", "do analysis.do", "analysis.do", KindDo},
		{"bare without extension", "do analysis", "analysis.do", KindDo},
		{"double quoted", `do "my analysis.do"`, "my analysis.do", KindDo},
		{"compound quoted", "do `\"path with spaces.do\"'", "path with spaces.do", KindDo},
		{"single quoted", "do 'quoted.do'", "quoted.do", KindDo},
		{"run statement", "run helpers/clean.do", filepath.Join("helpers", "clean.do"), KindRun},
		{"include statement", "include setup", "setup.do", KindInclude},
		{"leading whitespace", "    do indented.do", "indented.do", KindDo},
		{"uppercase keyword", "DO shouty.do", "shouty.do", KindDo},
		{"non-do extension kept", "do config.ado", "config.ado", KindDo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := Scan(tt.line)
			if len(refs) != 1 {
				t.Fatalf("expected 1 reference, got %d", len(refs))
			}
			if refs[0].Target != tt.wantTarget {
				t.Errorf("target = %q, want %q", refs[0].Target, tt.wantTarget)
			}
			if refs[0].Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", refs[0].Kind, tt.wantKind)
			}
		})
	}
}

func TestScanPackageRequirements(t *testing.T) {
	content := `
ssc install estout
capture which reghdfe
net install gtools
capture noisily ssc install ftools
`
	refs := Scan(content)
	if len(refs) != 4 {
		t.Fatalf("expected 4 references, got %d: %+v", len(refs), refs)
	}
	want := []string{"estout", "reghdfe", "gtools", "ftools"}
	for i, name := range want {
		if refs[i].Kind != KindPackage {
			t.Errorf("refs[%d].Kind = %q, want package", i, refs[i].Kind)
		}
		if refs[i].Target != name {
			t.Errorf("refs[%d].Target = %q, want %q", i, refs[i].Target, name)
		}
	}
}

func TestScanSkipsComments(t *testing.T) {
	content := `* do commented.do
// do also_commented.do
/* do blocked.do */
/*
do inside_block.do
*/
do real.do // trailing comment with do fake.do
`
	refs := Scan(content)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d: %+v", len(refs), refs)
	}
	if refs[0].Target != "real.do" {
		t.Errorf("target = %q", refs[0].Target)
	}
	if refs[0].Line != 7 {
		t.Errorf("line = %d, want 7", refs[0].Line)
	}
}

func TestScanIgnoresNonDependencyLines(t *testing.T) {
	content := `use auto.dta
regress price mpg
display "do not match this"
doedit something
`
	for _, ref := range Scan(content) {
		// "doedit" must not match the do pattern, and a quoted string
		// argument to display is not a statement.
		t.Errorf("unexpected reference %+v", ref)
	}
}

func TestScanLineNumbers(t *testing.T) {
	content := "clear\n\ndo first.do\nsysuse auto\nrun second.do\n"
	refs := Scan(content)
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}
	if refs[0].Line != 3 || refs[1].Line != 5 {
		t.Errorf("lines = %d, %d; want 3, 5", refs[0].Line, refs[1].Line)
	}
}

func TestReferenceResolve(t *testing.T) {
	rel := Reference{Target: "sub/helper.do", Kind: KindDo}
	if got := rel.Resolve("/work"); got != filepath.Join("/work", "sub/helper.do") {
		t.Errorf("relative resolve = %q", got)
	}

	abs := Reference{Target: "/opt/shared.do", Kind: KindDo}
	if got := abs.Resolve("/work"); got != "/opt/shared.do" {
		t.Errorf("absolute resolve = %q", got)
	}

	pkg := Reference{Target: "estout", Kind: KindPackage}
	if got := pkg.Resolve("/work"); got != "estout" {
		t.Errorf("package resolve = %q", got)
	}
}
