package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/justapithecus/stax/deps"
	"github.com/justapithecus/stax/types"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"human", FormatHuman, false},
		{"table", FormatHuman, false},
		{"yaml", FormatYAML, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatJSON, false, &buf)

	report := types.RunReport{RunID: "r1", Script: "a.do", Success: true}
	if err := r.Render(report); err != nil {
		t.Fatal(err)
	}

	var decoded types.RunReport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.RunID != "r1" || !decoded.Success {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestRenderHumanStruct(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatHuman, true, &buf)

	report := types.RunReport{RunID: "r1", Script: "a.do", Success: true, ExitCode: 0}
	if err := r.Render(report); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "run_id:") || !strings.Contains(out, "a.do") {
		t.Errorf("out = %q", out)
	}
}

func TestRenderHumanSlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatHuman, true, &buf)

	rows := []types.DoctorCheck{
		{Name: "binary", OK: true},
		{Name: "manifest", OK: false, Detail: "not found"},
	}
	if err := r.Render(rows); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "name") {
		t.Errorf("missing header row: %q", out)
	}
	if !strings.Contains(out, "manifest") || !strings.Contains(out, "not found") {
		t.Errorf("missing data rows: %q", out)
	}
}

func TestRenderHumanEmptySlice(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatHuman, true, &buf)

	if err := r.Render([]types.DoctorCheck{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(no results)") {
		t.Errorf("out = %q", buf.String())
	}
}

func TestRenderYAML(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatYAML, true, &buf)

	if err := r.Render(map[string]string{"script": "a.do"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "script: a.do") {
		t.Errorf("out = %q", buf.String())
	}
}

func TestRenderDepsTree(t *testing.T) {
	root := &deps.Node{
		Path:   "/project/main.do",
		Exists: true,
		Children: []*deps.Node{
			{Path: "/project/clean.do", Kind: deps.KindDo, Exists: true},
			{Path: "reghdfe", Kind: deps.KindPackage, Exists: true},
			{Path: "/project/gone.do", Kind: deps.KindInclude},
		},
	}

	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatHuman, true, &buf)
	if err := r.RenderDepsTree(root); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"main.do",
		"├── clean.do",
		"├── reghdfe (package)",
		"└── gone.do (missing)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}
