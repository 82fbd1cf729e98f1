package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/eykd/casecheck-go/internal/domain"
)

func readTestSchema(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "internal", "schema", "testdata", "testcase.schema.json"))
	if err != nil {
		t.Fatalf("reading schema: %v", err)
	}
	return string(data)
}

func newMemCorpus(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	files["/corpus/schema/testcase.schema.json"] = readTestSchema(t)
	for name, content := range files {
		if err := afero.WriteFile(mem, name, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return mem
}

const validCase = `---
id: feature-001
title: Login with valid credentials
priority: high
created: 2024-05-01
steps:
  - "1": Open the login page
    expected: The form is shown
  - "2": Submit valid credentials
---
# Login

1. Open the login page
**Expected:** The form is shown
`

func defaultOptions() CheckOptions {
	return CheckOptions{
		Root:   "/corpus",
		Schema: "schema/testcase.schema.json",
		Globs:  []string{"test-cases/**/*.md"},
		Jobs:   1,
	}
}

func TestCheckAdapter_ValidCorpus(t *testing.T) {
	mem := newMemCorpus(t, map[string]string{
		"/corpus/test-cases/feature-001-login.md": validCase,
	})
	a := &checkAdapter{fs: mem}

	result, err := a.Check(context.Background(), defaultOptions())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if len(result.Documents) != 1 || !result.Passed() {
		t.Errorf("result = %+v, want one passing document", result)
	}
}

func TestCheckAdapter_ReportsEveryRule(t *testing.T) {
	mem := newMemCorpus(t, map[string]string{
		"/corpus/test-cases/feature-001-login.md": validCase,
		"/corpus/test-cases/wrong-name.md": `---
id: feature-002
title: Logout
priority: low
---
1. Click logout
Nothing here
`,
		"/corpus/test-cases/auth/feature-003.md": `---
id: feature-003
title: Reset
priority: urgent
notes: extra
---
`,
		"/corpus/test-cases/feature-004.md": `---
id: feature-004
title: Gaps
priority: medium
steps:
  - "1": a
  - "3": b
---
`,
	})
	a := &checkAdapter{fs: mem}

	result, err := a.Check(context.Background(), defaultOptions())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	got := map[string][]domain.FindingKind{}
	for _, d := range result.Documents {
		for _, f := range d.Findings {
			got[d.Path] = append(got[d.Path], f.Kind)
		}
	}

	want := map[string][]domain.FindingKind{
		"test-cases/wrong-name.md":       {domain.FindingIdentityMismatch, domain.FindingBodyFormat},
		"test-cases/auth/feature-003.md": {domain.FindingSchemaViolation, domain.FindingSchemaViolation},
		"test-cases/feature-004.md":      {domain.FindingStepSequence},
	}
	for path, kinds := range want {
		if strings.Join(kindStrings(got[path]), ",") != strings.Join(kindStrings(kinds), ",") {
			t.Errorf("%s: kinds = %v, want %v", path, got[path], kinds)
		}
	}
	if len(got) != len(want) {
		t.Errorf("failing documents = %v, want %d", got, len(want))
	}

	for _, d := range result.Documents {
		if d.Path != "test-cases/wrong-name.md" {
			continue
		}
		if d.Findings[0].Hint != "feature-002-logout.md" {
			t.Errorf("Hint = %q, want feature-002-logout.md", d.Findings[0].Hint)
		}
		if d.Findings[1].Line != 1 {
			t.Errorf("body finding line = %d, want 1", d.Findings[1].Line)
		}
	}
}

func TestCheckAdapter_FileLines(t *testing.T) {
	mem := newMemCorpus(t, map[string]string{
		"/corpus/test-cases/feature-002.md": "---\nid: feature-002\ntitle: Logout\npriority: low\n---\n1. Click logout\nNothing here\n",
	})
	a := &checkAdapter{fs: mem}
	opts := defaultOptions()
	opts.FileLines = true

	result, err := a.Check(context.Background(), opts)
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if result.FindingCount() != 1 {
		t.Fatalf("findings = %+v, want 1", result.Documents)
	}
	if line := result.Documents[0].Findings[0].Line; line != 6 {
		t.Errorf("body finding line = %d, want 6", line)
	}
}

func TestCheckAdapter_ParallelMatchesSequential(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		files["/corpus/test-cases/"+name+".md"] = validCase
	}
	mem := newMemCorpus(t, files)
	a := &checkAdapter{fs: mem}

	seqOpts := defaultOptions()
	parOpts := defaultOptions()
	parOpts.Jobs = 4

	seq, err := a.Check(context.Background(), seqOpts)
	if err != nil {
		t.Fatalf("sequential Check() error = %v", err)
	}
	par, err := a.Check(context.Background(), parOpts)
	if err != nil {
		t.Fatalf("parallel Check() error = %v", err)
	}

	if len(seq.Documents) != 6 || len(par.Documents) != 6 {
		t.Fatalf("documents = %d/%d, want 6", len(seq.Documents), len(par.Documents))
	}
	for i := range seq.Documents {
		if seq.Documents[i].Path != par.Documents[i].Path ||
			len(seq.Documents[i].Findings) != len(par.Documents[i].Findings) {
			t.Errorf("document %d differs: %+v vs %+v", i, seq.Documents[i], par.Documents[i])
		}
	}
}

func TestCheckAdapter_MissingSchemaIsFatal(t *testing.T) {
	a := &checkAdapter{fs: afero.NewMemMapFs()}

	_, err := a.Check(context.Background(), defaultOptions())

	if err == nil || !strings.Contains(err.Error(), "reading schema") {
		t.Errorf("Check() error = %v, want schema read error", err)
	}
}

func TestCheckAdapter_InvalidSchemaIsFatal(t *testing.T) {
	mem := afero.NewMemMapFs()
	if err := afero.WriteFile(mem, "/corpus/schema/testcase.schema.json", []byte(`{"type": 7}`), 0o644); err != nil {
		t.Fatal(err)
	}
	a := &checkAdapter{fs: mem}

	_, err := a.Check(context.Background(), defaultOptions())

	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Errorf("Check() error = %v, want compile error", err)
	}
}

func TestCheckAdapter_WriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "casecheck.json")
	a := &checkAdapter{fs: afero.NewOsFs()}

	if err := a.WriteReport(context.Background(), path, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != `{"ok":true}` {
		t.Errorf("report = %q, %v", data, err)
	}
}

func kindStrings(kinds []domain.FindingKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
