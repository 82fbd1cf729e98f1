package acceptance_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "required": ["id", "title", "priority"],
  "properties": {
    "id": { "type": "string", "pattern": "^[a-z]+-[0-9]{3}$" },
    "title": { "type": "string", "minLength": 1 },
    "priority": { "enum": ["low", "medium", "high"] },
    "tags": { "type": "array", "items": { "type": "string" } },
    "created": { "type": "string", "format": "date" },
    "steps": { "type": "array", "items": { "type": "object" } }
  }
}
`

// runCasecheck executes the casecheck binary and returns stdout, stderr, and exit code.
func runCasecheck(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(casecheckBinary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("failed to run casecheck: %v", err)
		}
		exitCode = exitErr.ExitCode()
	}
	return stdout.String(), stderr.String(), exitCode
}

// newCorpus creates a temp dir holding the schema and the given documents.
func newCorpus(t *testing.T, docs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "schema/testcase.schema.json", schemaJSON)
	for name, content := range docs {
		writeFile(t, dir, name, content)
	}
	return dir
}

// writeFile creates a file with the given content.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create parent dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
}

// checkJSON runs casecheck check --json and parses the result.
func checkJSON(t *testing.T, dir string, extraArgs ...string) (map[string]any, int) {
	t.Helper()
	args := append([]string{"check", "--json"}, extraArgs...)
	stdout, stderr, code := runCasecheck(t, dir, args...)
	var result map[string]any
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("failed to parse check JSON: %v\nstdout: %s\nstderr: %s", err, stdout, stderr)
	}
	return result, code
}

// summary extracts the summary counters from a check --json result.
func summary(t *testing.T, result map[string]any) (documents, failed, findings int) {
	t.Helper()
	s, ok := result["summary"].(map[string]any)
	if !ok {
		t.Fatal("missing summary in result")
	}
	return int(s["documents"].(float64)), int(s["failed"].(float64)), int(s["findings"].(float64))
}
