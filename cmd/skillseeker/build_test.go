package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const goodMarkdown = `# Getting Started

Install the package first.

` + "```python" + `
def install(package):
    return run("pip", "install", package)
` + "```" + `
`

// One corrupt file must not abort the batch: the readable file still makes
// it into the output package.
func TestBuildContinuesPastCorruptFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "guide.md")
	if err := os.WriteFile(good, []byte(goodMarkdown), 0o644); err != nil {
		t.Fatal(err)
	}
	corrupt := filepath.Join(dir, "broken.docx")
	if err := os.WriteFile(corrupt, []byte("this is not a zip archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfgPath := filepath.Join(dir, "build.json")
	cfg := map[string]any{
		"name":        "test-skill",
		"description": "batch test",
		"files":       []string{corrupt, good},
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfgPath, data, 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out")
	rootCmd.SetArgs([]string{"build", "--config", cfgPath, "--output", out})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	for _, name := range []string{"SKILL.md", "manifest.json", filepath.Join("references", "getting_started.md")} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestBuildFailsWhenNothingReadable(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "broken.docx")
	if err := os.WriteFile(corrupt, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "build.json")
	cfg := fmt.Sprintf(`{"name":"x","files":[%q]}`, corrupt)
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"build", "--config", cfgPath, "--output", filepath.Join(dir, "out")})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error when no input is readable")
	}
}

func TestExitCode(t *testing.T) {
	if got := exitCode(fmt.Errorf("open: %w", os.ErrNotExist)); got != 1 {
		t.Errorf("missing-file exit = %d, want 1", got)
	}
	if got := exitCode(errors.New("boom")); got != 2 {
		t.Errorf("generic exit = %d, want 2", got)
	}
}
