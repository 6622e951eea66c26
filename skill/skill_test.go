package skill

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/skillseeker/skillseeker/ingest"
)

func TestCategoryKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Getting Started", "getting_started"},
		{"API Reference", "api_reference"},
		{"Advanced Topics!", "advanced_topics"},
		{"  Spaced  ", "spaced"},
		{"---", "general"},
		{"", "general"},
	}
	for _, tt := range tests {
		if got := CategoryKey(tt.in); got != tt.want {
			t.Errorf("CategoryKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildCategorization(t *testing.T) {
	blocks := []ingest.Block{
		{Kind: ingest.KindProse, Text: "preamble before any heading"},
		{Kind: ingest.KindHeading, Level: 1, Text: "Getting Started"},
		{Kind: ingest.KindProse, Text: "install instructions"},
		{Kind: ingest.KindHeading, Level: 2, Text: "Prerequisites"},
		{Kind: ingest.KindProse, Text: "still getting started"},
		{Kind: ingest.KindHeading, Level: 1, Text: "API Reference"},
		{Kind: ingest.KindCode, Text: "client.call(endpoint)", Language: "python", Quality: 7},
	}
	pkg, err := Build(blocks, Options{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}

	if len(pkg.Categories) != 3 {
		t.Fatalf("got %d categories: %+v", len(pkg.Categories), pkg.Manifest.Categories)
	}
	if pkg.Categories[0].Key != "general" ||
		pkg.Categories[1].Key != "getting_started" ||
		pkg.Categories[2].Key != "api_reference" {
		t.Fatalf("category order: %v", pkg.Manifest.Categories)
	}

	// A level-2 heading does not switch category.
	gs := pkg.Categories[1]
	if len(gs.Blocks) != 4 {
		t.Fatalf("getting_started has %d blocks, want 4", len(gs.Blocks))
	}

	// Every block lands in exactly one category.
	total := 0
	for _, c := range pkg.Categories {
		total += len(c.Blocks)
	}
	if total != len(blocks) {
		t.Fatalf("blocks across categories = %d, want %d", total, len(blocks))
	}
}

func TestBuildNoHeadingsAllGeneral(t *testing.T) {
	blocks := []ingest.Block{
		{Kind: ingest.KindProse, Text: "one"},
		{Kind: ingest.KindCode, Text: "x = compute(1)", Quality: 6},
		{Kind: ingest.KindProse, Text: "two"},
	}
	pkg, err := Build(blocks, Options{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(pkg.Categories) != 1 || pkg.Categories[0].Key != "general" {
		t.Fatalf("categories = %v, want just general", pkg.Manifest.Categories)
	}
	if len(pkg.Categories[0].Blocks) != 3 {
		t.Fatalf("general has %d blocks, want 3", len(pkg.Categories[0].Blocks))
	}
}

func TestBuildQualityFilter(t *testing.T) {
	blocks := []ingest.Block{
		{Kind: ingest.KindHeading, Level: 1, Text: "Examples"},
		{Kind: ingest.KindProse, Text: "two snippets follow"},
		{Kind: ingest.KindCode, Text: "good_example = run()", Quality: 9},
		{Kind: ingest.KindCode, Text: "weak_example = run()", Quality: 5},
	}
	pkg, err := Build(blocks, Options{Name: "demo", MinQuality: 8})
	if err != nil {
		t.Fatal(err)
	}

	c := pkg.Categories[0]
	if len(c.Blocks) != 3 {
		t.Fatalf("got %d blocks, want 3 (weak code dropped)", len(c.Blocks))
	}
	for _, b := range c.Blocks {
		if b.Kind == ingest.KindCode && b.Quality < 8 {
			t.Fatalf("low-quality code survived: %+v", b)
		}
	}
	// Heading and prose are never filtered.
	if c.Blocks[0].Kind != ingest.KindHeading || c.Blocks[1].Kind != ingest.KindProse {
		t.Fatalf("heading/prose missing after filter: %+v", c.Blocks)
	}
	if pkg.Manifest.Filtered != 1 {
		t.Fatalf("manifest filtered = %d, want 1", pkg.Manifest.Filtered)
	}
}

func TestBuildMinCodeLength(t *testing.T) {
	blocks := []ingest.Block{
		{Kind: ingest.KindCode, Text: "x := f(1)", Quality: 9},  // 9 chars: dropped
		{Kind: ingest.KindCode, Text: "y = add(2)", Quality: 9}, // 10 chars: kept
	}
	pkg, err := Build(blocks, Options{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	code := pkg.TopExamples(10)
	if len(code) != 1 {
		t.Fatalf("got %d code blocks, want 1", len(code))
	}
	if code[0].Text != "y = add(2)" {
		t.Fatalf("kept %q", code[0].Text)
	}
}

func TestWriteIdempotent(t *testing.T) {
	blocks := []ingest.Block{
		{Kind: ingest.KindHeading, Level: 1, Text: "Usage"},
		{Kind: ingest.KindProse, Text: "call the function"},
		{Kind: ingest.KindCode, Text: "result = api.call()", Language: "python", Quality: 7.5},
		{Kind: ingest.KindTable, Rows: [][]string{{"Arg", "Type"}, {"timeout", "int"}}},
	}
	pkg, err := Build(blocks, Options{Name: "demo", Description: "a demo skill"})
	if err != nil {
		t.Fatal(err)
	}

	dir1 := t.TempDir()
	dir2 := t.TempDir()
	if err := pkg.Write(dir1); err != nil {
		t.Fatal(err)
	}
	if err := pkg.Write(dir2); err != nil {
		t.Fatal(err)
	}

	for _, rel := range []string{"SKILL.md", "manifest.json", "references/index.md", "references/usage.md"} {
		a, err := os.ReadFile(filepath.Join(dir1, rel))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		b, err := os.ReadFile(filepath.Join(dir2, rel))
		if err != nil {
			t.Fatalf("read %s: %v", rel, err)
		}
		if string(a) != string(b) {
			t.Errorf("%s differs between runs", rel)
		}
	}
}

func TestRoundTripCodeBlocks(t *testing.T) {
	// Emitting a category file then re-parsing it recovers the code texts.
	blocks := []ingest.Block{
		{Kind: ingest.KindHeading, Level: 1, Text: "Recipes"},
		{Kind: ingest.KindCode, Text: "def first():\n    return 1", Language: "python", Quality: 8},
		{Kind: ingest.KindProse, Text: "and another"},
		{Kind: ingest.KindCode, Text: "def second():\n    return 2", Language: "python", Quality: 8},
	}
	pkg, err := Build(blocks, Options{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := pkg.Write(dir); err != nil {
		t.Fatal(err)
	}

	pipe := ingest.New(ingest.Config{})
	doc, err := pipe.Extract(context.Background(), filepath.Join(dir, "references", "recipes.md"))
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, b := range doc.Blocks {
		if b.Kind == ingest.KindCode {
			got = append(got, b.Text)
		}
	}
	want := []string{"def first():\n    return 1", "def second():\n    return 2"}
	if len(got) != len(want) {
		t.Fatalf("recovered %d code blocks (%q), want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("block %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSkillMDTopExamplesSorted(t *testing.T) {
	blocks := []ingest.Block{
		{Kind: ingest.KindCode, Text: "low_quality_sample()", Quality: 4},
		{Kind: ingest.KindCode, Text: "high_quality_sample()", Quality: 9},
		{Kind: ingest.KindCode, Text: "mid_quality_sample()", Quality: 6},
	}
	pkg, err := Build(blocks, Options{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	top := pkg.TopExamples(2)
	if len(top) != 2 {
		t.Fatalf("got %d examples, want 2", len(top))
	}
	if top[0].Quality != 9 || top[1].Quality != 6 {
		t.Fatalf("qualities = %v, %v; want 9, 6", top[0].Quality, top[1].Quality)
	}

	md := pkg.renderSkillMD()
	if !strings.Contains(md, "high_quality_sample") {
		t.Error("SKILL.md missing top example")
	}
}

func TestRestrictKeepsOnlyNamedCategories(t *testing.T) {
	blocks := []ingest.Block{
		{Kind: ingest.KindHeading, Text: "Getting Started", Level: 1},
		{Kind: ingest.KindCode, Text: "setup_environment()", Quality: 7},
		{Kind: ingest.KindHeading, Text: "Internals", Level: 1},
		{Kind: ingest.KindCode, Text: "private_helper_fn()", Quality: 7},
	}
	pkg, err := Build(blocks, Options{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}
	pkg.Restrict([]string{"Getting Started", "no_such_category"})

	if len(pkg.Categories) != 1 || pkg.Categories[0].Key != "getting_started" {
		t.Fatalf("categories = %+v", pkg.Categories)
	}
	if pkg.Manifest.CodeBlocks != 1 {
		t.Fatalf("manifest code blocks = %d, want 1", pkg.Manifest.CodeBlocks)
	}
}

func TestSkillMDTruncationKeepsValidUTF8(t *testing.T) {
	// An odd-length ASCII prefix puts the 300-byte cut mid-rune.
	long := "x" + strings.Repeat("é", 400)
	blocks := []ingest.Block{
		{Kind: ingest.KindCode, Text: long, Language: "python", Quality: 9},
	}
	pkg, err := Build(blocks, Options{Name: "demo"})
	if err != nil {
		t.Fatal(err)
	}

	md := pkg.renderSkillMD()
	if !utf8.ValidString(md) {
		t.Fatal("SKILL.md contains invalid UTF-8 after truncation")
	}

	got := truncateRunes(long, maxExampleChars)
	if len(got) >= maxExampleChars+1 {
		t.Fatalf("truncated to %d bytes, want < %d", len(got), maxExampleChars+1)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune")
	}
	if truncateRunes("short", maxExampleChars) != "short" {
		t.Fatal("short text should pass through unchanged")
	}
}
