package ingest

import "testing"

func TestIsChapterStart(t *testing.T) {
	tests := []struct {
		b    Block
		want bool
	}{
		{Block{Kind: KindHeading, Level: 1, Text: "Introduction"}, true},
		{Block{Kind: KindHeading, Level: 2, Text: "Setup"}, true},
		{Block{Kind: KindHeading, Level: 3, Text: "Details"}, false},
		{Block{Kind: KindHeading, Level: 3, Text: "Chapter 4"}, true},
		{Block{Kind: KindHeading, Level: 4, Text: "Part II"}, true},
		{Block{Kind: KindHeading, Level: 4, Text: "Appendix A"}, false}, // letter, not numeral
		{Block{Kind: KindProse, Text: "Chapter 4"}, false},
	}
	for _, tt := range tests {
		if got := IsChapterStart(tt.b); got != tt.want {
			t.Errorf("IsChapterStart(%q level %d) = %v, want %v", tt.b.Text, tt.b.Level, got, tt.want)
		}
	}
}

func TestSplitChunks(t *testing.T) {
	blocks := []Block{
		{Kind: KindHeading, Level: 1, Text: "Chapter 1", Page: 1},
		{Kind: KindProse, Text: "intro text", Page: 1},
		{Kind: KindProse, Text: "more text", Page: 2},
		{Kind: KindHeading, Level: 1, Text: "Chapter 2", Page: 3},
		{Kind: KindProse, Text: "second chapter", Page: 3},
	}
	chunks := SplitChunks(blocks, 10)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Title != "Chapter 1" || chunks[1].Title != "Chapter 2" {
		t.Fatalf("titles: %q / %q", chunks[0].Title, chunks[1].Title)
	}
	if len(chunks[0].Blocks) != 3 || len(chunks[1].Blocks) != 2 {
		t.Fatalf("sizes: %d / %d", len(chunks[0].Blocks), len(chunks[1].Blocks))
	}
}

func TestSplitChunksPageBudget(t *testing.T) {
	var blocks []Block
	for page := 1; page <= 25; page++ {
		blocks = append(blocks, Block{Kind: KindProse, Text: "page text", Page: page})
	}
	chunks := SplitChunks(blocks, 10)
	if len(chunks) != 3 {
		t.Fatalf("25 pages at 10/chunk: got %d chunks, want 3", len(chunks))
	}
}

func TestMergeContinuedCode(t *testing.T) {
	blocks := []Block{
		{Kind: KindCode, Language: "python", Text: "def load(path):\n    data = open(path,", Page: 3, Quality: 6},
		{Kind: KindCode, Language: "python", Text: "        mode)\n    return data", Page: 4, Quality: 7},
	}
	out := MergeContinuedCode(blocks)
	if len(out) != 1 {
		t.Fatalf("got %d blocks, want 1 merged", len(out))
	}
	if out[0].Quality != 7 {
		t.Fatalf("merged quality = %v, want max 7", out[0].Quality)
	}
}

func TestMergeContinuedCodeRespectsBoundaries(t *testing.T) {
	// A block that closes its construct does not merge.
	closed := []Block{
		{Kind: KindCode, Language: "go", Text: "func a() {\n\treturn\n}", Page: 3},
		{Kind: KindCode, Language: "go", Text: "func b() {\n\treturn\n}", Page: 4},
	}
	if out := MergeContinuedCode(closed); len(out) != 2 {
		t.Fatalf("closed construct merged: got %d blocks", len(out))
	}

	// Different languages never merge.
	mixed := []Block{
		{Kind: KindCode, Language: "python", Text: "x = [1,", Page: 3},
		{Kind: KindCode, Language: "go", Text: "y := 2", Page: 4},
	}
	if out := MergeContinuedCode(mixed); len(out) != 2 {
		t.Fatalf("cross-language merge: got %d blocks", len(out))
	}

	// Blocks without page info never merge.
	noPages := []Block{
		{Kind: KindCode, Language: "python", Text: "x = foo(", Page: 0},
		{Kind: KindCode, Language: "python", Text: "bar)", Page: 0},
	}
	if out := MergeContinuedCode(noPages); len(out) != 2 {
		t.Fatalf("pageless merge: got %d blocks", len(out))
	}
}
