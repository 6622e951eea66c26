package ingest

import (
	"regexp"
	"strings"
)

var chapterStartRe = regexp.MustCompile(`(?i)^(chapter|part|section|appendix)\s+([0-9]+|[ivxlc]+)\b`)

// IsChapterStart reports whether a heading block begins a new chapter: a
// level-1 or level-2 heading, or any heading whose text matches a chapter
// numbering convention ("Chapter 3", "Part II", "Appendix A" style).
func IsChapterStart(b Block) bool {
	if b.Kind != KindHeading {
		return false
	}
	if b.Level == 1 || b.Level == 2 {
		return true
	}
	return chapterStartRe.MatchString(strings.TrimSpace(b.Text))
}

// Chunk is a contiguous run of blocks, bounded by chapter starts and a page
// budget.
type Chunk struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// SplitChunks partitions blocks into chunks of at most pagesPerChunk source
// pages, starting a fresh chunk at every chapter boundary. Blocks without
// page information count toward the current chunk without advancing pages.
// pagesPerChunk <= 0 defaults to 10.
func SplitChunks(blocks []Block, pagesPerChunk int) []Chunk {
	if pagesPerChunk <= 0 {
		pagesPerChunk = 10
	}
	if len(blocks) == 0 {
		return nil
	}

	var chunks []Chunk
	var cur Chunk
	pagesSeen := 0
	lastPage := 0

	flush := func() {
		if len(cur.Blocks) > 0 {
			chunks = append(chunks, cur)
		}
		cur = Chunk{}
		pagesSeen = 0
	}

	for _, b := range blocks {
		if b.Page > 0 && b.Page != lastPage {
			lastPage = b.Page
			pagesSeen++
		}

		if IsChapterStart(b) || pagesSeen > pagesPerChunk {
			flush()
			pagesSeen = 0
			if b.Page > 0 {
				pagesSeen = 1
			}
		}

		if cur.Title == "" && b.Kind == KindHeading {
			cur.Title = strings.TrimSpace(b.Text)
		}
		cur.Blocks = append(cur.Blocks, b)
	}
	flush()

	return chunks
}

// endsOpen reports whether a code block likely continues on the next page:
// it ends with an open construct or trailing separator.
func endsOpen(text string) bool {
	trimmed := strings.TrimRight(text, " \t\n")
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, ",") || strings.HasSuffix(trimmed, "\\") ||
		strings.HasSuffix(trimmed, "(") || strings.HasSuffix(trimmed, "{") ||
		strings.HasSuffix(trimmed, "[") || strings.HasSuffix(trimmed, "=") {
		return true
	}
	// A block that closes a construct is finished.
	if strings.HasSuffix(trimmed, "}") || strings.HasSuffix(trimmed, ";") {
		return false
	}
	// Otherwise, open: the block ends mid-statement.
	return true
}

// MergeContinuedCode joins code blocks split across a page break: two
// adjacent code blocks in the same language merge when the first ends
// mid-construct and the second starts on the following page. Blocks without
// page information never merge. Merged block quality keeps the maximum of
// the parts; confidence keeps the first part's value.
func MergeContinuedCode(blocks []Block) []Block {
	if len(blocks) < 2 {
		return blocks
	}

	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			if prev.Kind == KindCode && b.Kind == KindCode &&
				prev.Language == b.Language &&
				consecutivePages(prev.Page, b.Page) &&
				endsOpen(prev.Text) {
				prev.Text = prev.Text + "\n" + b.Text
				if b.Quality > prev.Quality {
					prev.Quality = b.Quality
				}
				prev.Warnings = append(prev.Warnings, b.Warnings...)
				continue
			}
		}
		out = append(out, b)
	}
	return out
}

func consecutivePages(a, b int) bool {
	return a > 0 && b == a+1
}
