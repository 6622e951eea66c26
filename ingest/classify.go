package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// monospaceFonts is the allow-list used to flag code runs by font name.
// Matching is case-insensitive on the normalized font name.
var monospaceFonts = map[string]bool{
	"courier":           true,
	"courier new":       true,
	"consolas":          true,
	"monaco":            true,
	"menlo":             true,
	"source code pro":   true,
	"fira code":         true,
	"jetbrains mono":    true,
	"dejavu sans mono":  true,
	"liberation mono":   true,
	"ubuntu mono":       true,
	"inconsolata":       true,
	"lucida console":    true,
	"pt mono":           true,
	"roboto mono":       true,
	"ibm plex mono":     true,
	"cascadia code":     true,
	"cascadia mono":     true,
	"andale mono":       true,
	"bitstream vera sans mono": true,
}

// IsMonospaceFont reports whether a font name is in the monospace allow-list.
func IsMonospaceFont(name string) bool {
	return monospaceFonts[strings.ToLower(strings.TrimSpace(name))]
}

var headingStyleRe = regexp.MustCompile(`(?i)^heading\s*(\d+)?`)

// headingLevel extracts a heading level from a style name like "Heading 3" or
// "heading2". A heading style with no parsable number yields level 1.
// Returns 0 when the style is not a heading style at all.
func headingLevel(style string) int {
	style = strings.TrimSpace(style)
	lower := strings.ToLower(style)
	if lower == "title" {
		return 1
	}
	if lower == "subtitle" {
		return 2
	}
	m := headingStyleRe.FindStringSubmatch(style)
	if m == nil {
		return 0
	}
	if m[1] == "" {
		return 1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 1
	}
	if n > 6 {
		n = 6
	}
	return n
}

// A classifyRule inspects one record and either claims it, returning the
// classified block, or passes. Rules run in fixed order; first hit wins.
// Order is a contract: structural table, then heading style, then code style,
// then monospace font, then indentation, then prose fallback.
type classifyRule func(rec Record, minCodeLen int) (Block, bool)

var classifyRules = []classifyRule{
	tableRule,
	headingStyleRule,
	codeStyleRule,
	monospaceFontRule,
	indentationRule,
}

// Classify decides the kind of a record by evaluating the rule list in order.
// Records claimed by no rule are prose.
func Classify(rec Record, minCodeLen int) Block {
	if minCodeLen <= 0 {
		minCodeLen = 10
	}
	for _, rule := range classifyRules {
		if b, ok := rule(rec, minCodeLen); ok {
			b.Page = rec.Page
			return b
		}
	}
	return Block{Kind: KindProse, Text: rec.Text, Page: rec.Page}
}

// tableRule claims records carrying a structural cell grid.
func tableRule(rec Record, _ int) (Block, bool) {
	if len(rec.Rows) == 0 {
		return Block{}, false
	}
	return Block{Kind: KindTable, Text: rec.Text, Rows: rec.Rows}, true
}

// headingStyleRule claims records whose style name is a heading style.
func headingStyleRule(rec Record, _ int) (Block, bool) {
	level := headingLevel(rec.Style)
	if level == 0 {
		return Block{}, false
	}
	return Block{Kind: KindHeading, Text: strings.TrimSpace(rec.Text), Level: level}, true
}

// codeStyleRule claims records whose style name marks preformatted content.
func codeStyleRule(rec Record, minCodeLen int) (Block, bool) {
	lower := strings.ToLower(rec.Style)
	if lower == "" {
		return Block{}, false
	}
	for _, marker := range []string{"code", "pre", "source"} {
		if strings.Contains(lower, marker) {
			if len(rec.Text) < minCodeLen {
				return Block{Kind: KindProse, Text: rec.Text}, true
			}
			return Block{Kind: KindCode, Text: rec.Text}, true
		}
	}
	return Block{}, false
}

// monospaceFontRule claims records where any contained run uses a font from
// the monospace allow-list.
func monospaceFontRule(rec Record, minCodeLen int) (Block, bool) {
	mono := false
	for _, f := range rec.Fonts {
		if IsMonospaceFont(f) {
			mono = true
			break
		}
	}
	if !mono {
		return Block{}, false
	}
	if len(rec.Text) < minCodeLen {
		return Block{Kind: KindProse, Text: rec.Text}, true
	}
	return Block{Kind: KindCode, Text: rec.Text}, true
}

// indentationRule claims records where two or more consecutive lines share a
// four-space or tab indent. The length bar is doubled here: indentation is
// the weakest signal and short indented fragments are usually quoted prose.
func indentationRule(rec Record, minCodeLen int) (Block, bool) {
	if len(rec.Text) < 2*minCodeLen {
		return Block{}, false
	}
	lines := strings.Split(rec.Text, "\n")
	run := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			run++
			if run >= 2 {
				return Block{Kind: KindCode, Text: rec.Text}, true
			}
		} else {
			run = 0
		}
	}
	return Block{}, false
}
