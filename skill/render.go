package skill

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/skillseeker/skillseeker/ingest"
)

// maxExampleChars truncates code samples quoted in SKILL.md. The full text
// still lives in the category reference files.
const maxExampleChars = 300

// Write renders the package to dir: SKILL.md, references/index.md, one
// references/<category>.md per category, and manifest.json. Output is
// deterministic: identical input produces byte-identical files. Re-running
// overwrites in place.
func (p *Package) Write(dir string) error {
	refDir := filepath.Join(dir, "references")
	if err := os.MkdirAll(refDir, 0755); err != nil {
		return fmt.Errorf("create references dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(p.renderSkillMD()), 0644); err != nil {
		return fmt.Errorf("write SKILL.md: %w", err)
	}
	if err := os.WriteFile(filepath.Join(refDir, "index.md"), []byte(p.renderIndex()), 0644); err != nil {
		return fmt.Errorf("write index.md: %w", err)
	}
	for _, c := range p.Categories {
		path := filepath.Join(refDir, c.Key+".md")
		if err := os.WriteFile(path, []byte(renderCategory(c)), 0644); err != nil {
			return fmt.Errorf("write %s: %w", c.Key, err)
		}
	}

	manifest, err := json.MarshalIndent(p.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), append(manifest, '\n'), 0644); err != nil {
		return fmt.Errorf("write manifest.json: %w", err)
	}
	return nil
}

func (p *Package) renderSkillMD() string {
	var sb strings.Builder
	sb.WriteString("# " + p.Name + "\n\n")
	if p.Description != "" {
		sb.WriteString(p.Description + "\n\n")
	}

	sb.WriteString("## Overview\n\n")
	fmt.Fprintf(&sb, "- Categories: %d\n", len(p.Categories))
	fmt.Fprintf(&sb, "- Code examples: %d\n", p.Manifest.CodeBlocks)
	fmt.Fprintf(&sb, "- Tables: %d\n", p.Manifest.Tables)
	if len(p.Manifest.Languages) > 0 {
		fmt.Fprintf(&sb, "- Languages: %s\n", strings.Join(p.Manifest.Languages, ", "))
	}
	sb.WriteString("\n## Reference Files\n\n")
	for _, c := range p.Categories {
		fmt.Fprintf(&sb, "- [%s](references/%s.md)\n", c.Title, c.Key)
	}

	examples := p.TopExamples(5)
	if len(examples) > 0 {
		sb.WriteString("\n## Top Code Examples\n")
		for _, b := range examples {
			text := truncateRunes(b.Text, maxExampleChars)
			sb.WriteString("\n")
			writeFence(&sb, b.Language, text)
		}
	}
	return sb.String()
}

// truncateRunes cuts text to at most max bytes without splitting a rune.
func truncateRunes(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (p *Package) renderIndex() string {
	var sb strings.Builder
	sb.WriteString("# Reference Index\n\n")
	for _, c := range p.Categories {
		var code, tables int
		for _, b := range c.Blocks {
			switch b.Kind {
			case ingest.KindCode:
				code++
			case ingest.KindTable:
				tables++
			}
		}
		fmt.Fprintf(&sb, "- [%s](%s.md) — %d code examples, %d tables\n", c.Title, c.Key, code, tables)
	}
	return sb.String()
}

// renderCategory produces one reference file: the category heading followed
// by its blocks in document order.
func renderCategory(c Category) string {
	var sb strings.Builder
	sb.WriteString("# " + c.Title + "\n")

	for _, b := range c.Blocks {
		sb.WriteString("\n")
		switch b.Kind {
		case ingest.KindHeading:
			level := b.Level
			if level < 2 {
				level = 2 // the category title holds the single H1
			}
			if level > 6 {
				level = 6
			}
			sb.WriteString(strings.Repeat("#", level) + " " + b.Text + "\n")
		case ingest.KindCode:
			writeFence(&sb, b.Language, b.Text)
		case ingest.KindTable:
			writeTable(&sb, b.Rows)
		default:
			sb.WriteString(b.Text + "\n")
		}
	}
	return sb.String()
}

func writeFence(sb *strings.Builder, language, text string) {
	lang := language
	if lang == "unknown" {
		lang = ""
	}
	sb.WriteString("```" + lang + "\n")
	sb.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString("```\n")
}

// writeTable renders a cell grid as a markdown pipe table. The first row is
// the header; a grid with one row gets an empty header.
func writeTable(sb *strings.Builder, rows [][]string) {
	if len(rows) == 0 {
		return
	}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	writeRow := func(row []string) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(row) {
				cell = strings.ReplaceAll(row[i], "|", "\\|")
				cell = strings.ReplaceAll(cell, "\n", " ")
			}
			sb.WriteString(" " + cell + " |")
		}
		sb.WriteByte('\n')
	}

	writeRow(rows[0])
	sb.WriteString("|")
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteByte('\n')
	for _, row := range rows[1:] {
		writeRow(row)
	}
}
