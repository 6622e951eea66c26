package ingest

import (
	"os"
	"strings"
)

// readText extracts records from a plain text file: paragraphs split on blank
// lines. Indented runs survive verbatim so the indentation classifier rule
// can flag them as code.
func readText(path string) (string, []Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	var records []Record
	var para strings.Builder

	flush := func() {
		text := strings.Trim(para.String(), "\n")
		para.Reset()
		if strings.TrimSpace(text) == "" {
			return
		}
		records = append(records, Record{Index: len(records), Text: text})
	}

	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if para.Len() > 0 {
			para.WriteByte('\n')
		}
		para.WriteString(strings.TrimRight(line, " \t"))
	}
	flush()

	var title string
	if len(records) > 0 {
		title = firstLine(records[0].Text)
	}
	return title, records, nil
}

// readMarkdown extracts records from a Markdown file: ATX headings, fenced
// code blocks (with their info-string language hint), pipe tables, and
// paragraphs.
func readMarkdown(path string) (string, []Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	lines := strings.Split(string(data), "\n")
	var (
		records []Record
		title   string
		para    strings.Builder

		inFence    bool
		fenceHint  string
		fenceLines []string

		tableLines []string
	)

	flushParagraph := func() {
		text := strings.TrimSpace(para.String())
		para.Reset()
		if text == "" {
			return
		}
		records = append(records, Record{Index: len(records), Text: text})
	}

	flushTable := func() {
		if len(tableLines) == 0 {
			return
		}
		rows := parsePipeTable(tableLines)
		tableLines = nil
		if len(rows) == 0 {
			return
		}
		records = append(records, Record{
			Index: len(records),
			Text:  flattenRows(rows),
			Rows:  rows,
		})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Fence open/close: ``` or ```lang
		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				records = append(records, Record{
					Index: len(records),
					Text:  strings.Join(fenceLines, "\n"),
					Style: "Code",
					Hint:  fenceHint,
				})
				inFence = false
				fenceLines = nil
				fenceHint = ""
			} else {
				flushParagraph()
				flushTable()
				inFence = true
				fenceHint = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		if inFence {
			fenceLines = append(fenceLines, line)
			continue
		}

		// ATX headings: # heading, ## heading, etc.
		if strings.HasPrefix(trimmed, "#") {
			flushParagraph()
			flushTable()

			level := 0
			for _, ch := range trimmed {
				if ch == '#' {
					level++
				} else {
					break
				}
			}
			if level > 6 {
				level = 6
			}

			text := strings.TrimSpace(strings.TrimRight(strings.TrimLeft(trimmed, "#"), "#"))
			if text != "" {
				if title == "" {
					title = text
				}
				records = append(records, Record{
					Index: len(records),
					Text:  text,
					Style: headingStyleName(level),
				})
			}
			continue
		}

		// Pipe table rows.
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			flushParagraph()
			tableLines = append(tableLines, trimmed)
			continue
		}
		flushTable()

		// Blank line ends a paragraph.
		if trimmed == "" {
			flushParagraph()
			continue
		}

		if para.Len() > 0 {
			para.WriteByte('\n')
		}
		para.WriteString(line)
	}
	if inFence && len(fenceLines) > 0 {
		// Unterminated fence at EOF: keep the content as code anyway.
		records = append(records, Record{
			Index: len(records),
			Text:  strings.Join(fenceLines, "\n"),
			Style: "Code",
			Hint:  fenceHint,
		})
	}
	flushParagraph()
	flushTable()

	if title == "" && len(records) > 0 {
		title = firstLine(records[0].Text)
	}
	return title, records, nil
}

func headingStyleName(level int) string {
	return "Heading " + string(rune('0'+level))
}

// parsePipeTable converts markdown pipe-table lines to a cell grid, skipping
// the separator row.
func parsePipeTable(lines []string) [][]string {
	var rows [][]string
	for _, line := range lines {
		line = strings.Trim(line, "|")
		cells := strings.Split(line, "|")
		row := make([]string, 0, len(cells))
		sep := true
		for _, c := range cells {
			c = strings.TrimSpace(c)
			row = append(row, c)
			if strings.Trim(c, ":- ") != "" {
				sep = false
			}
		}
		if sep {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
