package ingest

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

// readDocx parses a .docx file by scanning word/document.xml from the ZIP
// archive. Paragraphs become records with their style name and run fonts;
// tables become records carrying a structural cell grid.
func readDocx(path string) (string, []Record, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", nil, fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", nil, fmt.Errorf("word/document.xml not found in archive")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)

	var (
		records []Record
		title   string

		inParagraph bool
		paraText    strings.Builder
		paraStyle   string
		paraFonts   []string

		tableDepth int
		tableRows  [][]string
		rowCells   []string
		cellText   strings.Builder
	)

	emitParagraph := func() {
		text := paraText.String()
		if tableDepth > 0 {
			if cellText.Len() > 0 {
				cellText.WriteByte('\n')
			}
			cellText.WriteString(strings.TrimSpace(text))
			return
		}
		if strings.TrimSpace(text) == "" {
			return
		}
		if title == "" && headingLevel(paraStyle) > 0 {
			title = strings.TrimSpace(text)
		}
		records = append(records, Record{
			Index: len(records),
			Text:  strings.TrimRight(text, "\n"),
			Style: paraStyle,
			Fonts: paraFonts,
		})
	}

	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
				if tableDepth == 1 {
					tableRows = nil
				}
			case "tr":
				if tableDepth == 1 {
					rowCells = nil
				}
			case "tc":
				if tableDepth == 1 {
					cellText.Reset()
				}
			case "p":
				inParagraph = true
				paraText.Reset()
				paraStyle = ""
				paraFonts = nil
			case "pStyle":
				if inParagraph {
					for _, attr := range t.Attr {
						if attr.Name.Local == "val" {
							paraStyle = attr.Value
						}
					}
				}
			case "rFonts":
				if inParagraph {
					for _, attr := range t.Attr {
						switch attr.Name.Local {
						case "ascii", "hAnsi", "cs":
							if attr.Value != "" {
								paraFonts = appendFont(paraFonts, attr.Value)
							}
						}
					}
				}
			case "br", "cr":
				if inParagraph {
					paraText.WriteByte('\n')
				}
			case "tab":
				if inParagraph {
					paraText.WriteByte('\t')
				}
			}

		case xml.CharData:
			if inParagraph {
				paraText.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inParagraph {
					inParagraph = false
					emitParagraph()
				}
			case "tc":
				if tableDepth == 1 {
					rowCells = append(rowCells, strings.TrimSpace(cellText.String()))
				}
			case "tr":
				if tableDepth == 1 && len(rowCells) > 0 {
					tableRows = append(tableRows, rowCells)
					rowCells = nil
				}
			case "tbl":
				tableDepth--
				if tableDepth == 0 && len(tableRows) > 0 {
					records = append(records, Record{
						Index: len(records),
						Text:  flattenRows(tableRows),
						Rows:  tableRows,
					})
					tableRows = nil
				}
			}
		}
	}

	return title, records, nil
}

func appendFont(fonts []string, name string) []string {
	for _, f := range fonts {
		if f == name {
			return fonts
		}
	}
	return append(fonts, name)
}

// flattenRows renders a cell grid as tab-separated text, one row per line.
func flattenRows(rows [][]string) string {
	var sb strings.Builder
	for i, row := range rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strings.Join(row, "\t"))
	}
	return sb.String()
}
