package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ExtractionQuality captures metrics about PDF text extraction fidelity.
// Scanned PDFs and font-subsetting artifacts show up here, not as errors.
type ExtractionQuality struct {
	PageCount       int     `json:"page_count"`
	CharsPerPage    float64 `json:"chars_per_page"`
	PrintableRatio  float64 `json:"printable_ratio"`
	WordlikeRatio   float64 `json:"wordlike_ratio"`
	HasImageStreams bool    `json:"has_image_streams"`
	VisualRefCount  int     `json:"visual_ref_count"`
}

// NeedsOCR returns true if the PDF likely needs OCR to extract text.
func (q *ExtractionQuality) NeedsOCR() bool {
	return (q.CharsPerPage < 50 && q.HasImageStreams) || q.PrintableRatio < 0.85
}

// HasVisualGap returns true if the text references figures or tables the
// extraction cannot carry over.
func (q *ExtractionQuality) HasVisualGap() bool {
	return q.VisualRefCount > 0 && q.HasImageStreams
}

// readPDF extracts records from a PDF. Each page yields one or more records:
// runs of monospace-font spans are split into their own records so the
// classifier can flag them as code; the rest of the page text becomes a page
// record. Also returns extraction quality metrics.
func readPDF(path string) (string, []Record, *ExtractionQuality, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, nil, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return "", nil, nil, fmt.Errorf("pdfcpu read: %w", err)
	}

	fontMap := buildFontMap(ctx)
	hasImages := detectImageStreams(ctx)

	var (
		records    []Record
		title      string
		allText    strings.Builder
		totalChars int
	)

	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		spans := extractPageSpans(ctx, pageNr)
		if len(spans) == 0 {
			continue
		}

		for _, seg := range groupSpans(spans, fontMap) {
			text := cleanPDFText(seg.text)
			if text == "" {
				continue
			}
			totalChars += len([]rune(text))

			if title == "" {
				title = firstLine(text)
			}

			records = append(records, Record{
				Index: len(records),
				Text:  text,
				Fonts: seg.fonts,
				Page:  pageNr,
			})

			if allText.Len() > 0 {
				allText.WriteByte('\n')
			}
			allText.WriteString(text)
		}
	}

	if len(records) == 0 {
		return "", nil, nil, fmt.Errorf("no text content found in PDF")
	}

	fullText := allText.String()
	var charsPerPage float64
	if ctx.PageCount > 0 {
		charsPerPage = float64(totalChars) / float64(ctx.PageCount)
	}

	quality := &ExtractionQuality{
		PageCount:       ctx.PageCount,
		CharsPerPage:    charsPerPage,
		PrintableRatio:  computePrintableRatio(fullText),
		WordlikeRatio:   computeWordlikeRatio(fullText),
		HasImageStreams: hasImages,
		VisualRefCount:  countVisualRefs(fullText),
	}

	return title, records, quality, nil
}

// pdfSpan is one run of shown text with the font resource active when it was
// drawn.
type pdfSpan struct {
	text string
	font string // resource name from the Tf operator, e.g. "F1"
}

// segment is a run of consecutive spans sharing the monospace/proportional
// distinction.
type segment struct {
	text  string
	fonts []string
	mono  bool
}

// groupSpans partitions a page's spans into maximal runs of monospace vs
// proportional text, so code set in a monospace face becomes its own record.
func groupSpans(spans []pdfSpan, fontMap map[string]string) []segment {
	var segs []segment
	var cur *segment

	for _, sp := range spans {
		base := fontMap[sp.font]
		mono := isMonospaceBaseFont(base)

		if cur == nil || cur.mono != mono {
			segs = append(segs, segment{mono: mono})
			cur = &segs[len(segs)-1]
		}
		cur.text += sp.text
		if base != "" {
			cur.fonts = appendFont(cur.fonts, base)
		}
	}
	return segs
}

// isMonospaceBaseFont matches a PDF BaseFont name (possibly subset-prefixed,
// e.g. "ABCDEF+CourierNew-Bold") against the monospace allow-list.
func isMonospaceBaseFont(base string) bool {
	if base == "" {
		return false
	}
	if i := strings.IndexByte(base, '+'); i >= 0 && i == 6 {
		base = base[i+1:]
	}
	lower := strings.ToLower(base)
	for _, marker := range []string{"mono", "courier", "consolas", "menlo", "monaco", "inconsolata", "cascadia"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// buildFontMap scans the xref table for font resource dictionaries and
// returns a mapping from resource name (Tf operand) to BaseFont name.
// Resource names collide across pages in pathological documents; last writer
// wins, which is acceptable for a monospace heuristic.
func buildFontMap(ctx *model.Context) map[string]string {
	baseByObj := make(map[int]string)
	for objNr, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		d, ok := entry.Object.(types.Dict)
		if !ok {
			continue
		}
		if typ, found := d.Find("Type"); found {
			if name, isName := typ.(types.Name); isName && name == "Font" {
				if bf, found := d.Find("BaseFont"); found {
					if bfName, isName := bf.(types.Name); isName {
						baseByObj[objNr] = string(bfName)
					}
				}
			}
		}
	}

	fontMap := make(map[string]string)
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		d, ok := entry.Object.(types.Dict)
		if !ok {
			continue
		}
		fontsObj, found := d.Find("Font")
		if !found {
			continue
		}
		fonts, ok := fontsObj.(types.Dict)
		if !ok {
			continue
		}
		for resName, ref := range fonts {
			ir, ok := ref.(types.IndirectRef)
			if !ok {
				continue
			}
			if base, ok := baseByObj[ir.ObjectNumber.Value()]; ok {
				fontMap[resName] = base
			}
		}
	}
	return fontMap
}

// detectImageStreams checks if the PDF contains image XObjects.
func detectImageStreams(ctx *model.Context) bool {
	if ctx.Optimize != nil {
		for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
			if len(pdfcpu.ImageObjNrs(ctx, pageNr)) > 0 {
				return true
			}
		}
	}
	// Fallback: scan the xref table for image subtype stream objects.
	for _, entry := range ctx.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if subtype, found := sd.Find("Subtype"); found {
			if name, isName := subtype.(types.Name); isName && name == "Image" {
				return true
			}
		}
	}
	return false
}

// extractPageSpans parses a page content stream, tracking the active font
// through Tf operators and collecting shown-text spans.
func extractPageSpans(ctx *model.Context, pageNr int) []pdfSpan {
	r, err := pdfcpu.ExtractPageContent(ctx, pageNr)
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return nil
	}
	return parseContentStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// tfOperatorRe matches font selection: /F1 12 Tf
var tfOperatorRe = regexp.MustCompile(`/([\w.-]+)\s+[\d.]+\s+Tf`)

// parseContentStream scans content stream operators for text and font state.
func parseContentStream(data []byte) []pdfSpan {
	var spans []pdfSpan
	currentFont := ""

	emit := func(text string) {
		if text == "" {
			return
		}
		spans = append(spans, pdfSpan{text: text, font: currentFont})
	}

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// Font selection: /F1 12 Tf (may share a line with other operators).
		if m := tfOperatorRe.FindSubmatch(line); m != nil {
			currentFont = string(m[1])
		}

		// Tj operator: (text) Tj — and TJ arrays: [(text) -100 (more)] TJ
		if bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				emit(decodePDFString(m[1]))
			}
		}

		// ' operator (move to next line and show text): (text) '
		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				emit("\n" + decodePDFString(m[1]))
			}
		}

		// Td/TD positioning: treat as a word break.
		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if len(spans) > 0 {
				emit(" ")
			}
		}

		// T* moves to the start of the next line.
		if bytes.Equal(line, []byte("T*")) {
			emit("\n")
		}
	}
	return spans
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

// cleanPDFText normalises whitespace in extracted PDF text, preserving line
// structure so the indentation heuristic still sees code shape.
func cleanPDFText(text string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			sb.WriteByte('\n')
			prevSpace = false
		case unicode.IsSpace(r):
			if !prevSpace && sb.Len() > 0 {
				sb.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			prevSpace = false
		}
	}
	return strings.TrimSpace(sb.String())
}

// computePrintableRatio returns the ratio of printable characters in text.
// Excludes PUA U+E000-U+F8FF, control chars < U+0020 (except \n\r\t), U+FFFD.
func computePrintableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	// Private Use Area
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	// Replacement character
	if r == 0xFFFD {
		return true
	}
	// Control chars except whitespace
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// computeWordlikeRatio returns the ratio of word-like tokens (length 2-15)
// to total tokens.
func computeWordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}

var visualRefPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(see|refer\s+to)\s+(figure|fig\.?|table|diagram|chart|illustration)\s*\d`),
	regexp.MustCompile(`(?i)(figure|fig\.?|table|listing)\s+\d+`),
}

// countVisualRefs counts references to figures, tables, and diagrams in text.
func countVisualRefs(text string) int {
	count := 0
	for _, pat := range visualRefPatterns {
		count += len(pat.FindAllString(text, -1))
	}
	return count
}
