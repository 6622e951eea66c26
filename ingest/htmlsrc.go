package ingest

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var hiddenStylePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)display\s*:\s*none`),
	regexp.MustCompile(`(?i)visibility\s*:\s*hidden`),
	regexp.MustCompile(`(?i)font-size\s*:\s*0[^1-9]`),
	regexp.MustCompile(`(?i)opacity\s*:\s*0[^.]`),
	regexp.MustCompile(`(?i)position\s*:\s*absolute[^;]*-\d{4,}`),
}

func hasHiddenStyle(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "style" {
			for _, pat := range hiddenStylePatterns {
				if pat.MatchString(a.Val) {
					return true
				}
			}
		}
	}
	return false
}

// htmlReader walks a parsed DOM and produces records. Prose fragments are
// rendered through the markdown converter so links and emphasis survive.
type htmlReader struct {
	conv    *converter.Converter
	records []Record
}

// readHTML extracts records from an HTML file.
func readHTML(path string) (string, []Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", nil, err
	}

	title := findHTMLTitle(doc)

	r := &htmlReader{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
	r.walk(doc)

	if len(r.records) == 0 {
		// Fallback: extract all visible text.
		if text := collectHTMLText(doc); text != "" {
			r.records = append(r.records, Record{Text: text})
		}
	}
	if title == "" {
		for _, rec := range r.records {
			if headingLevel(rec.Style) > 0 {
				title = rec.Text
				break
			}
		}
	}

	return title, r.records, nil
}

func (r *htmlReader) add(rec Record) {
	rec.Index = len(r.records)
	r.records = append(r.records, rec)
}

// walk visits the DOM tree, emitting a record per content-bearing element.
func (r *htmlReader) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		// Skip boilerplate.
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Footer, atom.Header:
			return
		}
		if hasHiddenStyle(n) {
			return
		}

		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			if text := collectHTMLText(n); text != "" {
				level := int(n.Data[1] - '0')
				r.add(Record{Text: text, Style: fmt.Sprintf("Heading %d", level)})
			}
			return

		case atom.Pre:
			if text := collectPreText(n); text != "" {
				r.add(Record{Text: text, Style: "Code", Hint: codeLanguageHint(n)})
			}
			return

		case atom.Table:
			if rows := collectTableRows(n); len(rows) > 0 {
				r.add(Record{Text: flattenRows(rows), Rows: rows})
			}
			return

		case atom.P, atom.Ul, atom.Ol, atom.Blockquote:
			if text := r.renderMarkdown(n); text != "" {
				r.add(Record{Text: text})
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

// renderMarkdown converts an element subtree to markdown text, falling back
// to plain text collection when conversion fails.
func (r *htmlReader) renderMarkdown(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return collectHTMLText(n)
	}
	md, err := r.conv.ConvertString(buf.String())
	if err != nil {
		return collectHTMLText(n)
	}
	return strings.TrimSpace(md)
}

// findHTMLTitle extracts the <title> text.
func findHTMLTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findHTMLTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// codeLanguageHint pulls a language hint from class attributes like
// "language-python" or "highlight-go" on a <pre> block or its <code> child.
func codeLanguageHint(n *html.Node) string {
	check := func(node *html.Node) string {
		for _, a := range node.Attr {
			if a.Key != "class" {
				continue
			}
			for _, cls := range strings.Fields(a.Val) {
				for _, prefix := range []string{"language-", "lang-", "highlight-"} {
					if strings.HasPrefix(cls, prefix) {
						return cls[len(prefix):]
					}
				}
			}
		}
		return ""
	}
	if h := check(n); h != "" {
		return h
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Code {
			if h := check(c); h != "" {
				return h
			}
		}
	}
	return ""
}

// collectPreText extracts text from a <pre> subtree preserving line breaks.
func collectPreText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Trim(sb.String(), "\n")
}

// collectTableRows extracts a structural cell grid from a <table> subtree.
func collectTableRows(n *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Tr {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
					cells = append(cells, collectHTMLText(c))
				}
			}
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return rows
}

// collectHTMLText extracts all visible text from a node subtree.
func collectHTMLText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
			if hasHiddenStyle(n) {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
