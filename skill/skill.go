// Package skill assembles classified document blocks into a skill package:
// a directory of markdown reference files grouped by category, plus a
// manifest, consumable by an AI assistant as a knowledge bundle.
//
// Blocks are grouped under the most recent level-1 heading seen; content
// before any level-1 heading lands in the "general" category. A quality
// threshold filters weak code blocks; headings, prose and tables always
// survive filtering.
package skill

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/skillseeker/skillseeker/ingest"
)

// minCodeChars is the minimum length for an emitted code block.
const minCodeChars = 10

// Options configures package assembly.
type Options struct {
	Name        string
	Description string
	MinQuality  float64 // code blocks scoring below this are dropped
	Logger      *slog.Logger
}

// Category is one grouping bucket of blocks, in document order.
type Category struct {
	Key    string         `json:"key"`
	Title  string         `json:"title"`
	Blocks []ingest.Block `json:"blocks"`
}

// Manifest summarizes a built package.
type Manifest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CodeBlocks  int      `json:"code_blocks"`
	Tables      int      `json:"tables"`
	Categories  []string `json:"categories"`
	Languages   []string `json:"languages"`
	Filtered    int      `json:"filtered_code_blocks"`
}

// Package is the assembled output, ready to render to disk.
type Package struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Categories  []Category `json:"categories"` // ordered by first appearance
	Manifest    Manifest   `json:"manifest"`
}

var categoryKeyRe = regexp.MustCompile(`[^a-z0-9_]+`)

// CategoryKey derives a category key from heading text: lowercased, spaces
// to underscores, everything else stripped. "Getting Started" becomes
// "getting_started". Empty results fall back to "general".
func CategoryKey(heading string) string {
	key := strings.ToLower(strings.TrimSpace(heading))
	key = strings.ReplaceAll(key, " ", "_")
	key = categoryKeyRe.ReplaceAllString(key, "")
	key = strings.Trim(key, "_")
	if key == "" {
		return "general"
	}
	return key
}

// Build groups blocks into categories and applies the quality filter.
// Every block lands in exactly one category: the one opened by the most
// recent level-1 heading, or "general" before any heading is seen.
func Build(blocks []ingest.Block, opts Options) (*Package, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("skill name is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		order   []string
		byKey   = make(map[string]*Category)
		current = "general"
	)

	ensure := func(key, title string) *Category {
		if c, ok := byKey[key]; ok {
			return c
		}
		c := &Category{Key: key, Title: title}
		byKey[key] = c
		order = append(order, key)
		return c
	}

	filtered := 0
	for _, b := range blocks {
		if b.Kind == ingest.KindHeading && b.Level == 1 {
			current = CategoryKey(b.Text)
			ensure(current, strings.TrimSpace(b.Text))
		}
		if b.Kind == ingest.KindCode {
			if len(b.Text) < minCodeChars {
				filtered++
				continue
			}
			if b.Quality < opts.MinQuality {
				filtered++
				continue
			}
		}
		c := ensure(current, titleForKey(current))
		c.Blocks = append(c.Blocks, b)
	}
	if filtered > 0 {
		logger.Info("filtered low-quality code blocks",
			"skill", opts.Name, "removed", filtered, "min_quality", opts.MinQuality)
	}

	pkg := &Package{
		Name:        opts.Name,
		Description: opts.Description,
	}
	for _, key := range order {
		pkg.Categories = append(pkg.Categories, *byKey[key])
	}
	pkg.Manifest = buildManifest(pkg, filtered)
	return pkg, nil
}

func titleForKey(key string) string {
	if key == "general" {
		return "General"
	}
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func buildManifest(pkg *Package, filtered int) Manifest {
	m := Manifest{
		Name:        pkg.Name,
		Description: pkg.Description,
		Filtered:    filtered,
	}
	langs := make(map[string]bool)
	for _, c := range pkg.Categories {
		m.Categories = append(m.Categories, c.Key)
		for _, b := range c.Blocks {
			switch b.Kind {
			case ingest.KindCode:
				m.CodeBlocks++
				if b.Language != "" && b.Language != "unknown" {
					langs[b.Language] = true
				}
			case ingest.KindTable:
				m.Tables++
			}
		}
	}
	for l := range langs {
		m.Languages = append(m.Languages, l)
	}
	sort.Strings(m.Languages)
	return m
}

// Restrict drops every category whose key is not in keep, then rebuilds the
// manifest. Unknown keys are ignored.
func (p *Package) Restrict(keep []string) {
	allowed := make(map[string]bool, len(keep))
	for _, k := range keep {
		allowed[CategoryKey(k)] = true
	}
	var kept []Category
	for _, c := range p.Categories {
		if allowed[c.Key] {
			kept = append(kept, c)
		}
	}
	p.Categories = kept
	p.Manifest = buildManifest(p, p.Manifest.Filtered)
}

// TopExamples returns up to n code blocks sorted by quality descending.
// Document order breaks quality ties, keeping output deterministic.
func (p *Package) TopExamples(n int) []ingest.Block {
	var code []ingest.Block
	for _, c := range p.Categories {
		for _, b := range c.Blocks {
			if b.Kind == ingest.KindCode {
				code = append(code, b)
			}
		}
	}
	sort.SliceStable(code, func(i, j int) bool {
		return code[i].Quality > code[j].Quality
	})
	if len(code) > n {
		code = code[:n]
	}
	return code
}
