package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/skillseeker/skillseeker/ingest"
	"github.com/skillseeker/skillseeker/skill"
)

// extLanguage maps source file extensions to registered language names.
var extLanguage = map[string]string{
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "javascript",
	".tsx":   "javascript",
	".go":    "go",
	".java":  "java",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
	".sh":    "shell",
	".sql":   "sql",
}

// LanguageForFile resolves a source path to a registered language name, or
// ErrUnsupportedLanguage when no patterns exist for its extension.
func LanguageForFile(p string) (string, error) {
	lang, ok := extLanguage[strings.ToLower(path.Ext(p))]
	if !ok {
		return "", fmt.Errorf("%w: extension %q", ingest.ErrUnsupportedLanguage, path.Ext(p))
	}
	return lang, nil
}

// ScrapeOptions configures a repository scrape.
type ScrapeOptions struct {
	Name        string  // skill name; default: repo name
	Description string  // default: repo description
	MinQuality  float64 // quality floor passed to the skill builder
	MaxDocFiles int     // cap on doc files fetched (default 30)
	MaxSrcFiles int     // cap on source files scanned for signatures (default 50)
}

func (o *ScrapeOptions) defaults() {
	if o.MaxDocFiles <= 0 {
		o.MaxDocFiles = 30
	}
	if o.MaxSrcFiles <= 0 {
		o.MaxSrcFiles = 50
	}
}

// DocFile is one documentation file with its classified blocks.
type DocFile struct {
	Path   string         `json:"path"`
	Title  string         `json:"title"`
	Blocks []ingest.Block `json:"blocks"`
}

// Example is a code sample lifted from documentation.
type Example struct {
	Source   string  `json:"source"` // file the snippet came from
	Language string  `json:"language"`
	Quality  float64 `json:"quality"`
	Code     string  `json:"code"`
}

// Result is everything a scrape produced.
type Result struct {
	Repo          *Repo            `json:"repo"`
	Languages     map[string]int64 `json:"languages"`
	Documentation []DocFile        `json:"documentation"`
	Signatures    []FileSignatures `json:"signatures"`
	Examples      []Example        `json:"examples"`
	Package       *skill.Package   `json:"-"`
}

// Scraper turns a GitHub repository into a skill package.
type Scraper struct {
	client *Client
	pipe   *ingest.Pipeline
	logger *slog.Logger
}

// NewScraper creates a Scraper.
func NewScraper(client *Client, pipe *ingest.Pipeline, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{client: client, pipe: pipe, logger: logger}
}

// Scrape fetches a repository's README, documentation and source files, and
// assembles them into a Result with a built skill package. Per-file fetch or
// parse failures are logged and skipped; only repository-level failures
// abort the scrape.
func (s *Scraper) Scrape(ctx context.Context, owner, repo string, opts ScrapeOptions) (*Result, error) {
	opts.defaults()

	meta, err := s.client.GetRepo(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("fetch repo %s/%s: %w", owner, repo, err)
	}

	res := &Result{Repo: meta}

	if langs, err := s.client.GetLanguages(ctx, owner, repo); err == nil {
		res.Languages = langs
	} else {
		s.logger.Warn("fetch languages failed", "repo", meta.FullName, "error", err)
	}

	// README first: it anchors the skill's categories.
	if readme, err := s.client.GetReadme(ctx, owner, repo); err == nil {
		if doc := s.classify(ctx, "README.md", readme); doc != nil {
			res.Documentation = append(res.Documentation, DocFile{
				Path:   "README.md",
				Title:  doc.Title,
				Blocks: doc.Blocks,
			})
		}
	} else {
		s.logger.Warn("fetch readme failed", "repo", meta.FullName, "error", err)
	}

	tree, err := s.client.GetTree(ctx, owner, repo, meta.DefaultBranch)
	if err != nil {
		return nil, fmt.Errorf("fetch tree %s/%s: %w", meta.FullName, meta.DefaultBranch, err)
	}

	docPaths, srcPaths := partitionTree(tree, opts)

	for _, p := range docPaths {
		data, err := s.client.GetFileContent(ctx, owner, repo, p)
		if err != nil {
			s.logger.Warn("fetch doc file failed", "path", p, "error", err)
			continue
		}
		if doc := s.classify(ctx, path.Base(p), data); doc != nil {
			res.Documentation = append(res.Documentation, DocFile{
				Path:   p,
				Title:  doc.Title,
				Blocks: doc.Blocks,
			})
		}
	}

	for _, p := range srcPaths {
		lang, err := LanguageForFile(p)
		if err != nil {
			continue
		}
		data, err := s.client.GetFileContent(ctx, owner, repo, p)
		if err != nil {
			s.logger.Warn("fetch source file failed", "path", p, "error", err)
			continue
		}
		sigs := ExtractSignatures(string(data), lang)
		if len(sigs) > 0 {
			res.Signatures = append(res.Signatures, FileSignatures{
				Path:       p,
				Language:   lang,
				Signatures: sigs,
			})
		}
	}

	res.Examples = collectExamples(res.Documentation)

	name := opts.Name
	if name == "" {
		name = meta.Name
	}
	desc := opts.Description
	if desc == "" {
		desc = meta.Description
	}
	var all []ingest.Block
	for _, d := range res.Documentation {
		all = append(all, d.Blocks...)
	}
	pkg, err := skill.Build(all, skill.Options{
		Name:        name,
		Description: desc,
		MinQuality:  opts.MinQuality,
		Logger:      s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build skill: %w", err)
	}
	res.Package = pkg

	s.logger.Info("scraped repository",
		"repo", meta.FullName,
		"doc_files", len(res.Documentation),
		"signature_files", len(res.Signatures),
		"examples", len(res.Examples))
	return res, nil
}

// classify runs in-memory file content through the ingestion pipeline. The
// readers are path-based, so content lands in a scratch file first.
func (s *Scraper) classify(ctx context.Context, name string, data []byte) *ingest.Document {
	dir, err := os.MkdirTemp("", "skillseeker-scrape-")
	if err != nil {
		s.logger.Warn("scratch dir failed", "error", err)
		return nil
	}
	defer os.RemoveAll(dir)

	p := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(p, data, 0644); err != nil {
		s.logger.Warn("scratch write failed", "file", name, "error", err)
		return nil
	}
	doc, err := s.pipe.Extract(ctx, p)
	if err != nil {
		s.logger.Warn("classify failed", "file", name, "error", err)
		return nil
	}
	return doc
}

// partitionTree selects documentation and source files from a repo tree,
// respecting the per-kind caps. Doc files are markdown/text under the root,
// docs/, or doc/ directories.
func partitionTree(tree []TreeEntry, opts ScrapeOptions) (docPaths, srcPaths []string) {
	for _, e := range tree {
		if e.Type != "blob" {
			continue
		}
		lower := strings.ToLower(e.Path)
		ext := path.Ext(lower)

		switch {
		case lower == "readme.md":
			// Already fetched through the readme endpoint.
		case isDocPath(lower, ext):
			if len(docPaths) < opts.MaxDocFiles {
				docPaths = append(docPaths, e.Path)
			}
		default:
			if _, ok := extLanguage[ext]; ok && len(srcPaths) < opts.MaxSrcFiles {
				srcPaths = append(srcPaths, e.Path)
			}
		}
	}
	return docPaths, srcPaths
}

func isDocPath(lower, ext string) bool {
	if ext != ".md" && ext != ".markdown" && ext != ".txt" {
		return false
	}
	if !strings.Contains(lower, "/") {
		return true // root-level doc
	}
	return strings.HasPrefix(lower, "docs/") || strings.HasPrefix(lower, "doc/")
}

// collectExamples lifts code blocks out of documentation, sorted by quality
// descending. Document order breaks ties.
func collectExamples(docs []DocFile) []Example {
	var out []Example
	for _, d := range docs {
		for _, b := range d.Blocks {
			if b.Kind != ingest.KindCode {
				continue
			}
			out = append(out, Example{
				Source:   d.Path,
				Language: b.Language,
				Quality:  b.Quality,
				Code:     b.Text,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Quality > out[j].Quality })
	return out
}

// WriteOutputs renders the scrape to dir: the skill package plus
// documentation.json, signatures.json and examples.json.
func (r *Result) WriteOutputs(dir string) error {
	if err := r.Package.Write(dir); err != nil {
		return err
	}
	files := map[string]any{
		"documentation.json": r.Documentation,
		"signatures.json":    r.Signatures,
		"examples.json":      r.Examples,
	}
	for name, v := range files {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
