// Package ingest extracts classified content blocks from document files.
//
// Supported formats:
//   - .docx  — Microsoft Word (archive/zip → word/document.xml)
//   - .pdf   — PDF text extraction (content-stream parsing, per-span fonts)
//   - .html  — HTML (DOM walk with hidden-element filtering)
//   - .md    — Markdown (headings, fenced code, pipe tables)
//   - .txt   — Plain text (paragraph split, indentation code heuristic)
//
// Extraction is a single forward pass: read records, classify each one as
// heading, code, table or prose, then score code blocks for language and
// quality. No stage retries; a failure aborts the current file only.
//
// Usage:
//
//	pipe := ingest.New(ingest.Config{})
//	doc, err := pipe.Extract(ctx, "/path/to/manual.docx")
//	fmt.Println(doc.Title, len(doc.Blocks), "blocks")
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Config configures the ingestion pipeline.
type Config struct {
	// MaxFileSize is the maximum file size to process (default: 100 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// MinCodeLen is the minimum character length for an emitted code block
	// (default: 10).
	MinCodeLen int `json:"min_code_len" yaml:"min_code_len"`

	// Weights tunes the code quality score. Zero value means defaults.
	Weights ScoreWeights `json:"weights" yaml:"weights"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 100 * 1024 * 1024
	}
	if c.MinCodeLen <= 0 {
		c.MinCodeLen = 10
	}
	c.Weights.defaults()
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Pipeline is the document ingestion engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Detect returns the source format based on file extension.
func Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".docx":
		return FormatDocx, nil
	case ".pdf":
		return FormatPDF, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".md", ".markdown":
		return FormatMD, nil
	case ".txt", ".text":
		return FormatTXT, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", ext)
	}
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{"docx", "pdf", "html", "md", "txt"}
}

// Extract parses a document and returns its classified blocks.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}

	format, err := Detect(path)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracting document", "path", path, "format", format)

	var (
		records []Record
		title   string
		pdfQ    *ExtractionQuality
	)

	switch format {
	case FormatDocx:
		title, records, err = readDocx(path)
	case FormatPDF:
		title, records, pdfQ, err = readPDF(path)
	case FormatHTML:
		title, records, err = readHTML(path)
	case FormatMD:
		title, records, err = readMarkdown(path)
	case FormatTXT:
		title, records, err = readText(path)
	default:
		return nil, fmt.Errorf("no reader for format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s (%s): %w: %w", path, format, ErrUnreadableSource, err)
	}

	if pdfQ != nil {
		if pdfQ.NeedsOCR() {
			p.logger.Warn("low text yield, document may need OCR",
				"path", path,
				"chars_per_page", pdfQ.CharsPerPage,
				"printable_ratio", pdfQ.PrintableRatio)
		}
		if pdfQ.HasVisualGap() {
			p.logger.Warn("text references visuals the extraction cannot carry",
				"path", path, "visual_refs", pdfQ.VisualRefCount)
		}
	}

	blocks := p.classifyAll(records)
	blocks = MergeContinuedCode(blocks)

	return &Document{
		Path:    path,
		Format:  format,
		Title:   title,
		Blocks:  blocks,
		Quality: pdfQ,
	}, nil
}

// classifyAll runs the classifier rules over each record and scores code blocks.
func (p *Pipeline) classifyAll(records []Record) []Block {
	blocks := make([]Block, 0, len(records))
	for _, rec := range records {
		b := Classify(rec, p.cfg.MinCodeLen)

		if b.Kind == KindCode {
			lang, conf := DetectLanguage(b.Text)
			if rec.Hint != "" {
				if err := LookupLanguage(rec.Hint); err == nil {
					lang, conf = normalizeLanguage(rec.Hint), 1.0
				} else {
					p.logger.Debug("unknown language hint, using detection",
						"hint", rec.Hint, "detected", lang)
				}
			}
			b.Language = lang
			b.Confidence = conf
			b.Quality, b.Warnings = ScoreQuality(b.Text, conf, p.cfg.Weights)
		}

		blocks = append(blocks, b)
	}
	return blocks
}
