package ingest

// Format identifies a source document type.
type Format string

const (
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
	FormatMD   Format = "md"
	FormatTXT  Format = "txt"
)

// Record is one paragraph or page unit as read from a source, before
// classification. Immutable once produced by a reader.
type Record struct {
	Index int        `json:"index"`
	Text  string     `json:"text"`
	Style string     `json:"style,omitempty"` // paragraph style name (docx, synthetic for md/html)
	Fonts []string   `json:"fonts,omitempty"` // run fonts seen inside the record
	Rows  [][]string `json:"rows,omitempty"`  // cell grid when the record is a structural table
	Page  int        `json:"page,omitempty"`  // source page number (pdf), 0 otherwise
	Hint  string     `json:"hint,omitempty"`  // language hint from the source (md fence info)
}

// Kind is the classified role of a block.
type Kind string

const (
	KindHeading Kind = "heading"
	KindCode    Kind = "code"
	KindTable   Kind = "table"
	KindProse   Kind = "prose"
)

// Block is a classified record. The classifier fills Kind, Level and Rows;
// the scorer fills Language, Confidence, Quality and Warnings for code blocks.
type Block struct {
	Kind       Kind       `json:"kind"`
	Text       string     `json:"text"`
	Level      int        `json:"level,omitempty"`      // heading level 1-6
	Language   string     `json:"language,omitempty"`   // detected language for code
	Confidence float64    `json:"confidence,omitempty"` // 0-1 language match strength
	Quality    float64    `json:"quality,omitempty"`    // 0-10 heuristic code quality
	Rows       [][]string `json:"rows,omitempty"`       // table cell grid
	Page       int        `json:"page,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"` // syntax validation findings
}

// Document is the result of extracting and classifying one source file.
type Document struct {
	Path    string             `json:"path"`
	Format  Format             `json:"format"`
	Title   string             `json:"title"`
	Blocks  []Block            `json:"blocks"`
	Quality *ExtractionQuality `json:"extraction_quality,omitempty"` // PDF only
}

// Headings returns the blocks classified as headings, in document order.
func (d *Document) Headings() []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.Kind == KindHeading {
			out = append(out, b)
		}
	}
	return out
}

// CodeBlocks returns the blocks classified as code, in document order.
func (d *Document) CodeBlocks() []Block {
	var out []Block
	for _, b := range d.Blocks {
		if b.Kind == KindCode {
			out = append(out, b)
		}
	}
	return out
}
