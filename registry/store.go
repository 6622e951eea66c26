// Package registry implements the knowledge-sharing API: an SQLite catalog
// of uploaded skill packages with ratings and a moderation queue, served
// over HTTP.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Categories accepted for uploads.
var Categories = []string{
	"web-framework",
	"game-engine",
	"css-framework",
	"cloud-platform",
	"programming-language",
	"database",
	"library",
	"api",
	"other",
}

// ValidCategory reports whether cat is in the accepted list.
func ValidCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

const schema = `
CREATE TABLE IF NOT EXISTS knowledge (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	title        TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL,
	framework    TEXT NOT NULL DEFAULT '',
	version      TEXT NOT NULL DEFAULT '',
	file_path    TEXT NOT NULL,
	file_size    INTEGER NOT NULL DEFAULT 0,
	file_hash    TEXT NOT NULL UNIQUE,
	page_count   INTEGER NOT NULL DEFAULT 0,
	upload_date  TEXT NOT NULL,
	uploader     TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	config_json  TEXT NOT NULL DEFAULT '',
	downloads    INTEGER NOT NULL DEFAULT 0,
	rating_sum   INTEGER NOT NULL DEFAULT 0,
	rating_count INTEGER NOT NULL DEFAULT 0,
	rating_avg   REAL NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'pending',
	tags         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_knowledge_category ON knowledge(category);
CREATE INDEX IF NOT EXISTS idx_knowledge_status ON knowledge(status);
`

// Knowledge is one catalog entry.
type Knowledge struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Framework   string   `json:"framework"`
	Version     string   `json:"version"`
	FilePath    string   `json:"file_path"`
	FileSize    int64    `json:"file_size"`
	FileHash    string   `json:"file_hash"`
	PageCount   int      `json:"page_count"`
	UploadDate  string   `json:"upload_date"`
	Uploader    string   `json:"uploader"`
	SourceURL   string   `json:"source_url"`
	ConfigJSON  string   `json:"config_json,omitempty"`
	Downloads   int      `json:"downloads"`
	RatingSum   int      `json:"rating_sum"`
	RatingCount int      `json:"rating_count"`
	RatingAvg   float64  `json:"rating_avg"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

// Filter narrows ListKnowledge results. Zero values mean no constraint.
type Filter struct {
	Category  string
	Framework string
	Status    string
	Search    string // substring match on name, title, description
	Limit     int    // default 50
	Offset    int
}

// Store is the SQLite-backed knowledge catalog.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path with the
// production pragmas applied, and ensures the schema exists. Parent
// directories are created. The caller must blank-import a driver named
// "sqlite" (modernc.org/sqlite).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("registry: mkdir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("registry: open: %w", err)
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("registry: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: schema: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("registry: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Create inserts a new entry. The ID and UploadDate are assigned here.
// A file_hash collision returns ErrDuplicate.
func (s *Store) Create(ctx context.Context, k *Knowledge) error {
	if !ValidCategory(k.Category) {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, k.Category)
	}
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM knowledge WHERE file_hash = ?`, k.FileHash).Scan(&existing)
	switch {
	case err == nil:
		return fmt.Errorf("%w: already stored as %s", ErrDuplicate, existing)
	case err != sql.ErrNoRows:
		return fmt.Errorf("registry: hash lookup: %w", err)
	}

	k.ID = uuid.NewString()
	k.UploadDate = time.Now().UTC().Format(time.RFC3339)
	if k.Status == "" {
		k.Status = "pending"
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO knowledge (
			id, name, title, description, category, framework, version,
			file_path, file_size, file_hash, page_count, upload_date,
			uploader, source_url, config_json, status, tags
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		k.ID, k.Name, k.Title, k.Description, k.Category, k.Framework, k.Version,
		k.FilePath, k.FileSize, k.FileHash, k.PageCount, k.UploadDate,
		k.Uploader, k.SourceURL, k.ConfigJSON, k.Status, strings.Join(k.Tags, ","))
	if err != nil {
		return fmt.Errorf("registry: insert: %w", err)
	}
	return nil
}

const knowledgeColumns = `id, name, title, description, category, framework, version,
	file_path, file_size, file_hash, page_count, upload_date, uploader,
	source_url, config_json, downloads, rating_sum, rating_count, rating_avg,
	status, tags`

func scanKnowledge(row interface{ Scan(...any) error }) (*Knowledge, error) {
	var k Knowledge
	var tags string
	err := row.Scan(&k.ID, &k.Name, &k.Title, &k.Description, &k.Category,
		&k.Framework, &k.Version, &k.FilePath, &k.FileSize, &k.FileHash,
		&k.PageCount, &k.UploadDate, &k.Uploader, &k.SourceURL, &k.ConfigJSON,
		&k.Downloads, &k.RatingSum, &k.RatingCount, &k.RatingAvg,
		&k.Status, &tags)
	if err != nil {
		return nil, err
	}
	if tags != "" {
		k.Tags = strings.Split(tags, ",")
	}
	return &k, nil
}

// Get returns one entry by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Knowledge, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+knowledgeColumns+` FROM knowledge WHERE id = ?`, id)
	k, err := scanKnowledge(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("registry: get %s: %w", id, err)
	}
	return k, nil
}

// List returns entries matching the filter, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Knowledge, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Framework != "" {
		where = append(where, "framework = ?")
		args = append(args, f.Framework)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		where = append(where, "(name LIKE ? OR title LIKE ? OR description LIKE ?)")
		pat := "%" + f.Search + "%"
		args = append(args, pat, pat, pat)
	}
	q := `SELECT ` + knowledgeColumns + ` FROM knowledge`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY upload_date DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, f.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}
	defer rows.Close()

	var out []*Knowledge
	for rows.Next() {
		k, err := scanKnowledge(rows)
		if err != nil {
			return nil, fmt.Errorf("registry: scan: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// IncrementDownloads bumps the download counter for id.
func (s *Store) IncrementDownloads(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge SET downloads = downloads + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("registry: increment downloads: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// SetStatus updates an entry's moderation status.
func (s *Store) SetStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("registry: set status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// AddRating folds a 1-5 star rating into the aggregate columns.
func (s *Store) AddRating(ctx context.Context, id string, stars int) error {
	if stars < 1 || stars > 5 {
		return fmt.Errorf("registry: rating %d out of range 1-5", stars)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE knowledge SET
			rating_sum = rating_sum + ?,
			rating_count = rating_count + 1,
			rating_avg = CAST(rating_sum + ? AS REAL) / (rating_count + 1)
		WHERE id = ?`, stars, stars, id)
	if err != nil {
		return fmt.Errorf("registry: add rating: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
