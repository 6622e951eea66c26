package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/skillseeker/skillseeker/skill"
)

// Server wires the catalog, vote tallies and moderation queue behind the
// HTTP API.
type Server struct {
	store   *Store
	ratings *RatingStore
	reviews *ReviewStore
	cfg     *ServerConfig
	logger  *slog.Logger
}

// NewServer creates a Server. The storage directory is created on first
// upload.
func NewServer(store *Store, ratings *RatingStore, reviews *ReviewStore, cfg *ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, ratings: ratings, reviews: reviews, cfg: cfg, logger: logger}
}

// Router builds the chi router with all API routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})
	r.Get("/api/categories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]any{"categories": Categories})
	})

	r.Route("/api/knowledge", func(r chi.Router) {
		r.Post("/upload", s.handleUpload)
		r.Get("/list", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/download", s.handleDownload)
		r.Get("/{id}/preview", s.handlePreview)
		r.Post("/{id}/upvote", s.handleVote(s.ratings.Upvote))
		r.Post("/{id}/downvote", s.handleVote(s.ratings.Downvote))
		r.Post("/{id}/rate", s.handleRate)
	})

	r.Get("/api/ratings/top", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, s.ratings.Top(queryInt(r, "limit", 10)))
	})

	r.Route("/api/review", func(r chi.Router) {
		r.Get("/pending", s.handlePending)
		r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, 200, s.reviews.Stats())
		})
		r.Post("/{id}/approve", s.handleResolve("approved"))
		r.Post("/{id}/reject", s.handleResolve("rejected"))
	})

	return r
}

// handleUpload accepts a multipart skill zip plus metadata fields, validates
// the archive, dedups by content hash, stores the file under the category
// directory and queues the entry for review.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, 400, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, 400, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, 400, fmt.Errorf("read upload: %w", err))
		return
	}
	if err := skill.ValidateBytes(data); err != nil {
		writeError(w, 400, fmt.Errorf("%w: %w", ErrInvalidUpload, err))
		return
	}

	category := r.FormValue("category")
	if category == "" {
		category = "other"
	}
	if !ValidCategory(category) {
		writeError(w, 400, fmt.Errorf("%w: %q", ErrInvalidCategory, category))
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	sum := sha256.Sum256(data)

	k := &Knowledge{
		Name:        name,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Category:    category,
		Framework:   r.FormValue("framework"),
		Version:     r.FormValue("version"),
		Uploader:    r.FormValue("uploader"),
		SourceURL:   r.FormValue("source_url"),
		FileSize:    int64(len(data)),
		FileHash:    hex.EncodeToString(sum[:]),
	}

	if err := s.store.Create(r.Context(), k); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	dir := filepath.Join(s.cfg.StorageDir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeError(w, 500, fmt.Errorf("storage dir: %w", err))
		return
	}
	path := filepath.Join(dir, k.ID+".zip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		writeError(w, 500, fmt.Errorf("store file: %w", err))
		return
	}
	k.FilePath = path
	if _, err := s.store.db.ExecContext(r.Context(),
		`UPDATE knowledge SET file_path = ? WHERE id = ?`, path, k.ID); err != nil {
		writeError(w, 500, fmt.Errorf("record file path: %w", err))
		return
	}

	if err := s.reviews.Submit(k.ID); err != nil {
		s.logger.Warn("queue review failed", "id", k.ID, "error", err)
	}

	s.logger.Info("knowledge uploaded",
		"id", k.ID, "name", k.Name, "category", category, "size", k.FileSize)
	writeJSON(w, 201, k)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.store.List(r.Context(), Filter{
		Category:  q.Get("category"),
		Framework: q.Get("framework"),
		Status:    q.Get("status"),
		Search:    q.Get("search"),
		Limit:     queryInt(r, "limit", 50),
		Offset:    queryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, 500, err)
		return
	}
	if list == nil {
		list = []*Knowledge{}
	}
	writeJSON(w, 200, map[string]any{"knowledge": list, "count": len(list)})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	k, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, k)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	k, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := s.store.IncrementDownloads(r.Context(), id); err != nil {
		s.logger.Warn("download counter failed", "id", id, "error", err)
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(k.FilePath)))
	http.ServeFile(w, r, k.FilePath)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	k, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	md, err := skill.ReadSkillMD(k.FilePath)
	if err != nil {
		writeError(w, 500, fmt.Errorf("read preview: %w", err))
		return
	}
	writeJSON(w, 200, map[string]string{"id": k.ID, "skill_md": md})
}

func (s *Server) handleVote(vote func(string) (Rating, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := s.store.Get(r.Context(), id); err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		rating, err := vote(id)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, map[string]any{
			"id":        id,
			"upvotes":   rating.Upvotes,
			"downvotes": rating.Downvotes,
			"score":     rating.Score(),
		})
	}
}

// handleRate folds a 1-5 star rating into the catalog aggregates.
func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Stars int `json:"stars"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, 400, fmt.Errorf("parse rating: %w", err))
		return
	}
	if err := s.store.AddRating(r.Context(), id, body.Stars); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, 404, err)
			return
		}
		writeError(w, 400, err)
		return
	}
	k, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, 200, map[string]any{
		"id":           id,
		"rating_avg":   k.RatingAvg,
		"rating_count": k.RatingCount,
	})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending := s.reviews.Pending()
	if pending == nil {
		pending = []PendingEntry{}
	}
	writeJSON(w, 200, map[string]any{"pending": pending, "count": len(pending)})
}

// handleResolve approves or rejects a queued entry, keeping the catalog's
// status column in sync with the review record.
func (s *Server) handleResolve(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var body struct {
			Note string `json:"note"`
		}
		if r.Body != nil {
			json.NewDecoder(r.Body).Decode(&body)
		}
		var rev *Review
		var err error
		if status == "approved" {
			rev, err = s.reviews.Approve(id, body.Note)
		} else {
			rev, err = s.reviews.Reject(id, body.Note)
		}
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		if err := s.store.SetStatus(r.Context(), id, status); err != nil {
			s.logger.Warn("catalog status update failed", "id", id, "error", err)
		}
		writeJSON(w, 200, map[string]any{"id": id, "review": rev})
	}
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrDuplicate):
		return 409
	case errors.Is(err, ErrInvalidUpload), errors.Is(err, ErrInvalidCategory):
		return 400
	default:
		return 500
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
