package registry

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	dir := t.TempDir()
	store := openMemory(t)
	ratings, err := OpenRatings(filepath.Join(dir, "ratings.json"))
	if err != nil {
		t.Fatal(err)
	}
	reviews, err := OpenReviews(filepath.Join(dir, "reviews.json"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultServerConfig()
	cfg.StorageDir = filepath.Join(dir, "knowledge")
	srv := NewServer(store, ratings, reviews, cfg, nil)
	return srv, srv.Router()
}

// skillZip builds a minimal valid skill archive.
func skillZip(t *testing.T, skillMD string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"SKILL.md":            skillMD,
		"references/index.md": "# Reference Index\n",
		"references/usage.md": "# Usage\n",
	} {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "skill.zip")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	req := httptest.NewRequest("POST", "/api/knowledge/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doJSON(t *testing.T, h http.Handler, req *http.Request, wantCode int, out any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != wantCode {
		t.Fatalf("%s %s: status %d, want %d: %s",
			req.Method, req.URL.Path, rec.Code, wantCode, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode response: %v: %s", err, rec.Body.String())
		}
	}
}

func TestHealthAndCategories(t *testing.T) {
	_, h := newTestServer(t)

	var health map[string]string
	doJSON(t, h, httptest.NewRequest("GET", "/api/health", nil), 200, &health)
	if health["status"] != "ok" {
		t.Fatalf("health = %v", health)
	}

	var cats struct {
		Categories []string `json:"categories"`
	}
	doJSON(t, h, httptest.NewRequest("GET", "/api/categories", nil), 200, &cats)
	if len(cats.Categories) != len(Categories) {
		t.Fatalf("categories = %v", cats.Categories)
	}
}

func TestUploadListDownloadPreview(t *testing.T) {
	_, h := newTestServer(t)
	data := skillZip(t, "# Flask Skill\n\nA web framework skill.\n")

	var created Knowledge
	doJSON(t, h, uploadRequest(t, data, map[string]string{
		"name":        "flask-docs",
		"title":       "Flask Documentation",
		"category":    "web-framework",
		"framework":   "flask",
		"description": "web framework reference",
	}), 201, &created)
	if created.ID == "" || created.Status != "pending" {
		t.Fatalf("created = %+v", created)
	}

	var list struct {
		Knowledge []*Knowledge `json:"knowledge"`
		Count     int          `json:"count"`
	}
	doJSON(t, h, httptest.NewRequest("GET", "/api/knowledge/list?category=web-framework", nil), 200, &list)
	if list.Count != 1 || list.Knowledge[0].Name != "flask-docs" {
		t.Fatalf("list = %+v", list)
	}

	var got Knowledge
	doJSON(t, h, httptest.NewRequest("GET", "/api/knowledge/"+created.ID, nil), 200, &got)
	if got.FileSize != int64(len(data)) {
		t.Fatalf("file_size = %d, want %d", got.FileSize, len(data))
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/knowledge/"+created.ID+"/download", nil))
	if rec.Code != 200 {
		t.Fatalf("download status %d: %s", rec.Code, rec.Body.String())
	}
	body, _ := io.ReadAll(rec.Body)
	if !bytes.Equal(body, data) {
		t.Fatal("downloaded bytes differ from upload")
	}

	doJSON(t, h, httptest.NewRequest("GET", "/api/knowledge/"+created.ID, nil), 200, &got)
	if got.Downloads != 1 {
		t.Fatalf("downloads = %d, want 1", got.Downloads)
	}

	var preview map[string]string
	doJSON(t, h, httptest.NewRequest("GET", "/api/knowledge/"+created.ID+"/preview", nil), 200, &preview)
	if !strings.Contains(preview["skill_md"], "# Flask Skill") {
		t.Fatalf("preview = %v", preview)
	}
}

func TestUploadDuplicateConflicts(t *testing.T) {
	_, h := newTestServer(t)
	data := skillZip(t, "# Dup\n")
	fields := map[string]string{"name": "dup", "category": "other"}

	doJSON(t, h, uploadRequest(t, data, fields), 201, nil)
	doJSON(t, h, uploadRequest(t, data, fields), 409, nil)
}

func TestUploadRejectsInvalidArchive(t *testing.T) {
	_, h := newTestServer(t)
	doJSON(t, h, uploadRequest(t, []byte("not a zip"), map[string]string{"category": "other"}), 400, nil)

	// A real zip missing SKILL.md is also rejected.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create("notes.txt")
	f.Write([]byte("hi"))
	zw.Close()
	doJSON(t, h, uploadRequest(t, buf.Bytes(), map[string]string{"category": "other"}), 400, nil)
}

func TestUploadRejectsUnknownCategory(t *testing.T) {
	_, h := newTestServer(t)
	data := skillZip(t, "# X\n")
	doJSON(t, h, uploadRequest(t, data, map[string]string{"category": "everything"}), 400, nil)
}

func TestVotesAndLeaderboard(t *testing.T) {
	_, h := newTestServer(t)
	var created Knowledge
	doJSON(t, h, uploadRequest(t, skillZip(t, "# V\n"), map[string]string{
		"name": "votable", "category": "library",
	}), 201, &created)

	var vote struct {
		Score int `json:"score"`
	}
	doJSON(t, h, httptest.NewRequest("POST", "/api/knowledge/"+created.ID+"/upvote", nil), 200, &vote)
	doJSON(t, h, httptest.NewRequest("POST", "/api/knowledge/"+created.ID+"/upvote", nil), 200, &vote)
	doJSON(t, h, httptest.NewRequest("POST", "/api/knowledge/"+created.ID+"/downvote", nil), 200, &vote)
	if vote.Score != 1 {
		t.Fatalf("score = %d, want 1", vote.Score)
	}

	var top []RankedRating
	doJSON(t, h, httptest.NewRequest("GET", "/api/ratings/top?limit=5", nil), 200, &top)
	if len(top) != 1 || top[0].ID != created.ID || top[0].Score != 1 {
		t.Fatalf("top = %+v", top)
	}

	doJSON(t, h, httptest.NewRequest("POST", "/api/knowledge/missing/upvote", nil), 404, nil)
}

func TestReviewFlow(t *testing.T) {
	_, h := newTestServer(t)
	var created Knowledge
	doJSON(t, h, uploadRequest(t, skillZip(t, "# R\n"), map[string]string{
		"name": "reviewable", "category": "api",
	}), 201, &created)

	var pending struct {
		Pending []PendingEntry `json:"pending"`
		Count   int            `json:"count"`
	}
	doJSON(t, h, httptest.NewRequest("GET", "/api/review/pending", nil), 200, &pending)
	if pending.Count != 1 || pending.Pending[0].ID != created.ID {
		t.Fatalf("pending = %+v", pending)
	}

	req := httptest.NewRequest("POST", "/api/review/"+created.ID+"/approve",
		strings.NewReader(`{"note":"looks good"}`))
	doJSON(t, h, req, 200, nil)

	doJSON(t, h, httptest.NewRequest("GET", "/api/review/pending", nil), 200, &pending)
	if pending.Count != 0 {
		t.Fatalf("still pending after approve: %+v", pending)
	}

	var stats ReviewStats
	doJSON(t, h, httptest.NewRequest("GET", "/api/review/stats", nil), 200, &stats)
	if stats.Approved != 1 || stats.Pending != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	var got Knowledge
	doJSON(t, h, httptest.NewRequest("GET", "/api/knowledge/"+created.ID, nil), 200, &got)
	if got.Status != "approved" {
		t.Fatalf("catalog status = %q, want approved", got.Status)
	}
}

func TestStarRatings(t *testing.T) {
	_, h := newTestServer(t)
	var created Knowledge
	doJSON(t, h, uploadRequest(t, skillZip(t, "# S\n"), map[string]string{
		"name": "ratable", "category": "library",
	}), 201, &created)

	var resp struct {
		RatingAvg   float64 `json:"rating_avg"`
		RatingCount int     `json:"rating_count"`
	}
	rate := func(stars string, wantCode int) {
		t.Helper()
		req := httptest.NewRequest("POST", "/api/knowledge/"+created.ID+"/rate",
			strings.NewReader(`{"stars":`+stars+`}`))
		if wantCode == 200 {
			doJSON(t, h, req, 200, &resp)
		} else {
			doJSON(t, h, req, wantCode, nil)
		}
	}
	rate("5", 200)
	rate("4", 200)
	if resp.RatingCount != 2 || resp.RatingAvg < 4.49 || resp.RatingAvg > 4.51 {
		t.Fatalf("aggregates = %+v, want count 2 avg 4.5", resp)
	}

	rate("9", 400)
	rate("0", 400)

	req := httptest.NewRequest("POST", "/api/knowledge/missing/rate",
		strings.NewReader(`{"stars":3}`))
	doJSON(t, h, req, 404, nil)
}
