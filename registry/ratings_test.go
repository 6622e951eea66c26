package registry

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestRatingStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.json")

	s, err := OpenRatings(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upvote("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Upvote("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Downvote("b"); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenRatings(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reopened.Get("a"); got.Upvotes != 2 || got.Score() != 2 {
		t.Fatalf("a = %+v", got)
	}
	if got := reopened.Get("b"); got.Score() != -1 {
		t.Fatalf("b = %+v", got)
	}

	top := reopened.Top(10)
	if len(top) != 2 || top[0].ID != "a" || top[1].ID != "b" {
		t.Fatalf("top = %+v", top)
	}
}

func TestReviewStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reviews.json")

	s, err := OpenReviews(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"x", "y", "z"} {
		if err := s.Submit(id); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Approve("x", "fine"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Reject("y", "broken archive"); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenReviews(path)
	if err != nil {
		t.Fatal(err)
	}
	pending := reopened.Pending()
	if len(pending) != 1 || pending[0].ID != "z" {
		t.Fatalf("pending = %+v", pending)
	}
	stats := reopened.Stats()
	if stats.Approved != 1 || stats.Rejected != 1 || stats.Pending != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	if _, err := reopened.Approve("missing", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
