package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Rating holds the vote tallies for one knowledge entry.
type Rating struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// Score is upvotes minus downvotes.
func (r Rating) Score() int { return r.Upvotes - r.Downvotes }

// RatingStore keeps per-entry vote tallies in one flat JSON file. HTTP
// handlers run concurrently, so all access goes through the mutex.
type RatingStore struct {
	mu      sync.Mutex
	path    string
	ratings map[string]*Rating
}

// OpenRatings loads (or initializes) the ratings file at path.
func OpenRatings(path string) (*RatingStore, error) {
	s := &RatingStore{path: path, ratings: make(map[string]*Rating)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read ratings: %w", err)
	}
	if err := json.Unmarshal(data, &s.ratings); err != nil {
		return nil, fmt.Errorf("registry: parse ratings: %w", err)
	}
	return s, nil
}

func (s *RatingStore) save() error {
	data, err := json.MarshalIndent(s.ratings, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal ratings: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("registry: write ratings: %w", err)
	}
	return nil
}

// Upvote records an upvote for id and returns the new tally.
func (s *RatingStore) Upvote(id string) (Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.ratings[id]
	if r == nil {
		r = &Rating{}
		s.ratings[id] = r
	}
	r.Upvotes++
	return *r, s.save()
}

// Downvote records a downvote for id and returns the new tally.
func (s *RatingStore) Downvote(id string) (Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.ratings[id]
	if r == nil {
		r = &Rating{}
		s.ratings[id] = r
	}
	r.Downvotes++
	return *r, s.save()
}

// Get returns the tally for id (zero value when unrated).
func (s *RatingStore) Get(id string) Rating {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.ratings[id]; r != nil {
		return *r
	}
	return Rating{}
}

// RankedRating is one entry in the leaderboard.
type RankedRating struct {
	ID        string `json:"id"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	Score     int    `json:"score"`
}

// Top returns up to n entries ordered by score descending.
func (s *RatingStore) Top(n int) []RankedRating {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RankedRating, 0, len(s.ratings))
	for id, r := range s.ratings {
		out = append(out, RankedRating{
			ID: id, Upvotes: r.Upvotes, Downvotes: r.Downvotes, Score: r.Score(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
