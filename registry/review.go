package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

// Review is the moderation record for one knowledge entry.
type Review struct {
	Status       string `json:"status"` // pending, approved, rejected
	SubmittedAt  string `json:"submitted_at"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
	ReviewerNote string `json:"reviewer_note,omitempty"`
}

// ReviewStats summarizes the moderation queue.
type ReviewStats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// ReviewStore keeps moderation records in one flat JSON file, mirroring the
// catalog's status column. The store is the queue of record; approving or
// rejecting also updates the catalog through the caller.
type ReviewStore struct {
	mu      sync.Mutex
	path    string
	reviews map[string]*Review
}

// OpenReviews loads (or initializes) the review file at path.
func OpenReviews(path string) (*ReviewStore, error) {
	s := &ReviewStore{path: path, reviews: make(map[string]*Review)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: read reviews: %w", err)
	}
	if err := json.Unmarshal(data, &s.reviews); err != nil {
		return nil, fmt.Errorf("registry: parse reviews: %w", err)
	}
	return s, nil
}

func (s *ReviewStore) save() error {
	data, err := json.MarshalIndent(s.reviews, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal reviews: %w", err)
	}
	if err := os.WriteFile(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("registry: write reviews: %w", err)
	}
	return nil
}

// Submit queues id for review with status pending.
func (s *ReviewStore) Submit(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reviews[id] = &Review{
		Status:      "pending",
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return s.save()
}

// PendingEntry pairs an id with its review record.
type PendingEntry struct {
	ID     string `json:"id"`
	Review Review `json:"review"`
}

// Pending returns queued entries oldest first.
func (s *ReviewStore) Pending() []PendingEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []PendingEntry
	for id, r := range s.reviews {
		if r.Status == "pending" {
			out = append(out, PendingEntry{ID: id, Review: *r})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Review.SubmittedAt != out[j].Review.SubmittedAt {
			return out[i].Review.SubmittedAt < out[j].Review.SubmittedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *ReviewStore) resolve(id, status, note string) (*Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reviews[id]
	if r == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.Status = status
	r.ReviewedAt = time.Now().UTC().Format(time.RFC3339)
	r.ReviewerNote = note
	if err := s.save(); err != nil {
		return nil, err
	}
	out := *r
	return &out, nil
}

// Approve marks id approved.
func (s *ReviewStore) Approve(id, note string) (*Review, error) {
	return s.resolve(id, "approved", note)
}

// Reject marks id rejected.
func (s *ReviewStore) Reject(id, note string) (*Review, error) {
	return s.resolve(id, "rejected", note)
}

// Stats counts records per status.
func (s *ReviewStore) Stats() ReviewStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st ReviewStats
	for _, r := range s.reviews {
		switch r.Status {
		case "pending":
			st.Pending++
		case "approved":
			st.Approved++
		case "rejected":
			st.Rejected++
		}
	}
	return st
}
