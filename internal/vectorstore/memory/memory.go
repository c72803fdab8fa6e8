// Package memory provides a brute-force in-memory vector store. It backs
// the test suite and works as a throwaway local backend; nothing survives
// the process.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"pdfqa/internal/domain"
)

// Store holds records and answers nearest-neighbor queries by cosine
// similarity. Ties are broken by insertion order so a fixed store state
// always ranks results the same way.
type Store struct {
	mu        sync.RWMutex
	dimension int
	records   []domain.StoredRecord
}

func NewStore() *Store { return &Store{} }

func (s *Store) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return &domain.StoreError{Op: "init", Err: errors.New("invalid dimension")}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return &domain.StoreError{
			Op:  "init",
			Err: fmt.Errorf("store holds %d-dimensional vectors, got %d", s.dimension, dimension),
		}
	}
	s.dimension = dimension
	return nil
}

func (s *Store) Insert(ctx context.Context, records []domain.StoredRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return &domain.StoreError{Op: "insert", Err: errors.New("store not initialized")}
	}
	for _, r := range records {
		if len(r.Embedding) != s.dimension {
			return &domain.StoreError{
				Op:  "insert",
				Err: fmt.Errorf("vector dimension %d does not match store dimension %d", len(r.Embedding), s.dimension),
			}
		}
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *Store) Nearest(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(vector) != s.dimension {
		return nil, &domain.StoreError{
			Op:  "nearest",
			Err: fmt.Errorf("query dimension %d does not match store dimension %d", len(vector), s.dimension),
		}
	}
	if k <= 0 {
		k = 10
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(s.records))
	for i, r := range s.records {
		scores[i] = scored{i, cosine(r.Embedding, vector)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	if k > len(scores) {
		k = len(scores)
	}
	results := make([]domain.SearchResult, 0, k)
	for i := 0; i < k; i++ {
		r := s.records[scores[i].idx]
		results = append(results, domain.SearchResult{
			Text:     r.Text,
			Metadata: r.Metadata,
			Score:    scores[i].score,
		})
	}
	return results, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	return nil
}

func (s *Store) Close() {}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
