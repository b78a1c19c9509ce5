package memory

import (
	"context"
	"sync"

	"github.com/mcoot/warduel/internal/model"
	"github.com/mcoot/warduel/internal/storage"
)

// DefaultCapacity is the number of summaries retained when none is given
const DefaultCapacity = 500

// Storage is an in-memory implementation of the storage interface.
// It keeps the most recent summaries in a bounded ring.
type Storage struct {
	mu sync.RWMutex

	capacity  int
	summaries []*model.DuelSummary
	next      int
	total     int
}

// New creates a new in-memory storage instance
func New(capacity int) *Storage {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Storage{
		capacity:  capacity,
		summaries: make([]*model.DuelSummary, 0, capacity),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveSummary(ctx context.Context, summary *model.DuelSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := copySummary(summary)
	if len(s.summaries) < s.capacity {
		s.summaries = append(s.summaries, stored)
	} else {
		s.summaries[s.next] = stored
	}
	s.next = (s.next + 1) % s.capacity
	s.total++
	return nil
}

func (s *Storage) ListSummaries(ctx context.Context, limit int) ([]*model.DuelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.summaries)
	if limit <= 0 || limit > n {
		limit = n
	}
	result := make([]*model.DuelSummary, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (s.next - i + s.capacity) % s.capacity
		if idx >= n {
			break
		}
		result = append(result, copySummary(s.summaries[idx]))
	}
	return result, nil
}

func (s *Storage) GetSummariesForSession(ctx context.Context, id model.SessionID) ([]*model.DuelSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*model.DuelSummary
	n := len(s.summaries)
	for i := n; i >= 1; i-- {
		idx := (s.next - i + s.capacity) % s.capacity
		if idx >= n {
			continue
		}
		if s.summaries[idx].SessionID == id {
			result = append(result, copySummary(s.summaries[idx]))
		}
	}
	if len(result) == 0 {
		return nil, model.ErrSummaryNotFound
	}
	return result, nil
}

func (s *Storage) CountSummaries(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

func copySummary(summary *model.DuelSummary) *model.DuelSummary {
	c := *summary
	c.Players = append([]model.PlayerResult(nil), summary.Players...)
	return &c
}
