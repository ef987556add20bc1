package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/enkhjin/sportstream/internal/domain/streamsource"
	"github.com/enkhjin/sportstream/internal/usecase"
)

type StreamSourceRepository struct {
	mu     sync.RWMutex
	items  map[int64]streamsource.StreamSource
	nextID int64
}

func NewStreamSourceRepository() *StreamSourceRepository {
	return &StreamSourceRepository{
		items:  make(map[int64]streamsource.StreamSource),
		nextID: 1,
	}
}

func (r *StreamSourceRepository) ListAll(_ context.Context) ([]streamsource.StreamSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]streamsource.StreamSource, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DiscoveredAt.Equal(out[j].DiscoveredAt) {
			return out[i].DiscoveredAt.Before(out[j].DiscoveredAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *StreamSourceRepository) ListByMatch(_ context.Context, matchID int64) ([]streamsource.StreamSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]streamsource.StreamSource, 0, 4)
	for _, s := range r.items {
		if s.MatchID == matchID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DiscoveredAt.Equal(out[j].DiscoveredAt) {
			return out[i].DiscoveredAt.Before(out[j].DiscoveredAt)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *StreamSourceRepository) CountByMatch(_ context.Context, matchID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, s := range r.items {
		if s.MatchID == matchID {
			count++
		}
	}

	return count, nil
}

func (r *StreamSourceRepository) Insert(_ context.Context, s streamsource.StreamSource) (streamsource.StreamSource, bool, error) {
	if err := s.Validate(); err != nil {
		return streamsource.StreamSource{}, false, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.MatchID == s.MatchID && existing.Link == s.Link {
			return existing, false, nil
		}
	}

	s.ID = r.nextID
	r.nextID++
	if s.DiscoveredAt.IsZero() {
		s.DiscoveredAt = time.Now().UTC()
	}
	r.items[s.ID] = s

	return s, true, nil
}

func (r *StreamSourceRepository) deleteByMatch(matchID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.items {
		if s.MatchID == matchID {
			delete(r.items, id)
		}
	}
}
