package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/enkhjin/sportstream/internal/domain/league"
)

type LeagueRepository struct {
	mu     sync.RWMutex
	items  map[int64]league.League
	nextID int64
}

func NewLeagueRepository() *LeagueRepository {
	return &LeagueRepository{
		items:  make(map[int64]league.League),
		nextID: 1,
	}
}

func (r *LeagueRepository) List(_ context.Context) ([]league.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]league.League, 0, len(r.items))
	for _, l := range r.items {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}

func (r *LeagueRepository) GetByID(_ context.Context, leagueID int64) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[leagueID]
	if !ok {
		return league.League{}, false, nil
	}

	return l, true, nil
}

func (r *LeagueRepository) GetByName(_ context.Context, name string) (league.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, l := range r.items {
		if l.Name == name {
			return l, true, nil
		}
	}

	return league.League{}, false, nil
}

func (r *LeagueRepository) Upsert(_ context.Context, l league.League) (league.League, error) {
	if err := l.Validate(); err != nil {
		return league.League{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.items {
		if existing.Name == l.Name {
			existing.SourceURL = l.SourceURL
			r.items[id] = existing
			return existing, nil
		}
	}

	l.ID = r.nextID
	r.nextID++
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	r.items[l.ID] = l

	return l, nil
}
