package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/usecase"
)

// MatchRepository mirrors the postgres semantics, including the crawl
// check-and-set and the cascade delete into the stream-source repository.
type MatchRepository struct {
	mu      sync.RWMutex
	items   map[int64]match.Match
	nextID  int64
	sources *StreamSourceRepository
}

func NewMatchRepository(sources *StreamSourceRepository) *MatchRepository {
	return &MatchRepository{
		items:   make(map[int64]match.Match),
		nextID:  1,
		sources: sources,
	}
}

func (r *MatchRepository) Insert(_ context.Context, m match.Match) (match.Match, error) {
	if err := m.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := m.DedupKey()
	for _, existing := range r.items {
		if existing.DedupKey() == key {
			return match.Match{}, fmt.Errorf("%w: match already exists", usecase.ErrConflict)
		}
	}

	m.ID = r.nextID
	r.nextID++
	m.IsCrawling = false
	m.CrawlStartedAt = nil
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.items[m.ID] = m

	return m, nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID int64) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}

	return m, true, nil
}

func (r *MatchRepository) ListAll(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(match.Match) bool { return true }), nil
}

func (r *MatchRepository) ListUpcoming(_ context.Context, now time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(m match.Match) bool {
		return !m.ScheduledStart.Before(now)
	}), nil
}

func (r *MatchRepository) ListLive(_ context.Context, now time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(m match.Match) bool {
		return m.LiveWithin(now)
	}), nil
}

func (r *MatchRepository) ListByLeagueSince(_ context.Context, leagueID int64, since time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(m match.Match) bool {
		return m.LeagueID == leagueID && !m.ScheduledStart.Before(since)
	}), nil
}

func (r *MatchRepository) ListStarted(_ context.Context, before time.Time) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(m match.Match) bool {
		return !m.ScheduledStart.After(before)
	}), nil
}

func (r *MatchRepository) Update(_ context.Context, m match.Match) (match.Match, bool, error) {
	if err := m.Validate(); err != nil {
		return match.Match{}, false, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[m.ID]
	if !ok {
		return match.Match{}, false, nil
	}

	key := m.DedupKey()
	for id, other := range r.items {
		if id != m.ID && other.DedupKey() == key {
			return match.Match{}, false, fmt.Errorf("%w: match already exists", usecase.ErrConflict)
		}
	}

	existing.LeagueID = m.LeagueID
	existing.Team1 = m.Team1
	existing.Team2 = m.Team2
	existing.SourceLink = m.SourceLink
	existing.ScheduledStart = m.ScheduledStart
	existing.ExpectedEnd = m.ExpectedEnd
	existing.Description = m.Description
	r.items[m.ID] = existing

	return existing, true, nil
}

func (r *MatchRepository) Delete(_ context.Context, matchID int64) (bool, error) {
	r.mu.Lock()
	_, ok := r.items[matchID]
	if ok {
		delete(r.items, matchID)
	}
	r.mu.Unlock()

	if ok && r.sources != nil {
		r.sources.deleteByMatch(matchID)
	}

	return ok, nil
}

func (r *MatchRepository) IngestBatch(_ context.Context, leagueID int64, rows []match.Match) (match.BatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	var result match.BatchResult
	for _, m := range rows {
		m.LeagueID = leagueID
		observedLive := m.IsLive
		key := m.DedupKey()

		var existingID int64
		found := false
		for id, existing := range r.items {
			if existing.DedupKey() == key {
				existingID = id
				found = true
				break
			}
		}

		if !found {
			m.ID = r.nextID
			r.nextID++
			m.IsLive = false
			m.LiveAt = nil
			m.IsCrawling = false
			m.CrawlStartedAt = nil
			if m.CreatedAt.IsZero() {
				m.CreatedAt = now
			}
			r.items[m.ID] = m
			result.Inserted++
			continue
		}

		result.Deduped++
		if observedLive {
			existing := r.items[existingID]
			if !existing.IsLive {
				existing.IsLive = true
				liveAt := now
				existing.LiveAt = &liveAt
				r.items[existingID] = existing
				result.PromotedLive++
			}
		}
	}

	return result, nil
}

func (r *MatchRepository) PromoteDue(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	promoted := 0
	for id, m := range r.items {
		if m.IsLive || m.ScheduledStart.After(now) {
			continue
		}
		m.IsLive = true
		liveAt := now
		m.LiveAt = &liveAt
		r.items[id] = m
		promoted++
	}

	return promoted, nil
}

func (r *MatchRepository) NextScheduledStart(_ context.Context, after time.Time) (*time.Time, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var next *time.Time
	for _, m := range r.items {
		if m.IsLive || !m.ScheduledStart.After(after) {
			continue
		}
		start := m.ScheduledStart
		if next == nil || start.Before(*next) {
			next = &start
		}
	}

	return next, nil
}

func (r *MatchRepository) BeginCrawl(_ context.Context, matchID int64, now time.Time, cooldown, staleLease time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return false, nil
	}
	if m.IsCrawling {
		if m.CrawlStartedAt == nil || m.CrawlStartedAt.After(now.Add(-staleLease)) {
			return false, nil
		}
	}
	if m.LastCrawlTime != nil && m.LastCrawlTime.After(now.Add(-cooldown)) {
		return false, nil
	}

	m.IsCrawling = true
	startedAt := now
	m.CrawlStartedAt = &startedAt
	r.items[matchID] = m

	return true, nil
}

func (r *MatchRepository) FinishCrawl(_ context.Context, matchID int64, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return nil
	}
	m.IsCrawling = false
	m.CrawlStartedAt = nil
	last := finishedAt
	m.LastCrawlTime = &last
	r.items[matchID] = m

	return nil
}

func (r *MatchRepository) collect(keep func(match.Match) bool) []match.Match {
	out := make([]match.Match, 0, len(r.items))
	for _, m := range r.items {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ScheduledStart.Equal(out[j].ScheduledStart) {
			return out[i].ScheduledStart.Before(out[j].ScheduledStart)
		}
		return out[i].ID < out[j].ID
	})

	return out
}
