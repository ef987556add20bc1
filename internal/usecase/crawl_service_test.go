package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/enkhjin/sportstream/internal/domain/extraction"
	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/domain/streamsource"
)

type crawlFixture struct {
	matchRepo  *matchRepoMock
	sourceRepo *streamSourceRepoMock
	extractor  *extractorMock
	svc        *CrawlService
	now        time.Time
}

func newCrawlFixture(t *testing.T) *crawlFixture {
	t.Helper()

	f := &crawlFixture{
		matchRepo:  newMatchRepoMock(t),
		sourceRepo: newStreamSourceRepoMock(t),
		extractor:  newExtractorMock(t),
		now:        time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC),
	}
	f.svc = NewCrawlService(f.matchRepo, f.sourceRepo, f.extractor, CrawlServiceConfig{}, nil)
	f.svc.now = func() time.Time { return f.now }

	return f
}

func (f *crawlFixture) liveMatch() match.Match {
	return match.Match{
		ID:             42,
		LeagueID:       1,
		Team1:          "Arsenal",
		SourceLink:     "https://site/arsenal",
		ScheduledStart: f.now.Add(-30 * time.Minute),
		IsLive:         true,
	}
}

func TestCrawlMatchNotLiveServesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCrawlFixture(t)

	upcoming := f.liveMatch()
	upcoming.ScheduledStart = f.now.Add(2 * time.Hour)
	upcoming.IsLive = false

	f.matchRepo.On("GetByID", ctx, int64(42)).Return(upcoming, true, nil).Once()
	f.sourceRepo.On("ListByMatch", ctx, int64(42)).
		Return([]streamsource.StreamSource{{ID: 1, MatchID: 42, Link: "https://s/1"}}, nil).Once()

	result, err := f.svc.CrawlMatch(ctx, 42)
	if err != nil {
		t.Fatalf("CrawlMatch: %v", err)
	}
	if result.Crawled {
		t.Fatalf("crawled: got=true want=false")
	}
	if len(result.Sources) != 1 {
		t.Fatalf("sources: got=%d want=1", len(result.Sources))
	}
}

func TestCrawlMatchSlotHeldServesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCrawlFixture(t)

	f.matchRepo.On("GetByID", ctx, int64(42)).Return(f.liveMatch(), true, nil).Once()
	f.matchRepo.On("BeginCrawl", ctx, int64(42), f.now, 300*time.Second, 10*time.Minute).
		Return(false, nil).Once()
	f.sourceRepo.On("ListByMatch", ctx, int64(42)).Return(nil, nil).Once()

	result, err := f.svc.CrawlMatch(ctx, 42)
	if err != nil {
		t.Fatalf("CrawlMatch: %v", err)
	}
	if result.Crawled {
		t.Fatalf("crawled: got=true want=false")
	}
}

func TestCrawlMatchInsertsOnlyNewLinks(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCrawlFixture(t)

	existing := []streamsource.StreamSource{{ID: 1, MatchID: 42, Link: "https://s/known"}}

	f.matchRepo.On("GetByID", ctx, int64(42)).Return(f.liveMatch(), true, nil).Once()
	f.matchRepo.On("BeginCrawl", ctx, int64(42), f.now, 300*time.Second, 10*time.Minute).
		Return(true, nil).Once()
	f.extractor.On("FetchCandidateLinks", ctx, "https://site/arsenal").
		Return([]string{"https://s/new", "https://s/known", "https://ads.adobe.com/x", "https://s/new"}, nil).Once()
	f.sourceRepo.On("ListByMatch", ctx, int64(42)).Return(existing, nil).Once()

	f.extractor.On("ResolvePlayableSource", ctx, "https://s/new").
		Return("https://cdn/new.m3u8", nil).Once()
	f.sourceRepo.On("Insert", ctx, streamsource.StreamSource{
		MatchID:        42,
		Link:           "https://s/new",
		ResolvedSource: "https://cdn/new.m3u8",
	}).Return(streamsource.StreamSource{ID: 2, MatchID: 42, Link: "https://s/new"}, true, nil).Once()

	final := append(existing, streamsource.StreamSource{ID: 2, MatchID: 42, Link: "https://s/new"})
	f.sourceRepo.On("ListByMatch", ctx, int64(42)).Return(final, nil).Once()
	f.matchRepo.On("FinishCrawl", mock.Anything, int64(42), f.now).Return(nil).Once()

	result, err := f.svc.CrawlMatch(ctx, 42)
	if err != nil {
		t.Fatalf("CrawlMatch: %v", err)
	}
	if !result.Crawled {
		t.Fatalf("crawled: got=false want=true")
	}
	if len(result.Sources) != 2 {
		t.Fatalf("sources: got=%d want=2", len(result.Sources))
	}
}

func TestCrawlMatchReleasesSlotOnExtractionFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCrawlFixture(t)

	f.matchRepo.On("GetByID", ctx, int64(42)).Return(f.liveMatch(), true, nil).Once()
	f.matchRepo.On("BeginCrawl", ctx, int64(42), f.now, 300*time.Second, 10*time.Minute).
		Return(true, nil).Once()
	f.extractor.On("FetchCandidateLinks", ctx, "https://site/arsenal").
		Return(nil, errors.New("renderer down")).Once()
	f.sourceRepo.On("ListByMatch", ctx, int64(42)).Return(nil, nil).Twice()
	f.matchRepo.On("FinishCrawl", mock.Anything, int64(42), f.now).Return(nil).Once()

	result, err := f.svc.CrawlMatch(ctx, 42)
	if err != nil {
		t.Fatalf("CrawlMatch: %v", err)
	}
	if !result.Crawled {
		t.Fatalf("crawled: got=false want=true")
	}
	if len(result.Sources) != 0 {
		t.Fatalf("sources: got=%d want=0", len(result.Sources))
	}
}

func TestCrawlMatchNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCrawlFixture(t)

	f.matchRepo.On("GetByID", ctx, int64(99)).Return(match.Match{}, false, nil).Once()

	_, err := f.svc.CrawlMatch(ctx, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error: got=%v want ErrNotFound", err)
	}
}

func TestCrawlMatchRejectsInvalidID(t *testing.T) {
	t.Parallel()

	f := newCrawlFixture(t)

	_, err := f.svc.CrawlMatch(context.Background(), 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error: got=%v want ErrInvalidInput", err)
	}
}

// casMatchRepo is enough of a repository to exercise the crawl slot under
// contention: a mutex-guarded check-and-set mirroring the SQL guard.
type casMatchRepo struct {
	match.Repository

	mu         sync.Mutex
	m          match.Match
	crawling   bool
	crawlStart *time.Time
	lastCrawl  *time.Time
}

func (r *casMatchRepo) GetByID(ctx context.Context, matchID int64) (match.Match, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if matchID != r.m.ID {
		return match.Match{}, false, nil
	}
	return r.m, true, nil
}

func (r *casMatchRepo) BeginCrawl(ctx context.Context, matchID int64, now time.Time, cooldown, staleLease time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if matchID != r.m.ID {
		return false, nil
	}
	if r.crawling && r.crawlStart != nil && r.crawlStart.After(now.Add(-staleLease)) {
		return false, nil
	}
	if r.lastCrawl != nil && r.lastCrawl.After(now.Add(-cooldown)) {
		return false, nil
	}
	r.crawling = true
	r.crawlStart = &now
	return true, nil
}

func (r *casMatchRepo) FinishCrawl(ctx context.Context, matchID int64, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.crawling = false
	r.crawlStart = nil
	r.lastCrawl = &finishedAt
	return nil
}

type syncSourceRepo struct {
	streamsource.Repository

	mu     sync.Mutex
	nextID int64
	rows   []streamsource.StreamSource
}

func (r *syncSourceRepo) ListByMatch(ctx context.Context, matchID int64) ([]streamsource.StreamSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]streamsource.StreamSource, 0, len(r.rows))
	for _, s := range r.rows {
		if s.MatchID == matchID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *syncSourceRepo) Insert(ctx context.Context, s streamsource.StreamSource) (streamsource.StreamSource, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.MatchID == s.MatchID && row.Link == s.Link {
			return row, false, nil
		}
	}
	r.nextID++
	s.ID = r.nextID
	r.rows = append(r.rows, s)
	return s, true, nil
}

type countingExtractor struct {
	extraction.Extractor

	fetches atomic.Int64
}

func (e *countingExtractor) FetchCandidateLinks(ctx context.Context, matchURL string) ([]string, error) {
	e.fetches.Add(1)
	return []string{"https://s/1"}, nil
}

func (e *countingExtractor) ResolvePlayableSource(ctx context.Context, candidateURL string) (string, error) {
	return "https://cdn/1.m3u8", nil
}

func TestCrawlMatchMutualExclusion(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 20, 30, 0, 0, time.UTC)
	matchRepo := &casMatchRepo{m: match.Match{
		ID:             42,
		LeagueID:       1,
		Team1:          "Arsenal",
		SourceLink:     "https://site/arsenal",
		ScheduledStart: now.Add(-30 * time.Minute),
	}}
	sourceRepo := &syncSourceRepo{}
	extractor := &countingExtractor{}

	svc := NewCrawlService(matchRepo, sourceRepo, extractor, CrawlServiceConfig{}, nil)
	svc.now = func() time.Time { return now }

	const callers = 8
	var wg sync.WaitGroup
	var crawled atomic.Int64
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.CrawlMatch(context.Background(), 42)
			if err != nil {
				t.Errorf("CrawlMatch: %v", err)
				return
			}
			if result.Crawled {
				crawled.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := crawled.Load(); got != 1 {
		t.Fatalf("crawled callers: got=%d want=1", got)
	}
	if got := extractor.fetches.Load(); got != 1 {
		t.Fatalf("extraction fetches: got=%d want=1", got)
	}

	sources, err := sourceRepo.ListByMatch(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListByMatch: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("sources: got=%d want=1", len(sources))
	}
}

func TestCrawlLiveCountsCrawledMatches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newCrawlFixture(t)

	live := []match.Match{
		{ID: 1, Team1: "Arsenal", SourceLink: "https://site/a", ScheduledStart: f.now.Add(-time.Hour), IsLive: true},
		{ID: 2, Team1: "Chelsea", SourceLink: "https://site/c", ScheduledStart: f.now.Add(-time.Hour), IsLive: true},
	}
	f.matchRepo.On("ListLive", ctx, f.now).Return(live, nil).Once()

	// First match crawls clean with zero candidate links.
	f.matchRepo.On("GetByID", ctx, int64(1)).Return(live[0], true, nil).Once()
	f.matchRepo.On("BeginCrawl", ctx, int64(1), f.now, 300*time.Second, 10*time.Minute).
		Return(true, nil).Once()
	f.extractor.On("FetchCandidateLinks", ctx, "https://site/a").Return(nil, nil).Once()
	f.sourceRepo.On("ListByMatch", ctx, int64(1)).Return(nil, nil).Twice()
	f.matchRepo.On("FinishCrawl", mock.Anything, int64(1), f.now).Return(nil).Once()

	// Second match is already being crawled elsewhere.
	f.matchRepo.On("GetByID", ctx, int64(2)).Return(live[1], true, nil).Once()
	f.matchRepo.On("BeginCrawl", ctx, int64(2), f.now, 300*time.Second, 10*time.Minute).
		Return(false, nil).Once()
	f.sourceRepo.On("ListByMatch", ctx, int64(2)).Return(nil, nil).Once()

	crawled, err := f.svc.CrawlLive(ctx)
	if err != nil {
		t.Fatalf("CrawlLive: %v", err)
	}
	if crawled != 1 {
		t.Fatalf("crawled: got=%d want=1", crawled)
	}
}
