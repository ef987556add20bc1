package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/enkhjin/sportstream/internal/domain/extraction"
	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/domain/streamsource"
	"github.com/enkhjin/sportstream/internal/platform/logging"
)

// defaultDenyLinkSubstrings filters ad and placeholder pages that league
// sites interleave with real watch links.
var defaultDenyLinkSubstrings = []string{"adobe"}

// CrawlResult carries the match's current stream sources. Crawled is false
// when the call served cached data: the match was not live, a crawl was
// already in flight, or the cooldown had not elapsed.
type CrawlResult struct {
	Sources []streamsource.StreamSource
	Crawled bool
}

type CrawlServiceConfig struct {
	Cooldown           time.Duration
	StaleLease         time.Duration
	DenyLinkSubstrings []string
}

type CrawlService struct {
	matchRepo  match.Repository
	sourceRepo streamsource.Repository
	extractor  extraction.Extractor
	cooldown   time.Duration
	staleLease time.Duration
	denyLinks  []string
	logger     *logging.Logger
	now        func() time.Time
}

func NewCrawlService(
	matchRepo match.Repository,
	sourceRepo streamsource.Repository,
	extractor extraction.Extractor,
	cfg CrawlServiceConfig,
	logger *logging.Logger,
) *CrawlService {
	if logger == nil {
		logger = logging.Default()
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 300 * time.Second
	}
	staleLease := cfg.StaleLease
	if staleLease <= 0 {
		staleLease = 10 * time.Minute
	}
	denyLinks := cfg.DenyLinkSubstrings
	if denyLinks == nil {
		denyLinks = defaultDenyLinkSubstrings
	}

	return &CrawlService{
		matchRepo:  matchRepo,
		sourceRepo: sourceRepo,
		extractor:  extractor,
		cooldown:   cooldown,
		staleLease: staleLease,
		denyLinks:  denyLinks,
		logger:     logger,
		now:        time.Now,
	}
}

// CrawlMatch discovers stream sources for one match. At most one crawl
// runs per match at a time: the repository's check-and-set either grants
// the crawl slot or the call returns the stored sources unchanged.
// Scheduler-triggered and user-triggered crawls go through this same path.
func (s *CrawlService) CrawlMatch(ctx context.Context, matchID int64) (CrawlResult, error) {
	ctx, span := startUsecaseSpan(ctx, "CrawlService.CrawlMatch")
	defer span.End()

	if matchID <= 0 {
		return CrawlResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return CrawlResult{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return CrawlResult{}, fmt.Errorf("%w: match=%d", ErrNotFound, matchID)
	}

	now := s.now().UTC()
	if !m.LiveWithin(now) {
		return s.cachedResult(ctx, matchID)
	}

	begun, err := s.matchRepo.BeginCrawl(ctx, matchID, now, s.cooldown, s.staleLease)
	if err != nil {
		return CrawlResult{}, fmt.Errorf("begin crawl match=%d: %w", matchID, err)
	}
	if !begun {
		return s.cachedResult(ctx, matchID)
	}

	// The slot must be released even when extraction fails or the caller
	// goes away mid-crawl.
	defer func() {
		finishCtx := context.WithoutCancel(ctx)
		if err := s.matchRepo.FinishCrawl(finishCtx, matchID, s.now().UTC()); err != nil {
			s.logger.ErrorContext(finishCtx, "finish crawl failed", "match_id", matchID, "error", err)
		}
	}()

	links, err := s.extractor.FetchCandidateLinks(ctx, m.SourceLink)
	if err != nil {
		s.logger.WarnContext(ctx, "candidate link extraction failed, treating as empty", "match_id", matchID, "error", err)
		links = nil
	}

	existing, err := s.sourceRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return CrawlResult{}, fmt.Errorf("list stream sources match=%d: %w", matchID, err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, src := range existing {
		known[src.Link] = struct{}{}
	}

	for _, link := range links {
		if s.isDeniedLink(link) {
			continue
		}
		if _, ok := known[link]; ok {
			continue
		}

		resolved, err := s.extractor.ResolvePlayableSource(ctx, link)
		if err != nil {
			s.logger.WarnContext(ctx, "resolve playable source failed, storing bare link", "match_id", matchID, "link", link, "error", err)
			resolved = ""
		}

		if _, _, err := s.sourceRepo.Insert(ctx, streamsource.StreamSource{
			MatchID:        matchID,
			Link:           link,
			ResolvedSource: resolved,
		}); err != nil {
			s.logger.WarnContext(ctx, "insert stream source failed", "match_id", matchID, "link", link, "error", err)
			continue
		}
		known[link] = struct{}{}
	}

	sources, err := s.sourceRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return CrawlResult{}, fmt.Errorf("list stream sources match=%d: %w", matchID, err)
	}

	return CrawlResult{Sources: sources, Crawled: true}, nil
}

// CrawlLive runs CrawlMatch over every currently live match, serially.
// The scheduler fans the same work out to its worker pool instead.
func (s *CrawlService) CrawlLive(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "CrawlService.CrawlLive")
	defer span.End()

	live, err := s.matchRepo.ListLive(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list live matches: %w", err)
	}

	crawled := 0
	for _, m := range live {
		result, err := s.CrawlMatch(ctx, m.ID)
		if err != nil {
			s.logger.WarnContext(ctx, "crawl live match failed, continuing", "match_id", m.ID, "error", err)
			continue
		}
		if result.Crawled {
			crawled++
		}
	}

	return crawled, nil
}

// ListLive exposes the live set for schedulers that fan crawls out to a
// worker pool.
func (s *CrawlService) ListLive(ctx context.Context) ([]match.Match, error) {
	return s.matchRepo.ListLive(ctx, s.now().UTC())
}

func (s *CrawlService) cachedResult(ctx context.Context, matchID int64) (CrawlResult, error) {
	sources, err := s.sourceRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return CrawlResult{}, fmt.Errorf("list stream sources match=%d: %w", matchID, err)
	}

	return CrawlResult{Sources: sources, Crawled: false}, nil
}

func (s *CrawlService) isDeniedLink(link string) bool {
	lowered := strings.ToLower(link)
	for _, deny := range s.denyLinks {
		if deny == "" {
			continue
		}
		if strings.Contains(lowered, deny) {
			return true
		}
	}

	return false
}
