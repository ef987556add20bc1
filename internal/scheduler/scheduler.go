package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/enkhjin/sportstream/internal/platform/logging"
	"github.com/enkhjin/sportstream/internal/usecase"
)

const defaultCrawlWorkers = 3

// Config holds the periodic cadences. Zero values fall back to the
// operating defaults.
type Config struct {
	IngestInterval time.Duration
	CrawlInterval  time.Duration
	GCInterval     time.Duration
	CrawlWorkers   int
}

func normalizeConfig(cfg Config) Config {
	if cfg.IngestInterval <= 0 {
		cfg.IngestInterval = 8 * time.Hour
	}
	if cfg.CrawlInterval <= 0 {
		cfg.CrawlInterval = 5 * time.Minute
	}
	if cfg.GCInterval <= 0 {
		cfg.GCInterval = time.Hour
	}
	if cfg.CrawlWorkers <= 0 {
		cfg.CrawlWorkers = defaultCrawlWorkers
	}

	return cfg
}

// Scheduler drives the background loops: periodic ingestion, the live
// promotion wake timer, crawl fan-out over a bounded worker pool, and the
// GC sweep. One Scheduler instance owns all four.
type Scheduler struct {
	ingestion *usecase.IngestionService
	lifecycle *usecase.LifecycleService
	crawler   *usecase.CrawlService
	gc        *usecase.GCService
	cfg       Config
	logger    *logging.Logger
}

func New(
	ingestion *usecase.IngestionService,
	lifecycle *usecase.LifecycleService,
	crawler *usecase.CrawlService,
	gc *usecase.GCService,
	cfg Config,
	logger *logging.Logger,
) *Scheduler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Scheduler{
		ingestion: ingestion,
		lifecycle: lifecycle,
		crawler:   crawler,
		gc:        gc,
		cfg:       normalizeConfig(cfg),
		logger:    logger,
	}
}

// Run blocks until ctx is canceled. Each loop runs once immediately so a
// restart never waits out a full interval before doing useful work.
func (s *Scheduler) Run(ctx context.Context) error {
	pool, err := ants.NewPool(s.cfg.CrawlWorkers)
	if err != nil {
		return fmt.Errorf("create crawl worker pool: %w", err)
	}
	defer pool.Release()

	var loops sync.WaitGroup
	loops.Add(3)
	go func() {
		defer loops.Done()
		s.runIngestLoop(ctx)
	}()
	go func() {
		defer loops.Done()
		s.runLifecycleAndCrawlLoop(ctx, pool)
	}()
	go func() {
		defer loops.Done()
		s.runGCLoop(ctx)
	}()

	loops.Wait()
	s.logger.InfoContext(context.WithoutCancel(ctx), "scheduler stopped")

	return ctx.Err()
}

func (s *Scheduler) runIngestLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.IngestInterval)
	defer ticker.Stop()

	for {
		s.ingestOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) ingestOnce(ctx context.Context) {
	result, err := s.ingestion.IngestAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "scheduled ingestion failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "scheduled ingestion finished",
		"inserted", result.Inserted, "promoted_live", result.PromotedLive, "skipped", result.Skipped)
}

// runLifecycleAndCrawlLoop promotes due matches, then fans a crawl pass
// out to the pool. Between crawl ticks a one-shot timer armed on the next
// kickoff keeps the live flip close to real kickoff time instead of
// waiting out the crawl interval.
func (s *Scheduler) runLifecycleAndCrawlLoop(ctx context.Context, pool *ants.Pool) {
	ticker := time.NewTicker(s.cfg.CrawlInterval)
	defer ticker.Stop()

	wake := time.NewTimer(s.cfg.CrawlInterval)
	if !wake.Stop() {
		<-wake.C
	}
	defer wake.Stop()

	for {
		next := s.promoteOnce(ctx)
		s.crawlOnce(ctx, pool)

		if next != nil {
			if until := time.Until(*next); until > 0 && until < s.cfg.CrawlInterval {
				wake.Reset(until)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-wake.C:
		}
	}
}

func (s *Scheduler) promoteOnce(ctx context.Context) *time.Time {
	promoted, next, err := s.lifecycle.PromoteDue(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "live promotion failed", "error", err)
		return nil
	}
	if promoted > 0 {
		s.logger.InfoContext(ctx, "live promotion finished", "promoted", promoted)
	}

	return next
}

func (s *Scheduler) crawlOnce(ctx context.Context, pool *ants.Pool) {
	live, err := s.crawler.ListLive(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "list live matches failed", "error", err)
		return
	}
	if len(live) == 0 {
		return
	}

	var workers sync.WaitGroup
	for _, m := range live {
		matchID := m.ID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			if _, err := s.crawler.CrawlMatch(ctx, matchID); err != nil {
				s.logger.WarnContext(ctx, "scheduled crawl failed", "match_id", matchID, "error", err)
			}
		}); err != nil {
			workers.Done()
			s.logger.ErrorContext(ctx, "submit crawl to worker pool failed", "match_id", matchID, "error", err)
		}
	}
	workers.Wait()
}

func (s *Scheduler) runGCLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.GCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		report, err := s.gc.Collect(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "scheduled gc failed", "error", err)
			continue
		}
		if report.Deleted > 0 || report.Failed > 0 {
			s.logger.InfoContext(ctx, "scheduled gc finished",
				"examined", report.Examined, "deleted", report.Deleted, "failed", report.Failed)
		}
	}
}
