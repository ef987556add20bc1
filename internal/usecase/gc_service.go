package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/domain/streamsource"
	"github.com/enkhjin/sportstream/internal/platform/logging"
)

// GCPolicy holds the removal thresholds. These are policy values, not
// constants: deployments tune them per source behavior.
type GCPolicy struct {
	// StaleAge removes matches that started this long ago and never
	// yielded a single stream source.
	StaleAge time.Duration
	// MinSources is the minimum link count a crawled match must hold;
	// below it (but above zero) the match is a likely placeholder and is
	// removed regardless of age.
	MinSources int
	// NoLinksAge removes crawled matches that still have zero links after
	// this shorter age.
	NoLinksAge time.Duration
}

func NormalizeGCPolicy(p GCPolicy) GCPolicy {
	if p.StaleAge <= 0 {
		p.StaleAge = 3 * time.Hour
	}
	if p.MinSources < 1 {
		p.MinSources = 2
	}
	if p.NoLinksAge <= 0 {
		p.NoLinksAge = 100 * time.Minute
	}

	return p
}

type GCReport struct {
	Examined int `json:"examined"`
	Deleted  int `json:"deleted"`
	Failed   int `json:"failed"`
}

type GCService struct {
	matchRepo  match.Repository
	sourceRepo streamsource.Repository
	policy     GCPolicy
	logger     *logging.Logger
	now        func() time.Time
}

func NewGCService(matchRepo match.Repository, sourceRepo streamsource.Repository, policy GCPolicy, logger *logging.Logger) *GCService {
	if logger == nil {
		logger = logging.Default()
	}

	return &GCService{
		matchRepo:  matchRepo,
		sourceRepo: sourceRepo,
		policy:     NormalizeGCPolicy(policy),
		logger:     logger,
		now:        time.Now,
	}
}

// Collect walks every started match and applies the removal heuristics
// with per-match isolation: one failing match is logged and skipped, the
// rest of the sweep still runs. Deletes cascade to stream sources.
func (s *GCService) Collect(ctx context.Context) (GCReport, error) {
	ctx, span := startUsecaseSpan(ctx, "GCService.Collect")
	defer span.End()

	now := s.now().UTC()
	candidates, err := s.matchRepo.ListStarted(ctx, now)
	if err != nil {
		return GCReport{}, fmt.Errorf("list started matches: %w", err)
	}

	var report GCReport
	for _, m := range candidates {
		report.Examined++

		remove, reason, err := s.shouldRemove(ctx, m, now)
		if err != nil {
			s.logger.WarnContext(ctx, "gc evaluation failed, skipping match", "match_id", m.ID, "error", err)
			report.Failed++
			continue
		}
		if !remove {
			continue
		}

		if _, err := s.matchRepo.Delete(ctx, m.ID); err != nil {
			s.logger.WarnContext(ctx, "gc delete failed, skipping match", "match_id", m.ID, "error", err)
			report.Failed++
			continue
		}
		report.Deleted++
		s.logger.InfoContext(ctx, "gc removed match", "match_id", m.ID, "team1", m.Team1, "reason", reason)
	}

	return report, nil
}

func (s *GCService) shouldRemove(ctx context.Context, m match.Match, now time.Time) (bool, string, error) {
	count, err := s.sourceRepo.CountByMatch(ctx, m.ID)
	if err != nil {
		return false, "", fmt.Errorf("count stream sources: %w", err)
	}

	age := now.Sub(m.ScheduledStart)
	if m.LiveAt != nil {
		age = now.Sub(*m.LiveAt)
	}
	crawled := m.LastCrawlTime != nil

	switch {
	case count == 0 && age > s.policy.StaleAge:
		return true, "stale-with-no-sources", nil
	case crawled && count >= 1 && count <= s.policy.MinSources-1:
		return true, "low-confidence-source", nil
	case crawled && count == 0 && age > s.policy.NoLinksAge:
		return true, "no-links-found", nil
	default:
		return false, "", nil
	}
}
