package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/platform/logging"
)

// LifecycleService drives the scheduled-to-live transition.
type LifecycleService struct {
	matchRepo match.Repository
	logger    *logging.Logger
	now       func() time.Time
}

func NewLifecycleService(matchRepo match.Repository, logger *logging.Logger) *LifecycleService {
	if logger == nil {
		logger = logging.Default()
	}

	return &LifecycleService{
		matchRepo: matchRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// PromoteDue flips every match whose kickoff has passed and is not yet
// live, then returns the earliest upcoming kickoff so the caller can arm
// a one-shot wake timer. Idempotent: a second call at the same instant
// promotes nothing. The flip never touches the crawl cooldown, so the
// first crawl after going live is not throttled.
func (s *LifecycleService) PromoteDue(ctx context.Context) (int, *time.Time, error) {
	ctx, span := startUsecaseSpan(ctx, "LifecycleService.PromoteDue")
	defer span.End()

	now := s.now().UTC()
	promoted, err := s.matchRepo.PromoteDue(ctx, now)
	if err != nil {
		return 0, nil, fmt.Errorf("promote due matches: %w", err)
	}
	if promoted > 0 {
		s.logger.InfoContext(ctx, "matches promoted to live", "promoted", promoted)
	}

	next, err := s.matchRepo.NextScheduledStart(ctx, now)
	if err != nil {
		return promoted, nil, fmt.Errorf("next scheduled start: %w", err)
	}

	return promoted, next, nil
}
