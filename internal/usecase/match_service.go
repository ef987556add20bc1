package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/enkhjin/sportstream/internal/domain/league"
	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/domain/streamsource"
	"github.com/enkhjin/sportstream/internal/platform/logging"
)

const defaultRecentWindow = 3 * time.Hour

// CreateMatchInput is the manual-create payload. Matches normally arrive
// through ingestion; this path exists for operator corrections.
type CreateMatchInput struct {
	LeagueID       int64
	Team1          string
	Team2          string
	SourceLink     string
	ScheduledStart time.Time
	ExpectedEnd    *time.Time
	Description    string
}

// UpdateMatchInput is the partial-update payload. Nil fields keep the
// stored value; set fields replace it after trimming.
type UpdateMatchInput struct {
	LeagueID       *int64
	Team1          *string
	Team2          *string
	SourceLink     *string
	ScheduledStart *time.Time
	ExpectedEnd    *time.Time
	Description    *string
}

type MatchService struct {
	leagueRepo league.Repository
	matchRepo  match.Repository
	sourceRepo streamsource.Repository
	logger     *logging.Logger
	now        func() time.Time
}

func NewMatchService(
	leagueRepo league.Repository,
	matchRepo match.Repository,
	sourceRepo streamsource.Repository,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		leagueRepo: leagueRepo,
		matchRepo:  matchRepo,
		sourceRepo: sourceRepo,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *MatchService) ListUpcoming(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListUpcoming")
	defer span.End()

	matches, err := s.matchRepo.ListUpcoming(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list upcoming matches: %w", err)
	}

	return matches, nil
}

func (s *MatchService) ListAll(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListAll")
	defer span.End()

	matches, err := s.matchRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	return matches, nil
}

func (s *MatchService) ListLive(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListLive")
	defer span.End()

	matches, err := s.matchRepo.ListLive(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list live matches: %w", err)
	}

	return matches, nil
}

func (s *MatchService) Get(ctx context.Context, matchID int64) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.Get")
	defer span.End()

	if matchID <= 0 {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%d", ErrNotFound, matchID)
	}

	return m, nil
}

// ListByLeagueName returns a league's matches scheduled within the recent
// window ending now.
func (s *MatchService) ListByLeagueName(ctx context.Context, leagueName string, within time.Duration) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListByLeagueName")
	defer span.End()

	leagueName = strings.TrimSpace(leagueName)
	if leagueName == "" {
		return nil, fmt.Errorf("%w: league name is required", ErrInvalidInput)
	}
	if within <= 0 {
		within = defaultRecentWindow
	}

	l, exists, err := s.leagueRepo.GetByName(ctx, leagueName)
	if err != nil {
		return nil, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: league=%s", ErrNotFound, leagueName)
	}

	matches, err := s.matchRepo.ListByLeagueSince(ctx, l.ID, s.now().UTC().Add(-within))
	if err != nil {
		return nil, fmt.Errorf("list matches by league: %w", err)
	}

	return matches, nil
}

func (s *MatchService) ListStreamSources(ctx context.Context, matchID int64) ([]streamsource.StreamSource, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListStreamSources")
	defer span.End()

	if _, err := s.Get(ctx, matchID); err != nil {
		return nil, err
	}

	sources, err := s.sourceRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list stream sources: %w", err)
	}

	return sources, nil
}

func (s *MatchService) Create(ctx context.Context, input CreateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.Create")
	defer span.End()

	_, exists, err := s.leagueRepo.GetByID(ctx, input.LeagueID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get league: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: league=%d", ErrNotFound, input.LeagueID)
	}

	m := match.Match{
		LeagueID:       input.LeagueID,
		Team1:          strings.TrimSpace(input.Team1),
		Team2:          strings.TrimSpace(input.Team2),
		SourceLink:     strings.TrimSpace(input.SourceLink),
		ScheduledStart: input.ScheduledStart,
		ExpectedEnd:    input.ExpectedEnd,
		Description:    strings.TrimSpace(input.Description),
	}
	if err := m.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, err := s.matchRepo.Insert(ctx, m)
	if err != nil {
		return match.Match{}, fmt.Errorf("insert match: %w", err)
	}

	return created, nil
}

func (s *MatchService) Update(ctx context.Context, matchID int64, input UpdateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.Update")
	defer span.End()

	m, err := s.Get(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}

	if input.LeagueID != nil {
		_, exists, err := s.leagueRepo.GetByID(ctx, *input.LeagueID)
		if err != nil {
			return match.Match{}, fmt.Errorf("get league: %w", err)
		}
		if !exists {
			return match.Match{}, fmt.Errorf("%w: league=%d", ErrNotFound, *input.LeagueID)
		}
		m.LeagueID = *input.LeagueID
	}
	if input.Team1 != nil {
		m.Team1 = strings.TrimSpace(*input.Team1)
	}
	if input.Team2 != nil {
		m.Team2 = strings.TrimSpace(*input.Team2)
	}
	if input.SourceLink != nil {
		m.SourceLink = strings.TrimSpace(*input.SourceLink)
	}
	if input.ScheduledStart != nil {
		m.ScheduledStart = *input.ScheduledStart
	}
	if input.ExpectedEnd != nil {
		m.ExpectedEnd = input.ExpectedEnd
	}
	if input.Description != nil {
		m.Description = strings.TrimSpace(*input.Description)
	}
	if err := m.Validate(); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, found, err := s.matchRepo.Update(ctx, m)
	if err != nil {
		return match.Match{}, fmt.Errorf("update match: %w", err)
	}
	if !found {
		return match.Match{}, fmt.Errorf("%w: match=%d", ErrNotFound, matchID)
	}

	return updated, nil
}

// ListAllStreamSources returns every discovered source across matches.
func (s *MatchService) ListAllStreamSources(ctx context.Context) ([]streamsource.StreamSource, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListAllStreamSources")
	defer span.End()

	sources, err := s.sourceRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all stream sources: %w", err)
	}

	return sources, nil
}

func (s *MatchService) Delete(ctx context.Context, matchID int64) error {
	ctx, span := startUsecaseSpan(ctx, "MatchService.Delete")
	defer span.End()

	if matchID <= 0 {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	deleted, err := s.matchRepo.Delete(ctx, matchID)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: match=%d", ErrNotFound, matchID)
	}

	return nil
}
