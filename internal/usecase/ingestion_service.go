package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/enkhjin/sportstream/internal/domain/extraction"
	"github.com/enkhjin/sportstream/internal/domain/league"
	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/platform/logging"
)

// IngestResult summarizes one ingestion pass. Skipped counts malformed
// records and dedup hits; neither aborts a batch.
type IngestResult struct {
	Inserted     int `json:"inserted"`
	PromotedLive int `json:"promoted_live"`
	Skipped      int `json:"skipped"`
}

func (r *IngestResult) add(other IngestResult) {
	r.Inserted += other.Inserted
	r.PromotedLive += other.PromotedLive
	r.Skipped += other.Skipped
}

type IngestionService struct {
	leagueRepo    league.Repository
	matchRepo     match.Repository
	extractor     extraction.Extractor
	parser        *ScheduleParser
	leagueSources map[string]string
	logger        *logging.Logger
}

func NewIngestionService(
	leagueRepo league.Repository,
	matchRepo match.Repository,
	extractor extraction.Extractor,
	parser *ScheduleParser,
	leagueSources map[string]string,
	logger *logging.Logger,
) *IngestionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &IngestionService{
		leagueRepo:    leagueRepo,
		matchRepo:     matchRepo,
		extractor:     extractor,
		parser:        parser,
		leagueSources: leagueSources,
		logger:        logger,
	}
}

// Bootstrap idempotently upserts the configured leagues by name.
func (s *IngestionService) Bootstrap(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.Bootstrap")
	defer span.End()

	names := make([]string, 0, len(s.leagueSources))
	for name := range s.leagueSources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := s.leagueRepo.Upsert(ctx, league.League{Name: name, SourceURL: s.leagueSources[name]}); err != nil {
			return fmt.Errorf("bootstrap league %s: %w", name, err)
		}
	}

	return nil
}

// IngestLeague parses and commits one league's raw fixture batch in a
// single transaction. A malformed record is skipped and logged; an empty
// batch is a successful no-op.
func (s *IngestionService) IngestLeague(ctx context.Context, l league.League, raws []extraction.RawFixture) (IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.IngestLeague")
	defer span.End()

	if l.ID <= 0 {
		return IngestResult{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if len(raws) == 0 {
		return IngestResult{}, nil
	}

	var result IngestResult
	rows := make([]match.Match, 0, len(raws))
	for _, raw := range raws {
		team1 := strings.TrimSpace(raw.Team1)
		link := strings.TrimSpace(raw.SourceLink)
		if team1 == "" || link == "" {
			s.logger.WarnContext(ctx, "skip fixture without team or link", "league", l.Name, "team1", raw.Team1, "link", raw.SourceLink)
			result.Skipped++
			continue
		}

		description, start, err := s.parser.Parse(raw.RawSchedule)
		if err != nil {
			s.logger.WarnContext(ctx, "skip fixture with malformed schedule", "league", l.Name, "team1", team1, "schedule", raw.RawSchedule, "error", err)
			result.Skipped++
			continue
		}

		rows = append(rows, match.Match{
			LeagueID:       l.ID,
			Team1:          team1,
			Team2:          strings.TrimSpace(raw.Team2),
			SourceLink:     link,
			ScheduledStart: start,
			Description:    description,
			IsLive:         raw.ObservedLive,
		})
	}

	batch, err := s.matchRepo.IngestBatch(ctx, l.ID, rows)
	if err != nil {
		return IngestResult{}, fmt.Errorf("ingest batch league=%s: %w", l.Name, err)
	}

	result.Inserted = batch.Inserted
	result.PromotedLive = batch.PromotedLive
	result.Skipped += batch.Deduped

	return result, nil
}

// IngestAll fetches and ingests every stored league. Leagues are
// independent: one failing league is logged and never affects the rest.
func (s *IngestionService) IngestAll(ctx context.Context) (IngestResult, error) {
	ctx, span := startUsecaseSpan(ctx, "IngestionService.IngestAll")
	defer span.End()

	leagues, err := s.leagueRepo.List(ctx)
	if err != nil {
		return IngestResult{}, fmt.Errorf("list leagues: %w", err)
	}

	var total IngestResult
	for _, l := range leagues {
		raws, err := s.extractor.FetchFixtures(ctx, extraction.Profile{
			League:     l.Name,
			ListingURL: l.SourceURL,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "fetch fixtures failed, skipping league", "league", l.Name, "error", err)
			continue
		}

		result, err := s.IngestLeague(ctx, l, raws)
		if err != nil {
			s.logger.WarnContext(ctx, "ingest league failed, continuing", "league", l.Name, "error", err)
			continue
		}
		total.add(result)
	}

	return total, nil
}
