package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/enkhjin/sportstream/internal/domain/extraction"
	"github.com/enkhjin/sportstream/internal/domain/league"
	"github.com/enkhjin/sportstream/internal/domain/match"
)

func TestIngestLeagueSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := newLeagueRepoMock(t)
	matchRepo := newMatchRepoMock(t)
	extractor := newExtractorMock(t)

	svc := NewIngestionService(leagueRepo, matchRepo, extractor, newTestParser(t), nil, nil)

	raws := []extraction.RawFixture{
		{Team1: "Arsenal", Team2: "Spurs", SourceLink: "https://site/arsenal", RawSchedule: "Derby / 14 March at 20:00"},
		{Team1: "", Team2: "Chelsea", SourceLink: "https://site/chelsea", RawSchedule: "14 March at 17:30"},
		{Team1: "Liverpool", SourceLink: "https://site/liverpool", RawSchedule: "sometime soon"},
	}

	matchRepo.On("IngestBatch", ctx, int64(7), mock.MatchedBy(func(rows []match.Match) bool {
		return len(rows) == 1 && rows[0].Team1 == "Arsenal" && rows[0].Description == "Derby"
	})).Return(match.BatchResult{Inserted: 1}, nil).Once()

	result, err := svc.IngestLeague(ctx, league.League{ID: 7, Name: "EPL"}, raws)
	if err != nil {
		t.Fatalf("IngestLeague: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 2 {
		t.Fatalf("result: got=%+v want inserted=1 skipped=2", result)
	}
}

func TestIngestLeagueCountsDedupAsSkipped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := newLeagueRepoMock(t)
	matchRepo := newMatchRepoMock(t)
	extractor := newExtractorMock(t)

	svc := NewIngestionService(leagueRepo, matchRepo, extractor, newTestParser(t), nil, nil)

	raws := []extraction.RawFixture{
		{Team1: "Arsenal", SourceLink: "https://site/arsenal", RawSchedule: "14 March at 20:00"},
		{Team1: "Arsenal", SourceLink: "https://site/arsenal", RawSchedule: "14 March at 20:00"},
	}

	matchRepo.On("IngestBatch", ctx, int64(7), mock.Anything).
		Return(match.BatchResult{Inserted: 1, Deduped: 1}, nil).Once()

	result, err := svc.IngestLeague(ctx, league.League{ID: 7, Name: "EPL"}, raws)
	if err != nil {
		t.Fatalf("IngestLeague: %v", err)
	}
	if result.Inserted != 1 || result.Skipped != 1 {
		t.Fatalf("result: got=%+v want inserted=1 skipped=1", result)
	}
}

func TestIngestLeagueEmptyBatchIsNoOp(t *testing.T) {
	t.Parallel()

	leagueRepo := newLeagueRepoMock(t)
	matchRepo := newMatchRepoMock(t)
	extractor := newExtractorMock(t)

	svc := NewIngestionService(leagueRepo, matchRepo, extractor, newTestParser(t), nil, nil)

	result, err := svc.IngestLeague(context.Background(), league.League{ID: 7, Name: "EPL"}, nil)
	if err != nil {
		t.Fatalf("IngestLeague: %v", err)
	}
	if result != (IngestResult{}) {
		t.Fatalf("result: got=%+v want zero", result)
	}
}

func TestIngestLeagueRequiresLeagueID(t *testing.T) {
	t.Parallel()

	svc := NewIngestionService(newLeagueRepoMock(t), newMatchRepoMock(t), newExtractorMock(t), newTestParser(t), nil, nil)

	_, err := svc.IngestLeague(context.Background(), league.League{Name: "EPL"}, []extraction.RawFixture{{Team1: "Arsenal"}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error: got=%v want ErrInvalidInput", err)
	}
}

func TestIngestAllIsolatesFailingLeague(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := newLeagueRepoMock(t)
	matchRepo := newMatchRepoMock(t)
	extractor := newExtractorMock(t)

	svc := NewIngestionService(leagueRepo, matchRepo, extractor, newTestParser(t), nil, nil)

	leagues := []league.League{
		{ID: 1, Name: "EPL", SourceURL: "https://site/epl"},
		{ID: 2, Name: "UCL", SourceURL: "https://site/ucl"},
	}
	leagueRepo.On("List", ctx).Return(leagues, nil).Once()

	extractor.On("FetchFixtures", ctx, extraction.Profile{League: "EPL", ListingURL: "https://site/epl"}).
		Return(nil, errors.New("renderer down")).Once()
	extractor.On("FetchFixtures", ctx, extraction.Profile{League: "UCL", ListingURL: "https://site/ucl"}).
		Return([]extraction.RawFixture{
			{Team1: "Real Madrid", SourceLink: "https://site/real", RawSchedule: "14 March at 21:00"},
		}, nil).Once()

	matchRepo.On("IngestBatch", ctx, int64(2), mock.Anything).
		Return(match.BatchResult{Inserted: 1}, nil).Once()

	result, err := svc.IngestAll(ctx)
	if err != nil {
		t.Fatalf("IngestAll: %v", err)
	}
	if result.Inserted != 1 {
		t.Fatalf("inserted: got=%d want=1", result.Inserted)
	}
}

func TestBootstrapUpsertsConfiguredLeagues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	leagueRepo := newLeagueRepoMock(t)

	sources := map[string]string{
		"EPL": "https://site/epl",
		"UCL": "https://site/ucl",
	}
	svc := NewIngestionService(leagueRepo, newMatchRepoMock(t), newExtractorMock(t), newTestParser(t), sources, nil)

	leagueRepo.On("Upsert", ctx, league.League{Name: "EPL", SourceURL: "https://site/epl"}).
		Return(league.League{ID: 1, Name: "EPL"}, nil).Once()
	leagueRepo.On("Upsert", ctx, league.League{Name: "UCL", SourceURL: "https://site/ucl"}).
		Return(league.League{ID: 2, Name: "UCL"}, nil).Once()

	if err := svc.Bootstrap(ctx); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
}
