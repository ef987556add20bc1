package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/enkhjin/sportstream/internal/domain/extraction"
	"github.com/enkhjin/sportstream/internal/domain/league"
	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/domain/streamsource"
)

type leagueRepoMock struct{ mock.Mock }

func newLeagueRepoMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *leagueRepoMock {
	m := &leagueRepoMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *leagueRepoMock) List(ctx context.Context) ([]league.League, error) {
	args := m.Called(ctx)
	leagues, _ := args.Get(0).([]league.League)
	return leagues, args.Error(1)
}

func (m *leagueRepoMock) GetByID(ctx context.Context, leagueID int64) (league.League, bool, error) {
	args := m.Called(ctx, leagueID)
	return args.Get(0).(league.League), args.Bool(1), args.Error(2)
}

func (m *leagueRepoMock) GetByName(ctx context.Context, name string) (league.League, bool, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(league.League), args.Bool(1), args.Error(2)
}

func (m *leagueRepoMock) Upsert(ctx context.Context, l league.League) (league.League, error) {
	args := m.Called(ctx, l)
	return args.Get(0).(league.League), args.Error(1)
}

type matchRepoMock struct{ mock.Mock }

func newMatchRepoMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *matchRepoMock {
	m := &matchRepoMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *matchRepoMock) Insert(ctx context.Context, mm match.Match) (match.Match, error) {
	args := m.Called(ctx, mm)
	return args.Get(0).(match.Match), args.Error(1)
}

func (m *matchRepoMock) GetByID(ctx context.Context, matchID int64) (match.Match, bool, error) {
	args := m.Called(ctx, matchID)
	return args.Get(0).(match.Match), args.Bool(1), args.Error(2)
}

func (m *matchRepoMock) ListAll(ctx context.Context) ([]match.Match, error) {
	args := m.Called(ctx)
	matches, _ := args.Get(0).([]match.Match)
	return matches, args.Error(1)
}

func (m *matchRepoMock) ListUpcoming(ctx context.Context, now time.Time) ([]match.Match, error) {
	args := m.Called(ctx, now)
	matches, _ := args.Get(0).([]match.Match)
	return matches, args.Error(1)
}

func (m *matchRepoMock) ListLive(ctx context.Context, now time.Time) ([]match.Match, error) {
	args := m.Called(ctx, now)
	matches, _ := args.Get(0).([]match.Match)
	return matches, args.Error(1)
}

func (m *matchRepoMock) ListByLeagueSince(ctx context.Context, leagueID int64, since time.Time) ([]match.Match, error) {
	args := m.Called(ctx, leagueID, since)
	matches, _ := args.Get(0).([]match.Match)
	return matches, args.Error(1)
}

func (m *matchRepoMock) ListStarted(ctx context.Context, before time.Time) ([]match.Match, error) {
	args := m.Called(ctx, before)
	matches, _ := args.Get(0).([]match.Match)
	return matches, args.Error(1)
}

func (m *matchRepoMock) Update(ctx context.Context, mt match.Match) (match.Match, bool, error) {
	args := m.Called(ctx, mt)
	return args.Get(0).(match.Match), args.Bool(1), args.Error(2)
}

func (m *matchRepoMock) Delete(ctx context.Context, matchID int64) (bool, error) {
	args := m.Called(ctx, matchID)
	return args.Bool(0), args.Error(1)
}

func (m *matchRepoMock) IngestBatch(ctx context.Context, leagueID int64, rows []match.Match) (match.BatchResult, error) {
	args := m.Called(ctx, leagueID, rows)
	return args.Get(0).(match.BatchResult), args.Error(1)
}

func (m *matchRepoMock) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *matchRepoMock) NextScheduledStart(ctx context.Context, after time.Time) (*time.Time, error) {
	args := m.Called(ctx, after)
	next, _ := args.Get(0).(*time.Time)
	return next, args.Error(1)
}

func (m *matchRepoMock) BeginCrawl(ctx context.Context, matchID int64, now time.Time, cooldown, staleLease time.Duration) (bool, error) {
	args := m.Called(ctx, matchID, now, cooldown, staleLease)
	return args.Bool(0), args.Error(1)
}

func (m *matchRepoMock) FinishCrawl(ctx context.Context, matchID int64, finishedAt time.Time) error {
	args := m.Called(ctx, matchID, finishedAt)
	return args.Error(0)
}

type streamSourceRepoMock struct{ mock.Mock }

func newStreamSourceRepoMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *streamSourceRepoMock {
	m := &streamSourceRepoMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *streamSourceRepoMock) ListAll(ctx context.Context) ([]streamsource.StreamSource, error) {
	args := m.Called(ctx)
	sources, _ := args.Get(0).([]streamsource.StreamSource)
	return sources, args.Error(1)
}

func (m *streamSourceRepoMock) ListByMatch(ctx context.Context, matchID int64) ([]streamsource.StreamSource, error) {
	args := m.Called(ctx, matchID)
	sources, _ := args.Get(0).([]streamsource.StreamSource)
	return sources, args.Error(1)
}

func (m *streamSourceRepoMock) CountByMatch(ctx context.Context, matchID int64) (int, error) {
	args := m.Called(ctx, matchID)
	return args.Int(0), args.Error(1)
}

func (m *streamSourceRepoMock) Insert(ctx context.Context, s streamsource.StreamSource) (streamsource.StreamSource, bool, error) {
	args := m.Called(ctx, s)
	return args.Get(0).(streamsource.StreamSource), args.Bool(1), args.Error(2)
}

type extractorMock struct{ mock.Mock }

func newExtractorMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *extractorMock {
	m := &extractorMock{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *extractorMock) FetchFixtures(ctx context.Context, profile extraction.Profile) ([]extraction.RawFixture, error) {
	args := m.Called(ctx, profile)
	raws, _ := args.Get(0).([]extraction.RawFixture)
	return raws, args.Error(1)
}

func (m *extractorMock) FetchCandidateLinks(ctx context.Context, matchURL string) ([]string, error) {
	args := m.Called(ctx, matchURL)
	links, _ := args.Get(0).([]string)
	return links, args.Error(1)
}

func (m *extractorMock) ResolvePlayableSource(ctx context.Context, candidateURL string) (string, error) {
	args := m.Called(ctx, candidateURL)
	return args.String(0), args.Error(1)
}
