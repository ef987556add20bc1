package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/enkhjin/sportstream/internal/domain/extraction"
	"github.com/enkhjin/sportstream/internal/domain/league"
	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/domain/streamsource"
	"github.com/enkhjin/sportstream/internal/infrastructure/repository/memory"
	"github.com/enkhjin/sportstream/internal/usecase"
)

type fakeExtractor struct {
	links []string
}

func (e *fakeExtractor) FetchFixtures(ctx context.Context, profile extraction.Profile) ([]extraction.RawFixture, error) {
	return nil, nil
}

func (e *fakeExtractor) FetchCandidateLinks(ctx context.Context, matchURL string) ([]string, error) {
	return e.links, nil
}

func (e *fakeExtractor) ResolvePlayableSource(ctx context.Context, candidateURL string) (string, error) {
	return candidateURL, nil
}

type apiFixture struct {
	router     http.Handler
	matchRepo  *memory.MatchRepository
	sourceRepo *memory.StreamSourceRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	sourceRepo := memory.NewStreamSourceRepository()
	matchRepo := memory.NewMatchRepository(sourceRepo)
	leagueRepo := memory.NewLeagueRepository()

	if _, err := leagueRepo.Upsert(context.Background(), league.League{Name: "EPL", SourceURL: "https://site/epl"}); err != nil {
		t.Fatalf("seed league: %v", err)
	}

	parser, err := usecase.NewScheduleParser("Europe/London", "Asia/Ulaanbaatar")
	if err != nil {
		t.Fatalf("NewScheduleParser: %v", err)
	}

	extractor := &fakeExtractor{links: []string{"https://s/1"}}
	handler := NewHandler(
		usecase.NewLeagueService(leagueRepo),
		usecase.NewMatchService(leagueRepo, matchRepo, sourceRepo, nil),
		usecase.NewCrawlService(matchRepo, sourceRepo, extractor, usecase.CrawlServiceConfig{}, nil),
		usecase.NewIngestionService(leagueRepo, matchRepo, extractor, parser, nil, nil),
		usecase.NewLifecycleService(matchRepo, nil),
		usecase.NewGCService(matchRepo, sourceRepo, usecase.GCPolicy{}, nil),
		nil,
	)

	return &apiFixture{
		router:     NewRouter(handler, nil, []string{"*"}, "job-secret"),
		matchRepo:  matchRepo,
		sourceRepo: sourceRepo,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	return body
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreateAndGetMatch(t *testing.T) {
	f := newAPIFixture(t)

	payload := `{
		"leagueId": 1,
		"team1": "Arsenal",
		"team2": "Spurs",
		"sourceLink": "https://site/arsenal-spurs",
		"scheduledStart": "2026-09-01T19:00:00Z",
		"description": "Derby"
	}`
	rec := f.do(t, http.MethodPost, "/v1/matches", payload, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	id, _ := data["id"].(float64)
	if id <= 0 {
		t.Fatalf("create: missing id in %v", body)
	}

	rec = f.do(t, http.MethodGet, "/v1/matches/"+strconv.Itoa(int(id)), "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}

	// The same fixture again collides on the dedup identity.
	rec = f.do(t, http.MethodPost, "/v1/matches", payload, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", rec.Code)
	}
}

func TestCreateMatchValidation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/matches", `{"leagueId": 1, "team1": ""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetMatchErrors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/v1/matches/abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: expected 400, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodGet, "/v1/matches/999", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rec.Code)
	}
}

func TestTriggerCrawlOnLiveMatch(t *testing.T) {
	f := newAPIFixture(t)

	inserted, err := f.matchRepo.Insert(context.Background(), match.Match{
		LeagueID:       1,
		Team1:          "Arsenal",
		SourceLink:     "https://site/arsenal",
		ScheduledStart: time.Now().UTC().Add(-30 * time.Minute),
	})
	if err != nil {
		t.Fatalf("seed match: %v", err)
	}

	rec := f.do(t, http.MethodPost, "/v1/matches/"+strconv.FormatInt(inserted.ID, 10)+"/crawl", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if crawled, _ := data["crawled"].(bool); !crawled {
		t.Fatalf("expected crawled=true, got %v", body)
	}
	sources, _ := data["sources"].([]any)
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
}

func TestUpdateMatch(t *testing.T) {
	f := newAPIFixture(t)

	inserted, err := f.matchRepo.Insert(context.Background(), match.Match{
		LeagueID:       1,
		Team1:          "Arsenal",
		Team2:          "Spurs",
		SourceLink:     "https://site/arsenal",
		ScheduledStart: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("seed match: %v", err)
	}

	rec := f.do(t, http.MethodPut, "/v1/matches/"+strconv.FormatInt(inserted.ID, 10),
		`{"team2": "Chelsea", "description": "Rescheduled"}`, map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if team2, _ := data["team2"].(string); team2 != "Chelsea" {
		t.Fatalf("team2: got=%q body=%v", team2, body)
	}
	if team1, _ := data["team1"].(string); team1 != "Arsenal" {
		t.Fatalf("unset field must keep stored value, got team1=%q", team1)
	}

	rec = f.do(t, http.MethodPut, "/v1/matches/999", `{"team2": "Chelsea"}`, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPut, "/v1/matches/"+strconv.FormatInt(inserted.ID, 10), `{"sourceLink": "not a url"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad source link: expected 400, got %d", rec.Code)
	}
}

func TestListAllStreamSourcesEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	ctx := context.Background()
	for matchID, link := range map[int64]string{41: "https://s/1", 42: "https://s/2"} {
		if _, _, err := f.sourceRepo.Insert(ctx, streamsource.StreamSource{MatchID: matchID, Link: link}); err != nil {
			t.Fatalf("seed stream source: %v", err)
		}
	}

	rec := f.do(t, http.MethodGet, "/v1/stream-sources", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	sources, _ := body["data"].([]any)
	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d body=%v", len(sources), body)
	}
}

func TestInternalJobRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/v1/internal/jobs/promote-live", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}

	rec = f.do(t, http.MethodPost, "/v1/internal/jobs/promote-live", "", map[string]string{"X-Internal-Job-Token": "job-secret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("with token: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}
