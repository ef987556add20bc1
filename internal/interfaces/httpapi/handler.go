package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/enkhjin/sportstream/internal/domain/league"
	"github.com/enkhjin/sportstream/internal/domain/match"
	"github.com/enkhjin/sportstream/internal/domain/streamsource"
	"github.com/enkhjin/sportstream/internal/platform/logging"
	"github.com/enkhjin/sportstream/internal/usecase"
)

const maxRequestBodyBytes = 1 << 20

type Handler struct {
	leagueService    *usecase.LeagueService
	matchService     *usecase.MatchService
	crawlService     *usecase.CrawlService
	ingestionService *usecase.IngestionService
	lifecycleService *usecase.LifecycleService
	gcService        *usecase.GCService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	leagueService *usecase.LeagueService,
	matchService *usecase.MatchService,
	crawlService *usecase.CrawlService,
	ingestionService *usecase.IngestionService,
	lifecycleService *usecase.LifecycleService,
	gcService *usecase.GCService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		leagueService:    leagueService,
		matchService:     matchService,
		crawlService:     crawlService,
		ingestionService: ingestionService,
		lifecycleService: lifecycleService,
		gcService:        gcService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type leagueDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	SourceURL string    `json:"sourceUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

func leagueToDTO(l league.League) leagueDTO {
	return leagueDTO{
		ID:        l.ID,
		Name:      l.Name,
		SourceURL: l.SourceURL,
		CreatedAt: l.CreatedAt,
	}
}

type matchDTO struct {
	ID             int64      `json:"id"`
	LeagueID       int64      `json:"leagueId"`
	Team1          string     `json:"team1"`
	Team2          string     `json:"team2,omitempty"`
	SourceLink     string     `json:"sourceLink"`
	ScheduledStart time.Time  `json:"scheduledStart"`
	ExpectedEnd    *time.Time `json:"expectedEnd,omitempty"`
	LiveAt         *time.Time `json:"liveAt,omitempty"`
	LiveEnd        *time.Time `json:"liveEnd,omitempty"`
	Description    string     `json:"description,omitempty"`
	IsLive         bool       `json:"isLive"`
	LastCrawlTime  *time.Time `json:"lastCrawlTime,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func matchToDTO(m match.Match) matchDTO {
	return matchDTO{
		ID:             m.ID,
		LeagueID:       m.LeagueID,
		Team1:          m.Team1,
		Team2:          m.Team2,
		SourceLink:     m.SourceLink,
		ScheduledStart: m.ScheduledStart,
		ExpectedEnd:    m.ExpectedEnd,
		LiveAt:         m.LiveAt,
		LiveEnd:        m.LiveEnd,
		Description:    m.Description,
		IsLive:         m.IsLive,
		LastCrawlTime:  m.LastCrawlTime,
		CreatedAt:      m.CreatedAt,
	}
}

func matchesToDTO(matches []match.Match) []matchDTO {
	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(m))
	}

	return items
}

type streamSourceDTO struct {
	ID             int64     `json:"id"`
	MatchID        int64     `json:"matchId"`
	Link           string    `json:"link"`
	ResolvedSource string    `json:"resolvedSource,omitempty"`
	DiscoveredAt   time.Time `json:"discoveredAt"`
}

func streamSourcesToDTO(sources []streamsource.StreamSource) []streamSourceDTO {
	items := make([]streamSourceDTO, 0, len(sources))
	for _, s := range sources {
		items = append(items, streamSourceDTO{
			ID:             s.ID,
			MatchID:        s.MatchID,
			Link:           s.Link,
			ResolvedSource: s.ResolvedSource,
			DiscoveredAt:   s.DiscoveredAt,
		})
	}

	return items
}

func pathMatchID(r *http.Request) (int64, error) {
	raw := r.PathValue("matchID")
	matchID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || matchID <= 0 {
		return 0, fmt.Errorf("%w: match id %q is not a positive integer", usecase.ErrInvalidInput, raw)
	}

	return matchID, nil
}

func decodeJSONBody(r *http.Request, dst any) error {
	defer r.Body.Close()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read request body: %v", usecase.ErrInvalidInput, err)
	}
	if len(body) == 0 {
		return fmt.Errorf("%w: request body is empty", usecase.ErrInvalidInput)
	}
	if err := sonic.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid json body: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}
