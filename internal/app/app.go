package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/enkhjin/sportstream/internal/config"
	"github.com/enkhjin/sportstream/internal/domain/league"
	"github.com/enkhjin/sportstream/internal/infrastructure/extraction"
	cacherepo "github.com/enkhjin/sportstream/internal/infrastructure/repository/cache"
	"github.com/enkhjin/sportstream/internal/infrastructure/repository/postgres"
	"github.com/enkhjin/sportstream/internal/interfaces/httpapi"
	"github.com/enkhjin/sportstream/internal/platform/cache"
	"github.com/enkhjin/sportstream/internal/platform/logging"
	"github.com/enkhjin/sportstream/internal/platform/resilience"
	"github.com/enkhjin/sportstream/internal/usecase"
)

// Services bundles the wired use-case layer. Both binaries build the same
// set; the api serves it over HTTP, the crawler hands it to the scheduler.
type Services struct {
	DB        *sqlx.DB
	League    *usecase.LeagueService
	Match     *usecase.MatchService
	Ingestion *usecase.IngestionService
	Lifecycle *usecase.LifecycleService
	Crawl     *usecase.CrawlService
	GC        *usecase.GCService
}

func NewServices(cfg config.Config, logger *logging.Logger) (*Services, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := otelsqlx.Connect("postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	var leagueRepo league.Repository = postgres.NewLeagueRepository(db)
	if cfg.CacheEnabled {
		leagueRepo = cacherepo.NewLeagueRepository(leagueRepo, cache.NewStore(cfg.CacheTTL))
	}
	matchRepo := postgres.NewMatchRepository(db)
	sourceRepo := postgres.NewStreamSourceRepository(db)

	extractor := extraction.NewClient(extraction.ClientConfig{
		BaseURL:    cfg.ExtractorBaseURL,
		Timeout:    cfg.ExtractorTimeout,
		MaxRetries: cfg.ExtractorMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ExtractorCircuitEnabled,
			FailureThreshold: cfg.ExtractorCircuitFailureCount,
			OpenTimeout:      cfg.ExtractorCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ExtractorCircuitHalfOpenMaxReq,
		},
	})

	parser, err := usecase.NewScheduleParser(cfg.SourceTimezone, cfg.LocalTimezone)
	if err != nil {
		return nil, fmt.Errorf("build schedule parser: %w", err)
	}

	return &Services{
		DB:     db,
		League: usecase.NewLeagueService(leagueRepo),
		Match:  usecase.NewMatchService(leagueRepo, matchRepo, sourceRepo, logger),
		Ingestion: usecase.NewIngestionService(
			leagueRepo, matchRepo, extractor, parser, cfg.LeagueSources, logger),
		Lifecycle: usecase.NewLifecycleService(matchRepo, logger),
		Crawl: usecase.NewCrawlService(matchRepo, sourceRepo, extractor, usecase.CrawlServiceConfig{
			Cooldown:   cfg.CrawlCooldown,
			StaleLease: cfg.CrawlStaleLease,
		}, logger),
		GC: usecase.NewGCService(matchRepo, sourceRepo, usecase.GCPolicy{
			StaleAge:   cfg.GCStaleAge,
			MinSources: cfg.GCMinSources,
			NoLinksAge: cfg.GCNoLinksAge,
		}, logger),
	}, nil
}

func (s *Services) Close() error {
	if s.DB == nil {
		return nil
	}

	return s.DB.Close()
}

func NewHTTPServer(cfg config.Config, services *Services, logger *logging.Logger) (*http.Server, error) {
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	handler := httpapi.NewHandler(
		services.League,
		services.Match,
		services.Crawl,
		services.Ingestion,
		services.Lifecycle,
		services.GC,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	return &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}, nil
}
