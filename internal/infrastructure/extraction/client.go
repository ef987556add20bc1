package extraction

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/enkhjin/sportstream/internal/domain/extraction"
	"github.com/enkhjin/sportstream/internal/platform/logging"
	"github.com/enkhjin/sportstream/internal/platform/resilience"
	"github.com/enkhjin/sportstream/internal/usecase"
)

const (
	defaultBaseURL = "http://localhost:9222"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 6 << 20
)

var errRendererTransient = crerr.New("renderer transient failure")

// ClientConfig configures the renderer-service client. The renderer is a
// headless-browser sidecar that loads a page, waits for the expected nodes
// and returns the extracted content as JSON.
type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client implements extraction.Extractor against the renderer service.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type renderFixturesRequest struct {
	URL             string `json:"url"`
	FixtureSelector string `json:"fixture_selector,omitempty"`
	LinkSelector    string `json:"link_selector,omitempty"`
}

type renderFixturesResponse struct {
	Fixtures []struct {
		Team1    string `json:"team1"`
		Team2    string `json:"team2"`
		Link     string `json:"link"`
		Schedule string `json:"schedule"`
		Live     bool   `json:"live"`
	} `json:"fixtures"`
}

type renderLinksRequest struct {
	URL string `json:"url"`
}

type renderLinksResponse struct {
	Links []string `json:"links"`
}

type renderSourceRequest struct {
	URL            string `json:"url"`
	PlayerSelector string `json:"player_selector,omitempty"`
}

type renderSourceResponse struct {
	Source string `json:"source"`
}

func (c *Client) FetchFixtures(ctx context.Context, profile extraction.Profile) ([]extraction.RawFixture, error) {
	if strings.TrimSpace(profile.ListingURL) == "" {
		return nil, fmt.Errorf("league listing url is required")
	}

	var out renderFixturesResponse
	err := c.doJSON(ctx, "/render/fixtures", renderFixturesRequest{
		URL:             profile.ListingURL,
		FixtureSelector: profile.FixtureSelector,
		LinkSelector:    profile.LinkSelector,
	}, &out)
	if err != nil {
		if isTimeout(err) {
			c.logger.WarnContext(ctx, "fixture render timed out, treating as empty page", "league", profile.League, "url", profile.ListingURL)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch fixtures league=%s: %w", profile.League, err)
	}

	fixtures := make([]extraction.RawFixture, 0, len(out.Fixtures))
	for _, item := range out.Fixtures {
		fixtures = append(fixtures, extraction.RawFixture{
			Team1:        strings.TrimSpace(item.Team1),
			Team2:        strings.TrimSpace(item.Team2),
			SourceLink:   strings.TrimSpace(item.Link),
			RawSchedule:  strings.TrimSpace(item.Schedule),
			ObservedLive: item.Live,
		})
	}

	return fixtures, nil
}

func (c *Client) FetchCandidateLinks(ctx context.Context, matchURL string) ([]string, error) {
	if strings.TrimSpace(matchURL) == "" {
		return nil, fmt.Errorf("match url is required")
	}

	var out renderLinksResponse
	if err := c.doJSON(ctx, "/render/links", renderLinksRequest{URL: matchURL}, &out); err != nil {
		if isTimeout(err) {
			c.logger.WarnContext(ctx, "link render timed out, treating as no links", "url", matchURL)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch candidate links url=%s: %w", matchURL, err)
	}

	links := make([]string, 0, len(out.Links))
	for _, link := range out.Links {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		links = append(links, link)
	}

	return links, nil
}

func (c *Client) ResolvePlayableSource(ctx context.Context, candidateURL string) (string, error) {
	if strings.TrimSpace(candidateURL) == "" {
		return "", fmt.Errorf("candidate url is required")
	}

	var out renderSourceResponse
	if err := c.doJSON(ctx, "/render/source", renderSourceRequest{URL: candidateURL}, &out); err != nil {
		if isTimeout(err) {
			c.logger.WarnContext(ctx, "source render timed out, treating as no source", "url", candidateURL)
			return "", nil
		}
		return "", fmt.Errorf("resolve playable source url=%s: %w", candidateURL, err)
	}

	return strings.TrimSpace(out.Source), nil
}

func (c *Client) doJSON(ctx context.Context, path string, payload any, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "renderer circuit breaker rejected request", "state", c.breaker.State())
			return fmt.Errorf("%w: renderer service is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal renderer payload: %w", err)
	}

	fullURL := c.baseURL + path
	key := path + "#" + string(body)
	out, err, _ := c.flight.Do(key, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, fullURL, body)
		if c.circuitEnabled {
			if reqErr != nil && isRendererCircuitFailure(reqErr) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode renderer payload: %w", err)
	}

	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string, body []byte) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	_, _ = buf.Write(body)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(buf.B))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if isTimeout(err) {
				return nil, fmt.Errorf("%w: renderer wait timed out", context.DeadlineExceeded)
			}
			lastErr = fmt.Errorf("%w: send request: %v", errRendererTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errRendererTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: renderer status=%d body=%s", errRendererTransient, resp.StatusCode, abbreviateBody(raw))
			} else {
				return nil, fmt.Errorf("renderer status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("renderer request failed")
	}
	c.logger.WarnContext(ctx, "renderer request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRendererCircuitFailure(err error) bool {
	return stderrors.Is(err, errRendererTransient)
}

func isTimeout(err error) bool {
	return stderrors.Is(err, context.DeadlineExceeded)
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 512
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func maxInt(left, right int) int {
	if left > right {
		return left
	}
	return right
}
