package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/parley/internal/common"
	"github.com/ternarybob/parley/internal/models"
	"golang.org/x/time/rate"
)

const searchEndpoint = "https://www.googleapis.com/customsearch/v1"

var (
	// ErrNotConfigured indicates provider credentials are absent; no
	// network call was attempted.
	ErrNotConfigured = errors.New("web lookup is not configured")

	// ErrLookupFailed indicates a provider or transport failure; details
	// are logged server-side, never surfaced to the caller.
	ErrLookupFailed = errors.New("web lookup failed")
)

// GoogleService implements WebSearchService against Google Custom Search
type GoogleService struct {
	config   *common.WebLookupConfig
	logger   arbor.ILogger
	client   *http.Client
	limiter  *rate.Limiter
	endpoint string
}

// NewGoogleService creates a new Google Custom Search adapter
func NewGoogleService(config *common.WebLookupConfig, logger arbor.ILogger) *GoogleService {
	client := &http.Client{
		Timeout: config.RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: config.ConnectTimeout,
			}).DialContext,
		},
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Every(config.RateLimit)
	}

	return &GoogleService{
		config:   config,
		logger:   logger,
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		endpoint: searchEndpoint,
	}
}

// Configured reports whether provider credentials are present
func (s *GoogleService) Configured() bool {
	return s.config.APIKey != "" && s.config.SearchEngineID != ""
}

// Search fetches up to topK results for the query. topK is clamped to the
// provider's accepted 1-10 range.
func (s *GoogleService) Search(ctx context.Context, query string, topK int) ([]models.WebResult, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	if topK < 1 {
		topK = 1
	}
	if topK > 10 {
		topK = 10
	}

	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Google lookup aborted while rate limited")
		return nil, ErrLookupFailed
	}

	params := url.Values{}
	params.Set("key", s.config.APIKey)
	params.Set("cx", s.config.SearchEngineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(topK))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build Google lookup request")
		return nil, ErrLookupFailed
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Msg("Google lookup request error")
		return nil, ErrLookupFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.logger.Error().
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("Google lookup failed")
		return nil, ErrLookupFailed
	}

	var payload struct {
		Items []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			Link    string `json:"link"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode Google lookup response")
		return nil, ErrLookupFailed
	}

	results := make([]models.WebResult, 0, len(payload.Items))
	for _, item := range payload.Items {
		result := models.WebResult{
			Title:   item.Title,
			Snippet: item.Snippet,
			Link:    item.Link,
		}
		if result.Empty() {
			continue
		}
		results = append(results, result)
	}

	s.logger.Debug().
		Int("requested", topK).
		Int("results", len(results)).
		Msg("Google lookup complete")

	return results, nil
}

// Provider returns the provider identifier reported on the status endpoint
func (s *GoogleService) Provider() string {
	return "google-cse"
}
