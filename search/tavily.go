package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"beruang/domain"
)

const (
	tavilyEndpoint = "https://api.tavily.com/search"
	searchTimeout  = 10 * time.Second
	maxResults     = 5
)

// Service is the web place lookup: detector + Tavily client + result
// cache. A missing API key disables it cleanly; every failure degrades to
// a nil result so routing is never blocked on the web.
type Service struct {
	*Detector
	log    *slog.Logger
	apiKey string
	client *http.Client
	cache  *Cache
}

func NewService(log *slog.Logger, apiKey string, cache *Cache) *Service {
	return &Service{
		Detector: NewDetector(),
		log:      log,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: searchTimeout},
		cache:    cache,
	}
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilyResult struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type tavilyResponse struct {
	Answer  string         `json:"answer"`
	Results []tavilyResult `json:"results"`
}

// Search queries Tavily for the (halal-filtered) query. Results are cached
// so repeated place questions do not burn API quota. Returns (nil, nil)
// when the key is missing or nothing was found.
func (s *Service) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	if s.apiKey == "" {
		s.log.Debug("Web search disabled, no API key")
		return nil, nil
	}

	query = AppendHalalFilter(query)

	if s.cache != nil {
		if cached, ok := s.cache.Get(query); ok {
			s.log.Debug("Web search cache hit", "query", query)
			return cached, nil
		}
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:        s.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
		MaxResults:    maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilyEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("web search returned %d: %s", resp.StatusCode, payload)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if len(parsed.Results) == 0 {
		s.log.Debug("Web search found nothing", "query", query)
		return nil, nil
	}

	result := formatResults(parsed)
	if s.cache != nil {
		s.cache.Set(query, result)
	}

	s.log.Info("Web search results",
		"query", query,
		"count", len(parsed.Results),
		"lang", s.Language(query))
	return result, nil
}

func formatResults(resp tavilyResponse) *domain.SearchResult {
	lines := lo.Map(resp.Results, func(r tavilyResult, i int) string {
		return fmt.Sprintf("%d. %s\n   %s\n   Source: %s", i+1, r.Title, r.Content, r.URL)
	})
	return &domain.SearchResult{
		Answer:  resp.Answer,
		Results: strings.Join(lines, "\n\n"),
		Sources: lo.Map(resp.Results, func(r tavilyResult, _ int) string { return r.URL }),
	}
}
