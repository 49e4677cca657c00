package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"JobRadar/internal/domain"
	"JobRadar/internal/ports"
)

const (
	reedBaseURL      = "https://www.reed.co.uk/api/1.0/search"
	reedPageSize     = 100
	reedTotalResults = 1000
)

// ReedSource fetches postings from the Reed API with Basic auth. An empty
// API key makes Fetch return nil without error, so a missing credential only
// skips the source.
type ReedSource struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.JobSource = (*ReedSource)(nil)

// NewReedSource builds the adapter with a shared HTTP client.
func NewReedSource(apiKey string, logger *slog.Logger) *ReedSource {
	return &ReedSource{
		apiKey:   apiKey,
		endpoint: reedBaseURL,
		client:   newHTTPClient(),
		limiter:  newPageLimiter(),
		logger:   logger,
		now:      time.Now,
	}
}

// Name identifies the adapter inside the registry.
func (s *ReedSource) Name() domain.Source {
	return domain.SourceReed
}

// Fetch pages through Reed results for one query/location pair. A transport
// failure mid-run returns what was collected so far.
func (s *ReedSource) Fetch(ctx context.Context, query, location string) ([]domain.RawRecord, error) {
	if s.apiKey == "" {
		s.log("reed api key not set, skipping source")
		return nil, nil
	}

	downloaded := s.now()
	var collected []domain.RawRecord

	for skip := 0; skip < reedTotalResults; skip += reedPageSize {
		if err := s.limiter.Wait(ctx); err != nil {
			return collected, err
		}

		page, err := s.fetchPage(ctx, query, location, skip)
		if err != nil {
			return collected, fmt.Errorf("reed page at offset %d: %w", skip, err)
		}
		if len(page) == 0 {
			break
		}

		for _, raw := range page {
			collected = append(collected, stamp(raw, query, location, downloaded))
		}
	}

	return collected, nil
}

func (s *ReedSource) fetchPage(ctx context.Context, query, location string, skip int) ([]domain.RawRecord, error) {
	params := url.Values{}
	params.Set("keywords", query)
	params.Set("locationName", location)
	params.Set("resultsToTake", strconv.Itoa(reedPageSize))
	params.Set("resultsToSkip", strconv.Itoa(skip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(s.apiKey + ":"))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("reed returned %s: %s", resp.Status, body)
	}

	var payload struct {
		Results []domain.RawRecord `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return payload.Results, nil
}

func (s *ReedSource) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
