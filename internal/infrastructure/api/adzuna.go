package api

import (
	"context"
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
	adzunaBaseURL      = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize     = 50
	adzunaTotalResults = 100
)

// AdzunaSource fetches postings from the Adzuna public API.
type AdzunaSource struct {
	appID    string
	appKey   string
	country  string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.JobSource = (*AdzunaSource)(nil)

// NewAdzunaSource builds the adapter; country is the Adzuna market code
// ("gb", "us", ...).
func NewAdzunaSource(appID, appKey, country string, logger *slog.Logger) *AdzunaSource {
	if country == "" {
		country = "gb"
	}
	return &AdzunaSource{
		appID:    appID,
		appKey:   appKey,
		country:  country,
		endpoint: adzunaBaseURL,
		client:   newHTTPClient(),
		limiter:  newPageLimiter(),
		logger:   logger,
		now:      time.Now,
	}
}

// Name identifies the adapter inside the registry.
func (s *AdzunaSource) Name() domain.Source {
	return domain.SourceAdzuna
}

// adzunaResult mirrors one Adzuna listing; nested company/location display
// names are flattened into the raw record.
type adzunaResult struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	RedirectURL string   `json:"redirect_url"`
	Created     string   `json:"created"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	SalaryMin   *float64 `json:"salary_min"`
	SalaryMax   *float64 `json:"salary_max"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
}

// Fetch pages through Adzuna results for one query/location pair.
func (s *AdzunaSource) Fetch(ctx context.Context, query, location string) ([]domain.RawRecord, error) {
	if s.appID == "" || s.appKey == "" {
		s.log("adzuna credentials not set, skipping source")
		return nil, nil
	}

	downloaded := s.now()
	var collected []domain.RawRecord

	pages := (adzunaTotalResults + adzunaPageSize - 1) / adzunaPageSize
	for page := 1; page <= pages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return collected, err
		}

		results, err := s.fetchPage(ctx, query, location, page)
		if err != nil {
			return collected, fmt.Errorf("adzuna page %d: %w", page, err)
		}
		if len(results) == 0 {
			break
		}

		for _, r := range results {
			raw := domain.RawRecord{
				"title":        r.Title,
				"company":      r.Company.DisplayName,
				"location":     r.Location.DisplayName,
				"description":  r.Description,
				"redirect_url": r.RedirectURL,
				"created":      r.Created,
			}
			if r.Latitude != nil {
				raw["latitude"] = *r.Latitude
			}
			if r.Longitude != nil {
				raw["longitude"] = *r.Longitude
			}
			if r.SalaryMin != nil {
				raw["salary_min"] = *r.SalaryMin
			}
			if r.SalaryMax != nil {
				raw["salary_max"] = *r.SalaryMax
			}
			collected = append(collected, stamp(raw, query, location, downloaded))
		}
	}

	return collected, nil
}

func (s *AdzunaSource) fetchPage(ctx context.Context, query, location string, page int) ([]adzunaResult, error) {
	params := url.Values{}
	params.Set("app_id", s.appID)
	params.Set("app_key", s.appKey)
	params.Set("what", query)
	params.Set("where", location)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))

	endpoint := fmt.Sprintf("%s/%s/search/%d", s.endpoint, s.country, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("adzuna returned %s: %s", resp.Status, body)
	}

	var payload struct {
		Results []adzunaResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return payload.Results, nil
}

func (s *AdzunaSource) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
