package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"JobRadar/internal/domain"
	"JobRadar/internal/ports"
)

const joobleBaseURL = "https://jooble.org/api/"

// Salary patterns tried in order against the snippet when the API does not
// report a salary field: "£62,500", "£100k", "£18 - £21", "100k to 120k".
var salaryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[£$]\s?\d{1,3}(?:,\d{3})+`),
	regexp.MustCompile(`[£$]\s?\d{2,3}[kK]`),
	regexp.MustCompile(`[£$]\s?\d+(?:\.\d{2})?\s?-\s?[£$]?\s?\d+(?:\.\d{2})?`),
	regexp.MustCompile(`[£$]?\d+(?:[kK])?\s?(?:to|-)\s?[£$]?\d+(?:[kK])?`),
}

var salaryAmount = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d+)?[kK]?`)

// JoobleSource fetches postings from the Jooble API (POST with a JSON body).
// Only UK postings are kept, matching the market the pipeline serves.
type JoobleSource struct {
	apiKey   string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.JobSource = (*JoobleSource)(nil)

// NewJoobleSource builds the adapter.
func NewJoobleSource(apiKey string, logger *slog.Logger) *JoobleSource {
	return &JoobleSource{
		apiKey:   apiKey,
		endpoint: joobleBaseURL,
		client:   newHTTPClient(),
		limiter:  newPageLimiter(),
		logger:   logger,
		now:      time.Now,
	}
}

// Name identifies the adapter inside the registry.
func (s *JoobleSource) Name() domain.Source {
	return domain.SourceJooble
}

type joobleJob struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Snippet  string `json:"snippet"`
	Salary   string `json:"salary"`
	Link     string `json:"link"`
	Updated  string `json:"updated"`
}

// Fetch posts one search request and normalizes the results.
func (s *JoobleSource) Fetch(ctx context.Context, query, location string) ([]domain.RawRecord, error) {
	if s.apiKey == "" {
		s.log("jooble api key not set, skipping source")
		return nil, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{
		"keywords": query,
		"location": location,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal jooble payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+s.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jooble returned %s: %s", resp.Status, payload)
	}

	var payload struct {
		Jobs []joobleJob `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	downloaded := s.now()
	var collected []domain.RawRecord
	for _, job := range payload.Jobs {
		if !strings.Contains(job.Location, "UK") && !strings.Contains(job.Location, "United Kingdom") {
			continue
		}

		raw := domain.RawRecord{
			"title":        job.Title,
			"company":      job.Company,
			"location":     job.Location,
			"description":  job.Snippet,
			"redirect_url": job.Link,
			"created":      job.Updated,
		}

		salary := job.Salary
		if salary == "" {
			salary = extractSalaryText(job.Snippet)
		}
		if min, max, ok := parseSalaryRange(salary); ok {
			raw["salary_min"] = min
			if max != min {
				raw["salary_max"] = max
			}
		}

		collected = append(collected, stamp(raw, query, location, downloaded))
	}

	return collected, nil
}

// extractSalaryText pulls a salary-looking fragment out of free text.
func extractSalaryText(text string) string {
	if text == "" {
		return ""
	}
	for _, pattern := range salaryPatterns {
		if match := pattern.FindString(text); match != "" {
			return match
		}
	}
	return ""
}

// parseSalaryRange turns a salary fragment into numeric bounds. A single
// amount yields min == max; "k" suffixes scale by a thousand.
func parseSalaryRange(text string) (min, max float64, ok bool) {
	amounts := salaryAmount.FindAllString(text, 2)
	if len(amounts) == 0 {
		return 0, 0, false
	}

	values := make([]float64, 0, len(amounts))
	for _, amount := range amounts {
		scale := 1.0
		if strings.HasSuffix(strings.ToLower(amount), "k") {
			scale = 1000
			amount = amount[:len(amount)-1]
		}
		amount = strings.ReplaceAll(amount, ",", "")
		value, err := strconv.ParseFloat(amount, 64)
		if err != nil {
			return 0, 0, false
		}
		values = append(values, value*scale)
	}

	if len(values) == 1 {
		return values[0], values[0], true
	}
	return values[0], values[1], true
}

func (s *JoobleSource) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
