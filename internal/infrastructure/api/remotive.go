package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"JobRadar/internal/domain"
	"JobRadar/internal/ports"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

var blankRuns = regexp.MustCompile(`\n{2,}`)

// RemotiveSource fetches remote-first postings. Remotive descriptions arrive
// as HTML and are flattened to readable plain text before standardization.
type RemotiveSource struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.JobSource = (*RemotiveSource)(nil)

// NewRemotiveSource builds the adapter; Remotive needs no credentials.
func NewRemotiveSource(logger *slog.Logger) *RemotiveSource {
	return &RemotiveSource{
		endpoint: remotiveBaseURL,
		client:   newHTTPClient(),
		limiter:  newPageLimiter(),
		logger:   logger,
		now:      time.Now,
	}
}

// Name identifies the adapter inside the registry.
func (s *RemotiveSource) Name() domain.Source {
	return domain.SourceRemotive
}

type remotiveJob struct {
	CompanyName     string `json:"company_name"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Location        string `json:"candidate_required_location"`
	PublicationDate string `json:"publication_date"`
}

// Fetch queries Remotive; the location argument is only recorded as search
// metadata because the board is remote-first.
func (s *RemotiveSource) Fetch(ctx context.Context, query, location string) ([]domain.RawRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("search", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
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
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("remotive returned %s: %s", resp.Status, payload)
	}

	var payload struct {
		Jobs []remotiveJob `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	downloaded := s.now()
	collected := make([]domain.RawRecord, 0, len(payload.Jobs))
	for _, job := range payload.Jobs {
		raw := domain.RawRecord{
			"title":        job.Title,
			"company":      job.CompanyName,
			"location":     job.Location,
			"description":  CleanHTML(job.Description),
			"redirect_url": job.URL,
			"created":      job.PublicationDate,
		}
		collected = append(collected, stamp(raw, query, location, downloaded))
	}

	return collected, nil
}

// CleanHTML converts an HTML description to plain text, dropping scripts,
// styles and images, and keeping paragraph breaks readable.
func CleanHTML(rawHTML string) string {
	if rawHTML == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return strings.TrimSpace(rawHTML)
	}

	doc.Find("script, style, img").Remove()
	doc.Find("br, p, div, ul, li").BeforeHtml("\n")

	text := doc.Text()
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
