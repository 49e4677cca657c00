// Package api contains the job-search API adapters. Each adapter returns raw
// records in its source's own field vocabulary; the standardizer owns the
// mapping to the canonical shape.
package api

import (
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"JobRadar/internal/domain"
)

const (
	httpTimeout = 15 * time.Second

	// Minimum spacing between consecutive page fetches against one source,
	// token-paced so concurrent callers still serialize per endpoint.
	pageInterval = 250 * time.Millisecond
)

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

func newPageLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Every(pageInterval), 1)
}

// stamp records which search produced the raw record and when it was pulled.
func stamp(raw domain.RawRecord, query, location string, at time.Time) domain.RawRecord {
	raw["search_query"] = query
	raw["search_location"] = location
	raw["date_downloaded"] = at
	return raw
}
