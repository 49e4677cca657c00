package ports

import (
	"context"
	"time"

	"JobRadar/internal/domain"
)

// JobSource pulls raw postings from one upstream job-search API.
type JobSource interface {
	Name() domain.Source
	Fetch(ctx context.Context, query, location string) ([]domain.RawRecord, error)
}

// JobRepository persists enriched batches and exposes the natural-key
// projection used by against-store dedup.
type JobRepository interface {
	ExistingKeys(ctx context.Context) (map[domain.NaturalKey]struct{}, error)
	Persist(ctx context.Context, batch []domain.JobRecord) (domain.PersistReport, error)
}

// Geocoder resolves a free-text location to coordinates; a miss is (nil, nil).
type Geocoder interface {
	Resolve(ctx context.Context, location string) (lat, lon *float64)
}

// SalaryPredictor triggers the external model that back-fills predicted
// salary bounds on persisted rows.
type SalaryPredictor interface {
	PredictAndUpdate(ctx context.Context) error
}

// Exporter writes the final enriched batch to a non-authoritative artifact.
type Exporter interface {
	Export(batch []domain.JobRecord, at time.Time) (string, error)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
