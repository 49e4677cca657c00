package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"JobRadar/internal/dedup"
	"JobRadar/internal/domain"
	"JobRadar/internal/joblevel"
	"JobRadar/internal/ports"
	"JobRadar/internal/source"
	"JobRadar/internal/standardize"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources         *source.Registry
	Repository      ports.JobRepository
	Geocoder        ports.Geocoder
	Predictor       ports.SalaryPredictor
	Exporter        ports.Exporter
	Queries         []string
	Locations       []string
	ExcludeKeywords []string
	Logger          *slog.Logger
}

// Pipeline implements the ingestion-reconciliation-enrichment-persistence
// workflow for one batch run.
type Pipeline struct {
	sources   *source.Registry
	repo      ports.JobRepository
	geocoder  ports.Geocoder
	predictor ports.SalaryPredictor
	exporter  ports.Exporter
	queries   []string
	locations []string
	excluded  []string
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		sources:   deps.Sources,
		repo:      deps.Repository,
		geocoder:  deps.Geocoder,
		predictor: deps.Predictor,
		exporter:  deps.Exporter,
		queries:   deps.Queries,
		locations: deps.Locations,
		excluded:  deps.ExcludeKeywords,
		logger:    deps.Logger,
	}
}

// ProcessRun executes one full batch run: fetch and standardize every
// query/location pair from every source, dedup, filter, enrich, persist,
// then hand off to the salary predictor and the audit export.
func (p *Pipeline) ProcessRun(ctx context.Context, now time.Time) error {
	if p.sources == nil {
		return nil
	}

	batch := p.collect(ctx)
	p.info("batch collected", "records", len(batch))

	batch = dedup.Batch(batch)
	batch = p.applyExclusions(batch)
	p.info("batch after dedup and filters", "records", len(batch))

	existing := map[domain.NaturalKey]struct{}{}
	if p.repo != nil {
		var err error
		existing, err = p.repo.ExistingKeys(ctx)
		if err != nil {
			return fmt.Errorf("load existing keys: %w", err)
		}
	}

	batch = dedup.AgainstStore(batch, existing)
	if len(batch) == 0 {
		p.info("nothing new today")
		return nil
	}
	p.info("new records to process", "records", len(batch))

	p.enrichCoordinates(ctx, batch)
	batch = joblevel.Assign(batch)

	if p.repo != nil {
		report, err := p.repo.Persist(ctx, batch)
		if err != nil {
			return fmt.Errorf("persist batch: %w", err)
		}
		p.info("batch persisted",
			"inserted", report.Inserted,
			"metadata_linked", report.MetadataLinked,
			"dropped_missing_refs", report.DroppedMissingRefs)
		if report.CorrelationMismatch {
			p.warn("metadata linking skipped for this batch: id correlation mismatch")
		}
	}

	if p.predictor != nil {
		if err := p.predictor.PredictAndUpdate(ctx); err != nil {
			p.warn("salary prediction failed", "error", err)
		}
	}

	if p.exporter != nil {
		path, err := p.exporter.Export(batch, now)
		if err != nil {
			p.warn("audit export failed", "error", err)
		} else {
			p.info("audit export written", "path", path)
		}
	}

	return nil
}

// collect pulls every source for every query/location pair. A source failure
// is isolated: whatever that source returned is kept, the error is logged,
// and the run continues.
func (p *Pipeline) collect(ctx context.Context) []domain.JobRecord {
	var batch []domain.JobRecord
	for _, src := range p.sources.All() {
		for _, query := range p.queries {
			for _, location := range p.locations {
				raws, err := src.Fetch(ctx, query, location)
				if err != nil {
					p.warn("source fetch failed",
						"source", src.Name(), "query", query, "location", location, "error", err)
				}
				if len(raws) == 0 {
					continue
				}
				batch = append(batch, standardize.StandardizeBatch(raws, src.Name())...)
			}
		}
	}
	return batch
}

// applyExclusions drops postings matching the unwanted-keyword list in title
// or description, case-insensitively.
func (p *Pipeline) applyExclusions(batch []domain.JobRecord) []domain.JobRecord {
	if len(p.excluded) == 0 {
		return batch
	}

	kept := batch[:0]
	for _, record := range batch {
		if p.isExcluded(record) {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}

func (p *Pipeline) isExcluded(record domain.JobRecord) bool {
	title := strings.ToLower(record.Title)
	description := strings.ToLower(record.Description)
	for _, keyword := range p.excluded {
		keyword = strings.ToLower(keyword)
		if keyword == "" {
			continue
		}
		if strings.Contains(title, keyword) || strings.Contains(description, keyword) {
			return true
		}
	}
	return false
}

func (p *Pipeline) enrichCoordinates(ctx context.Context, batch []domain.JobRecord) {
	if p.geocoder == nil {
		return
	}
	for i := range batch {
		if batch[i].Latitude != nil && batch[i].Longitude != nil {
			continue
		}
		lat, lon := p.geocoder.Resolve(ctx, batch[i].Location)
		batch[i].Latitude = lat
		batch[i].Longitude = lon
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
