// Package storage persists enriched job batches into Postgres with
// normalized lookup tables and a metadata link table.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"JobRadar/internal/domain"
	"JobRadar/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Day-first first, matching the source-reported formats ("13/05/2025"),
// then the ISO shapes Adzuna and Remotive emit.
var createdLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// PostgresRepository implements ports.JobRepository over database/sql.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ ports.JobRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	return &PostgresRepository{db: db, logger: logger}
}

// ExistingKeys loads the natural-key projection of the jobs table. An
// unreachable store or a missing table is reported as an empty set so a cold
// deployment is never blocked by against-store dedup.
func (r *PostgresRepository) ExistingKeys(ctx context.Context) (map[domain.NaturalKey]struct{}, error) {
	keys := make(map[domain.NaturalKey]struct{})
	if r.db == nil {
		return keys, nil
	}

	query, args, err := psql.
		Select("title", "description", "salary_min", "salary_max", "redirect_url").
		From("jobs").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build keys query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.warn("jobs table not readable, treating store as empty", "error", err)
		return keys, nil
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key                  domain.NaturalKey
			salaryMin, salaryMax sql.NullFloat64
		)
		if err := rows.Scan(&key.Title, &key.Description, &salaryMin, &salaryMax, &key.RedirectURL); err != nil {
			return nil, fmt.Errorf("scan key row: %w", err)
		}
		if salaryMin.Valid {
			key.SalaryMin = salaryMin.Float64
			key.HasSalaryMin = true
		}
		if salaryMax.Valid {
			key.SalaryMax = salaryMax.Float64
			key.HasSalaryMax = true
		}
		keys[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate key rows: %w", err)
	}

	return keys, nil
}

// jobKey extends the natural key with the resolved foreign keys, the
// projection used to decide whether a row already exists in storage.
type jobKey struct {
	domain.NaturalKey
	CompanyID  int64
	LocationID int64
}

// resolved is a batch record with its lookup ids attached.
type resolved struct {
	record     domain.JobRecord
	companyID  int64
	locationID int64
	jobLevelID sql.NullInt64
}

// Persist runs the whole upsert protocol for one batch inside a single
// transaction: lookup resolution, anti-join against existing jobs, bulk
// insert with RETURNING, and metadata linking with the returned ids.
func (r *PostgresRepository) Persist(ctx context.Context, batch []domain.JobRecord) (domain.PersistReport, error) {
	var report domain.PersistReport
	if r.db == nil || len(batch) == 0 {
		return report, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return report, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	companies, err := r.resolveLookup(ctx, tx, lookupCompanies, companyNames(batch), nil)
	if err != nil {
		return report, err
	}
	locations, err := r.resolveLookup(ctx, tx, lookupLocations, locationNames(batch), locationCoords(batch))
	if err != nil {
		return report, err
	}
	levels, err := r.resolveLookup(ctx, tx, lookupJobLevels, levelNames(batch), nil)
	if err != nil {
		return report, err
	}

	kept := make([]resolved, 0, len(batch))
	for _, record := range batch {
		companyID, hasCompany := companies[record.Company]
		locationID, hasLocation := locations[record.Location]
		if !hasCompany || !hasLocation {
			report.DroppedMissingRefs++
			continue
		}

		row := resolved{record: record, companyID: companyID, locationID: locationID}
		if levelID, ok := levels[string(record.JobLevel)]; ok {
			row.jobLevelID = sql.NullInt64{Int64: levelID, Valid: true}
		}
		kept = append(kept, row)
	}

	existing, err := r.loadExistingJobs(ctx, tx, kept)
	if err != nil {
		return report, err
	}

	newRows := make([]resolved, 0, len(kept))
	for _, row := range kept {
		key := jobKey{NaturalKey: row.record.Key(), CompanyID: row.companyID, LocationID: row.locationID}
		if _, ok := existing[key]; ok {
			continue
		}
		newRows = append(newRows, row)
	}

	if len(newRows) == 0 {
		return report, tx.Commit()
	}

	ids, err := r.insertJobs(ctx, tx, newRows)
	if err != nil {
		return report, err
	}
	report.Inserted = len(newRows)

	if len(ids) != len(newRows) {
		// Do not guess identifiers: keep the job rows, skip the linking.
		report.CorrelationMismatch = true
		r.warn("job id correlation mismatch, skipping metadata linking",
			"inserted", len(newRows), "returned", len(ids))
		return report, tx.Commit()
	}

	if err := r.insertMetadata(ctx, tx, newRows, ids); err != nil {
		return report, err
	}
	report.MetadataLinked = len(newRows)

	return report, tx.Commit()
}

// lookupSpec names one normalized table and its columns.
type lookupSpec struct {
	table   string
	idCol   string
	nameCol string
}

var (
	lookupCompanies = lookupSpec{"companies", "company_id", "company_name"}
	lookupLocations = lookupSpec{"locations", "location_id", "location_name"}
	lookupJobLevels = lookupSpec{"job_levels", "job_level_id", "level_name"}
)

// resolveLookup loads the current name-to-id mapping, inserts any batch value
// not yet present (locations carry the first observed coordinate pair), and
// reloads so store-generated ids are picked up.
func (r *PostgresRepository) resolveLookup(
	ctx context.Context,
	tx *sql.Tx,
	spec lookupSpec,
	names []string,
	coords map[string][2]*float64,
) (map[string]int64, error) {
	mapping, err := r.loadLookup(ctx, tx, spec)
	if err != nil {
		return nil, err
	}

	inserted := false
	for _, name := range names {
		if _, ok := mapping[name]; ok {
			continue
		}

		builder := psql.Insert(spec.table)
		if spec == lookupLocations {
			var lat, lon any
			if pair, ok := coords[name]; ok {
				if pair[0] != nil {
					lat = *pair[0]
				}
				if pair[1] != nil {
					lon = *pair[1]
				}
			}
			builder = builder.Columns(spec.nameCol, "latitude", "longitude").Values(name, lat, lon)
		} else {
			builder = builder.Columns(spec.nameCol).Values(name)
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return nil, fmt.Errorf("build %s insert: %w", spec.table, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("insert into %s: %w", spec.table, err)
		}
		inserted = true
	}

	if !inserted {
		return mapping, nil
	}
	return r.loadLookup(ctx, tx, spec)
}

func (r *PostgresRepository) loadLookup(ctx context.Context, tx *sql.Tx, spec lookupSpec) (map[string]int64, error) {
	query, args, err := psql.Select(spec.idCol, spec.nameCol).From(spec.table).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", spec.table, err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", spec.table, err)
	}
	defer rows.Close()

	mapping := make(map[string]int64)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", spec.table, err)
		}
		mapping[name] = id
	}

	return mapping, rows.Err()
}

// loadExistingJobs projects stored jobs onto the natural key extended with
// company and location ids. The projection is narrowed to the batch's
// redirect URLs: rows outside that set can never match the extended key.
func (r *PostgresRepository) loadExistingJobs(ctx context.Context, tx *sql.Tx, batch []resolved) (map[jobKey]struct{}, error) {
	existing := make(map[jobKey]struct{})
	if len(batch) == 0 {
		return existing, nil
	}

	urls := make([]string, 0, len(batch))
	seen := make(map[string]struct{}, len(batch))
	for _, row := range batch {
		if _, ok := seen[row.record.RedirectURL]; ok {
			continue
		}
		seen[row.record.RedirectURL] = struct{}{}
		urls = append(urls, row.record.RedirectURL)
	}

	query, args, err := psql.
		Select("title", "description", "salary_min", "salary_max", "redirect_url", "company_id", "location_id").
		From("jobs").
		Where("redirect_url = ANY(?)", pq.Array(urls)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build existing jobs query: %w", err)
	}

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query existing jobs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key                  jobKey
			salaryMin, salaryMax sql.NullFloat64
		)
		if err := rows.Scan(&key.Title, &key.Description, &salaryMin, &salaryMax,
			&key.RedirectURL, &key.CompanyID, &key.LocationID); err != nil {
			return nil, fmt.Errorf("scan existing job: %w", err)
		}
		if salaryMin.Valid {
			key.SalaryMin = salaryMin.Float64
			key.HasSalaryMin = true
		}
		if salaryMax.Valid {
			key.SalaryMax = salaryMax.Float64
			key.HasSalaryMax = true
		}
		existing[key] = struct{}{}
	}

	return existing, rows.Err()
}

// insertJobs bulk-inserts the new rows and returns the generated ids in
// insertion order. RETURNING makes the id recovery part of the insert itself
// instead of a re-read that assumes no concurrent writer.
func (r *PostgresRepository) insertJobs(ctx context.Context, tx *sql.Tx, rows []resolved) ([]int64, error) {
	builder := psql.
		Insert("jobs").
		Columns("title", "description", "salary_min", "salary_max", "redirect_url",
			"created", "source", "company_id", "location_id", "job_level_id").
		Suffix("RETURNING job_id")

	for _, row := range rows {
		record := row.record
		builder = builder.Values(
			record.Title,
			record.Description,
			nullFloat(record.SalaryMin),
			nullFloat(record.SalaryMax),
			record.RedirectURL,
			parseCreated(record.Created),
			string(record.Source),
			row.companyID,
			row.locationID,
			row.jobLevelID,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build jobs insert: %w", err)
	}

	result, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert jobs: %w", err)
	}
	defer result.Close()

	var ids []int64
	for result.Next() {
		var id int64
		if err := result.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan returned job id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, result.Err()
}

func (r *PostgresRepository) insertMetadata(ctx context.Context, tx *sql.Tx, rows []resolved, ids []int64) error {
	builder := psql.
		Insert("job_metadata").
		Columns("job_id", "search_query", "search_location", "date_downloaded")

	for i, row := range rows {
		record := row.record
		builder = builder.Values(ids[i], record.SearchQuery, record.SearchLocation, record.DateDownloaded)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build metadata insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert metadata: %w", err)
	}

	return nil
}

func companyNames(batch []domain.JobRecord) []string {
	return uniqueNames(batch, func(r domain.JobRecord) string { return r.Company })
}

func locationNames(batch []domain.JobRecord) []string {
	return uniqueNames(batch, func(r domain.JobRecord) string { return r.Location })
}

func levelNames(batch []domain.JobRecord) []string {
	return uniqueNames(batch, func(r domain.JobRecord) string { return string(r.JobLevel) })
}

func uniqueNames(batch []domain.JobRecord, pick func(domain.JobRecord) string) []string {
	seen := make(map[string]struct{}, len(batch))
	var names []string
	for _, record := range batch {
		name := pick(record)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// locationCoords picks the first non-nil coordinate pair observed for each
// location name in the batch.
func locationCoords(batch []domain.JobRecord) map[string][2]*float64 {
	coords := make(map[string][2]*float64)
	for _, record := range batch {
		if record.Location == "" {
			continue
		}
		if _, ok := coords[record.Location]; ok {
			continue
		}
		if record.Latitude != nil && record.Longitude != nil {
			coords[record.Location] = [2]*float64{record.Latitude, record.Longitude}
		}
	}
	return coords
}

// parseCreated coerces the source-reported timestamp, day-first formats
// before ISO ones; an unparsable value becomes NULL.
func parseCreated(value string) sql.NullTime {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return sql.NullTime{Time: t, Valid: true}
		}
	}
	return sql.NullTime{}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (r *PostgresRepository) warn(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
