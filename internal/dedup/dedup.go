// Package dedup removes duplicate postings keyed on the natural-key tuple
// (title, description, salary_min, salary_max, redirect_url).
package dedup

import "JobRadar/internal/domain"

// Batch keeps the first occurrence per natural key, preserving the original
// relative order. It never mutates records and is idempotent.
func Batch(records []domain.JobRecord) []domain.JobRecord {
	seen := make(map[domain.NaturalKey]struct{}, len(records))
	kept := make([]domain.JobRecord, 0, len(records))
	for _, record := range records {
		key := record.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, record)
	}
	return kept
}

// AgainstStore removes records whose natural key already exists in storage.
// A nil or empty existing set passes the batch through unchanged, which is
// how an unreachable or cold store is represented.
func AgainstStore(records []domain.JobRecord, existing map[domain.NaturalKey]struct{}) []domain.JobRecord {
	if len(existing) == 0 {
		out := make([]domain.JobRecord, len(records))
		copy(out, records)
		return out
	}

	kept := make([]domain.JobRecord, 0, len(records))
	for _, record := range records {
		if _, ok := existing[record.Key()]; ok {
			continue
		}
		kept = append(kept, record)
	}
	return kept
}
