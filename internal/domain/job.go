package domain

import "time"

// Source identifies which external API produced a record.
type Source string

const (
	SourceReed     Source = "reed"
	SourceAdzuna   Source = "adzuna"
	SourceJooble   Source = "jooble"
	SourceRemotive Source = "remotive"
)

// RawRecord is the source-specific shape returned by an adapter: field names
// belong to the upstream API and are only understood by the standardizer.
type RawRecord map[string]any

// JobRecord is the canonical posting flowing through the pipeline.
// Latitude/Longitude and the salary bounds stay nil until known; Created is
// kept as the source-reported string and parsed at persistence time.
type JobRecord struct {
	Title          string
	Company        string
	Location       string
	Latitude       *float64
	Longitude      *float64
	Description    string
	SalaryMin      *float64
	SalaryMax      *float64
	RedirectURL    string
	Created        string
	SearchQuery    string
	SearchLocation string
	Source         Source
	DateDownloaded time.Time
	JobLevel       JobLevel
}

// NaturalKey identifies a posting as logically the same across sources and
// runs. A nil salary bound is distinct from an explicit zero.
type NaturalKey struct {
	Title        string
	Description  string
	SalaryMin    float64
	HasSalaryMin bool
	SalaryMax    float64
	HasSalaryMax bool
	RedirectURL  string
}

// Key projects the record onto its natural key.
func (j JobRecord) Key() NaturalKey {
	key := NaturalKey{
		Title:       j.Title,
		Description: j.Description,
		RedirectURL: j.RedirectURL,
	}
	if j.SalaryMin != nil {
		key.SalaryMin = *j.SalaryMin
		key.HasSalaryMin = true
	}
	if j.SalaryMax != nil {
		key.SalaryMax = *j.SalaryMax
		key.HasSalaryMax = true
	}
	return key
}

// JobLevel is the seniority label assigned by the classifier.
type JobLevel string

const (
	LevelApprentice JobLevel = "Apprentice"
	LevelGraduate   JobLevel = "Graduate"
	LevelJunior     JobLevel = "Junior"
	LevelSenior     JobLevel = "Senior"
	LevelMid        JobLevel = "Mid-level"
	LevelUnknown    JobLevel = "Unknown"
)

// PersistReport summarizes one Persist call so the orchestrator can surface
// drop counts and correlation failures instead of burying them in logs.
type PersistReport struct {
	Inserted            int
	DroppedMissingRefs  int
	MetadataLinked      int
	CorrelationMismatch bool
}
