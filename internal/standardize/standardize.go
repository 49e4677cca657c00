// Package standardize maps source-specific raw records onto the canonical
// job-record shape. Every canonical field is resolved through an ordered list
// of alias keys; absent data becomes an empty string or nil, never an error.
package standardize

import (
	"strconv"
	"time"

	"JobRadar/internal/domain"
)

var (
	titleAliases       = []string{"title", "jobTitle"}
	companyAliases     = []string{"employerName", "company"}
	locationAliases    = []string{"locationName", "location"}
	descriptionAliases = []string{"jobDescription", "description"}
	salaryMinAliases   = []string{"minimumSalary", "salary_min"}
	salaryMaxAliases   = []string{"maximumSalary", "salary_max"}
	urlAliases         = []string{"jobUrl", "redirect_url"}
	createdAliases     = []string{"date", "created"}
)

// Standardize converts a raw record into a canonical one. It is total: any
// record, including nil, yields a fully populated JobRecord.
func Standardize(raw domain.RawRecord, source domain.Source) domain.JobRecord {
	record := domain.JobRecord{
		Title:          stringField(raw, titleAliases...),
		Company:        stringField(raw, companyAliases...),
		Location:       stringField(raw, locationAliases...),
		Latitude:       floatField(raw, "latitude"),
		Longitude:      floatField(raw, "longitude"),
		Description:    stringField(raw, descriptionAliases...),
		SalaryMin:      floatField(raw, salaryMinAliases...),
		SalaryMax:      floatField(raw, salaryMaxAliases...),
		RedirectURL:    stringField(raw, urlAliases...),
		Created:        stringField(raw, createdAliases...),
		SearchQuery:    stringField(raw, "search_query"),
		SearchLocation: stringField(raw, "search_location"),
		Source:         source,
	}

	record.DateDownloaded = timeField(raw, "date_downloaded")
	return record
}

// StandardizeBatch maps a whole raw batch from one source.
func StandardizeBatch(raws []domain.RawRecord, source domain.Source) []domain.JobRecord {
	records := make([]domain.JobRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, Standardize(raw, source))
	}
	return records
}

func stringField(raw domain.RawRecord, aliases ...string) string {
	for _, alias := range aliases {
		value, ok := raw[alias]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

func floatField(raw domain.RawRecord, aliases ...string) *float64 {
	for _, alias := range aliases {
		value, ok := raw[alias]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return &parsed
			}
		}
	}
	return nil
}

func timeField(raw domain.RawRecord, alias string) time.Time {
	if value, ok := raw[alias]; ok {
		if t, ok := value.(time.Time); ok {
			return t
		}
	}
	return time.Now()
}
