// Package export writes the final enriched batch to a timestamped CSV for
// audit and debugging; the file is not part of the durable data model.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"JobRadar/internal/domain"
	"JobRadar/internal/ports"
)

var columns = []string{
	"title", "company", "location", "latitude", "longitude", "description",
	"salary_min", "salary_max", "redirect_url", "created", "search_query",
	"search_location", "source", "date_downloaded", "job_level",
}

// CSVExporter writes one file per run under a target directory.
type CSVExporter struct {
	dir string
}

var _ ports.Exporter = (*CSVExporter)(nil)

// NewCSVExporter points the exporter at a directory, created on demand.
func NewCSVExporter(dir string) *CSVExporter {
	if dir == "" {
		dir = "tmp_outputs"
	}
	return &CSVExporter{dir: dir}
}

// Export writes the batch as all_jobs_<timestamp>.csv and returns the path.
func (e *CSVExporter) Export(batch []domain.JobRecord, at time.Time) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("all_jobs_%s.csv", at.Format("20060102150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(columns); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}

	for _, record := range batch {
		row := []string{
			record.Title,
			record.Company,
			record.Location,
			floatText(record.Latitude),
			floatText(record.Longitude),
			record.Description,
			floatText(record.SalaryMin),
			floatText(record.SalaryMax),
			record.RedirectURL,
			record.Created,
			record.SearchQuery,
			record.SearchLocation,
			string(record.Source),
			record.DateDownloaded.Format("2006-01-02 15:04:05"),
			string(record.JobLevel),
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush export: %w", err)
	}

	return path, nil
}

func floatText(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
