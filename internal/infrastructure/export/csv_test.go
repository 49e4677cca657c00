package export

import (
	"encoding/csv"
	"os"
	"testing"
	"time"

	"JobRadar/internal/domain"
)

func TestExportWritesTimestampedFile(t *testing.T) {
	t.Parallel()

	lat := 53.48
	salary := 45000.0
	batch := []domain.JobRecord{
		{
			Title:          "Data Scientist",
			Company:        "Model Works",
			Location:       "Manchester",
			Latitude:       &lat,
			SalaryMin:      &salary,
			RedirectURL:    "https://example.org/1",
			Created:        "2025-05-07T12:00:00Z",
			SearchQuery:    "data science",
			SearchLocation: "England",
			Source:         domain.SourceAdzuna,
			DateDownloaded: time.Date(2025, time.May, 7, 13, 0, 0, 0, time.UTC),
			JobLevel:       domain.LevelMid,
		},
	}

	exporter := NewCSVExporter(t.TempDir())
	at := time.Date(2025, time.May, 7, 19, 45, 0, 0, time.UTC)

	path, err := exporter.Export(batch, at)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	if rows[0][0] != "title" {
		t.Fatalf("unexpected header: %v", rows[0])
	}

	row := rows[1]
	if row[0] != "Data Scientist" || row[1] != "Model Works" {
		t.Fatalf("unexpected row: %v", row)
	}
	if row[3] != "53.48" {
		t.Fatalf("latitude not serialized: %v", row)
	}
	if row[4] != "" {
		t.Fatalf("nil longitude should be empty, got %q", row[4])
	}
	if row[14] != "Mid-level" {
		t.Fatalf("job level missing: %v", row)
	}
}

func TestExportEmptyBatchStillWritesHeader(t *testing.T) {
	t.Parallel()

	exporter := NewCSVExporter(t.TempDir())
	path, err := exporter.Export(nil, time.Now())
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
