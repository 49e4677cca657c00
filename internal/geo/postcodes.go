package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// PostcodeIndex is the offline mapping from a normalized postcode (upper
// case, no spaces) to its coordinates, preloaded once per run.
type PostcodeIndex struct {
	coords map[string][2]float64
}

// LoadPostcodes reads a CSV with postcode, latitude and longitude columns.
// Header names are matched case-insensitively; rows with unparsable
// coordinates are skipped.
func LoadPostcodes(path string) (*PostcodeIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open postcode table: %w", err)
	}
	defer f.Close()

	return ReadPostcodes(f)
}

// ReadPostcodes parses the postcode table from any reader.
func ReadPostcodes(r io.Reader) (*PostcodeIndex, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read postcode header: %w", err)
	}

	postcodeCol, latCol, lonCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "postcode":
			postcodeCol = i
		case "latitude":
			latCol = i
		case "longitude":
			lonCol = i
		}
	}
	if postcodeCol < 0 || latCol < 0 || lonCol < 0 {
		return nil, fmt.Errorf("postcode table missing required columns, got %v", header)
	}

	index := &PostcodeIndex{coords: make(map[string][2]float64)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read postcode row: %w", err)
		}
		if len(row) <= postcodeCol || len(row) <= latCol || len(row) <= lonCol {
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[latCol]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[lonCol]), 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		index.coords[NormalizePostcode(row[postcodeCol])] = [2]float64{lat, lon}
	}

	return index, nil
}

// Lookup returns the coordinates for a postcode, exact match only after
// normalization.
func (p *PostcodeIndex) Lookup(postcode string) (lat, lon *float64) {
	if p == nil {
		return nil, nil
	}
	pair, ok := p.coords[NormalizePostcode(postcode)]
	if !ok {
		return nil, nil
	}
	return &pair[0], &pair[1]
}

// Len reports how many postcodes were loaded.
func (p *PostcodeIndex) Len() int {
	if p == nil {
		return 0
	}
	return len(p.coords)
}

// NormalizePostcode strips whitespace and upper-cases the value.
func NormalizePostcode(postcode string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(postcode), " ", ""))
}
